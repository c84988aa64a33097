package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"icrank/domain/core"
	"icrank/domain/dataset"
	"icrank/internal"
)

// DataReader reads feature matrices and references from TSV, CSV, GCT and XLSX files.
// The first column holds row names; the header row holds column names.
type DataReader struct {
	filePath string
	fileType string
	logger   *internal.Logger
}

// NewDataReader creates a reader, choosing the format from the file extension.
// Unknown extensions are read as TSV.
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: DetectFormat(filePath), logger: logger}
}

// DetectFormat maps a file extension to a format, looking through a .gz or .bz2 suffix
func DetectFormat(filePath string) string {
	base, _ := SplitCompression(filePath)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv":
		return FormatCSV
	case ".gct":
		return FormatGCT
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	return FormatTSV
}

// ReadRaw reads the file into a RawTable
func (r *DataReader) ReadRaw() (*RawTable, error) {
	r.logger.Debug("[DataReader] Reading %s file: %s", r.fileType, r.filePath)
	startTime := time.Now()

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case FormatXLSX:
		rows, err = r.readExcelRows()
	default:
		rows, err = r.readDelimitedRows()
	}
	if err != nil {
		return nil, err
	}
	if r.fileType == FormatGCT {
		rows, err = stripGCT(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.filePath, err)
		}
	}

	table, err := processRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows, %d columns)",
		r.filePath, float64(time.Since(startTime).Nanoseconds())/1e6, len(table.RowNames), len(table.Columns))
	return table, nil
}

// ReadMatrix reads the file as a features x samples matrix
func (r *DataReader) ReadMatrix() (*dataset.FeatureMatrix, error) {
	table, err := r.ReadRaw()
	if err != nil {
		return nil, err
	}
	values, err := parseCells(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}
	return dataset.NewFeatureMatrix(table.RowNames, table.Columns, values)
}

// ReadReference reads one named row of the file as a reference vector.
// An empty name picks the first row.
func (r *DataReader) ReadReference(name string) (*dataset.Reference, error) {
	m, err := r.ReadMatrix()
	if err != nil {
		return nil, err
	}
	if m.NumFeatures() == 0 {
		return nil, fmt.Errorf("%w: %s has no data rows", core.ErrMalformedInput, r.filePath)
	}
	i := 0
	if name != "" {
		var ok bool
		if i, ok = m.RowIndex()[name]; !ok {
			return nil, fmt.Errorf("%w: row %q not found in %s", core.ErrMalformedInput, name, r.filePath)
		}
	}
	return dataset.NewReference(m.Features[i], m.Samples, m.Values[i])
}

func (r *DataReader) readDelimitedRows() ([][]string, error) {
	file, err := openReader(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", r.fileType, err)
	}
	defer file.Close()
	return readDelimited(file, r.fileType)
}

// readExcelRows reads the first sheet of a workbook
func (r *DataReader) readExcelRows() ([][]string, error) {
	file, err := openReader(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readDelimited(rd io.Reader, fileType string) ([][]string, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1
	if fileType != FormatCSV {
		reader.Comma = '\t'
		reader.LazyQuotes = true
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", fileType, err)
	}
	return rows, nil
}

// stripGCT drops the version and dimension lines and the Description column
func stripGCT(rows [][]string) ([][]string, error) {
	if len(rows) < 3 || !strings.HasPrefix(strings.TrimSpace(rows[0][0]), "#1.") {
		return nil, fmt.Errorf("%w: not a GCT file, missing #1.x version line", core.ErrMalformedInput)
	}
	rows = rows[2:]
	out := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: GCT line %d has no Description column", core.ErrMalformedInput, i+3)
		}
		out[i] = append([]string{row[0]}, row[2:]...)
	}
	return out, nil
}

// processRows splits raw rows into header, row names and cells
func processRows(rows [][]string) (*RawTable, error) {
	if len(rows) < 1 || len(rows[0]) < 1 {
		return nil, fmt.Errorf("%w: file must have a header row", core.ErrMalformedInput)
	}
	header := rows[0]
	table := &RawTable{
		IndexName: strings.TrimSpace(header[0]),
		Columns:   make([]string, len(header)-1),
	}
	for j, h := range header[1:] {
		table.Columns[j] = strings.TrimSpace(h)
	}

	for i, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row)-1 > len(table.Columns) {
			return nil, core.NewDimensionError(fmt.Sprintf("line %d", i+2), len(row)-1, len(table.Columns))
		}
		cells := make([]string, len(table.Columns))
		for j, cell := range row[1:] {
			cells[j] = strings.TrimSpace(cell)
		}
		table.RowNames = append(table.RowNames, strings.TrimSpace(row[0]))
		table.Cells = append(table.Cells, cells)
	}
	return table, nil
}

func parseCells(table *RawTable) ([][]float64, error) {
	values := make([][]float64, len(table.Cells))
	for i, cells := range table.Cells {
		row := make([]float64, len(cells))
		for j, cell := range cells {
			v, err := ParseValue(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: row %q column %q: %v", core.ErrMalformedInput, table.RowNames[i], table.Columns[j], err)
			}
			row[j] = v
		}
		values[i] = row
	}
	return values, nil
}

// ParseValue parses one cell. Missing-value tokens become NaN.
func ParseValue(cell string) (float64, error) {
	if _, missing := missingTokens[strings.ToLower(cell)]; missing {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
