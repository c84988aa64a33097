package tabular

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"icrank/domain/dataset"
	"icrank/domain/stats"
)

// FormatValue renders a number the way the score files store it
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// scoreCells renders one row in ScoreTable.Columns order
func scoreCells(t *stats.ScoreTable, row stats.ScoreRow) []string {
	cells := []string{FormatValue(row.Score)}
	if t.HasMarginOfError {
		if row.MarginOfError != nil {
			cells = append(cells, FormatValue(*row.MarginOfError))
		} else {
			cells = append(cells, "")
		}
	}
	return append(cells, FormatValue(row.LocalP), FormatValue(row.GlobalP), FormatValue(row.FDR))
}

// WriteScores writes the score table as TSV, one line per feature in table order
func WriteScores(w io.Writer, t *stats.ScoreTable) error {
	bw := bufio.NewWriter(w)
	writeLine(bw, append([]string{"Feature"}, t.Columns()...))
	for _, row := range t.Rows {
		writeLine(bw, append([]string{row.Feature}, scoreCells(t, row)...))
	}
	return bw.Flush()
}

// WriteMerged writes feature values joined with their scores, in table order.
// Features missing from m are skipped.
func WriteMerged(w io.Writer, m *dataset.FeatureMatrix, t *stats.ScoreTable) error {
	bw := bufio.NewWriter(w)
	header := append([]string{"Feature"}, m.Samples...)
	writeLine(bw, append(header, t.Columns()...))

	idx := m.RowIndex()
	for _, row := range t.Rows {
		i, ok := idx[row.Feature]
		if !ok {
			continue
		}
		line := make([]string, 0, 1+m.NumSamples()+len(t.Columns()))
		line = append(line, row.Feature)
		for _, v := range m.Values[i] {
			line = append(line, FormatValue(v))
		}
		writeLine(bw, append(line, scoreCells(t, row)...))
	}
	return bw.Flush()
}

// WriteScoresFile writes the table to path; .xlsx paths get a workbook, anything
// else TSV. A .gz or .bz2 suffix compresses the output.
func WriteScoresFile(path string, t *stats.ScoreTable) error {
	w, err := createWriter(path)
	if err != nil {
		return err
	}
	if DetectFormat(path) == FormatXLSX {
		err = WriteScoresXLSX(w, t)
	} else {
		err = WriteScores(w, t)
	}
	if err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// WriteMergedFile writes feature values joined with scores as TSV, compressed by suffix
func WriteMergedFile(path string, m *dataset.FeatureMatrix, t *stats.ScoreTable) error {
	w, err := createWriter(path)
	if err != nil {
		return err
	}
	if err := WriteMerged(w, m, t); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// WriteScoresXLSX writes the table as a workbook with one sheet
func WriteScoresXLSX(w io.Writer, t *stats.ScoreTable) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := append([]string{"Feature"}, t.Columns()...)
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cells := make([]interface{}, 0, len(header))
		cells = append(cells, row.Feature)
		for _, c := range scoreCells(t, row) {
			if v, err := strconv.ParseFloat(c, 64); err == nil && !math.IsNaN(v) {
				cells = append(cells, v)
			} else {
				cells = append(cells, c)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func writeLine(w *bufio.Writer, cells []string) {
	w.WriteString(strings.Join(cells, "\t"))
	w.WriteByte('\n')
}
