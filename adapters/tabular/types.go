package tabular

// File formats understood by DataReader
const (
	FormatTSV  = "tsv"
	FormatCSV  = "csv"
	FormatGCT  = "gct"
	FormatXLSX = "xlsx"
)

// RawTable is a header row plus string cells, before numeric parsing
type RawTable struct {
	IndexName string     // first header cell
	Columns   []string   // remaining header cells
	RowNames  []string   // first cell of each data row
	Cells     [][]string // Cells[i][j] belongs to RowNames[i] and Columns[j]
}

// missingTokens parse as NaN
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"nan":  {},
	"null": {},
	"none": {},
	"#n/a": {},
}
