package tabular

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"icrank/domain/core"
	"icrank/domain/stats"
	"icrank/internal"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quietReader(path string) *DataReader {
	return NewDataReader(path, internal.NewDiscardLogger())
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("a/b.CSV"))
	assert.Equal(t, FormatGCT, DetectFormat("x.gct"))
	assert.Equal(t, FormatXLSX, DetectFormat("x.xlsx"))
	assert.Equal(t, FormatTSV, DetectFormat("x.tsv"))
	assert.Equal(t, FormatTSV, DetectFormat("x.txt"))
}

func TestReadMatrix_TSV(t *testing.T) {
	path := writeFile(t, "features.tsv", "Name\ts1\ts2\ts3\nTP53\t1\t2.5\tNA\nMYC\t0\t-1\t3\n")

	m, err := quietReader(path).ReadMatrix()
	require.NoError(t, err)
	assert.Equal(t, []string{"TP53", "MYC"}, m.Features)
	assert.Equal(t, []string{"s1", "s2", "s3"}, m.Samples)
	assert.Equal(t, 2.5, m.Values[0][1])
	assert.True(t, math.IsNaN(m.Values[0][2]))
	assert.Equal(t, []float64{0, -1, 3}, m.Values[1])
}

func TestReadMatrix_CSVShortRowsPadWithNaN(t *testing.T) {
	path := writeFile(t, "features.csv", "id,a,b\nf1,1\nf2,2,3\n")

	m, err := quietReader(path).ReadMatrix()
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Values[0][0])
	assert.True(t, math.IsNaN(m.Values[0][1]))
}

func TestReadMatrix_GCT(t *testing.T) {
	path := writeFile(t, "features.gct", "#1.2\n2\t2\nName\tDescription\tA\tB\ng1\tna\t1\t2\ng2\tna\t3\t4\n")

	m, err := quietReader(path).ReadMatrix()
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, m.Features)
	assert.Equal(t, []string{"A", "B"}, m.Samples)
	assert.Equal(t, []float64{3, 4}, m.Values[1])
}

func TestReadMatrix_Errors(t *testing.T) {
	_, err := quietReader(writeFile(t, "bad.gct", "Name\tA\ng1\t1\n")).ReadMatrix()
	assert.Error(t, err)

	_, err = quietReader(writeFile(t, "bad.tsv", "Name\tA\ng1\tabc\n")).ReadMatrix()
	assert.Error(t, err)

	_, err = quietReader(writeFile(t, "wide.tsv", "Name\tA\ng1\t1\t2\n")).ReadMatrix()
	assert.Error(t, err)

	_, err = quietReader(writeFile(t, "dup.tsv", "Name\tA\ng1\t1\ng1\t2\n")).ReadMatrix()
	assert.Error(t, err)

	_, err = quietReader(filepath.Join(t.TempDir(), "missing.tsv")).ReadMatrix()
	assert.Error(t, err)
}

func TestReadMatrix_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Name", "s1", "s2"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"g1", 1.5, 2}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"g2", -3, 0.25}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	m, err := quietReader(path).ReadMatrix()
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, m.Features)
	assert.Equal(t, []float64{1.5, 2}, m.Values[0])
	assert.Equal(t, []float64{-3, 0.25}, m.Values[1])
}

func TestReadReference(t *testing.T) {
	path := writeFile(t, "ref.tsv", "Name\ts1\ts2\nage\t30\t40\nstage\t1\t2\n")

	ref, err := quietReader(path).ReadReference("stage")
	require.NoError(t, err)
	assert.Equal(t, "stage", ref.Name)
	assert.Equal(t, []float64{1, 2}, ref.Values)

	first, err := quietReader(path).ReadReference("")
	require.NoError(t, err)
	assert.Equal(t, "age", first.Name)

	_, err = quietReader(path).ReadReference("missing")
	assert.Error(t, err)
}

func sampleTable() *stats.ScoreTable {
	moe := 0.05
	return &stats.ScoreTable{
		Metric:           "information_coef",
		Confidence:       0.95,
		HasMarginOfError: true,
		Rows: []stats.ScoreRow{
			{Feature: "g2", Score: 0.8, MarginOfError: &moe, LocalP: 0.01, GlobalP: 0.02, FDR: 0.04},
			{Feature: "g1", Score: math.NaN(), LocalP: 1, GlobalP: 1, FDR: 1},
		},
	}
}

func TestWriteScores(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScores(&buf, sampleTable()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Feature\tinformation_coef\t0.95 MoE\tLocal P-value\tGlobal P-value\tFDR (BH)", lines[0])
	assert.Equal(t, "g2\t0.8\t0.05\t0.01\t0.02\t0.04", lines[1])
	assert.Equal(t, "g1\tNaN\t\t1\t1\t1", lines[2])
}

func TestWriteMerged(t *testing.T) {
	m, err := quietReader(writeFile(t, "f.tsv", "Name\ts1\ts2\ng1\t1\t2\ng2\t3\t4\n")).ReadMatrix()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMerged(&buf, m, sampleTable()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Feature\ts1\ts2\tinformation_coef"))
	assert.True(t, strings.HasPrefix(lines[1], "g2\t3\t4\t0.8"))
}

func TestWriteScoresFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.xlsx")
	require.NoError(t, WriteScoresFile(path, sampleTable()))

	table, err := quietReader(path).ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, "Feature", table.IndexName)
	assert.Equal(t, sampleTable().Columns(), table.Columns)
	assert.Equal(t, []string{"g2", "g1"}, table.RowNames)
}

func TestSplitCompression(t *testing.T) {
	base, c := SplitCompression("data/expr.gct.gz")
	assert.Equal(t, "data/expr.gct", base)
	assert.Equal(t, CompressionGzip, c)

	_, c = SplitCompression("x.TSV.BZ2")
	assert.Equal(t, CompressionBzip2, c)

	base, c = SplitCompression("x.tsv")
	assert.Equal(t, "x.tsv", base)
	assert.Equal(t, CompressionNone, c)

	assert.Equal(t, FormatGCT, DetectFormat("expr.gct.gz"))
	assert.Equal(t, FormatXLSX, DetectFormat("scores.xlsx.bz2"))
}

func TestCompressedRoundTrip(t *testing.T) {
	for _, suffix := range []string{".gz", ".bz2"} {
		t.Run(suffix, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "scores.tsv"+suffix)
			require.NoError(t, WriteScoresFile(path, sampleTable()))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.False(t, strings.HasPrefix(string(raw), "Feature"), "output is compressed")

			table, err := quietReader(path).ReadRaw()
			require.NoError(t, err)
			assert.Equal(t, []string{"g2", "g1"}, table.RowNames)
			assert.Equal(t, sampleTable().Columns(), table.Columns)
		})
	}
}

func TestCompressedXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.xlsx.gz")
	require.NoError(t, WriteScoresFile(path, sampleTable()))

	table, err := quietReader(path).ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, []string{"g2", "g1"}, table.RowNames)
}

func TestReadErrorsAreInputErrors(t *testing.T) {
	for name, content := range map[string]string{
		"cell.tsv":  "Name\tA\ng1\tabc\n",
		"wide.tsv":  "Name\tA\ng1\t1\t2\n",
		"nover.gct": "Name\tA\ng1\t1\n",
	} {
		_, err := quietReader(writeFile(t, name, content)).ReadMatrix()
		assert.True(t, core.IsInputError(err), name)
	}
}
