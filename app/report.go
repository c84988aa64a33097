package app

import (
	"fmt"

	"icrank/domain/stats"
	"icrank/internal/engine"
)

// Annotation is the printable summary of one selected feature.
type Annotation struct {
	Feature string `json:"feature"`
	ICDelta string `json:"ic_delta"` // "score(moe)", or "score(x.xxx)" without bootstrap
	PValue  string `json:"p_value"`
	FDR     string `json:"fdr"`
}

// Report holds the features worth showing and their annotations.
type Report struct {
	Selected    []string     `json:"selected"`
	Annotations []Annotation `json:"annotations"`
}

// BuildReport selects features from the table with the shared selection rule
// and formats their annotations. Selected keeps table order.
func BuildReport(table *stats.ScoreTable, nFeatures float64) *Report {
	picked := make(map[string]struct{})
	for _, f := range engine.Select(table.Rows, nFeatures) {
		picked[f] = struct{}{}
	}

	r := &Report{}
	for _, row := range table.Rows {
		if _, ok := picked[row.Feature]; !ok {
			continue
		}
		r.Selected = append(r.Selected, row.Feature)
		r.Annotations = append(r.Annotations, Annotate(row))
	}
	return r
}

// Annotate formats one score row.
func Annotate(row stats.ScoreRow) Annotation {
	delta := fmt.Sprintf("%.3f(x.xxx)", row.Score)
	if row.MarginOfError != nil {
		delta = fmt.Sprintf("%.3f(%.3f)", row.Score, *row.MarginOfError)
	}
	return Annotation{
		Feature: row.Feature,
		ICDelta: delta,
		PValue:  fmt.Sprintf("%.3f", row.GlobalP),
		FDR:     fmt.Sprintf("%.3f", row.FDR),
	}
}
