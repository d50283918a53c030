package charts

import (
	"fmt"
	"slices"

	"github.com/KaramelBytes/tablescope/internal/analysis"
)

// Level tells a renderer how to present an ineligible chart's reason.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Limits holds the structural thresholds used by Plan.
type Limits struct {
	CorrelationMinColumns   int `json:"correlation_min_columns"`
	ScatterMatrixMinColumns int `json:"scatter_matrix_min_columns"`
	ScatterMatrixMaxColumns int `json:"scatter_matrix_max_columns"`
	PairplotMinColumns      int `json:"pairplot_min_columns"`
	PairplotMaxRows         int `json:"pairplot_max_rows"`
	PairplotColumns         int `json:"pairplot_columns"`
	TopCategories           int `json:"top_categories"`
}

// DefaultLimits returns the stock thresholds.
func DefaultLimits() Limits {
	return Limits{
		CorrelationMinColumns:   2,
		ScatterMatrixMinColumns: 2,
		ScatterMatrixMaxColumns: 10,
		PairplotMinColumns:      2,
		PairplotMaxRows:         5000,
		PairplotColumns:         4,
		TopCategories:           10,
	}
}

// Parameters carries the per-chart settings a renderer needs.
type Parameters struct {
	TopN      int  `json:"top_n,omitempty"`
	MaxRows   int  `json:"max_rows,omitempty"`
	DropNulls bool `json:"drop_nulls,omitempty"`
}

// Eligibility is the planner's verdict for one chart. Per-column kinds yield
// one entry per applicable column.
type Eligibility struct {
	Kind     Kind       `json:"chart_kind"`
	Title    string     `json:"title"`
	Eligible bool       `json:"eligible"`
	Reason   string     `json:"reason_if_ineligible,omitempty"`
	Level    Level      `json:"level,omitempty"`
	Columns  []string   `json:"applicable_columns,omitempty"`
	Params   Parameters `json:"parameters"`
}

// Plan decides which of the requested kinds can be drawn for the profile.
// It is pure: the same profile, kinds and limits always give the same result.
// Entries follow display order regardless of the order kinds were requested in.
func Plan(p *analysis.DatasetProfile, kinds []Kind, lim Limits) []Eligibility {
	requested := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		requested[k] = true
	}
	numeric := p.NumericColumns()
	categorical := p.CategoricalColumns()

	var out []Eligibility
	for _, k := range allKinds {
		if !requested[k] {
			continue
		}
		switch k {
		case CorrelationHeatmap:
			e := Eligibility{Kind: k, Title: k.Label(), Columns: slices.Clone(numeric)}
			if len(numeric) >= lim.CorrelationMinColumns {
				e.Eligible = true
			} else {
				e.Columns = nil
				e.Reason, e.Level = "Not enough numerical columns to compute correlation.", LevelInfo
			}
			out = append(out, e)
		case MissingHeatmap:
			e := Eligibility{Kind: k, Title: k.Label()}
			if p.HasAnyNulls {
				e.Eligible = true
				for _, c := range p.Columns {
					if c.NullCount > 0 && c.NullCount < p.RowCount {
						e.Columns = append(e.Columns, c.Name)
					}
				}
			} else {
				e.Reason, e.Level = "No missing values to display.", LevelInfo
			}
			out = append(out, e)
		case Distribution, Box, Violin:
			out = append(out, perColumn(k, numeric, Parameters{DropNulls: true},
				"No numerical columns to plot.")...)
		case CategoryCount:
			out = append(out, perColumn(k, categorical, Parameters{TopN: lim.TopCategories, DropNulls: true},
				"No categorical columns to plot.")...)
		case ScatterMatrix:
			e := Eligibility{Kind: k, Title: k.Label()}
			if n := len(numeric); n >= lim.ScatterMatrixMinColumns && n <= lim.ScatterMatrixMaxColumns {
				e.Eligible = true
				e.Columns = slices.Clone(numeric)
			} else {
				e.Reason = fmt.Sprintf("Need %d–%d numerical columns for scatter matrix.", lim.ScatterMatrixMinColumns, lim.ScatterMatrixMaxColumns)
				e.Level = LevelInfo
			}
			out = append(out, e)
		case Pairplot:
			out = append(out, planPairplot(p, numeric, lim))
		}
	}
	return out
}

func perColumn(k Kind, cols []string, params Parameters, emptyReason string) []Eligibility {
	if len(cols) == 0 {
		return []Eligibility{{Kind: k, Title: k.Label(), Reason: emptyReason, Level: LevelInfo, Params: params}}
	}
	out := make([]Eligibility, 0, len(cols))
	for _, c := range cols {
		out = append(out, Eligibility{
			Kind:     k,
			Title:    columnTitle(k, c),
			Eligible: true,
			Columns:  []string{c},
			Params:   params,
		})
	}
	return out
}

func columnTitle(k Kind, col string) string {
	switch k {
	case Distribution:
		return fmt.Sprintf("Distribution of %s", col)
	case Box:
		return fmt.Sprintf("Box Plot of %s", col)
	case Violin:
		return fmt.Sprintf("Violin Plot of %s", col)
	case CategoryCount:
		return fmt.Sprintf("Top Categories in %s", col)
	}
	return k.Label()
}

func planPairplot(p *analysis.DatasetProfile, numeric []string, lim Limits) Eligibility {
	e := Eligibility{
		Kind:   Pairplot,
		Title:  Pairplot.Label(),
		Params: Parameters{MaxRows: lim.PairplotMaxRows, DropNulls: true},
	}
	switch {
	case p.RowCount > lim.PairplotMaxRows:
		e.Reason = fmt.Sprintf("Dataset too large for pairplot (limit: %d rows).", lim.PairplotMaxRows)
		e.Level = LevelWarning
	case len(numeric) < lim.PairplotMinColumns:
		e.Reason, e.Level = "Not enough numerical columns.", LevelInfo
	default:
		e.Eligible = true
		cols := numeric
		if lim.PairplotColumns > 0 && len(cols) > lim.PairplotColumns {
			cols = cols[:lim.PairplotColumns]
		}
		e.Columns = slices.Clone(cols)
	}
	return e
}

// Eligible filters the plan down to the charts that can be drawn.
func Eligible(plan []Eligibility) []Eligibility {
	var out []Eligibility
	for _, e := range plan {
		if e.Eligible {
			out = append(out, e)
		}
	}
	return out
}

// Notices returns the ineligible entries, which carry the user-facing reasons.
func Notices(plan []Eligibility) []Eligibility {
	var out []Eligibility
	for _, e := range plan {
		if !e.Eligible {
			out = append(out, e)
		}
	}
	return out
}
