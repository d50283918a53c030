package charts

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/dataset"
)

// Chart is an eligible plan entry together with the data a renderer draws.
type Chart struct {
	Eligibility
	Data any `json:"data"`
}

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

type HistogramData struct {
	Column string    `json:"column"`
	Values []float64 `json:"values"`
	Bins   []Bin     `json:"bins"`
}

// BoxData is a five-number summary with Tukey whiskers at 1.5 IQR.
type BoxData struct {
	Column       string    `json:"column"`
	Count        int       `json:"count"`
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers,omitempty"`
}

type ViolinData struct {
	Column string    `json:"column"`
	Values []float64 `json:"values"`
	Box    BoxData   `json:"box"`
}

type CountData struct {
	Column string                   `json:"column"`
	Counts []analysis.CategoryCount `json:"counts"`
	// Other is the number of non-null values outside the top N.
	Other int `json:"other"`
}

// TableData is a numeric sub-table in row-major order; nil cells are nulls.
type TableData struct {
	Columns []string     `json:"columns"`
	Rows    [][]*float64 `json:"rows"`
	// Dropped counts rows removed because they contained nulls.
	Dropped int `json:"dropped,omitempty"`
}

var (
	ErrNotEligible   = errors.New("chart is not eligible")
	ErrMissingColumn = errors.New("column not found")
)

// Materialize builds the data payload for an eligible plan entry.
func Materialize(ds *dataset.Dataset, e Eligibility) (Chart, error) {
	if !e.Eligible {
		return Chart{}, fmt.Errorf("%w: %s", ErrNotEligible, e.Kind)
	}
	cols := make([]*dataset.Column, len(e.Columns))
	for i, name := range e.Columns {
		c := ds.Column(name)
		if c == nil {
			return Chart{}, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		cols[i] = c
	}

	var data any
	switch e.Kind {
	case CorrelationHeatmap:
		data = analysis.Correlation(ds, e.Columns)
	case MissingHeatmap:
		data = analysis.NullityCorrelation(ds)
	case Distribution:
		data = histogram(cols[0])
	case Box:
		data = boxSummary(cols[0].Name, sortedNonNull(cols[0]))
	case Violin:
		vals := cols[0].NonNullNums()
		data = ViolinData{Column: cols[0].Name, Values: vals, Box: boxSummary(cols[0].Name, sortedNonNull(cols[0]))}
	case CategoryCount:
		data = topCounts(cols[0], e.Params.TopN)
	case ScatterMatrix, Pairplot:
		data = numericTable(cols, e.Params.DropNulls && e.Kind == Pairplot)
	default:
		return Chart{}, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return Chart{Eligibility: e, Data: data}, nil
}

func sortedNonNull(c *dataset.Column) []float64 {
	vals := c.NonNullNums()
	sort.Float64s(vals)
	return vals
}

// histogram buckets non-null values using Sturges' rule for the bin count.
func histogram(c *dataset.Column) HistogramData {
	vals := c.NonNullNums()
	out := HistogramData{Column: c.Name, Values: vals}
	if len(vals) == 0 {
		return out
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	bins := 1
	if hi > lo {
		bins = int(math.Ceil(math.Log2(float64(len(sorted))))) + 1
	}
	dividers := make([]float64, bins+1)
	if math.IsInf(hi-lo, 0) {
		// The range overflows float64; interpolate without forming hi-lo.
		for i := range dividers {
			t := float64(i) / float64(bins)
			dividers[i] = lo*(1-t) + hi*t
		}
	} else {
		floats.Span(dividers, lo, hi)
	}
	// stat.Histogram requires every value to be below the last divider.
	// At MaxFloat64 there is no finite divider above hi, so the top value
	// is counted into the last bin by hand.
	upper := math.Nextafter(hi, math.Inf(1))
	atMax := math.IsInf(upper, 1)
	if atMax {
		upper = hi
	}
	dividers[bins] = upper
	binned := sorted
	if atMax {
		n := sort.SearchFloat64s(sorted, hi)
		binned = sorted[:n]
	}

	counts := stat.Histogram(nil, dividers, binned, nil)
	counts[bins-1] += float64(len(sorted) - len(binned))
	out.Bins = make([]Bin, bins)
	for i := range out.Bins {
		out.Bins[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	return out
}

func boxSummary(name string, sorted []float64) BoxData {
	b := BoxData{Column: name, Count: len(sorted)}
	if len(sorted) == 0 {
		return b
	}
	b.Min, b.Max = sorted[0], sorted[len(sorted)-1]
	b.Q1 = analysis.Quantile(sorted, 0.25)
	b.Median = analysis.Quantile(sorted, 0.5)
	b.Q3 = analysis.Quantile(sorted, 0.75)
	iqr := b.Q3 - b.Q1
	loFence, hiFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = b.Max, b.Min
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		if v < b.LowerWhisker {
			b.LowerWhisker = v
		}
		if v > b.UpperWhisker {
			b.UpperWhisker = v
		}
	}
	return b
}

func topCounts(c *dataset.Column, topN int) CountData {
	counts := analysis.ValueCounts(c)
	out := CountData{Column: c.Name, Counts: counts}
	if topN > 0 && len(counts) > topN {
		out.Counts = counts[:topN]
		for _, kv := range counts[topN:] {
			out.Other += kv.Count
		}
	}
	if out.Counts == nil {
		out.Counts = []analysis.CategoryCount{}
	}
	return out
}

func numericTable(cols []*dataset.Column, dropNulls bool) TableData {
	out := TableData{Columns: make([]string, len(cols)), Rows: [][]*float64{}}
	for i, c := range cols {
		out.Columns[i] = c.Name
	}
	if len(cols) == 0 {
		return out
	}
	rows := cols[0].Len()
	for r := 0; r < rows; r++ {
		row := make([]*float64, len(cols))
		hasNull := false
		for i, c := range cols {
			if c.Null[r] {
				hasNull = true
				continue
			}
			v := c.Nums[r]
			row[i] = &v
		}
		if hasNull && dropNulls {
			out.Dropped++
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
