package analysis

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

// Options controls profiling.
type Options struct {
	// DatetimeThreshold is used by InferAndSummarize for the datetime pass.
	DatetimeThreshold float64
	// SampleRows determines how many head rows to include in the profile.
	SampleRows int
	// Outlier detection via robust Z-score (MAD); counts |z| > OutlierThreshold.
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		DatetimeThreshold: DefaultDatetimeThreshold,
		SampleRows:        5,
		OutlierThreshold:  3.5,
	}
}

// DatasetProfile summarizes a loaded dataset.
type DatasetProfile struct {
	Name        string          `json:"name"`
	RowCount    int             `json:"row_count"`
	ColumnCount int             `json:"column_count"`
	Columns     []ColumnProfile `json:"columns"`
	HasAnyNulls bool            `json:"has_any_nulls"`
	Samples     [][]string      `json:"samples,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// ColumnProfile captures inferred type and statistics per column. At most one
// of Numeric, Categorical and Datetime is set.
type ColumnProfile struct {
	Name          string               `json:"name"`
	RawType       dataset.RawType      `json:"raw_type"`
	InferredType  dataset.SemanticType `json:"inferred_type"`
	NullCount     int                  `json:"null_count"`
	DistinctCount int                  `json:"distinct_count"`
	Integer       bool                 `json:"integer,omitempty"`

	Numeric     *NumericSummary     `json:"numeric,omitempty"`
	Categorical *CategoricalSummary `json:"categorical,omitempty"`
	Datetime    *DatetimeSummary    `json:"datetime,omitempty"`
}

// NumericSummary is the describe() row of a numeric column. Std is nil when
// fewer than two values are present or it overflows float64.
type NumericSummary struct {
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std,omitempty"`
	Min    float64  `json:"min"`
	Q25    float64  `json:"25%"`
	Median float64  `json:"50%"`
	Q75    float64  `json:"75%"`
	Max    float64  `json:"max"`

	Outliers         int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
}

type CategoricalSummary struct {
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

type DatetimeSummary struct {
	Count  int       `json:"count"`
	Unique int       `json:"unique"`
	Min    time.Time `json:"min"`
	Max    time.Time `json:"max"`
	Mean   time.Time `json:"mean"`
}

// CategoryCount is one entry of a value-count table.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// InferAndSummarize runs the datetime pass and then profiles the dataset.
func InferAndSummarize(ds *dataset.Dataset, opt Options) *DatasetProfile {
	InferDatetimes(ds, opt.DatetimeThreshold)
	return Summarize(ds, opt)
}

// Summarize profiles ds without changing it. A dataset with zero rows yields
// a profile with empty summaries rather than an error.
func Summarize(ds *dataset.Dataset, opt Options) *DatasetProfile {
	p := &DatasetProfile{
		Name:        ds.Name,
		RowCount:    ds.Rows(),
		ColumnCount: len(ds.Columns),
		Columns:     make([]ColumnProfile, 0, len(ds.Columns)),
	}
	for _, c := range ds.Columns {
		cp := summarizeColumn(c, opt)
		if cp.NullCount > 0 {
			p.HasAnyNulls = true
		}
		if p.RowCount > 0 && cp.NullCount == p.RowCount {
			p.Warnings = append(p.Warnings, "column "+strconv.Quote(c.Name)+" has no non-null values")
		}
		p.Columns = append(p.Columns, cp)
	}

	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	if sampleRows > p.RowCount {
		sampleRows = p.RowCount
	}
	for i := 0; i < sampleRows; i++ {
		row := make([]string, len(ds.Columns))
		for j, c := range ds.Columns {
			row[j] = c.ValueString(i)
		}
		p.Samples = append(p.Samples, row)
	}
	return p
}

func summarizeColumn(c *dataset.Column, opt Options) ColumnProfile {
	cp := ColumnProfile{
		Name:          c.Name,
		RawType:       c.Raw,
		InferredType:  c.Semantic,
		NullCount:     c.NullCount(),
		DistinctCount: distinctCount(c),
		Integer:       c.Integer,
	}
	switch {
	case c.Semantic == dataset.SemanticNumeric:
		cp.Numeric = summarizeNumeric(c.NonNullNums(), opt)
	case c.Semantic == dataset.SemanticDatetime:
		cp.Datetime = summarizeDatetime(c)
	case c.Raw == dataset.RawText || c.Raw == dataset.RawBoolean:
		cp.Categorical = summarizeCategorical(c)
	}
	return cp
}

func summarizeNumeric(vals []float64, opt Options) *NumericSummary {
	if len(vals) == 0 {
		return nil
	}
	s := &NumericSummary{Count: len(vals)}
	s.Mean, _ = stats.Mean(vals)
	if !finite(s.Mean) {
		s.Mean = scaledMean(vals)
	}
	s.Min, _ = stats.Min(vals)
	s.Max, _ = stats.Max(vals)
	if len(vals) > 1 {
		if sd, err := stats.StandardDeviationSample(vals); err == nil && finite(sd) {
			s.Std = &sd
		}
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Q25 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)

	thr := opt.OutlierThreshold
	if thr > 0 && len(vals) >= 8 {
		median, mad := medianMAD(sorted)
		s.OutlierThreshold = thr
		if mad > 0 {
			for _, v := range vals {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					s.Outliers++
				}
				if finite(az) && az > s.OutliersMaxAbsZ {
					s.OutliersMaxAbsZ = az
				}
			}
		}
	}
	return s
}

func summarizeCategorical(c *dataset.Column) *CategoricalSummary {
	counts := ValueCounts(c)
	if len(counts) == 0 {
		return &CategoricalSummary{}
	}
	s := &CategoricalSummary{Unique: len(counts), Top: counts[0].Value, Freq: counts[0].Count}
	for _, kv := range counts {
		s.Count += kv.Count
	}
	return s
}

func summarizeDatetime(c *dataset.Column) *DatetimeSummary {
	s := &DatetimeSummary{}
	seen := make(map[int64]struct{})
	var offsets float64
	for i, t := range c.Times {
		if c.Null[i] {
			continue
		}
		if s.Count == 0 || t.Before(s.Min) {
			s.Min = t
		}
		if s.Count == 0 || t.After(s.Max) {
			s.Max = t
		}
		s.Count++
		seen[t.UnixNano()] = struct{}{}
	}
	if s.Count == 0 {
		return s
	}
	for i, t := range c.Times {
		if !c.Null[i] {
			offsets += t.Sub(s.Min).Seconds()
		}
	}
	s.Unique = len(seen)
	mean := offsets / float64(s.Count)
	s.Mean = s.Min.Add(time.Duration(mean * float64(time.Second)))
	return s
}

// ValueCounts returns the non-null values of c with their frequencies, most
// frequent first. Ties keep the order of first appearance.
func ValueCounts(c *dataset.Column) []CategoryCount {
	index := make(map[string]int)
	var out []CategoryCount
	for i := 0; i < c.Len(); i++ {
		if c.Null[i] {
			continue
		}
		v := c.ValueString(i)
		if j, ok := index[v]; ok {
			out[j].Count++
			continue
		}
		index[v] = len(out)
		out = append(out, CategoryCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func distinctCount(c *dataset.Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.Null[i] {
			continue
		}
		var key string
		switch {
		case c.Semantic == dataset.SemanticDatetime || c.Raw == dataset.RawDatetime:
			key = strconv.FormatInt(c.Times[i].UnixNano(), 10)
		case c.Raw == dataset.RawNumeric:
			key = strconv.FormatFloat(c.Nums[i], 'g', -1, 64)
		default:
			key = c.ValueString(i)
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

// Column looks up a column profile by name.
func (p *DatasetProfile) Column(name string) *ColumnProfile {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i]
		}
	}
	return nil
}

// NumericColumns lists numeric column names in declared order.
func (p *DatasetProfile) NumericColumns() []string { return p.namesOf(dataset.SemanticNumeric) }

// CategoricalColumns lists categorical column names in declared order.
func (p *DatasetProfile) CategoricalColumns() []string {
	return p.namesOf(dataset.SemanticCategorical)
}

func (p *DatasetProfile) DatetimeColumns() []string { return p.namesOf(dataset.SemanticDatetime) }

func (p *DatasetProfile) namesOf(t dataset.SemanticType) []string {
	var out []string
	for _, c := range p.Columns {
		if c.InferredType == t {
			out = append(out, c.Name)
		}
	}
	return out
}

// medianMAD computes median and MAD (median absolute deviation) of sorted values.
func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// scaledMean averages values whose plain sum overflows float64.
func scaledMean(vals []float64) float64 {
	n := float64(len(vals))
	var m float64
	for _, v := range vals {
		m += v / n
	}
	return m
}

func medianMAD(sorted []float64) (median, mad float64) {
	if len(sorted) == 0 {
		return 0, 0
	}
	median = quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between the closest ranks.
func Quantile(sorted []float64, q float64) float64 { return quantile(sorted, q) }

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
