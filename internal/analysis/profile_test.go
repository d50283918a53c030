package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name: "sales.csv",
		Columns: []*dataset.Column{
			dataset.NewNumeric("qty", []float64{1, 2, 3, 4, 0}, []bool{false, false, false, false, true}),
			dataset.NewNumeric("price", []float64{9.5, 10, 10.5, 11, 50}, nil),
			dataset.NewText("region", []string{"north", "south", "south", "north", "east"}, nil),
			dataset.NewBoolean("paid", []bool{true, true, false, true, false}, nil),
			dataset.NewText("day", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, nil),
		},
	}
}

func TestInferAndSummarize(t *testing.T) {
	ds := sampleDataset()
	p := InferAndSummarize(ds, DefaultOptions())

	if p.RowCount != 5 || p.ColumnCount != 5 {
		t.Fatalf("shape = (%d, %d)", p.RowCount, p.ColumnCount)
	}
	if !p.HasAnyNulls {
		t.Fatalf("qty has a null")
	}
	if got := strings.Join(p.NumericColumns(), ","); got != "qty,price" {
		t.Fatalf("numeric = %s", got)
	}
	if got := strings.Join(p.CategoricalColumns(), ","); got != "region" {
		t.Fatalf("categorical = %s", got)
	}
	if got := strings.Join(p.DatetimeColumns(), ","); got != "day" {
		t.Fatalf("datetime = %s", got)
	}
	if len(p.Samples) != 5 || p.Samples[0][0] != "1" || p.Samples[4][0] != "" || p.Samples[0][4] != "2024-01-01" {
		t.Fatalf("samples = %v", p.Samples)
	}

	qty := p.Column("qty").Numeric
	if qty.Count != 4 || qty.Mean != 2.5 || qty.Min != 1 || qty.Max != 4 {
		t.Fatalf("qty = %+v", qty)
	}
	if qty.Q25 != 1.75 || qty.Median != 2.5 || qty.Q75 != 3.25 {
		t.Fatalf("qty quartiles = %v %v %v", qty.Q25, qty.Median, qty.Q75)
	}
	if qty.Std == nil || math.Abs(*qty.Std-1.2909944487358056) > 1e-12 {
		t.Fatalf("qty std = %v", qty.Std)
	}

	region := p.Column("region").Categorical
	if region.Count != 5 || region.Unique != 3 || region.Top != "north" || region.Freq != 2 {
		t.Fatalf("region = %+v", region)
	}
	paid := p.Column("paid")
	if paid.InferredType != dataset.SemanticOther || paid.Categorical == nil || paid.Categorical.Top != "True" || paid.Categorical.Freq != 3 {
		t.Fatalf("paid = %+v", paid)
	}
	day := p.Column("day")
	if day.RawType != dataset.RawText || day.Datetime == nil || day.Datetime.Count != 5 || day.DistinctCount != 5 {
		t.Fatalf("day = %+v", day)
	}
	if want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC); !day.Datetime.Mean.Equal(want) {
		t.Fatalf("day mean = %v", day.Datetime.Mean)
	}
}

func TestSummarizeSingleValueHasNoStd(t *testing.T) {
	ds := &dataset.Dataset{Columns: []*dataset.Column{dataset.NewNumeric("x", []float64{42}, nil)}}
	p := Summarize(ds, DefaultOptions())
	s := p.Column("x").Numeric
	if s.Count != 1 || s.Std != nil || s.Median != 42 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestSummarizeAllNullColumn(t *testing.T) {
	ds := &dataset.Dataset{Columns: []*dataset.Column{
		dataset.NewNumeric("x", []float64{0, 0}, []bool{true, true}),
		dataset.NewText("y", []string{"", ""}, []bool{true, true}),
	}}
	p := Summarize(ds, DefaultOptions())
	if p.Column("x").Numeric != nil {
		t.Fatalf("all-null numeric should have no summary")
	}
	if c := p.Column("y").Categorical; c == nil || c.Count != 0 || c.Unique != 0 {
		t.Fatalf("all-null text summary = %+v", c)
	}
	if len(p.Warnings) != 2 {
		t.Fatalf("warnings = %v", p.Warnings)
	}
}

func TestSummarizeZeroRows(t *testing.T) {
	ds := &dataset.Dataset{Columns: []*dataset.Column{
		dataset.NewNumeric("x", []float64{}, nil),
		dataset.NewText("y", []string{}, nil),
	}}
	p := Summarize(ds, DefaultOptions())
	if p.RowCount != 0 || p.ColumnCount != 2 || p.HasAnyNulls || len(p.Samples) != 0 {
		t.Fatalf("profile = %+v", p)
	}
	if _, err := json.Marshal(p); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestSummarizeOutliers(t *testing.T) {
	vals := []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	ds := &dataset.Dataset{Columns: []*dataset.Column{dataset.NewNumeric("score", vals, nil)}}
	s := Summarize(ds, DefaultOptions()).Column("score").Numeric
	if s.Outliers != 1 || s.OutlierThreshold != 3.5 || s.OutliersMaxAbsZ < 3.5 {
		t.Fatalf("outliers = %+v", s)
	}
}

func TestValueCountsTieOrder(t *testing.T) {
	c := dataset.NewText("c", []string{"b", "a", "a", "b", "c", ""}, []bool{false, false, false, false, false, true})
	got := ValueCounts(c)
	if len(got) != 3 || got[0].Value != "b" || got[1].Value != "a" || got[2].Value != "c" || got[0].Count != 2 {
		t.Fatalf("counts = %+v", got)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	cases := map[float64]float64{0: 1, 0.25: 1.75, 0.5: 2.5, 0.75: 3.25, 1: 4}
	for q, want := range cases {
		if got := Quantile(sorted, q); got != want {
			t.Fatalf("Quantile(%v) = %v, want %v", q, got, want)
		}
	}
	if Quantile(nil, 0.5) != 0 {
		t.Fatalf("empty quantile should be 0")
	}
}
