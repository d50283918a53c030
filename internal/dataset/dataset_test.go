package dataset

import (
	"errors"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	ok := &Dataset{Columns: []*Column{
		NewNumeric("a", []float64{1, 2}, nil),
		NewText("b", []string{"x", ""}, []bool{false, true}),
	}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", ok.Rows())
	}

	ragged := &Dataset{Columns: []*Column{
		NewNumeric("a", []float64{1, 2}, nil),
		NewNumeric("b", []float64{1}, nil),
	}}
	if err := ragged.Validate(); !errors.Is(err, ErrRaggedColumns) {
		t.Fatalf("ragged: got %v", err)
	}

	dup := &Dataset{Columns: []*Column{
		NewNumeric("a", []float64{1}, nil),
		NewText("a", []string{"x"}, nil),
	}}
	if err := dup.Validate(); !errors.Is(err, ErrDuplicateNames) {
		t.Fatalf("dup: got %v", err)
	}
}

func TestColumnHelpers(t *testing.T) {
	c := NewNumeric("v", []float64{1.5, 0, 3}, []bool{false, true, false})
	if c.NullCount() != 1 {
		t.Fatalf("null count = %d", c.NullCount())
	}
	got := c.NonNullNums()
	if len(got) != 2 || got[0] != 1.5 || got[1] != 3 {
		t.Fatalf("non-null = %v", got)
	}
	if c.ValueString(1) != "" || c.ValueString(0) != "1.5" {
		t.Fatalf("value strings = %q %q", c.ValueString(0), c.ValueString(1))
	}

	ts := NewDatetime("ts", []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}, nil)
	if ts.ValueString(0) != "2024-01-02" {
		t.Fatalf("datetime string = %q", ts.ValueString(0))
	}
	if ts.Raw.String() != "datetime-candidate" || ts.Semantic.String() != "datetime" {
		t.Fatalf("types = %s/%s", ts.Raw, ts.Semantic)
	}
}

func TestEmptyDataset(t *testing.T) {
	if !(&Dataset{}).Empty() {
		t.Fatal("dataset without columns should be empty")
	}
	d := &Dataset{Columns: []*Column{NewText("a", nil, nil)}}
	if !d.Empty() {
		t.Fatal("dataset with zero rows should be empty")
	}
}
