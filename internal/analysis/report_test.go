package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

func TestMarkdown(t *testing.T) {
	ds := sampleDataset()
	ds.Columns = append(ds.Columns, dataset.NewText("note", []string{"a|b", "x", "y", "z", "w"}, nil))
	md := InferAndSummarize(ds, DefaultOptions()).Markdown()

	for _, want := range []string{
		"## Dataset summary",
		"- File: sales.csv",
		"- Rows: 5",
		"| qty | numeric | numeric | 4 | 1 (20.0%) | 4 |",
		"| day | text | datetime | 5 | 0 (0.0%) | 5 |",
		"## Numeric columns",
		"| region | 5 | 3 | north | 2 |",
		"## Datetime columns",
		"## Head",
		"a/b",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "No missing values") {
		t.Fatalf("dataset has nulls")
	}
}

func TestMarkdownTruncatesLongCellsByRune(t *testing.T) {
	long := strings.Repeat("é", 100)
	ds := &dataset.Dataset{Name: "wide.csv", Columns: []*dataset.Column{
		dataset.NewText("note", []string{long, "short"}, nil),
	}}
	md := InferAndSummarize(ds, DefaultOptions()).Markdown()
	if !utf8.ValidString(md) {
		t.Fatalf("markdown is not valid UTF-8")
	}
	if !strings.Contains(md, strings.Repeat("é", 77)+"...") {
		t.Fatalf("expected 77 runes plus ellipsis:\n%s", md)
	}
}

func TestSummarizeExtremeRangeStaysFinite(t *testing.T) {
	ds := &dataset.Dataset{Name: "huge.csv", Columns: []*dataset.Column{
		dataset.NewNumeric("x", []float64{-1e308, 0, 1e308, 1e308}, nil),
	}}
	s := Summarize(ds, DefaultOptions()).Columns[0].Numeric
	if s == nil {
		t.Fatalf("expected numeric summary")
	}
	if math.IsInf(s.Mean, 0) || math.IsNaN(s.Mean) {
		t.Fatalf("mean = %v", s.Mean)
	}
	if s.Std != nil && (math.IsInf(*s.Std, 0) || math.IsNaN(*s.Std)) {
		t.Fatalf("std = %v", *s.Std)
	}
	if _, err := json.Marshal(s); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}
