package analysis

import (
	"strings"
	"time"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

// DefaultDatetimeThreshold is the share of all rows that must parse as dates
// before a text column is treated as datetime. The comparison is strict.
const DefaultDatetimeThreshold = 0.9

// Coercion records a text column that was reclassified as datetime.
type Coercion struct {
	Column string
	Parsed int
	// Unparsed counts non-null values that failed to parse and became null.
	Unparsed int
}

// Month-first slash dates are tried before day-first ones, so "03/04/2024"
// reads as March 4th and "13/04/2024" falls through to April 13th.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"2006/01/02 15:04",
	"2006/01/02 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"02-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.ANSIC,
}

func parseTimeMaybe(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferDatetimes runs the one-time datetime pass over ds. A text column is
// reclassified when parsed/rows > threshold; its values are replaced by the
// parsed timestamps and values that did not parse become null. Numeric,
// boolean and source-typed datetime columns are left alone, and a dataset
// without rows is never changed. Reclassified columns are swapped in as new
// Column values; the original text columns are not mutated.
func InferDatetimes(ds *dataset.Dataset, threshold float64) []Coercion {
	rows := ds.Rows()
	if rows == 0 {
		return nil
	}
	var out []Coercion
	for i, c := range ds.Columns {
		if c.Raw != dataset.RawText || c.Semantic == dataset.SemanticDatetime {
			continue
		}
		times := make([]time.Time, rows)
		nulls := make([]bool, rows)
		parsed, nonNull := 0, 0
		for r := 0; r < rows; r++ {
			if c.Null[r] {
				nulls[r] = true
				continue
			}
			nonNull++
			t, ok := parseTimeMaybe(c.Texts[r])
			if !ok {
				nulls[r] = true
				continue
			}
			times[r] = t
			parsed++
		}
		if float64(parsed)/float64(rows) <= threshold {
			continue
		}
		ds.Columns[i] = &dataset.Column{
			Name:     c.Name,
			Raw:      dataset.RawText,
			Semantic: dataset.SemanticDatetime,
			Times:    times,
			Null:     nulls,
		}
		out = append(out, Coercion{Column: c.Name, Parsed: parsed, Unparsed: nonNull - parsed})
	}
	return out
}
