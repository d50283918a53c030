package dataset

import (
	"errors"
	"fmt"
	"time"
)

// RawType is the storage representation a column was loaded with.
type RawType int

const (
	RawText RawType = iota
	RawNumeric
	RawBoolean
	// RawDatetime marks columns the source already typed as timestamps or dates.
	RawDatetime
)

func (t RawType) String() string {
	switch t {
	case RawNumeric:
		return "numeric"
	case RawBoolean:
		return "boolean"
	case RawDatetime:
		return "datetime-candidate"
	default:
		return "text"
	}
}

// MarshalText makes RawType render as its name in JSON.
func (t RawType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// SemanticType is the inferred meaning of a column.
type SemanticType int

const (
	SemanticOther SemanticType = iota
	SemanticNumeric
	SemanticCategorical
	SemanticDatetime
)

func (t SemanticType) String() string {
	switch t {
	case SemanticNumeric:
		return "numeric"
	case SemanticCategorical:
		return "categorical"
	case SemanticDatetime:
		return "datetime"
	default:
		return "other"
	}
}

func (t SemanticType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Column is a tagged union over the raw types. Exactly one value slice is
// populated, selected by Semantic for datetime-coerced text and by Raw otherwise.
type Column struct {
	Name     string
	Raw      RawType
	Semantic SemanticType
	// Integer is set for numeric columns whose values are all integral in the source.
	Integer bool

	Nums  []float64
	Texts []string
	Bools []bool
	Times []time.Time
	Null  []bool
}

// NewNumeric builds a numeric column. A nil nulls slice means no nulls.
func NewNumeric(name string, vals []float64, nulls []bool) *Column {
	return &Column{Name: name, Raw: RawNumeric, Semantic: SemanticNumeric, Nums: vals, Null: mask(nulls, len(vals))}
}

// NewText builds a text column; its semantic type starts as categorical.
func NewText(name string, vals []string, nulls []bool) *Column {
	return &Column{Name: name, Raw: RawText, Semantic: SemanticCategorical, Texts: vals, Null: mask(nulls, len(vals))}
}

func NewBoolean(name string, vals []bool, nulls []bool) *Column {
	return &Column{Name: name, Raw: RawBoolean, Semantic: SemanticOther, Bools: vals, Null: mask(nulls, len(vals))}
}

func NewDatetime(name string, vals []time.Time, nulls []bool) *Column {
	return &Column{Name: name, Raw: RawDatetime, Semantic: SemanticDatetime, Times: vals, Null: mask(nulls, len(vals))}
}

func mask(nulls []bool, n int) []bool {
	if nulls != nil {
		return nulls
	}
	return make([]bool, n)
}

// Len returns the number of values including nulls.
func (c *Column) Len() int { return len(c.Null) }

func (c *Column) IsNull(i int) bool { return c.Null[i] }

func (c *Column) NullCount() int {
	n := 0
	for _, null := range c.Null {
		if null {
			n++
		}
	}
	return n
}

// NonNullNums returns the numeric values with nulls dropped, in row order.
func (c *Column) NonNullNums() []float64 {
	if c.Nums == nil {
		return nil
	}
	out := make([]float64, 0, len(c.Nums))
	for i, v := range c.Nums {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// ValueString renders a single cell for display; nulls render as empty.
func (c *Column) ValueString(i int) string {
	if c.Null[i] {
		return ""
	}
	switch {
	case c.Semantic == SemanticDatetime || c.Raw == RawDatetime:
		t := c.Times[i]
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	case c.Raw == RawNumeric:
		if c.Integer {
			return fmt.Sprintf("%d", int64(c.Nums[i]))
		}
		return fmt.Sprintf("%g", c.Nums[i])
	case c.Raw == RawBoolean:
		if c.Bools[i] {
			return "True"
		}
		return "False"
	default:
		return c.Texts[i]
	}
}

// Dataset is an ordered set of equally long, uniquely named columns.
type Dataset struct {
	Name    string
	Columns []*Column
}

var (
	ErrRaggedColumns  = errors.New("columns have different lengths")
	ErrDuplicateNames = errors.New("duplicate column name")
)

// Validate checks the dataset invariants: equal column lengths and unique names.
func (d *Dataset) Validate() error {
	seen := make(map[string]struct{}, len(d.Columns))
	for i, c := range d.Columns {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateNames, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i > 0 && c.Len() != d.Columns[0].Len() {
			return fmt.Errorf("%w: %q has %d values, %q has %d", ErrRaggedColumns, c.Name, c.Len(), d.Columns[0].Name, d.Columns[0].Len())
		}
	}
	return nil
}

// Rows returns the row count; a dataset without columns has zero rows.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Empty reports whether the dataset has no rows or no columns.
func (d *Dataset) Empty() bool { return d.Rows() == 0 }

// Column looks up a column by name.
func (d *Dataset) Column(name string) *Column {
	for _, c := range d.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ColumnsOf returns columns with the given semantic type in declared order.
func (d *Dataset) ColumnsOf(t SemanticType) []*Column {
	var out []*Column
	for _, c := range d.Columns {
		if c.Semantic == t {
			out = append(out, c)
		}
	}
	return out
}
