package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

// CorrMatrix holds a symmetric correlation matrix. A nil entry means the
// coefficient is undefined (too few paired values or zero variance).
type CorrMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"` // row-major, Values[i][j]
}

// Correlation computes Pearson coefficients between the named numeric columns
// using pairwise-complete observations. Unknown or non-numeric names are skipped.
func Correlation(ds *dataset.Dataset, names []string) *CorrMatrix {
	var cols []*dataset.Column
	for _, name := range names {
		if c := ds.Column(name); c != nil && c.Semantic == dataset.SemanticNumeric {
			cols = append(cols, c)
		}
	}
	m := newCorrMatrix(cols)
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearsonPairwise(cols[i], cols[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// NullityCorrelation correlates the null masks of columns that are partially
// null. Columns with no nulls or only nulls carry no information and are left out.
func NullityCorrelation(ds *dataset.Dataset) *CorrMatrix {
	rows := ds.Rows()
	var cols []*dataset.Column
	var masks [][]float64
	for _, c := range ds.Columns {
		n := c.NullCount()
		if n == 0 || n == rows {
			continue
		}
		mask := make([]float64, rows)
		for i, null := range c.Null {
			if null {
				mask[i] = 1
			}
		}
		cols = append(cols, c)
		masks = append(masks, mask)
	}
	m := newCorrMatrix(cols)
	for i := range masks {
		for j := i; j < len(masks); j++ {
			r := finiteCorr(stat.Correlation(masks[i], masks[j], nil))
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func newCorrMatrix(cols []*dataset.Column) *CorrMatrix {
	m := &CorrMatrix{Columns: make([]string, len(cols)), Values: make([][]*float64, len(cols))}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]*float64, len(cols))
	}
	return m
}

func pearsonPairwise(a, b *dataset.Column) *float64 {
	xs := make([]float64, 0, len(a.Nums))
	ys := make([]float64, 0, len(b.Nums))
	for i := range a.Nums {
		if a.Null[i] || b.Null[i] {
			continue
		}
		xs = append(xs, a.Nums[i])
		ys = append(ys, b.Nums[i])
	}
	if len(xs) < 2 {
		return nil
	}
	return finiteCorr(stat.Correlation(xs, ys, nil))
}

func finiteCorr(r float64) *float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return &r
}

// Pairs returns the off-diagonal coefficients of the upper triangle that are defined.
func (m *CorrMatrix) Pairs() []PairCorr {
	var out []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if r := m.Values[i][j]; r != nil {
				out = append(out, PairCorr{A: m.Columns[i], B: m.Columns[j], R: *r})
			}
		}
	}
	return out
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}
