package charts

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names a chart category.
type Kind string

const (
	CorrelationHeatmap Kind = "correlation_heatmap"
	MissingHeatmap     Kind = "missing_heatmap"
	Distribution       Kind = "distribution"
	Box                Kind = "box"
	Violin             Kind = "violin"
	CategoryCount      Kind = "category_count"
	ScatterMatrix      Kind = "scatter_matrix"
	Pairplot           Kind = "pairplot"
)

var allKinds = []Kind{
	CorrelationHeatmap, MissingHeatmap, Distribution, Box, Violin,
	CategoryCount, ScatterMatrix, Pairplot,
}

var labels = map[Kind]string{
	CorrelationHeatmap: "Correlation Heatmap",
	MissingHeatmap:     "Missing Values Heatmap",
	Distribution:       "Distribution Plots",
	Box:                "Box Plots",
	Violin:             "Violin Plots",
	CategoryCount:      "Count Plots (Top Categories)",
	ScatterMatrix:      "Interactive Scatter Matrix",
	Pairplot:           "Pairplot",
}

// ErrUnknownKind is returned for chart names that are not recognized.
var ErrUnknownKind = errors.New("unknown chart kind")

// AllKinds returns every chart kind in display order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Label is the human-readable name of a kind.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

func (k Kind) Valid() bool {
	_, ok := labels[k]
	return ok
}

// ParseKinds parses chart names. Each value may itself be a comma-separated
// list; "all" selects every kind and "none" selects nothing. Hyphens are
// accepted in place of underscores. The result is deduplicated and in display order.
func ParseKinds(values []string) ([]Kind, error) {
	selected := make(map[Kind]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			name = strings.ReplaceAll(name, "-", "_")
			switch name {
			case "":
				continue
			case "all":
				for _, k := range allKinds {
					selected[k] = true
				}
			case "none":
			default:
				k := Kind(name)
				if !k.Valid() {
					return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownKind, part, strings.Join(kindNames(), ", "))
				}
				selected[k] = true
			}
		}
	}
	out := make([]Kind, 0, len(selected))
	for _, k := range allKinds {
		if selected[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

func kindNames() []string {
	out := make([]string, len(allKinds))
	for i, k := range allKinds {
		out[i] = string(k)
	}
	return out
}
