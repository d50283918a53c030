package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

// nullTokens are the cell spellings read as missing, matching what common
// dataframe readers treat as NA by default.
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isNull(s string) bool {
	_, ok := nullTokens[s]
	return ok
}

// fromRecords builds a dataset from a header and string rows. Short rows are
// padded with nulls; rows longer than the header are an error.
func fromRecords(header []string, rows [][]string, opt Options) (*dataset.Dataset, error) {
	names := uniqueNames(header)
	ncol := len(names)
	raw := make([][]string, ncol)
	for j := range raw {
		raw[j] = make([]string, len(rows))
	}
	for i, rec := range rows {
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d", i+2, ncol, len(rec))
		}
		for j := 0; j < len(rec); j++ {
			raw[j][i] = strings.TrimSpace(rec[j])
		}
	}
	ds := &dataset.Dataset{Columns: make([]*dataset.Column, ncol)}
	for j, name := range names {
		ds.Columns[j] = typeColumn(name, raw[j], opt)
	}
	return ds, nil
}

// typeColumn picks the narrowest raw type that every non-null cell satisfies:
// numeric, then boolean, falling back to text.
func typeColumn(name string, cells []string, opt Options) *dataset.Column {
	nulls := make([]bool, len(cells))
	nonNull := 0
	for i, s := range cells {
		if isNull(s) {
			nulls[i] = true
			continue
		}
		nonNull++
	}
	if nonNull == 0 {
		return dataset.NewText(name, cells, nulls)
	}

	nums := make([]float64, len(cells))
	integer := true
	numeric := true
	for i, s := range cells {
		if nulls[i] {
			continue
		}
		x, isInt, ok := parseNumeric(s, opt)
		if !ok {
			numeric = false
			break
		}
		nums[i] = x
		integer = integer && isInt
	}
	if numeric {
		c := dataset.NewNumeric(name, nums, nulls)
		c.Integer = integer
		return c
	}

	bools := make([]bool, len(cells))
	boolean := true
	for i, s := range cells {
		if nulls[i] {
			continue
		}
		b, ok := parseBool(s)
		if !ok {
			boolean = false
			break
		}
		bools[i] = b
	}
	if boolean {
		return dataset.NewBoolean(name, bools, nulls)
	}

	texts := make([]string, len(cells))
	for i, s := range cells {
		if !nulls[i] {
			texts[i] = s
		}
	}
	return dataset.NewText(name, texts, nulls)
}

func parseNumeric(s string, opt Options) (float64, bool, bool) {
	raw := s
	if opt.ThousandsSeparator != 0 && opt.ThousandsSeparator != opt.DecimalSeparator {
		raw = strings.ReplaceAll(raw, string(opt.ThousandsSeparator), "")
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator != '.' {
		raw = strings.ReplaceAll(raw, string(opt.DecimalSeparator), ".")
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		f, _ := strconv.ParseFloat(raw, 64)
		return f, true, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, false
	}
	return f, false, true
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

// uniqueNames fills blank headers and suffixes repeats (a, a.1, a.2).
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	repeats := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for used[name] {
			repeats[base]++
			name = fmt.Sprintf("%s.%d", base, repeats[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
