package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders the profile as a standalone Markdown document.
func (p *DatasetProfile) Markdown() string {
	var b strings.Builder
	b.WriteString("## Dataset summary\n\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("- File: %s\n", safeVal(p.Name)))
	}
	b.WriteString(fmt.Sprintf("- Rows: %d\n", p.RowCount))
	b.WriteString(fmt.Sprintf("- Columns: %d\n", p.ColumnCount))
	if !p.HasAnyNulls {
		b.WriteString("- No missing values\n")
	}

	b.WriteString("\n## Schema\n\n")
	b.WriteString("| column | raw type | inferred type | non-null | missing | distinct |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, c := range p.Columns {
		missPct := 0.0
		if p.RowCount > 0 {
			missPct = float64(c.NullCount) * 100.0 / float64(p.RowCount)
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d (%.1f%%) | %d |\n",
			safeName(c.Name), c.RawType, c.InferredType, p.RowCount-c.NullCount, c.NullCount, missPct, c.DistinctCount))
	}

	p.writeNumeric(&b)
	p.writeCategorical(&b)
	p.writeDatetime(&b)

	if len(p.Samples) > 0 {
		b.WriteString("\n## Head\n\n| ")
		for i, c := range p.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n|")
		for range p.Columns {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range p.Samples {
			b.WriteString("| ")
			for i := range p.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if r := []rune(val); len(r) > 80 {
					val = string(r[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(p.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range p.Warnings {
			b.WriteString("- ")
			b.WriteString(safeVal(w))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (p *DatasetProfile) writeNumeric(b *strings.Builder) {
	header := false
	for _, c := range p.Columns {
		s := c.Numeric
		if s == nil {
			continue
		}
		if !header {
			b.WriteString("\n## Numeric columns\n\n")
			b.WriteString("| column | count | mean | std | min | 25% | 50% | 75% | max | outliers |\n")
			b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
			header = true
		}
		std := "-"
		if s.Std != nil {
			std = fmt.Sprintf("%.4g", *s.Std)
		}
		outliers := "-"
		if s.OutlierThreshold > 0 {
			outliers = fmt.Sprintf("%d (|z|>%.1f)", s.Outliers, s.OutlierThreshold)
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %.4g | %s | %.4g | %.4g | %.4g | %.4g | %.4g | %s |\n",
			safeName(c.Name), s.Count, s.Mean, std, s.Min, s.Q25, s.Median, s.Q75, s.Max, outliers))
	}
}

func (p *DatasetProfile) writeCategorical(b *strings.Builder) {
	header := false
	for _, c := range p.Columns {
		s := c.Categorical
		if s == nil {
			continue
		}
		if !header {
			b.WriteString("\n## Categorical columns\n\n")
			b.WriteString("| column | count | unique | top | freq |\n")
			b.WriteString("| --- | --- | --- | --- | --- |\n")
			header = true
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %d |\n",
			safeName(c.Name), s.Count, s.Unique, safeVal(s.Top), s.Freq))
	}
}

func (p *DatasetProfile) writeDatetime(b *strings.Builder) {
	header := false
	for _, c := range p.Columns {
		s := c.Datetime
		if s == nil {
			continue
		}
		if !header {
			b.WriteString("\n## Datetime columns\n\n")
			b.WriteString("| column | count | unique | min | max |\n")
			b.WriteString("| --- | --- | --- | --- | --- |\n")
			header = true
		}
		if s.Count == 0 {
			b.WriteString(fmt.Sprintf("| %s | 0 | 0 | - | - |\n", safeName(c.Name)))
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s |\n",
			safeName(c.Name), s.Count, s.Unique, s.Min.Format("2006-01-02 15:04:05"), s.Max.Format("2006-01-02 15:04:05")))
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
