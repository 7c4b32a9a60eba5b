package report

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownRenderer produces a plain Markdown summary.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Format() string      { return "markdown" }
func (MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }

func (MarkdownRenderer) Render(w io.Writer, s Summary) error {
	_, err := io.WriteString(w, Markdown(s))
	return err
}

// Markdown renders s as Markdown text.
func Markdown(s Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", s.Title))
	if s.Subtitle != "" {
		b.WriteString(fmt.Sprintf("_%s_\n\n", s.Subtitle))
	}
	b.WriteString(fmt.Sprintf("Generated on %s\n\n", stamp(s.GeneratedAt)))

	b.WriteString("## Executive Summary\n\n")
	b.WriteString(fmt.Sprintf("- Total records processed: %d\n", s.Records))
	b.WriteString(fmt.Sprintf("- Total variables: %d\n\n", s.Variables))

	b.WriteString("## Data Cleaning Log\n\n")
	for i, entry := range s.Log {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry))
	}
	b.WriteString("\n## Statistical Estimates\n\n")
	if len(s.Estimates) == 0 {
		b.WriteString("No estimates were calculated.\n")
	} else {
		b.WriteString("| Variable | Mean | Std Dev | Standard Error | 95% CI Lower | 95% CI Upper | Basis |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, r := range s.Estimates {
			basis := "unweighted"
			if r.Weighted {
				basis = "weighted"
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
				cell(r.Variable), num(r.Mean), num(r.Std), num(r.SE), num(r.CILower), num(r.CIUpper), basis))
		}
	}
	if len(s.Outliers) > 0 {
		b.WriteString("\n## Outlier Detection\n\n")
		for _, o := range s.Outliers {
			b.WriteString(fmt.Sprintf("- %s: %d outliers (%.1f%%)\n", cell(o.Column), o.Count, o.Percentage))
		}
	}
	return b.String()
}

// cell keeps a value on one line and out of the table's column separators.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
