// Package report turns a finished session into a structured summary and renders it as
// HTML, PDF or Markdown.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/asdp-cli/internal/cleaning"
	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/KaramelBytes/asdp-cli/internal/estimate"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// DefaultTitle heads every report unless overridden.
const DefaultTitle = "ASDP (AI Survey Data Processor) Report"

// EstimateRow is one line of the estimates table.
type EstimateRow struct {
	Variable string
	Mean     float64
	Std      float64
	SE       float64
	CILower  float64
	CIUpper  float64
	Weighted bool
}

// OutlierRow is one line of the outlier detection section.
type OutlierRow struct {
	Column     string
	Count      int
	Percentage float64
}

// Summary is everything a renderer needs. It holds plain data only.
type Summary struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Records     int
	Variables   int
	Log         []string
	Estimates   []EstimateRow
	Outliers    []OutlierRow
	Plots       map[string]string
}

// Options adds optional content to an assembled summary.
type Options struct {
	Title    string
	Subtitle string
	Now      time.Time
	Outliers cleaning.OutlierReport
	Plots    map[string]string
}

// Assemble builds the summary of a session. Each estimate row prefers the weighted
// block when it is present and valid.
func Assemble(t *table.Table, log []string, est *estimate.Estimates, opt Options) Summary {
	s := Summary{
		Title:       opt.Title,
		Subtitle:    opt.Subtitle,
		GeneratedAt: opt.Now,
		Log:         append([]string(nil), log...),
		Estimates:   []EstimateRow{},
		Plots:       opt.Plots,
	}
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = time.Now()
	}
	if t != nil {
		s.Records = t.Rows()
		s.Variables = t.NumCols()
	}
	for _, name := range est.Names() {
		r, _ := est.Get(name)
		b, weighted := r.Preferred()
		s.Estimates = append(s.Estimates, EstimateRow{
			Variable: name,
			Mean:     b.Mean,
			Std:      b.Std,
			SE:       b.SE,
			CILower:  b.CILower,
			CIUpper:  b.CIUpper,
			Weighted: weighted,
		})
	}
	if opt.Outliers != nil && t != nil {
		for _, name := range t.Names() {
			if st, ok := opt.Outliers[name]; ok {
				s.Outliers = append(s.Outliers, OutlierRow{Column: name, Count: st.Count, Percentage: st.Percentage})
			}
		}
	}
	return s
}

// Renderer writes a summary in one output format.
type Renderer interface {
	Format() string
	ContentType() string
	Render(w io.Writer, s Summary) error
}

// Formats lists the supported report formats.
var Formats = []string{"html", "pdf", "markdown"}

// RendererFor returns the renderer for format.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "html":
		return HTMLRenderer{}, nil
	case "pdf":
		return PDFRenderer{}, nil
	case "markdown", "md":
		return MarkdownRenderer{}, nil
	}
	return nil, apperrors.Newf(apperrors.KindInvalidMethod,
		"report format must be one of %s, got %q", strings.Join(Formats, ", "), format)
}

// num formats an estimate cell; non-finite values print as n/a.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

func stamp(t time.Time) string { return t.Format("2006-01-02 15:04:05") }
