package report

import (
	"fmt"
	"html/template"
	"io"
	"sort"
)

// HTMLRenderer produces a standalone HTML document.
type HTMLRenderer struct{}

func (HTMLRenderer) Format() string      { return "html" }
func (HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"num":   num,
	"stamp": stamp,
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; }
.header { text-align: center; color: #2c3e50; }
.section { margin: 20px 0; }
.log-entry { margin: 5px 0; padding: 5px; background-color: #f8f9fa; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #4CAF50; color: white; }
.plot { margin: 10px 0; }
</style>
</head>
<body>
<div class="header">
<h1>{{.Title}}</h1>
{{- if .Subtitle}}
<h3>{{.Subtitle}}</h3>
{{- end}}
<p>Generated on {{stamp .GeneratedAt}}</p>
</div>
<div class="section">
<h2>Executive Summary</h2>
<p>Total records processed: {{.Records}}</p>
<p>Total variables: {{.Variables}}</p>
</div>
<div class="section">
<h2>Data Cleaning Log</h2>
{{- range .Log}}
<div class="log-entry">&bull; {{.}}</div>
{{- end}}
</div>
<div class="section">
<h2>Statistical Estimates</h2>
<table>
<tr><th>Variable</th><th>Mean</th><th>Std Dev</th><th>Standard Error</th><th>95% CI Lower</th><th>95% CI Upper</th><th>Basis</th></tr>
{{- range .Estimates}}
<tr><td>{{.Variable}}</td><td>{{num .Mean}}</td><td>{{num .Std}}</td><td>{{num .SE}}</td><td>{{num .CILower}}</td><td>{{num .CIUpper}}</td><td>{{if .Weighted}}weighted{{else}}unweighted{{end}}</td></tr>
{{- end}}
</table>
</div>
{{- if .Outliers}}
<div class="section">
<h2>Outlier Detection</h2>
<table>
<tr><th>Variable</th><th>Outliers</th><th>Share</th></tr>
{{- range .Outliers}}
<tr><td>{{.Column}}</td><td>{{.Count}}</td><td>{{pct .Percentage}}</td></tr>
{{- end}}
</table>
</div>
{{- end}}
{{- if .Plots}}
<div class="section">
<h2>Visualizations</h2>
{{- range .Plots}}
<div class="plot" id="{{.Name}}">{{.SVG}}</div>
{{- end}}
</div>
{{- end}}
</body>
</html>
`))

type htmlPlot struct {
	Name string
	SVG  template.HTML
}

type htmlView struct {
	Summary
	Plots []htmlPlot
}

// Render writes the document. Plot markup is produced by this package and embedded
// as-is; every other field is escaped.
func (HTMLRenderer) Render(w io.Writer, s Summary) error {
	v := htmlView{Summary: s}
	names := make([]string, 0, len(s.Plots))
	for name := range s.Plots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v.Plots = append(v.Plots, htmlPlot{Name: name, SVG: template.HTML(s.Plots[name])})
	}
	if err := htmlTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
