package report

import (
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
)

// PDFRenderer produces an A4 document with the same sections as the HTML report.
// Plots are not embedded.
type PDFRenderer struct{}

func (PDFRenderer) Format() string      { return "pdf" }
func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Render(w io.Writer, s Summary) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(s.Title, true)
	pdf.SetCreator("asdp", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(s.Title), "", 1, "C", false, 0, "")
	if s.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, tr(s.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	heading := func(text string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	line := func(text string) {
		pdf.MultiCell(0, 5, tr(text), "", "L", false)
	}

	heading("Executive Summary")
	line(fmt.Sprintf("Data Processing completed on %s", stamp(s.GeneratedAt)))
	line(fmt.Sprintf("Total records processed: %d", s.Records))
	line(fmt.Sprintf("Total variables: %d", s.Variables))
	pdf.Ln(4)

	heading("Data Cleaning Log")
	for _, entry := range s.Log {
		line("- " + entry)
	}
	pdf.Ln(4)

	if len(s.Estimates) > 0 {
		heading("Statistical Estimates")
		widths := []float64{40, 30, 30, 30, 30, 30}
		header := []string{"Variable", "Mean", "Std Dev", "Std Error", "95% CI Lower", "95% CI Upper"}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(245, 245, 245)
		for i, h := range header {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetFillColor(245, 245, 220)
		pdf.SetTextColor(0, 0, 0)
		for _, r := range s.Estimates {
			cells := []string{tr(r.Variable), num(r.Mean), num(r.Std), num(r.SE), num(r.CILower), num(r.CIUpper)}
			for i, c := range cells {
				pdf.CellFormat(widths[i], 7, c, "1", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if len(s.Outliers) > 0 {
		heading("Outlier Detection")
		for _, o := range s.Outliers {
			line(fmt.Sprintf("%s: %d outliers (%.1f%%)", o.Column, o.Count, o.Percentage))
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
