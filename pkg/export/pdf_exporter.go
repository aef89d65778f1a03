package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Usable width of a landscape A4 page inside the 10mm margins.
const pdfPageWidth = 277.0

// PDFExporter renders a report into a paged tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the report title, generation timestamp
// and one table row per report row. Column widths follow the Width hints.
func (e *PDFExporter) Render(report Report) ([]byte, error) {
	if len(report.Columns) == 0 {
		return nil, fmt.Errorf("report requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if report.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, report.Title, "", 1, "C", false, 0, "")
	}
	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, "generated "+generatedAt.Format(time.RFC3339), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	widths := columnWidths(report.Columns)

	pdf.SetFont("Arial", "B", 9)
	for i, column := range report.Columns {
		pdf.CellFormat(widths[i], 8, column.Label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range report.Rows {
		for i, column := range report.Columns {
			pdf.CellFormat(widths[i], 7, row[column.Key], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths distributes the page width by the Width hints; columns without
// a hint share what the hinted columns leave implicit (all hints are relative).
func columnWidths(columns []Column) []float64 {
	total := 0.0
	for _, column := range columns {
		if column.Width > 0 {
			total += column.Width
		} else {
			total++
		}
	}
	widths := make([]float64, len(columns))
	for i, column := range columns {
		share := column.Width
		if share <= 0 {
			share = 1
		}
		widths[i] = pdfPageWidth / total * share
	}
	return widths
}
