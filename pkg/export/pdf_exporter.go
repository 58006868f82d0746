package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthLandscape = 277.0
	pageWidthPortrait  = 190.0
	bodyFamily         = "body"
)

// PDFExporter renders datasets into a tabular PDF. Core PDF fonts cannot
// draw Cyrillic, so a UTF-8 TrueType font should be configured for reports
// that carry names.
type PDFExporter struct {
	fontPath  string
	landscape bool
}

// PDFOption customises the PDF exporter.
type PDFOption func(*PDFExporter)

// WithUTF8Font embeds the TrueType font at path for all text.
func WithUTF8Font(path string) PDFOption {
	return func(e *PDFExporter) { e.fontPath = path }
}

// WithLandscape switches to A4 landscape pages.
func WithLandscape() PDFOption {
	return func(e *PDFExporter) { e.landscape = true }
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(opts ...PDFOption) *PDFExporter {
	e := &PDFExporter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, pageWidth := "P", pageWidthPortrait
	if e.landscape {
		orientation, pageWidth = "L", pageWidthLandscape
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	family := "Arial"
	if e.fontPath != "" {
		pdf.AddUTF8Font(bodyFamily, "", e.fontPath)
		pdf.AddUTF8Font(bodyFamily, "B", e.fontPath)
		family = bodyFamily
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load pdf font: %w", err)
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	widths := columnWidths(data, pageWidth)
	pdf.SetFont(family, "B", 9)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 8)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths spreads the page width by the dataset weights, evenly when
// weights are missing or malformed.
func columnWidths(data Dataset, pageWidth float64) []float64 {
	n := len(data.Headers)
	widths := make([]float64, n)
	total := 0.0
	if len(data.Widths) == n {
		for _, w := range data.Widths {
			if w <= 0 {
				total = 0
				break
			}
			total += w
		}
	}
	for i := range widths {
		if total > 0 {
			widths[i] = pageWidth * data.Widths[i] / total
		} else {
			widths[i] = pageWidth / float64(n)
		}
	}
	return widths
}
