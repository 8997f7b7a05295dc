package export

import (
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Column widths in mm, tuned for landscape A4 (277mm printable).
var pdfWidths = []float64{28, 34, 42, 40, 36, 42, 16, 20, 19}

// WritePDF writes a landscape table, one page-breaking row per device.
func WritePDF(w io.Writer, meta Meta, rows []Row) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	title := "Scan report"
	if meta.Network != "" {
		title += " for " + meta.Network
	}
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	if !meta.GeneratedAt.IsZero() {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, "Generated "+meta.GeneratedAt.Format(time.RFC1123), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, name := range columns {
		pdf.CellFormat(pdfWidths[i], 6, name, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		for i, value := range row.cells() {
			pdf.CellFormat(pdfWidths[i], 5.5, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
