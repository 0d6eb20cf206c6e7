package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/erazemk/popis/internal/imaging"
	"github.com/erazemk/popis/internal/model"
)

// LabelLayout places labels on an A4 sheet. Lengths are in millimetres.
type LabelLayout struct {
	Cols       int
	Rows       int
	MarginTop  float64
	MarginLeft float64
	GapX       float64
	GapY       float64
}

// DefaultLabelLayout fits 3x8 labels on A4.
var DefaultLabelLayout = LabelLayout{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 8, GapX: 3, GapY: 2}

// qrPixels is the resolution of the QR images embedded in the sheet.
const qrPixels = 256

// LabelSheetPDF renders one QR label per chromebook, encoding its device
// code, with the code and model printed beside it.
func LabelSheetPDF(chromebooks []model.Chromebook, layout LabelLayout) ([]byte, error) {
	if layout.Cols <= 0 || layout.Rows <= 0 {
		return nil, fmt.Errorf("label layout needs at least one row and column")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	labelW := (pageW - 2*layout.MarginLeft - float64(layout.Cols-1)*layout.GapX) / float64(layout.Cols)
	labelH := (pageH - 2*layout.MarginTop - float64(layout.Rows-1)*layout.GapY) / float64(layout.Rows)
	if labelW <= 0 || labelH <= 0 {
		return nil, fmt.Errorf("label layout leaves no room for labels")
	}

	perPage := layout.Cols * layout.Rows
	opts := gofpdf.ImageOptions{ImageType: "PNG"}

	if len(chromebooks) == 0 {
		pdf.AddPage()
	}
	for i, c := range chromebooks {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		slot := i % perPage
		x := layout.MarginLeft + float64(slot%layout.Cols)*(labelW+layout.GapX)
		y := layout.MarginTop + float64(slot/layout.Cols)*(labelH+layout.GapY)

		qr, err := imaging.QRCode(c.Code, qrPixels)
		if err != nil {
			return nil, fmt.Errorf("label for %s: %w", c.Code, err)
		}
		name := fmt.Sprintf("qr_%d", i)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(qr))

		qrSize := labelH * 0.9
		if qrSize > labelW/2 {
			qrSize = labelW / 2
		}
		pdf.ImageOptions(name, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

		textX := x + qrSize + 3
		textW := labelW - qrSize - 4
		pdf.SetXY(textX, y+labelH/2-5)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(textW, 6, tr(c.Code), "", 2, "L", false, 0, "")
		pdf.SetFont("Arial", "", 7)
		pdf.CellFormat(textW, 4, tr(c.Model), "", 2, "L", false, 0, "")
		if c.SerialNumber != "" {
			pdf.CellFormat(textW, 4, tr("S/N "+c.SerialNumber), "", 2, "L", false, 0, "")
		}

		pdf.SetDrawColor(200, 200, 200)
		pdf.Rect(x, y, labelW, labelH, "D")

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("label for %s: %w", c.Code, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering label sheet: %w", err)
	}
	return buf.Bytes(), nil
}
