package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/model"
)

// ReportPDF renders a report on A4 pages: summary, per-location table,
// missing chromebooks, mismatches and the counted items.
func ReportPDF(r audit.Report, items []model.CountedItem, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, tr(r.Audit.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, tr("Generated "+formatTime(r.GeneratedAt, loc)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	s := r.Summary
	section(pdf, "Summary")
	table(pdf, tr, []float64{60, 60}, nil, [][]string{
		{"Status", r.Audit.Status},
		{"Started", formatTime(r.Audit.StartedAt, loc)},
		{"Completed", formatTimePtr(r.Audit.CompletedAt, loc)},
		{"Counted / expected", fmt.Sprintf("%d / %d", s.TotalCounted, s.TotalExpected)},
		{"Completion", s.CompletionRate},
		{"Duration", s.Duration},
		{"Items per hour", strconv.FormatFloat(s.ItemsPerHour, 'f', 1, 64)},
		{"Average per item", s.AverageTimePerItem},
		{"QR / manual", fmt.Sprintf("%d / %d", r.Statistics.ByMethod.QRCode, r.Statistics.ByMethod.ManualID)},
	})

	section(pdf, "By location")
	var locRows [][]string
	for _, l := range r.Statistics.ByLocation {
		locRows = append(locRows, []string{l.Location, strconv.Itoa(l.Counted), strconv.Itoa(l.Expected), strconv.Itoa(l.Discrepancy)})
	}
	table(pdf, tr, []float64{80, 30, 30, 30}, []string{"Location", "Counted", "Expected", "Difference"}, locRows)

	section(pdf, fmt.Sprintf("Missing (%d)", len(r.Discrepancies.Missing)))
	var missingRows [][]string
	for _, c := range r.Discrepancies.Missing {
		missingRows = append(missingRows, []string{c.Code, c.Model, c.SerialNumber, c.Location})
	}
	table(pdf, tr, []float64{30, 50, 45, 55}, []string{"Code", "Model", "Serial", "Location"}, missingRows)

	section(pdf, "Mismatches")
	var mismatchRows [][]string
	for _, m := range r.Discrepancies.LocationMismatches {
		mismatchRows = append(mismatchRows, []string{m.Code, "location", m.Expected, m.Found})
	}
	for _, m := range r.Discrepancies.ConditionMismatches {
		mismatchRows = append(mismatchRows, []string{m.Code, "condition", m.Expected, m.Found})
	}
	table(pdf, tr, []float64{30, 30, 60, 60}, []string{"Code", "Field", "Expected", "Found"}, mismatchRows)

	section(pdf, fmt.Sprintf("Counted (%d)", len(items)))
	var itemRows [][]string
	for _, item := range items {
		itemRows = append(itemRows, []string{
			formatTime(item.CountedAt, loc), item.Code, item.ScanMethod, item.LocationFound, item.ConditionFound,
		})
	}
	table(pdf, tr, []float64{40, 30, 25, 50, 35}, []string{"Counted at", "Code", "Method", "Location", "Condition"}, itemRows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
}

// table draws rows in bordered cells. An empty table gets a single "none" row.
func table(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, header []string, rows [][]string) {
	if header != nil {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range header {
			pdf.CellFormat(widths[i], 6, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "", 9)
	if len(rows) == 0 {
		total := 0.0
		for _, w := range widths {
			total += w
		}
		pdf.CellFormat(total, 6, "none", "1", 1, "L", false, 0, "")
		return
	}
	for _, row := range rows {
		for i, v := range row {
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
