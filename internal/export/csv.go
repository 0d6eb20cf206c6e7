// Package export renders audit reports and chromebook labels as CSV and PDF,
// and reads chromebook catalogues from CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/model"
)

// timeLayout is used for every timestamp in exported files.
const timeLayout = "2006-01-02 15:04:05"

// WriteReportCSV writes a report as consecutive sections separated by a
// blank line: summary, counted items, missing chromebooks, mismatches and
// per-location statistics. Times are rendered in loc, UTC if nil.
func WriteReportCSV(w io.Writer, r audit.Report, items []model.CountedItem, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)

	s := r.Summary
	rows := [][]string{
		{"audit", r.Audit.Name},
		{"status", r.Audit.Status},
		{"started_at", formatTime(r.Audit.StartedAt, loc)},
		{"completed_at", formatTimePtr(r.Audit.CompletedAt, loc)},
		{"total_counted", strconv.Itoa(s.TotalCounted)},
		{"total_expected", strconv.Itoa(s.TotalExpected)},
		{"completion_rate", s.CompletionRate},
		{"duration", s.Duration},
		{"items_per_hour", strconv.FormatFloat(s.ItemsPerHour, 'f', 1, 64)},
		{"average_time_per_item", s.AverageTimePerItem},
		nil,
		{"counted_at", "chromebook_id", "model", "serial_number", "scan_method",
			"expected_location", "location_found", "expected_condition", "condition_found"},
	}
	for _, item := range items {
		rows = append(rows, []string{
			formatTime(item.CountedAt, loc), item.Code, item.Model, item.SerialNumber, item.ScanMethod,
			item.Expected.Location, item.LocationFound, item.Expected.Condition, item.ConditionFound,
		})
	}

	rows = append(rows, nil, []string{"missing", "model", "serial_number", "patrimony_number", "location", "condition"})
	for _, c := range r.Discrepancies.Missing {
		rows = append(rows, []string{c.Code, c.Model, c.SerialNumber, c.PatrimonyNumber, c.Location, c.Condition})
	}

	rows = append(rows, nil, []string{"mismatch", "chromebook_id", "expected", "found"})
	for _, m := range r.Discrepancies.LocationMismatches {
		rows = append(rows, []string{"location", m.Code, m.Expected, m.Found})
	}
	for _, m := range r.Discrepancies.ConditionMismatches {
		rows = append(rows, []string{"condition", m.Code, m.Expected, m.Found})
	}

	rows = append(rows, nil, []string{"location", "counted", "expected", "discrepancy"})
	for _, l := range r.Statistics.ByLocation {
		rows = append(rows, []string{l.Location, strconv.Itoa(l.Counted), strconv.Itoa(l.Expected), strconv.Itoa(l.Discrepancy)})
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// chromebookColumns are the recognised catalogue CSV headers.
var chromebookColumns = map[string]func(*model.Chromebook, string){
	"chromebook_id":    func(c *model.Chromebook, v string) { c.Code = v },
	"model":            func(c *model.Chromebook, v string) { c.Model = v },
	"manufacturer":     func(c *model.Chromebook, v string) { c.Manufacturer = v },
	"serial_number":    func(c *model.Chromebook, v string) { c.SerialNumber = v },
	"patrimony_number": func(c *model.Chromebook, v string) { c.PatrimonyNumber = v },
	"location":         func(c *model.Chromebook, v string) { c.Location = v },
	"condition":        func(c *model.Chromebook, v string) { c.Condition = v },
	"status":           func(c *model.Chromebook, v string) { c.Status = v },
}

// ReadChromebooksCSV parses a catalogue with a header row. Columns are
// matched by name, case-insensitively; unknown columns are ignored and
// chromebook_id is required. Numeric device codes are normalized with
// prefix.
func ReadChromebooksCSV(r io.Reader, prefix string) ([]model.Chromebook, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	setters := make([]func(*model.Chromebook, string), len(header))
	hasCode := false
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		setters[i] = chromebookColumns[name]
		if name == "chromebook_id" {
			hasCode = true
		}
	}
	if !hasCode {
		return nil, fmt.Errorf("csv has no chromebook_id column")
	}

	var chromebooks []model.Chromebook
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		var c model.Chromebook
		empty := true
		for i, v := range record {
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			if i < len(setters) && setters[i] != nil {
				setters[i](&c, v)
			}
		}
		if empty {
			continue
		}
		if c.Code == "" {
			return nil, fmt.Errorf("csv line %d: missing chromebook_id", line)
		}
		c.Code = audit.Normalize(c.Code, prefix)
		c.Status = strings.ToLower(c.Status)
		chromebooks = append(chromebooks, c)
	}
	return chromebooks, nil
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}

func formatTimePtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return formatTime(*t, loc)
}
