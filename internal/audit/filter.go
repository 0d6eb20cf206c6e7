package audit

import (
	"strings"
	"time"

	"github.com/erazemk/popis/internal/model"
)

// MethodAll disables the scan method filter.
const MethodAll = "all"

// Criteria narrows a list of counted items. Zero fields do not filter.
type Criteria struct {
	Location   string
	ScanMethod string
	Search     string
	From       time.Time
	To         time.Time
}

// Validate rejects an unknown scan method or an inverted date range.
func (c Criteria) Validate() error {
	if c.ScanMethod != "" && c.ScanMethod != MethodAll && !model.ValidScanMethod(c.ScanMethod) {
		return &ValidationError{Field: "method", Message: "unknown scan method " + c.ScanMethod}
	}
	if !c.From.IsZero() && !c.To.IsZero() && c.To.Before(c.From) {
		return &ValidationError{Field: "to", Message: "must not be before from"}
	}
	return nil
}

// Filter returns the items matching every criterion, in their original order.
func Filter(items []model.CountedItem, c Criteria) []model.CountedItem {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	result := []model.CountedItem{}
	for _, item := range items {
		if c.Location != "" && item.LocationFound != c.Location {
			continue
		}
		if c.ScanMethod != "" && c.ScanMethod != MethodAll && item.ScanMethod != c.ScanMethod {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		if !c.From.IsZero() && item.CountedAt.Before(c.From) {
			continue
		}
		if !c.To.IsZero() && item.CountedAt.After(c.To) {
			continue
		}
		result = append(result, item)
	}
	return result
}

func matchesSearch(item model.CountedItem, search string) bool {
	for _, field := range []string{item.Code, item.Model, item.SerialNumber, item.Manufacturer} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
