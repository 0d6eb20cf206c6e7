package audit

import (
	"fmt"
	"math"
	"time"

	"github.com/erazemk/popis/internal/model"
)

// Summary holds the headline numbers of a report.
type Summary struct {
	TotalCounted       int     `json:"total_counted"`
	TotalExpected      int     `json:"total_expected"`
	CompletionRate     string  `json:"completion_rate"`
	CompletionPercent  float64 `json:"completion_percent"`
	Duration           string  `json:"duration"`
	ItemsPerHour       float64 `json:"items_per_hour"`
	AverageTimePerItem string  `json:"average_time_per_item"`
}

// Discrepancies lists everything the audit found out of place.
type Discrepancies struct {
	Missing             []model.Chromebook `json:"missing_items"`
	LocationMismatches  []Mismatch         `json:"location_mismatches"`
	ConditionMismatches []Mismatch         `json:"condition_mismatches"`
}

// Statistics holds the per-dimension breakdowns.
type Statistics struct {
	ByLocation  []LocationStat  `json:"by_location"`
	ByMethod    MethodStats     `json:"by_method"`
	ByCondition []ConditionStat `json:"by_condition"`
	ByHour      []HourStat      `json:"by_hour"`
}

// Report is the exportable result of an audit. It is always recomputed and
// never stored.
type Report struct {
	Audit         model.AuditSession `json:"audit"`
	Summary       Summary            `json:"summary"`
	Discrepancies Discrepancies      `json:"discrepancies"`
	Statistics    Statistics         `json:"statistics"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// Compile builds a report. An in-progress session is timed up to now.
// Missing data yields zeroed fields rather than an error.
func Compile(session *model.AuditSession, rec *Reconciliation, totalExpected int, now time.Time) Report {
	if rec == nil {
		rec = Reconcile(nil, nil, nil)
	}

	var header model.AuditSession
	var elapsed time.Duration
	if session != nil {
		header = *session
		end := now
		if session.CompletedAt != nil {
			end = *session.CompletedAt
		}
		elapsed = end.Sub(session.StartedAt)
		if elapsed < 0 {
			elapsed = 0
		}
	}

	counted := rec.TotalCounted
	rate := 0.0
	if totalExpected > 0 {
		rate = float64(counted) / float64(totalExpected) * 100
	}

	return Report{
		Audit: header,
		Summary: Summary{
			TotalCounted:       counted,
			TotalExpected:      totalExpected,
			CompletionRate:     fmt.Sprintf("%.1f%%", rate),
			CompletionPercent:  round1(rate),
			Duration:           formatDuration(elapsed),
			ItemsPerHour:       itemsPerHour(counted, elapsed),
			AverageTimePerItem: averageTimePerItem(counted, elapsed),
		},
		Discrepancies: Discrepancies{
			Missing:             rec.Missing,
			LocationMismatches:  rec.LocationMismatches,
			ConditionMismatches: rec.ConditionMismatches,
		},
		Statistics: Statistics{
			ByLocation:  rec.ByLocation,
			ByMethod:    rec.ByMethod,
			ByCondition: rec.ByCondition,
			ByHour:      rec.ByHour,
		},
		GeneratedAt: now,
	}
}

// formatDuration renders "< 1m", "Ym" or "Xh Ym".
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "< 1m"
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// itemsPerHour is the counting pace. Below 0.01h (36s) the ratio is
// meaningless and the raw count is returned.
func itemsPerHour(counted int, d time.Duration) float64 {
	hours := d.Hours()
	if hours < 0.01 {
		return float64(counted)
	}
	return round1(float64(counted) / hours)
}

func averageTimePerItem(counted int, d time.Duration) string {
	if counted == 0 {
		return "0s"
	}
	return fmt.Sprintf("%.0fs", math.Round(d.Seconds()/float64(counted)))
}
