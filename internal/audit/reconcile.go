package audit

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/erazemk/popis/internal/model"
)

// Unspecified groups chromebooks with no recorded location or condition.
const Unspecified = "unspecified"

// Mismatch is a counted item whose correction differs from its snapshot.
type Mismatch struct {
	ItemID       string `json:"item_id"`
	ChromebookID string `json:"chromebook_id"`
	Code         string `json:"code"`
	Expected     string `json:"expected"`
	Found        string `json:"found"`
}

// LocationStat compares counted and expected chromebooks per location.
type LocationStat struct {
	Location    string `json:"location"`
	Counted     int    `json:"counted"`
	Expected    int    `json:"expected"`
	Discrepancy int    `json:"discrepancy"`
}

// MethodStats splits counted items by scan method.
type MethodStats struct {
	QRCode             int     `json:"qr_code"`
	ManualID           int     `json:"manual_id"`
	QRCodePercentage   float64 `json:"qr_code_percentage"`
	ManualIDPercentage float64 `json:"manual_id_percentage"`
}

// ConditionStat is one bucket of the condition histogram.
type ConditionStat struct {
	Condition  string  `json:"condition"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// HourStat is one hour-of-day bucket with the running total up to it.
type HourStat struct {
	Hour       string `json:"hour"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// Reconciliation is the comparison of an inventory with the items counted
// against it.
type Reconciliation struct {
	TotalExpected       int                `json:"total_expected"`
	TotalCounted        int                `json:"total_counted"`
	Missing             []model.Chromebook `json:"missing"`
	LocationMismatches  []Mismatch         `json:"location_mismatches"`
	ConditionMismatches []Mismatch         `json:"condition_mismatches"`
	ByLocation          []LocationStat     `json:"by_location"`
	ByMethod            MethodStats        `json:"by_method"`
	ByCondition         []ConditionStat    `json:"by_condition"`
	ByHour              []HourStat         `json:"by_hour"`
}

// Reconcile compares the inventory with the counted items. Hours are taken
// in loc, or UTC when loc is nil. It does not modify its inputs.
func Reconcile(inventory []model.Chromebook, counted []model.CountedItem, loc *time.Location) *Reconciliation {
	if loc == nil {
		loc = time.UTC
	}

	rec := &Reconciliation{
		TotalExpected:       len(inventory),
		TotalCounted:        len(counted),
		Missing:             []model.Chromebook{},
		LocationMismatches:  []Mismatch{},
		ConditionMismatches: []Mismatch{},
	}

	countedIDs := make(map[string]struct{}, len(counted))
	for _, item := range counted {
		countedIDs[item.ChromebookID] = struct{}{}
	}
	for _, c := range inventory {
		if _, ok := countedIDs[c.ID]; !ok {
			rec.Missing = append(rec.Missing, c)
		}
	}

	for _, item := range counted {
		if m, ok := mismatch(item, item.Expected.Location, item.LocationFound); ok {
			rec.LocationMismatches = append(rec.LocationMismatches, m)
		}
		if m, ok := mismatch(item, item.Expected.Condition, item.ConditionFound); ok {
			rec.ConditionMismatches = append(rec.ConditionMismatches, m)
		}
	}

	rec.ByLocation = locationStats(inventory, counted)
	rec.ByMethod = methodStats(counted)
	rec.ByCondition = conditionStats(counted)
	rec.ByHour = hourStats(counted, loc)

	return rec
}

func mismatch(item model.CountedItem, expected, found string) (Mismatch, bool) {
	if expected == "" || found == "" || expected == found {
		return Mismatch{}, false
	}
	return Mismatch{
		ItemID:       item.ID,
		ChromebookID: item.ChromebookID,
		Code:         item.Code,
		Expected:     expected,
		Found:        found,
	}, true
}

func locationStats(inventory []model.Chromebook, counted []model.CountedItem) []LocationStat {
	var order []string
	stats := make(map[string]*LocationStat)
	bucket := func(location string) *LocationStat {
		if location == "" {
			location = Unspecified
		}
		s, ok := stats[location]
		if !ok {
			s = &LocationStat{Location: location}
			stats[location] = s
			order = append(order, location)
		}
		return s
	}

	for _, c := range inventory {
		bucket(c.Location).Expected++
	}
	for _, item := range counted {
		bucket(firstNonEmpty(item.LocationFound, item.Expected.Location)).Counted++
	}

	result := make([]LocationStat, 0, len(order))
	for _, location := range order {
		s := stats[location]
		s.Discrepancy = s.Counted - s.Expected
		result = append(result, *s)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Counted > result[j].Counted })
	return result
}

func methodStats(counted []model.CountedItem) MethodStats {
	var s MethodStats
	for _, item := range counted {
		switch item.ScanMethod {
		case model.ScanMethodQRCode:
			s.QRCode++
		case model.ScanMethodManualID:
			s.ManualID++
		}
	}
	s.QRCodePercentage = percentage(s.QRCode, len(counted))
	s.ManualIDPercentage = percentage(s.ManualID, len(counted))
	return s
}

func conditionStats(counted []model.CountedItem) []ConditionStat {
	var order []string
	counts := make(map[string]int)
	for _, item := range counted {
		condition := firstNonEmpty(item.ConditionFound, item.Expected.Condition, Unspecified)
		if _, ok := counts[condition]; !ok {
			order = append(order, condition)
		}
		counts[condition]++
	}

	result := make([]ConditionStat, 0, len(order))
	for _, condition := range order {
		result = append(result, ConditionStat{
			Condition:  condition,
			Count:      counts[condition],
			Percentage: percentage(counts[condition], len(counted)),
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	return result
}

func hourStats(counted []model.CountedItem, loc *time.Location) []HourStat {
	var perHour [24]int
	for _, item := range counted {
		perHour[item.CountedAt.In(loc).Hour()]++
	}

	result := []HourStat{}
	cumulative := 0
	for hour, n := range perHour {
		if n == 0 {
			continue
		}
		cumulative += n
		result = append(result, HourStat{Hour: fmt.Sprintf("%02d", hour), Count: n, Cumulative: cumulative})
	}
	return result
}

// percentage returns part/total*100 rounded to one decimal, or 0 for an
// empty total.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
