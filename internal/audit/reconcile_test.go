package audit

import (
	"testing"
	"time"

	"github.com/erazemk/popis/internal/model"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func counted(id, chromebookID, method string, at time.Time, expected model.Observation) model.CountedItem {
	return model.CountedItem{
		ID:             id,
		ChromebookID:   chromebookID,
		Code:           chromebookID,
		CountedAt:      at,
		ScanMethod:     method,
		Expected:       expected,
		LocationFound:  expected.Location,
		ConditionFound: expected.Condition,
	}
}

func TestReconcileMissingAndMethods(t *testing.T) {
	inventory := []model.Chromebook{
		chromebook("A", "CHR001", "Lab 1", "good"),
		chromebook("B", "CHR002", "Lab 1", "good"),
		chromebook("C", "CHR003", "Lab 2", "damaged"),
	}
	items := []model.CountedItem{
		counted("1", "A", model.ScanMethodQRCode, base, model.Observation{Location: "Lab 1", Condition: "good"}),
		counted("2", "C", model.ScanMethodManualID, base.Add(10*time.Minute), model.Observation{Location: "Lab 2", Condition: "damaged"}),
		counted("3", "B", model.ScanMethodQRCode, base.Add(70*time.Minute), model.Observation{Location: "Lab 1", Condition: "good"}),
	}

	rec := Reconcile(inventory, items[:2], nil)
	if rec.TotalExpected != 3 || rec.TotalCounted != 2 {
		t.Errorf("expected 3/2 totals, got %d/%d", rec.TotalExpected, rec.TotalCounted)
	}
	if len(rec.Missing) != 1 || rec.Missing[0].ID != "B" {
		t.Errorf("expected B missing, got %+v", rec.Missing)
	}

	rec = Reconcile(inventory, items, nil)
	if len(rec.Missing) != 0 {
		t.Errorf("expected nothing missing, got %d", len(rec.Missing))
	}
	m := rec.ByMethod
	if m.QRCode != 2 || m.ManualID != 1 {
		t.Errorf("expected 2 qr and 1 manual, got %d/%d", m.QRCode, m.ManualID)
	}
	if m.QRCodePercentage != 66.7 || m.ManualIDPercentage != 33.3 {
		t.Errorf("expected 66.7/33.3, got %v/%v", m.QRCodePercentage, m.ManualIDPercentage)
	}
	if len(rec.LocationMismatches) != 0 || len(rec.ConditionMismatches) != 0 {
		t.Errorf("expected no mismatches, got %+v %+v", rec.LocationMismatches, rec.ConditionMismatches)
	}
}

func TestReconcileMissingIsComplement(t *testing.T) {
	var inventory []model.Chromebook
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		inventory = append(inventory, chromebook(id, "CHR-"+id, "", ""))
	}
	items := []model.CountedItem{
		counted("1", "b", model.ScanMethodQRCode, base, model.Observation{}),
		counted("2", "d", model.ScanMethodQRCode, base, model.Observation{}),
		// Counted but no longer in the inventory.
		counted("3", "z", model.ScanMethodQRCode, base, model.Observation{}),
	}

	rec := Reconcile(inventory, items, nil)
	want := []string{"a", "c", "e"}
	if len(rec.Missing) != len(want) {
		t.Fatalf("expected %d missing, got %d", len(want), len(rec.Missing))
	}
	for i, id := range want {
		if rec.Missing[i].ID != id {
			t.Errorf("missing[%d]: expected %q, got %q", i, id, rec.Missing[i].ID)
		}
	}
}

func TestReconcileMismatches(t *testing.T) {
	inventory := []model.Chromebook{chromebook("A", "CHR001", "Lab 1", "good")}
	item := counted("1", "A", model.ScanMethodQRCode, base, model.Observation{Location: "Lab 1", Condition: "good"})
	item.LocationFound = "Library"
	item.ConditionFound = "damaged"

	rec := Reconcile(inventory, []model.CountedItem{item}, nil)
	if len(rec.LocationMismatches) != 1 {
		t.Fatalf("expected 1 location mismatch, got %d", len(rec.LocationMismatches))
	}
	lm := rec.LocationMismatches[0]
	if lm.Expected != "Lab 1" || lm.Found != "Library" || lm.ItemID != "1" {
		t.Errorf("unexpected location mismatch %+v", lm)
	}
	if len(rec.ConditionMismatches) != 1 || rec.ConditionMismatches[0].Found != "damaged" {
		t.Errorf("unexpected condition mismatches %+v", rec.ConditionMismatches)
	}

	// Nothing recorded on either side is not a mismatch.
	blank := counted("2", "A", model.ScanMethodQRCode, base, model.Observation{})
	blank.LocationFound = "Library"
	rec = Reconcile(inventory, []model.CountedItem{blank}, nil)
	if len(rec.LocationMismatches) != 0 {
		t.Errorf("expected no mismatch without an expected location, got %+v", rec.LocationMismatches)
	}
}

func TestReconcileByLocation(t *testing.T) {
	inventory := []model.Chromebook{
		chromebook("A", "CHR001", "Lab 1", ""),
		chromebook("B", "CHR002", "Lab 2", ""),
		chromebook("C", "CHR003", "Lab 2", ""),
		chromebook("D", "CHR004", "", ""),
	}
	items := []model.CountedItem{
		counted("1", "B", model.ScanMethodQRCode, base, model.Observation{Location: "Lab 2"}),
		counted("2", "C", model.ScanMethodQRCode, base, model.Observation{Location: "Lab 2"}),
		counted("3", "D", model.ScanMethodQRCode, base, model.Observation{}),
	}

	rec := Reconcile(inventory, items, nil)
	want := []LocationStat{
		{Location: "Lab 2", Counted: 2, Expected: 2, Discrepancy: 0},
		{Location: Unspecified, Counted: 1, Expected: 1, Discrepancy: 0},
		{Location: "Lab 1", Counted: 0, Expected: 1, Discrepancy: -1},
	}
	if len(rec.ByLocation) != len(want) {
		t.Fatalf("expected %d locations, got %+v", len(want), rec.ByLocation)
	}
	for i := range want {
		if rec.ByLocation[i] != want[i] {
			t.Errorf("by_location[%d]: expected %+v, got %+v", i, want[i], rec.ByLocation[i])
		}
	}
}

func TestReconcileByCondition(t *testing.T) {
	items := []model.CountedItem{
		counted("1", "A", model.ScanMethodQRCode, base, model.Observation{Condition: "good"}),
		counted("2", "B", model.ScanMethodQRCode, base, model.Observation{}),
		counted("3", "C", model.ScanMethodQRCode, base, model.Observation{Condition: "damaged"}),
		counted("4", "D", model.ScanMethodQRCode, base, model.Observation{Condition: "damaged"}),
	}

	rec := Reconcile(nil, items, nil)
	want := []ConditionStat{
		{Condition: "damaged", Count: 2, Percentage: 50},
		{Condition: "good", Count: 1, Percentage: 25},
		{Condition: Unspecified, Count: 1, Percentage: 25},
	}
	if len(rec.ByCondition) != len(want) {
		t.Fatalf("expected %d conditions, got %+v", len(want), rec.ByCondition)
	}
	for i := range want {
		if rec.ByCondition[i] != want[i] {
			t.Errorf("by_condition[%d]: expected %+v, got %+v", i, want[i], rec.ByCondition[i])
		}
	}
}

func TestReconcileByHour(t *testing.T) {
	items := []model.CountedItem{
		counted("1", "A", model.ScanMethodQRCode, base.Add(70*time.Minute), model.Observation{}),
		counted("2", "B", model.ScanMethodQRCode, base, model.Observation{}),
		counted("3", "C", model.ScanMethodQRCode, base.Add(5*time.Minute), model.Observation{}),
	}

	rec := Reconcile(nil, items, nil)
	want := []HourStat{
		{Hour: "09", Count: 2, Cumulative: 2},
		{Hour: "10", Count: 1, Cumulative: 3},
	}
	if len(rec.ByHour) != len(want) {
		t.Fatalf("expected %d hours, got %+v", len(want), rec.ByHour)
	}
	for i := range want {
		if rec.ByHour[i] != want[i] {
			t.Errorf("by_hour[%d]: expected %+v, got %+v", i, want[i], rec.ByHour[i])
		}
	}

	loc := time.FixedZone("CET", 3600)
	rec = Reconcile(nil, items, loc)
	if rec.ByHour[0].Hour != "10" {
		t.Errorf("expected first bucket at 10 in CET, got %q", rec.ByHour[0].Hour)
	}
	if last := rec.ByHour[len(rec.ByHour)-1]; last.Cumulative != len(items) {
		t.Errorf("expected final cumulative %d, got %d", len(items), last.Cumulative)
	}
}

func TestReconcileEmpty(t *testing.T) {
	rec := Reconcile(nil, nil, nil)
	if rec.Missing == nil || rec.LocationMismatches == nil || rec.ConditionMismatches == nil || rec.ByHour == nil {
		t.Error("expected non-nil slices for an empty reconciliation")
	}
	if rec.ByMethod.QRCodePercentage != 0 || rec.ByMethod.ManualIDPercentage != 0 {
		t.Errorf("expected zero percentages, got %+v", rec.ByMethod)
	}
}
