package audit

import (
	"testing"
	"time"

	"github.com/erazemk/popis/internal/model"
)

func TestCompileEmptyAudit(t *testing.T) {
	session := &model.AuditSession{ID: "a1", Name: "Spring", Status: model.AuditStatusInProgress, StartedAt: base}

	r := Compile(session, Reconcile(nil, nil, nil), 0, base.Add(10*time.Second))
	if r.Summary.CompletionRate != "0.0%" {
		t.Errorf("expected 0.0%%, got %q", r.Summary.CompletionRate)
	}
	if r.Summary.Duration != "< 1m" {
		t.Errorf("expected '< 1m', got %q", r.Summary.Duration)
	}
	if r.Summary.AverageTimePerItem != "0s" {
		t.Errorf("expected '0s', got %q", r.Summary.AverageTimePerItem)
	}
	if r.Summary.ItemsPerHour != 0 {
		t.Errorf("expected 0 items/hour, got %v", r.Summary.ItemsPerHour)
	}
	if r.Audit.ID != "a1" {
		t.Errorf("expected audit header a1, got %q", r.Audit.ID)
	}
}

func TestCompileNilInputs(t *testing.T) {
	r := Compile(nil, nil, 0, base)
	if r.Summary.CompletionRate != "0.0%" || r.Summary.Duration != "< 1m" {
		t.Errorf("unexpected summary %+v", r.Summary)
	}
	if r.Discrepancies.Missing == nil {
		t.Error("expected non-nil missing list")
	}
}

func TestCompileCompletionRate(t *testing.T) {
	inventory := []model.Chromebook{
		chromebook("A", "CHR001", "", ""),
		chromebook("B", "CHR002", "", ""),
		chromebook("C", "CHR003", "", ""),
	}
	items := []model.CountedItem{
		counted("1", "A", model.ScanMethodQRCode, base, model.Observation{}),
		counted("2", "B", model.ScanMethodQRCode, base, model.Observation{}),
	}
	session := &model.AuditSession{StartedAt: base}

	r := Compile(session, Reconcile(inventory, items, nil), 3, base.Add(2*time.Hour))
	if r.Summary.CompletionRate != "66.7%" {
		t.Errorf("expected 66.7%%, got %q", r.Summary.CompletionRate)
	}
	if r.Summary.CompletionPercent != 66.7 {
		t.Errorf("expected 66.7, got %v", r.Summary.CompletionPercent)
	}
	if r.Summary.ItemsPerHour != 1 {
		t.Errorf("expected 1 item/hour, got %v", r.Summary.ItemsPerHour)
	}
	if r.Summary.AverageTimePerItem != "3600s" {
		t.Errorf("expected 3600s, got %q", r.Summary.AverageTimePerItem)
	}
	if len(r.Discrepancies.Missing) != 1 || r.Discrepancies.Missing[0].ID != "C" {
		t.Errorf("expected C missing, got %+v", r.Discrepancies.Missing)
	}

	// Counting everything never exceeds 100%.
	items = append(items, counted("3", "C", model.ScanMethodQRCode, base, model.Observation{}))
	r = Compile(session, Reconcile(inventory, items, nil), 3, base.Add(time.Hour))
	if r.Summary.CompletionRate != "100.0%" {
		t.Errorf("expected 100.0%%, got %q", r.Summary.CompletionRate)
	}
}

func TestCompileUsesCompletedAt(t *testing.T) {
	completed := base.Add(90 * time.Minute)
	session := &model.AuditSession{StartedAt: base, CompletedAt: &completed}

	r := Compile(session, nil, 0, base.Add(48*time.Hour))
	if r.Summary.Duration != "1h 30m" {
		t.Errorf("expected '1h 30m', got %q", r.Summary.Duration)
	}
	if !r.GeneratedAt.Equal(base.Add(48 * time.Hour)) {
		t.Errorf("expected generated_at to be now, got %v", r.GeneratedAt)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "< 1m"},
		{59 * time.Second, "< 1m"},
		{time.Minute, "1m"},
		{45*time.Minute + 30*time.Second, "45m"},
		{time.Hour, "1h 0m"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestItemsPerHour(t *testing.T) {
	if got := itemsPerHour(5, 30*time.Second); got != 5 {
		t.Errorf("expected raw count below 36s, got %v", got)
	}
	if got := itemsPerHour(10, 30*time.Minute); got != 20 {
		t.Errorf("expected 20, got %v", got)
	}
	if got := itemsPerHour(1, 3*time.Hour); got != 0.3 {
		t.Errorf("expected 0.3, got %v", got)
	}
}
