package model

import "time"

// AuditSession is one physical stock-take.
type AuditSession struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TotalExpected *int       `json:"total_expected,omitempty"`
	TotalCounted  *int       `json:"total_counted,omitempty"`
	CreatedBy     int64      `json:"created_by"`
}

// Audit statuses.
const (
	AuditStatusInProgress = "in_progress"
	AuditStatusCompleted  = "completed"
	AuditStatusCancelled  = "cancelled"
)

// Scan methods.
const (
	ScanMethodQRCode   = "qr_code"
	ScanMethodManualID = "manual_id"
)

// ValidScanMethod reports whether method is a known scan method.
func ValidScanMethod(method string) bool {
	return method == ScanMethodQRCode || method == ScanMethodManualID
}

// Observation is the chromebook's location and condition as recorded in the
// inventory at the moment it was counted. It is written once and never
// corrected; corrections go to CountedItem.LocationFound/ConditionFound.
type Observation struct {
	Location  string `json:"expected_location,omitempty"`
	Condition string `json:"expected_condition,omitempty"`
}

// CountedItem is a chromebook observed during an audit.
type CountedItem struct {
	ID             string      `json:"id"`
	AuditID        string      `json:"audit_id"`
	ChromebookID   string      `json:"chromebook_id"`
	CountedAt      time.Time   `json:"counted_at"`
	CountedBy      int64       `json:"counted_by"`
	ScanMethod     string      `json:"scan_method"`
	Expected       Observation `json:"expected"`
	LocationFound  string      `json:"location_found,omitempty"`
	ConditionFound string      `json:"condition_found,omitempty"`

	// Joined fields (not always populated).
	Code         string `json:"code,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
}
