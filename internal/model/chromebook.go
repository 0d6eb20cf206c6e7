package model

import "time"

// Chromebook is a single inventoried device. The audit engine only reads it.
type Chromebook struct {
	ID              string    `json:"id"`
	Code            string    `json:"chromebook_id"`
	Model           string    `json:"model"`
	Manufacturer    string    `json:"manufacturer,omitempty"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	PatrimonyNumber string    `json:"patrimony_number,omitempty"`
	Location        string    `json:"location,omitempty"`
	Condition       string    `json:"condition,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Chromebook statuses.
const (
	ChromebookStatusAvailable    = "available"
	ChromebookStatusLoaned       = "loaned"
	ChromebookStatusFixed        = "fixed"
	ChromebookStatusOutOfService = "out_of_service"
	ChromebookStatusMaintenance  = "maintenance"
)

// ValidChromebookStatus reports whether status is one of the known statuses.
func ValidChromebookStatus(status string) bool {
	switch status {
	case ChromebookStatusAvailable, ChromebookStatusLoaned, ChromebookStatusFixed,
		ChromebookStatusOutOfService, ChromebookStatusMaintenance:
		return true
	}
	return false
}
