package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/popis/internal/model"
)

const auditItemSelect = `SELECT ai.id, ai.audit_id, ai.chromebook_id, ai.counted_at, ai.counted_by, ai.scan_method,
	       ai.expected_location, ai.expected_condition, ai.location_found, ai.condition_found,
	       c.chromebook_id, c.model, c.serial_number, c.manufacturer
	FROM audit_items ai
	JOIN chromebooks c ON c.id = ai.chromebook_id`

// CreateAuditItem records a counted chromebook. The joined display fields of
// item are carried through to the returned value.
func CreateAuditItem(ctx context.Context, db *sql.DB, item model.CountedItem) (*model.CountedItem, error) {
	item.ID = uuid.NewString()
	item.CountedAt = item.CountedAt.UTC()

	var countedBy *int64
	if item.CountedBy > 0 {
		countedBy = &item.CountedBy
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_items (id, audit_id, chromebook_id, counted_at, counted_by, scan_method,
		                          expected_location, expected_condition, location_found, condition_found)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.AuditID, item.ChromebookID, item.CountedAt, countedBy, item.ScanMethod,
		nullString(item.Expected.Location), nullString(item.Expected.Condition),
		nullString(item.LocationFound), nullString(item.ConditionFound),
	)
	if err != nil {
		return nil, fmt.Errorf("creating audit item: %w", err)
	}

	return &item, nil
}

// ListAuditItems returns the items counted in an audit, oldest first.
func ListAuditItems(ctx context.Context, db *sql.DB, auditID string) ([]model.CountedItem, error) {
	rows, err := db.QueryContext(ctx,
		auditItemSelect+` WHERE ai.audit_id = ? ORDER BY ai.counted_at, ai.rowid`, auditID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit items: %w", err)
	}
	defer rows.Close()

	var items []model.CountedItem
	for rows.Next() {
		item, err := scanAuditItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning audit item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateAuditItemLocation corrects where a counted item was actually found.
func UpdateAuditItemLocation(ctx context.Context, db *sql.DB, id, location string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE audit_items SET location_found = ? WHERE id = ?`, nullString(location), id,
	)
	if err != nil {
		return fmt.Errorf("updating audit item location: %w", err)
	}
	return nil
}

// UpdateAuditItemCondition corrects the condition a counted item was found in.
func UpdateAuditItemCondition(ctx context.Context, db *sql.DB, id, condition string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE audit_items SET condition_found = ? WHERE id = ?`, nullString(condition), id,
	)
	if err != nil {
		return fmt.Errorf("updating audit item condition: %w", err)
	}
	return nil
}

// DeleteAuditItem removes a counted item.
func DeleteAuditItem(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM audit_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting audit item: %w", err)
	}
	return nil
}

func scanAuditItem(row rowScanner) (*model.CountedItem, error) {
	item := &model.CountedItem{}
	var countedBy sql.NullInt64
	var expLocation, expCondition, locFound, condFound, serial, manufacturer sql.NullString
	err := row.Scan(&item.ID, &item.AuditID, &item.ChromebookID, &item.CountedAt, &countedBy, &item.ScanMethod,
		&expLocation, &expCondition, &locFound, &condFound,
		&item.Code, &item.Model, &serial, &manufacturer)
	if err != nil {
		return nil, err
	}
	item.CountedBy = countedBy.Int64
	item.Expected = model.Observation{Location: expLocation.String, Condition: expCondition.String}
	item.LocationFound = locFound.String
	item.ConditionFound = condFound.String
	item.SerialNumber = serial.String
	item.Manufacturer = manufacturer.String
	return item, nil
}
