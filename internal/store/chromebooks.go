package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/model"
)

const chromebookColumns = `id, chromebook_id, model, manufacturer, serial_number, patrimony_number,
	location, condition, status, created_at, updated_at`

// CreateChromebook inserts a chromebook. Status defaults to available.
func CreateChromebook(ctx context.Context, db *sql.DB, c model.Chromebook) (*model.Chromebook, error) {
	c.Code = strings.TrimSpace(c.Code)
	if c.Code == "" {
		return nil, fmt.Errorf("chromebook_id required")
	}
	if c.Status == "" {
		c.Status = model.ChromebookStatusAvailable
	}
	if !model.ValidChromebookStatus(c.Status) {
		return nil, fmt.Errorf("invalid status %q", c.Status)
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO chromebooks (id, chromebook_id, model, manufacturer, serial_number, patrimony_number, location, condition, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Code, c.Model, nullString(c.Manufacturer), nullString(c.SerialNumber), nullString(c.PatrimonyNumber),
		nullString(c.Location), nullString(c.Condition), c.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating chromebook: %w", err)
	}

	return GetChromebook(ctx, db, id)
}

// GetChromebook returns a chromebook by ID.
func GetChromebook(ctx context.Context, db *sql.DB, id string) (*model.Chromebook, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+chromebookColumns+` FROM chromebooks WHERE id = ?`, id,
	)
	c, err := scanChromebook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting chromebook: %w", err)
	}
	return c, nil
}

// ListChromebooks returns all chromebooks ordered by device code, optionally
// filtered by status.
func ListChromebooks(ctx context.Context, db *sql.DB, status string) ([]model.Chromebook, error) {
	query := `SELECT ` + chromebookColumns + ` FROM chromebooks`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY chromebook_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing chromebooks: %w", err)
	}
	defer rows.Close()

	return scanChromebooks(rows)
}

// FindChromebooks returns chromebooks whose field equals value exactly.
func FindChromebooks(ctx context.Context, db *sql.DB, field, value string) ([]model.Chromebook, error) {
	switch field {
	case audit.FieldCode, audit.FieldSerial, audit.FieldPatrimony:
	default:
		return nil, fmt.Errorf("unsupported chromebook field %q", field)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+chromebookColumns+` FROM chromebooks WHERE `+field+` = ? ORDER BY chromebook_id`, value,
	)
	if err != nil {
		return nil, fmt.Errorf("finding chromebooks by %s: %w", field, err)
	}
	defer rows.Close()

	return scanChromebooks(rows)
}

// UpdateChromebookPlacement sets a chromebook's recorded location and condition.
func UpdateChromebookPlacement(ctx context.Context, db *sql.DB, id, location, condition string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE chromebooks SET location = ?, condition = ?, updated_at = ? WHERE id = ?`,
		nullString(location), nullString(condition), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating chromebook placement: %w", err)
	}
	return nil
}

// ImportChromebooks inserts chromebooks, or updates the existing row with
// the same device code, in one transaction.
func ImportChromebooks(ctx context.Context, db *sql.DB, chromebooks []model.Chromebook) (created, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, c := range chromebooks {
		c.Code = strings.TrimSpace(c.Code)
		if c.Code == "" {
			return 0, 0, fmt.Errorf("row %d: chromebook_id required", i+1)
		}
		if c.Status == "" {
			c.Status = model.ChromebookStatusAvailable
		}
		if !model.ValidChromebookStatus(c.Status) {
			return 0, 0, fmt.Errorf("row %d: invalid status %q", i+1, c.Status)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE chromebooks
			 SET model = ?, manufacturer = ?, serial_number = ?, patrimony_number = ?,
			     location = ?, condition = ?, status = ?, updated_at = ?
			 WHERE chromebook_id = ?`,
			c.Model, nullString(c.Manufacturer), nullString(c.SerialNumber), nullString(c.PatrimonyNumber),
			nullString(c.Location), nullString(c.Condition), c.Status, time.Now().UTC(), c.Code,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("updating chromebook %s: %w", c.Code, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			updated++
			continue
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO chromebooks (id, chromebook_id, model, manufacturer, serial_number, patrimony_number, location, condition, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), c.Code, c.Model, nullString(c.Manufacturer), nullString(c.SerialNumber),
			nullString(c.PatrimonyNumber), nullString(c.Location), nullString(c.Condition), c.Status,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("inserting chromebook %s: %w", c.Code, err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing import: %w", err)
	}
	return created, updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChromebook(row rowScanner) (*model.Chromebook, error) {
	c := &model.Chromebook{}
	var manufacturer, serial, patrimony, location, condition sql.NullString
	err := row.Scan(&c.ID, &c.Code, &c.Model, &manufacturer, &serial, &patrimony,
		&location, &condition, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Manufacturer = manufacturer.String
	c.SerialNumber = serial.String
	c.PatrimonyNumber = patrimony.String
	c.Location = location.String
	c.Condition = condition.String
	return c, nil
}

func scanChromebooks(rows *sql.Rows) ([]model.Chromebook, error) {
	var chromebooks []model.Chromebook
	for rows.Next() {
		c, err := scanChromebook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chromebook: %w", err)
		}
		chromebooks = append(chromebooks, *c)
	}
	return chromebooks, rows.Err()
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
