package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/popis/internal/model"
)

const auditColumns = `id, name, status, started_at, completed_at, total_expected, total_counted, created_by`

// CreateAudit starts a new in-progress audit.
func CreateAudit(ctx context.Context, db *sql.DB, name string, createdBy int64, startedAt time.Time) (*model.AuditSession, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory_audits (id, name, status, started_at, created_by) VALUES (?, ?, ?, ?, ?)`,
		id, name, model.AuditStatusInProgress, startedAt.UTC(), createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating audit: %w", err)
	}

	return GetAudit(ctx, db, id)
}

// GetAudit returns an audit by ID.
func GetAudit(ctx context.Context, db *sql.DB, id string) (*model.AuditSession, error) {
	a, err := scanAudit(db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM inventory_audits WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting audit: %w", err)
	}
	return a, nil
}

// GetActiveAudit returns the in-progress audit started by a user, if any.
func GetActiveAudit(ctx context.Context, db *sql.DB, createdBy int64) (*model.AuditSession, error) {
	a, err := scanAudit(db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM inventory_audits
		 WHERE created_by = ? AND status = ?
		 ORDER BY started_at DESC LIMIT 1`, createdBy, model.AuditStatusInProgress,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active audit: %w", err)
	}
	return a, nil
}

// ListAudits returns all audits, newest first.
func ListAudits(ctx context.Context, db *sql.DB) ([]model.AuditSession, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM inventory_audits ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audits: %w", err)
	}
	defer rows.Close()

	var audits []model.AuditSession
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning audit: %w", err)
		}
		audits = append(audits, *a)
	}
	return audits, rows.Err()
}

// CompleteAudit marks an in-progress audit completed and stores the final counts.
func CompleteAudit(ctx context.Context, db *sql.DB, id string, completedAt time.Time, totalCounted, totalExpected int) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventory_audits
		 SET status = ?, completed_at = ?, total_counted = ?, total_expected = ?
		 WHERE id = ? AND status = ?`,
		model.AuditStatusCompleted, completedAt.UTC(), totalCounted, totalExpected,
		id, model.AuditStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("completing audit: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing audit: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("completing audit: audit %s is not in progress", id)
	}
	return nil
}

// DeleteAudit removes an audit and all of its counted items.
func DeleteAudit(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_items WHERE audit_id = ?`, id); err != nil {
		return fmt.Errorf("deleting audit items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_audits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing audit deletion: %w", err)
	}
	return nil
}

func scanAudit(row rowScanner) (*model.AuditSession, error) {
	a := &model.AuditSession{}
	var expected, counted sql.NullInt64
	err := row.Scan(&a.ID, &a.Name, &a.Status, &a.StartedAt, &a.CompletedAt, &expected, &counted, &a.CreatedBy)
	if err != nil {
		return nil, err
	}
	if expected.Valid {
		n := int(expected.Int64)
		a.TotalExpected = &n
	}
	if counted.Valid {
		n := int(counted.Int64)
		a.TotalCounted = &n
	}
	return a, nil
}
