package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/model"
)

var _ audit.Repository = (*Repo)(nil)

// Repo exposes the store functions as an audit.Repository.
type Repo struct {
	DB *sql.DB
}

func (r *Repo) FindChromebooks(ctx context.Context, field, value string) ([]model.Chromebook, error) {
	return FindChromebooks(ctx, r.DB, field, value)
}

func (r *Repo) ListChromebooks(ctx context.Context) ([]model.Chromebook, error) {
	return ListChromebooks(ctx, r.DB, "")
}

func (r *Repo) CreateAudit(ctx context.Context, name string, createdBy int64, startedAt time.Time) (*model.AuditSession, error) {
	return CreateAudit(ctx, r.DB, name, createdBy, startedAt)
}

func (r *Repo) GetAudit(ctx context.Context, id string) (*model.AuditSession, error) {
	return GetAudit(ctx, r.DB, id)
}

func (r *Repo) GetActiveAudit(ctx context.Context, createdBy int64) (*model.AuditSession, error) {
	return GetActiveAudit(ctx, r.DB, createdBy)
}

func (r *Repo) CompleteAudit(ctx context.Context, id string, completedAt time.Time, totalCounted, totalExpected int) error {
	return CompleteAudit(ctx, r.DB, id, completedAt, totalCounted, totalExpected)
}

func (r *Repo) DeleteAudit(ctx context.Context, id string) error {
	return DeleteAudit(ctx, r.DB, id)
}

func (r *Repo) ListAuditItems(ctx context.Context, auditID string) ([]model.CountedItem, error) {
	return ListAuditItems(ctx, r.DB, auditID)
}

func (r *Repo) CreateAuditItem(ctx context.Context, item model.CountedItem) (*model.CountedItem, error) {
	return CreateAuditItem(ctx, r.DB, item)
}

func (r *Repo) UpdateAuditItemLocation(ctx context.Context, id, location string) error {
	return UpdateAuditItemLocation(ctx, r.DB, id, location)
}

func (r *Repo) UpdateAuditItemCondition(ctx context.Context, id, condition string) error {
	return UpdateAuditItemCondition(ctx, r.DB, id, condition)
}

func (r *Repo) DeleteAuditItem(ctx context.Context, id string) error {
	return DeleteAuditItem(ctx, r.DB, id)
}
