package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erazemk/popis/internal/model"
)

// fakeRepo is an in-memory Repository with failure injection.
type fakeRepo struct {
	mu          sync.Mutex
	chromebooks []model.Chromebook
	audits      map[string]*model.AuditSession
	items       []model.CountedItem
	nextID      int

	failFind       error
	failCreateItem error
	failUpdate     error
	failDeleteItem error
	failComplete   error
	failDelete     error

	// block, when set, is waited on inside CreateAuditItem.
	block chan struct{}
	// entered is signalled when CreateAuditItem starts waiting on block.
	entered chan struct{}
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo(chromebooks ...model.Chromebook) *fakeRepo {
	return &fakeRepo{chromebooks: chromebooks, audits: make(map[string]*model.AuditSession)}
}

func (f *fakeRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeRepo) FindChromebooks(_ context.Context, field, value string) ([]model.Chromebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind != nil {
		return nil, f.failFind
	}
	var out []model.Chromebook
	for _, c := range f.chromebooks {
		var v string
		switch field {
		case FieldCode:
			v = c.Code
		case FieldSerial:
			v = c.SerialNumber
		case FieldPatrimony:
			v = c.PatrimonyNumber
		}
		if v != "" && v == value {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListChromebooks(context.Context) ([]model.Chromebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Chromebook(nil), f.chromebooks...), nil
}

func (f *fakeRepo) CreateAudit(_ context.Context, name string, createdBy int64, startedAt time.Time) (*model.AuditSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &model.AuditSession{ID: f.id("audit"), Name: name, Status: model.AuditStatusInProgress, StartedAt: startedAt, CreatedBy: createdBy}
	f.audits[a.ID] = a
	s := *a
	return &s, nil
}

func (f *fakeRepo) GetAudit(_ context.Context, id string) (*model.AuditSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return nil, nil
	}
	s := *a
	return &s, nil
}

func (f *fakeRepo) GetActiveAudit(_ context.Context, createdBy int64) (*model.AuditSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.audits {
		if a.CreatedBy == createdBy && a.Status == model.AuditStatusInProgress {
			s := *a
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CompleteAudit(_ context.Context, id string, completedAt time.Time, totalCounted, totalExpected int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failComplete != nil {
		return f.failComplete
	}
	a, ok := f.audits[id]
	if !ok {
		return fmt.Errorf("audit %s not found", id)
	}
	a.Status = model.AuditStatusCompleted
	a.CompletedAt = &completedAt
	a.TotalCounted = &totalCounted
	a.TotalExpected = &totalExpected
	return nil
}

func (f *fakeRepo) DeleteAudit(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.audits, id)
	kept := f.items[:0]
	for _, item := range f.items {
		if item.AuditID != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeRepo) ListAuditItems(_ context.Context, auditID string) ([]model.CountedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CountedItem
	for _, item := range f.items {
		if item.AuditID == auditID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAuditItem(_ context.Context, item model.CountedItem) (*model.CountedItem, error) {
	if f.block != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateItem != nil {
		return nil, f.failCreateItem
	}
	item.ID = f.id("item")
	f.items = append(f.items, item)
	return &item, nil
}

func (f *fakeRepo) update(id string, apply func(*model.CountedItem)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	for i := range f.items {
		if f.items[i].ID == id {
			apply(&f.items[i])
		}
	}
	return nil
}

func (f *fakeRepo) UpdateAuditItemLocation(_ context.Context, id, location string) error {
	return f.update(id, func(item *model.CountedItem) { item.LocationFound = location })
}

func (f *fakeRepo) UpdateAuditItemCondition(_ context.Context, id, condition string) error {
	return f.update(id, func(item *model.CountedItem) { item.ConditionFound = condition })
}

func (f *fakeRepo) DeleteAuditItem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteItem != nil {
		return f.failDeleteItem
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func chromebook(id, code, location, condition string) model.Chromebook {
	return model.Chromebook{
		ID:        id,
		Code:      code,
		Model:     "Chromebook 314",
		Location:  location,
		Condition: condition,
		Status:    model.ChromebookStatusAvailable,
	}
}
