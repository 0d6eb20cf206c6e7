package audit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/popis/internal/model"
)

// Repository is the record store the engine persists through. It must
// provide atomic single-row writes; result order of lookups is not relied on.
type Repository interface {
	ChromebookFinder
	ListChromebooks(ctx context.Context) ([]model.Chromebook, error)

	CreateAudit(ctx context.Context, name string, createdBy int64, startedAt time.Time) (*model.AuditSession, error)
	GetAudit(ctx context.Context, id string) (*model.AuditSession, error)
	GetActiveAudit(ctx context.Context, createdBy int64) (*model.AuditSession, error)
	CompleteAudit(ctx context.Context, id string, completedAt time.Time, totalCounted, totalExpected int) error
	DeleteAudit(ctx context.Context, id string) error

	ListAuditItems(ctx context.Context, auditID string) ([]model.CountedItem, error)
	CreateAuditItem(ctx context.Context, item model.CountedItem) (*model.CountedItem, error)
	UpdateAuditItemLocation(ctx context.Context, id, location string) error
	UpdateAuditItemCondition(ctx context.Context, id, condition string) error
	DeleteAuditItem(ctx context.Context, id string) error
}

// Options configures an Engine.
type Options struct {
	// Prefix is the device-code prefix, DefaultPrefix if empty.
	Prefix string
	// Location is the time zone for hour-of-day statistics, UTC if nil.
	Location *time.Location
	// Now replaces time.Now in tests.
	Now func() time.Time
	// Strategies overrides DefaultStrategies.
	Strategies []MatchStrategy
}

// CountRequest is one scan or manual entry.
type CountRequest struct {
	Token     string
	Method    string
	CountedBy int64
	// Location and Condition, when set, record what the operator actually
	// observed instead of the inventory's values.
	Location  string
	Condition string
}

// Engine manages one in-progress audit: its counted items and the inventory
// snapshot they are reconciled against. An Engine is disposed once its audit
// is completed or deleted; every mutating call after that returns
// ErrAuditClosed.
//
// Mutating calls are not queued. A call made while another is still waiting
// on the repository returns ErrBusy.
type Engine struct {
	repo     Repository
	resolver *Resolver
	loc      *time.Location
	now      func() time.Time

	mu         sync.Mutex
	processing bool
	session    *model.AuditSession
	items      []model.CountedItem
	inventory  []model.Chromebook
}

func newEngine(repo Repository, opts Options) *Engine {
	e := &Engine{
		repo:     repo,
		resolver: NewResolver(repo, opts.Prefix),
		loc:      opts.Location,
		now:      opts.Now,
	}
	if opts.Strategies != nil {
		e.resolver.Strategies = opts.Strategies
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Start begins an audit for createdBy. If that user already has an audit in
// progress it is resumed instead and name is ignored.
func Start(ctx context.Context, repo Repository, opts Options, name string, createdBy int64) (*Engine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "audit name required"}
	}
	if createdBy <= 0 {
		return nil, &ValidationError{Field: "created_by", Message: "audit creator required"}
	}

	e := newEngine(repo, opts)

	session, err := repo.GetActiveAudit(ctx, createdBy)
	if err != nil {
		return nil, persistErr("loading active audit", err)
	}
	if session == nil {
		session, err = repo.CreateAudit(ctx, name, createdBy, e.now())
		if err != nil {
			return nil, persistErr("creating audit", err)
		}
	}

	if err := e.load(ctx, session); err != nil {
		return nil, err
	}
	return e, nil
}

// Resume loads the in-progress audit of createdBy. It returns
// ErrNoActiveAudit if there is none.
func Resume(ctx context.Context, repo Repository, opts Options, createdBy int64) (*Engine, error) {
	session, err := repo.GetActiveAudit(ctx, createdBy)
	if err != nil {
		return nil, persistErr("loading active audit", err)
	}
	if session == nil {
		return nil, ErrNoActiveAudit
	}

	e := newEngine(repo, opts)
	if err := e.load(ctx, session); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) load(ctx context.Context, session *model.AuditSession) error {
	items, err := e.repo.ListAuditItems(ctx, session.ID)
	if err != nil {
		return persistErr("loading counted items", err)
	}
	inventory, err := e.repo.ListChromebooks(ctx)
	if err != nil {
		return persistErr("loading inventory", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = session
	e.items = items
	e.inventory = inventory
	return nil
}

// begin claims the single-writer slot.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ErrAuditClosed
	}
	if e.processing {
		return ErrBusy
	}
	e.processing = true
	return nil
}

func (e *Engine) end() {
	e.mu.Lock()
	e.processing = false
	e.mu.Unlock()
}

// dispose drops all session state. Callers hold e.mu.
func (e *Engine) dispose() {
	e.session = nil
	e.items = nil
	e.inventory = nil
}

// Count resolves a token to a chromebook and records it as counted.
func (e *Engine) Count(ctx context.Context, req CountRequest) (*model.CountedItem, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if !model.ValidScanMethod(req.Method) {
		return nil, &ValidationError{Field: "scan_method", Message: "must be qr_code or manual_id"}
	}

	chromebook, err := e.resolver.Resolve(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	auditID := e.session.ID
	duplicate := e.indexOfChromebook(chromebook.ID) >= 0
	e.mu.Unlock()
	if duplicate {
		return nil, &DuplicateError{Code: chromebook.Code}
	}

	expected := model.Observation{Location: chromebook.Location, Condition: chromebook.Condition}
	item := model.CountedItem{
		AuditID:        auditID,
		ChromebookID:   chromebook.ID,
		CountedAt:      e.now(),
		CountedBy:      req.CountedBy,
		ScanMethod:     req.Method,
		Expected:       expected,
		LocationFound:  firstNonEmpty(strings.TrimSpace(req.Location), expected.Location),
		ConditionFound: firstNonEmpty(strings.TrimSpace(req.Condition), expected.Condition),
		Code:           chromebook.Code,
		Model:          chromebook.Model,
		SerialNumber:   chromebook.SerialNumber,
		Manufacturer:   chromebook.Manufacturer,
	}

	created, err := e.repo.CreateAuditItem(ctx, item)
	if err != nil {
		return nil, persistErr("saving counted item", err)
	}

	e.mu.Lock()
	e.items = append(e.items, *created)
	// A chromebook added to the catalogue after the snapshot was taken.
	if e.indexOfInventory(chromebook.ID) < 0 {
		e.inventory = append(e.inventory, *chromebook)
	}
	e.mu.Unlock()

	result := *created
	return &result, nil
}

// Remove deletes a counted item.
func (e *Engine) Remove(ctx context.Context, itemID string) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	if _, err := e.findItem(itemID); err != nil {
		return err
	}
	if err := e.repo.DeleteAuditItem(ctx, itemID); err != nil {
		return persistErr("removing counted item", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOfItem(itemID); i >= 0 {
		e.items = append(e.items[:i:i], e.items[i+1:]...)
	}
	return nil
}

// UpdateLocation corrects where a counted item was found. The expected
// location snapshot is left untouched.
func (e *Engine) UpdateLocation(ctx context.Context, itemID, location string) (*model.CountedItem, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, &ValidationError{Field: "location", Message: "location required"}
	}
	return e.correct(ctx, itemID, func(item *model.CountedItem) { item.LocationFound = location },
		func(ctx context.Context) error { return e.repo.UpdateAuditItemLocation(ctx, itemID, location) })
}

// UpdateCondition corrects the condition a counted item was found in.
func (e *Engine) UpdateCondition(ctx context.Context, itemID, condition string) (*model.CountedItem, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return nil, &ValidationError{Field: "condition", Message: "condition required"}
	}
	return e.correct(ctx, itemID, func(item *model.CountedItem) { item.ConditionFound = condition },
		func(ctx context.Context) error { return e.repo.UpdateAuditItemCondition(ctx, itemID, condition) })
}

func (e *Engine) correct(ctx context.Context, itemID string, apply func(*model.CountedItem), persist func(context.Context) error) (*model.CountedItem, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if _, err := e.findItem(itemID); err != nil {
		return nil, err
	}
	if err := persist(ctx); err != nil {
		return nil, persistErr("correcting counted item", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOfItem(itemID)
	if i < 0 {
		return nil, &NotFoundError{Kind: "counted item", Token: itemID}
	}
	apply(&e.items[i])
	result := e.items[i]
	return &result, nil
}

// Complete closes the audit, stores its final counts and returns the report.
// An audit with nothing counted can be completed. The engine is disposed on
// success and left untouched on failure.
func (e *Engine) Complete(ctx context.Context) (Report, error) {
	if err := e.begin(); err != nil {
		return Report{}, err
	}
	defer e.end()

	inventory, err := e.repo.ListChromebooks(ctx)
	if err != nil {
		return Report{}, persistErr("loading inventory", err)
	}

	e.mu.Lock()
	session := *e.session
	items := append([]model.CountedItem(nil), e.items...)
	e.mu.Unlock()

	completedAt := e.now()
	if err := e.repo.CompleteAudit(ctx, session.ID, completedAt, len(items), len(inventory)); err != nil {
		return Report{}, persistErr("completing audit", err)
	}

	counted, expected := len(items), len(inventory)
	session.Status = model.AuditStatusCompleted
	session.CompletedAt = &completedAt
	session.TotalCounted = &counted
	session.TotalExpected = &expected

	report := Compile(&session, Reconcile(inventory, items, e.loc), expected, completedAt)

	e.mu.Lock()
	e.dispose()
	e.mu.Unlock()

	return report, nil
}

// Delete removes the audit and its counted items and disposes the engine.
func (e *Engine) Delete(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	e.mu.Lock()
	id := e.session.ID
	e.mu.Unlock()

	if err := e.repo.DeleteAudit(ctx, id); err != nil {
		return persistErr("deleting audit", err)
	}

	e.mu.Lock()
	e.dispose()
	e.mu.Unlock()
	return nil
}

// Refresh reloads the inventory snapshot so chromebooks added or changed
// since the audit was loaded are reconciled.
func (e *Engine) Refresh(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	inventory, err := e.repo.ListChromebooks(ctx)
	if err != nil {
		return persistErr("loading inventory", err)
	}

	e.mu.Lock()
	e.inventory = inventory
	e.mu.Unlock()
	return nil
}

// Session returns a copy of the audit, or nil once the engine is disposed.
func (e *Engine) Session() *model.AuditSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	s := *e.session
	return &s
}

// Closed reports whether the engine has been disposed.
func (e *Engine) Closed() bool {
	return e.Session() == nil
}

// Items returns a copy of the counted items in counting order.
func (e *Engine) Items() []model.CountedItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.CountedItem{}, e.items...)
}

// Inventory returns a copy of the inventory snapshot.
func (e *Engine) Inventory() []model.Chromebook {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Chromebook{}, e.inventory...)
}

// Reconcile compares the current counts with the inventory snapshot.
func (e *Engine) Reconcile() *Reconciliation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Reconcile(e.inventory, e.items, e.loc)
}

// Report compiles a report of the audit so far.
func (e *Engine) Report() (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Report{}, ErrAuditClosed
	}
	rec := Reconcile(e.inventory, e.items, e.loc)
	return Compile(e.session, rec, len(e.inventory), e.now()), nil
}

// Filter returns the counted items matching c.
func (e *Engine) Filter(c Criteria) ([]model.CountedItem, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return Filter(e.Items(), c), nil
}

// findItem looks up a counted item under the lock.
func (e *Engine) findItem(itemID string) (model.CountedItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOfItem(itemID)
	if i < 0 {
		return model.CountedItem{}, &NotFoundError{Kind: "counted item", Token: itemID}
	}
	return e.items[i], nil
}

func (e *Engine) indexOfItem(itemID string) int {
	for i := range e.items {
		if e.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (e *Engine) indexOfInventory(chromebookID string) int {
	for i := range e.inventory {
		if e.inventory[i].ID == chromebookID {
			return i
		}
	}
	return -1
}

func (e *Engine) indexOfChromebook(chromebookID string) int {
	for i := range e.items {
		if e.items[i].ChromebookID == chromebookID {
			return i
		}
	}
	return -1
}

// Delete removes any audit and its counted items, whatever its status.
func Delete(ctx context.Context, repo Repository, id string) error {
	session, err := repo.GetAudit(ctx, id)
	if err != nil {
		return persistErr("loading audit", err)
	}
	if session == nil {
		return &NotFoundError{Kind: "audit", Token: id}
	}
	if err := repo.DeleteAudit(ctx, id); err != nil {
		return persistErr("deleting audit", err)
	}
	return nil
}

// ReportFor compiles the report of any stored audit. Completed audits use
// their stored expected total; the missing list is computed against the
// current inventory.
func ReportFor(ctx context.Context, repo Repository, id string, loc *time.Location, now time.Time) (Report, error) {
	session, err := repo.GetAudit(ctx, id)
	if err != nil {
		return Report{}, persistErr("loading audit", err)
	}
	if session == nil {
		return Report{}, &NotFoundError{Kind: "audit", Token: id}
	}
	items, err := repo.ListAuditItems(ctx, id)
	if err != nil {
		return Report{}, persistErr("loading counted items", err)
	}
	inventory, err := repo.ListChromebooks(ctx)
	if err != nil {
		return Report{}, persistErr("loading inventory", err)
	}

	expected := len(inventory)
	if session.TotalExpected != nil {
		expected = *session.TotalExpected
	}
	return Compile(session, Reconcile(inventory, items, loc), expected, now), nil
}
