package api

import (
	"context"
	"errors"
	"sync"

	"github.com/erazemk/popis/internal/audit"
)

// engineRegistry holds the open audit engine of each user. Engines are
// created on first use and dropped once disposed.
//
// Loading an engine talks to the repository, so it runs under the user's
// own lock and not under mu. Loads for different users proceed in parallel;
// loads for one user are serialized so they never produce two engines.
type engineRegistry struct {
	repo audit.Repository
	opts audit.Options

	mu      sync.Mutex
	engines map[int64]*audit.Engine
	loading map[int64]*sync.Mutex
}

func newEngineRegistry(repo audit.Repository, opts audit.Options) *engineRegistry {
	return &engineRegistry{
		repo:    repo,
		opts:    opts,
		engines: make(map[int64]*audit.Engine),
		loading: make(map[int64]*sync.Mutex),
	}
}

// active returns the engine of the user's in-progress audit, loading it if
// needed. It returns audit.ErrNoActiveAudit if there is none.
func (reg *engineRegistry) active(ctx context.Context, userID int64) (*audit.Engine, error) {
	if e := reg.cached(userID); e != nil {
		return e, nil
	}

	l := reg.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return reg.load(ctx, userID)
}

// start returns the user's in-progress audit, starting one named name if
// there is none. resumed reports whether an existing audit was returned.
func (reg *engineRegistry) start(ctx context.Context, name string, userID int64) (e *audit.Engine, resumed bool, err error) {
	l := reg.userLock(userID)
	l.Lock()
	defer l.Unlock()

	e, err = reg.load(ctx, userID)
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, audit.ErrNoActiveAudit) {
		return nil, false, err
	}

	e, err = audit.Start(ctx, reg.repo, reg.opts, name, userID)
	if err != nil {
		return nil, false, err
	}
	reg.store(userID, e)
	return e, false, nil
}

// load returns the cached open engine or resumes one. Callers hold the
// user's lock.
func (reg *engineRegistry) load(ctx context.Context, userID int64) (*audit.Engine, error) {
	if e := reg.cached(userID); e != nil {
		return e, nil
	}

	e, err := audit.Resume(ctx, reg.repo, reg.opts, userID)
	if err != nil {
		return nil, err
	}
	reg.store(userID, e)
	return e, nil
}

// cached returns the user's open engine, dropping a disposed one.
func (reg *engineRegistry) cached(userID int64) *audit.Engine {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	e, ok := reg.engines[userID]
	if !ok {
		return nil
	}
	if e.Closed() {
		delete(reg.engines, userID)
		return nil
	}
	return e
}

func (reg *engineRegistry) store(userID int64, e *audit.Engine) {
	reg.mu.Lock()
	reg.engines[userID] = e
	reg.mu.Unlock()
}

func (reg *engineRegistry) userLock(userID int64) *sync.Mutex {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	l, ok := reg.loading[userID]
	if !ok {
		l = &sync.Mutex{}
		reg.loading[userID] = l
	}
	return l
}

// lookupBySession returns the open engine running audit id, if any.
func (reg *engineRegistry) lookupBySession(id string) *audit.Engine {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, e := range reg.engines {
		if s := e.Session(); s != nil && s.ID == id {
			return e
		}
	}
	return nil
}

// evict drops disposed engines.
func (reg *engineRegistry) evict() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for userID, e := range reg.engines {
		if e.Closed() {
			delete(reg.engines, userID)
		}
	}
}
