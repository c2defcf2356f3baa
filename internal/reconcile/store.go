// Package reconcile owns the device-side route collection. It keeps the
// collection consistent with the remote route service when that service is
// reachable, falls back to local mutations when it is not, and writes every
// change through to the persistent cache.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/fitroute/internal/domain"
	"github.com/pkordes/fitroute/internal/observability"
)

// RemoteService is the subset of the route service the store depends on.
// Any error is treated as the service being unreachable.
type RemoteService interface {
	List(ctx context.Context) ([]domain.Route, error)
	Create(ctx context.Context, p domain.RoutePayload) (domain.Route, error)
	Update(ctx context.Context, id string, p domain.RoutePayload) (domain.Route, error)
	Delete(ctx context.Context, id string) error
}

// RouteCache persists the whole collection.
type RouteCache interface {
	Load(ctx context.Context) ([]domain.Route, error)
	Save(ctx context.Context, routes []domain.Route) error
}

// Outcome describes how a mutation was applied.
type Outcome struct {
	Route  domain.Route
	Local  bool
	Status Status
}

// Snapshot is a point-in-time copy of the store state. It shares no memory
// with the store.
type Snapshot struct {
	Routes  []domain.Route
	Status  Status
	Loading bool
	Form    Form
}

// Selected returns the route the form is editing, if any.
func (s Snapshot) Selected() (domain.Route, bool) {
	if s.Form.SelectedID == "" {
		return domain.Route{}, false
	}
	for _, r := range s.Routes {
		if r.ID == s.Form.SelectedID {
			return r, true
		}
	}
	return domain.Route{}, false
}

// MapPoints returns the points to draw: the selected route's points while
// editing, the draft's points otherwise.
func (s Snapshot) MapPoints() []domain.RoutePoint {
	if r, ok := s.Selected(); ok {
		return r.Points
	}
	return s.Form.Points
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for local ids and createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithObserver registers fn to receive a snapshot after every state change.
// fn is called without any store lock held.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Store) { s.observer = fn }
}

// Store is the application state: the route collection, the last status
// message, the loading flag and the draft form.
//
// Operations are serialized by opMu so each one, fallback branch included,
// completes before the next starts. mu guards the state itself so Snapshot
// stays readable while a network call is in flight.
type Store struct {
	remote   RemoteService
	cache    RouteCache
	logger   *slog.Logger
	now      func() time.Time
	observer func(Snapshot)

	opMu sync.Mutex

	mu      sync.RWMutex
	routes  []domain.Route
	status  Status
	loading bool
	form    Form
	seq     uint64

	writeMu sync.Mutex
	written uint64
	pending sync.WaitGroup
}

// NewStore returns an empty Store. Call Load to populate it.
func NewStore(remote RemoteService, cache RouteCache, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		remote: remote,
		cache:  cache,
		logger: logger.With("component", "reconcile"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Routes:  cloneRoutes(s.routes),
		Status:  s.status,
		Loading: s.loading,
		Form:    s.form.clone(),
	}
}

// Wait blocks until every pending cache write has finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

// Load populates the collection. The cache is published first so the caller
// has something to show, then the remote list is merged over it. A failing
// cache counts as empty; a failing remote leaves the cached collection in
// place with an offline status.
func (s *Store) Load(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	// Flush earlier writes so the cache reflects every committed mutation.
	s.pending.Wait()

	cached, err := s.cache.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "route cache unreadable, treating as empty", "error", err)
		cached = nil
	}

	s.apply(ctx, func() bool {
		if len(cached) > 0 {
			s.routes = cloneRoutes(cached)
			s.status = StatusLoadedFromCache
		}
		s.loading = true
		return false
	})

	remote, err := s.remote.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "remote list failed, using cached routes",
			"error", err, "cached_count", len(cached))
		observability.RecordReconcile("load", observability.PathLocal)
		s.apply(ctx, func() bool {
			if len(cached) > 0 {
				s.status = StatusOffline
			} else {
				s.status = StatusUnavailable
			}
			s.loading = false
			return false
		})
		return
	}

	merged := Merge(cached, remote)
	observability.RecordReconcile("load", observability.PathRemote)
	s.logger.InfoContext(ctx, "routes loaded",
		"cached_count", len(cached), "remote_count", len(remote), "merged_count", len(merged))
	s.apply(ctx, func() bool {
		s.routes = merged
		s.status = StatusNone
		s.loading = false
		return true
	})
}

// Create adds a route. An invalid payload is rejected before any I/O with an
// error wrapping domain.ErrValidation. When the service cannot be reached,
// or answers without an id, the route is created locally under a local id
// and flagged unsynced.
func (s *Store) Create(ctx context.Context, p domain.RoutePayload) (Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.create(ctx, p)
}

func (s *Store) create(ctx context.Context, p domain.RoutePayload) (Outcome, error) {
	p = p.Normalize()
	if status, err := s.validate(ctx, p); err != nil {
		return Outcome{Status: status}, fmt.Errorf("reconcile.Store.Create: %w", err)
	}

	out := Outcome{Status: StatusCreated}
	route, err := s.remote.Create(ctx, p)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "remote create failed, creating locally", "error", err)
		out.Local = true
	case route.ID == "":
		s.logger.WarnContext(ctx, "remote create returned no id, creating locally")
		out.Local = true
	}

	now := s.now()
	if out.Local {
		route = domain.Route{
			ID:        domain.NewLocalID(now),
			Name:      p.Name,
			Points:    p.Points,
			PhotoURI:  p.PhotoURI,
			CreatedAt: now,
			Unsynced:  true,
		}
		out.Status = StatusCreatedLocally
	} else {
		route.Unsynced = false
		if route.CreatedAt.IsZero() {
			route.CreatedAt = now
		}
	}
	out.Route = route.Clone()

	s.apply(ctx, func() bool {
		s.routes = append([]domain.Route{route}, s.routes...)
		s.status = out.Status
		s.form = Form{}
		return true
	})
	observability.RecordReconcile("create", pathLabel(out.Local))
	return out, nil
}

// Update replaces name, points and photo of route id. createdAt never
// changes. An unknown id yields domain.ErrNotFound and an invalid payload
// domain.ErrValidation; neither touches the collection. When the service
// cannot be reached the change is applied locally and flagged unsynced.
func (s *Store) Update(ctx context.Context, id string, p domain.RoutePayload) (Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.update(ctx, id, p)
}

func (s *Store) update(ctx context.Context, id string, p domain.RoutePayload) (Outcome, error) {
	original, ok := s.find(id)
	if !ok {
		return Outcome{}, fmt.Errorf("reconcile.Store.Update: route %q: %w", id, domain.ErrNotFound)
	}
	p = p.Normalize()
	if status, err := s.validate(ctx, p); err != nil {
		return Outcome{Status: status}, fmt.Errorf("reconcile.Store.Update: %w", err)
	}

	out := Outcome{Status: StatusUpdated}
	applyLocally := func(unsynced bool) domain.Route {
		r := original.Clone()
		r.Name = p.Name
		r.Points = p.Points
		r.PhotoURI = p.PhotoURI
		r.Unsynced = unsynced
		return r
	}

	var updated domain.Route
	remote, err := s.remote.Update(ctx, id, p)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "remote update failed, updating locally", "route_id", id, "error", err)
		updated = applyLocally(true)
		out.Local = true
		out.Status = StatusUpdatedLocally
	case remote.ID == "":
		updated = applyLocally(false)
	default:
		updated = remote
		updated.ID = id
		updated.CreatedAt = original.CreatedAt
		updated.Unsynced = false
	}
	out.Route = updated.Clone()

	s.apply(ctx, func() bool {
		for i := range s.routes {
			if s.routes[i].ID == id {
				s.routes[i] = updated
				break
			}
		}
		s.status = out.Status
		s.form = Form{}
		return true
	})
	observability.RecordReconcile("update", pathLabel(out.Local))
	return out, nil
}

// Delete removes route id. The route is removed locally whether or not the
// service could be reached; a 404 from the service counts as success.
// Deleting an unknown id leaves the collection unchanged.
func (s *Store) Delete(ctx context.Context, id string) Outcome {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	out := Outcome{Status: StatusDeleted}
	if err := s.remote.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "remote delete failed, deleting locally", "route_id", id, "error", err)
		out.Local = true
		out.Status = StatusDeletedLocally
	}

	s.apply(ctx, func() bool {
		kept := make([]domain.Route, 0, len(s.routes))
		for _, r := range s.routes {
			if r.ID == id {
				out.Route = r.Clone()
				continue
			}
			kept = append(kept, r)
		}
		changed := len(kept) != len(s.routes)
		s.routes = kept
		if s.form.SelectedID == id {
			s.form = Form{}
		}
		s.status = out.Status
		return changed
	})
	observability.RecordReconcile("delete", pathLabel(out.Local))
	return out
}

// apply runs fn under the state lock. When fn reports that the collection
// changed, a cache write is scheduled. The observer sees the new state.
func (s *Store) apply(ctx context.Context, fn func() (collectionChanged bool)) {
	s.mu.Lock()
	changed := fn()
	snap := s.snapshotLocked()
	var seq uint64
	if changed {
		s.seq++
		seq = s.seq
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx, seq, snap.Routes)
	}
	if s.observer != nil {
		s.observer(snap)
	}
}

// persist writes routes to the cache in the background, detached from the
// caller's cancellation. Writes carry a sequence number and a write older
// than the last one stored is dropped.
func (s *Store) persist(ctx context.Context, seq uint64, routes []domain.Route) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		if seq <= s.written {
			return
		}

		if err := s.cache.Save(ctx, routes); err != nil {
			observability.RecordCacheWriteFailure()
			s.logger.WarnContext(ctx, "route cache write failed", "error", err, "seq", seq, "route_count", len(routes))
			return
		}
		s.written = seq
	}()
}

// validate sets the matching status message when p is invalid.
func (s *Store) validate(ctx context.Context, p domain.RoutePayload) (Status, error) {
	err := domain.ValidatePayload(p)
	if err == nil {
		return StatusNone, nil
	}
	status := StatusPointsRequired
	if p.Name == "" {
		status = StatusNameRequired
	}
	s.apply(ctx, func() bool {
		s.status = status
		return false
	})
	return status, err
}

func (s *Store) find(id string) (domain.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.routes {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return domain.Route{}, false
}

func pathLabel(local bool) string {
	if local {
		return observability.PathLocal
	}
	return observability.PathRemote
}

func cloneRoutes(routes []domain.Route) []domain.Route {
	if routes == nil {
		return nil
	}
	out := make([]domain.Route, len(routes))
	for i, r := range routes {
		out[i] = r.Clone()
	}
	return out
}
