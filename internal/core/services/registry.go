package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/logger"
)

// Registry is the single shared mutable resource: the set of configured
// data sources and their current state. All mutations go through its
// methods under one mutex; status changes go through the domain
// transition function.
type Registry struct {
	api   driven.SyncAPI
	store driven.SnapshotStore
	clock driven.Clock

	mu      sync.RWMutex
	sources map[domain.ActionKey]*domain.DataSource
}

// NewRegistry creates a registry. The snapshot store is optional; when
// nil, state lives only in memory and is rebuilt from the backend.
func NewRegistry(api driven.SyncAPI, store driven.SnapshotStore, clock driven.Clock) *Registry {
	return &Registry{
		api:     api,
		store:   store,
		clock:   clock,
		sources: make(map[domain.ActionKey]*domain.DataSource),
	}
}

// LoadCache seeds the registry from the local snapshot store, so the
// last known progress and embedding queue depths are visible before
// the first backend refresh completes.
func (r *Registry) LoadCache(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	cached, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot cache: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range cached {
		src := cached[i]
		if _, exists := r.sources[src.Key()]; !exists {
			r.sources[src.Key()] = &src
		}
	}
	return nil
}

// Refresh reloads the registry from the backend. The backend is the
// source of truth, with one exception: a locally-inferred incomplete
// that has not reached the backend yet is kept, since a stale "syncing
// forever" readout is strictly worse than a degraded persistence path.
func (r *Registry) Refresh(ctx context.Context) error {
	remote, err := r.api.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range remote {
		incoming := remote[i]
		key := incoming.Key()
		existing, ok := r.sources[key]
		if !ok {
			src := incoming
			r.sources[key] = &src
			r.persistLocked(&src)
			continue
		}

		if existing.TimeoutAcknowledged && existing.SyncStatus == domain.StatusIncomplete &&
			incoming.SyncStatus == domain.StatusSyncing {
			// Keep the liveness detector's judgment; merge the rest.
			status := existing.SyncStatus
			ack := existing.TimeoutAcknowledged
			results := existing.SyncResults
			results.Merge(incoming.SyncResults)
			*existing = incoming
			existing.SyncStatus = status
			existing.TimeoutAcknowledged = ack
			existing.SyncResults = results
		} else {
			results := existing.SyncResults
			results.Merge(incoming.SyncResults)
			*existing = incoming
			existing.SyncResults = results
		}
		r.persistLocked(existing)
	}
	return nil
}

// List returns copies of all sources, ordered by action then layer.
func (r *Registry) List() []domain.DataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.DataSource, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, *src)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].Layer < out[j].Layer
	})
	return out
}

// Get returns a copy of one source by key.
func (r *Registry) Get(key domain.ActionKey) (*domain.DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[key]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", key, domain.ErrNotFound)
	}
	cp := *src
	return &cp, nil
}

// Add inserts a source returned by the backend's create call.
func (r *Registry) Add(source domain.DataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := source
	if src.SyncStatus == "" {
		src.SyncStatus = domain.StatusUnsynced
	}
	r.sources[src.Key()] = &src
	r.persistLocked(&src)
}

// ApplyEvent runs a state machine event against a source and applies
// the edge's side effects. Illegal events leave the source untouched
// and return domain.ErrIllegalTransition.
func (r *Registry) ApplyEvent(key domain.ActionKey, event domain.Event) (*domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[key]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", key, domain.ErrNotFound)
	}

	next, err := domain.Transition(src.SyncStatus, event)
	if err != nil {
		return nil, fmt.Errorf("apply %s to %s (%s): %w", event, key, src.SyncStatus, err)
	}
	if next != src.SyncStatus {
		r.setStatusLocked(src, next)
		r.persistLocked(src)
	}
	cp := *src
	return &cp, nil
}

// AcknowledgeTimeout marks that the liveness detector has demoted this
// source's current sync, then applies the timeout edge. Returns false
// without side effects when the source was already acknowledged - the
// caller must not issue another persistence call for it.
func (r *Registry) AcknowledgeTimeout(key domain.ActionKey) (*domain.DataSource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[key]
	if !ok || src.SyncStatus != domain.StatusSyncing || src.TimeoutAcknowledged {
		return nil, false
	}

	src.TimeoutAcknowledged = true
	r.setStatusLocked(src, domain.StatusIncomplete)
	r.persistLocked(src)
	cp := *src
	return &cp, true
}

// ApplyStatusEvent applies a pushed status/result update. Results merge
// into the existing record. The status goes through the transition
// function; a pushed status that does not map onto a legal edge is
// adopted anyway with a warning, because the backend is authoritative
// for its own job lifecycle.
func (r *Registry) ApplyStatusEvent(ev domain.StatusEvent) (*domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[ev.Key]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", ev.Key, domain.ErrNotFound)
	}

	src.SyncResults.Merge(ev.Results)

	if ev.Status != "" && ev.Status != src.SyncStatus {
		if event, ok := statusEvents[ev.Status]; ok {
			if _, err := domain.Transition(src.SyncStatus, event); err != nil {
				logger.Warn("push moved %s from %s to %s outside the edge set", ev.Key, src.SyncStatus, ev.Status)
			}
		}
		r.setStatusLocked(src, ev.Status)
	}
	r.persistLocked(src)
	cp := *src
	return &cp, nil
}

// UpdateProgressCache refreshes the denormalised progress columns used
// when no live progress stream is active.
func (r *Registry) UpdateProgressCache(key domain.ActionKey, snap domain.ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[key]
	if !ok {
		return
	}
	src.FilesProcessed = snap.FilesProcessed
	src.FilesTotal = snap.FilesTotal
	src.MBProcessed = snap.MBProcessed
	src.MBTotal = snap.MBTotal
	if snap.SyncStartTime != 0 {
		src.SyncStartTime = snap.SyncStartTime
	}
	r.persistLocked(src)
}

// MergeResults merges a partial results update into a source.
func (r *Registry) MergeResults(key domain.ActionKey, results domain.SyncResults) (*domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[key]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", key, domain.ErrNotFound)
	}
	src.SyncResults.Merge(results)
	r.persistLocked(src)
	cp := *src
	return &cp, nil
}

// AnySyncing reports whether any source is currently syncing.
func (r *Registry) AnySyncing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, src := range r.sources {
		if src.SyncStatus == domain.StatusSyncing {
			return true
		}
	}
	return false
}

// AnyEmbedding reports whether any source is in the embedding phase.
func (r *Registry) AnyEmbedding() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, src := range r.sources {
		if src.SyncStatus == domain.StatusEmbedding {
			return true
		}
	}
	return false
}

// statusEvents maps a pushed status to the state machine event that
// drives towards it.
var statusEvents = map[domain.SyncStatus]domain.Event{
	domain.StatusSyncing:    domain.EventSyncStarted,
	domain.StatusEmbedding:  domain.EventEmbeddingStarted,
	domain.StatusSynced:     domain.EventSyncCompleted,
	domain.StatusError:      domain.EventSyncFailed,
	domain.StatusIncomplete: domain.EventTimedOut,
	domain.StatusDeleting:   domain.EventDeleteStarted,
	domain.StatusDeleted:    domain.EventDeleteCompleted,
}

// setStatusLocked applies a status change and its side effects.
// Callers hold r.mu.
func (r *Registry) setStatusLocked(src *domain.DataSource, next domain.SyncStatus) {
	prev := src.SyncStatus
	src.SyncStatus = next

	now := r.clock.Now().Unix()
	switch {
	case next == domain.StatusSyncing && prev != domain.StatusSyncing:
		// A fresh sync: eligible for timeout marking again.
		src.TimeoutAcknowledged = false
		if src.SyncStartTime == 0 || !prev.InFlight() {
			src.SyncStartTime = now
		}
	case !next.InFlight():
		// sync_start_time is meaningless outside {syncing, embedding}.
		src.SyncStartTime = 0
	}
	if next == domain.StatusSynced && prev.InFlight() {
		src.LastSync = now
	}
}

// persistLocked writes the snapshot cache, best effort. Callers hold r.mu.
func (r *Registry) persistLocked(src *domain.DataSource) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(context.Background(), *src); err != nil {
		logger.Warn("snapshot save failed for %s: %v", src.Key(), err)
	}
}
