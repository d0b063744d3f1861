package services

import (
	"sync"
	"time"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/core/ports/driving"
)

// ProgressTracker maintains the latest progress snapshot per source,
// merging the push channel (authoritative, per field) with polled or
// cached fallback values. ETA recompute is throttled so the estimate
// does not jitter with every 1-second elapsed tick.
type ProgressTracker struct {
	clock    driven.Clock
	throttle time.Duration

	mu      sync.Mutex
	entries map[domain.ActionKey]*progressEntry
}

// progressEntry is one source's tracked progress plus merge bookkeeping.
type progressEntry struct {
	snap domain.ProgressSnapshot

	// seen records which fields the push channel has set for the
	// current sync. Poll/cached values never overwrite a seen field:
	// merge is last-writer-wins per field, and push wins.
	seen fieldSet

	etaValue      time.Duration
	etaOK         bool
	etaComputedAt time.Time
}

type fieldSet struct {
	filesProcessed, filesTotal   bool
	mbProcessed, mbTotal         bool
	foldersFound, filesFound     bool
	totalSize                    bool
	phase, phaseName, phaseDescr bool
}

// NewProgressTracker creates a tracker. throttle bounds how often the
// ETA is recomputed.
func NewProgressTracker(clock driven.Clock, throttle time.Duration) *ProgressTracker {
	return &ProgressTracker{
		clock:    clock,
		throttle: throttle,
		entries:  make(map[domain.ActionKey]*progressEntry),
	}
}

// Seed begins observation of a source's sync. For a freshly-started
// sync the start time defaults to now, never to a stale historical
// value; for resumed observation of an already-running sync the
// persisted start time is kept. Cached progress columns fill any field
// the push channel has not delivered yet (the cold-start fallback).
func (t *ProgressTracker) Seed(source domain.DataSource, freshlyStarted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[source.Key()]
	if !ok {
		entry = &progressEntry{}
		t.entries[source.Key()] = entry
	}
	if freshlyStarted {
		entry.snap = domain.ProgressSnapshot{SyncStartTime: t.clock.Now().Unix()}
		entry.seen = fieldSet{}
		entry.etaOK = false
		entry.etaComputedAt = time.Time{}
		return
	}
	if entry.snap.SyncStartTime == 0 {
		entry.snap.SyncStartTime = source.SyncStartTime
	}
	t.fillFromCacheLocked(entry, source)
}

// ApplyPush overlays a push update onto a source's snapshot. Fields
// present in the event win over any later poll value.
func (t *ProgressTracker) ApplyPush(key domain.ActionKey, update domain.ProgressUpdate) domain.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		entry = &progressEntry{snap: domain.ProgressSnapshot{SyncStartTime: t.clock.Now().Unix()}}
		t.entries[key] = entry
	}
	entry.snap.Apply(update)
	entry.seen.mark(update)
	return entry.snap
}

// ApplyPoll fills snapshot fields from a polled/cached source record.
// Only fields no push event has set are touched, so a stale poll can
// never regress state established by a more recent push.
func (t *ProgressTracker) ApplyPoll(source domain.DataSource) domain.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[source.Key()]
	if !ok {
		entry = &progressEntry{snap: domain.ProgressSnapshot{SyncStartTime: source.SyncStartTime}}
		t.entries[source.Key()] = entry
	}
	t.fillFromCacheLocked(entry, source)
	return entry.snap
}

// Snapshot returns the current merged snapshot for a key.
func (t *ProgressTracker) Snapshot(key domain.ActionKey) (domain.ProgressSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return domain.ProgressSnapshot{}, false
	}
	return entry.snap, true
}

// Clear drops tracking state for a source that left the in-flight
// states.
func (t *ProgressTracker) Clear(key domain.ActionKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// View renders the read-only projection for a source: merged snapshot,
// elapsed clock, and throttled ETA.
func (t *ProgressTracker) View(source domain.DataSource) *driving.ProgressView {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[source.Key()]
	if !ok {
		entry = &progressEntry{snap: domain.ProgressSnapshot{SyncStartTime: source.SyncStartTime}}
		t.fillFromCacheLocked(entry, source)
		t.entries[source.Key()] = entry
	}

	now := t.clock.Now()
	var elapsed time.Duration
	if entry.snap.SyncStartTime > 0 {
		elapsed = now.Sub(time.Unix(entry.snap.SyncStartTime, 0))
		if elapsed < 0 {
			elapsed = 0
		}
	}

	// Recompute the ETA at most once per throttle window; in between,
	// serve the cached estimate.
	if entry.etaComputedAt.IsZero() || now.Sub(entry.etaComputedAt) >= t.throttle {
		entry.etaValue, entry.etaOK = domain.ETA(elapsed, entry.snap.FilesProcessed, entry.snap.FilesTotal)
		entry.etaComputedAt = now
	}

	eta := domain.ETAPlaceholder
	if entry.etaOK {
		eta = domain.FormatClock(entry.etaValue)
	}

	return &driving.ProgressView{
		Key:      source.Key(),
		Status:   source.SyncStatus,
		Snapshot: entry.snap,
		Elapsed:  domain.FormatClock(elapsed),
		ETA:      eta,
		Fraction: entry.snap.Fraction(),
	}
}

// fillFromCacheLocked copies a source's cached progress columns into
// any field the push channel has not claimed. Callers hold t.mu.
func (t *ProgressTracker) fillFromCacheLocked(entry *progressEntry, source domain.DataSource) {
	if !entry.seen.filesProcessed {
		entry.snap.FilesProcessed = source.FilesProcessed
	}
	if !entry.seen.filesTotal {
		entry.snap.FilesTotal = source.FilesTotal
	}
	if !entry.seen.mbProcessed {
		entry.snap.MBProcessed = source.MBProcessed
	}
	if !entry.seen.mbTotal {
		entry.snap.MBTotal = source.MBTotal
	}
}

// mark records which fields an update carried.
func (f *fieldSet) mark(u domain.ProgressUpdate) {
	if u.FilesProcessed != nil {
		f.filesProcessed = true
	}
	if u.FilesTotal != nil {
		f.filesTotal = true
	}
	if u.MBProcessed != nil {
		f.mbProcessed = true
	}
	if u.MBTotal != nil {
		f.mbTotal = true
	}
	if u.FoldersFound != nil {
		f.foldersFound = true
	}
	if u.FilesFound != nil {
		f.filesFound = true
	}
	if u.TotalSize != nil {
		f.totalSize = true
	}
	if u.Phase != nil {
		f.phase = true
	}
	if u.PhaseName != nil {
		f.phaseName = true
	}
	if u.PhaseDescription != nil {
		f.phaseDescr = true
	}
}
