package services

import (
	"context"
	"sync"
	"time"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/logger"
)

// LivenessDetector watches the time since the last real-time signal
// and demotes stalled in-flight syncs to incomplete. The demotion is
// applied in memory first and persisted best effort: a stuck "syncing
// forever" readout is strictly worse than a degraded persistence path.
type LivenessDetector struct {
	registry *Registry
	api      driven.SyncAPI
	clock    driven.Clock

	mu           sync.Mutex
	interval     time.Duration
	threshold    time.Duration
	lastActivity time.Time
	running      bool
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

// NewLivenessDetector creates a detector with the given cadence and
// staleness threshold.
func NewLivenessDetector(registry *Registry, api driven.SyncAPI, clock driven.Clock, interval, threshold time.Duration) *LivenessDetector {
	return &LivenessDetector{
		registry:  registry,
		api:       api,
		clock:     clock,
		interval:  interval,
		threshold: threshold,
	}
}

// Touch records push-channel activity. Every received real-time event
// refreshes the single last-activity timestamp.
func (d *LivenessDetector) Touch() {
	d.mu.Lock()
	d.lastActivity = d.clock.Now()
	d.mu.Unlock()
}

// SetTiming adjusts the cadence and threshold (config hot-reload). The
// new interval applies from the next loop start.
func (d *LivenessDetector) SetTiming(interval, threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if interval > 0 {
		d.interval = interval
	}
	if threshold > 0 {
		d.threshold = threshold
	}
}

// Start begins the check loop. Idempotent while running.
func (d *LivenessDetector) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.lastActivity = d.clock.Now()
	interval := d.interval
	stopCh := d.stopCh
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx, interval, stopCh)
}

// Stop shuts the loop down and waits for it to exit.
func (d *LivenessDetector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
}

// run is the check loop.
func (d *LivenessDetector) run(ctx context.Context, interval time.Duration, stopCh chan struct{}) {
	defer d.wg.Done()

	ticker := d.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C():
			d.Check(ctx)
		}
	}
}

// Check runs one staleness evaluation. Exported so the orchestrator's
// tests can drive it without real timers.
func (d *LivenessDetector) Check(ctx context.Context) {
	d.mu.Lock()
	stale := d.clock.Now().Sub(d.lastActivity) > d.threshold
	d.mu.Unlock()

	if !stale {
		return
	}

	for _, src := range d.registry.List() {
		if src.SyncStatus != domain.StatusSyncing {
			continue
		}
		marked, ok := d.registry.AcknowledgeTimeout(src.Key())
		if !ok {
			// Already acknowledged: exactly one persistence call per
			// stalled sync, not one per firing.
			continue
		}
		logger.Warn("no sync activity for %s, marking %s incomplete", d.threshold, src.Key())

		if err := d.api.MarkIncomplete(ctx, marked.ID); err != nil {
			// The in-memory transition stands regardless.
			logger.Warn("persist incomplete for %s failed: %v", src.Key(), err)
		}
	}
}
