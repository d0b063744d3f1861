package services

import (
	"context"
	"sync"
	"time"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/logger"
)

// EmbeddingInferencer polls the shared embedding-queue status endpoint
// and infers when background embedding has finished. Two signals drive
// the embedding -> synced transition:
//
//  1. Per-source queue counts reaching the terminal shape (nothing
//     pending, at least one job completed or failed).
//  2. A run of consecutive entirely-empty responses while sources are
//     still embedding, which covers a queue that keeps no residual
//     bookkeeping for an idle provider. The run length is tunable
//     (default 4).
//
// The loop starts lazily and stops itself when no source is embedding.
type EmbeddingInferencer struct {
	registry *Registry
	api      driven.SyncAPI
	clock    driven.Clock

	mu          sync.Mutex
	interval    time.Duration
	emptyLimit  int
	emptyStreak int
	running     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewEmbeddingInferencer creates an inferencer with the given poll
// interval and consecutive-empty limit.
func NewEmbeddingInferencer(registry *Registry, api driven.SyncAPI, clock driven.Clock, interval time.Duration, emptyLimit int) *EmbeddingInferencer {
	return &EmbeddingInferencer{
		registry:   registry,
		api:        api,
		clock:      clock,
		interval:   interval,
		emptyLimit: emptyLimit,
	}
}

// SetTiming adjusts the poll interval and empty-poll limit (config
// hot-reload). A new interval applies from the next loop start.
func (e *EmbeddingInferencer) SetTiming(interval time.Duration, emptyLimit int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if interval > 0 {
		e.interval = interval
	}
	if emptyLimit > 0 {
		e.emptyLimit = emptyLimit
	}
}

// Poke starts the poll loop if any source is embedding and the loop is
// not already running. Call after every registry change.
func (e *EmbeddingInferencer) Poke(ctx context.Context) {
	if !e.registry.AnyEmbedding() {
		return
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.emptyStreak = 0
	interval := e.interval
	stopCh := e.stopCh
	e.mu.Unlock()

	logger.Debug("embedding poll loop starting (every %s)", interval)
	e.wg.Add(1)
	go e.run(ctx, interval, stopCh)
}

// Stop shuts the loop down and waits for it to exit.
func (e *EmbeddingInferencer) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.wg.Wait()
}

// run is the poll loop. It exits when no source is embedding any more.
func (e *EmbeddingInferencer) run(ctx context.Context, interval time.Duration, stopCh chan struct{}) {
	defer e.wg.Done()

	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C():
			if !e.Poll(ctx) {
				e.mu.Lock()
				e.running = false
				e.mu.Unlock()
				logger.Debug("embedding poll loop stopping, nothing embedding")
				return
			}
		}
	}
}

// Poll runs one poll cycle. Returns false when no source is embedding
// (the loop should stop). Exported so tests can drive the cycle with a
// virtual clock.
func (e *EmbeddingInferencer) Poll(ctx context.Context) bool {
	embedding := e.embeddingSources()
	if len(embedding) == 0 {
		e.mu.Lock()
		e.emptyStreak = 0
		e.mu.Unlock()
		return false
	}

	counts, err := e.api.EmbeddingStatus(ctx)
	if err != nil {
		// Transport failure: keep the streak, try again next tick.
		logger.Warn("embedding status poll failed: %v", err)
		return true
	}

	if len(counts) == 0 {
		e.mu.Lock()
		e.emptyStreak++
		streak := e.emptyStreak
		limit := e.emptyLimit
		e.mu.Unlock()

		logger.Debug("embedding queue empty (%d/%d)", streak, limit)
		if streak >= limit {
			// The queue has reported nothing at all long enough:
			// consider every embedding source done.
			for _, src := range embedding {
				e.complete(ctx, src)
			}
			e.mu.Lock()
			e.emptyStreak = 0
			e.mu.Unlock()
		}
		return true
	}

	e.mu.Lock()
	e.emptyStreak = 0
	e.mu.Unlock()

	for _, src := range embedding {
		c, ok := counts[src.Name]
		if !ok {
			continue
		}
		snapshot := c

		// Persist the queue depth whether or not completion was
		// inferred, so it survives a client restart.
		results := domain.SyncResults{EmbeddingStatus: &snapshot}
		if _, err := e.registry.MergeResults(src.Key(), results); err != nil {
			logger.Warn("record embedding status for %s: %v", src.Key(), err)
		}
		if err := e.api.SetSyncStatus(ctx, src.ID, src.SyncStatus, &results); err != nil {
			logger.Warn("persist embedding status for %s: %v", src.Key(), err)
		}

		if snapshot.Done() {
			e.complete(ctx, src)
		}
	}
	return true
}

// complete transitions one source out of embedding and persists the
// inferred status, best effort.
func (e *EmbeddingInferencer) complete(ctx context.Context, src domain.DataSource) {
	updated, err := e.registry.ApplyEvent(src.Key(), domain.EventSyncCompleted)
	if err != nil {
		logger.Warn("complete embedding for %s: %v", src.Key(), err)
		return
	}
	logger.Info("embedding finished for %s", src.Key())

	if err := e.api.SetSyncStatus(ctx, updated.ID, domain.StatusSynced, nil); err != nil {
		// The in-memory transition stands regardless.
		logger.Warn("persist synced for %s failed: %v", src.Key(), err)
	}
}

// embeddingSources returns copies of all sources currently embedding.
func (e *EmbeddingInferencer) embeddingSources() []domain.DataSource {
	var out []domain.DataSource
	for _, src := range e.registry.List() {
		if src.SyncStatus == domain.StatusEmbedding {
			out = append(out, src)
		}
	}
	return out
}
