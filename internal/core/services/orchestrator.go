package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/core/ports/driving"
	"github.com/nethopper2/datasync/internal/logger"
)

// SyncOrchestrator implements driving.Orchestrator. It owns the event
// pump and wires user actions through the coordinator, the registry and
// the supervision loops. All push events are dispatched from a single
// goroutine, so events for one source apply in arrival order.
type SyncOrchestrator struct {
	api    driven.SyncAPI
	stream driven.EventStream

	registry    *Registry
	coordinator *ActionCoordinator
	progress    *ProgressTracker
	liveness    *LivenessDetector
	embedding   *EmbeddingInferencer
	auth        *AuthFlowManager
	providers   *ProviderRegistry
}

var _ driving.Orchestrator = (*SyncOrchestrator)(nil)

// NewSyncOrchestrator wires the full service graph. store may be nil to
// run without a local snapshot cache; authFallback may be nil when no
// surface exists to show a blocked-window URL on.
func NewSyncOrchestrator(api driven.SyncAPI, stream driven.EventStream, browser driven.Browser, store driven.SnapshotStore, clock driven.Clock, settings domain.Settings, authFallback func(domain.ActionKey, string)) *SyncOrchestrator {
	o := &SyncOrchestrator{
		api:         api,
		stream:      stream,
		registry:    NewRegistry(api, store, clock),
		coordinator: NewActionCoordinator(),
		progress:    NewProgressTracker(clock, settings.ETAThrottle),
		providers:   NewProviderRegistry(),
	}
	o.liveness = NewLivenessDetector(o.registry, api, clock, settings.LivenessInterval, settings.LivenessThreshold)
	o.embedding = NewEmbeddingInferencer(o.registry, api, clock, settings.EmbeddingPollInterval, settings.EmptyPollLimit)
	o.auth = NewAuthFlowManager(api, browser, o.providers, clock, settings.WindowPollInterval, authFallback, o.authCompleted)
	return o
}

// Providers exposes the provider catalogue for the driving adapters.
func (o *SyncOrchestrator) Providers() driving.ProviderRegistry {
	return o.providers
}

// ApplySettings pushes changed tunables into the running loops (config
// hot-reload). Interval changes apply from each loop's next start.
func (o *SyncOrchestrator) ApplySettings(settings domain.Settings) {
	settings.Normalise()
	o.liveness.SetTiming(settings.LivenessInterval, settings.LivenessThreshold)
	o.embedding.SetTiming(settings.EmbeddingPollInterval, settings.EmptyPollLimit)
	o.auth.SetWindowPoll(settings.WindowPollInterval)
}

// Refresh reloads the registry from the backend.
func (o *SyncOrchestrator) Refresh(ctx context.Context) error {
	if err := o.registry.Refresh(ctx); err != nil {
		return err
	}
	o.embedding.Poke(ctx)
	return nil
}

// Sources returns the current registry contents.
func (o *SyncOrchestrator) Sources(ctx context.Context) ([]domain.DataSource, error) {
	return o.registry.List(), nil
}

// Source returns one source by key.
func (o *SyncOrchestrator) Source(ctx context.Context, key domain.ActionKey) (*domain.DataSource, error) {
	return o.registry.Get(key)
}

// AddSource registers a new data source with the backend and caches the
// created record.
func (o *SyncOrchestrator) AddSource(ctx context.Context, source domain.DataSource) (*domain.DataSource, error) {
	if source.Action == "" || source.Layer == "" {
		return nil, fmt.Errorf("source needs an action and a layer: %w", domain.ErrInvalidInput)
	}
	if _, _, err := o.providers.Layer(source.Key()); err != nil {
		return nil, err
	}
	if source.ID == "" {
		source.ID = uuid.NewString()
	}
	if source.SyncStatus == "" {
		source.SyncStatus = domain.StatusUnsynced
	}

	created, err := o.api.CreateSource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("create source %s: %w", source.Key(), err)
	}
	o.registry.Add(*created)
	return created, nil
}

// TriggerSync starts a sync for a source. The coordinator lock is held
// for the duration of the trigger request and released when the ack
// arrives, whatever shape it takes.
func (o *SyncOrchestrator) TriggerSync(ctx context.Context, key domain.ActionKey) error {
	lock := SyncLockKey(key)
	if !o.coordinator.TryAcquire(lock) {
		return fmt.Errorf("sync %s: %w", key, domain.ErrActionInFlight)
	}
	defer o.coordinator.Release(lock)

	if _, err := o.registry.Get(key); err != nil {
		return err
	}

	ack, err := o.api.TriggerSync(ctx, key)
	if err != nil {
		return fmt.Errorf("trigger sync for %s: %w", key, err)
	}

	switch {
	case ack.ReauthURL != "":
		// Expired provider credentials. Hand over to the reauth flow;
		// the user retries the sync once it completes.
		if err := o.auth.BeginReauth(ctx, key, ack.ReauthURL); err != nil {
			return err
		}
		return fmt.Errorf("sync %s: %w", key, domain.ErrReauthRequired)
	case ack.Message != "":
		return fmt.Errorf("sync %s: %s: %w", key, ack.Message, domain.ErrActionInFlight)
	}

	updated, err := o.registry.ApplyEvent(key, domain.EventSyncStarted)
	if err != nil {
		return err
	}
	o.progress.Seed(*updated, true)
	o.liveness.Touch()
	return nil
}

// Disconnect starts deletion of a source's synced data. Shares the sync
// lock key: deleting and syncing the same source are mutually exclusive.
func (o *SyncOrchestrator) Disconnect(ctx context.Context, key domain.ActionKey) error {
	lock := SyncLockKey(key)
	if !o.coordinator.TryAcquire(lock) {
		return fmt.Errorf("disconnect %s: %w", key, domain.ErrActionInFlight)
	}
	defer o.coordinator.Release(lock)

	if _, err := o.registry.Get(key); err != nil {
		return err
	}
	if err := o.api.Disconnect(ctx, key); err != nil {
		return fmt.Errorf("disconnect %s: %w", key, err)
	}

	if _, err := o.registry.ApplyEvent(key, domain.EventDeleteStarted); err != nil {
		return err
	}
	o.progress.Clear(key)
	return nil
}

// Authorize runs the initial authorisation flow for a source. The lock
// only covers fetching the URL and opening the window; the supervision
// of the open window happens off-lock, so closing and retrying works.
func (o *SyncOrchestrator) Authorize(ctx context.Context, key domain.ActionKey) error {
	lock := AuthLockKey(key)
	if !o.coordinator.TryAcquire(lock) {
		return fmt.Errorf("authorise %s: %w", key, domain.ErrActionInFlight)
	}
	defer o.coordinator.Release(lock)

	return o.auth.Begin(ctx, key)
}

// Progress returns the live progress view for a source.
func (o *SyncOrchestrator) Progress(ctx context.Context, key domain.ActionKey) (*driving.ProgressView, error) {
	src, err := o.registry.Get(key)
	if err != nil {
		return nil, err
	}
	return o.progress.View(*src), nil
}

// Run pumps push events and supervision loops until the context is
// cancelled or the stream closes for good.
func (o *SyncOrchestrator) Run(ctx context.Context) error {
	if err := o.registry.LoadCache(ctx); err != nil {
		logger.Warn("snapshot cache unavailable: %v", err)
	}
	if err := o.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed, continuing with cache: %v", err)
	}

	go func() {
		if err := o.stream.Run(ctx); err != nil {
			logger.Warn("event stream stopped: %v", err)
		}
	}()
	o.liveness.Start(ctx)
	o.embedding.Poke(ctx)

	defer func() {
		o.liveness.Stop()
		o.embedding.Stop()
		o.auth.Shutdown()
		if err := o.stream.Close(); err != nil {
			logger.Debug("close event stream: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-o.stream.Events():
			if !ok {
				return domain.ErrStreamClosed
			}
			o.Dispatch(ctx, ev)
		}
	}
}

// Dispatch applies one push event. Exported so tests can feed events
// without a live stream; Run is the only production caller.
func (o *SyncOrchestrator) Dispatch(ctx context.Context, ev domain.PushEvent) {
	switch ev := ev.(type) {
	case domain.ProgressEvent:
		o.liveness.Touch()
		snap := o.progress.ApplyPush(ev.Key, ev.Update)
		o.registry.UpdateProgressCache(ev.Key, snap)

	case domain.StatusEvent:
		o.liveness.Touch()
		updated, err := o.registry.ApplyStatusEvent(ev)
		if err != nil {
			// Status for a source we do not know yet: resync the
			// registry rather than dropping the event on the floor.
			logger.Debug("status event for unknown source %s, refreshing", ev.Key)
			if err := o.registry.Refresh(ctx); err != nil {
				logger.Warn("refresh after unknown status event: %v", err)
			}
			return
		}
		if updated.SyncStatus.InFlight() {
			o.progress.Seed(*updated, false)
		} else {
			o.progress.Clear(ev.Key)
		}
		o.embedding.Poke(ctx)

	case domain.AuthEvent:
		o.auth.Complete(ev.Key)

	default:
		logger.Debug("unhandled push event for %s", ev.EventKey())
	}
}

// authCompleted runs after the backend confirms an authorisation. The
// fresh source record (and any immediately-started sync) comes from the
// backend on refresh.
func (o *SyncOrchestrator) authCompleted(key domain.ActionKey) {
	if err := o.registry.Refresh(context.Background()); err != nil {
		logger.Warn("refresh after authorisation of %s: %v", key, err)
	}
}
