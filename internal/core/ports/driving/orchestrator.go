package driving

import (
	"context"

	"github.com/nethopper2/datasync/internal/core/domain"
)

// Orchestrator drives the data-source sync lifecycle: user actions in,
// observed state out. All state flows through the registry; no caller
// mutates a source directly.
type Orchestrator interface {
	// Refresh reloads the registry from the backend.
	Refresh(ctx context.Context) error

	// Sources returns the current registry contents.
	Sources(ctx context.Context) ([]domain.DataSource, error)

	// Source returns one source by action/layer key.
	Source(ctx context.Context, key domain.ActionKey) (*domain.DataSource, error)

	// AddSource registers a new data source with the backend.
	AddSource(ctx context.Context, source domain.DataSource) (*domain.DataSource, error)

	// TriggerSync starts a sync for a source. Returns
	// domain.ErrActionInFlight when an action for the key is already
	// running, and domain.ErrReauthRequired (after starting the reauth
	// flow) when the backend demands re-authorisation.
	TriggerSync(ctx context.Context, key domain.ActionKey) error

	// Disconnect starts deletion of a source's synced data.
	Disconnect(ctx context.Context, key domain.ActionKey) error

	// Authorize runs the initial authorisation flow for a source:
	// fetch URL, open window, then complete asynchronously.
	Authorize(ctx context.Context, key domain.ActionKey) error

	// Progress returns the live progress view for a source.
	Progress(ctx context.Context, key domain.ActionKey) (*ProgressView, error)

	// Run pumps push events and supervision loops until the context is
	// cancelled. All timers are torn down on return.
	Run(ctx context.Context) error
}

// ProgressView is the read-only projection consumed by progress bars
// and summaries. It has no state of its own.
type ProgressView struct {
	// Key identifies the source.
	Key domain.ActionKey

	// Status is the source's current lifecycle state.
	Status domain.SyncStatus

	// Snapshot is the merged progress snapshot.
	Snapshot domain.ProgressSnapshot

	// Elapsed is the rendered time since the sync started.
	Elapsed string

	// ETA is the rendered estimate, or the placeholder when undefined.
	ETA string

	// Fraction is overall completion in [0, 1].
	Fraction float64
}

// ProviderRegistry exposes the configured providers and their layers.
type ProviderRegistry interface {
	// Providers returns all known providers.
	Providers() []domain.ProviderInfo

	// Provider returns one provider by key.
	Provider(key string) (*domain.ProviderInfo, error)

	// Layer resolves an action/layer key to its provider and layer.
	Layer(key domain.ActionKey) (*domain.ProviderInfo, *domain.Layer, error)
}
