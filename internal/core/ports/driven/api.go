package driven

import (
	"context"

	"github.com/nethopper2/datasync/internal/core/domain"
)

// SyncAPI is the REST surface of the sync backend. The backend owns all
// provider traffic (ingestion, embedding, token exchange); this client
// only drives and observes it.
type SyncAPI interface {
	// ListSources returns all configured data sources.
	ListSources(ctx context.Context) ([]domain.DataSource, error)

	// CreateSource registers a new data source.
	CreateSource(ctx context.Context, source domain.DataSource) (*domain.DataSource, error)

	// UpdateSource edits a source's descriptive fields.
	UpdateSource(ctx context.Context, source domain.DataSource) error

	// RemoveSource removes a source record.
	RemoveSource(ctx context.Context, id string) error

	// SetSyncStatus persists a status (and optionally merged results)
	// for a source. Used by the liveness detector and the embedding
	// inferencer to persist inferred transitions.
	SetSyncStatus(ctx context.Context, id string, status domain.SyncStatus, results *domain.SyncResults) error

	// MarkIncomplete explicitly marks a source's sync as incomplete.
	MarkIncomplete(ctx context.Context, id string) error

	// Initialize obtains an authorisation URL for a provider/layer.
	Initialize(ctx context.Context, key domain.ActionKey) (string, error)

	// TriggerSync asks the backend to start a sync. The ack is either a
	// progress-starting acknowledgement, an already-in-progress
	// message, or a reauth indicator.
	TriggerSync(ctx context.Context, key domain.ActionKey) (*domain.SyncAck, error)

	// Disconnect initiates deletion of a provider/layer's data.
	Disconnect(ctx context.Context, key domain.ActionKey) error

	// EmbeddingStatus returns embedding queue counts per source name.
	// An empty map is a valid response meaning the queue reports
	// nothing at all.
	EmbeddingStatus(ctx context.Context) (map[string]domain.EmbeddingCounts, error)
}
