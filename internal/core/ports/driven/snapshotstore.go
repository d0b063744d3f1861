package driven

import (
	"context"

	"github.com/nethopper2/datasync/internal/core/domain"
)

// SnapshotStore caches the last known registry state locally so that
// progress caches and embedding queue depths survive a client restart.
// The REST backend remains the source of truth; the cache is
// reconciled against it on refresh.
type SnapshotStore interface {
	// Save stores or updates a source snapshot.
	Save(ctx context.Context, source domain.DataSource) error

	// Get retrieves a source snapshot by ID.
	Get(ctx context.Context, id string) (*domain.DataSource, error)

	// List returns all cached source snapshots.
	List(ctx context.Context) ([]domain.DataSource, error)

	// Delete removes a source snapshot.
	Delete(ctx context.Context, id string) error
}
