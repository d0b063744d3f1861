// Package memory provides in-memory implementations of driven port
// interfaces, used in tests and when no local cache is wanted.
package memory

import (
	"context"
	"sync"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
type SnapshotStore struct {
	mu      sync.RWMutex
	sources map[string]domain.DataSource
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		sources: make(map[string]domain.DataSource),
	}
}

// Save stores or updates a source snapshot.
func (s *SnapshotStore) Save(_ context.Context, source domain.DataSource) error {
	if source.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source.ID] = source
	return nil
}

// Get retrieves a source snapshot by ID.
func (s *SnapshotStore) Get(_ context.Context, id string) (*domain.DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// List returns all cached source snapshots.
func (s *SnapshotStore) List(_ context.Context) ([]domain.DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DataSource, 0, len(s.sources))
	for _, source := range s.sources {
		result = append(result, source)
	}
	return result, nil
}

// Delete removes a source snapshot.
func (s *SnapshotStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
	return nil
}
