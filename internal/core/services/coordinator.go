package services

import (
	"sync"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/logger"
)

// ActionCoordinator serialises user-triggered actions per lock key.
// At most one action runs per key; a second request while one is
// pending is rejected, not queued. Flows for different keys are fully
// independent.
type ActionCoordinator struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewActionCoordinator creates an empty coordinator.
func NewActionCoordinator() *ActionCoordinator {
	return &ActionCoordinator{
		inFlight: make(map[string]struct{}),
	}
}

// TryAcquire claims the lock for a key. Returns false if an action for
// the key is already in flight.
func (c *ActionCoordinator) TryAcquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[key]; busy {
		logger.Debug("action rejected, %s already in flight", key)
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

// Release frees the lock for a key. Releasing an unheld key is a no-op.
func (c *ActionCoordinator) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
}

// Held reports whether an action is currently in flight for the key.
func (c *ActionCoordinator) Held(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[key]
	return busy
}

// SyncLockKey is the coordinator key for sync/delete actions on a source.
func SyncLockKey(key domain.ActionKey) string {
	return key.String()
}

// AuthLockKey is the coordinator key for initial-authorisation actions.
// Distinct from the sync key: an open authorisation window must not
// block a sync for the same source, and vice versa.
func AuthLockKey(key domain.ActionKey) string {
	return "auth:" + key.String()
}
