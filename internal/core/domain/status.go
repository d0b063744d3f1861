package domain

// SyncStatus is the lifecycle state of a data source.
type SyncStatus string

// Source lifecycle states.
const (
	// StatusUnsynced means the source is configured but has never synced.
	StatusUnsynced SyncStatus = "unsynced"

	// StatusSyncing means an ingestion job is running on the backend.
	StatusSyncing SyncStatus = "syncing"

	// StatusEmbedding means ingestion finished and background embedding
	// jobs are still draining.
	StatusEmbedding SyncStatus = "embedding"

	// StatusSynced means the last sync completed fully.
	StatusSynced SyncStatus = "synced"

	// StatusError means the last sync failed.
	StatusError SyncStatus = "error"

	// StatusIncomplete means the liveness detector demoted a stalled
	// sync. Reached only via EventTimedOut, never by user request.
	StatusIncomplete SyncStatus = "incomplete"

	// StatusDeleting means a disconnect is removing the source's data.
	StatusDeleting SyncStatus = "deleting"

	// StatusDeleted is terminal for the connection, not for the record:
	// a deleted source stays in the registry and can be re-authorised.
	StatusDeleted SyncStatus = "deleted"
)

// IsValid returns true if the status is recognised.
func (s SyncStatus) IsValid() bool {
	switch s {
	case StatusUnsynced, StatusSyncing, StatusEmbedding, StatusSynced,
		StatusError, StatusIncomplete, StatusDeleting, StatusDeleted:
		return true
	default:
		return false
	}
}

// InFlight returns true while a backend job is believed to be running.
func (s SyncStatus) InFlight() bool {
	return s == StatusSyncing || s == StatusEmbedding
}

// String returns the string representation.
func (s SyncStatus) String() string {
	return string(s)
}

// Event is a stimulus applied to the sync state machine.
type Event string

// State machine events.
const (
	// EventSyncStarted begins a sync (or a re-sync, or a reconnect).
	EventSyncStarted Event = "sync_started"

	// EventEmbeddingStarted marks the hand-off from ingestion to the
	// embedding queue.
	EventEmbeddingStarted Event = "embedding_started"

	// EventSyncCompleted marks a fully successful sync.
	EventSyncCompleted Event = "sync_completed"

	// EventSyncFailed marks a failed sync.
	EventSyncFailed Event = "sync_failed"

	// EventTimedOut is raised by the liveness detector for a stalled sync.
	EventTimedOut Event = "timed_out"

	// EventDeleteStarted begins removal of the source's data.
	EventDeleteStarted Event = "delete_started"

	// EventDeleteCompleted marks removal as finished.
	EventDeleteCompleted Event = "delete_completed"
)

// target returns the status an event drives towards.
func (e Event) target() SyncStatus {
	switch e {
	case EventSyncStarted:
		return StatusSyncing
	case EventEmbeddingStarted:
		return StatusEmbedding
	case EventSyncCompleted:
		return StatusSynced
	case EventSyncFailed:
		return StatusError
	case EventTimedOut:
		return StatusIncomplete
	case EventDeleteStarted:
		return StatusDeleting
	case EventDeleteCompleted:
		return StatusDeleted
	default:
		return ""
	}
}

// legalEdges enumerates the allowed (from, event) pairs.
// Everything else is rejected by Transition.
var legalEdges = map[SyncStatus][]Event{
	StatusUnsynced:   {EventSyncStarted, EventDeleteStarted},
	StatusSyncing:    {EventEmbeddingStarted, EventSyncCompleted, EventSyncFailed, EventTimedOut, EventDeleteStarted},
	StatusEmbedding:  {EventSyncCompleted, EventDeleteStarted},
	StatusSynced:     {EventSyncStarted, EventDeleteStarted},
	StatusError:      {EventSyncStarted, EventDeleteStarted},
	StatusIncomplete: {EventSyncStarted, EventDeleteStarted},
	StatusDeleting:   {EventDeleteCompleted},
	StatusDeleted:    {EventSyncStarted, EventDeleteStarted},
}

// Transition applies an event to a status and returns the new status.
//
// Only the defined edges are legal; any other pair returns the status
// unchanged with ErrIllegalTransition. Applying an event whose target
// is the current status is an idempotent no-op, not an error.
func Transition(status SyncStatus, event Event) (SyncStatus, error) {
	next := event.target()
	if next == "" {
		return status, ErrIllegalTransition
	}
	if next == status {
		return status, nil
	}
	for _, allowed := range legalEdges[status] {
		if allowed == event {
			return next, nil
		}
	}
	return status, ErrIllegalTransition
}
