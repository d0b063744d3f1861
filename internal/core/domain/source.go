package domain

import "fmt"

// ActionKey identifies a provider/layer pairing. It is the unit of
// action serialisation: at most one user action runs per key.
type ActionKey struct {
	// Action is the provider key (e.g., "google", "atlassian").
	Action string `json:"action"`

	// Layer is the provider sub-resource (e.g., "drive", "jira").
	Layer string `json:"layer"`
}

// String returns the canonical "action:layer" form used for lock keys
// and log lines.
func (k ActionKey) String() string {
	return fmt.Sprintf("%s:%s", k.Action, k.Layer)
}

// DataSource is one configured provider/layer pairing and its persisted
// sync state. Exactly one source exists per ActionKey.
type DataSource struct {
	// ID is the unique identifier for the source.
	ID string `json:"id"`

	// Action is the provider key.
	Action string `json:"action"`

	// Layer is the provider sub-resource.
	Layer string `json:"layer"`

	// Name is the human-readable name for this source.
	Name string `json:"name"`

	// Context describes what the source contributes to retrieval.
	Context string `json:"context,omitempty"`

	// Icon is the icon identifier for UI display.
	Icon string `json:"icon,omitempty"`

	// SyncStatus is the current lifecycle state. All writes go through
	// Transition; no component sets an arbitrary status directly.
	SyncStatus SyncStatus `json:"sync_status"`

	// LastSync is when the last sync completed, epoch seconds. Zero
	// means never.
	LastSync int64 `json:"last_sync,omitempty"`

	// SyncStartTime is when the current sync began, epoch seconds.
	// Meaningful only while SyncStatus is in flight.
	SyncStartTime int64 `json:"sync_start_time,omitempty"`

	// Denormalised cache of the last known progress, used when no live
	// progress stream is active.
	FilesProcessed int64   `json:"files_processed,omitempty"`
	FilesTotal     int64   `json:"files_total,omitempty"`
	MBProcessed    float64 `json:"mb_processed,omitempty"`
	MBTotal        float64 `json:"mb_total,omitempty"`

	// SyncResults captures structured results of past sync phases.
	SyncResults SyncResults `json:"sync_results,omitempty"`

	// TimeoutAcknowledged records that the liveness detector has already
	// demoted this source's current sync. Cleared whenever the source
	// leaves syncing, so a later sync is eligible to time out again.
	TimeoutAcknowledged bool `json:"timeout_acknowledged,omitempty"`
}

// Key returns the source's action/layer key.
func (s *DataSource) Key() ActionKey {
	return ActionKey{Action: s.Action, Layer: s.Layer}
}

// DisplayName returns the name, falling back to "action layer" when the
// source has no configured name.
func (s *DataSource) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s %s", s.Action, s.Layer)
}

// SyncResults is the structured record of a source's sync history.
// Partial updates merge into the existing record; fields already set
// are never silently dropped.
type SyncResults struct {
	// LatestSync summarises the most recent ingestion run.
	LatestSync *LatestSync `json:"latest_sync,omitempty"`

	// OverallProfile summarises everything the provider holds.
	OverallProfile *OverallProfile `json:"overall_profile,omitempty"`

	// DeleteResults summarises the most recent disconnect.
	DeleteResults *DeleteResults `json:"delete_results,omitempty"`

	// ErrorIngesting is the last ingestion error, if any.
	ErrorIngesting *ErrorDetail `json:"error_ingesting,omitempty"`

	// ErrorEmbedding is the last embedding error, if any.
	ErrorEmbedding *ErrorDetail `json:"error_embedding,omitempty"`

	// EmbeddingStatus is the last-seen embedding queue counts for this
	// source. Persisted on every poll so the queue depth survives a
	// client restart.
	EmbeddingStatus *EmbeddingCounts `json:"embedding_status,omitempty"`
}

// LatestSync summarises one ingestion run.
type LatestSync struct {
	FilesAdded     int64            `json:"files_added"`
	FilesUpdated   int64            `json:"files_updated"`
	FilesRemoved   int64            `json:"files_removed"`
	FilesSkipped   int64            `json:"files_skipped"`
	RuntimeSeconds float64          `json:"runtime_seconds"`
	SkipReasons    map[string]int64 `json:"skip_reasons,omitempty"`
}

// OverallProfile summarises the provider-side corpus.
type OverallProfile struct {
	TotalFiles   int64 `json:"total_files"`
	TotalBytes   int64 `json:"total_bytes"`
	TotalFolders int64 `json:"total_folders"`
}

// DeleteResults summarises a disconnect's delete phase.
type DeleteResults struct {
	FilesAttempted int64  `json:"files_attempted"`
	FilesDeleted   int64  `json:"files_deleted"`
	FilesFailed    int64  `json:"files_failed"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// ErrorDetail is a timestamped error message.
type ErrorDetail struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Merge overlays the fields present in other onto r. Present fields
// win; absent fields keep their existing values. This is what keeps
// error_* records from being dropped by a later partial update.
func (r *SyncResults) Merge(other SyncResults) {
	if other.LatestSync != nil {
		r.LatestSync = other.LatestSync
	}
	if other.OverallProfile != nil {
		r.OverallProfile = other.OverallProfile
	}
	if other.DeleteResults != nil {
		r.DeleteResults = other.DeleteResults
	}
	if other.ErrorIngesting != nil {
		r.ErrorIngesting = other.ErrorIngesting
	}
	if other.ErrorEmbedding != nil {
		r.ErrorEmbedding = other.ErrorEmbedding
	}
	if other.EmbeddingStatus != nil {
		r.EmbeddingStatus = other.EmbeddingStatus
	}
}
