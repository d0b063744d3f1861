package domain

import (
	"fmt"
	"time"
)

// Sync phases reported by the backend while a job runs.
const (
	// PhaseDiscovery is the provider walk that counts folders and files.
	PhaseDiscovery = "discovery"

	// PhaseProcessing is the download/ingest pass over discovered files.
	PhaseProcessing = "processing"

	// PhaseEmbedding is the background embedding tail.
	PhaseEmbedding = "embedding"
)

// ProgressSnapshot is the latest known progress for one source.
type ProgressSnapshot struct {
	FilesProcessed   int64   `json:"files_processed"`
	FilesTotal       int64   `json:"files_total"`
	MBProcessed      float64 `json:"mb_processed"`
	MBTotal          float64 `json:"mb_total"`
	FoldersFound     int64   `json:"folders_found"`
	FilesFound       int64   `json:"files_found"`
	TotalSize        float64 `json:"total_size"`
	Phase            string  `json:"phase"`
	PhaseName        string  `json:"phase_name"`
	PhaseDescription string  `json:"phase_description"`

	// SyncStartTime is when the observed sync began, epoch seconds.
	SyncStartTime int64 `json:"sync_start_time"`
}

// ProgressUpdate is a partial progress report from the push channel.
// Nil fields were absent from the event and must not overwrite values
// established by an earlier update: merge is last-writer-wins per
// field, not per message.
type ProgressUpdate struct {
	FilesProcessed   *int64   `json:"files_processed,omitempty"`
	FilesTotal       *int64   `json:"files_total,omitempty"`
	MBProcessed      *float64 `json:"mb_processed,omitempty"`
	MBTotal          *float64 `json:"mb_total,omitempty"`
	FoldersFound     *int64   `json:"folders_found,omitempty"`
	FilesFound       *int64   `json:"files_found,omitempty"`
	TotalSize        *float64 `json:"total_size,omitempty"`
	Phase            *string  `json:"phase,omitempty"`
	PhaseName        *string  `json:"phase_name,omitempty"`
	PhaseDescription *string  `json:"phase_description,omitempty"`
}

// Apply overlays the update's present fields onto the snapshot.
func (s *ProgressSnapshot) Apply(u ProgressUpdate) {
	if u.FilesProcessed != nil {
		s.FilesProcessed = *u.FilesProcessed
	}
	if u.FilesTotal != nil {
		s.FilesTotal = *u.FilesTotal
	}
	if u.MBProcessed != nil {
		s.MBProcessed = *u.MBProcessed
	}
	if u.MBTotal != nil {
		s.MBTotal = *u.MBTotal
	}
	if u.FoldersFound != nil {
		s.FoldersFound = *u.FoldersFound
	}
	if u.FilesFound != nil {
		s.FilesFound = *u.FilesFound
	}
	if u.TotalSize != nil {
		s.TotalSize = *u.TotalSize
	}
	if u.Phase != nil {
		s.Phase = *u.Phase
	}
	if u.PhaseName != nil {
		s.PhaseName = *u.PhaseName
	}
	if u.PhaseDescription != nil {
		s.PhaseDescription = *u.PhaseDescription
	}
}

// ETA estimates remaining time from elapsed time and file counts.
// The estimate is only defined once at least one file has been
// processed and the total is ahead of the processed count; ok is false
// otherwise and callers must render the placeholder instead.
func ETA(elapsed time.Duration, processed, total int64) (time.Duration, bool) {
	if processed <= 0 || total <= processed {
		return 0, false
	}
	remaining := float64(elapsed) * float64(total-processed) / float64(processed)
	return time.Duration(remaining), true
}

// ETAPlaceholder is rendered whenever no estimate is defined.
const ETAPlaceholder = "--:--"

// FormatClock renders a duration as MM:SS, or H:MM:SS past an hour.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatMB renders a megabyte count with one decimal place.
func FormatMB(mb float64) string {
	if mb < 0 {
		mb = 0
	}
	return fmt.Sprintf("%.1f MB", mb)
}

// Fraction returns processed/total clamped to [0, 1], preferring file
// counts and falling back to byte counts during phases that report
// only sizes.
func (s *ProgressSnapshot) Fraction() float64 {
	if s.FilesTotal > 0 {
		return clamp01(float64(s.FilesProcessed) / float64(s.FilesTotal))
	}
	if s.MBTotal > 0 {
		return clamp01(s.MBProcessed / s.MBTotal)
	}
	return 0
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
