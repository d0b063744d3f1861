package domain

// EmbeddingCounts are per-source job counts reported by the shared
// embedding queue.
type EmbeddingCounts struct {
	Waiting         int64 `json:"waiting"`
	Active          int64 `json:"active"`
	Completed       int64 `json:"completed"`
	Failed          int64 `json:"failed"`
	Delayed         int64 `json:"delayed"`
	Prioritized     int64 `json:"prioritized"`
	Paused          int64 `json:"paused"`
	WaitingChildren int64 `json:"waiting-children"`
}

// Done reports whether embedding for this source has finished: no jobs
// pending in any queue state, and at least one job actually ran
// (completed or failed). A failed job still counts as done; the failure
// is recorded separately in sync_results.error_embedding.
func (c EmbeddingCounts) Done() bool {
	pending := c.Waiting + c.Active + c.Delayed + c.Prioritized + c.Paused + c.WaitingChildren
	return pending == 0 && (c.Completed >= 1 || c.Failed >= 1)
}

// Pending returns the number of jobs not yet in a terminal state.
func (c EmbeddingCounts) Pending() int64 {
	return c.Waiting + c.Active + c.Delayed + c.Prioritized + c.Paused + c.WaitingChildren
}
