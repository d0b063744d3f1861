package domain

import "time"

// Settings holds the orchestrator's tunables. All intervals are
// overridable from configuration; the defaults mirror the production
// service.
type Settings struct {
	// ServerURL is the base URL of the sync backend.
	ServerURL string

	// Token authenticates REST and stream calls. Empty disables auth.
	Token string

	// LivenessInterval is the cadence of the liveness check loop.
	LivenessInterval time.Duration

	// LivenessThreshold is how long the push channel may stay silent
	// while sources are syncing before they are marked incomplete.
	LivenessThreshold time.Duration

	// EmbeddingPollInterval is the cadence of the embedding-queue poll.
	EmbeddingPollInterval time.Duration

	// EmptyPollLimit is how many consecutive empty embedding-status
	// responses force all embedding sources to synced. Tunable, not an
	// invariant.
	EmptyPollLimit int

	// WindowPollInterval is the cadence for checking whether a pending
	// authorisation window has been closed.
	WindowPollInterval time.Duration

	// ETAThrottle is the minimum time between ETA recomputes. The
	// elapsed readout still ticks every second.
	ETAThrottle time.Duration
}

// DefaultSettings returns production defaults.
func DefaultSettings() Settings {
	return Settings{
		ServerURL:             "http://localhost:8080",
		LivenessInterval:      15 * time.Second,
		LivenessThreshold:     90 * time.Second,
		EmbeddingPollInterval: 60 * time.Second,
		EmptyPollLimit:        4,
		WindowPollInterval:    500 * time.Millisecond,
		ETAThrottle:           5 * time.Second,
	}
}

// Normalise fills zero fields with defaults so a partially-populated
// config file still yields a runnable orchestrator.
func (s *Settings) Normalise() {
	def := DefaultSettings()
	if s.ServerURL == "" {
		s.ServerURL = def.ServerURL
	}
	if s.LivenessInterval <= 0 {
		s.LivenessInterval = def.LivenessInterval
	}
	if s.LivenessThreshold <= 0 {
		s.LivenessThreshold = def.LivenessThreshold
	}
	if s.EmbeddingPollInterval <= 0 {
		s.EmbeddingPollInterval = def.EmbeddingPollInterval
	}
	if s.EmptyPollLimit <= 0 {
		s.EmptyPollLimit = def.EmptyPollLimit
	}
	if s.WindowPollInterval <= 0 {
		s.WindowPollInterval = def.WindowPollInterval
	}
	if s.ETAThrottle <= 0 {
		s.ETAThrottle = def.ETAThrottle
	}
}
