package driven

import "time"

// Ticker delivers periodic ticks. Mirrors time.Ticker behind an
// interface so loops can run against a virtual clock in tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts time for the orchestrator's loops (liveness check,
// embedding poll, window poll, elapsed/ETA tick).
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a ticker firing every d.
	NewTicker(d time.Duration) Ticker
}
