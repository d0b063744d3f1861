// Package clock provides the system clock adapter.
package clock

import (
	"time"

	"github.com/nethopper2/datasync/internal/core/ports/driven"
)

// Ensure System implements the interface.
var _ driven.Clock = (*System)(nil)

// System is the real-time implementation of driven.Clock.
type System struct{}

// NewSystem creates a system clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current time.
func (*System) Now() time.Time {
	return time.Now()
}

// NewTicker returns a ticker firing every d.
func (*System) NewTicker(d time.Duration) driven.Ticker {
	return &ticker{t: time.NewTicker(d)}
}

type ticker struct {
	t *time.Ticker
}

func (t *ticker) C() <-chan time.Time { return t.t.C }
func (t *ticker) Stop()               { t.t.Stop() }
