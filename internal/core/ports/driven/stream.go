package driven

import (
	"context"

	"github.com/nethopper2/datasync/internal/core/domain"
)

// EventStream is the real-time push channel from the sync backend.
// Events carry enough identity (provider + layer) to key into the
// registry and are delivered in arrival order.
type EventStream interface {
	// Events returns the inbound event channel. The channel is closed
	// when the stream shuts down.
	Events() <-chan domain.PushEvent

	// Run pumps the underlying connection until the context is
	// cancelled or the connection drops.
	Run(ctx context.Context) error

	// Close tears the stream down and closes the event channel.
	Close() error
}
