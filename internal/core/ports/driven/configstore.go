package driven

import "github.com/nethopper2/datasync/internal/core/domain"

// ConfigStore persists orchestrator settings.
type ConfigStore interface {
	// Settings returns the current settings, normalised.
	Settings() domain.Settings

	// Save persists settings.
	Save(settings domain.Settings) error

	// Watch registers a callback invoked whenever the backing store
	// changes (e.g., the config file is edited). Implementations that
	// cannot watch may make this a no-op.
	Watch(onChange func(domain.Settings)) error

	// Close releases any watcher resources.
	Close() error
}
