// Package file provides a TOML file-based config store with hot reload.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// fileConfig is the on-disk TOML layout. Durations are strings in Go
// duration syntax ("90s", "500ms").
type fileConfig struct {
	Server struct {
		URL   string `toml:"url"`
		Token string `toml:"token"`
	} `toml:"server"`

	Liveness struct {
		Interval  string `toml:"interval"`
		Threshold string `toml:"threshold"`
	} `toml:"liveness"`

	Embedding struct {
		PollInterval   string `toml:"poll_interval"`
		EmptyPollLimit int    `toml:"empty_poll_limit"`
	} `toml:"embedding"`

	Auth struct {
		WindowPollInterval string `toml:"window_poll_interval"`
	} `toml:"auth"`

	Progress struct {
		ETAThrottle string `toml:"eta_throttle"`
	} `toml:"progress"`
}

// ConfigStore is a TOML file-backed implementation of
// driven.ConfigStore. Edits to the file are picked up through fsnotify
// and pushed to registered watchers.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	settings domain.Settings

	watcher  *fsnotify.Watcher
	watchers []func(domain.Settings)
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewConfigStore creates a TOML-based config store.
// If configDir is empty, defaults to ~/.datasync.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".datasync")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		settings: domain.DefaultSettings(),
		stopCh:   make(chan struct{}),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Settings returns the current settings, normalised.
func (s *ConfigStore) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Save persists settings to the TOML file.
func (s *ConfigStore) Save(settings domain.Settings) error {
	settings.Normalise()

	var cfg fileConfig
	cfg.Server.URL = settings.ServerURL
	cfg.Server.Token = settings.Token
	cfg.Liveness.Interval = settings.LivenessInterval.String()
	cfg.Liveness.Threshold = settings.LivenessThreshold.String()
	cfg.Embedding.PollInterval = settings.EmbeddingPollInterval.String()
	cfg.Embedding.EmptyPollLimit = settings.EmptyPollLimit
	cfg.Auth.WindowPollInterval = settings.WindowPollInterval.String()
	cfg.Progress.ETAThrottle = settings.ETAThrottle.String()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Write with restricted permissions; the file holds the API token.
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	s.settings = settings
	return nil
}

// Watch registers a callback invoked whenever the config file changes
// on disk. The first call starts the fsnotify watcher.
func (s *ConfigStore) Watch(onChange func(domain.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchers = append(s.watchers, onChange)
	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace the file on
	// save, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}
	s.watcher = watcher

	s.wg.Add(1)
	go s.watch(watcher)
	return nil
}

// Close releases the watcher resources.
func (s *ConfigStore) Close() error {
	s.mu.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(s.stopCh)
	err := watcher.Close()
	s.wg.Wait()
	return err
}

// watch pumps fsnotify events until Close.
func (s *ConfigStore) watch(watcher *fsnotify.Watcher) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.load(); err != nil {
				logger.Warn("config reload failed: %v", err)
				continue
			}

			s.mu.RLock()
			settings := s.settings
			callbacks := make([]func(domain.Settings), len(s.watchers))
			copy(callbacks, s.watchers)
			s.mu.RUnlock()

			logger.Info("configuration reloaded from %s", s.filePath)
			for _, cb := range callbacks {
				cb(settings)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error: %v", err)
		}
	}
}

// load reads and parses the TOML file into settings.
func (s *ConfigStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	settings := domain.Settings{
		ServerURL:             cfg.Server.URL,
		Token:                 cfg.Server.Token,
		LivenessInterval:      parseDuration(cfg.Liveness.Interval),
		LivenessThreshold:     parseDuration(cfg.Liveness.Threshold),
		EmbeddingPollInterval: parseDuration(cfg.Embedding.PollInterval),
		EmptyPollLimit:        cfg.Embedding.EmptyPollLimit,
		WindowPollInterval:    parseDuration(cfg.Auth.WindowPollInterval),
		ETAThrottle:           parseDuration(cfg.Progress.ETAThrottle),
	}
	settings.Normalise()

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// parseDuration parses a duration string, returning zero (defaulted by
// Normalise) on empty or invalid input.
func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("invalid duration %q in config, using default", raw)
		return 0
	}
	return d
}
