package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nethopper2/datasync/internal/core/domain"
)

func TestConfigStore_DefaultsWithoutFile(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	settings := store.Settings()
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestConfigStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	defer store.Close()

	settings := domain.Settings{
		ServerURL:             "https://sync.example.com",
		Token:                 "secret",
		LivenessInterval:      10 * time.Second,
		LivenessThreshold:     2 * time.Minute,
		EmbeddingPollInterval: 30 * time.Second,
		EmptyPollLimit:        6,
		WindowPollInterval:    250 * time.Millisecond,
		ETAThrottle:           3 * time.Second,
	}
	require.NoError(t, store.Save(settings))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, settings, reopened.Settings())
}

func TestConfigStore_PartialFileNormalised(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nurl = \"https://sync.example.com\"\n"), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	defer store.Close()

	settings := store.Settings()
	assert.Equal(t, "https://sync.example.com", settings.ServerURL)
	assert.Equal(t, domain.DefaultSettings().LivenessThreshold, settings.LivenessThreshold)
}

func TestConfigStore_InvalidDurationFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[liveness]\nthreshold = \"ninety seconds\"\n"), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, domain.DefaultSettings().LivenessThreshold, store.Settings().LivenessThreshold)
}

func TestConfigStore_WatchDeliversChanges(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	defer store.Close()

	changes := make(chan domain.Settings, 4)
	require.NoError(t, store.Watch(func(s domain.Settings) { changes <- s }))

	content := "[embedding]\nempty_poll_limit = 8\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	select {
	case got := <-changes:
		assert.Equal(t, 8, got.EmptyPollLimit)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification received")
	}
}

func TestConfigStore_CloseWithoutWatch(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
