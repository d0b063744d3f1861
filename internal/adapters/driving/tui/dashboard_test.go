package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driving"
)

// mockOrchestrator implements driving.Orchestrator for testing.
type mockOrchestrator struct {
	sources    []domain.DataSource
	sourcesErr error
	triggerErr error
	triggered  []domain.ActionKey
	views      map[domain.ActionKey]driving.ProgressView
}

var _ driving.Orchestrator = (*mockOrchestrator)(nil)

func (m *mockOrchestrator) Refresh(_ context.Context) error { return nil }

func (m *mockOrchestrator) Sources(_ context.Context) ([]domain.DataSource, error) {
	return m.sources, m.sourcesErr
}

func (m *mockOrchestrator) Source(_ context.Context, key domain.ActionKey) (*domain.DataSource, error) {
	return nil, domain.ErrNotFound
}

func (m *mockOrchestrator) AddSource(_ context.Context, source domain.DataSource) (*domain.DataSource, error) {
	return &source, nil
}

func (m *mockOrchestrator) TriggerSync(_ context.Context, key domain.ActionKey) error {
	m.triggered = append(m.triggered, key)
	return m.triggerErr
}

func (m *mockOrchestrator) Disconnect(_ context.Context, _ domain.ActionKey) error { return nil }

func (m *mockOrchestrator) Authorize(_ context.Context, _ domain.ActionKey) error { return nil }

func (m *mockOrchestrator) Progress(_ context.Context, key domain.ActionKey) (*driving.ProgressView, error) {
	if view, ok := m.views[key]; ok {
		return &view, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrchestrator) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func testSources() []domain.DataSource {
	return []domain.DataSource{
		{ID: "1", Action: "google", Layer: "drive", Name: "Google Drive", SyncStatus: domain.StatusSyncing},
		{ID: "2", Action: "slack", Layer: "channels", SyncStatus: domain.StatusSynced, LastSync: 1700000000},
		{ID: "3", Action: "atlassian", Layer: "jira", SyncStatus: domain.StatusError},
	}
}

func snapshotOf(sources []domain.DataSource) snapshotMsg {
	return snapshotMsg{
		sources: sources,
		views: map[domain.ActionKey]driving.ProgressView{
			{Action: "google", Layer: "drive"}: {
				Key:      domain.ActionKey{Action: "google", Layer: "drive"},
				Status:   domain.StatusSyncing,
				Snapshot: domain.ProgressSnapshot{FilesProcessed: 50, FilesTotal: 100},
				Elapsed:  "01:00",
				ETA:      "01:00",
				Fraction: 0.5,
			},
		},
	}
}

func TestModel_ViewRendersSources(t *testing.T) {
	model := NewModel(&mockOrchestrator{})
	updated, _ := model.Update(snapshotOf(testSources()))
	model = updated.(Model)

	view := model.View()
	assert.Contains(t, view, "Google Drive")
	assert.Contains(t, view, "50/100 files")
	assert.Contains(t, view, "eta 01:00")
	assert.Contains(t, view, "slack channels")
	assert.Contains(t, view, "error")
}

func TestModel_ViewEmpty(t *testing.T) {
	model := NewModel(&mockOrchestrator{})
	assert.Contains(t, model.View(), "No sources configured")
}

func TestModel_Navigation(t *testing.T) {
	model := NewModel(&mockOrchestrator{})
	updated, _ := model.Update(snapshotOf(testSources()))
	model = updated.(Model)

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model = updated.(Model)
	assert.Equal(t, 1, model.selected)

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyUp})
	model = updated.(Model)
	assert.Equal(t, 0, model.selected)

	// Cannot move above the first entry.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyUp})
	model = updated.(Model)
	assert.Equal(t, 0, model.selected)
}

func TestModel_SyncKeyTriggersSelected(t *testing.T) {
	mock := &mockOrchestrator{}
	model := NewModel(mock)
	updated, _ := model.Update(snapshotOf(testSources()))
	model = updated.(Model)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	require.NotNil(t, cmd)

	msg := cmd()
	triggered, ok := msg.(syncTriggeredMsg)
	require.True(t, ok)
	assert.Equal(t, domain.ActionKey{Action: "google", Layer: "drive"}, triggered.key)
	assert.Equal(t, []domain.ActionKey{{Action: "google", Layer: "drive"}}, mock.triggered)
}

func TestModel_QuitKey(t *testing.T) {
	model := NewModel(&mockOrchestrator{})
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_SnapshotErrorShown(t *testing.T) {
	model := NewModel(&mockOrchestrator{})
	updated, _ := model.Update(snapshotMsg{err: errors.New("connection refused")})
	model = updated.(Model)

	assert.Contains(t, model.View(), "backend unavailable")
}

func TestModel_SnapshotCmdFetchesViews(t *testing.T) {
	mock := &mockOrchestrator{
		sources: testSources(),
		views: map[domain.ActionKey]driving.ProgressView{
			{Action: "google", Layer: "drive"}: {Fraction: 0.25},
		},
	}
	model := NewModel(mock)

	msg := model.snapshot()()
	snapshot, ok := msg.(snapshotMsg)
	require.True(t, ok)
	assert.NoError(t, snapshot.err)
	assert.Len(t, snapshot.sources, 3)
	// Only the in-flight source carries a progress view.
	assert.Len(t, snapshot.views, 1)
}

func TestSyncNotice(t *testing.T) {
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	assert.Contains(t, syncNotice(syncTriggeredMsg{key: key}), "sync started")
	assert.Contains(t, syncNotice(syncTriggeredMsg{key: key, err: domain.ErrReauthRequired}), "re-authorisation")
	assert.Contains(t, syncNotice(syncTriggeredMsg{key: key, err: domain.ErrActionInFlight}), "already running")
	assert.Contains(t, syncNotice(syncTriggeredMsg{key: key, err: errors.New("boom")}), "boom")
}

func TestModel_SelectionClampedOnShrink(t *testing.T) {
	model := NewModel(&mockOrchestrator{})
	updated, _ := model.Update(snapshotOf(testSources()))
	model = updated.(Model)
	model.selected = 2

	updated, _ = model.Update(snapshotOf(testSources()[:1]))
	model = updated.(Model)
	assert.Equal(t, 0, model.selected)
}
