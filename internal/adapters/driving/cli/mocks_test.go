package cli

import (
	"context"
	"sync"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driving"
)

// mockOrchestrator implements driving.Orchestrator for testing.
type mockOrchestrator struct {
	mu sync.Mutex

	sources    []domain.DataSource
	refreshErr error

	triggerErr    error
	disconnectErr error
	authorizeErr  error
	addErr        error

	progressViews map[domain.ActionKey]driving.ProgressView

	triggered    []domain.ActionKey
	disconnected []domain.ActionKey
	authorized   []domain.ActionKey
	added        []domain.DataSource
}

var _ driving.Orchestrator = (*mockOrchestrator)(nil)

func (m *mockOrchestrator) Refresh(_ context.Context) error {
	return m.refreshErr
}

func (m *mockOrchestrator) Sources(_ context.Context) ([]domain.DataSource, error) {
	return m.sources, nil
}

func (m *mockOrchestrator) Source(_ context.Context, key domain.ActionKey) (*domain.DataSource, error) {
	for i := range m.sources {
		if m.sources[i].Key() == key {
			src := m.sources[i]
			return &src, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrchestrator) AddSource(_ context.Context, source domain.DataSource) (*domain.DataSource, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	if source.ID == "" {
		source.ID = "generated-id"
	}
	m.mu.Lock()
	m.added = append(m.added, source)
	m.mu.Unlock()
	return &source, nil
}

func (m *mockOrchestrator) TriggerSync(_ context.Context, key domain.ActionKey) error {
	m.mu.Lock()
	m.triggered = append(m.triggered, key)
	m.mu.Unlock()
	return m.triggerErr
}

func (m *mockOrchestrator) Disconnect(_ context.Context, key domain.ActionKey) error {
	m.mu.Lock()
	m.disconnected = append(m.disconnected, key)
	m.mu.Unlock()
	return m.disconnectErr
}

func (m *mockOrchestrator) Authorize(_ context.Context, key domain.ActionKey) error {
	m.mu.Lock()
	m.authorized = append(m.authorized, key)
	m.mu.Unlock()
	return m.authorizeErr
}

func (m *mockOrchestrator) Progress(_ context.Context, key domain.ActionKey) (*driving.ProgressView, error) {
	if view, ok := m.progressViews[key]; ok {
		return &view, nil
	}
	return &driving.ProgressView{Key: key, Status: domain.StatusSynced}, nil
}

func (m *mockOrchestrator) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// setupCLITest swaps in a fresh mock orchestrator and returns it with a
// cleanup restoring the previous services.
func setupCLITest() (*mockOrchestrator, func()) {
	oldOrch := orchestrator
	mock := &mockOrchestrator{}
	orchestrator = mock
	return mock, func() {
		orchestrator = oldOrch
	}
}
