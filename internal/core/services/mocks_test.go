package services

import (
	"context"
	"sync"
	"time"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
)

// --- Shared mock implementations for service testing ---

// fakeClock is a manually-advanced clock. Tickers never fire on their
// own; tests call Tick to deliver a tick.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) NewTicker(_ time.Duration) driven.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// fireTickers delivers one tick to every ticker created so far,
// waiting first for at least one ticker to exist so a tick fired just
// after a watcher goroutine is spawned is not lost.
func (c *fakeClock) fireTickers() {
	for {
		c.mu.Lock()
		if len(c.tickers) > 0 {
			for _, t := range c.tickers {
				select {
				case t.ch <- c.now:
				default:
				}
			}
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// mockSyncAPI implements driven.SyncAPI with canned responses and call
// recording.
type mockSyncAPI struct {
	mu sync.Mutex

	sources    []domain.DataSource
	listErr    error
	createErr  error
	triggerAck *domain.SyncAck
	triggerErr error
	initURL    string
	initErr    error
	counts     map[string]domain.EmbeddingCounts
	countsErr  error

	statusCalls     []statusCall
	incompleteCalls []string
	disconnects     []domain.ActionKey
	triggerCalls    int
	embeddingCalls  int
}

type statusCall struct {
	id      string
	status  domain.SyncStatus
	results *domain.SyncResults
}

func newMockSyncAPI() *mockSyncAPI {
	return &mockSyncAPI{triggerAck: &domain.SyncAck{Started: true}}
}

func (m *mockSyncAPI) ListSources(_ context.Context) ([]domain.DataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.DataSource, len(m.sources))
	copy(out, m.sources)
	return out, nil
}

func (m *mockSyncAPI) CreateSource(_ context.Context, source domain.DataSource) (*domain.DataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.sources = append(m.sources, source)
	cp := source
	return &cp, nil
}

func (m *mockSyncAPI) UpdateSource(_ context.Context, _ domain.DataSource) error { return nil }

func (m *mockSyncAPI) RemoveSource(_ context.Context, _ string) error { return nil }

func (m *mockSyncAPI) SetSyncStatus(_ context.Context, id string, status domain.SyncStatus, results *domain.SyncResults) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls = append(m.statusCalls, statusCall{id: id, status: status, results: results})
	return nil
}

func (m *mockSyncAPI) MarkIncomplete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incompleteCalls = append(m.incompleteCalls, id)
	return nil
}

func (m *mockSyncAPI) Initialize(_ context.Context, _ domain.ActionKey) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initErr != nil {
		return "", m.initErr
	}
	return m.initURL, nil
}

func (m *mockSyncAPI) TriggerSync(_ context.Context, _ domain.ActionKey) (*domain.SyncAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggerCalls++
	if m.triggerErr != nil {
		return nil, m.triggerErr
	}
	ack := *m.triggerAck
	return &ack, nil
}

func (m *mockSyncAPI) Disconnect(_ context.Context, key domain.ActionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects = append(m.disconnects, key)
	return nil
}

func (m *mockSyncAPI) EmbeddingStatus(_ context.Context) (map[string]domain.EmbeddingCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddingCalls++
	if m.countsErr != nil {
		return nil, m.countsErr
	}
	out := make(map[string]domain.EmbeddingCounts, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}

func (m *mockSyncAPI) setCounts(counts map[string]domain.EmbeddingCounts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = counts
}

func (m *mockSyncAPI) incompleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.incompleteCalls)
}

func (m *mockSyncAPI) statusCallsFor(id string) []statusCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []statusCall
	for _, c := range m.statusCalls {
		if c.id == id {
			out = append(out, c)
		}
	}
	return out
}

// mockWindow implements driven.AuthWindow.
type mockWindow struct {
	mu       sync.Mutex
	closed   bool
	closeErr error
}

func (w *mockWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *mockWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return w.closeErr
}

// mockBrowser implements driven.Browser.
type mockBrowser struct {
	mu      sync.Mutex
	openErr error
	windows []*mockWindow
	urls    []string
	names   []string
}

func (b *mockBrowser) Open(url, windowName string) (driven.AuthWindow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.urls = append(b.urls, url)
	b.names = append(b.names, windowName)
	if b.openErr != nil {
		return nil, b.openErr
	}
	w := &mockWindow{}
	b.windows = append(b.windows, w)
	return w, nil
}

func (b *mockBrowser) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.urls)
}

// mockStream implements driven.EventStream backed by a plain channel.
type mockStream struct {
	ch     chan domain.PushEvent
	closed sync.Once
}

func newMockStream() *mockStream {
	return &mockStream{ch: make(chan domain.PushEvent, 16)}
}

func (s *mockStream) Events() <-chan domain.PushEvent { return s.ch }

func (s *mockStream) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *mockStream) Close() error {
	s.closed.Do(func() { close(s.ch) })
	return nil
}

// Ensure mocks implement interfaces
var _ driven.Clock = (*fakeClock)(nil)
var _ driven.SyncAPI = (*mockSyncAPI)(nil)
var _ driven.Browser = (*mockBrowser)(nil)
var _ driven.EventStream = (*mockStream)(nil)

// testSource builds a source in a given state for registry seeding.
func testSource(action, layer string, status domain.SyncStatus) domain.DataSource {
	return domain.DataSource{
		ID:         action + "-" + layer,
		Action:     action,
		Layer:      layer,
		Name:       action + " " + layer,
		SyncStatus: status,
	}
}
