package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nethopper2/datasync/internal/core/domain"
)

type authFixture struct {
	manager *AuthFlowManager
	api     *mockSyncAPI
	browser *mockBrowser
	clock   *fakeClock

	mu        sync.Mutex
	fallbacks []string
	completed []domain.ActionKey
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		api:     newMockSyncAPI(),
		browser: &mockBrowser{},
		clock:   newFakeClock(),
	}
	f.api.initURL = "https://auth.example.com/consent"
	f.manager = NewAuthFlowManager(
		f.api, f.browser, NewProviderRegistry(), f.clock, 500*time.Millisecond,
		func(_ domain.ActionKey, url string) {
			f.mu.Lock()
			f.fallbacks = append(f.fallbacks, url)
			f.mu.Unlock()
		},
		func(key domain.ActionKey) {
			f.mu.Lock()
			f.completed = append(f.completed, key)
			f.mu.Unlock()
		},
	)
	t.Cleanup(f.manager.Shutdown)
	return f
}

func (f *authFixture) completedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed)
}

func TestAuthFlow_BeginOpensNamedWindow(t *testing.T) {
	f := newAuthFixture(t)
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	require.NoError(t, f.manager.Begin(context.Background(), key))

	require.Equal(t, 1, f.browser.openCount())
	assert.Equal(t, "https://auth.example.com/consent", f.browser.urls[0])
	assert.Equal(t, "datasync-auth-google", f.browser.names[0])
	assert.True(t, f.manager.Pending(key))
}

func TestAuthFlow_CompleteClosesWindowAndNotifies(t *testing.T) {
	f := newAuthFixture(t)
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	require.NoError(t, f.manager.Begin(context.Background(), key))
	f.manager.Complete(key)

	assert.Eventually(t, func() bool {
		return f.completedCount() == 1 && !f.manager.Pending(key)
	}, time.Second, 5*time.Millisecond)
	assert.True(t, f.browser.windows[0].Closed(), "the window is closed for the user on completion")
}

func TestAuthFlow_WindowClosedAbandonsFlow(t *testing.T) {
	f := newAuthFixture(t)
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	require.NoError(t, f.manager.Begin(context.Background(), key))
	require.NoError(t, f.browser.windows[0].Close())
	f.clock.fireTickers()

	assert.Eventually(t, func() bool {
		return !f.manager.Pending(key)
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, f.completedCount(), "abandonment never fires the completion callback")
}

func TestAuthFlow_RepeatBeginRefocuses(t *testing.T) {
	f := newAuthFixture(t)
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	require.NoError(t, f.manager.Begin(context.Background(), key))
	require.NoError(t, f.manager.Begin(context.Background(), key))

	// The second call reopens the same named window; only one flow is
	// supervised.
	assert.Equal(t, 2, f.browser.openCount())
	assert.Equal(t, f.browser.names[0], f.browser.names[1])
	assert.True(t, f.manager.Pending(key))

	f.manager.Complete(key)
	assert.Eventually(t, func() bool {
		return f.completedCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAuthFlow_BlockedWindowFallsBackToURL(t *testing.T) {
	f := newAuthFixture(t)
	f.browser.openErr = domain.ErrPopupBlocked
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	require.NoError(t, f.manager.Begin(context.Background(), key))

	f.mu.Lock()
	require.Len(t, f.fallbacks, 1)
	assert.Equal(t, "https://auth.example.com/consent", f.fallbacks[0], "the URL reaches the user verbatim")
	f.mu.Unlock()

	// The flow still resolves on the completion event.
	f.manager.Complete(key)
	assert.Eventually(t, func() bool {
		return f.completedCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAuthFlow_ReauthDistinctFromAuth(t *testing.T) {
	f := newAuthFixture(t)
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	require.NoError(t, f.manager.Begin(context.Background(), key))
	require.NoError(t, f.manager.BeginReauth(context.Background(), key, "https://auth.example.com/reauth"))

	assert.Equal(t, 2, f.browser.openCount(), "reauth never piggybacks on a pending initial authorisation")

	// Completion resolves both kinds for the key.
	f.manager.Complete(key)
	assert.Eventually(t, func() bool {
		return f.completedCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestAuthFlow_UnknownLayerRejected(t *testing.T) {
	f := newAuthFixture(t)
	err := f.manager.Begin(context.Background(), domain.ActionKey{Action: "google", Layer: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}

func TestAuthFlow_CompleteUnknownKeyIsNoop(t *testing.T) {
	f := newAuthFixture(t)
	f.manager.Complete(domain.ActionKey{Action: "google", Layer: "drive"})
	assert.Zero(t, f.completedCount())
}

func TestAuthFlow_ShutdownWaitsForSupervisors(t *testing.T) {
	f := newAuthFixture(t)
	key := domain.ActionKey{Action: "google", Layer: "drive"}

	require.NoError(t, f.manager.Begin(context.Background(), key))
	f.manager.Shutdown()
	assert.False(t, f.manager.Pending(key))
}
