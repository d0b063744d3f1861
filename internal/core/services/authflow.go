package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/logger"
)

// AuthFlowManager runs authorisation and re-authorisation flows. A flow
// opens the provider's consent page in a named window and then waits
// for whichever comes first: the backend's auth-complete event, the
// user closing the window, or shutdown. Initial authorisation and
// re-authorisation for the same source are distinct flows and may run
// concurrently.
type AuthFlowManager struct {
	api     driven.SyncAPI
	browser driven.Browser
	clock   driven.Clock

	providers *ProviderRegistry

	mu         sync.Mutex
	windowPoll time.Duration
	flows      map[string]*authFlow
	wg         sync.WaitGroup

	// fallback surfaces the authorisation URL verbatim when no window
	// can be opened.
	fallback func(key domain.ActionKey, url string)

	// onComplete runs after the backend confirms authorisation.
	onComplete func(key domain.ActionKey)
}

// authFlow is one pending window supervision.
type authFlow struct {
	key    domain.ActionKey
	window driven.AuthWindow

	done     chan struct{} // closed on auth-complete
	doneOnce sync.Once

	cancel     chan struct{} // closed on shutdown
	cancelOnce sync.Once
}

// NewAuthFlowManager creates a manager. fallback and onComplete may be
// nil.
func NewAuthFlowManager(api driven.SyncAPI, browser driven.Browser, providers *ProviderRegistry, clock driven.Clock, windowPoll time.Duration, fallback func(domain.ActionKey, string), onComplete func(domain.ActionKey)) *AuthFlowManager {
	return &AuthFlowManager{
		api:        api,
		browser:    browser,
		clock:      clock,
		providers:  providers,
		windowPoll: windowPoll,
		flows:      make(map[string]*authFlow),
		fallback:   fallback,
		onComplete: onComplete,
	}
}

// SetWindowPoll adjusts the window-closed poll cadence (config
// hot-reload). Applies to flows started afterwards.
func (m *AuthFlowManager) SetWindowPoll(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if interval > 0 {
		m.windowPoll = interval
	}
}

// Begin starts the initial authorisation flow for a source: fetch the
// consent URL from the backend, open it, and supervise until completion
// or abandonment. Repeating Begin while a flow is pending refocuses the
// existing window rather than opening a second one.
func (m *AuthFlowManager) Begin(ctx context.Context, key domain.ActionKey) error {
	url, err := m.api.Initialize(ctx, key)
	if err != nil {
		return fmt.Errorf("initialise authorisation for %s: %w", key, err)
	}
	return m.start(ctx, "auth:"+key.String(), key, url)
}

// BeginReauth starts a re-authorisation flow using the URL the backend
// attached to a declined sync trigger. Kept separate from Begin so a
// pending initial authorisation never swallows a reauth, or vice versa.
func (m *AuthFlowManager) BeginReauth(ctx context.Context, key domain.ActionKey, url string) error {
	return m.start(ctx, "reauth:"+key.String(), key, url)
}

// Complete signals that the backend confirmed authorisation for a
// source. Resolves both flow kinds; unknown keys are ignored.
func (m *AuthFlowManager) Complete(key domain.ActionKey) {
	m.mu.Lock()
	pending := []*authFlow{}
	for _, flowKey := range []string{"auth:" + key.String(), "reauth:" + key.String()} {
		if flow, ok := m.flows[flowKey]; ok {
			pending = append(pending, flow)
		}
	}
	m.mu.Unlock()

	for _, flow := range pending {
		flow.doneOnce.Do(func() { close(flow.done) })
	}
}

// Pending reports whether any authorisation flow is running for a key.
func (m *AuthFlowManager) Pending(key domain.ActionKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, auth := m.flows["auth:"+key.String()]
	_, reauth := m.flows["reauth:"+key.String()]
	return auth || reauth
}

// Shutdown abandons all pending flows and waits for their supervisors
// to exit. Windows are left open; the user may still be mid-consent.
func (m *AuthFlowManager) Shutdown() {
	m.mu.Lock()
	for _, flow := range m.flows {
		flow.cancelOnce.Do(func() { close(flow.cancel) })
	}
	m.flows = make(map[string]*authFlow)
	m.mu.Unlock()

	m.wg.Wait()
}

// start opens the window and launches the supervisor for one flow.
func (m *AuthFlowManager) start(ctx context.Context, flowKey string, key domain.ActionKey, url string) error {
	provider, _, err := m.providers.Layer(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, pending := m.flows[flowKey]; pending {
		m.mu.Unlock()
		// Reopening with the same window name refocuses the pending
		// window instead of spawning a duplicate.
		if _, err := m.browser.Open(url, provider.WindowName); err != nil && !errors.Is(err, domain.ErrPopupBlocked) {
			return fmt.Errorf("refocus authorisation window for %s: %w", key, err)
		}
		return nil
	}
	windowPoll := m.windowPoll
	m.mu.Unlock()

	window, err := m.browser.Open(url, provider.WindowName)
	if errors.Is(err, domain.ErrPopupBlocked) {
		// No window: hand the URL to the user and keep waiting for the
		// completion event.
		logger.Warn("authorisation window blocked for %s, surfacing URL", key)
		if m.fallback != nil {
			m.fallback(key, url)
		}
		window = nil
	} else if err != nil {
		return fmt.Errorf("open authorisation window for %s: %w", key, err)
	}

	flow := &authFlow{
		key:    key,
		window: window,
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}

	m.mu.Lock()
	m.flows[flowKey] = flow
	m.mu.Unlock()

	logger.Info("authorisation started for %s", key)
	m.wg.Add(1)
	go m.watch(ctx, flowKey, flow, windowPoll)
	return nil
}

// watch supervises one flow until completion, abandonment, or shutdown.
func (m *AuthFlowManager) watch(ctx context.Context, flowKey string, flow *authFlow, windowPoll time.Duration) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		if m.flows[flowKey] == flow {
			delete(m.flows, flowKey)
		}
		m.mu.Unlock()
	}()

	ticker := m.clock.NewTicker(windowPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-flow.cancel:
			return
		case <-flow.done:
			if flow.window != nil {
				if err := flow.window.Close(); err != nil {
					logger.Debug("close authorisation window for %s: %v", flow.key, err)
				}
			}
			logger.Info("authorisation complete for %s", flow.key)
			if m.onComplete != nil {
				m.onComplete(flow.key)
			}
			return
		case <-ticker.C():
			if flow.window != nil && flow.window.Closed() {
				// Abandoned: free the flow so the user can retry.
				logger.Info("authorisation window closed for %s", flow.key)
				return
			}
		}
	}
}
