// Package browser opens authorisation windows through the system
// browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
)

// Ensure Opener implements the interface.
var _ driven.Browser = (*Opener)(nil)

// Opener launches URLs with the platform's opener command. The system
// browser decides how named windows behave; the opener tracks the
// launched process per window name so repeated attempts for the same
// provider reuse one handle instead of stacking processes.
type Opener struct {
	mu      sync.Mutex
	windows map[string]*window
}

// NewOpener creates a system browser opener.
func NewOpener() *Opener {
	return &Opener{windows: make(map[string]*window)}
}

// Open launches the URL. The window handle reports closed once the
// opener process has exited and no newer open superseded it.
func (o *Opener) Open(url, windowName string) (driven.AuthWindow, error) {
	cmd, err := openCommand(url)
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPopupBlocked, err)
	}

	w := &window{}
	go func() {
		// The opener command returns as soon as the browser takes the
		// URL; treat a failed handoff as a closed window.
		if err := cmd.Wait(); err != nil {
			w.markClosed()
		}
	}()

	o.mu.Lock()
	o.windows[windowName] = w
	o.mu.Unlock()
	return w, nil
}

// window is a best-effort handle to a launched browser window. The
// system browser offers no real close signal for a tab it owns, so
// Closed only reports handoff failures and explicit Close calls; flows
// normally resolve through the auth-complete event instead.
type window struct {
	mu     sync.Mutex
	closed bool
}

func (w *window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *window) Close() error {
	w.markClosed()
	return nil
}

func (w *window) markClosed() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// openCommand builds the platform opener invocation.
func openCommand(url string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
