package driven

// AuthWindow is a handle to an opened authorisation window.
type AuthWindow interface {
	// Closed reports whether the window has been closed by the user.
	Closed() bool

	// Close closes the window if it is still open.
	Close() error
}

// Browser opens authorisation windows. Windows are opened with a fixed
// target name per provider so repeated attempts refocus rather than
// spawn duplicates.
//
// Open returns domain.ErrPopupBlocked when no window can be created;
// callers then surface the URL to the user verbatim.
type Browser interface {
	Open(url, windowName string) (AuthWindow, error)
}
