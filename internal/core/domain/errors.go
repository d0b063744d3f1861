package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIllegalTransition indicates a sync status event that does not
	// match a legal edge of the state machine. The source status is
	// left unchanged.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrActionInFlight indicates an action for the same (action, layer)
	// key is already running. The second request is rejected, not queued.
	ErrActionInFlight = errors.New("action already in flight")

	// ErrReauthRequired indicates the provider needs re-authorisation
	// before a sync can start. Not a failure: callers route this to the
	// reauth flow.
	ErrReauthRequired = errors.New("re-authorisation required")

	// ErrPopupBlocked indicates an authorisation window could not be
	// opened. The authorisation URL should be shown to the user instead.
	ErrPopupBlocked = errors.New("authorisation window blocked")

	// ErrStreamClosed indicates the real-time event stream has been closed.
	ErrStreamClosed = errors.New("event stream closed")

	// ErrUnsupportedProvider indicates an unknown provider key.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)
