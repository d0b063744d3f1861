package domain

// PushEvent is one message from the real-time channel. Events for the
// same ActionKey are applied in arrival order.
type PushEvent interface {
	// EventKey identifies the source the event belongs to.
	EventKey() ActionKey
}

// StatusEvent is a per-source status/result update pushed by the backend.
type StatusEvent struct {
	Key     ActionKey   `json:"key"`
	Status  SyncStatus  `json:"sync_status"`
	Results SyncResults `json:"sync_results"`
}

// EventKey implements PushEvent.
func (e StatusEvent) EventKey() ActionKey { return e.Key }

// ProgressEvent is a per-source progress update pushed by the backend.
type ProgressEvent struct {
	Key    ActionKey      `json:"key"`
	Update ProgressUpdate `json:"update"`
}

// EventKey implements PushEvent.
func (e ProgressEvent) EventKey() ActionKey { return e.Key }

// AuthEvent signals that the user completed authorisation for a
// provider/layer in the authorisation window.
type AuthEvent struct {
	Key ActionKey `json:"key"`
}

// EventKey implements PushEvent.
func (e AuthEvent) EventKey() ActionKey { return e.Key }

// SyncAck is the backend's response to a manual sync trigger. Exactly
// one of the three shapes applies: a plain acknowledgement, an
// already-in-progress message, or a reauth indicator.
type SyncAck struct {
	// Started is true when the backend accepted the trigger and a job
	// is starting.
	Started bool `json:"started"`

	// Message is set when the backend declined the trigger (typically
	// "sync already in progress"). Shown to the user verbatim.
	Message string `json:"message,omitempty"`

	// ReauthURL is set when the provider needs re-authorisation before
	// the sync can run. Routed to the reauth flow, never treated as an
	// error.
	ReauthURL string `json:"reauth_url,omitempty"`
}
