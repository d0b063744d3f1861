// Package stream provides the websocket adapter for the backend's
// real-time push channel.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
	"github.com/nethopper2/datasync/internal/logger"
)

// Ensure Stream implements the interface.
var _ driven.EventStream = (*Stream)(nil)

// Named events on the push channel.
const (
	eventSourceStatus   = "source-status"
	eventSourceProgress = "source-progress"
	eventAuthComplete   = "auth-complete"
)

// Default configuration values.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReconnectDelay   = 5 * time.Second
)

// Config holds configuration for the stream.
type Config struct {
	// URL is the backend base URL (required). http/https schemes are
	// rewritten to ws/wss.
	URL string

	// Token authenticates the connection. Empty disables the header.
	Token string

	// HandshakeTimeout bounds the dial (default: 10s).
	HandshakeTimeout time.Duration

	// ReconnectDelay is the pause before redialling after a dropped
	// connection (default: 5s).
	ReconnectDelay time.Duration
}

// Stream is the websocket implementation of driven.EventStream. A
// dropped connection is redialled until the context is cancelled or
// Close is called; the event channel stays open across reconnects.
type Stream struct {
	url              string
	token            string
	handshakeTimeout time.Duration
	reconnectDelay   time.Duration

	events chan domain.PushEvent

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	stopCh chan struct{}
}

// wireMessage is the push channel envelope: a named event plus its
// payload.
type wireMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// wireIdentity is the source identity every payload carries.
type wireIdentity struct {
	Action string `json:"action"`
	Layer  string `json:"layer"`
}

// wireStatus is the source-status payload.
type wireStatus struct {
	wireIdentity
	SyncStatus  domain.SyncStatus  `json:"sync_status"`
	SyncResults domain.SyncResults `json:"sync_results"`
}

// wireProgress is the source-progress payload. The update fields are
// pointers so absent fields stay absent through the merge.
type wireProgress struct {
	wireIdentity
	domain.ProgressUpdate
}

// New creates a stream over the backend's websocket endpoint.
func New(cfg Config) (*Stream, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("stream: URL is required")
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}

	url := cfg.URL
	url = strings.Replace(url, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)
	if !strings.HasSuffix(url, "/events") {
		url = strings.TrimSuffix(url, "/") + "/events"
	}

	return &Stream{
		url:              url,
		token:            cfg.Token,
		handshakeTimeout: cfg.HandshakeTimeout,
		reconnectDelay:   cfg.ReconnectDelay,
		events:           make(chan domain.PushEvent, 64),
		stopCh:           make(chan struct{}),
	}, nil
}

// Events returns the inbound event channel.
func (s *Stream) Events() <-chan domain.PushEvent {
	return s.events
}

// Run dials and pumps the connection, redialling on drops, until the
// context is cancelled or Close is called.
func (s *Stream) Run(ctx context.Context) error {
	for {
		if err := s.connect(ctx); err != nil {
			logger.Warn("event stream connect failed: %v", err)
		} else {
			s.pump(ctx)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

// Close tears the stream down and closes the event channel.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.stopCh)
	if s.conn != nil {
		_ = s.conn.Close()
	}
	close(s.events)
	return nil
}

// connect dials the backend and installs the connection.
func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.handshakeTimeout}

	var header http.Header
	if s.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + s.token}}
	}

	conn, _, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return domain.ErrStreamClosed
	}
	s.conn = conn
	s.mu.Unlock()

	logger.Debug("event stream connected to %s", s.url)
	return nil
}

// pump reads messages until the connection drops or the stream closes.
func (s *Stream) pump(ctx context.Context) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	// Unblock the read when the context goes away.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-s.stopCh:
		case <-done:
		}
	}()

	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil && !s.isClosed() {
				logger.Warn("event stream read failed, reconnecting: %v", err)
			}
			return
		}

		event, err := decodeEvent(msg)
		if err != nil {
			logger.Debug("dropping undecodable push event: %v", err)
			continue
		}
		if event == nil {
			continue
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// decodeEvent maps a wire message onto a domain push event. Unknown
// event names decode to nil and are skipped.
func decodeEvent(msg wireMessage) (domain.PushEvent, error) {
	switch msg.Event {
	case eventSourceStatus:
		var payload wireStatus
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Event, err)
		}
		return domain.StatusEvent{
			Key:     domain.ActionKey{Action: payload.Action, Layer: payload.Layer},
			Status:  payload.SyncStatus,
			Results: payload.SyncResults,
		}, nil

	case eventSourceProgress:
		var payload wireProgress
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Event, err)
		}
		return domain.ProgressEvent{
			Key:    domain.ActionKey{Action: payload.Action, Layer: payload.Layer},
			Update: payload.ProgressUpdate,
		}, nil

	case eventAuthComplete:
		var payload wireIdentity
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Event, err)
		}
		return domain.AuthEvent{
			Key: domain.ActionKey{Action: payload.Action, Layer: payload.Layer},
		}, nil

	default:
		return nil, nil
	}
}
