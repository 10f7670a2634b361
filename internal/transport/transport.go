// Package transport defines the messaging capability the dispatch engine
// consumes and the connection state shared by its bindings.
//
// A binding (see the gateway and dryrun subpackages) owns a *State and keeps
// it current; callers only read it to decide whether sends may start.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotConnected is returned by bindings asked to send while disconnected.
var ErrNotConnected = errors.New("transport not connected")

// Sender delivers one text message to a phone number.
//
// Implementations must be safe for concurrent use: several uploads may be
// dispatching through the same Sender at once. Recipient addressing (for
// example appending a chat-domain suffix) is the binding's job; phone is
// passed as the validated digits-only string.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(ctx context.Context, phone, text string) error

// Send calls f(ctx, phone, text).
func (f SenderFunc) Send(ctx context.Context, phone, text string) error {
	return f(ctx, phone, text)
}

// Snapshot is a point-in-time copy of a State.
type Snapshot struct {
	Connected bool      `json:"connected"`
	User      string    `json:"user,omitempty"`
	QR        string    `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// State is the connection state of a transport binding.
type State struct {
	mu        sync.RWMutex
	connected bool
	user      string
	qr        string
	updatedAt time.Time
}

// NewState returns a disconnected State.
func NewState() *State {
	return &State{}
}

// SetConnected records whether the binding can accept sends. Connecting
// clears any pending pairing code; disconnecting forgets the identity.
func (s *State) SetConnected(connected bool, user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
	if connected {
		s.user = user
		s.qr = ""
	} else {
		s.user = ""
	}
	s.updatedAt = time.Now()
}

// SetQR stores the latest pairing code reported by the transport.
func (s *State) SetQR(qr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qr = qr
	s.updatedAt = time.Now()
}

// Ready reports whether sends may start.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Connected: s.connected,
		User:      s.user,
		QR:        s.qr,
		UpdatedAt: s.updatedAt,
	}
}
