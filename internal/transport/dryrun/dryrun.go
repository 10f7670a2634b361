// Package dryrun provides a transport binding that logs messages instead of
// delivering them. It is always connected.
package dryrun

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/JonMunkholm/bulksend/internal/transport"
)

// Sender logs every message and reports success.
type Sender struct {
	state *transport.State
	log   *slog.Logger
	sent  atomic.Int64
}

// New returns a connected dry-run sender.
func New(log *slog.Logger) *Sender {
	if log == nil {
		log = slog.Default()
	}
	state := transport.NewState()
	state.SetConnected(true, "dry-run")
	return &Sender{
		state: state,
		log:   log.With("component", "dryrun"),
	}
}

// State returns the always-connected state.
func (s *Sender) State() *transport.State {
	return s.state
}

// Send implements transport.Sender.
func (s *Sender) Send(ctx context.Context, phone, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sent.Add(1)
	s.log.Info("dry-run send", "phone", phone, "chars", len([]rune(text)))
	return nil
}

// Count returns how many messages have been "sent".
func (s *Sender) Count() int64 {
	return s.sent.Load()
}
