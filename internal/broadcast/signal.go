// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package broadcast provides the two signalling primitives shared by the
// terminal flows: a one-shot Signal used for shutdown and a repeatable
// Trigger used to hand the line buffer to the command dispatcher.
package broadcast

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned when the other side of a signal is gone.
	// Callers treat it as "peer already shutting down".
	ErrClosed = errors.New("broadcast: closed")

	// ErrAbandoned is returned when the caller's done channel fired while
	// waiting on a peer.
	ErrAbandoned = errors.New("broadcast: wait abandoned")
)

// =============================================================================
// SIGNAL
// =============================================================================

// Signal is an idempotent broadcast latch with no payload. Raising it
// releases every current and future subscriber exactly once.
type Signal struct {
	once sync.Once
	done chan struct{}

	mu     sync.Mutex
	reason string
}

// NewSignal creates a signal that has not been raised.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Raise fires the signal. Only the first call has an effect; it returns true
// for that call and false for every later one.
func (s *Signal) Raise(reason string) bool {
	raised := false
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		close(s.done)
		raised = true
	})
	return raised
}

// Raised reports whether Raise has been called.
func (s *Signal) Raised() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Reason returns the reason passed to the first Raise, or "".
func (s *Signal) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Done returns a channel closed when the signal is raised.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Subscribe returns an independent observer handle. Handles are cheap; each
// flow takes its own so its wait points read as "my shutdown".
func (s *Signal) Subscribe(name string) *Subscription {
	return &Subscription{name: name, sig: s}
}

// Subscription observes a Signal.
type Subscription struct {
	name string
	sig  *Signal
}

// Name identifies the observing flow.
func (s *Subscription) Name() string {
	return s.name
}

// Done returns a channel closed when the signal is raised.
func (s *Subscription) Done() <-chan struct{} {
	return s.sig.done
}

// Raised reports whether the signal has fired.
func (s *Subscription) Raised() bool {
	return s.sig.Raised()
}

// Raise fires the underlying signal on behalf of this subscriber.
func (s *Subscription) Raise(reason string) bool {
	return s.sig.Raise(reason)
}
