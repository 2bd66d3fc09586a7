// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broadcast

import (
	"sync"
	"sync/atomic"
)

// =============================================================================
// PULSE
// =============================================================================

// Pulse is one firing of a Trigger as seen by a listener. The listener calls
// Ack once it has taken what the pulse announced.
type Pulse struct {
	once      *sync.Once
	remaining *atomic.Int32
	acked     chan struct{}
}

// Ack acknowledges the pulse. Calling it more than once is a no-op.
func (p *Pulse) Ack() {
	p.once.Do(func() {
		if p.remaining.Add(-1) == 0 {
			close(p.acked)
		}
	})
}

// =============================================================================
// TRIGGER
// =============================================================================

// Trigger is a repeatable broadcast: every Fire delivers a Pulse to each
// subscribed listener and waits until all of them acknowledge it.
type Trigger struct {
	mu        sync.Mutex
	listeners map[*Listener]struct{}
	closed    bool
}

// NewTrigger creates a trigger with no listeners.
func NewTrigger() *Trigger {
	return &Trigger{listeners: make(map[*Listener]struct{})}
}

// Listener receives pulses from a Trigger.
type Listener struct {
	c chan *Pulse
	t *Trigger
}

// Subscribe registers a new listener. Subscribing to a closed trigger
// returns a listener whose channel is already closed.
func (t *Trigger) Subscribe() *Listener {
	l := &Listener{c: make(chan *Pulse, 1), t: t}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(l.c)
		return l
	}
	t.listeners[l] = struct{}{}
	return l
}

// C returns the pulse channel. It is closed when the listener or the
// trigger is closed.
func (l *Listener) C() <-chan *Pulse {
	return l.c
}

// Close unsubscribes the listener.
func (l *Listener) Close() {
	l.t.mu.Lock()
	defer l.t.mu.Unlock()
	if _, ok := l.t.listeners[l]; ok {
		delete(l.t.listeners, l)
		close(l.c)
	}
}

// Fire delivers a pulse to every listener and blocks until each has called
// Ack, or done is closed (ErrAbandoned). With no listeners left it returns
// ErrClosed.
func (t *Trigger) Fire(done <-chan struct{}) error {
	t.mu.Lock()
	if t.closed || len(t.listeners) == 0 {
		t.mu.Unlock()
		return ErrClosed
	}
	targets := make([]*Listener, 0, len(t.listeners))
	for l := range t.listeners {
		targets = append(targets, l)
	}

	remaining := new(atomic.Int32)
	remaining.Store(int32(len(targets)))
	acked := make(chan struct{})

	// Deliver while holding the lock so Close cannot close a channel
	// mid-send. The per-listener buffer holds one pending pulse; a listener
	// that has not drained its previous pulse makes Fire wait on done.
	for _, l := range targets {
		p := &Pulse{once: new(sync.Once), remaining: remaining, acked: acked}
		select {
		case l.c <- p:
		case <-done:
			t.mu.Unlock()
			return ErrAbandoned
		}
	}
	t.mu.Unlock()

	select {
	case <-acked:
		return nil
	case <-done:
		return ErrAbandoned
	}
}

// Close closes every listener. Later Fire calls return ErrClosed.
func (t *Trigger) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for l := range t.listeners {
		close(l.c)
		delete(t.listeners, l)
	}
}
