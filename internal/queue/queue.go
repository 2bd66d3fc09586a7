// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package queue provides the unbounded forwarding queue between the blocking
// keystroke reader and the key event processor.
package queue

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by Pop once the queue is closed and drained.
	ErrClosed = errors.New("queue closed")

	// ErrDone is returned by Pop when the caller's done channel fires first.
	ErrDone = errors.New("queue wait abandoned")
)

// Queue is a FIFO with no capacity limit. Push never blocks.
// It is designed for a single consumer.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	// ready holds at most one wake-up token for the consumer.
	ready chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push appends v. Returns false if the queue is already closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.wake()
	return true
}

// Close marks the queue closed. Items already queued are still delivered.
// Closing twice is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

// Pop blocks until an item is available, the queue is closed and empty
// (ErrClosed), or done is closed (ErrDone).
func (q *Queue[T]) Pop(done <-chan struct{}) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return v, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, ErrClosed
		}
		q.mu.Unlock()

		select {
		case <-done:
			return zero, ErrDone
		case <-q.ready:
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
