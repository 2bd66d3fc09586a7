// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package linebuf holds the line the user is currently composing.
//
// The buffer is shared between the key event processor (writer), the inbound
// event printer (reader) and the command dispatcher (reader and clearer).
// Every operation takes the lock exactly once, so a reader never sees a
// half-applied insert or remove.
package linebuf

import "sync"

// =============================================================================
// STATE
// =============================================================================

// State is a consistent copy of the buffer contents and cursor.
type State struct {
	Content []rune
	Cursor  int
}

// String returns the content as a string.
func (s State) String() string {
	return string(s.Content)
}

// Empty reports whether the state holds no runes.
func (s State) Empty() bool {
	return len(s.Content) == 0
}

// Tail returns the runes from the cursor to the end of the line.
func (s State) Tail() []rune {
	return s.Content[s.Cursor:]
}

// =============================================================================
// BUFFER
// =============================================================================

// Buffer is a cursor-tracked rune buffer guarded by a reader/writer lock.
//
// Invariant: 0 <= cursor <= len(content).
type Buffer struct {
	mu      sync.RWMutex
	content []rune
	cursor  int
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Insert places r at the cursor and advances the cursor by one.
// The returned state reflects the buffer after the insert.
func (b *Buffer) Insert(r rune) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.content = append(b.content, 0)
	copy(b.content[b.cursor+1:], b.content[b.cursor:])
	b.content[b.cursor] = r
	b.cursor++

	return b.stateLocked()
}

// RemoveBefore deletes the rune immediately before the cursor (backspace).
// Returns the removed rune and true, or false when the cursor is at 0.
func (b *Buffer) RemoveBefore() (rune, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cursor == 0 {
		return 0, false
	}

	removed := b.content[b.cursor-1]
	b.content = append(b.content[:b.cursor-1], b.content[b.cursor:]...)
	b.cursor--
	return removed, true
}

// MoveCursor shifts the cursor by delta. A move that would leave
// [0, len] is a no-op and returns false.
func (b *Buffer) MoveCursor(delta int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.cursor + delta
	if next < 0 || next > len(b.content) {
		return false
	}
	b.cursor = next
	return true
}

// Snapshot returns the current content without modifying the buffer.
func (b *Buffer) Snapshot() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.content)
}

// State returns a copy of content and cursor taken under one read lock.
func (b *Buffer) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stateLocked()
}

// TakeAndClear returns the content and resets the buffer to empty with the
// cursor at 0, as one atomic step.
func (b *Buffer) TakeAndClear() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	taken := string(b.content)
	b.content = b.content[:0]
	b.cursor = 0
	return taken
}

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.content)
}

// Cursor returns the cursor index.
func (b *Buffer) Cursor() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// IsEmpty reports whether the buffer holds no runes.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.content) == 0
}

func (b *Buffer) stateLocked() State {
	content := make([]rune, len(b.content))
	copy(content, b.content)
	return State{Content: content, Cursor: b.cursor}
}
