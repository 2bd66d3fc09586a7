// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screen

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when raw mode is requested on a non-terminal.
var ErrNotTerminal = errors.New("not a terminal")

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// =============================================================================
// RAW MODE
// =============================================================================

// RawMode remembers the terminal state from before raw mode so it can be put
// back on every exit path.
type RawMode struct {
	fd    int
	state *term.State
	once  sync.Once
	err   error
}

// EnterRaw switches f to raw mode: no echo, no line discipline, no signal
// keys. Ctrl+C therefore reaches the keystroke source as a byte.
func EnterRaw(f *os.File) (*RawMode, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw mode: %w", err)
	}
	return &RawMode{fd: fd, state: state}, nil
}

// Restore puts the terminal back into its original mode. Safe to call more
// than once and on a nil receiver.
func (r *RawMode) Restore() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		if err := term.Restore(r.fd, r.state); err != nil {
			r.err = fmt.Errorf("failed to restore terminal: %w", err)
		}
	})
	return r.err
}
