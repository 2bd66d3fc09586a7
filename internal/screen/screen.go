// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package screen is the single terminal output sink shared by the editor and
// the inbound event printer.
//
// Output is written in units: a caller composes a Frame under the screen
// lock and the whole frame goes out in one Write, so two flows can never
// interleave inside one logical line.
package screen

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
)

// maxPending caps how many bytes of failed output are kept for retry.
const maxPending = 4096

// =============================================================================
// ERRORS
// =============================================================================

// WriteError reports a failed terminal write. It is recoverable: the bytes
// that did not make it out are retried in front of the next unit.
type WriteError struct {
	Written int   // Bytes of the unit that were written
	Total   int   // Size of the unit
	Err     error // Underlying error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("terminal write failed after %d/%d bytes: %v", e.Written, e.Total, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SCREEN
// =============================================================================

// Screen serialises whole-unit writes to the terminal.
type Screen struct {
	mu      sync.Mutex
	out     io.Writer
	logger  *zap.Logger
	pending []byte
}

// New creates a screen writing to out. A nil logger discards error reports.
func New(out io.Writer, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screen{out: out, logger: logger.Named("screen")}
}

// Update composes one unit with fn and writes it. fn runs with the screen
// lock held; it may take the line buffer lock but must not call back into
// the screen.
func (s *Screen) Update(fn func(f *Frame)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f Frame
	fn(&f)
	if f.b.Len() == 0 && len(s.pending) == 0 {
		return nil
	}

	unit := make([]byte, 0, len(s.pending)+f.b.Len())
	unit = append(unit, s.pending...)
	unit = append(unit, f.b.String()...)
	s.pending = nil

	n, err := s.out.Write(unit)
	if err == nil && n < len(unit) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.keepPendingLocked(unit[n:])
		werr := &WriteError{Written: n, Total: len(unit), Err: err}
		s.logger.Warn("terminal write failed", zap.Error(werr), zap.Int("pending", len(s.pending)))
		return werr
	}
	return nil
}

// Pending returns the number of bytes waiting to be retried.
func (s *Screen) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Screen) keepPendingLocked(rest []byte) {
	if len(rest) > maxPending {
		// Keep the newest output; the oldest is the least useful to replay.
		rest = rest[len(rest)-maxPending:]
	}
	s.pending = append([]byte(nil), rest...)
}

// =============================================================================
// FRAME
// =============================================================================

// Frame accumulates the bytes of one output unit.
type Frame struct {
	b strings.Builder
}

// Text writes s as-is.
func (f *Frame) Text(s string) {
	f.b.WriteString(s)
}

// Runes writes rs.
func (f *Frame) Runes(rs []rune) {
	for _, r := range rs {
		f.b.WriteRune(r)
	}
}

// ClearToEOL erases from the cursor to the end of the line.
func (f *Frame) ClearToEOL() {
	f.b.WriteString(ansi.EraseLineRight)
}

// ClearLine returns to column 0 and erases the whole line.
func (f *Frame) ClearLine() {
	f.b.WriteByte('\r')
	f.b.WriteString(ansi.EraseEntireLine)
}

// NewLine emits a blank continuation line: the cursor moves to column 0 of
// the next row. Raw mode disables output post-processing, hence the CR.
func (f *Frame) NewLine() {
	f.b.WriteString("\r\n")
}

// Left moves the cursor left by cols columns.
func (f *Frame) Left(cols int) {
	if cols > 0 {
		f.b.WriteString(ansi.CursorBackward(cols))
	}
}

// Right moves the cursor right by cols columns.
func (f *Frame) Right(cols int) {
	if cols > 0 {
		f.b.WriteString(ansi.CursorForward(cols))
	}
}

// Len returns the number of bytes composed so far.
func (f *Frame) Len() int {
	return f.b.Len()
}

// =============================================================================
// WIDTH
// =============================================================================

// RuneWidth returns the number of terminal columns r occupies.
func RuneWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// RunesWidth returns the number of terminal columns rs occupy.
func RunesWidth(rs []rune) int {
	w := 0
	for _, r := range rs {
		w += runewidth.RuneWidth(r)
	}
	return w
}
