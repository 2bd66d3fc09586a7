// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keys

import (
	"errors"
	"io"

	"github.com/muesli/cancelreader"
	"go.uber.org/zap"

	"github.com/b-dont/tuitch/internal/queue"
)

// readSize is the per-read chunk; a keystroke or a short paste fits easily.
const readSize = 256

// =============================================================================
// SOURCE
// =============================================================================

// Source owns the blocking read on the terminal input. Run it on its own
// goroutine; it forwards decoded keys into an unbounded queue and closes the
// queue when input ends.
//
// When the input supports it (a tty or pipe on Linux, macOS and the BSDs)
// the read is wrapped in a cancelreader so Cancel can unblock it. Otherwise
// Cancel returns false and the goroutine stays parked in Read until the next
// keystroke or process exit.
type Source struct {
	rd     io.Reader
	cr     cancelreader.CancelReader
	out    *queue.Queue[Key]
	logger *zap.Logger
	done   chan struct{}
}

// NewSource wraps in. A nil logger is replaced with a no-op logger.
func NewSource(in io.Reader, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Source{
		rd:     in,
		out:    queue.New[Key](),
		logger: logger.Named("keys"),
		done:   make(chan struct{}),
	}

	cr, err := cancelreader.NewReader(in)
	if err != nil {
		s.logger.Warn("input is not cancellable; shutdown may wait for a keystroke", zap.Error(err))
	} else {
		s.cr = cr
		s.rd = cr
	}
	return s
}

// Queue returns the queue keys are forwarded into.
func (s *Source) Queue() *queue.Queue[Key] {
	return s.out
}

// Done is closed once Run has returned.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// Run reads until EOF, a read error or Cancel. It always closes the queue
// before returning. EOF and cancellation return nil.
func (s *Source) Run() error {
	defer close(s.done)
	defer s.out.Close()

	var dec Decoder
	buf := make([]byte, readSize)
	for {
		n, err := s.rd.Read(buf)
		if n > 0 {
			for _, k := range dec.Feed(buf[:n]) {
				s.out.Push(k)
			}
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, cancelreader.ErrCanceled):
			s.logger.Debug("keystroke source cancelled")
			return nil
		case errors.Is(err, io.EOF):
			s.logger.Debug("keystroke source reached end of input")
			return nil
		default:
			s.logger.Warn("keystroke source read failed", zap.Error(err))
			return err
		}
	}
}

// Cancel asks a blocked Run to return. It reports whether the underlying
// reader could be cancelled.
func (s *Source) Cancel() bool {
	if s.cr == nil {
		return false
	}
	return s.cr.Cancel()
}

// Close releases the cancel reader's resources. Call after Run returned.
func (s *Source) Close() error {
	if s.cr == nil {
		return nil
	}
	return s.cr.Close()
}
