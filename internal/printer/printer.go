// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package printer renders inbound chat events around the line the user is
// still typing.
package printer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/b-dont/tuitch/internal/broadcast"
	"github.com/b-dont/tuitch/internal/chat"
	"github.com/b-dont/tuitch/internal/linebuf"
	"github.com/b-dont/tuitch/internal/screen"
)

// Formatter turns an event into a display line. An empty result means the
// event is not shown.
type Formatter interface {
	Format(e chat.Event) string
}

// =============================================================================
// PRINTER
// =============================================================================

// Printer owns the inbound side of the terminal. Every line it writes is a
// single screen unit, so it never splits an editor echo.
type Printer struct {
	screen *screen.Screen
	buf    *linebuf.Buffer
	format Formatter
	logger *zap.Logger
}

// New creates a printer. buf is only read.
func New(scr *screen.Screen, buf *linebuf.Buffer, format Formatter, logger *zap.Logger) *Printer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Printer{
		screen: scr,
		buf:    buf,
		format: format,
		logger: logger.Named("printer"),
	}
}

// Run prints events until the feed closes or shutdown is raised. Events
// still queued when shutdown fires are dropped.
func (p *Printer) Run(events <-chan chat.Event, shutdown *broadcast.Subscription) error {
	for {
		select {
		case <-shutdown.Done():
			p.logger.Debug("printer observed shutdown")
			return nil

		case e, ok := <-events:
			if !ok {
				p.logger.Debug("event feed closed")
				return nil
			}
			if shutdown.Raised() {
				return nil
			}
			text := p.format.Format(e)
			if text == "" {
				p.logger.Debug("event not shown", zap.Stringer("kind", e.Kind))
				continue
			}
			p.Print(text)
		}
	}
}

// Notice prints a locally produced line, such as a failed send or command
// output, in the chat stream.
func (p *Printer) Notice(text string) {
	p.Print(text)
}

// Print writes text as its own line above the pending input. The line is
// followed by a blank continuation line; when the user has typed something,
// it is redrawn there with the cursor restored to where it was.
func (p *Printer) Print(text string) {
	text = strings.ReplaceAll(strings.TrimRight(text, "\r\n"), "\n", "\r\n")

	err := p.screen.Update(func(f *screen.Frame) {
		f.ClearLine()
		f.Text(text)
		f.NewLine()

		st := p.buf.State()
		if st.Empty() {
			return
		}
		f.Runes(st.Content)
		f.Left(screen.RunesWidth(st.Tail()))
	})
	if err != nil {
		p.logger.Debug("print failed", zap.Error(err))
	}
}
