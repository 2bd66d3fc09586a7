// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor is the key event processor: it applies keystrokes to the
// shared line buffer, echoes them, and turns a completed line into either a
// chat message or a command handoff.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/b-dont/tuitch/internal/broadcast"
	"github.com/b-dont/tuitch/internal/chat"
	"github.com/b-dont/tuitch/internal/keys"
	"github.com/b-dont/tuitch/internal/linebuf"
	"github.com/b-dont/tuitch/internal/queue"
	"github.com/b-dont/tuitch/internal/screen"
)

const (
	// DefaultPrefix marks a line as a command.
	DefaultPrefix = ':'

	// DefaultSendTimeout bounds one outgoing message, including the wait
	// for the rate limiter.
	DefaultSendTimeout = 10 * time.Second
)

// Sender delivers a chat message on behalf of user to channel.
type Sender interface {
	Send(ctx context.Context, user, channel, text string) error
}

// Notifier prints a line in the chat stream.
type Notifier interface {
	Notice(text string)
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Options configures a Processor. Keys, Buffer, Screen, Trigger, Sender and
// Identity are required.
type Options struct {
	Keys     *queue.Queue[keys.Key]
	Buffer   *linebuf.Buffer
	Screen   *screen.Screen
	Trigger  *broadcast.Trigger
	Sender   Sender
	Identity *chat.Identity
	Notifier Notifier
	Logger   *zap.Logger

	Prefix      rune          // Defaults to DefaultPrefix
	SendTimeout time.Duration // Defaults to DefaultSendTimeout
}

// Processor consumes key events in arrival order. It is the only writer of
// the line buffer apart from the dispatcher's take-and-clear, which happens
// while the processor waits on the trigger.
type Processor struct {
	keys     *queue.Queue[keys.Key]
	buf      *linebuf.Buffer
	screen   *screen.Screen
	trigger  *broadcast.Trigger
	sender   Sender
	identity *chat.Identity
	notifier Notifier
	logger   *zap.Logger

	prefix      rune
	sendTimeout time.Duration
}

// New creates a processor from opts.
func New(opts Options) *Processor {
	p := &Processor{
		keys:        opts.Keys,
		buf:         opts.Buffer,
		screen:      opts.Screen,
		trigger:     opts.Trigger,
		sender:      opts.Sender,
		identity:    opts.Identity,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		prefix:      opts.Prefix,
		sendTimeout: opts.SendTimeout,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.Named("editor")
	if p.prefix == 0 {
		p.prefix = DefaultPrefix
	}
	if p.sendTimeout <= 0 {
		p.sendTimeout = DefaultSendTimeout
	}
	return p
}

// Run processes keys until Ctrl+C, the key queue closing, or shutdown. The
// first two raise shutdown themselves. An in-flight send or command
// handoff completes before shutdown is observed.
func (p *Processor) Run(ctx context.Context, shutdown *broadcast.Subscription) error {
	for {
		k, err := p.keys.Pop(shutdown.Done())
		switch {
		case errors.Is(err, queue.ErrDone):
			p.logger.Debug("editor observed shutdown")
			return nil
		case errors.Is(err, queue.ErrClosed):
			p.logger.Info("keystroke source closed")
			shutdown.Raise("keystroke source closed")
			return nil
		case err != nil:
			return err
		}

		if shutdown.Raised() {
			return nil
		}
		if !p.handle(ctx, k, shutdown) {
			return nil
		}
	}
}

// handle applies one key. It returns false when the processor must stop.
func (p *Processor) handle(ctx context.Context, k keys.Key, shutdown *broadcast.Subscription) bool {
	switch k.Kind {
	case keys.KindRune:
		p.insert(k.Rune)
	case keys.KindEnter:
		return p.enter(ctx, shutdown)
	case keys.KindLeft:
		p.move(-1)
	case keys.KindRight:
		p.move(1)
	case keys.KindBackspace:
		p.backspace()
	case keys.KindInterrupt:
		p.logger.Info("interrupt key pressed")
		shutdown.Raise("interrupt")
		return false
	default:
		p.logger.Debug("ignoring key", zap.Stringer("key", k))
	}
	return true
}

// =============================================================================
// EDITING
// =============================================================================

// insert places r at the cursor. At the end of the line only r is echoed;
// in the middle the rest of the line is redrawn and the terminal cursor
// walks back over it.
func (p *Processor) insert(r rune) {
	p.update(func(f *screen.Frame) {
		st := p.buf.Insert(r)
		if len(st.Content) == 1 {
			// Fresh line: wipe whatever a previous line left behind.
			f.ClearToEOL()
		}
		f.Runes(st.Content[st.Cursor-1:])
		f.Left(screen.RunesWidth(st.Tail()))
	})
}

// move shifts the cursor by one rune and the terminal cursor by that rune's
// display width. Moves past either end do nothing.
func (p *Processor) move(delta int) {
	p.update(func(f *screen.Frame) {
		before := p.buf.State()
		if !p.buf.MoveCursor(delta) {
			return
		}
		if delta < 0 {
			f.Left(screen.RuneWidth(before.Content[before.Cursor-1]))
		} else {
			f.Right(screen.RuneWidth(before.Content[before.Cursor]))
		}
	})
}

// backspace removes the rune before the cursor and redraws the tail.
func (p *Processor) backspace() {
	p.update(func(f *screen.Frame) {
		before := p.buf.State()
		r, ok := p.buf.RemoveBefore()
		if !ok {
			return
		}
		f.Left(screen.RuneWidth(r))
		f.ClearToEOL()
		if tail := before.Tail(); len(tail) > 0 {
			f.Runes(tail)
			f.Left(screen.RunesWidth(tail))
		}
		if len(before.Content) == 1 {
			f.NewLine()
		}
	})
}

// =============================================================================
// SUBMIT
// =============================================================================

// enter submits the line. Command lines are handed to the dispatcher through
// the trigger; everything else is sent to the current channel. Returns
// false when shutdown interrupted the handoff.
func (p *Processor) enter(ctx context.Context, shutdown *broadcast.Subscription) bool {
	st := p.buf.State()
	if st.Empty() {
		return true
	}

	if st.Content[0] == p.prefix {
		if !p.handoff(shutdown) {
			return false
		}
	} else {
		p.send(ctx, p.buf.TakeAndClear())
	}

	p.update(func(f *screen.Frame) {
		f.NewLine()
	})
	return true
}

// handoff fires the command trigger and waits for the dispatcher to take
// the buffer.
func (p *Processor) handoff(shutdown *broadcast.Subscription) bool {
	err := p.trigger.Fire(shutdown.Done())
	switch {
	case err == nil:
		return true
	case errors.Is(err, broadcast.ErrAbandoned):
		p.logger.Debug("command handoff abandoned for shutdown")
		return false
	default:
		// Dispatcher already gone; keep the buffer contract by clearing it.
		line := p.buf.TakeAndClear()
		p.logger.Warn("command dispatcher unavailable", zap.String("line", line), zap.Error(err))
		p.notice("Commands are unavailable right now.")
		return true
	}
}

func (p *Processor) send(ctx context.Context, text string) {
	channel := p.identity.Channel()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.sendTimeout)
	defer cancel()

	if err := p.sender.Send(ctx, p.identity.User(), channel, text); err != nil {
		p.logger.Warn("send failed", zap.String("channel", channel), zap.Error(err))
		p.notice(fmt.Sprintf("Failed to send message: %v", err))
		return
	}
	p.logger.Debug("message sent", zap.String("channel", channel), zap.Int("runes", len([]rune(text))))
}

// =============================================================================
// HELPERS
// =============================================================================

func (p *Processor) update(fn func(f *screen.Frame)) {
	if err := p.screen.Update(fn); err != nil {
		p.logger.Debug("echo write failed", zap.Error(err))
	}
}

func (p *Processor) notice(text string) {
	if p.notifier != nil {
		p.notifier.Notice(text)
	}
}
