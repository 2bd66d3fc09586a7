// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch takes command lines out of the shared line buffer when the
// editor fires the command trigger, and runs them one at a time.
package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/b-dont/tuitch/internal/broadcast"
	"github.com/b-dont/tuitch/internal/chat"
	"github.com/b-dont/tuitch/internal/linebuf"
)

// Request is one command handed to an Executor.
type Request struct {
	Line       string // Command line with the prefix stripped
	Channel    string // Channel current when the command was taken
	ConfigPath string // Path of the loaded configuration file
}

// Executor runs a command line.
type Executor interface {
	Execute(ctx context.Context, req Request) error
}

// Notifier prints a line in the chat stream.
type Notifier interface {
	Notice(text string)
}

// Options configures a Dispatcher. Trigger, Buffer, Identity and Executor
// are required.
type Options struct {
	Trigger    *broadcast.Trigger
	Buffer     *linebuf.Buffer
	Identity   *chat.Identity
	Executor   Executor
	Notifier   Notifier
	Logger     *zap.Logger
	Prefix     rune
	ConfigPath string
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher serialises command execution: it does not take the next pulse
// until the current command returned.
type Dispatcher struct {
	listener   *broadcast.Listener
	buf        *linebuf.Buffer
	identity   *chat.Identity
	exec       Executor
	notifier   Notifier
	logger     *zap.Logger
	prefix     string
	configPath string
}

// New creates a dispatcher and subscribes it to the trigger, so pulses fired
// after New returns are never missed.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		listener:   opts.Trigger.Subscribe(),
		buf:        opts.Buffer,
		identity:   opts.Identity,
		exec:       opts.Executor,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		prefix:     string(opts.Prefix),
		configPath: opts.ConfigPath,
	}
	if opts.Prefix == 0 {
		d.prefix = ":"
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.logger = d.logger.Named("dispatch")
	return d
}

// Run waits for pulses until shutdown or the trigger closes. A command that
// is running when shutdown fires runs to completion first.
func (d *Dispatcher) Run(ctx context.Context, shutdown *broadcast.Subscription) error {
	defer d.listener.Close()

	for {
		select {
		case <-shutdown.Done():
			d.logger.Debug("dispatcher observed shutdown")
			return nil

		case pulse, ok := <-d.listener.C():
			if !ok {
				d.logger.Debug("command trigger closed")
				return nil
			}
			if shutdown.Raised() {
				pulse.Ack()
				return nil
			}

			line := d.buf.TakeAndClear()
			pulse.Ack()
			d.dispatch(ctx, line)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, line string) {
	req := Request{
		Line:       strings.TrimPrefix(line, d.prefix),
		Channel:    d.identity.Channel(),
		ConfigPath: d.configPath,
	}
	d.logger.Debug("dispatching command", zap.String("line", req.Line), zap.String("channel", req.Channel))

	if err := d.exec.Execute(context.WithoutCancel(ctx), req); err != nil {
		d.logger.Info("command failed", zap.String("line", req.Line), zap.Error(err))
		if d.notifier != nil {
			d.notifier.Notice(err.Error())
		}
	}
}
