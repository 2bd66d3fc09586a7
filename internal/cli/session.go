// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"time"

	"github.com/muesli/termenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b-dont/tuitch/internal/broadcast"
	"github.com/b-dont/tuitch/internal/chat"
	"github.com/b-dont/tuitch/internal/commands"
	"github.com/b-dont/tuitch/internal/dispatch"
	"github.com/b-dont/tuitch/internal/editor"
	"github.com/b-dont/tuitch/internal/keys"
	"github.com/b-dont/tuitch/internal/linebuf"
	"github.com/b-dont/tuitch/internal/printer"
	"github.com/b-dont/tuitch/internal/screen"
)

// sourceGrace bounds how long teardown waits for the keystroke reader after
// cancelling it. A reader that cannot be cancelled is abandoned.
const sourceGrace = time.Second

// ChatClient is the connection a session drives.
type ChatClient interface {
	Events() <-chan chat.Event
	Run() error
	Send(ctx context.Context, user, channel, text string) error
	Join(ctx context.Context, channel string) error
	Part(ctx context.Context, channel string) error
	Close() error
}

// =============================================================================
// SESSION
// =============================================================================

// Session runs the three terminal flows against one chat connection:
// the key event processor, the inbound event printer and the command
// dispatcher. In and Out are the raw terminal.
type Session struct {
	In         io.Reader
	Out        io.Writer
	Client     ChatClient
	Identity   *chat.Identity
	Formatter  *chat.Formatter
	Prefix     rune
	ConfigPath string
	Logger     *zap.Logger

	// SendTimeout bounds one outgoing message; zero uses the editor default
	SendTimeout time.Duration

	shutdown *broadcast.Signal
}

// Shutdown returns the session's shutdown signal, creating it on first use.
// Raising it ends Run.
func (s *Session) Shutdown() *broadcast.Signal {
	if s.shutdown == nil {
		s.shutdown = broadcast.NewSignal()
	}
	return s.shutdown
}

// Run blocks until shutdown is raised and every flow has returned. Shutdown
// is raised by Ctrl+C, the :quit command, end of keyboard input, the chat
// connection closing, or ctx being cancelled. The first flow error, if any,
// is returned.
func (s *Session) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("session")
	sig := s.Shutdown()
	format := s.Formatter
	if format == nil {
		format = chat.NewFormatter(termenv.Ascii)
	}

	buf := linebuf.New()
	scr := screen.New(s.Out, logger)
	trig := broadcast.NewTrigger()
	src := keys.NewSource(s.In, logger)
	prn := printer.New(scr, buf, format, logger)

	exec := commands.NewExecutor(commands.NewRegistry(), &commands.Env{
		Client:   s.Client,
		Identity: s.Identity,
		Out:      prn,
		Quit:     sig,
		Prefix:   s.Prefix,
	}, logger)

	disp := dispatch.New(dispatch.Options{
		Trigger:    trig,
		Buffer:     buf,
		Identity:   s.Identity,
		Executor:   exec,
		Notifier:   prn,
		Logger:     logger,
		Prefix:     s.Prefix,
		ConfigPath: s.ConfigPath,
	})

	ed := editor.New(editor.Options{
		Keys:        src.Queue(),
		Buffer:      buf,
		Screen:      scr,
		Trigger:     trig,
		Sender:      s.Client,
		Identity:    s.Identity,
		Notifier:    prn,
		Logger:      logger,
		Prefix:      s.Prefix,
		SendTimeout: s.SendTimeout,
	})

	// The blocking readers live outside the group: they end on teardown.
	go func() {
		if err := src.Run(); err != nil {
			logger.Warn("keystroke source stopped", zap.Error(err))
		}
	}()
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		if err := s.Client.Run(); err != nil {
			logger.Warn("chat connection ended", zap.Error(err))
		}
	}()

	greet(prn, format, s.Identity, s.Prefix)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(sig, "editor", func() error {
		return ed.Run(gctx, sig.Subscribe("editor"))
	}))
	g.Go(guard(sig, "printer", func() error {
		err := prn.Run(s.Client.Events(), sig.Subscribe("printer"))
		sig.Raise("chat connection closed")
		return err
	}))
	g.Go(guard(sig, "dispatcher", func() error {
		return disp.Run(gctx, sig.Subscribe("dispatcher"))
	}))
	g.Go(func() error {
		select {
		case <-gctx.Done():
			sig.Raise("interrupted")
		case <-sig.Done():
		}
		return nil
	})

	err := g.Wait()
	logger.Info("session stopped", zap.String("reason", sig.Reason()), zap.Error(err))

	s.teardown(src, trig, scr, feedDone, logger)
	return err
}

func greet(prn *printer.Printer, format *chat.Formatter, id *chat.Identity, prefix rune) {
	if prefix == 0 {
		prefix = editor.DefaultPrefix
	}
	p := string(prefix)
	text := "Connected as " + id.User() + "."
	if ch := id.Channel(); ch != "" {
		text += " Chatting in " + ch + "."
	} else {
		text += " Use " + p + "join <channel> to start chatting."
	}
	text += " Type " + p + "help for commands."
	prn.Notice(format.Status(text))
}

// teardown releases everything Run started, in order: the keystroke reader,
// the command trigger, the chat connection, then the line the cursor is on.
func (s *Session) teardown(src *keys.Source, trig *broadcast.Trigger, scr *screen.Screen, feedDone <-chan struct{}, logger *zap.Logger) {
	if !src.Cancel() {
		logger.Debug("keystroke source is not cancellable")
	}
	select {
	case <-src.Done():
		if err := src.Close(); err != nil {
			logger.Debug("failed to release keystroke source", zap.Error(err))
		}
	case <-time.After(sourceGrace):
		logger.Warn("keystroke source did not stop; abandoning it")
	}

	trig.Close()

	if err := s.Client.Close(); err != nil {
		logger.Debug("failed to close chat connection", zap.Error(err))
	}
	<-feedDone

	if err := scr.Update(func(f *screen.Frame) { f.ClearLine() }); err != nil {
		logger.Debug("failed to clear input line", zap.Error(err))
	}
}

// guard runs fn, converting a panic into a *PanicError. Either failure
// raises shutdown so the remaining flows stop.
func guard(sig *broadcast.Signal, flow string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Flow: flow, Value: r}
			}
			if err != nil {
				sig.Raise(flow + " failed")
			}
		}()
		return fn()
	}
}
