// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/b-dont/tuitch/internal/chat"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// ChannelClient is the part of the chat client the commands drive.
type ChannelClient interface {
	Join(ctx context.Context, channel string) error
	Part(ctx context.Context, channel string) error
}

// Notifier prints a line in the chat stream.
type Notifier interface {
	Notice(text string)
}

// Quitter ends the session.
type Quitter interface {
	Raise(reason string) bool
}

// defaultPrefix introduces a command when Env.Prefix is unset.
const defaultPrefix = ':'

// Env holds the long-lived collaborators command handlers act on.
type Env struct {
	Client   ChannelClient
	Identity *chat.Identity
	Out      Notifier
	Quit     Quitter
	Registry *Registry

	// Prefix is the rune that introduces a command, used in the messages
	// shown to the user; zero means ':'
	Prefix rune
}

func (e *Env) prefix() rune {
	return prefixOrDefault(e.Prefix)
}

func prefixOrDefault(p rune) rune {
	if p == 0 {
		return defaultPrefix
	}
	return p
}

// Context is handed to a handler for one invocation.
type Context struct {
	context.Context
	*Env

	// Channel is the channel that was current when the command was typed
	Channel string

	// ConfigPath is the configuration file the session was started with
	ConfigPath string

	Logger *zap.Logger
}

func (c *Context) notice(format string, args ...any) {
	if c.Out != nil {
		c.Out.Notice(fmt.Sprintf(format, args...))
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleJoin(ctx *Context, args []string) error {
	target := chat.NormalizeChannel(args[0])
	if target == "" {
		return &ValidationError{Command: "join", Arg: "channel", Message: "empty channel name", Prefix: ctx.prefix()}
	}
	current := ctx.Identity.Channel()
	if target == current {
		ctx.notice("Already in %s's chat.", target)
		return nil
	}

	if current != "" {
		if err := ctx.Client.Part(ctx, current); err != nil {
			return fmt.Errorf("failed to leave %s: %w", current, err)
		}
	}
	if err := ctx.Client.Join(ctx, target); err != nil {
		ctx.Identity.SetChannel("")
		return fmt.Errorf("failed to join %s: %w", target, err)
	}
	ctx.Identity.SetChannel(target)
	ctx.Logger.Info("switched channel", zap.String("from", current), zap.String("to", target))
	return nil
}

func handlePart(ctx *Context, _ []string) error {
	current := ctx.Identity.Channel()
	if current == "" {
		ctx.notice("Not in a channel.")
		return nil
	}
	if err := ctx.Client.Part(ctx, current); err != nil {
		return fmt.Errorf("failed to leave %s: %w", current, err)
	}
	ctx.Identity.SetChannel("")
	return nil
}

func handleChannel(ctx *Context, _ []string) error {
	if ctx.Channel != "" {
		ctx.notice("Chatting in %s as %s.", ctx.Channel, ctx.Identity.User())
	} else {
		ctx.notice("Not in a channel. Use %cjoin <channel>.", ctx.prefix())
	}
	return nil
}

func handleConfig(ctx *Context, _ []string) error {
	if ctx.ConfigPath == "" {
		ctx.notice("No configuration file; settings came from flags and the environment.")
		return nil
	}
	ctx.notice("Configuration: %s", ctx.ConfigPath)
	return nil
}

func handleHelp(ctx *Context, _ []string) error {
	p := string(ctx.prefix())
	var b strings.Builder
	b.WriteString("Commands:")
	for _, cmd := range ctx.Registry.All() {
		if cmd.Hidden {
			continue
		}
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		fmt.Fprintf(&b, "\n  %s%-16s %s", p, usage, cmd.Description)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&b, " (also %s%s)", p, strings.Join(cmd.Aliases, ", "+p))
		}
	}
	b.WriteString("\nCtrl+C also exits.")
	ctx.notice("%s", b.String())
	return nil
}

func handleQuit(ctx *Context, _ []string) error {
	ctx.Quit.Raise("quit command")
	return nil
}
