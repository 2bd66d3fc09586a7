// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/b-dont/tuitch/internal/dispatch"
)

// ErrEmptyCommand is wrapped by the error returned for a bare prefix with
// nothing after it.
var ErrEmptyCommand = errors.New("empty command")

// UnknownCommandError is returned when no command matches.
type UnknownCommandError struct {
	Name       string
	Suggestion string
	Prefix     rune
}

func (e *UnknownCommandError) Error() string {
	p := prefixOrDefault(e.Prefix)
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown command %c%s (did you mean %c%s?)", p, e.Name, p, e.Suggestion)
	}
	return fmt.Sprintf("unknown command %c%s; type %chelp for a list", p, e.Name, p)
}

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor runs dispatched command lines against a registry.
type Executor struct {
	parser *Parser
	env    *Env
	logger *zap.Logger
}

// NewExecutor creates an executor. env.Registry is set to registry when
// empty so help can list it.
func NewExecutor(registry *Registry, env *Env, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if env.Registry == nil {
		env.Registry = registry
	}
	return &Executor{
		parser: NewParser(registry),
		env:    env,
		logger: logger.Named("commands"),
	}
}

// Execute parses req.Line and runs the matching handler.
func (e *Executor) Execute(ctx context.Context, req dispatch.Request) error {
	prefix := e.env.prefix()
	res := e.parser.Parse(req.Line)
	if res.CommandName == "" {
		return fmt.Errorf("%w; type %chelp for a list", ErrEmptyCommand, prefix)
	}
	if res.Command == nil {
		return &UnknownCommandError{
			Name:       res.CommandName,
			Suggestion: e.env.Registry.Suggest(res.CommandName),
			Prefix:     prefix,
		}
	}
	if err := ValidateArgs(res.Command, res.Args); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Prefix = prefix
		}
		return err
	}

	e.logger.Debug("running command", zap.String("command", res.Command.Name), zap.Strings("args", res.Args))
	return res.Command.Handler(&Context{
		Context:    ctx,
		Env:        e.env,
		Channel:    req.Channel,
		ConfigPath: req.ConfigPath,
		Logger:     e.logger,
	}, res.Args)
}
