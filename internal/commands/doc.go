// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the colon command system for the chat prompt.
//
// The dispatcher hands over a line with the ':' prefix already stripped;
// this package parses it, looks the command up and runs its handler.
//
// # Key Types
//
//   - Registry: command registry with the built-in commands
//   - Parser: quote-aware splitting into name and arguments
//   - Executor: runs a dispatched line against the registry
//
// # Built-in Commands
//
//   - :join <channel>: leave the current channel and join another
//   - :part: leave the current channel
//   - :channel: show the current channel
//   - :config: show the configuration file in use
//   - :help: list commands
//   - :quit, :q, :exit: leave tuitch
//
// # Usage
//
//	exec := commands.NewExecutor(commands.NewRegistry(), env, logger)
//	err := exec.Execute(ctx, dispatch.Request{Line: "join somechannel"})
package commands
