// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "sort"

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a colon command that can be executed.
type Command struct {
	// Name is the primary command name without the prefix (e.g., "join")
	Name string

	// Aliases are alternative names (e.g., "q")
	Aliases []string

	// Description is shown in help
	Description string

	// Usage shows argument syntax (e.g., "join <channel>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Variadic commands accept more arguments than Args lists
	Variadic bool

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) error

	// Hidden commands don't appear in help
	Hidden bool
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Description explains the argument
	Description string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.registerBuiltins()
	return r
}

// NewEmptyRegistry creates a registry with no commands.
func NewEmptyRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Names returns every name and alias, for typo suggestions.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands)+len(r.aliases))
	for name, cmd := range r.commands {
		if !cmd.Hidden {
			names = append(names, name)
		}
	}
	for alias, cmd := range r.aliases {
		if !cmd.Hidden {
			names = append(names, alias)
		}
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "join",
		Description: "Leave the current channel and join another",
		Usage:       "join <channel>",
		Args: []ArgDef{
			{Name: "channel", Required: true, Description: "channel name, with or without #"},
		},
		Handler: handleJoin,
	})

	r.Register(&Command{
		Name:        "part",
		Aliases:     []string{"leave"},
		Description: "Leave the current channel",
		Handler:     handlePart,
	})

	r.Register(&Command{
		Name:        "channel",
		Aliases:     []string{"where"},
		Description: "Show the current channel",
		Handler:     handleChannel,
	})

	r.Register(&Command{
		Name:        "config",
		Description: "Show the configuration file in use",
		Handler:     handleConfig,
	})

	r.Register(&Command{
		Name:        "help",
		Aliases:     []string{"h", "?"},
		Description: "Show available commands",
		Handler:     handleHelp,
	})

	r.Register(&Command{
		Name:        "quit",
		Aliases:     []string{"q", "exit"},
		Description: "Exit tuitch",
		Handler:     handleQuit,
	})
}
