// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing a command line.
type ParseResult struct {
	// Command is the matched command (nil if not found)
	Command *Command

	// CommandName is the command name as typed, lowercased
	CommandName string

	// Args are the parsed arguments
	Args []string

	// RawArgs is the unparsed arguments portion
	RawArgs string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser splits command lines and resolves them against a registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses a prefix-less command line such as "join somechannel".
func (p *Parser) Parse(line string) ParseResult {
	line = strings.TrimSpace(line)

	var result ParseResult
	name, rest := splitName(line)
	if name == "" {
		return result
	}

	result.CommandName = strings.ToLower(name)
	result.RawArgs = rest
	result.Args = splitCommandLine(rest)
	result.Command = p.registry.Get(result.CommandName)
	return result
}

// ParseArgs parses a raw argument string into individual arguments.
// Handles quoted strings with spaces.
func ParseArgs(input string) []string {
	return splitCommandLine(input)
}

// splitName cuts the command name off the front of line.
func splitName(line string) (name, rest string) {
	end := strings.IndexFunc(line, unicode.IsSpace)
	if end == -1 {
		return line, ""
	}
	return line[:end], strings.TrimSpace(line[end:])
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits input into tokens. Single and double quotes group
// words; a backslash escapes a quote or backslash inside quotes.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingle, inDouble, quoted bool

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			quoted = true

		case r == '"' && !inSingle:
			inDouble = !inDouble
			quoted = true

		case r == '\\' && i+1 < len(runes) && (inSingle || inDouble):
			if next := runes[i+1]; next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(r)
			}

		case unicode.IsSpace(r) && !inSingle && !inDouble:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}

		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateArgs checks args against a command's argument definitions.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}

	for i, def := range cmd.Args {
		if def.Required && i >= len(args) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      def.Name,
				Message:  "required argument missing",
				Expected: def.Description,
			}
		}
	}
	if n := len(cmd.Args); !cmd.Variadic && len(args) > n {
		return &ValidationError{
			Command: cmd.Name,
			Message: "too many arguments",
			Got:     strings.Join(args[n:], " "),
		}
	}
	return nil
}

// ValidationError represents an argument validation error.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
	Prefix   rune
}

func (e *ValidationError) Error() string {
	msg := string(prefixOrDefault(e.Prefix)) + e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Got != "" {
		msg += " (got: " + e.Got + ")"
	}
	if e.Expected != "" {
		msg += " - expected: " + e.Expected
	}
	return msg
}
