// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/b-dont/tuitch/internal/config"
	"github.com/b-dont/tuitch/internal/screen"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the chat server could not be reached
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError is a bad flag or argument combination.
type UsageError struct {
	Flag   string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid --%s: %s", e.Flag, e.Reason)
}

// ConnectError wraps a failure to reach or log in to the chat server.
type ConnectError struct {
	Server string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.Server, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// PanicError is a recovered panic from one of the session flows.
type PanicError struct {
	Flow  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Flow, e.Value)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the process exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		return ExitConfigError
	}

	var connErr *ConnectError
	if errors.As(err, &connErr) {
		return ExitNetworkError
	}

	if errors.Is(err, screen.ErrNotTerminal) {
		return ExitUsageError
	}

	return ExitGeneralError
}
