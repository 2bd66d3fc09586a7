// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

// colorEnv is the environment the color decision depends on.
type colorEnv struct {
	noColor    bool
	forceColor bool
	tty        bool
}

func currentColorEnv() colorEnv {
	return colorEnv{
		noColor:    os.Getenv("NO_COLOR") != "",
		forceColor: os.Getenv("FORCE_COLOR") != "",
		tty:        IsStdoutTTY(),
	}
}

// colorsEnabled resolves the [ui] color setting against the environment.
// An explicit always/never wins; auto follows NO_COLOR, then FORCE_COLOR,
// then TTY detection. See https://no-color.org/.
func colorsEnabled(setting string, env colorEnv) bool {
	switch strings.ToLower(setting) {
	case "always":
		return true
	case "never":
		return false
	}
	if env.noColor {
		return false
	}
	if env.forceColor {
		return true
	}
	return env.tty
}

// ColorProfile returns the termenv profile for chat output.
func ColorProfile(setting string) termenv.Profile {
	if !colorsEnabled(setting, currentColorEnv()) {
		return termenv.Ascii
	}
	if p := termenv.ColorProfile(); p != termenv.Ascii {
		return p
	}
	// Colors were forced on a terminal termenv could not classify.
	return termenv.ANSI
}
