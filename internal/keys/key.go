// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keys reads raw keystrokes from the terminal and turns them into
// Key values for the editor.
package keys

import "fmt"

// Kind tags a Key.
type Kind int

const (
	KindUnknown   Kind = iota // Any key the editor ignores
	KindRune                  // Printable character in Key.Rune
	KindEnter                 // CR or LF
	KindBackspace             // DEL or BS
	KindLeft                  // Left arrow
	KindRight                 // Right arrow
	KindInterrupt             // Ctrl+C, bound to shutdown
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindRune:
		return "rune"
	case KindEnter:
		return "enter"
	case KindBackspace:
		return "backspace"
	case KindLeft:
		return "left"
	case KindRight:
		return "right"
	case KindInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// Key is one decoded key press.
type Key struct {
	Kind Kind
	Rune rune // Set when Kind is KindRune

	// Seq holds the raw bytes of an unrecognised sequence, for debug logs.
	Seq string
}

// String renders the key for logs.
func (k Key) String() string {
	switch k.Kind {
	case KindRune:
		return fmt.Sprintf("rune(%q)", k.Rune)
	case KindUnknown:
		return fmt.Sprintf("unknown(%q)", k.Seq)
	default:
		return k.Kind.String()
	}
}

// Rune builds a printable key.
func Rune(r rune) Key {
	return Key{Kind: KindRune, Rune: r}
}

// Of builds a non-printable key of kind k.
func Of(k Kind) Key {
	return Key{Kind: k}
}
