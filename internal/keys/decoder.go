// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keys

import (
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

const (
	esc       = 0x1b
	ctrlC     = 0x03
	backspace = 0x08
	del       = 0x7f
	cr        = '\r'
	lf        = '\n'
)

// Decoder converts a raw terminal byte stream into keys.
//
// A CSI sequence or UTF-8 rune split across reads is held until the rest
// arrives. An ESC that ends a read is the Escape key on its own: terminals
// write a whole sequence in one go, so the read boundary stands in for the
// escape timeout.
type Decoder struct {
	pending []byte
}

// Feed appends p to any pending bytes and returns every complete key.
func (d *Decoder) Feed(p []byte) []Key {
	d.pending = append(d.pending, p...)

	var out []Key
	for len(d.pending) > 0 {
		k, n := decodeOne(d.pending)
		if n == 0 {
			// Incomplete sequence; wait for more input.
			break
		}
		out = append(out, k)
		d.pending = d.pending[n:]
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return out
}

// Pending reports whether a partial sequence is buffered.
func (d *Decoder) Pending() bool {
	return len(d.pending) > 0
}

// decodeOne decodes the key at the start of b. It returns n == 0 when b
// holds only the prefix of a sequence.
func decodeOne(b []byte) (Key, int) {
	switch c := b[0]; {
	case c == esc:
		return decodeEscape(b)
	case c == cr || c == lf:
		return Of(KindEnter), 1
	case c == del || c == backspace:
		return Of(KindBackspace), 1
	case c == ctrlC:
		return Of(KindInterrupt), 1
	case c < 0x20:
		return unknown(b[:1]), 1
	case c < utf8.RuneSelf:
		return Rune(rune(c)), 1
	}

	if !utf8.FullRune(b) {
		return Key{}, 0
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return unknown(b[:size]), size
	}
	return Rune(r), size
}

// decodeEscape handles input that starts with ESC. Only the plain arrow keys
// are recognised; everything else becomes KindUnknown.
func decodeEscape(b []byte) (Key, int) {
	if len(b) == 1 {
		return unknown(b), 1
	}

	switch c := b[1]; {
	case isControl(c):
		// ESC never absorbs a control key; report them separately.
		return unknown(b[:1]), 1
	case c == 'O':
		return decodeSS3(b)
	case c >= utf8.RuneSelf:
		// Alt with a non-ASCII key.
		if !utf8.FullRune(b[1:]) {
			return Key{}, 0
		}
		_, size := utf8.DecodeRune(b[1:])
		return unknown(b[:1+size]), 1 + size
	}

	// Stop at the first control byte so it is decoded as its own key.
	limit := len(b)
	for i := 2; i < len(b); i++ {
		if isControl(b[i]) {
			limit = i
			break
		}
	}

	seq, _, n, state := ansi.DecodeSequence(b[:limit], ansi.NormalState, nil)
	if state != ansi.NormalState || n == 0 {
		if ansi.HasCsiPrefix(seq) && limit == len(b) {
			return Key{}, 0
		}
		// An interrupted CSI, or Alt with a key that opens a string or
		// intermediate sequence.
		if n < 2 {
			n = 2
		}
		return unknown(b[:n]), n
	}

	switch string(seq) {
	case "\x1b[C":
		return Of(KindRight), n
	case "\x1b[D":
		return Of(KindLeft), n
	}
	return unknown(seq), n
}

// decodeSS3 handles ESC O, sent for the arrows in application cursor mode.
func decodeSS3(b []byte) (Key, int) {
	if len(b) < 3 {
		return Key{}, 0
	}
	switch b[2] {
	case 'C':
		return Of(KindRight), 3
	case 'D':
		return Of(KindLeft), 3
	}
	if isControl(b[2]) {
		return unknown(b[:2]), 2
	}
	return unknown(b[:3]), 3
}

func isControl(c byte) bool {
	return c < 0x20 || c == del
}

func unknown(seq []byte) Key {
	return Key{Kind: KindUnknown, Seq: string(seq)}
}
