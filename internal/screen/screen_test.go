// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screen

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Primitives(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, nil)

	err := s.Update(func(f *Frame) {
		f.ClearToEOL()
		f.Text("ab")
		f.Runes([]rune("c"))
		f.Left(2)
		f.Right(1)
		f.Left(0)
		f.NewLine()
		f.ClearLine()
	})
	require.NoError(t, err)
	want := ansi.EraseLineRight + "abc" + ansi.CursorBackward(2) + ansi.CursorForward(1) +
		"\r\n\r" + ansi.EraseEntireLine
	assert.Equal(t, want, buf.String())
}

func TestScreen_EmptyUnitWritesNothing(t *testing.T) {
	w := &countingWriter{}
	s := New(w, nil)
	require.NoError(t, s.Update(func(*Frame) {}))
	assert.Equal(t, 0, w.calls)
}

type countingWriter struct {
	calls int
	bytes.Buffer
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.calls++
	return w.Buffer.Write(p)
}

// TestScreen_UnitsDoNotInterleave checks every unit reaches the writer in a
// single Write call.
func TestScreen_UnitsDoNotInterleave(t *testing.T) {
	w := &countingWriter{}
	s := New(w, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Update(func(f *Frame) {
					f.Text(strings.Repeat(string(rune('a'+id)), 10))
					f.NewLine()
				})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20*50, w.calls)
	for _, line := range strings.Split(strings.TrimSuffix(w.String(), "\r\n"), "\r\n") {
		require.Len(t, line, 10)
		assert.Equal(t, strings.Repeat(line[:1], 10), line, "line was interleaved")
	}
}

type flakyWriter struct {
	fail bool
	bytes.Buffer
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	if w.fail {
		w.fail = false
		n := len(p) / 2
		w.Buffer.Write(p[:n])
		return n, errors.New("EAGAIN")
	}
	return w.Buffer.Write(p)
}

func TestScreen_WriteErrorIsRetried(t *testing.T) {
	w := &flakyWriter{fail: true}
	s := New(w, nil)

	err := s.Update(func(f *Frame) { f.Text("abcd") })
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, 2, werr.Written)
	assert.Equal(t, 4, werr.Total)
	assert.Equal(t, 2, s.Pending())

	require.NoError(t, s.Update(func(f *Frame) { f.Text("ef") }))
	assert.Equal(t, "abcdef", w.String())
	assert.Equal(t, 0, s.Pending())
}

func TestRunesWidth(t *testing.T) {
	assert.Equal(t, 1, RuneWidth('a'))
	assert.Equal(t, 2, RuneWidth('世'))
	assert.Equal(t, 5, RunesWidth([]rune("ab世a")))
}

func TestEnterRaw_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	_, err = EnterRaw(f)
	assert.ErrorIs(t, err, ErrNotTerminal)

	var r *RawMode
	assert.NoError(t, r.Restore())
}
