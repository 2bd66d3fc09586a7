// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/b-dont/tuitch/internal/broadcast"
	"github.com/b-dont/tuitch/internal/chat"
	"github.com/b-dont/tuitch/internal/keys"
	"github.com/b-dont/tuitch/internal/linebuf"
	"github.com/b-dont/tuitch/internal/queue"
	"github.com/b-dont/tuitch/internal/screen"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKES
// =============================================================================

type sentMsg struct {
	user, channel, text string
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sentMsg
	err  error
}

func (s *fakeSender) Send(_ context.Context, user, channel, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, sentMsg{user, channel, text})
	return nil
}

func (s *fakeSender) sent() []sentMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMsg(nil), s.msgs...)
}

type notes struct {
	mu    sync.Mutex
	lines []string
}

func (n *notes) Notice(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, text)
}

func (n *notes) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.lines...)
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	q       *queue.Queue[keys.Key]
	buf     *linebuf.Buffer
	out     *syncBuffer
	trigger *broadcast.Trigger
	sig     *broadcast.Signal
	sender  *fakeSender
	notes   *notes
	p       *Processor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		q:       queue.New[keys.Key](),
		buf:     linebuf.New(),
		out:     &syncBuffer{},
		trigger: broadcast.NewTrigger(),
		sig:     broadcast.NewSignal(),
		sender:  &fakeSender{},
		notes:   &notes{},
	}
	h.p = New(Options{
		Keys:     h.q,
		Buffer:   h.buf,
		Screen:   screen.New(h.out, nil),
		Trigger:  h.trigger,
		Sender:   h.sender,
		Identity: chat.NewIdentity("me", "room"),
		Notifier: h.notes,
	})
	return h
}

func (h *harness) push(ks ...keys.Key) {
	for _, k := range ks {
		h.q.Push(k)
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.q.Push(keys.Rune(r))
	}
}

// runToEnd closes the key queue and runs the processor until it drains.
func (h *harness) runToEnd(t *testing.T) {
	t.Helper()
	h.q.Close()
	require.NoError(t, h.p.Run(context.Background(), h.sig.Subscribe("editor")))
	assert.True(t, h.sig.Raised(), "closed key queue must raise shutdown")
}

var (
	left      = keys.Of(keys.KindLeft)
	right     = keys.Of(keys.KindRight)
	enter     = keys.Of(keys.KindEnter)
	backspace = keys.Of(keys.KindBackspace)
)

// =============================================================================
// EDITING TESTS
// =============================================================================

func TestProcessor_TypingRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.typeText("hello")
	h.runToEnd(t)

	assert.Equal(t, "hello", h.buf.Snapshot())
	assert.Equal(t, 5, h.buf.Cursor())
	assert.Equal(t, ansi.EraseLineRight+"hello", h.out.String())
}

func TestProcessor_MidLineInsertRedrawsTail(t *testing.T) {
	h := newHarness(t)
	h.typeText("ac")
	h.push(left)
	h.typeText("b")
	h.runToEnd(t)

	assert.Equal(t, "abc", h.buf.Snapshot())
	assert.Equal(t, 2, h.buf.Cursor())
	want := ansi.EraseLineRight + "ac" + ansi.CursorBackward(1) + "bc" + ansi.CursorBackward(1)
	assert.Equal(t, want, h.out.String())
}

func TestProcessor_ArrowBounds(t *testing.T) {
	h := newHarness(t)
	h.push(left, right)
	h.typeText("ab")
	h.push(left, left, left)
	h.runToEnd(t)
	assert.Equal(t, 0, h.buf.Cursor())

	h2 := newHarness(t)
	h2.typeText("ab")
	h2.push(right, right)
	h2.runToEnd(t)
	assert.Equal(t, 2, h2.buf.Cursor())
	assert.Equal(t, ansi.EraseLineRight+"ab", h2.out.String(), "moves past the end must not echo")
}

func TestProcessor_WideRuneMovesByWidth(t *testing.T) {
	h := newHarness(t)
	h.typeText("世")
	h.push(left, right)
	h.runToEnd(t)

	want := ansi.EraseLineRight + "世" + ansi.CursorBackward(2) + ansi.CursorForward(2)
	assert.Equal(t, want, h.out.String())
}

func TestProcessor_BackspaceOnEmptyIsNoop(t *testing.T) {
	h := newHarness(t)
	h.push(backspace, backspace)
	h.runToEnd(t)

	assert.True(t, h.buf.IsEmpty())
	assert.Equal(t, 0, h.buf.Cursor())
	assert.Empty(t, h.out.String())
}

func TestProcessor_BackspaceToEmptyEmitsContinuationLine(t *testing.T) {
	h := newHarness(t)
	h.typeText("a")
	h.push(backspace)
	h.runToEnd(t)

	assert.True(t, h.buf.IsEmpty())
	want := ansi.EraseLineRight + "a" + ansi.CursorBackward(1) + ansi.EraseLineRight + "\r\n"
	assert.Equal(t, want, h.out.String())
}

func TestProcessor_BackspaceMidLine(t *testing.T) {
	h := newHarness(t)
	h.typeText("abc")
	h.push(left, backspace)
	h.runToEnd(t)

	assert.Equal(t, "ac", h.buf.Snapshot())
	assert.Equal(t, 1, h.buf.Cursor())
	assert.Contains(t, h.out.String(), ansi.EraseLineRight+"c"+ansi.CursorBackward(1))
}

func TestProcessor_IgnoresUnknownKeys(t *testing.T) {
	h := newHarness(t)
	h.push(keys.Key{Kind: keys.KindUnknown, Seq: "\x1b[A"})
	h.runToEnd(t)
	assert.Empty(t, h.out.String())
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestProcessor_EnterSendsMessage(t *testing.T) {
	h := newHarness(t)
	h.typeText("hi all")
	h.push(enter)
	h.runToEnd(t)

	assert.Equal(t, []sentMsg{{"me", "room", "hi all"}}, h.sender.sent())
	assert.True(t, h.buf.IsEmpty())
	assert.Equal(t, 0, h.buf.Cursor())
	assert.Equal(t, ansi.EraseLineRight+"hi all\r\n", h.out.String())
}

func TestProcessor_EnterOnEmptyIsNoop(t *testing.T) {
	h := newHarness(t)
	h.push(enter)
	h.runToEnd(t)

	assert.Empty(t, h.sender.sent())
	assert.Empty(t, h.out.String())
}

func TestProcessor_SendFailureIsPrinted(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("boom")
	h.typeText("x")
	h.push(enter)
	h.runToEnd(t)

	assert.Equal(t, []string{"Failed to send message: boom"}, h.notes.all())
	assert.True(t, h.buf.IsEmpty())
}

func TestProcessor_CommandHandoff(t *testing.T) {
	h := newHarness(t)
	l := h.trigger.Subscribe()
	defer l.Close()

	taken := make(chan string, 1)
	go func() {
		p, ok := <-l.C()
		if !ok {
			return
		}
		taken <- h.buf.TakeAndClear()
		p.Ack()
	}()

	h.typeText(":join foo")
	h.push(enter)
	h.runToEnd(t)

	assert.Equal(t, ":join foo", <-taken)
	assert.True(t, h.buf.IsEmpty())
	assert.Empty(t, h.sender.sent(), "command lines are never sent as chat")
}

func TestProcessor_CommandWithoutDispatcher(t *testing.T) {
	h := newHarness(t)
	h.typeText(":help")
	h.push(enter)
	h.runToEnd(t)

	assert.True(t, h.buf.IsEmpty())
	assert.Equal(t, []string{"Commands are unavailable right now."}, h.notes.all())
}

// =============================================================================
// SHUTDOWN TESTS
// =============================================================================

func TestProcessor_InterruptRaisesShutdown(t *testing.T) {
	h := newHarness(t)
	h.typeText("a")
	h.push(keys.Of(keys.KindInterrupt))
	h.typeText("b")

	require.NoError(t, h.p.Run(context.Background(), h.sig.Subscribe("editor")))
	assert.True(t, h.sig.Raised())
	assert.Equal(t, "interrupt", h.sig.Reason())
	assert.Equal(t, "a", h.buf.Snapshot(), "keys after Ctrl+C must not be applied")
}

func TestProcessor_StopsOnShutdown(t *testing.T) {
	h := newHarness(t)
	done := make(chan error, 1)
	go func() { done <- h.p.Run(context.Background(), h.sig.Subscribe("editor")) }()

	h.sig.Raise("test")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not stop after shutdown")
	}

	h.typeText("late")
	assert.True(t, h.buf.IsEmpty())
}

func TestProcessor_ShutdownAbandonsPendingHandoff(t *testing.T) {
	h := newHarness(t)
	l := h.trigger.Subscribe()
	defer l.Close()

	h.typeText(":quit")
	h.push(enter)

	done := make(chan error, 1)
	go func() { done <- h.p.Run(context.Background(), h.sig.Subscribe("editor")) }()

	// Nobody acknowledges the pulse; the wait must end with shutdown.
	require.Eventually(t, func() bool { return len(l.C()) == 1 }, 2*time.Second, time.Millisecond)
	h.sig.Raise("test")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("processor stuck in command handoff")
	}
}
