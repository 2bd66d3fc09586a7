// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter(termenv.Ascii)
	f.Location = time.UTC
	ts := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"message", Event{Kind: KindMessage, Sender: "Alice", Text: "hi there", Time: ts}, "09:05 [Alice]: hi there"},
		{"ban", Event{Kind: KindBan, Login: "troll"}, "troll has been banned."},
		{"timeout", Event{Kind: KindTimeout, Login: "troll", Duration: 600 * time.Second}, "troll has been timed-out for 600 seconds."},
		{"clear", Event{Kind: KindChatCleared}, "Chat has been cleared."},
		{"host on", Event{Kind: KindHostOn, Target: "bob", Viewers: 12}, "Hosted bob with 12 users"},
		{"host off", Event{Kind: KindHostOff}, "No longer hosting."},
		{"sub", Event{Kind: KindSub, Sender: "Carol", Plan: "Prime"}, "Carol has just subscribed with Prime!"},
		{"resub", Event{Kind: KindResub, Sender: "Carol", Months: 7, Plan: "1000"}, "Carol has subscribed for 7 months with Tier 1!"},
		{"raid", Event{Kind: KindRaid, Sender: "Dan", Viewers: 40}, "Dan raided with 40 viewers!"},
		{"gift", Event{Kind: KindSubGift, Sender: "Eve", Recipient: "Fay", Plan: "2000", Months: 1}, "Eve gifted Fay a Tier 2 for 1!"},
		{"anon gift", Event{Kind: KindSubGift, Anonymous: true, Recipient: "Fay", Plan: "3000", Months: 3}, "An anonymous user gifted Fay a Tier 3 for 3!"},
		{"mystery", Event{Kind: KindMysteryGift, Sender: "Eve", Count: 5, Total: 50}, "Eve is gifting 5 subs! They've gifted a total of 50!"},
		{"anon mystery", Event{Kind: KindMysteryGift, Anonymous: true, Count: 5}, "An anonymous user is gifting 5 subs!"},
		{"upgrade", Event{Kind: KindGiftUpgrade, Sender: "Gus", Gifter: "Eve"}, "Gus continued their gifted sub from Eve!"},
		{"anon upgrade", Event{Kind: KindGiftUpgrade, Sender: "Gus", Anonymous: true}, "Gus continued their gifted sub from an anonymous user!"},
		{"ritual", Event{Kind: KindRitual, Sender: "Hal"}, "Hal is new to chat! Say hi!"},
		{"bits", Event{Kind: KindBitsBadge, Sender: "Ivy", Threshold: 1000}, "Ivy just earned the 1000 bits badge!"},
		{"deleted", Event{Kind: KindMessageDeleted}, "Message deleted."},
		{"login", Event{Kind: KindLoginSuccess}, "Login successful!"},
		{"part", Event{Kind: KindPart, Channel: "bob"}, "Departed chat."},
		{"notice", Event{Kind: KindNotice, Text: "Slow mode is on."}, "Slow mode is on."},
		{"join", Event{Kind: KindJoin, Channel: "bob"}, "Joined bob's chat!"},
		{"unknown", Event{Kind: KindUnknown, Text: "ignored"}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Format(tc.event))
		})
	}
}

func TestFormatter_ColorProfileStyles(t *testing.T) {
	f := NewFormatter(termenv.ANSI256)
	out := f.Format(Event{Kind: KindChatCleared})
	assert.Contains(t, out, "Chat has been cleared.")
	assert.Contains(t, out, "\x1b[", "expected ANSI styling")

	plain := NewFormatter(termenv.Ascii)
	assert.Equal(t, "oops", plain.Failure("oops"))
	assert.Equal(t, "ok", plain.Status("ok"))
}

func TestPlanName(t *testing.T) {
	assert.Equal(t, "Tier 1", PlanName("1000"))
	assert.Equal(t, "Prime", PlanName("Prime"))
	assert.Equal(t, "custom", PlanName("custom"))
}

func TestIdentity(t *testing.T) {
	id := NewIdentity("Me", "#SomeChannel")
	assert.Equal(t, "me", id.User())
	assert.Equal(t, "somechannel", id.Channel())

	prev := id.SetChannel("Other")
	assert.Equal(t, "somechannel", prev)
	assert.Equal(t, "other", id.Channel())
}

func TestIdentity_ConcurrentAccess(t *testing.T) {
	id := NewIdentity("me", "a")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id.SetChannel("b")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c := id.Channel()
				assert.Contains(t, []string{"a", "b"}, c)
			}
		}()
	}
	wg.Wait()
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "raid", KindRaid.String())
	assert.Equal(t, "unknown", Kind(999).String())
}
