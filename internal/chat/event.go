// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat holds the decoded chat event model, the session identity and
// the formatter that turns events into display lines.
package chat

import "time"

// =============================================================================
// EVENT KINDS
// =============================================================================

// Kind identifies what happened in the channel.
type Kind int

const (
	KindUnknown        Kind = iota
	KindMessage             // A user chat message
	KindBan                 // A user was permanently banned
	KindTimeout             // A user was timed out
	KindChatCleared         // A moderator cleared the chat
	KindHostOn              // The channel started hosting another channel
	KindHostOff             // The channel stopped hosting
	KindSub                 // A first-time subscription
	KindResub               // A re-subscription
	KindRaid                // An incoming raid
	KindSubGift             // A single gifted subscription
	KindMysteryGift         // A batch of gifted subscriptions
	KindGiftUpgrade         // A gifted sub converted into a paid one
	KindRitual              // A ritual such as new_chatter
	KindBitsBadge           // A user reached a new bits badge tier
	KindMessageDeleted      // A single message was removed
	KindLoginSuccess        // The server accepted our credentials
	KindPart                // We left a channel
	KindNotice              // A server notice
	KindJoin                // We joined a channel
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindMessage:        "message",
	KindBan:            "ban",
	KindTimeout:        "timeout",
	KindChatCleared:    "chat_cleared",
	KindHostOn:         "host_on",
	KindHostOff:        "host_off",
	KindSub:            "sub",
	KindResub:          "resub",
	KindRaid:           "raid",
	KindSubGift:        "sub_gift",
	KindMysteryGift:    "mystery_gift",
	KindGiftUpgrade:    "gift_upgrade",
	KindRitual:         "ritual",
	KindBitsBadge:      "bits_badge",
	KindMessageDeleted: "message_deleted",
	KindLoginSuccess:   "login_success",
	KindPart:           "part",
	KindNotice:         "notice",
	KindJoin:           "join",
}

// String returns the log name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// =============================================================================
// EVENT
// =============================================================================

// Event is one decoded occurrence from the chat feed. Only the fields that
// matter for a given Kind are set.
type Event struct {
	Kind    Kind
	Channel string    // Channel login without the leading '#'
	Sender  string    // Display name of the acting user
	Login   string    // Login of the acting or targeted user
	Text    string    // Message or notice text
	Time    time.Time // Server timestamp, or receipt time when absent
	ID      string    // Server message id

	Anonymous bool          // Gifter is anonymous
	Months    int           // Cumulative months, or gifted months for gifts
	Plan      string        // Sub plan: Prime, 1000, 2000, 3000
	Viewers   int           // Raid or host viewer count
	Target    string        // Hosted channel
	Recipient string        // Gift recipient display name
	Gifter    string        // Original gifter for upgrades
	Count     int           // Subs in a mystery gift batch
	Total     int           // Sender's lifetime gift total
	Threshold int           // Bits badge tier
	Duration  time.Duration // Timeout length
	Ritual    string        // Ritual name
}
