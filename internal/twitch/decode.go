// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package twitch

import (
	"strconv"
	"strings"
	"time"

	"github.com/ergochat/irc-go/ircmsg"

	"github.com/b-dont/tuitch/internal/chat"
)

// anonymousGifter is the login Twitch uses for gifts from anonymous users.
const anonymousGifter = "ananonymousgifter"

// Decode turns one IRC message into a chat event. It returns false for
// messages that carry nothing to show (PING, capability acks, numerics).
func Decode(msg ircmsg.Message, now time.Time) (chat.Event, bool) {
	e := chat.Event{
		Time:   sentAt(msg, now),
		Sender: displayName(msg),
		Login:  login(msg),
	}
	if len(msg.Params) > 0 {
		e.Channel = chat.NormalizeChannel(msg.Params[0])
	}
	_, e.ID = msg.GetTag("id")

	switch msg.Command {
	case "PRIVMSG":
		e.Kind = chat.KindMessage
		e.Text = trailing(msg)
		if strings.HasPrefix(e.Text, "\x01ACTION ") {
			e.Text = strings.TrimSuffix(strings.TrimPrefix(e.Text, "\x01ACTION "), "\x01")
		}

	case "CLEARCHAT":
		if len(msg.Params) < 2 {
			e.Kind = chat.KindChatCleared
			break
		}
		e.Login = msg.Params[1]
		if present, secs := msg.GetTag("ban-duration"); present {
			e.Kind = chat.KindTimeout
			e.Duration = time.Duration(atoi(secs)) * time.Second
		} else {
			e.Kind = chat.KindBan
		}

	case "HOSTTARGET":
		// :tmi.twitch.tv HOSTTARGET #host :<target|-> [viewers]
		fields := strings.Fields(trailing(msg))
		if len(fields) == 0 || fields[0] == "-" {
			e.Kind = chat.KindHostOff
			break
		}
		e.Kind = chat.KindHostOn
		e.Target = fields[0]
		if len(fields) > 1 {
			e.Viewers = atoi(fields[1])
		}

	case "USERNOTICE":
		return decodeUserNotice(msg, e)

	case "CLEARMSG":
		e.Kind = chat.KindMessageDeleted
		_, e.ID = msg.GetTag("target-msg-id")
		e.Text = trailing(msg)

	case "GLOBALUSERSTATE":
		e.Kind = chat.KindLoginSuccess

	case "PART":
		e.Kind = chat.KindPart

	case "JOIN":
		e.Kind = chat.KindJoin

	case "NOTICE":
		e.Kind = chat.KindNotice
		e.Text = trailing(msg)
		_, e.ID = msg.GetTag("msg-id")

	default:
		return chat.Event{}, false
	}
	return e, true
}

func decodeUserNotice(msg ircmsg.Message, e chat.Event) (chat.Event, bool) {
	_, msgID := msg.GetTag("msg-id")
	e.Text = trailing(msg)
	e.Plan = param(msg, "sub-plan")

	switch msgID {
	case "sub":
		e.Kind = chat.KindSub
		e.Months = atoi(param(msg, "cumulative-months"))
	case "resub":
		e.Kind = chat.KindResub
		e.Months = atoi(param(msg, "cumulative-months"))
	case "raid":
		e.Kind = chat.KindRaid
		e.Viewers = atoi(param(msg, "viewerCount"))
		if name := param(msg, "displayName"); name != "" {
			e.Sender = name
		}
	case "subgift", "anonsubgift":
		e.Kind = chat.KindSubGift
		e.Anonymous = msgID == "anonsubgift" || e.Login == anonymousGifter
		e.Recipient = param(msg, "recipient-display-name")
		e.Months = atoi(param(msg, "gift-months"))
		if e.Months == 0 {
			e.Months = 1
		}
	case "submysterygift", "anonsubmysterygift":
		e.Kind = chat.KindMysteryGift
		e.Anonymous = msgID == "anonsubmysterygift" || e.Login == anonymousGifter
		e.Count = atoi(param(msg, "mass-gift-count"))
		e.Total = atoi(param(msg, "sender-count"))
	case "giftpaidupgrade":
		e.Kind = chat.KindGiftUpgrade
		e.Gifter = param(msg, "sender-name")
	case "anongiftpaidupgrade":
		e.Kind = chat.KindGiftUpgrade
		e.Anonymous = true
	case "ritual":
		e.Kind = chat.KindRitual
		e.Ritual = param(msg, "ritual-name")
	case "bitsbadgetier":
		e.Kind = chat.KindBitsBadge
		e.Threshold = atoi(param(msg, "threshold"))
	default:
		return chat.Event{}, false
	}
	return e, true
}

// =============================================================================
// TAG HELPERS
// =============================================================================

func displayName(msg ircmsg.Message) string {
	if present, name := msg.GetTag("display-name"); present && name != "" {
		return name
	}
	return login(msg)
}

func login(msg ircmsg.Message) string {
	if present, name := msg.GetTag("login"); present && name != "" {
		return name
	}
	return msg.Nick()
}

func sentAt(msg ircmsg.Message, now time.Time) time.Time {
	if present, ts := msg.GetTag("tmi-sent-ts"); present {
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
	}
	return now
}

// param reads a msg-param-* tag.
func param(msg ircmsg.Message, name string) string {
	_, v := msg.GetTag("msg-param-" + name)
	return v
}

func trailing(msg ircmsg.Message) string {
	if len(msg.Params) < 2 {
		return ""
	}
	return msg.Params[len(msg.Params)-1]
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
