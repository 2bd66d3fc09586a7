// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// STYLES
// =============================================================================

// Styles used by the formatter. Colors follow the 256-colour palette used
// across the CLI; an Ascii profile renders every style as plain text.
type styles struct {
	time      lipgloss.Style
	name      lipgloss.Style
	moderator lipgloss.Style
	celebrate lipgloss.Style
	info      lipgloss.Style
	status    lipgloss.Style
	failure   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		time:      r.NewStyle().Foreground(lipgloss.Color("242")),
		name:      r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		moderator: r.NewStyle().Foreground(lipgloss.Color("214")),
		celebrate: r.NewStyle().Foreground(lipgloss.Color("82")),
		info:      r.NewStyle().Foreground(lipgloss.Color("75")),
		status:    r.NewStyle().Foreground(lipgloss.Color("245")),
		failure:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// =============================================================================
// FORMATTER
// =============================================================================

// Formatter renders events as single display lines.
type Formatter struct {
	styles styles

	// Location is used for message timestamps. Defaults to time.Local.
	Location *time.Location
}

// NewFormatter creates a formatter for the given colour profile. Pass
// termenv.Ascii for plain text.
func NewFormatter(profile termenv.Profile) *Formatter {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)
	return &Formatter{styles: newStyles(r), Location: time.Local}
}

// Format returns the display line for e, or "" when the event is not shown.
func (f *Formatter) Format(e Event) string {
	s := f.styles
	switch e.Kind {
	case KindMessage:
		return fmt.Sprintf("%s [%s]: %s",
			s.time.Render(e.Time.In(f.location()).Format("15:04")),
			s.name.Render(e.Sender),
			e.Text)

	case KindBan:
		return s.moderator.Render(fmt.Sprintf("%s has been banned.", e.Login))
	case KindTimeout:
		return s.moderator.Render(fmt.Sprintf("%s has been timed-out for %d seconds.",
			e.Login, int64(e.Duration/time.Second)))
	case KindChatCleared:
		return s.moderator.Render("Chat has been cleared.")
	case KindMessageDeleted:
		return s.moderator.Render("Message deleted.")

	case KindHostOn:
		return s.info.Render(fmt.Sprintf("Hosted %s with %d users", e.Target, e.Viewers))
	case KindHostOff:
		return s.info.Render("No longer hosting.")

	case KindSub:
		return s.celebrate.Render(fmt.Sprintf("%s has just subscribed with %s!", e.Sender, PlanName(e.Plan)))
	case KindResub:
		return s.celebrate.Render(fmt.Sprintf("%s has subscribed for %d months with %s!",
			e.Sender, e.Months, PlanName(e.Plan)))
	case KindRaid:
		return s.celebrate.Render(fmt.Sprintf("%s raided with %d viewers!", e.Sender, e.Viewers))
	case KindSubGift:
		return s.celebrate.Render(fmt.Sprintf("%s gifted %s a %s for %d!",
			gifterName(e), e.Recipient, PlanName(e.Plan), e.Months))
	case KindMysteryGift:
		if e.Anonymous {
			return s.celebrate.Render(fmt.Sprintf("An anonymous user is gifting %d subs!", e.Count))
		}
		return s.celebrate.Render(fmt.Sprintf("%s is gifting %d subs! They've gifted a total of %d!",
			e.Sender, e.Count, e.Total))
	case KindGiftUpgrade:
		if e.Anonymous {
			return s.celebrate.Render(fmt.Sprintf("%s continued their gifted sub from an anonymous user!", e.Sender))
		}
		return s.celebrate.Render(fmt.Sprintf("%s continued their gifted sub from %s!", e.Sender, e.Gifter))
	case KindRitual:
		return s.celebrate.Render(fmt.Sprintf("%s is new to chat! Say hi!", e.Sender))
	case KindBitsBadge:
		return s.celebrate.Render(fmt.Sprintf("%s just earned the %d bits badge!", e.Sender, e.Threshold))

	case KindLoginSuccess:
		return s.status.Render("Login successful!")
	case KindPart:
		return s.status.Render("Departed chat.")
	case KindJoin:
		return s.status.Render(fmt.Sprintf("Joined %s's chat!", e.Channel))
	case KindNotice:
		return s.info.Render(e.Text)
	}
	return ""
}

// Status styles a line produced locally, such as command output.
func (f *Formatter) Status(text string) string {
	return f.styles.status.Render(text)
}

// Failure styles a locally produced error line.
func (f *Formatter) Failure(text string) string {
	return f.styles.failure.Render(text)
}

func (f *Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

func gifterName(e Event) string {
	if e.Anonymous {
		return "An anonymous user"
	}
	return e.Sender
}

// PlanName turns a sub plan id into its display name.
func PlanName(plan string) string {
	switch plan {
	case "Prime":
		return "Prime"
	case "1000":
		return "Tier 1"
	case "2000":
		return "Tier 2"
	case "3000":
		return "Tier 3"
	case "":
		return "an unknown plan"
	}
	return plan
}
