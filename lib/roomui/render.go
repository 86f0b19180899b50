// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/roomsync/lib/roomstate"
	"github.com/bureau-foundation/roomsync/messaging"
)

// renderTimeline renders messages one per entry, wrapped to width.
// names maps user IDs to display names.
func renderTimeline(theme Theme, messages []roomstate.Message, names map[string]string, ownUserID string, width int) string {
	if width <= 0 {
		return ""
	}
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	text := lipgloss.NewStyle().Foreground(theme.NormalText)

	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		nameColor := theme.SenderName
		if message.UserID == ownUserID {
			nameColor = theme.OwnName
		}
		name := lipgloss.NewStyle().Foreground(nameColor).Bold(true).Render(displayName(names, message.UserID))

		var line string
		switch message.MsgType() {
		case messaging.MsgTypeEmote:
			line = faint.Render("*") + " " + name + " " + text.Render(message.Body())
		case messaging.MsgTypeImage:
			url, _ := message.Content["url"].(string)
			line = name + " " + faint.Render("sent an image:") + " " + text.Render(message.Body()) + " " + faint.Render(url)
		default:
			line = name + faint.Render(":") + " " + text.Render(message.Body())
		}
		if stamp := timestamp(message.OriginServerTS); stamp != "" {
			line = faint.Render(stamp) + " " + line
		}
		lines = append(lines, ansi.Wrap(line, width, " "))
	}
	return strings.Join(lines, "\n")
}

// timestamp formats a server timestamp as local HH:MM. Zero renders
// as "".
func timestamp(millis int64) string {
	if millis <= 0 {
		return ""
	}
	return time.UnixMilli(millis).Local().Format("15:04")
}

func displayName(names map[string]string, userID string) string {
	if name := names[userID]; name != "" {
		return name
	}
	return userID
}

// rosterVisible reports whether a member belongs in the sidebar.
// Members who left or were banned are hidden.
func rosterVisible(member roomstate.Member) bool {
	return member.Membership == messaging.MembershipJoin || member.Membership == messaging.MembershipInvite
}

// renderRoster renders the sidebar: one member per line with a
// presence marker, names truncated to width.
func renderRoster(theme Theme, members []roomstate.Member, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	visible := 0
	var lines []string
	for _, member := range members {
		if !rosterVisible(member) {
			continue
		}
		visible++
		marker := "●"
		if member.Presence == "" {
			marker = "○"
		}
		name := member.Name()
		suffix := ""
		if member.Membership == messaging.MembershipInvite {
			suffix = faint.Render(" (invited)")
		}
		nameWidth := width - 2 - ansi.StringWidth(suffix)
		if nameWidth < 1 {
			nameWidth = 1
			suffix = ""
		}
		lines = append(lines,
			lipgloss.NewStyle().Foreground(theme.PresenceColor(member.Presence)).Render(marker)+" "+
				ansi.Truncate(name, nameWidth, "…")+suffix)
	}

	header := faint.Render(fmt.Sprintf("Members (%d)", visible))
	lines = append([]string{ansi.Truncate(header, width, "")}, lines...)
	if len(lines) > height {
		more := faint.Render(fmt.Sprintf("+%d more", len(lines)-height+1))
		lines = append(lines[:height-1], ansi.Truncate(more, width, ""))
	}
	return strings.Join(lines, "\n")
}
