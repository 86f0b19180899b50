// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/roomsync/lib/roomstate"
)

// Theme is the color palette for the room view. Colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Sender names in the timeline; the local user is highlighted.
	SenderName lipgloss.Color
	OwnName    lipgloss.Color

	// Presence markers in the roster.
	PresenceOnline      lipgloss.Color
	PresenceUnavailable lipgloss.Color
	PresenceOffline     lipgloss.Color

	FeedbackText     lipgloss.Color
	HeaderForeground lipgloss.Color
	HeaderBackground lipgloss.Color
	BorderColor      lipgloss.Color
}

// PresenceColor returns the marker color for presence. Members with
// no reported presence use FaintText.
func (theme Theme) PresenceColor(presence roomstate.PresenceState) lipgloss.Color {
	switch presence {
	case roomstate.PresenceOnline:
		return theme.PresenceOnline
	case roomstate.PresenceUnavailable:
		return theme.PresenceUnavailable
	case roomstate.PresenceOffline:
		return theme.PresenceOffline
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SenderName: lipgloss.Color("75"),  // blue
	OwnName:    lipgloss.Color("141"), // light purple

	PresenceOnline:      lipgloss.Color("114"), // green
	PresenceUnavailable: lipgloss.Color("220"), // amber
	PresenceOffline:     lipgloss.Color("240"), // dim gray

	FeedbackText:     lipgloss.Color("196"),
	HeaderForeground: lipgloss.Color("255"),
	HeaderBackground: lipgloss.Color("236"),
	BorderColor:      lipgloss.Color("240"),
}
