// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/roomsync/lib/roomstate"
	"github.com/bureau-foundation/roomsync/messaging"
)

// Room is the part of roomsync.View the model drives.
type Room interface {
	RoomID() string
	UserID() string
	State() *roomstate.RoomState
	Feedback() string
	SendText(ctx context.Context, body string) (string, error)
	SendEmote(ctx context.Context, body string) (string, error)
	SendImage(ctx context.Context, image messaging.ImageContent) (string, error)
	Invite(ctx context.Context, userID string) error
	Leave(ctx context.Context) error
}

const (
	rosterWidth = 28
	// commandTimeout bounds each send/invite/leave request.
	commandTimeout = 30 * time.Second
)

// commandResultMsg reports a finished room command.
type commandResultMsg struct {
	kind commandKind
	err  error
}

// Model is the bubbletea model for one room.
type Model struct {
	room  Room
	relay *Relay
	theme Theme
	keys  KeyMap

	timeline viewport.Model
	input    textinput.Model

	width  int
	height int

	// feedback is the last message from the engine or a local error.
	feedback string
	// stopErr is set when the loop exits with an error.
	stopErr error
	// left is set after a successful /leave.
	left bool
}

// NewModel creates a model for room, listening on relay.
func NewModel(room Room, relay *Relay) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Message " + room.RoomID()
	input.Focus()

	return Model{
		room:     room,
		relay:    relay,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		timeline: viewport.New(0, 0),
		input:    input,
		feedback: room.Feedback(),
	}
}

// Init starts listening for relayed engine messages.
func (model Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, model.relay.listen())
}

// StopErr returns the loop's fatal error, if the program exited
// because of one.
func (model Model) StopErr() error {
	return model.stopErr
}

// Left reports whether the program exited because the user left the
// room.
func (model Model) Left() bool {
	return model.left
}

// Update handles one message.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.layout()
		model.refreshTimeline(true)
		return model, nil

	case BatchMsg:
		// Follow new messages only if the reader was already at the
		// bottom.
		follow := model.timeline.AtBottom()
		model.refreshTimeline(follow && len(message.Result.Appended) > 0)
		return model, model.relay.listen()

	case FeedbackMsg:
		model.feedback = message.Message
		return model, model.relay.listen()

	case StoppedMsg:
		model.stopErr = message.Err
		return model, tea.Quit

	case commandResultMsg:
		if message.err != nil {
			model.feedback = message.err.Error()
			return model, nil
		}
		if message.kind == commandLeave {
			model.left = true
			return model, tea.Quit
		}
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	return model, cmd
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.PageUp):
		model.timeline.HalfViewUp()
		return model, nil

	case key.Matches(message, model.keys.PageDown):
		model.timeline.HalfViewDown()
		return model, nil

	case key.Matches(message, model.keys.Bottom):
		model.timeline.GotoBottom()
		return model, nil

	case key.Matches(message, model.keys.Submit):
		line := model.input.Value()
		model.input.Reset()
		parsed, err := parseInput(line)
		if err != nil {
			model.feedback = err.Error()
			return model, nil
		}
		if parsed.kind == commandQuit {
			return model, tea.Quit
		}
		return model, model.run(parsed)
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	return model, cmd
}

// run returns a command that executes parsed against the room.
func (model Model) run(parsed command) tea.Cmd {
	if parsed.kind == commandNone {
		return nil
	}
	room := model.room
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		var err error
		switch parsed.kind {
		case commandText:
			_, err = room.SendText(ctx, parsed.body)
		case commandEmote:
			_, err = room.SendEmote(ctx, parsed.body)
		case commandImage:
			_, err = room.SendImage(ctx, parsed.image)
		case commandInvite:
			err = room.Invite(ctx, parsed.user)
		case commandLeave:
			err = room.Leave(ctx)
		}
		return commandResultMsg{kind: parsed.kind, err: err}
	}
}

// layout sizes the timeline and input to the window.
func (model *Model) layout() {
	// Header, border, feedback, and input lines.
	bodyHeight := model.height - 4
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	model.timeline.Width = model.timelineWidth()
	model.timeline.Height = bodyHeight
	model.input.Width = model.width - len(model.input.Prompt) - 1
}

func (model Model) timelineWidth() int {
	width := model.width - rosterWidth - 1
	if width < 10 {
		width = model.width
	}
	return width
}

func (model Model) showRoster() bool {
	return model.timelineWidth() != model.width
}

// refreshTimeline re-renders the timeline from the room state.
func (model *Model) refreshTimeline(gotoBottom bool) {
	state := model.room.State()
	names := make(map[string]string)
	for _, member := range state.Members() {
		if member.DisplayName != "" {
			names[member.UserID] = member.DisplayName
		}
	}
	model.timeline.SetContent(renderTimeline(model.theme, state.Messages(), names, model.room.UserID(), model.timeline.Width))
	if gotoBottom {
		model.timeline.GotoBottom()
	}
}

// View renders the screen.
func (model Model) View() string {
	if model.width == 0 {
		return ""
	}

	state := model.room.State()
	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Background(model.theme.HeaderBackground).
		Bold(true).
		Width(model.width).
		Render(ansi.Truncate(fmt.Sprintf(" %s  ·  %s", model.room.RoomID(), model.room.UserID()), model.width, "…"))

	body := model.timeline.View()
	if model.showRoster() {
		separator := lipgloss.NewStyle().Foreground(model.theme.BorderColor).
			Render(strings.TrimSuffix(strings.Repeat("│\n", model.timeline.Height), "\n"))
		roster := lipgloss.NewStyle().Width(rosterWidth).Height(model.timeline.Height).
			Render(renderRoster(model.theme, state.Members(), rosterWidth, model.timeline.Height))
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(model.timeline.Width).Render(body), separator, roster)
	}

	border := lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render(strings.Repeat("─", model.width))
	feedback := lipgloss.NewStyle().Foreground(model.theme.FeedbackText).
		Render(ansi.Truncate(model.feedback, model.width, "…"))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, border, feedback, model.input.View())
}
