// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/roomsync/lib/roomstate"
	"github.com/bureau-foundation/roomsync/messaging"
)

const (
	testRoom = "!room:example.org"
	testUser = "@me:example.org"
)

// testRoomView is a Room over a real RoomState with recorded commands.
type testRoomView struct {
	state      *roomstate.RoomState
	dispatcher *roomstate.Dispatcher
	commandErr error

	mu       sync.Mutex
	commands []string
}

func newTestRoomView() *testRoomView {
	state := roomstate.New(testRoom)
	return &testRoomView{state: state, dispatcher: roomstate.NewDispatcher(state, nil)}
}

func (r *testRoomView) record(command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, command)
	return r.commandErr
}

func (r *testRoomView) RoomID() string                 { return testRoom }
func (r *testRoomView) UserID() string                 { return testUser }
func (r *testRoomView) State() *roomstate.RoomState    { return r.state }
func (r *testRoomView) Feedback() string               { return "" }
func (r *testRoomView) Leave(context.Context) error    { return r.record("leave") }
func (r *testRoomView) Invite(_ context.Context, userID string) error {
	return r.record("invite " + userID)
}

func (r *testRoomView) SendText(_ context.Context, body string) (string, error) {
	return "$e", r.record("text " + body)
}

func (r *testRoomView) SendEmote(_ context.Context, body string) (string, error) {
	return "$e", r.record("emote " + body)
}

func (r *testRoomView) SendImage(_ context.Context, image messaging.ImageContent) (string, error) {
	return "$e", r.record("image " + image.URL + " " + image.Body)
}

func (r *testRoomView) apply(events ...messaging.Event) roomstate.Result {
	return r.dispatcher.Apply(events)
}

func member(userID, membership string, content map[string]any) messaging.Event {
	if content == nil {
		content = map[string]any{}
	}
	content["membership"] = membership
	return messaging.Event{Type: messaging.EventTypeMember, RoomID: testRoom, TargetUserID: userID, Content: content}
}

func text(sender, body string) messaging.Event {
	return messaging.Event{
		Type:    messaging.EventTypeMessage,
		RoomID:  testRoom,
		UserID:  sender,
		Content: map[string]any{"msgtype": messaging.MsgTypeText, "body": body},
	}
}

func sizedModel(t *testing.T, room *testRoomView) Model {
	t.Helper()
	model := NewModel(room, NewRelay(1))
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return updated.(Model)
}

func update(t *testing.T, model Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := model.Update(message)
	return updated.(Model), cmd
}

func typeLine(t *testing.T, model Model, line string) (Model, tea.Cmd) {
	t.Helper()
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)})
	return update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestBatchRendersTimelineAndRoster(t *testing.T) {
	room := newTestRoomView()
	model := sizedModel(t, room)

	result := room.apply(
		member("@alice:example.org", "join", map[string]any{"displayname": "Alice"}),
		member("@bob:example.org", "invite", nil),
		member("@carol:example.org", "leave", nil),
		messaging.Event{Type: messaging.EventTypePresence, Content: map[string]any{"user_id": "@alice:example.org", "state": "online"}},
		text("@alice:example.org", "hello there"),
		messaging.Event{
			Type:    messaging.EventTypeMessage,
			RoomID:  testRoom,
			UserID:  "@alice:example.org",
			Content: map[string]any{"msgtype": messaging.MsgTypeEmote, "body": "waves"},
		},
	)
	model, cmd := update(t, model, BatchMsg{Result: result})
	if cmd == nil {
		t.Error("BatchMsg did not re-arm the relay listener")
	}

	screen := ansi.Strip(model.View())
	for _, want := range []string{"Alice: hello there", "* Alice waves", "Members (2)", "@bob:example.org (invited)", testRoom} {
		if !strings.Contains(screen, want) {
			t.Errorf("screen missing %q:\n%s", want, screen)
		}
	}
	if strings.Contains(screen, "@carol:example.org") {
		t.Errorf("departed member shown in roster:\n%s", screen)
	}
}

func TestTimelineFollowsBottom(t *testing.T) {
	room := newTestRoomView()
	model := sizedModel(t, room)

	var events []messaging.Event
	for range 40 {
		events = append(events, text("@alice:example.org", "line"))
	}
	model, _ = update(t, model, BatchMsg{Result: room.apply(events...)})
	if !model.timeline.AtBottom() {
		t.Fatal("timeline did not follow appended messages")
	}

	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyPgUp})
	if model.timeline.AtBottom() {
		t.Fatal("page up did not scroll")
	}
	offset := model.timeline.YOffset

	model, _ = update(t, model, BatchMsg{Result: room.apply(text("@alice:example.org", "new"))})
	if model.timeline.YOffset != offset {
		t.Errorf("timeline jumped from %d to %d while scrolled up", offset, model.timeline.YOffset)
	}

	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyCtrlG})
	if !model.timeline.AtBottom() {
		t.Error("ctrl+g did not return to the latest message")
	}
}

func TestSubmitRunsCommands(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"hello", "text hello"},
		{"//etc/passwd is a path", "text /etc/passwd is a path"},
		{"/me waves", "emote waves"},
		{"/invite @bob:example.org", "invite @bob:example.org"},
		{"/image mxc://example.org/cat a cat", "image mxc://example.org/cat a cat"},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			room := newTestRoomView()
			model := sizedModel(t, room)

			model, cmd := typeLine(t, model, test.line)
			if model.input.Value() != "" {
				t.Errorf("input not cleared: %q", model.input.Value())
			}
			if cmd == nil {
				t.Fatal("submit produced no command")
			}
			result, ok := cmd().(commandResultMsg)
			if !ok || result.err != nil {
				t.Fatalf("command result = %#v", result)
			}
			if len(room.commands) != 1 || room.commands[0] != test.want {
				t.Errorf("commands = %q, want [%q]", room.commands, test.want)
			}
		})
	}
}

func TestCommandErrorsShowFeedback(t *testing.T) {
	room := newTestRoomView()
	room.commandErr = errors.New("roomsync: send message: M_LIMIT_EXCEEDED")
	model := sizedModel(t, room)

	model, cmd := typeLine(t, model, "hello")
	model, _ = update(t, model, cmd())
	if !strings.Contains(ansi.Strip(model.View()), "M_LIMIT_EXCEEDED") {
		t.Errorf("feedback line missing command error:\n%s", ansi.Strip(model.View()))
	}

	model, cmd = typeLine(t, model, "/frobnicate")
	if cmd != nil {
		t.Error("unknown command produced a room command")
	}
	if !strings.Contains(model.feedback, "unknown command /frobnicate") {
		t.Errorf("feedback = %q", model.feedback)
	}
}

func TestLeaveQuits(t *testing.T) {
	room := newTestRoomView()
	model := sizedModel(t, room)

	model, cmd := typeLine(t, model, "/leave")
	model, cmd = update(t, model, cmd())
	if !model.Left() {
		t.Error("Left() = false after successful /leave")
	}
	if !isQuit(cmd) {
		t.Error("successful /leave did not quit")
	}
}

func TestEngineMessages(t *testing.T) {
	room := newTestRoomView()
	model := sizedModel(t, room)

	model, _ = update(t, model, FeedbackMsg{Message: "Lost connection to the server"})
	if !strings.Contains(ansi.Strip(model.View()), "Lost connection to the server") {
		t.Error("feedback not rendered")
	}
	model, _ = update(t, model, FeedbackMsg{})
	if model.feedback != "" {
		t.Errorf("feedback = %q after clear", model.feedback)
	}

	fatal := errors.New("roomsync: event stream forbidden")
	model, cmd := update(t, model, StoppedMsg{Err: fatal})
	if !errors.Is(model.StopErr(), fatal) {
		t.Errorf("StopErr() = %v", model.StopErr())
	}
	if !isQuit(cmd) {
		t.Error("StoppedMsg did not quit")
	}
}

func TestQuitKeys(t *testing.T) {
	model := sizedModel(t, newTestRoomView())
	if _, cmd := update(t, model, tea.KeyMsg{Type: tea.KeyEsc}); !isQuit(cmd) {
		t.Error("esc did not quit")
	}
	if _, cmd := typeLine(t, model, "/quit"); !isQuit(cmd) {
		t.Error("/quit did not quit")
	}
}

func TestRelay(t *testing.T) {
	relay := NewRelay(2)
	relay.Feedback("offline")
	relay.Batch(roomstate.Result{})

	if message, ok := relay.listen()().(FeedbackMsg); !ok || message.Message != "offline" {
		t.Errorf("first relayed message = %#v", message)
	}
	if _, ok := relay.listen()().(BatchMsg); !ok {
		t.Error("second relayed message is not a BatchMsg")
	}

	relay.Close()
	relay.Close()
	// Full buffer would block without Close.
	relay.Stopped(nil)
	relay.Stopped(nil)
	relay.Stopped(nil)
}
