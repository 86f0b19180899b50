// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/roomsync/lib/roomstate"
)

// BatchMsg reports that a batch was applied to the room state.
type BatchMsg struct {
	Result roomstate.Result
}

// FeedbackMsg carries a new feedback message ("" clears it).
type FeedbackMsg struct {
	Message string
}

// StoppedMsg reports that the poll loop exited. Err is nil when the
// loop was stopped deliberately.
type StoppedMsg struct {
	Err error
}

// Relay carries sync-engine notifications to the model. Its methods
// block until the model takes the message, which keeps the poll loop
// from running ahead of the screen. After Close they return at once.
type Relay struct {
	messages  chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewRelay creates a relay with room for buffer undelivered messages.
func NewRelay(buffer int) *Relay {
	return &Relay{
		messages: make(chan tea.Msg, buffer),
		done:     make(chan struct{}),
	}
}

// Batch forwards an applied batch. Matches roomsync.ViewConfig.OnBatch.
func (r *Relay) Batch(result roomstate.Result) {
	r.send(BatchMsg{Result: result})
}

// Feedback forwards a feedback change. Matches
// roomsync.ViewConfig.OnFeedback.
func (r *Relay) Feedback(message string) {
	r.send(FeedbackMsg{Message: message})
}

// Stopped forwards the loop's exit.
func (r *Relay) Stopped(err error) {
	r.send(StoppedMsg{Err: err})
}

// Close drops all further messages. Call it when the program exits.
func (r *Relay) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Relay) send(message tea.Msg) {
	select {
	case r.messages <- message:
	case <-r.done:
	}
}

// listen returns a command that waits for the next relayed message.
// The model re-issues it after handling each one.
func (r *Relay) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case message := <-r.messages:
			return message
		case <-r.done:
			return nil
		}
	}
}
