// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomstate

import (
	"errors"
	"log/slog"

	"github.com/bureau-foundation/roomsync/messaging"
)

// Kind is how the dispatcher handled one event.
type Kind string

const (
	KindMessage    Kind = "message"
	KindMembership Kind = "membership"
	KindPresence   Kind = "presence"
	KindIgnored    Kind = "ignored"
	KindMalformed  Kind = "malformed"
)

// ProfileRequest asks for a member's display name and avatar to be
// resolved after the batch that created the member is committed.
type ProfileRequest struct {
	UserID string
}

// Result describes the effect of one applied batch.
type Result struct {
	// Appended holds the messages added to the timeline, in order.
	Appended []Message
	// Pending holds profile lookups for members created by the batch.
	// Run them only after Apply has returned.
	Pending []ProfileRequest
	// Counts tallies events by how they were handled.
	Counts map[Kind]int
}

// errMalformed marks events that are missing a required field or carry
// a field of the wrong type.
var errMalformed = errors.New("malformed event")

// Dispatcher routes stream events to the projector for their type.
type Dispatcher struct {
	state  *RoomState
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher for state. If logger is nil,
// slog.Default() is used.
func NewDispatcher(state *RoomState, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		state:  state,
		logger: logger.With("room_id", state.roomID),
	}
}

// State returns the state this dispatcher mutates.
func (d *Dispatcher) State() *RoomState {
	return d.state
}

// Apply applies events in order. The whole batch is applied under one
// write lock. Events for other rooms, unknown types, and presence for
// unknown users are ignored; malformed events are skipped. Neither
// stops the rest of the batch. Applying to a closed state does nothing.
func (d *Dispatcher) Apply(events []messaging.Event) Result {
	result := Result{Counts: make(map[Kind]int)}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	if d.state.closed {
		result.Counts[KindIgnored] = len(events)
		return result
	}

	for index := range events {
		kind, err := d.applyLocked(&events[index], &result)
		if err != nil {
			kind = KindMalformed
			d.logger.Debug("skipping event",
				"event_id", events[index].EventID,
				"type", events[index].Type,
				"error", err,
			)
		}
		result.Counts[kind]++
	}
	return result
}

func (d *Dispatcher) applyLocked(event *messaging.Event, result *Result) (Kind, error) {
	if event.Type != messaging.EventTypePresence && event.RoomID != d.state.roomID {
		return KindIgnored, nil
	}

	switch event.Type {
	case messaging.EventTypeMessage:
		message, err := d.state.appendMessageLocked(event)
		if err != nil {
			return KindMalformed, err
		}
		result.Appended = append(result.Appended, message)
		return KindMessage, nil

	case messaging.EventTypeMember:
		created, userID, err := d.state.applyMembershipLocked(event)
		if err != nil {
			return KindMalformed, err
		}
		if created {
			result.Pending = append(result.Pending, ProfileRequest{UserID: userID})
		}
		return KindMembership, nil

	case messaging.EventTypePresence:
		known, err := d.state.applyPresenceLocked(event, d.logger)
		if err != nil {
			return KindMalformed, err
		}
		if !known {
			return KindIgnored, nil
		}
		return KindPresence, nil

	default:
		return KindIgnored, nil
	}
}

// appendMessageLocked appends a message event. The displayed actor is
// content.membership_target when present, else the event sender.
func (s *RoomState) appendMessageLocked(event *messaging.Event) (Message, error) {
	if event.Content == nil {
		return Message{}, errMissing("content")
	}
	userID := event.UserID
	if target, present, err := optionalString(event.Content, "membership_target"); err != nil {
		return Message{}, err
	} else if present && target != "" {
		userID = target
	}

	message := Message{
		EventID:        event.EventID,
		RoomID:         event.RoomID,
		UserID:         userID,
		Type:           event.Type,
		OriginServerTS: event.OriginServerTS,
		Content:        event.Content,
	}
	s.messages = append(s.messages, message)
	return message, nil
}
