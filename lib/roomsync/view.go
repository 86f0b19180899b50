// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/roomsync/lib/clock"
	"github.com/bureau-foundation/roomsync/lib/roomstate"
	"github.com/bureau-foundation/roomsync/messaging"
)

// ViewConfig configures [OpenView].
type ViewConfig struct {
	// Session talks to the homeserver. Required.
	Session messaging.Session

	// RoomID is the room to sync. Required.
	RoomID string

	// State is the projection to fill. Nil creates a new one. A
	// caller that needs to read the state from OnBatch before OpenView
	// returns passes its own. It must be empty and for RoomID.
	State *roomstate.RoomState

	// Feed overrides the event feed. Nil polls Session through a
	// SessionFeed with WaitWindow.
	Feed EventFeed

	// WaitWindow is the server-side long-poll hold. Zero uses
	// DefaultWaitWindow.
	WaitWindow time.Duration

	// Backoff, Clock, InitialCursor, and Metrics are passed to the
	// PollLoop.
	Backoff       time.Duration
	Clock         clock.Clock
	InitialCursor string
	Metrics       *Metrics

	// OnBatch is called after the initial member list and after every
	// polled batch. See LoopConfig.OnBatch.
	OnBatch func(roomstate.Result)

	// OnFeedback is called whenever the feedback message changes.
	OnFeedback func(string)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// View is an open room: a joined room whose state is being kept in
// sync. Close it to stop syncing and discard the state.
type View struct {
	session  messaging.Session
	roomID   string
	state    *roomstate.RoomState
	loop     *PollLoop
	feedback *Feedback
	logger   *slog.Logger

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// OpenView joins the room, applies its current member list, and starts
// the poll loop. A failed join is returned as an error (and reported as
// feedback through OnFeedback); a failed member-list fetch is reported
// as feedback and the view opens with an empty roster.
//
// ctx bounds the join and member-list requests only. The loop runs
// until Close or a fatal poll failure.
func OpenView(ctx context.Context, config ViewConfig) (*View, error) {
	if config.Session == nil {
		return nil, errors.New("roomsync: ViewConfig.Session is required")
	}
	if config.RoomID == "" {
		return nil, errors.New("roomsync: ViewConfig.RoomID is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	state := config.State
	if state == nil {
		state = roomstate.New(config.RoomID)
	} else if state.RoomID() != config.RoomID {
		return nil, fmt.Errorf("roomsync: ViewConfig.State is for %s, not %s", state.RoomID(), config.RoomID)
	}

	feedback := NewFeedback(config.OnFeedback)
	session := config.Session

	if err := session.JoinRoom(ctx, config.RoomID); err != nil {
		feedback.Set(fmt.Sprintf("Could not join %s: %v", config.RoomID, err))
		return nil, fmt.Errorf("roomsync: joining %s: %w", config.RoomID, err)
	}

	dispatcher := roomstate.NewDispatcher(state, logger)

	feed := config.Feed
	if feed == nil {
		feed = NewSessionFeed(session, config.WaitWindow, logger)
	}
	loop, err := NewPollLoop(LoopConfig{
		Feed:          feed,
		Dispatcher:    dispatcher,
		Profiles:      session,
		Clock:         config.Clock,
		Backoff:       config.Backoff,
		InitialCursor: config.InitialCursor,
		OnBatch:       config.OnBatch,
		Feedback:      feedback,
		Metrics:       config.Metrics,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	members, err := session.GetMemberList(ctx, config.RoomID)
	if err != nil {
		feedback.Set(fmt.Sprintf("Could not load the member list: %v", err))
		logger.Warn("member list unavailable", "room_id", config.RoomID, "error", err)
	} else {
		result := dispatcher.Apply(members)
		config.Metrics.observeBatch(result, state)
		loop.ResolveProfiles(result.Pending)
		if config.OnBatch != nil {
			config.OnBatch(result)
		}
	}

	loopContext, cancel := context.WithCancel(context.WithoutCancel(ctx))
	view := &View{
		session:  session,
		roomID:   config.RoomID,
		state:    state,
		loop:     loop,
		feedback: feedback,
		logger:   logger,
		cancel:   cancel,
	}
	go loop.Run(loopContext)
	return view, nil
}

// RoomID returns the room this view syncs.
func (v *View) RoomID() string { return v.roomID }

// UserID returns the session owner.
func (v *View) UserID() string { return v.session.UserID() }

// State returns the room state. After Close it is empty.
func (v *View) State() *roomstate.RoomState { return v.state }

// Loop returns the poll loop.
func (v *View) Loop() *PollLoop { return v.loop }

// Feedback returns the current user-visible failure message, or "".
func (v *View) Feedback() string { return v.feedback.Message() }

// Done is closed when the poll loop has exited, whether from Close or
// a fatal failure.
func (v *View) Done() <-chan struct{} { return v.loop.Done() }

// Err returns the loop's fatal error once Done is closed, or nil if it
// stopped normally.
func (v *View) Err() error { return v.loop.Err() }

// SendText sends body as a text message. Returns the event ID.
func (v *View) SendText(ctx context.Context, body string) (string, error) {
	eventID, err := v.session.SendTextMessage(ctx, v.roomID, body)
	if err != nil {
		return "", v.commandFailed("send message", err)
	}
	return eventID, nil
}

// SendEmote sends body as an emote. Returns the event ID.
func (v *View) SendEmote(ctx context.Context, body string) (string, error) {
	eventID, err := v.session.SendEmoteMessage(ctx, v.roomID, body)
	if err != nil {
		return "", v.commandFailed("send emote", err)
	}
	return eventID, nil
}

// SendImage sends an image message. Returns the event ID.
func (v *View) SendImage(ctx context.Context, image messaging.ImageContent) (string, error) {
	eventID, err := v.session.SendImageMessage(ctx, v.roomID, image)
	if err != nil {
		return "", v.commandFailed("send image", err)
	}
	return eventID, nil
}

// Invite invites userID to the room.
func (v *View) Invite(ctx context.Context, userID string) error {
	if err := v.session.InviteUser(ctx, v.roomID, userID); err != nil {
		return v.commandFailed("invite "+userID, err)
	}
	return nil
}

// Leave leaves the room and, on success, closes the view.
func (v *View) Leave(ctx context.Context) error {
	if err := v.session.LeaveRoom(ctx, v.roomID); err != nil {
		return v.commandFailed("leave", err)
	}
	v.Close()
	return nil
}

func (v *View) commandFailed(action string, err error) error {
	v.feedback.Set(fmt.Sprintf("Could not %s: %v", action, err))
	v.logger.Warn("room command failed", "room_id", v.roomID, "action", action, "error", err)
	return fmt.Errorf("roomsync: %s in %s: %w", action, v.roomID, err)
}

// Close stops the loop, waits for it to exit, and destroys the room
// state. Profile lookups still in flight are not cancelled; their
// results are discarded. Idempotent.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		v.loop.Stop()
		v.cancel()
		<-v.loop.Done()
		v.state.Close()
		v.logger.Info("room view closed", "room_id", v.roomID, "cursor", v.loop.Cursor())
	})
}
