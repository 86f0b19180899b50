// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/roomsync/lib/testutil"
	"github.com/bureau-foundation/roomsync/messaging"
)

const (
	testRoom = "!room:example.org"
	testUser = "@me:example.org"
	waitTime = 5 * time.Second
)

// pollCall is one Poll invocation waiting for the test to answer it.
type pollCall struct {
	cursor string
	reply  chan pollReply
}

type pollReply struct {
	batch Batch
	err   error
}

func (c pollCall) succeed(end string, events ...messaging.Event) {
	c.reply <- pollReply{batch: Batch{Events: events, End: end}}
}

func (c pollCall) fail(err error) {
	c.reply <- pollReply{err: err}
}

// scriptedFeed hands every Poll to the test through calls.
type scriptedFeed struct {
	calls chan pollCall
}

func newScriptedFeed() *scriptedFeed {
	return &scriptedFeed{calls: make(chan pollCall)}
}

func (f *scriptedFeed) Poll(ctx context.Context, cursor string) (Batch, error) {
	call := pollCall{cursor: cursor, reply: make(chan pollReply, 1)}
	select {
	case f.calls <- call:
	case <-ctx.Done():
		return Batch{}, ctx.Err()
	}
	select {
	case reply := <-call.reply:
		return reply.batch, reply.err
	case <-ctx.Done():
		return Batch{}, ctx.Err()
	}
}

func (f *scriptedFeed) expect(t *testing.T) pollCall {
	t.Helper()
	return testutil.RequireReceive(t, f.calls, waitTime, "waiting for poll")
}

// expectNone fails if a poll is issued within a short grace period.
func (f *scriptedFeed) expectNone(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected poll from cursor %q", call.cursor)
	case <-time.After(50 * time.Millisecond):
	}
}

var errConnectionReset = errors.New("read tcp: connection reset by peer")

func forbiddenError() error {
	return &messaging.MatrixError{
		Code:       messaging.ErrCodeForbidden,
		Message:    "You are not allowed to see this stream",
		StatusCode: 403,
	}
}

func memberEvent(target, membership string) messaging.Event {
	return messaging.Event{
		Type:         messaging.EventTypeMember,
		RoomID:       testRoom,
		TargetUserID: target,
		Content:      map[string]any{"membership": membership},
	}
}

func textEvent(sender, body string) messaging.Event {
	return messaging.Event{
		Type:    messaging.EventTypeMessage,
		RoomID:  testRoom,
		UserID:  sender,
		Content: map[string]any{"msgtype": messaging.MsgTypeText, "body": body},
	}
}

// fakeProfiles answers profile lookups from maps. If gate is non-nil
// every lookup blocks until it is closed.
type fakeProfiles struct {
	displayNames map[string]string
	avatarURLs   map[string]string
	gate         chan struct{}

	mu      sync.Mutex
	lookups []string
}

func (p *fakeProfiles) record(kind, userID string) {
	p.mu.Lock()
	p.lookups = append(p.lookups, kind+":"+userID)
	p.mu.Unlock()
	if p.gate != nil {
		<-p.gate
	}
}

func (p *fakeProfiles) lookupCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lookups)
}

func (p *fakeProfiles) GetDisplayName(_ context.Context, userID string) (string, error) {
	p.record("displayname", userID)
	name, ok := p.displayNames[userID]
	if !ok {
		return "", &messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: 404}
	}
	return name, nil
}

func (p *fakeProfiles) GetAvatarURL(_ context.Context, userID string) (string, error) {
	p.record("avatar_url", userID)
	url, ok := p.avatarURLs[userID]
	if !ok {
		return "", &messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: 404}
	}
	return url, nil
}

// fakeSession is a messaging.Session with scripted results. Events is
// not used: views under test get a scriptedFeed.
type fakeSession struct {
	fakeProfiles

	joinErr    error
	members    []messaging.Event
	membersErr error
	sendErr    error
	inviteErr  error
	leaveErr   error

	mu       sync.Mutex
	joined   []string
	sent     []any
	invited  []string
	left     []string
}

func (s *fakeSession) UserID() string { return testUser }
func (s *fakeSession) Close() error   { return nil }

func (s *fakeSession) Events(context.Context, string, time.Duration) (*messaging.EventsResponse, error) {
	return nil, errors.New("fakeSession: Events not scripted")
}

func (s *fakeSession) JoinRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined = append(s.joined, roomID)
	return s.joinErr
}

func (s *fakeSession) GetMemberList(context.Context, string) ([]messaging.Event, error) {
	return s.members, s.membersErr
}

func (s *fakeSession) send(content any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.sent = append(s.sent, content)
	return "$sent", nil
}

func (s *fakeSession) SendTextMessage(_ context.Context, _, body string) (string, error) {
	return s.send(messaging.NewTextMessage(body))
}

func (s *fakeSession) SendEmoteMessage(_ context.Context, _, body string) (string, error) {
	return s.send(messaging.NewEmoteMessage(body))
}

func (s *fakeSession) SendImageMessage(_ context.Context, _ string, image messaging.ImageContent) (string, error) {
	return s.send(image)
}

func (s *fakeSession) InviteUser(_ context.Context, _, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inviteErr != nil {
		return s.inviteErr
	}
	s.invited = append(s.invited, userID)
	return nil
}

func (s *fakeSession) LeaveRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leaveErr != nil {
		return s.leaveErr
	}
	s.left = append(s.left, roomID)
	return nil
}

var _ messaging.Session = (*fakeSession)(nil)
