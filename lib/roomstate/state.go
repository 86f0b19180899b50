// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomstate

import "sync"

// PresenceState is a user's presence as reported by m.presence events.
// The zero value means no presence event has been seen for the user.
type PresenceState string

const (
	PresenceOnline      PresenceState = "online"
	PresenceOffline     PresenceState = "offline"
	PresenceUnavailable PresenceState = "unavailable"
)

// Valid reports whether p is one of the known presence states.
func (p PresenceState) Valid() bool {
	switch p {
	case PresenceOnline, PresenceOffline, PresenceUnavailable:
		return true
	}
	return false
}

// Message is one timeline entry. Messages are never mutated after
// they are appended; Content is shared with readers and must be
// treated as read-only.
type Message struct {
	EventID        string         `json:"event_id,omitempty"`
	RoomID         string         `json:"room_id"`
	UserID         string         `json:"user_id"`
	Type           string         `json:"type"`
	OriginServerTS int64          `json:"origin_server_ts,omitempty"`
	Content        map[string]any `json:"content"`
}

// Body returns the content body, or "" when absent.
func (m Message) Body() string {
	body, _ := m.Content["body"].(string)
	return body
}

// MsgType returns the content msgtype, or "" when absent.
func (m Message) MsgType() string {
	msgType, _ := m.Content["msgtype"].(string)
	return msgType
}

// Member is one roster entry. DisplayName, AvatarURL, and Presence are
// empty until resolved or reported.
type Member struct {
	UserID      string        `json:"user_id"`
	Membership  string        `json:"membership"`
	DisplayName string        `json:"displayname,omitempty"`
	AvatarURL   string        `json:"avatar_url,omitempty"`
	Presence    PresenceState `json:"presence,omitempty"`
}

// Name returns the display name, falling back to the user ID.
func (m Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.UserID
}

// RoomState is the projection of one room. All methods are safe for
// concurrent use.
type RoomState struct {
	roomID string

	mu       sync.RWMutex
	messages []Message
	members  map[string]*Member
	// order lists member user IDs in first-seen order.
	order  []string
	closed bool
}

// New creates an empty state for roomID.
func New(roomID string) *RoomState {
	return &RoomState{
		roomID:  roomID,
		members: make(map[string]*Member),
	}
}

// RoomID returns the room this state projects.
func (s *RoomState) RoomID() string {
	return s.roomID
}

// Messages returns a copy of the timeline in arrival order.
func (s *RoomState) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages...)
}

// MessageCount returns the number of messages in the timeline.
func (s *RoomState) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Member returns a copy of the roster entry for userID.
func (s *RoomState) Member(userID string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[userID]
	if !ok {
		return Member{}, false
	}
	return *member, true
}

// Members returns copies of every roster entry in first-seen order.
func (s *RoomState) Members() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]Member, 0, len(s.order))
	for _, userID := range s.order {
		members = append(members, *s.members[userID])
	}
	return members
}

// MemberCount returns the number of roster entries.
func (s *RoomState) MemberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// SetDisplayName writes a resolved display name into an existing
// member. Returns false, changing nothing, if the member is unknown or
// the state has been closed.
func (s *RoomState) SetDisplayName(userID, displayName string) bool {
	return s.updateMember(userID, func(member *Member) {
		member.DisplayName = displayName
	})
}

// SetAvatarURL writes a resolved avatar URL into an existing member.
// Returns false, changing nothing, if the member is unknown or the
// state has been closed.
func (s *RoomState) SetAvatarURL(userID, avatarURL string) bool {
	return s.updateMember(userID, func(member *Member) {
		member.AvatarURL = avatarURL
	})
}

func (s *RoomState) updateMember(userID string, update func(*Member)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[userID]
	if !ok {
		return false
	}
	update(member)
	return true
}

// Close destroys the roster and timeline. Later dispatches and
// profile writebacks are no-ops.
func (s *RoomState) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.messages = nil
	s.members = make(map[string]*Member)
	s.order = nil
}

// Closed reports whether Close has been called.
func (s *RoomState) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Snapshot is a consistent copy of the whole state.
type Snapshot struct {
	RoomID   string    `json:"room_id"`
	Messages []Message `json:"messages"`
	Members  []Member  `json:"members"`
}

// Snapshot copies the timeline and roster under one read lock.
func (s *RoomState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Snapshot{
		RoomID:   s.roomID,
		Messages: append([]Message(nil), s.messages...),
		Members:  make([]Member, 0, len(s.order)),
	}
	for _, userID := range s.order {
		snapshot.Members = append(snapshot.Members, *s.members[userID])
	}
	return snapshot
}
