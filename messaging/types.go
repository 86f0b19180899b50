// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

// Event types handled by the room sync engine.
const (
	EventTypeMessage  = "m.room.message"
	EventTypeMember   = "m.room.member"
	EventTypePresence = "m.presence"
)

// Membership states carried in m.room.member content.
const (
	MembershipInvite = "invite"
	MembershipJoin   = "join"
	MembershipLeave  = "leave"
	MembershipBan    = "ban"
)

// Message types for m.room.message content.
const (
	MsgTypeText  = "m.text"
	MsgTypeEmote = "m.emote"
	MsgTypeImage = "m.image"
)

// HTMLFormat is the format value for HTML formatted_body content.
const HTMLFormat = "org.matrix.custom.html"

// Event is one event from the stream or from a member list.
//
// UserID is the actor that produced the event. TargetUserID names the
// subject of a membership event; older servers only set StateKey, so
// consumers fall back to it. Presence events carry no RoomID and name
// their user inside Content.
type Event struct {
	EventID        string         `json:"event_id,omitempty"`
	Type           string         `json:"type"`
	RoomID         string         `json:"room_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	TargetUserID   string         `json:"target_user_id,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
	OriginServerTS int64          `json:"origin_server_ts,omitempty"`
	Content        map[string]any `json:"content"`
}

// EventsResponse is returned by the /events long-poll. End is the
// resume token for the next request.
type EventsResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Chunk []Event `json:"chunk"`
}

// MembersResponse is returned by /rooms/{roomId}/members.
type MembersResponse struct {
	Chunk []Event `json:"chunk"`
}

// MessageContent is the content of an m.room.message text or emote event.
type MessageContent struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// ImageContent is the content of an m.image message. URL is the
// content URI of the uploaded image (e.g., "mxc://example.org/abc").
type ImageContent struct {
	MsgType string     `json:"msgtype"`
	Body    string     `json:"body"`
	URL     string     `json:"url"`
	Info    *ImageInfo `json:"info,omitempty"`
}

// ImageInfo describes an image attachment.
type ImageInfo struct {
	Width    int    `json:"w,omitempty"`
	Height   int    `json:"h,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// InviteRequest holds the user ID to invite to a room.
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// SendEventResponse is returned by the send endpoints.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// DisplayNameResponse is returned by /profile/{userId}/displayname.
type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}

// AvatarURLResponse is returned by /profile/{userId}/avatar_url.
type AvatarURLResponse struct {
	AvatarURL string `json:"avatar_url"`
}
