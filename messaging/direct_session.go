// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/roomsync/lib/secret"
)

// DirectSession is an authenticated session against the homeserver.
// The access token lives in a secret.Buffer; call Close to release it.
type DirectSession struct {
	client      *Client
	accessToken *secret.Buffer
	userID      string
}

// UserID returns the fully-qualified user ID (e.g., "@alice:example.org").
func (s *DirectSession) UserID() string {
	return s.userID
}

// CloseIdleConnections drops idle pooled connections of the
// underlying transport.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Close releases the access token memory. Idempotent.
func (s *DirectSession) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

// Events long-polls GET /events from the given stream token. The
// timeout is sent to the server in milliseconds; the server returns an
// empty chunk with an unchanged or advanced End once it elapses.
func (s *DirectSession) Events(ctx context.Context, from string, timeout time.Duration) (*EventsResponse, error) {
	query := url.Values{}
	if from != "" {
		query.Set("from", from)
	}
	query.Set("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/events", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: events from %q failed: %w", from, err)
	}

	var response EventsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse events response: %w", err)
	}
	if response.End == "" {
		return nil, fmt.Errorf("messaging: events response missing end token")
	}
	return &response, nil
}

// JoinRoom joins a room by ID.
func (s *DirectSession) JoinRoom(ctx context.Context, roomID string) error {
	path := "/rooms/" + url.PathEscape(roomID) + "/join"
	if _, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{}, nil); err != nil {
		return fmt.Errorf("messaging: join room %s failed: %w", roomID, err)
	}
	s.client.logger.Info("joined room", "room_id", roomID, "user_id", s.userID)
	return nil
}

// GetMemberList returns the m.room.member events of a room.
func (s *DirectSession) GetMemberList(ctx context.Context, roomID string) ([]Event, error) {
	path := "/rooms/" + url.PathEscape(roomID) + "/members"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get member list for %s failed: %w", roomID, err)
	}

	var response MembersResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse member list response: %w", err)
	}
	return response.Chunk, nil
}

// GetDisplayName fetches a user's display name. Returns an empty
// string (not an error) if the user has none set.
func (s *DirectSession) GetDisplayName(ctx context.Context, userID string) (string, error) {
	path := "/profile/" + url.PathEscape(userID) + "/displayname"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: get display name for %s failed: %w", userID, err)
	}

	var response DisplayNameResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse display name response: %w", err)
	}
	return response.DisplayName, nil
}

// GetAvatarURL fetches a user's avatar URL. Returns an empty string
// (not an error) if the user has none set.
func (s *DirectSession) GetAvatarURL(ctx context.Context, userID string) (string, error) {
	path := "/profile/" + url.PathEscape(userID) + "/avatar_url"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: get avatar URL for %s failed: %w", userID, err)
	}

	var response AvatarURLResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse avatar URL response: %w", err)
	}
	return response.AvatarURL, nil
}

// SendTextMessage sends an m.text message. Markdown in body is
// rendered into an HTML formatted_body alongside the plain body.
func (s *DirectSession) SendTextMessage(ctx context.Context, roomID, body string) (string, error) {
	return s.sendMessage(ctx, roomID, NewTextMessage(body))
}

// SendEmoteMessage sends an m.emote message ("/me" actions).
func (s *DirectSession) SendEmoteMessage(ctx context.Context, roomID, body string) (string, error) {
	return s.sendMessage(ctx, roomID, NewEmoteMessage(body))
}

// SendImageMessage sends an m.image message referencing an already
// uploaded content URI.
func (s *DirectSession) SendImageMessage(ctx context.Context, roomID string, image ImageContent) (string, error) {
	if image.URL == "" {
		return "", fmt.Errorf("messaging: image URL is required")
	}
	image.MsgType = MsgTypeImage
	if image.Body == "" {
		image.Body = "Image"
	}
	return s.sendMessage(ctx, roomID, image)
}

func (s *DirectSession) sendMessage(ctx context.Context, roomID string, content any) (string, error) {
	path := "/rooms/" + url.PathEscape(roomID) + "/send/" + EventTypeMessage + "/" + s.nextTransactionID()
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: send to %s failed: %w", roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// InviteUser invites a user to a room.
func (s *DirectSession) InviteUser(ctx context.Context, roomID, userID string) error {
	path := "/rooms/" + url.PathEscape(roomID) + "/invite"
	if _, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, InviteRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("messaging: invite %s to %s failed: %w", userID, roomID, err)
	}
	return nil
}

// LeaveRoom leaves a room.
func (s *DirectSession) LeaveRoom(ctx context.Context, roomID string) error {
	path := "/rooms/" + url.PathEscape(roomID) + "/leave"
	if _, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{}, nil); err != nil {
		return fmt.Errorf("messaging: leave room %s failed: %w", roomID, err)
	}
	s.client.logger.Info("left room", "room_id", roomID, "user_id", s.userID)
	return nil
}

// nextTransactionID returns a random transaction ID. The homeserver
// deduplicates sends that reuse one, so IDs must never repeat across
// restarts.
func (s *DirectSession) nextTransactionID() string {
	return "m" + uuid.NewString()
}
