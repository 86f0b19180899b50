// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomstate

import (
	"log/slog"

	"github.com/bureau-foundation/roomsync/messaging"
)

// applyPresenceLocked merges an m.presence event into an existing
// member. Fields absent from the event are left unchanged. A state
// outside online/offline/unavailable is dropped; the profile fields in
// the same event are still merged.
//
// Returns known=false when the user is not in the roster: presence
// never creates a member.
func (s *RoomState) applyPresenceLocked(event *messaging.Event, logger *slog.Logger) (known bool, err error) {
	if event.Content == nil {
		return false, errMissing("content")
	}
	userID, err := requiredString(event.Content, "user_id")
	if err != nil {
		return false, err
	}

	state, hasState, err := optionalString(event.Content, "state")
	if err != nil {
		return false, err
	}
	if !hasState {
		// The current wire format names the field "presence".
		state, hasState, err = optionalString(event.Content, "presence")
		if err != nil {
			return false, err
		}
	}
	displayName, hasDisplayName, err := optionalString(event.Content, "displayname")
	if err != nil {
		return false, err
	}
	avatarURL, hasAvatarURL, err := optionalString(event.Content, "avatar_url")
	if err != nil {
		return false, err
	}

	member, ok := s.members[userID]
	if !ok {
		logger.Debug("presence for user not in roster", "user_id", userID)
		return false, nil
	}

	if hasState {
		if presence := PresenceState(state); presence.Valid() {
			member.Presence = presence
		} else {
			logger.Debug("ignoring unrecognized presence state", "user_id", userID, "state", state)
		}
	}
	if hasDisplayName {
		member.DisplayName = displayName
	}
	if hasAvatarURL {
		member.AvatarURL = avatarURL
	}
	return true, nil
}
