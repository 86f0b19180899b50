// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomstate

import "github.com/bureau-foundation/roomsync/messaging"

// applyMembershipLocked projects an m.room.member event onto the
// roster. The first event naming a user creates the entry, seeded with
// any displayname/avatar_url the event carries; later events only
// change the membership field. Presence is left alone on every
// transition, including leave.
//
// Returns created=true when a new entry was made, so the caller can
// schedule profile resolution for it.
func (s *RoomState) applyMembershipLocked(event *messaging.Event) (created bool, userID string, err error) {
	userID = event.TargetUserID
	if userID == "" && event.StateKey != nil {
		userID = *event.StateKey
	}
	if userID == "" {
		return false, "", errMissing("target_user_id")
	}
	if event.Content == nil {
		return false, "", errMissing("content")
	}
	membership, err := requiredString(event.Content, "membership")
	if err != nil {
		return false, "", err
	}

	if member, ok := s.members[userID]; ok {
		member.Membership = membership
		return false, userID, nil
	}

	displayName, _, err := optionalString(event.Content, "displayname")
	if err != nil {
		return false, "", err
	}
	avatarURL, _, err := optionalString(event.Content, "avatar_url")
	if err != nil {
		return false, "", err
	}

	s.members[userID] = &Member{
		UserID:      userID,
		Membership:  membership,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
	s.order = append(s.order, userID)
	return true, userID, nil
}
