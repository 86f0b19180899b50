// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/roomsync/lib/roomstate"
)

// ProfileSource looks up a user's profile fields.
// messaging.Session satisfies it.
type ProfileSource interface {
	GetDisplayName(ctx context.Context, userID string) (string, error)
	GetAvatarURL(ctx context.Context, userID string) (string, error)
}

// profileResolver runs the lookups requested by a committed batch.
// Each lookup runs in its own goroutine and writes back only if the
// member still exists; failures are logged and dropped.
type profileResolver struct {
	source  ProfileSource
	state   *roomstate.RoomState
	metrics *Metrics
	logger  *slog.Logger

	// ctx is detached from the loop's cancellation: lookups in flight
	// when the view closes finish and then no-op against the closed
	// state.
	ctx context.Context
	wg  sync.WaitGroup
}

func newProfileResolver(ctx context.Context, source ProfileSource, state *roomstate.RoomState, metrics *Metrics, logger *slog.Logger) *profileResolver {
	return &profileResolver{
		source:  source,
		state:   state,
		metrics: metrics,
		logger:  logger,
		ctx:     context.WithoutCancel(ctx),
	}
}

// flush starts lookups for requests. Call only after the batch that
// produced them has been applied.
func (r *profileResolver) flush(requests []roomstate.ProfileRequest) {
	if r == nil || r.source == nil {
		return
	}
	for _, request := range requests {
		userID := request.UserID
		r.wg.Add(2)
		go r.resolve(userID, "displayname", r.source.GetDisplayName, r.state.SetDisplayName)
		go r.resolve(userID, "avatar_url", r.source.GetAvatarURL, r.state.SetAvatarURL)
	}
}

func (r *profileResolver) resolve(
	userID, field string,
	lookup func(context.Context, string) (string, error),
	store func(userID, value string) bool,
) {
	defer r.wg.Done()

	value, err := lookup(r.ctx, userID)
	if err != nil {
		r.metrics.observeLookup(field, "error")
		r.logger.Debug("profile lookup failed", "user_id", userID, "field", field, "error", err)
		return
	}
	if value == "" {
		r.metrics.observeLookup(field, "empty")
		return
	}
	if !store(userID, value) {
		r.metrics.observeLookup(field, "discarded")
		return
	}
	r.metrics.observeLookup(field, "stored")
}

// wait blocks until every lookup started so far has finished.
func (r *profileResolver) wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
