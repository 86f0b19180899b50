// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/roomsync/lib/clock"
	"github.com/bureau-foundation/roomsync/lib/roomstate"
)

// DefaultBackoff is the fixed delay before retrying a failed poll.
const DefaultBackoff = 5 * time.Second

// Phase is where a [PollLoop] is in its cycle.
type Phase int32

const (
	PhasePolling Phase = iota
	PhaseDispatching
	PhaseBackoffWait
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhasePolling:
		return "polling"
	case PhaseDispatching:
		return "dispatching"
	case PhaseBackoffWait:
		return "backoff-wait"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// LoopConfig configures a [PollLoop].
type LoopConfig struct {
	// Feed is polled once per cycle. Required.
	Feed EventFeed

	// Dispatcher applies each batch. Required.
	Dispatcher *roomstate.Dispatcher

	// Profiles resolves display names and avatars for members created
	// by a batch. Nil disables resolution.
	Profiles ProfileSource

	// Clock measures the backoff. Nil uses the real clock.
	Clock clock.Clock

	// Backoff is the delay after a transient failure. Zero uses
	// DefaultBackoff.
	Backoff time.Duration

	// InitialCursor is where the stream starts. Empty uses
	// InitialCursor.
	InitialCursor string

	// OnBatch is called after each batch is applied and its profile
	// lookups scheduled. It runs on the loop goroutine: the next poll
	// is not issued until it returns.
	OnBatch func(roomstate.Result)

	// Feedback receives user-visible failure messages. Nil creates a
	// private one, readable through PollLoop.Feedback.
	Feedback *Feedback

	// Metrics is optional.
	Metrics *Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// PollLoop drives one room's event stream. At most one poll is in
// flight at a time.
type PollLoop struct {
	feed       EventFeed
	dispatcher *roomstate.Dispatcher
	state      *roomstate.RoomState
	clock      clock.Clock
	backoff    time.Duration
	onBatch    func(roomstate.Result)
	feedback   *Feedback
	metrics    *Metrics
	logger     *slog.Logger

	cursor   *Cursor
	resolver *profileResolver
	phase    atomic.Int32

	stopOnce sync.Once
	stop     chan struct{}
	started  atomic.Bool
	done     chan struct{}
	// err is written before done is closed.
	err error
}

// NewPollLoop validates config and returns a loop in [PhasePolling]
// that has not started. Call Run to start it.
func NewPollLoop(config LoopConfig) (*PollLoop, error) {
	if config.Feed == nil {
		return nil, errors.New("roomsync: LoopConfig.Feed is required")
	}
	if config.Dispatcher == nil {
		return nil, errors.New("roomsync: LoopConfig.Dispatcher is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Backoff <= 0 {
		config.Backoff = DefaultBackoff
	}
	if config.Feedback == nil {
		config.Feedback = NewFeedback(nil)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	state := config.Dispatcher.State()
	logger := config.Logger.With("room_id", state.RoomID())
	return &PollLoop{
		feed:       config.Feed,
		dispatcher: config.Dispatcher,
		state:      state,
		clock:      config.Clock,
		backoff:    config.Backoff,
		onBatch:    config.OnBatch,
		feedback:   config.Feedback,
		metrics:    config.Metrics,
		logger:     logger,
		cursor:     NewCursor(config.InitialCursor),
		resolver:   newProfileResolver(context.Background(), config.Profiles, state, config.Metrics, logger),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Run polls until Stop is called, ctx is cancelled, or the server
// refuses the stream. It returns nil when stopped by Stop or ctx, and
// an error wrapping [ErrForbidden] on a forbidden failure. Run may be
// called once.
func (l *PollLoop) Run(ctx context.Context) (err error) {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("roomsync: PollLoop.Run called twice")
	}
	defer func() {
		l.phase.Store(int32(PhaseStopped))
		l.err = err
		close(l.done)
	}()

	l.logger.Info("event stream started", "cursor", l.cursor.Token())
	failing := false

	for {
		if l.stopRequested(ctx) {
			l.logger.Info("event stream stopped", "cursor", l.cursor.Token())
			return nil
		}

		l.phase.Store(int32(PhasePolling))
		from := l.cursor.Token()
		batch, err := l.feed.Poll(ctx, from)
		if err != nil {
			if l.stopRequested(ctx) {
				l.logger.Info("event stream stopped", "cursor", from)
				return nil
			}

			class := classify(err)
			l.metrics.observePoll(class.String())
			if class == failureForbidden {
				l.feedback.Set(fmt.Sprintf("Access to the event stream was denied; sync has stopped: %v", err))
				l.logger.Error("event stream forbidden, stopping", "cursor", from, "error", err)
				return fmt.Errorf("%w: %w", ErrForbidden, err)
			}

			failing = true
			l.feedback.Set(fmt.Sprintf("Lost connection to the server, retrying in %s: %v", l.backoff, err))
			l.logger.Warn("poll failed, backing off",
				"cursor", from,
				"backoff", l.backoff,
				"error", err,
			)
			if !l.waitBackoff(ctx) {
				l.logger.Info("event stream stopped during backoff", "cursor", from)
				return nil
			}
			continue
		}

		l.metrics.observePoll("success")
		l.cursor.advance(batch.End)
		if failing {
			failing = false
			l.feedback.Clear()
			l.logger.Info("event stream recovered", "cursor", batch.End)
		}

		l.phase.Store(int32(PhaseDispatching))
		result := l.dispatcher.Apply(batch.Events)
		l.metrics.observeBatch(result, l.state)
		l.resolver.flush(result.Pending)
		if l.onBatch != nil {
			l.onBatch(result)
		}
	}
}

// waitBackoff sleeps for the backoff interval. Returns false if a stop
// arrived first.
func (l *PollLoop) waitBackoff(ctx context.Context) bool {
	l.phase.Store(int32(PhaseBackoffWait))
	timer := l.clock.NewTimer(l.backoff)
	select {
	case <-timer.C:
		return !l.stopRequested(ctx)
	case <-l.stop:
		timer.Stop()
		return false
	case <-ctx.Done():
		timer.Stop()
		return false
	}
}

func (l *PollLoop) stopRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// Stop asks the loop to exit. A poll in flight is allowed to finish;
// the loop exits before issuing the next one. A backoff wait ends
// immediately. Safe to call more than once and before Run.
func (l *PollLoop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed when Run returns.
func (l *PollLoop) Done() <-chan struct{} {
	return l.done
}

// Err returns the error Run returned, once Done is closed. Before
// that it returns nil.
func (l *PollLoop) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Phase returns the current phase.
func (l *PollLoop) Phase() Phase {
	return Phase(l.phase.Load())
}

// Cursor returns the resume token.
func (l *PollLoop) Cursor() string {
	return l.cursor.Token()
}

// Feedback returns the current user-visible failure message, or "".
func (l *PollLoop) Feedback() string {
	return l.feedback.Message()
}

// ResolveProfiles schedules profile lookups outside a poll cycle, for
// batches applied directly through the dispatcher (the initial member
// list).
func (l *PollLoop) ResolveProfiles(requests []roomstate.ProfileRequest) {
	l.resolver.flush(requests)
}

// WaitProfiles blocks until every profile lookup scheduled so far has
// finished.
func (l *PollLoop) WaitProfiles() {
	l.resolver.wait()
}
