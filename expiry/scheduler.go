// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package expiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-decide/models"
	"github.com/danielhkuo/quickly-decide/timer"
)

const (
	expireTimeout = 10 * time.Second
	resumePage    = 100
)

type Abandoner interface {
	Abandon(ctx context.Context, id string) (models.Poll, error)
}

type Lister interface {
	List(ctx context.Context, q models.PollQuery) (models.PollPage, error)
}

// Scheduler keeps one countdown per open, time-limited poll and abandons
// the poll when its countdown reaches the limit.
type Scheduler struct {
	abandoner Abandoner
	interval  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	timers map[string]*timer.Timer
	closed bool
}

// NewScheduler creates a scheduler whose timers tick every interval.
func NewScheduler(abandoner Abandoner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = timer.DefaultInterval
	}
	return &Scheduler{
		abandoner: abandoner,
		interval:  interval,
		now:       time.Now,
		timers:    make(map[string]*timer.Timer),
	}
}

// Watch arms a countdown for poll. Polls without a limit, polls that are
// no longer POLLING and polls already watched are ignored. A poll whose
// deadline has passed is abandoned straight away.
//
// The countdown counts ticks of the scheduler's interval, so the interval
// sets the resolution of the deadline, not its length.
func (s *Scheduler) Watch(poll models.Poll) {
	deadline, ok := poll.Deadline()
	if !ok || poll.Status.Terminal() {
		return
	}

	now := s.now()
	if !now.Before(deadline) {
		slog.Info("poll deadline already passed", "poll_id", poll.ID, "deadline", humanize.Time(deadline))
		go s.expire(poll.ID)
		return
	}
	limit := s.ticks(deadline.Sub(poll.StartTime))
	elapsed := max(int(now.Sub(poll.StartTime)/s.interval), 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, exists := s.timers[poll.ID]; exists {
		return
	}

	id := poll.ID
	t := timer.New(limit,
		timer.WithInterval(s.interval),
		timer.WithCurrent(elapsed),
		timer.WithOnLimitReached(func(timer.Snapshot) { s.expire(id) }),
	)
	// a countdown with progress resumes on its own
	if elapsed == 0 {
		t.Run()
	}
	s.timers[id] = t

	slog.Info("poll expiry scheduled",
		"poll_id", id,
		"limit_ticks", limit,
		"elapsed_ticks", elapsed,
		"deadline", humanize.Time(deadline),
	)
}

// Forget stops and drops the countdown for id, if any.
func (s *Scheduler) Forget(id string) {
	s.mu.Lock()
	t, ok := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()

	if ok {
		t.Close()
		slog.Debug("poll expiry cancelled", "poll_id", id)
	}
}

// Resume watches every open, time-limited poll. Used at startup.
// Every page is read before any poll is watched: watching can abandon
// overdue polls, which would shift later pages of the listing.
func (s *Scheduler) Resume(ctx context.Context, lister Lister) error {
	limited := true
	var polls []models.Poll
	for page := 1; ; page++ {
		result, err := lister.List(ctx, models.PollQuery{
			Status:      models.StatusPolling,
			IsTimeLimit: &limited,
			Page:        page,
			Limit:       resumePage,
		})
		if err != nil {
			return fmt.Errorf("list polls to resume: %w", err)
		}
		polls = append(polls, result.Docs...)
		if len(result.Docs) < resumePage {
			break
		}
	}

	for _, p := range polls {
		s.Watch(p)
	}
	slog.Info("poll expiry resumed", "polls", len(polls))
	return nil
}

// ticks converts d into a number of intervals, rounding up so a countdown
// never ends before its deadline.
func (s *Scheduler) ticks(d time.Duration) int {
	n := d / s.interval
	if d%s.interval != 0 {
		n++
	}
	return int(n)
}

// Snapshot reports the countdown for id.
func (s *Scheduler) Snapshot(id string) (timer.Snapshot, bool) {
	s.mu.Lock()
	t, ok := s.timers[id]
	s.mu.Unlock()
	if !ok {
		return timer.Snapshot{}, false
	}
	return t.Snapshot(), true
}

// Control forwards RUN, PAUSE or STOP to the countdown for id.
func (s *Scheduler) Control(id string, event timer.EventType) (timer.Snapshot, error) {
	switch event {
	case timer.EventRun, timer.EventPause, timer.EventStop:
	default:
		return timer.Snapshot{}, fmt.Errorf("%w: unsupported timer event %q", models.ErrValidation, event)
	}

	s.mu.Lock()
	t, ok := s.timers[id]
	s.mu.Unlock()
	if !ok {
		return timer.Snapshot{}, fmt.Errorf("%w: no countdown for poll %s", models.ErrNotFound, id)
	}

	snap := t.Send(timer.Event{Type: event})
	slog.Info("poll countdown controlled", "poll_id", id, "event", event, "state", snap.State)
	return snap, nil
}

// Subscribe streams countdown snapshots for id until cancel is called or
// the countdown is dropped.
func (s *Scheduler) Subscribe(id string) (<-chan timer.Snapshot, func(), error) {
	s.mu.Lock()
	t, ok := s.timers[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: no countdown for poll %s", models.ErrNotFound, id)
	}
	updates, cancel := t.Subscribe()
	return updates, cancel, nil
}

// Close stops every countdown. Watch is a no-op afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	timers := s.timers
	s.timers = make(map[string]*timer.Timer)
	s.closed = true
	s.mu.Unlock()

	for _, t := range timers {
		t.Close()
	}
}

func (s *Scheduler) expire(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	_, err := s.abandoner.Abandon(ctx, id)
	switch {
	case err == nil:
		slog.Info("poll expired", "poll_id", id)
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrNotFound):
		slog.Debug("expired poll already closed", "poll_id", id, "error", err)
	default:
		slog.Error("failed to expire poll", "poll_id", id, "error", err)
	}

	s.Forget(id)
}
