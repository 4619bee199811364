// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package timer

import (
	"sync"
	"time"
)

const (
	// DefaultInterval is the wall-clock length of one tick
	DefaultInterval = time.Second

	subscriberBuffer = 16
)

type request struct {
	event Event
	ack   chan Snapshot
}

// Timer runs the countdown machine on its own goroutine. Caller events and
// self-produced ticks are serialized through the same loop.
type Timer struct {
	interval time.Duration
	onLimit  func(Snapshot)

	events    chan request
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

type Option func(*Timer, *Context)

// WithInterval overrides the tick period.
func WithInterval(d time.Duration) Option {
	return func(t *Timer, _ *Context) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithCurrent starts the countdown part-way through. Combined with a limit
// above it, the timer starts running without an explicit RUN.
func WithCurrent(current int) Option {
	return func(_ *Timer, c *Context) {
		c.Current = max(current, 0)
	}
}

// WithOnLimitReached registers fn to run when a running countdown hits its
// limit. fn runs on its own goroutine and may call back into the timer.
func WithOnLimitReached(fn func(Snapshot)) Option {
	return func(t *Timer, _ *Context) {
		t.onLimit = fn
	}
}

// New starts a timer in the stopped state.
func New(limit int, opts ...Option) *Timer {
	t := &Timer{
		interval: DefaultInterval,
		events:   make(chan request),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
		subs:     make(map[int]chan Snapshot),
	}
	ctx := Context{Limit: max(limit, 0)}
	for _, opt := range opts {
		opt(t, &ctx)
	}

	state := Settle(Stopped, ctx)
	t.snap = snapshotOf(state, ctx)

	go t.loop(state, ctx)
	return t
}

// Send delivers an event and waits until the loop has processed it.
// After Close it returns the last snapshot without effect.
func (t *Timer) Send(e Event) Snapshot {
	ack := make(chan Snapshot, 1)
	select {
	case t.events <- request{event: e, ack: ack}:
	case <-t.done:
		return t.Snapshot()
	}
	select {
	case s := <-ack:
		return s
	case <-t.exited:
		return t.Snapshot()
	}
}

func (t *Timer) Run() Snapshot   { return t.Send(Event{Type: EventRun}) }
func (t *Timer) Tick() Snapshot  { return t.Send(Event{Type: EventTick}) }
func (t *Timer) Pause() Snapshot { return t.Send(Event{Type: EventPause}) }
func (t *Timer) Stop() Snapshot  { return t.Send(Event{Type: EventStop}) }

func (t *Timer) UpdateLimit(limit int) Snapshot {
	return t.Send(Event{Type: EventUpdateLimit, Limit: limit})
}

// Snapshot returns the state as of the last processed event.
func (t *Timer) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Subscribe returns a channel receiving a snapshot after every processed
// event, starting with the current one. A subscriber that falls behind
// misses snapshots instead of blocking the timer. The channel is closed by
// the returned cancel func or when the timer closes.
func (t *Timer) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	t.mu.Lock()
	select {
	case <-t.exited:
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	ch <- t.snap
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if sub, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(sub)
			}
		})
	}
}

// Close stops the loop and any pending tick. Safe to call more than once.
func (t *Timer) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
	<-t.exited
}

func (t *Timer) loop(state State, ctx Context) {
	var ticker *time.Ticker
	var tickC <-chan time.Time

	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	// exactly one ticker, owned by the running state
	syncTicker := func() {
		if state == Running && ticker == nil {
			ticker = time.NewTicker(t.interval)
			tickC = ticker.C
		} else if state != Running {
			stopTicker()
		}
	}

	defer func() {
		stopTicker()
		t.mu.Lock()
		for id, sub := range t.subs {
			delete(t.subs, id)
			close(sub)
		}
		close(t.exited)
		t.mu.Unlock()
	}()

	apply := func(e Event) Snapshot {
		prev := state
		mid, next := Transition(state, ctx, e)
		ctx = next
		state = Settle(mid, ctx)

		if prev == Running && mid != Running {
			stopTicker()
		}
		syncTicker()

		snap := snapshotOf(state, ctx)
		t.publish(snap)

		if mid == Running && state == Stopped && t.onLimit != nil {
			go t.onLimit(snap)
		}
		return snap
	}

	syncTicker()
	for {
		select {
		case <-t.done:
			return
		case <-tickC:
			apply(Event{Type: EventTick})
		case req := <-t.events:
			req.ack <- apply(req.event)
		}
	}
}

func (t *Timer) publish(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = s
	for _, sub := range t.subs {
		select {
		case sub <- s:
		default:
		}
	}
}

func snapshotOf(s State, c Context) Snapshot {
	return Snapshot{State: s, Current: c.Current, Limit: c.Limit}
}
