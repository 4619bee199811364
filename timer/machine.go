// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package timer

// State is one of the countdown machine's states
type State string

const (
	Stopped State = "stopped"
	Running State = "running"
	Paused  State = "paused"
)

type EventType string

const (
	EventRun         EventType = "RUN"
	EventTick        EventType = "TICK"
	EventPause       EventType = "PAUSE"
	EventStop        EventType = "STOP"
	EventUpdateLimit EventType = "UPDATE_LIMIT"
)

// Event is sent to the machine. Limit is only read for UPDATE_LIMIT.
type Event struct {
	Type  EventType
	Limit int
}

// Context is the extended state carried alongside State.
// Limit 0 means the countdown never stops on its own.
type Context struct {
	Current int
	Limit   int
}

// Snapshot is the observable state of a timer at one point in time
type Snapshot struct {
	State   State `json:"state"`
	Current int   `json:"current"`
	Limit   int   `json:"limit"`
}

// Transition applies a single event. Events the state does not handle
// leave both state and context unchanged.
func Transition(s State, c Context, e Event) (State, Context) {
	if e.Type == EventUpdateLimit {
		c.Limit = max(e.Limit, 0)
		return s, c
	}

	switch s {
	case Stopped:
		if e.Type == EventRun {
			return Running, c
		}
	case Running:
		switch e.Type {
		case EventTick:
			c.Current++
		case EventPause:
			return Paused, c
		case EventStop:
			return Stopped, c
		}
	case Paused:
		switch e.Type {
		case EventRun:
			return Running, c
		case EventStop:
			return Stopped, c
		}
	}
	return s, c
}

// Settle takes eventless transitions until no guard holds.
// The two guards are mutually exclusive, so this terminates after at most one step.
func Settle(s State, c Context) State {
	for {
		next := s
		switch s {
		case Stopped:
			if shouldResume(c) {
				next = Running
			}
		case Running:
			if limitReached(c) {
				next = Stopped
			}
		}
		if next == s {
			return s
		}
		s = next
	}
}

func shouldResume(c Context) bool {
	return c.Limit > 0 && c.Current > 0 && c.Limit > c.Current
}

func limitReached(c Context) bool {
	return c.Limit > 0 && c.Current >= c.Limit
}
