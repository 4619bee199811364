// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package timer implements a countdown state machine driven by one-second ticks.

# States

	stopped ──RUN──▶ running ──PAUSE──▶ paused
	   ▲                │  ▲              │
	   └──STOP / limit──┘  └─────RUN──────┘

The context is {Current, Limit}. TICK increments Current while running.
UPDATE_LIMIT replaces Limit in any state; 0 disables the limit.

# Eventless Transitions

After every event the machine settles:

  - running → stopped when Limit > 0 and Current >= Limit
  - stopped → running when Limit > 0 and 0 < Current < Limit

The second rule means a countdown stopped part-way through picks up again
immediately, and a timer created WithCurrent resumes on its own.

# Concurrency

Each Timer owns one goroutine. Events sent with Send and ticks from the
internal ticker go through the same select loop, so the context is never
mutated concurrently. The ticker exists only while running.

	t := timer.New(300, timer.WithOnLimitReached(func(s timer.Snapshot) {
		// countdown finished
	}))
	defer t.Close()
	t.Run()

Events a state does not handle are dropped without error.
*/
package timer
