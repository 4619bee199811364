// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Decide API.

# Handler Types

Each handler is a struct built over the poll lifecycle and its countdowns:

  - PollHandler: Poll lifecycle (create, update, opinions, decide, abandon)
  - TimerHandler: Countdown snapshots, control and websocket stream
  - DirectoryHandler: Users and restaurants polls refer to

Handlers are created via constructor functions:

	pollHandler := handlers.NewPollHandler(lc, sched, keys)

# Poll Lifecycle

Polls start POLLING and end either COMPLETED (with a result) or ABANDONED:

	POST /polls               → CreatePoll (returns admin_key)
	POST /polls/{id}/opinions → GiveOpinion (replaces the member's earlier opinion)
	POST /polls/{id}/decide   → Decide
	POST /polls/{id}/abandon  → Abandon
	GET  /polls/{id}/results  → GetResults (per-option tally)

Update, remove, decide, abandon and timer control require the X-Admin-Key
header. Acting on a poll that already ended answers 409.

# Countdowns

A poll created with limit_time gets a countdown that abandons it when it
runs out:

	GET  /polls/{id}/timer        → GetTimer
	POST /polls/{id}/timer        → ControlTimer (RUN, PAUSE or STOP)
	GET  /polls/{id}/timer/stream → StreamTimer (websocket)

# Errors

Domain errors map onto statuses in one place: validation 400, bad admin
key 401, unknown id 404, ended poll or lost race 409. Everything else is
logged and answered with a generic 500.
*/
package handlers
