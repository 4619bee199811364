// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the quickly-decide API.

# Route Registration

NewRouter builds a chi router with CORS and request logging applied to
every route:

	handler := router.NewRouter(router.Deps{
		Lifecycle: lc,
		Directory: store,
		Scheduler: sched,
		Config:    cfg,
	})

# Endpoints

Health:

	GET /health

Directory:

	POST /users              - Register user
	GET  /users/{id}         - Get user
	POST /restaurants        - Register restaurant
	GET  /restaurants/{id}   - Get restaurant

Polls:

	POST   /polls                 - Create poll (returns admin_key)
	GET    /polls                 - List polls (name, status, result, isTimeLimit, page, limit, sort)
	GET    /polls/{id}            - Poll with members, options and opinions resolved
	PATCH  /polls/{id}            - Update name, members, options (admin)
	DELETE /polls/{id}            - Remove poll (admin)
	POST   /polls/{id}/opinions   - Give or replace a member's opinion
	POST   /polls/{id}/decide     - Set the result (admin)
	POST   /polls/{id}/abandon    - Abandon (admin)
	GET    /polls/{id}/results    - Opinion tally

Countdown:

	GET  /polls/{id}/timer        - Countdown snapshot
	POST /polls/{id}/timer        - RUN, PAUSE or STOP (admin)
	GET  /polls/{id}/timer/stream - Websocket stream of snapshots

Admin routes require the X-Admin-Key header returned by poll creation.
Unsupported methods on a known path get 405.
*/
package router
