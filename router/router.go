// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-decide/auth"
	"github.com/danielhkuo/quickly-decide/cliparse"
	"github.com/danielhkuo/quickly-decide/expiry"
	"github.com/danielhkuo/quickly-decide/handlers"
	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/middleware"
)

// Deps are the services the routes are served from.
type Deps struct {
	Lifecycle *lifecycle.Lifecycle
	Directory handlers.DirectoryStore
	Scheduler *expiry.Scheduler
	Config    cliparse.Config
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.WithLogging)

	keys := auth.NewKeys(deps.Config.AdminKeySalt)

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(deps.Lifecycle, deps.Scheduler, keys)
	timerHandler := handlers.NewTimerHandler(deps.Lifecycle, deps.Scheduler, keys)
	directoryHandler := handlers.NewDirectoryHandler(deps.Directory)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Directory
	r.Post("/users", directoryHandler.CreateUser)
	r.Get("/users/{id}", directoryHandler.GetUser)
	r.Post("/restaurants", directoryHandler.CreateRestaurant)
	r.Get("/restaurants/{id}", directoryHandler.GetRestaurant)

	// Polls (update, remove, decide, abandon and timer control need X-Admin-Key)
	r.Route("/polls", func(r chi.Router) {
		r.Post("/", pollHandler.CreatePoll)
		r.Get("/", pollHandler.ListPolls)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", pollHandler.GetPoll)
			r.Patch("/", pollHandler.UpdatePoll)
			r.Delete("/", pollHandler.RemovePoll)
			r.Post("/opinions", pollHandler.GiveOpinion)
			r.Post("/decide", pollHandler.Decide)
			r.Post("/abandon", pollHandler.Abandon)
			r.Get("/results", pollHandler.GetResults)

			r.Get("/timer", timerHandler.GetTimer)
			r.Post("/timer", timerHandler.ControlTimer)
			r.Get("/timer/stream", timerHandler.StreamTimer)
		})
	})

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-decide API v1"))
	})

	return r
}
