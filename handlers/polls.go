// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-decide/auth"
	"github.com/danielhkuo/quickly-decide/expiry"
	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/middleware"
	"github.com/danielhkuo/quickly-decide/models"
)

type PollHandler struct {
	lc    *lifecycle.Lifecycle
	sched *expiry.Scheduler
	keys  auth.Keys
}

func NewPollHandler(lc *lifecycle.Lifecycle, sched *expiry.Scheduler, keys auth.Keys) *PollHandler {
	return &PollHandler{lc: lc, sched: sched, keys: keys}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.lc.Create(r.Context(), lifecycle.CreateInput{
		Name:      req.Name,
		Members:   req.Members,
		Options:   req.Options,
		LimitTime: req.LimitTime,
	})
	if err != nil {
		writeError(w, err, "create poll")
		return
	}

	h.sched.Watch(poll)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		Poll:     poll,
		AdminKey: h.keys.Issue(poll.ID),
	})
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.PollQuery{
		Name:   q.Get("name"),
		Status: models.PollStatus(q.Get("status")),
		Result: q.Get("result"),
		Sort:   q.Get("sort"),
	}

	if v := q.Get("isTimeLimit"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "isTimeLimit must be true or false")
			return
		}
		query.IsTimeLimit = &b
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &query.Page},
		{"limit", &query.Limit},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, p.name+" must be a number")
			return
		}
		*p.dst = n
	}

	page, err := h.lc.List(r.Context(), query)
	if err != nil {
		writeError(w, err, "list polls")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, page)
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.lc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get poll")
		return
	}
	h.respondView(w, r, http.StatusOK, poll)
}

// UpdatePoll handles PATCH /polls/{id}
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")
	if err := h.keys.Authorize(r, pollID); err != nil {
		writeError(w, err, "update poll")
		return
	}

	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.lc.Update(r.Context(), pollID, lifecycle.UpdateInput{
		Name:    req.Name,
		Members: req.Members,
		Options: req.Options,
	})
	if err != nil {
		writeError(w, err, "update poll")
		return
	}
	h.respondView(w, r, http.StatusOK, poll)
}

// RemovePoll handles DELETE /polls/{id}
func (h *PollHandler) RemovePoll(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")
	if err := h.keys.Authorize(r, pollID); err != nil {
		writeError(w, err, "remove poll")
		return
	}

	if err := h.lc.Remove(r.Context(), pollID); err != nil {
		writeError(w, err, "remove poll")
		return
	}
	h.sched.Forget(pollID)

	middleware.JSONResponse(w, http.StatusOK, models.RemovePollResponse{Message: "poll removed"})
}

// GiveOpinion handles POST /polls/{id}/opinions
func (h *PollHandler) GiveOpinion(w http.ResponseWriter, r *http.Request) {
	var req models.GiveOpinionRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.lc.SubmitOpinion(r.Context(), chi.URLParam(r, "id"), req.Member, req.Options)
	if err != nil {
		writeError(w, err, "submit opinion")
		return
	}
	h.respondView(w, r, http.StatusOK, poll)
}

// Decide handles POST /polls/{id}/decide
func (h *PollHandler) Decide(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")
	if err := h.keys.Authorize(r, pollID); err != nil {
		writeError(w, err, "decide poll")
		return
	}

	var req models.DecideRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.lc.Decide(r.Context(), pollID, req.Result)
	if err != nil {
		writeError(w, err, "decide poll")
		return
	}
	h.sched.Forget(pollID)

	h.respondView(w, r, http.StatusOK, poll)
}

// Abandon handles POST /polls/{id}/abandon
func (h *PollHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")
	if err := h.keys.Authorize(r, pollID); err != nil {
		writeError(w, err, "abandon poll")
		return
	}

	poll, err := h.lc.Abandon(r.Context(), pollID)
	if err != nil {
		writeError(w, err, "abandon poll")
		return
	}
	h.sched.Forget(pollID)

	h.respondView(w, r, http.StatusOK, poll)
}

// GetResults handles GET /polls/{id}/results
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	poll, err := h.lc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get results")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, lifecycle.Tally(poll))
}

func (h *PollHandler) respondView(w http.ResponseWriter, r *http.Request, status int, poll models.Poll) {
	view, err := h.lc.View(r.Context(), poll)
	if err != nil {
		slog.Error("failed to resolve poll view", "poll_id", poll.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
		return
	}
	middleware.JSONResponse(w, status, view)
}
