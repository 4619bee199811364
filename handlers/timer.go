// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/danielhkuo/quickly-decide/auth"
	"github.com/danielhkuo/quickly-decide/expiry"
	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/middleware"
	"github.com/danielhkuo/quickly-decide/models"
	"github.com/danielhkuo/quickly-decide/timer"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// TimerHandler exposes the countdown of a time-limited poll.
type TimerHandler struct {
	lc       *lifecycle.Lifecycle
	sched    *expiry.Scheduler
	keys     auth.Keys
	upgrader websocket.Upgrader
}

func NewTimerHandler(lc *lifecycle.Lifecycle, sched *expiry.Scheduler, keys auth.Keys) *TimerHandler {
	return &TimerHandler{
		lc:    lc,
		sched: sched,
		keys:  keys,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same policy as middleware.CORS
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GetTimer handles GET /polls/{id}/timer
func (h *TimerHandler) GetTimer(w http.ResponseWriter, r *http.Request) {
	poll, err := h.lc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get timer")
		return
	}

	snap, ok := h.sched.Snapshot(poll.ID)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "poll has no running countdown")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, timerResponse(poll, snap))
}

// ControlTimer handles POST /polls/{id}/timer
func (h *TimerHandler) ControlTimer(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")
	if err := h.keys.Authorize(r, pollID); err != nil {
		writeError(w, err, "control timer")
		return
	}

	var req models.TimerControlRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.lc.Get(r.Context(), pollID)
	if err != nil {
		writeError(w, err, "control timer")
		return
	}

	event := timer.EventType(strings.ToUpper(strings.TrimSpace(req.Event)))
	snap, err := h.sched.Control(pollID, event)
	if err != nil {
		writeError(w, err, "control timer")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, timerResponse(poll, snap))
}

// StreamTimer handles GET /polls/{id}/timer/stream. Each countdown change
// is written as a JSON TimerResponse until the countdown ends or the peer
// goes away.
func (h *TimerHandler) StreamTimer(w http.ResponseWriter, r *http.Request) {
	poll, err := h.lc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "stream timer")
		return
	}

	updates, cancel, err := h.sched.Subscribe(poll.ID)
	if errors.Is(err, models.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "poll has no running countdown")
		return
	}
	if err != nil {
		writeError(w, err, "stream timer")
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "poll_id", poll.ID, "error", err)
		return
	}
	defer conn.Close()

	slog.Info("timer stream connected", "poll_id", poll.ID)

	// The read pump only handles control frames; it ends when the peer
	// closes or stops answering pings.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("timer stream read error", "poll_id", poll.ID, "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			slog.Info("timer stream disconnected", "poll_id", poll.ID)
			return
		case snap, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "countdown ended"))
				return
			}
			if err := conn.WriteJSON(timerResponse(poll, snap)); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func timerResponse(poll models.Poll, snap timer.Snapshot) models.TimerResponse {
	resp := models.TimerResponse{
		PollID:  poll.ID,
		State:   string(snap.State),
		Current: snap.Current,
		Limit:   snap.Limit,
	}
	if deadline, ok := poll.Deadline(); ok {
		resp.Deadline = &deadline
	}
	return resp
}
