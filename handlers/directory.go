// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-decide/middleware"
	"github.com/danielhkuo/quickly-decide/models"
)

// DirectoryStore registers and looks up the users and restaurants polls
// refer to.
type DirectoryStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	CreateRestaurant(ctx context.Context, r models.Restaurant) (models.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (models.Restaurant, error)
}

type DirectoryHandler struct {
	store DirectoryStore
}

func NewDirectoryHandler(store DirectoryStore) *DirectoryHandler {
	return &DirectoryHandler{store: store}
}

// CreateUser handles POST /users
func (h *DirectoryHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.store.CreateUser(r.Context(), models.User{Name: name})
	if err != nil {
		writeError(w, err, "create user")
		return
	}

	slog.Info("user created", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusCreated, user)
}

// GetUser handles GET /users/{id}
func (h *DirectoryHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get user")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, user)
}

// CreateRestaurant handles POST /restaurants
func (h *DirectoryHandler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRestaurantRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	restaurant, err := h.store.CreateRestaurant(r.Context(), models.Restaurant{
		Name:    name,
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		writeError(w, err, "create restaurant")
		return
	}

	slog.Info("restaurant created", "restaurant_id", restaurant.ID)
	middleware.JSONResponse(w, http.StatusCreated, restaurant)
}

// GetRestaurant handles GET /restaurants/{id}
func (h *DirectoryHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.store.GetRestaurant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get restaurant")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, restaurant)
}
