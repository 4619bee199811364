// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-decide/auth"
	"github.com/danielhkuo/quickly-decide/middleware"
	"github.com/danielhkuo/quickly-decide/models"
)

// writeError maps domain errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a 500 with a generic message.
func writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrMissingAdminKey), errors.Is(err, auth.ErrInvalidAdminKey):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
	default:
		slog.Error("request failed", "action", action, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to "+action)
	}
}
