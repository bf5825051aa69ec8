package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"nomoney/internal/core"
	"nomoney/internal/storage"
)

type errorResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

// respondServiceError maps domain and storage errors onto API statuses.
// Validation failures are 400s, lifecycle refusals 409s, missing rows 404s;
// anything else is an opaque 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrEmptyCategoryName):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrCategoryNameTaken),
		errors.Is(err, core.ErrDefaultCategoryRename),
		errors.Is(err, core.ErrDefaultCategoryDelete),
		errors.Is(err, core.ErrCategoryHasExpenses):
		respondMessage(w, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondMessage(w, http.StatusInternalServerError, "internal error")
	}
}
