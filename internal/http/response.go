package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"moneta/internal/core"
	"moneta/internal/stores"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses. Validation errors
// are the client's fault, everything unexpected is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stores.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, stores.ErrDuplicateBudget):
		writeError(w, http.StatusConflict, "category already has a budget")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDay,
		core.ErrInvalidMonth,
		core.ErrInvalidAmount,
		core.ErrInvalidFrequency,
		core.ErrEmptyDescription,
		core.ErrEmptyName,
		core.ErrEmptyCategory,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
