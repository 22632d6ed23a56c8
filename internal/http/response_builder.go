package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"orrfdash/internal/core"
	"orrfdash/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON renders a response body as JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps service errors onto HTTP statuses. Unknown errors are
// logged and surfaced as a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotLoaded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "dataset not loaded"})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, core.ErrInvalidYear), errors.Is(err, core.ErrInvalidLimit):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
