package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"bilancio/internal/core"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors to status codes. Unexpected errors are logged
// and hidden behind a generic 500 body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, core.ErrCategoryInUse):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDayOfMonth) ||
		errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrUnknownPeriod)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message})
}

func unprocessable(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: message})
}

const maxBodyBytes = 64 * 1024

// decodeJSON parses the request body into dst, rejecting unknown fields and
// oversized payloads.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// sanitizeText trims whitespace and strips control characters from free-text
// input.
func sanitizeText(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
