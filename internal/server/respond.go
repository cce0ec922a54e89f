// ABOUTME: JSON response helpers and error-to-status mapping for the HTTP API.
// ABOUTME: Internal errors are logged and answered with a generic message.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harperreed/caltra/internal/auth"
	"github.com/harperreed/caltra/internal/tracker"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// writeError maps tracker and auth errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotAuthenticated):
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, tracker.ErrInvalidInput):
		errorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrNotFound):
		errorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		errorJSON(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		errorJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		errorJSON(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		errorJSON(w, http.StatusInternalServerError, "something went wrong")
	}
}
