package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundchat/internal/shared"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

var okBody = successBody{Success: true}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a domain error to a response status and client-facing message.
//
// fallback is used for upstream and unexpected failures so provider details stay in the log.
func statusFor(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "Catalog provider is not configured"
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound, "Playlist not found"
	case errors.Is(err, shared.ErrDuplicateTrack):
		return http.StatusBadRequest, "Track already in playlist"
	case errors.Is(err, shared.ErrAuthFailed):
		return http.StatusBadRequest, "Authentication failed"
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}

// writeError logs err and writes the mapped JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error, fallback string) {
	status, msg := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a JSON request body into v. Malformed or oversized bodies are [shared.ErrInvalidInput].
//
// An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
