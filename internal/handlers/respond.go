package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"movie-stream/internal/logging"
	"movie-stream/internal/movies"
	"movie-stream/internal/transcoder"
)

// statusClientClosedRequest mirrors the nginx 499 convention for requests
// the client abandoned; the response is rarely seen but keeps logs honest.
const statusClientClosedRequest = 499

// apiResponse is the envelope every API endpoint returns, success or failure.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func (h *Handlers) writeSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *Handlers) writeFailure(w http.ResponseWriter, statusCode int, message string, errs []string) {
	writeJSON(w, statusCode, apiResponse{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

// writeError maps a pipeline error to the right status class. Client-fault
// errors carry their own message; internal errors are logged in full and
// surfaced generically unless dev mode echoes detail back.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *movies.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeFailure(w, http.StatusBadRequest, ve.Error(), nil)

	case errors.Is(err, movies.ErrNotFound):
		h.writeFailure(w, http.StatusNotFound, "Movie not found.", nil)

	case errors.Is(err, transcoder.ErrCancelled):
		logging.Info("Request cancelled: %s %s", r.Method, r.URL.Path)
		h.writeFailure(w, statusClientClosedRequest, "The upload was cancelled.", nil)

	default:
		logging.Error("Request failed: %s %s: %v", r.Method, r.URL.Path, err)
		var errs []string
		if h.devMode {
			errs = []string{err.Error()}
		}
		h.writeFailure(w, http.StatusInternalServerError, "An unexpected error occurred while processing the request.", errs)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}
