package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"movie-stream/internal/logging"
)

// Recovery returns a catch-all middleware guaranteeing every response is a
// structured JSON envelope, never a raw panic page. The panic is always
// logged with its stack before responding; the response echoes detail only
// in dev mode.
func Recovery(devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				logging.Error("Panic handling %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())

				message := "An unexpected error occurred."
				var errs []string
				if devMode {
					errs = []string{fmt.Sprintf("%v", rec)}
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)

				envelope := struct {
					Success bool     `json:"success"`
					Message string   `json:"message"`
					Errors  []string `json:"errors,omitempty"`
				}{
					Success: false,
					Message: message,
					Errors:  errs,
				}
				if err := json.NewEncoder(w).Encode(envelope); err != nil {
					logging.Error("failed to encode panic response: %v", err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
