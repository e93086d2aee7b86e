package handlers

import (
	"net/http"

	"movie-stream/internal/startup"
)

// GetVersion returns build and version information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
