package handlers

import (
	"net/http"

	"galry/internal/startup"
)

// versionResponse is the build information plus the cache policy the
// server was started with.
type versionResponse struct {
	startup.BuildInfo
	CachePolicy string `json:"cachePolicy"`
}

// GetVersion reports build information and the active cache policy mode.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, versionResponse{
		BuildInfo:   startup.GetBuildInfo(),
		CachePolicy: h.policy.Mode.String(),
	})
}
