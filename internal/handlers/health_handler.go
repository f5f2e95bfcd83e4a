package handlers

import (
	"net/http"

	"github.com/ternarybob/dropscout/internal/crawl"
)

// HealthHandler serves GET /crawl/health, surfacing the end-to-end
// self-test's last result (spec.md §7, "Self-test").
type HealthHandler struct {
	selfTest *crawl.SelfTest
}

// NewHealthHandler builds a HealthHandler.
func NewHealthHandler(selfTest *crawl.SelfTest) *HealthHandler {
	return &HealthHandler{selfTest: selfTest}
}

type healthResponse struct {
	Healthy   bool   `json:"healthy"`
	LastRanAt string `json:"last_ran_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Handle responds 200 when the last self-test round-trip succeeded, 503
// otherwise so the response code alone is liveness-probe friendly.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ok, lastRanAt, errMsg := h.selfTest.Status()

	resp := healthResponse{Healthy: ok, Error: errMsg}
	if !lastRanAt.IsZero() {
		resp.LastRanAt = lastRanAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
