package handlers

import (
	"net/http"

	"github.com/ternarybob/dropscout/internal/metrics"
)

// MetricsHandler serves GET /metrics in Prometheus exposition format.
type MetricsHandler struct {
	inner http.Handler
}

// NewMetricsHandler builds a MetricsHandler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{inner: metrics.Handler()}
}

func (h *MetricsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.inner.ServeHTTP(w, r)
}
