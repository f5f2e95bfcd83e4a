package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/crawl"
)

// WebhookHandler serves POST /crawl/webhook, the fetcher's ingress
// callback (spec.md §4.4, §6). The fetcher expects a fast 200 OK; all
// per-result processing happens synchronously before the response,
// including two outbound calls per result: the Catalog Parser's payload
// download and, for admitted products, the scoring collaborator
// submission, each bounded by its own HTTP client timeout.
type WebhookHandler struct {
	handler *crawl.WebhookHandler
	logger  arbor.ILogger
}

// NewWebhookHandler builds the HTTP-facing webhook ingress handler.
func NewWebhookHandler(handler *crawl.WebhookHandler, logger arbor.ILogger) *WebhookHandler {
	return &WebhookHandler{handler: handler, logger: logger}
}

// fetcherCallbackPayload mirrors the fetcher's webhook POST body: a batch
// status plus one result per submitted URL.
type fetcherCallbackPayload struct {
	Status  string                 `json:"status"`
	Results []fetcherCallbackEntry `json:"results"`
}

type fetcherCallbackEntry struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	HTML    string `json:"html"`
	PostID  string `json:"post_id"`
	Error   string `json:"error"`
}

// Handle decodes the fetcher's batch payload into individual callbacks and
// dispatches each to the Webhook Handler. Always responds 200 OK once
// decoded — per-item ghost/duplicate/error conditions are absorbed inside
// crawl.WebhookHandler.Handle and never surfaced back to the fetcher.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var payload fetcherCallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("Malformed webhook payload")
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	ctx := r.Context()
	for _, entry := range payload.Results {
		cb := crawl.WebhookCallback{
			CorrelationID: entry.PostID,
			Success:       entry.Success,
			PayloadURL:    entry.HTML,
			ErrorDesc:     entry.Error,
		}
		if err := h.handler.Handle(ctx, cb); err != nil {
			h.logger.Error().Err(err).Str("correlation_id", entry.PostID).Msg("Webhook callback processing failed")
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
