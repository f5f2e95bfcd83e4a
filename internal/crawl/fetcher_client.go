package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/metrics"
	"github.com/ternarybob/dropscout/internal/models"
	"golang.org/x/time/rate"
)

// submitRequest is the payload posted to the fetcher to request a page be
// rendered and delivered via webhook (spec.md §4.3).
type submitRequest struct {
	URL            string `json:"url"`
	CorrelationID  string `json:"correlation_id"`
	WebhookBaseURL string `json:"webhook_base_url"`
}

// FetcherClient is the Fetcher Client (C5): submits a URL to the fetcher
// and hands back a correlation id for the Webhook Handler to match the
// eventual callback against. It never retries internally; failures are
// handed to the Scheduler's retry path.
type FetcherClient struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	webhookBaseURL string
	limiter        *rate.Limiter
	logger         arbor.ILogger
}

// NewFetcherClient builds a Fetcher Client. The limiter throttles submit
// concurrency underneath the Pacing Scheduler's randomized inter-submit
// delay, bounding burstiness if many jobs kick at once.
func NewFetcherClient(apiKey, baseURL, webhookBaseURL string, submitTimeout time.Duration, limiter *rate.Limiter, logger arbor.ILogger) *FetcherClient {
	return &FetcherClient{
		httpClient:     &http.Client{Timeout: submitTimeout},
		apiKey:         apiKey,
		baseURL:        baseURL,
		webhookBaseURL: webhookBaseURL,
		limiter:        limiter,
		logger:         logger,
	}
}

// Submit posts targetURL to the fetcher under the given correlation id.
// Returns a transport/non-2xx error, wrapped; the caller is responsible
// for routing it into the retry path (spec.md §4.5).
func (c *FetcherClient) Submit(ctx context.Context, targetURL string, jobID string, kind models.URLKind, itemID string) (correlationID string, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("fetcher submit rate limit wait: %w", err)
	}

	correlationID = FormatCorrelationID(jobID, kind, itemID)
	body, err := json.Marshal(submitRequest{
		URL:            targetURL,
		CorrelationID:  correlationID,
		WebhookBaseURL: c.webhookBaseURL,
	})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("correlation_id", correlationID).Msg("Fetcher submit transport error")
		metrics.IncSubmitError()
		return correlationID, fmt.Errorf("fetcher submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("correlation_id", correlationID).Msg("Fetcher submit rejected")
		metrics.IncSubmitError()
		return correlationID, fmt.Errorf("fetcher submit: unexpected status %d", resp.StatusCode)
	}

	metrics.IncSubmission()
	c.logger.Debug().Str("correlation_id", correlationID).Str("url", targetURL).Msg("Submitted to fetcher")
	return correlationID, nil
}
