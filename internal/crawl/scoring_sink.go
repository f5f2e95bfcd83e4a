package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/dropscout/internal/models"
)

// ScoringSink is the pinned contract to the downstream scoring
// collaborator (spec.md §1, "deliver parsed product records to a
// downstream scoring stage"; §3: "the core ... writes through the scoring
// collaborator, never directly"). The core never inserts into
// scored_products itself — only the collaborator does, after scoring.
type ScoringSink interface {
	Submit(ctx context.Context, jobID string, product *models.CanonicalProduct) error
}

// HTTPScoringSink posts admitted product records to the external scoring
// collaborator's ingestion endpoint.
type HTTPScoringSink struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPScoringSink builds a ScoringSink that POSTs to baseURL + "/ingest".
func NewHTTPScoringSink(baseURL string, timeout time.Duration) *HTTPScoringSink {
	return &HTTPScoringSink{httpClient: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

type scoringSubmission struct {
	JobID   string                   `json:"job_id"`
	Product *models.CanonicalProduct `json:"product"`
}

// Submit hands one admitted product to the scoring collaborator.
func (s *HTTPScoringSink) Submit(ctx context.Context, jobID string, product *models.CanonicalProduct) error {
	body, err := json.Marshal(scoringSubmission{JobID: jobID, Product: product})
	if err != nil {
		return fmt.Errorf("marshal scoring submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/ingest", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build scoring submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit to scoring collaborator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("scoring collaborator rejected submission: status %d", resp.StatusCode)
	}
	return nil
}
