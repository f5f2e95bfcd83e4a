package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/common"
	"github.com/ternarybob/dropscout/internal/crawl"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// CrawlHandler serves the admin HTTP surface for starting, inspecting and
// cancelling crawl jobs (spec.md §6).
type CrawlHandler struct {
	jobStore    *postgres.JobStore
	queueStore  *postgres.QueueStore
	logStore    *postgres.JobLogStore
	coordinator *crawl.Coordinator
	scheduler   *crawl.Scheduler
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewCrawlHandler builds a CrawlHandler.
func NewCrawlHandler(jobStore *postgres.JobStore, queueStore *postgres.QueueStore, logStore *postgres.JobLogStore, coordinator *crawl.Coordinator, scheduler *crawl.Scheduler, logger arbor.ILogger) *CrawlHandler {
	return &CrawlHandler{
		jobStore: jobStore, queueStore: queueStore, logStore: logStore,
		coordinator: coordinator, scheduler: scheduler,
		validate: validator.New(), logger: logger,
	}
}

type startJobRequest struct {
	Keywords          []string `json:"keywords" validate:"required,min=1"`
	PriceMin          float64  `json:"price_min" validate:"gte=0"`
	PriceMax          float64  `json:"price_max" validate:"gtefield=PriceMin"`
	IncludeWarehouses []string `json:"include_warehouses"`
	ExcludeWarehouses []string `json:"exclude_warehouses"`
	IncludeCategories []string `json:"include_categories"`
	ExcludeCategories []string `json:"exclude_categories"`
}

type startJobResponse struct {
	JobID               string `json:"job_id"`
	Status              string `json:"status"`
	SearchURLsSubmitted int64  `json:"search_urls_submitted"`
}

// StartJob handles POST /crawl/start: creates a job, enqueues one seed
// search item per keyword at the discovery priority tier, and starts the
// job's Scheduler task.
func (h *CrawlHandler) StartJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	job := &models.CrawlJob{
		ID:     common.NewJobID(),
		Status: models.JobStatusRunning,
		Config: models.JobConfig{
			Keywords: req.Keywords, PriceMin: req.PriceMin, PriceMax: req.PriceMax,
			IncludeWarehouses: req.IncludeWarehouses, ExcludeWarehouses: req.ExcludeWarehouses,
			IncludeCategories: req.IncludeCategories, ExcludeCategories: req.ExcludeCategories,
		},
		CreatedAt: now,
		StartedAt: &now,
	}
	if err := h.jobStore.Insert(ctx, job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to insert new job")
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	var submitted int64
	for _, keyword := range req.Keywords {
		seedURL := seedSearchURL(keyword)
		item := &models.QueueItem{
			ID: common.NewQueueItemID(), JobID: job.ID, URL: seedURL,
			URLKind: models.URLKindSearch, Keyword: keyword,
			Priority: models.PriorityDiscovery, Status: models.ItemStatusPending,
			CreatedAt: now,
		}
		inserted, err := h.queueStore.Enqueue(ctx, item)
		if err != nil {
			h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to enqueue seed search item")
			continue
		}
		if inserted {
			submitted++
		}
	}
	if submitted > 0 {
		if err := h.coordinator.IncrementCounter(ctx, job.ID, "search_urls_submitted", submitted); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to record initial search_urls_submitted")
		}
	}

	h.scheduler.StartJob(ctx, job.ID)
	h.scheduler.Kick(job.ID, true)

	writeJSON(w, http.StatusOK, startJobResponse{JobID: job.ID, Status: string(job.Status), SearchURLsSubmitted: submitted})
}

// ListJobs handles GET /crawl/jobs.
func (h *CrawlHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobStore.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": jobs})
}

// GetJob handles GET /crawl/{job_id}.
func (h *CrawlHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.jobStore.Get(r.Context(), jobID)
	if errors.Is(err, postgres.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// CancelJob handles DELETE /crawl/{job_id}. Idempotent: cancelling an
// already-cancelled or completed job is a no-op success (spec.md §8,
// "Idempotency of cancellation").
func (h *CrawlHandler) CancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.jobStore.Get(r.Context(), jobID)
	if errors.Is(err, postgres.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job.Status.IsTerminal() {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(job.Status)})
		return
	}
	if err := h.coordinator.Cancel(r.Context(), jobID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cancel job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.JobStatusCancelled)})
}

// GetLogs handles GET /crawl/{job_id}/logs?since=N.
func (h *CrawlHandler) GetLogs(w http.ResponseWriter, r *http.Request, jobID string) {
	var since int64
	if s := r.URL.Query().Get("since"); s != "" {
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
			since = parsed
		}
	}
	logs, err := h.logStore.Since(r.Context(), jobID, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func seedSearchURL(keyword string) string {
	return "https://catalog.example/search?q=" + strings.ReplaceAll(keyword, " ", "+")
}
