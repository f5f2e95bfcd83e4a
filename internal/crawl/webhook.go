package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/common"
	"github.com/ternarybob/dropscout/internal/metrics"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/badger"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// WebhookCallback is one result entry from the fetcher's webhook payload
// (spec.md §6, "Fetcher webhook ingress").
type WebhookCallback struct {
	CorrelationID string // post_id
	Success       bool
	PayloadURL    string // html
	ErrorDesc     string // error, on failure
}

// WebhookHandler is the Webhook Handler (C6), the heart of control flow
// (spec.md §4.4).
type WebhookHandler struct {
	jobStore     *postgres.JobStore
	queueStore   *postgres.QueueStore
	logStore     *postgres.JobLogStore
	dedup        *DeduplicationIndex
	filter       *ExclusionFilter
	exclusionCfg *badger.ExclusionCache
	parser       *Parser
	scoringSink  ScoringSink
	coordinator  *Coordinator
	scheduler    *Scheduler
	retryPolicy  *RetryPolicy
	logger       arbor.ILogger

	selfTestNotify func(itemID string)
}

// SetSelfTestNotifier wires the synthetic self-test job's callback
// notification, letting NewSelfTest's run() unblock on its own webhook
// round-trip instead of looking like an ordinary ghost callback.
func (h *WebhookHandler) SetSelfTestNotifier(notify func(itemID string)) {
	h.selfTestNotify = notify
}

// NewWebhookHandler builds a Webhook Handler wired to all its collaborators.
func NewWebhookHandler(
	jobStore *postgres.JobStore,
	queueStore *postgres.QueueStore,
	logStore *postgres.JobLogStore,
	dedup *DeduplicationIndex,
	filter *ExclusionFilter,
	exclusionCache *badger.ExclusionCache,
	parser *Parser,
	scoringSink ScoringSink,
	coordinator *Coordinator,
	scheduler *Scheduler,
	retryPolicy *RetryPolicy,
	logger arbor.ILogger,
) *WebhookHandler {
	return &WebhookHandler{
		jobStore: jobStore, queueStore: queueStore, logStore: logStore,
		dedup: dedup, filter: filter, exclusionCfg: exclusionCache, parser: parser,
		scoringSink: scoringSink, coordinator: coordinator, scheduler: scheduler,
		retryPolicy: retryPolicy, logger: logger,
	}
}

// Handle runs the 8-step algorithm of spec.md §4.4 for one callback.
// Returning nil always means "respond 200 OK" — item-level and ghost
// conditions are absorbed here and never surfaced to the fetcher.
func (h *WebhookHandler) Handle(ctx context.Context, cb WebhookCallback) error {
	jobID, kind, itemID, err := ParseCorrelationID(cb.CorrelationID)
	if err != nil {
		h.logger.Warn().Err(err).Str("correlation_id", cb.CorrelationID).Msg("Malformed webhook correlation id, acknowledging")
		return nil
	}

	if jobID == selfTestJobID {
		if h.selfTestNotify != nil {
			h.selfTestNotify(itemID)
		}
		return nil
	}

	item, err := h.queueStore.Get(ctx, itemID)
	if errors.Is(err, postgres.ErrItemNotFound) {
		h.logger.Info().Str("correlation_id", cb.CorrelationID).Msg("Ghost callback: unknown queue item")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve queue item: %w", err)
	}

	job, err := h.jobStore.Get(ctx, jobID)
	if errors.Is(err, postgres.ErrJobNotFound) || (err == nil && job.Status == models.JobStatusCancelled) {
		h.logger.Info().Str("job_id", jobID).Str("item_id", itemID).Msg("Ghost callback: unknown or cancelled job")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve job: %w", err)
	}

	if item.Status != models.ItemStatusSubmitted {
		h.logger.Debug().Str("item_id", itemID).Str("status", string(item.Status)).Msg("Duplicate callback, acknowledging without side effects")
		return nil
	}

	if !cb.Success {
		h.handleFailure(ctx, item, cb.ErrorDesc)
		h.afterItemTransition(ctx, jobID)
		return nil
	}

	switch kind {
	case models.URLKindSearch, models.URLKindPagination:
		h.handleDiscoveryResult(ctx, job, item, cb.PayloadURL)
	case models.URLKindProduct:
		h.handleProductResult(ctx, job, item, cb.PayloadURL)
	}

	now := time.Now().UTC()
	if err := h.queueStore.MarkCompleted(ctx, item.ID, now); err != nil && !errors.Is(err, postgres.ErrItemNotFound) {
		h.logger.Warn().Err(err).Str("item_id", item.ID).Msg("mark_completed failed")
	}
	h.appendLog(ctx, jobID, "info", fmt.Sprintf("item %s completed (%s)", item.ID, kind))

	h.afterItemTransition(ctx, jobID)
	return nil
}

// handleDiscoveryResult implements step 5b: extract discovered product and
// pagination URLs, dedup against the Scored Product store, and enqueue
// only new ones.
func (h *WebhookHandler) handleDiscoveryResult(ctx context.Context, job *models.CrawlJob, item *models.QueueItem, payloadURL string) {
	result, err := h.parser.ParseSearchPage(ctx, payloadURL)
	if err != nil {
		h.handleParseFailure(ctx, item, err)
		return
	}
	if err := h.queueStore.ResetShapeErrors(ctx, item.ID); err != nil {
		h.logger.Debug().Err(err).Msg("reset_shape_errors failed")
	}

	_ = h.coordinator.IncrementCounter(ctx, job.ID, "search_urls_completed", 1)

	for _, pageURL := range result.PaginationURLs {
		h.enqueueDiscovered(ctx, job.ID, pageURL, models.URLKindPagination, item.Keyword)
	}

	_ = h.coordinator.IncrementCounter(ctx, job.ID, "product_urls_found", int64(len(result.ProductURLs)))
	for _, productURL := range result.ProductURLs {
		h.enqueueProductIfNew(ctx, job.ID, productURL, item.Keyword)
	}

	h.scheduler.Kick(job.ID, true)
}

func (h *WebhookHandler) enqueueDiscovered(ctx context.Context, jobID, url string, kind models.URLKind, keyword string) {
	queueItem := &models.QueueItem{
		ID:        common.NewQueueItemID(),
		JobID:     jobID,
		URL:       url,
		URLKind:   kind,
		Keyword:   keyword,
		Priority:  models.PriorityForKind(kind),
		Status:    models.ItemStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	inserted, err := h.queueStore.Enqueue(ctx, queueItem)
	if err != nil {
		h.logger.Warn().Err(err).Str("job_id", jobID).Str("url", url).Msg("Failed to enqueue discovered URL")
		return
	}
	if inserted {
		_ = h.coordinator.IncrementCounter(ctx, jobID, "search_urls_submitted", 1)
	}
}

// enqueueProductIfNew asks the Deduplication Index whether the product id
// is already persisted before enqueuing (spec.md §4.4 step 5b).
func (h *WebhookHandler) enqueueProductIfNew(ctx context.Context, jobID, productURL, keyword string) {
	sourceProductID := productIDFromURL(productURL)
	scored, err := h.dedup.IsScored(ctx, sourceProductID)
	if err != nil {
		h.logger.Warn().Err(err).Str("url", productURL).Msg("Dedup check failed, enqueuing defensively")
	}
	if scored {
		_ = h.coordinator.IncrementCounter(ctx, jobID, "product_urls_skipped_existing", 1)
		return
	}

	queueItem := &models.QueueItem{
		ID:        common.NewQueueItemID(),
		JobID:     jobID,
		URL:       productURL,
		URLKind:   models.URLKindProduct,
		Keyword:   keyword,
		Priority:  models.PriorityProduct,
		Status:    models.ItemStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	inserted, err := h.queueStore.Enqueue(ctx, queueItem)
	if err != nil {
		h.logger.Warn().Err(err).Str("job_id", jobID).Str("url", productURL).Msg("Failed to enqueue product URL")
		return
	}
	if inserted {
		_ = h.coordinator.IncrementCounter(ctx, jobID, "product_urls_submitted", 1)
	}
}

// handleProductResult implements step 5c: parse the product record, apply
// the Exclusion Filter, and hand admitted products to the scoring
// collaborator.
func (h *WebhookHandler) handleProductResult(ctx context.Context, job *models.CrawlJob, item *models.QueueItem, payloadURL string) {
	product, err := h.parser.ParseProduct(ctx, payloadURL)
	if err != nil {
		h.handleParseFailure(ctx, item, err)
		return
	}
	if err := h.queueStore.ResetShapeErrors(ctx, item.ID); err != nil {
		h.logger.Debug().Err(err).Msg("reset_shape_errors failed")
	}
	_ = h.coordinator.IncrementCounter(ctx, job.ID, "product_urls_completed", 1)
	_ = h.coordinator.IncrementCounter(ctx, job.ID, "products_parsed", 1)

	decision := h.filter.Evaluate(product, job.Config)
	if !decision.Admitted {
		_ = h.coordinator.IncrementCounter(ctx, job.ID, "products_skipped_filtered", 1)
		h.appendLog(ctx, job.ID, "info", fmt.Sprintf("product %s filtered: %s", product.SourceProductID, decision.Reason))
		return
	}

	if err := h.scoringSink.Submit(ctx, job.ID, product); err != nil {
		h.logger.Warn().Err(err).Str("product_id", product.SourceProductID).Msg("Scoring collaborator submission failed")
		_ = h.coordinator.IncrementCounter(ctx, job.ID, "errors", 1)
		return
	}
	_ = h.coordinator.IncrementCounter(ctx, job.ID, "products_scored", 1)
	_ = h.coordinator.IncrementCounter(ctx, job.ID, "products_passed_scoring", 1)
}

// handleParseFailure routes a Catalog Parser failure into the retry path
// (spec.md §4.6, "All three are treated as item-level errors") and
// escalates a repeated shape/syntax failure to an operator-visible
// diagnostic.
func (h *WebhookHandler) handleParseFailure(ctx context.Context, item *models.QueueItem, parseErr error) {
	switch {
	case errors.Is(parseErr, ErrParseShape):
		metrics.IncParseFailure("shape")
	case errors.Is(parseErr, ErrParseSyntax):
		metrics.IncParseFailure("syntax")
	case errors.Is(parseErr, ErrParseIncomplete):
		metrics.IncParseFailure("incomplete")
	}
	if errors.Is(parseErr, ErrParseShape) || errors.Is(parseErr, ErrParseSyntax) {
		count, err := h.queueStore.IncrementShapeErrors(ctx, item.ID)
		if err == nil && count >= h.retryPolicy.MaxRetries && h.retryPolicy.ShouldGiveUp(item.RetryCount+1) {
			h.logger.Error().Str("item_id", item.ID).Str("url", item.URL).Int("consecutive_shape_errors", count).
				Msg("Catalog shape diagnostic: repeated parse-shape/syntax failures on this item across all retries")
		}
	}
	h.handleFailure(ctx, item, parseErr.Error())
}

// handleFailure implements the Retry Logic of spec.md §4.5.
func (h *WebhookHandler) handleFailure(ctx context.Context, item *models.QueueItem, errMsg string) {
	retryCount := item.RetryCount + 1
	if h.retryPolicy.ShouldGiveUp(retryCount) {
		if err := h.queueStore.MarkFailed(ctx, item.ID, errMsg); err != nil && !errors.Is(err, postgres.ErrItemNotFound) {
			h.logger.Warn().Err(err).Str("item_id", item.ID).Msg("mark_failed failed")
		}
		_ = h.coordinator.IncrementCounter(ctx, item.JobID, "errors", 1)
		h.appendLog(ctx, item.JobID, "error", fmt.Sprintf("item %s failed permanently after %d retries: %s", item.ID, retryCount-1, errMsg))
		return
	}

	delay := h.retryPolicy.NextAttemptDelay(retryCount)
	nextAttempt := time.Now().UTC().Add(delay)
	if err := h.queueStore.ScheduleRetry(ctx, item.ID, nextAttempt, errMsg); err != nil && !errors.Is(err, postgres.ErrItemNotFound) {
		h.logger.Warn().Err(err).Str("item_id", item.ID).Msg("schedule_retry failed")
	}
	metrics.IncRetry()
	_ = h.coordinator.IncrementCounter(ctx, item.JobID, "errors", 1)
	h.appendLog(ctx, item.JobID, "warn", fmt.Sprintf("item %s failed (retry %d): %s", item.ID, retryCount, errMsg))
}

func (h *WebhookHandler) afterItemTransition(ctx context.Context, jobID string) {
	if err := h.coordinator.EvaluateCompletion(ctx, jobID); err != nil {
		h.logger.Warn().Err(err).Str("job_id", jobID).Msg("Completion evaluation failed")
	}
	h.scheduler.Kick(jobID, false)
}

func (h *WebhookHandler) appendLog(ctx context.Context, jobID, level, msg string) {
	entry := models.JobLogEntry{TS: time.Now().UTC(), Level: level, Msg: msg}
	if err := h.logStore.Append(ctx, jobID, entry); err != nil {
		h.logger.Debug().Err(err).Str("job_id", jobID).Msg("Failed to append job log entry")
	}
}

// productIDFromURL recovers the catalog-native product id from a
// discovered product URL's final path segment, the common convention for
// this fetcher's catalog (e.g. ".../product/8839201" -> "8839201"). The
// authoritative id is only confirmed once the product page itself is
// parsed; this is used solely as the Deduplication Index's lookup key at
// discovery time.
func productIDFromURL(productURL string) string {
	trimmed := strings.TrimRight(productURL, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 || idx == len(trimmed)-1 {
		return trimmed
	}
	return trimmed[idx+1:]
}
