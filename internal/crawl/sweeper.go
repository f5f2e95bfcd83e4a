package crawl

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/common"
	"github.com/ternarybob/dropscout/internal/metrics"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// Sweeper is the background staleness sweeper of spec.md §5/§7: a
// crash-recovery safety net that ages out items stuck in `submitted` past
// a generous staleness window (the fetcher never delivered a callback,
// e.g. across a restart) and kicks the Scheduler for their jobs. It does
// not scan pending items whose `next_attempt_at` has arrived.
type Sweeper struct {
	queueStore  *postgres.QueueStore
	retryPolicy *RetryPolicy
	scheduler   *Scheduler
	interval    time.Duration
	staleWindow time.Duration
	logger      arbor.ILogger
}

// NewSweeper builds a Sweeper with the configured interval and staleness
// window.
func NewSweeper(queueStore *postgres.QueueStore, retryPolicy *RetryPolicy, scheduler *Scheduler, interval, staleWindow time.Duration, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		queueStore: queueStore, retryPolicy: retryPolicy, scheduler: scheduler,
		interval: interval, staleWindow: staleWindow, logger: logger,
	}
}

// Start launches the sweeper loop, panic-contained like every other
// background task (spec.md's ambient crash-containment discipline).
func (s *Sweeper) Start(ctx context.Context) {
	common.SafeGoWithContext(ctx, s.logger, "staleness-sweeper", func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
				s.refreshQueueDepthGauge(ctx)
			}
		}
	})
}

// refreshQueueDepthGauge publishes current queue depth by status to the
// /metrics surface. Piggybacks on the sweeper's own tick rather than
// running a dedicated timer.
func (s *Sweeper) refreshQueueDepthGauge(ctx context.Context) {
	counts, err := s.queueStore.CountByStateGlobal(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to refresh queue depth gauge")
		return
	}
	for status, count := range counts {
		metrics.SetQueueDepth(string(status), float64(count))
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.staleWindow)
	stale, err := s.queueStore.StaleSubmitted(ctx, cutoff)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Staleness sweep failed to list stale submitted items")
		return
	}
	if len(stale) == 0 {
		return
	}

	s.logger.Info().Int("count", len(stale)).Msg("Staleness sweep aging out stuck submitted items")
	kicked := make(map[string]struct{})
	for _, item := range stale {
		retryCount := item.RetryCount + 1
		var rescheduleErr error
		if s.retryPolicy.ShouldGiveUp(retryCount) {
			rescheduleErr = s.queueStore.MarkFailed(ctx, item.ID, "stale: no callback received within staleness window")
		} else {
			delay := s.retryPolicy.NextAttemptDelay(retryCount)
			rescheduleErr = s.queueStore.ScheduleRetry(ctx, item.ID, time.Now().UTC().Add(delay), "stale: no callback received within staleness window")
		}
		if rescheduleErr != nil {
			s.logger.Warn().Err(rescheduleErr).Str("item_id", item.ID).Msg("Failed to age out stale item")
			continue
		}
		if _, ok := kicked[item.JobID]; !ok {
			s.scheduler.Kick(item.JobID, false)
			kicked[item.JobID] = struct{}{}
		}
	}
}
