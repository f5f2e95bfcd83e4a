package crawl

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/common"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// SubmitFunc hands a claimed, ready queue item to the Fetcher Client and
// deals with the immediate transport-error retry path. Supplied by the
// wiring layer so the Scheduler stays storage/transport agnostic.
type SubmitFunc func(ctx context.Context, item *models.QueueItem)

// Scheduler is the Pacing Scheduler (C4): one logical wake-up timer per
// active job, a uniform-random inter-submit delay within a priority tier,
// a warm-up gate that holds back regular pacing until discovery has
// produced enough ready work to shuffle, and an edge-triggered idempotent
// kick protocol (spec.md §4.2).
type Scheduler struct {
	queueStore *postgres.QueueStore
	submit     SubmitFunc
	logger     arbor.ILogger

	delayMin time.Duration
	delayMax time.Duration
	warmup   int

	mu    sync.Mutex
	tasks map[string]*jobTask
}

type jobTask struct {
	kickCh chan struct{}
	cancel context.CancelFunc

	mu             sync.Mutex
	firstSubmitted bool
	pendingBypass  bool
}

func (t *jobTask) setBypass() {
	t.mu.Lock()
	t.pendingBypass = true
	t.mu.Unlock()
}

// takeBypass consumes and clears the pending bypass flag for the drain
// cycle about to start, so a bypass granted by one kick never lingers
// into a later, unrelated drain.
func (t *jobTask) takeBypass() bool {
	t.mu.Lock()
	bypass := t.pendingBypass
	t.pendingBypass = false
	t.mu.Unlock()
	return bypass
}

func (t *jobTask) markSubmitted() {
	t.mu.Lock()
	t.firstSubmitted = true
	t.mu.Unlock()
}

func (t *jobTask) hasSubmitted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.firstSubmitted
}

// NewScheduler builds a Scheduler with the configured pacing parameters.
func NewScheduler(queueStore *postgres.QueueStore, submit SubmitFunc, delayMinSeconds, delayMaxSeconds, warmupQueueDepth int, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		queueStore: queueStore,
		submit:     submit,
		logger:     logger,
		delayMin:   time.Duration(delayMinSeconds) * time.Second,
		delayMax:   time.Duration(delayMaxSeconds) * time.Second,
		warmup:     warmupQueueDepth,
		tasks:      make(map[string]*jobTask),
	}
}

// StartJob registers a per-job task. Safe to call once per job; a second
// call is a no-op.
func (s *Scheduler) StartJob(ctx context.Context, jobID string) {
	s.mu.Lock()
	if _, exists := s.tasks[jobID]; exists {
		s.mu.Unlock()
		return
	}
	taskCtx, cancel := context.WithCancel(ctx)
	task := &jobTask{
		kickCh: make(chan struct{}, 1),
		cancel: cancel,
	}
	s.tasks[jobID] = task
	s.mu.Unlock()

	common.SafeGoWithContext(taskCtx, s.logger, "scheduler-job-"+jobID, func() {
		s.run(taskCtx, jobID, task)
	})
}

// StopJob cancels a job's task (called on cancellation or completion).
func (s *Scheduler) StopJob(jobID string) {
	s.mu.Lock()
	task, exists := s.tasks[jobID]
	if exists {
		delete(s.tasks, jobID)
	}
	s.mu.Unlock()
	if exists {
		task.cancel()
	}
}

// Kick is edge-triggered and idempotent: concurrent kicks for the same job
// collapse into a single pending wake-up (spec.md §4.2, "Kick protocol").
// bypassWarmupGate is set by callers signaling a seed or pagination
// result, so discovery is never stalled waiting on its own warm-up; the
// bypass applies only to the drain cycle it triggers, not permanently -
// a later product-completion kick (bypassWarmupGate false) re-gates on
// the current ready-queue depth.
func (s *Scheduler) Kick(jobID string, bypassWarmupGate bool) {
	s.mu.Lock()
	task, exists := s.tasks[jobID]
	s.mu.Unlock()
	if !exists {
		return
	}
	if bypassWarmupGate {
		task.setBypass()
	}
	select {
	case task.kickCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context, jobID string, task *jobTask) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-task.kickCh:
		}

		bypass := task.takeBypass()

		for {
			if ctx.Err() != nil {
				return
			}

			if !bypass {
				ready, err := s.queueStore.ReadyCount(ctx, jobID)
				if err != nil {
					s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Scheduler failed to read ready count")
					break
				}
				if int(ready) < s.warmup {
					break
				}
			}

			item, err := s.queueStore.ClaimNextReady(ctx, jobID)
			if err != nil {
				s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Scheduler failed to claim next item")
				break
			}
			if item == nil {
				break
			}

			delay := s.nextDelay(task)
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}

			s.submit(ctx, item)
			task.markSubmitted()
		}
	}
}

// nextDelay returns 0 for a job's very first submission (spec.md §4.2),
// otherwise a uniform random delay in [delayMin, delayMax].
func (s *Scheduler) nextDelay(task *jobTask) time.Duration {
	if !task.hasSubmitted() {
		return 0
	}
	if s.delayMax <= s.delayMin {
		return s.delayMin
	}
	spread := int64(s.delayMax - s.delayMin)
	return s.delayMin + time.Duration(rand.Int63n(spread+1))
}
