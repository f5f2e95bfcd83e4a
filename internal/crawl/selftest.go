package crawl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/common"
	"github.com/ternarybob/dropscout/internal/metrics"
)

// SelfTest is the startup + periodic fetcher self-test supplement (spec.md
// §9 Open Question: a misconfigured WEBHOOK_BASE_URL would otherwise fail
// silently, since the fetcher only ever talks back via webhook). It
// submits a synthetic job through the Fetcher Client and waits for a
// matching webhook callback within a bounded window.
type SelfTest struct {
	fetcher  *FetcherClient
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   arbor.ILogger

	mu        sync.Mutex
	waiters   map[string]chan struct{}
	lastOK    atomic.Bool
	lastRanAt atomic.Int64
	lastErr   atomic.Value
}

const selfTestJobID = "selftest"

// NewSelfTest builds a SelfTest. schedule is a standard 5-field cron
// expression (e.g. "0 * * * *" for hourly).
func NewSelfTest(fetcher *FetcherClient, schedule string, timeout time.Duration, logger arbor.ILogger) *SelfTest {
	return &SelfTest{
		fetcher:  fetcher,
		cron:     cron.New(),
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		waiters:  make(map[string]chan struct{}),
	}
}

// Start runs the self-test once immediately, then on the cron schedule,
// until ctx is cancelled. Failure never blocks startup; it only degrades
// GET /crawl/health's reported status.
func (t *SelfTest) Start(ctx context.Context) error {
	if _, err := t.cron.AddFunc(t.schedule, func() { t.run(ctx) }); err != nil {
		return fmt.Errorf("invalid self-test cron schedule %q: %w", t.schedule, err)
	}
	t.cron.Start()

	common.SafeGoWithContext(ctx, t.logger, "fetcher-self-test-startup", func() {
		t.run(ctx)
	})

	go func() {
		<-ctx.Done()
		t.cron.Stop()
	}()
	return nil
}

func (t *SelfTest) run(ctx context.Context) {
	itemID := fmt.Sprintf("%d", time.Now().UnixNano())
	waitCh := make(chan struct{})
	t.mu.Lock()
	t.waiters[itemID] = waitCh
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.waiters, itemID)
		t.mu.Unlock()
	}()

	testCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	_, err := t.fetcher.Submit(testCtx, "https://example.invalid/selftest", selfTestJobID, "product", itemID)
	if err != nil {
		t.recordResult(false, fmt.Errorf("self-test submit failed: %w", err))
		return
	}

	select {
	case <-waitCh:
		t.recordResult(true, nil)
	case <-testCtx.Done():
		t.recordResult(false, fmt.Errorf("no webhook callback received within %s (check WEBHOOK_BASE_URL)", t.timeout))
	}
}

// NotifyCallback is invoked by the Webhook Handler for any correlation id
// whose job is the synthetic self-test job, unblocking the corresponding
// run's wait.
func (t *SelfTest) NotifyCallback(itemID string) {
	t.mu.Lock()
	waitCh, ok := t.waiters[itemID]
	t.mu.Unlock()
	if ok {
		close(waitCh)
	}
}

func (t *SelfTest) recordResult(ok bool, err error) {
	t.lastOK.Store(ok)
	t.lastRanAt.Store(time.Now().Unix())
	metrics.RecordSelfTest(ok)
	if err != nil {
		t.lastErr.Store(err.Error())
		t.logger.Error().Err(err).Msg("Fetcher self-test failed")
	} else {
		t.lastErr.Store("")
		t.logger.Debug().Msg("Fetcher self-test succeeded")
	}
}

// Status reports the outcome of the most recent self-test run, consumed by
// GET /crawl/health.
func (t *SelfTest) Status() (ok bool, lastRanAt time.Time, errMsg string) {
	ranAt := t.lastRanAt.Load()
	if ranAt == 0 {
		return false, time.Time{}, "self-test has not run yet"
	}
	msg, _ := t.lastErr.Load().(string)
	return t.lastOK.Load(), time.Unix(ranAt, 0), msg
}
