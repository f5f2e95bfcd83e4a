// -----------------------------------------------------------------------
// Last Modified: Wednesday, 5th November 2025 8:17:54 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/dropscout/internal/common"
	"github.com/ternarybob/dropscout/internal/crawl"
	"github.com/ternarybob/dropscout/internal/handlers"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/badger"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// App holds every component the crawl orchestrator wires together:
// storage, the crawl subsystem (C1-C8) and the HTTP handlers that expose
// it (spec.md §2 "Architecture").
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	DB       *postgres.DB
	BadgerDB *badger.BadgerDB

	JobStore           *postgres.JobStore
	QueueStore         *postgres.QueueStore
	JobLogStore        *postgres.JobLogStore
	ExclusionStore     *postgres.ExclusionStore
	ScoredProductStore *postgres.ScoredProductStore

	DedupCache     *badger.DedupCache
	ExclusionCache *badger.ExclusionCache

	Parser        *crawl.Parser
	Dedup         *crawl.DeduplicationIndex
	Filter        *crawl.ExclusionFilter
	FetcherClient *crawl.FetcherClient
	ScoringSink   crawl.ScoringSink
	RetryPolicy   *crawl.RetryPolicy
	Scheduler     *crawl.Scheduler
	Coordinator   *crawl.Coordinator
	WebhookCore   *crawl.WebhookHandler
	Sweeper       *crawl.Sweeper
	SelfTest      *crawl.SelfTest

	CrawlHandler     *handlers.CrawlHandler
	WebhookHandler   *handlers.WebhookHandler
	ExclusionHandler *handlers.ExclusionHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler

	exclusionRefreshStop func()
}

// New builds and wires every component of the crawl orchestrator from the
// given configuration. The caller must call Close on shutdown.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Config:    config,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:             config.Storage.Postgres.DSN,
		MaxConns:        config.Storage.Postgres.MaxConns,
		MinConns:        config.Storage.Postgres.MinConns,
		MigrationsOnRun: config.Storage.Postgres.MigrationsOnRun,
	}, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.DB = db

	badgerDB, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("open badger: %w", err)
	}
	a.BadgerDB = badgerDB

	a.JobStore = postgres.NewJobStore(db, logger)
	a.QueueStore = postgres.NewQueueStore(db, logger)
	a.JobLogStore = postgres.NewJobLogStore(db, logger)
	a.ExclusionStore = postgres.NewExclusionStore(db, logger)
	a.ScoredProductStore = postgres.NewScoredProductStore(db, logger)

	a.DedupCache = badger.NewDedupCache(badgerDB, logger)
	a.ExclusionCache = badger.NewExclusionCache(logger)

	a.Parser = crawl.NewParser(config.Fetcher.SubmitTimeout, logger)
	a.Dedup = crawl.NewDeduplicationIndex(a.DedupCache, a.ScoredProductStore)
	a.Filter = crawl.NewExclusionFilter(a.ExclusionCache)
	a.RetryPolicy = crawl.NewRetryPolicy(config.Retry.BaseSeconds, config.Retry.JitterSeconds, config.Retry.MaxRetries)
	a.ScoringSink = crawl.NewHTTPScoringSink(config.Fetcher.BaseURL, config.Fetcher.SubmitTimeout)

	limiter := rate.NewLimiter(rate.Every(time.Duration(config.Pacing.SubmitDelayMinSeconds)*time.Second), 1)
	a.FetcherClient = crawl.NewFetcherClient(config.Fetcher.APIKey, config.Fetcher.BaseURL, config.Webhook.BaseURL, config.Fetcher.SubmitTimeout, limiter, logger)

	// Submitter, Scheduler and Coordinator are mutually referential (the
	// submitter re-evaluates completion and kicks the scheduler on a
	// transport failure), so the scheduler is built with a relay that
	// only starts forwarding to the real submit function once it is
	// assigned below - safe because no job task runs before App.New
	// returns and StartJob is called.
	var submitFn crawl.SubmitFunc
	relay := func(ctx context.Context, item *models.QueueItem) { submitFn(ctx, item) }
	a.Scheduler = crawl.NewScheduler(a.QueueStore, relay, config.Pacing.SubmitDelayMinSeconds, config.Pacing.SubmitDelayMaxSeconds, config.Pacing.WarmupQueueDepth, logger)
	a.Coordinator = crawl.NewCoordinator(a.JobStore, a.QueueStore, a.Scheduler, logger)
	submitFn = crawl.NewItemSubmitter(a.FetcherClient, a.QueueStore, a.RetryPolicy, a.Coordinator, a.Scheduler, logger)

	a.WebhookCore = crawl.NewWebhookHandler(
		a.JobStore, a.QueueStore, a.JobLogStore,
		a.Dedup, a.Filter, a.ExclusionCache, a.Parser, a.ScoringSink,
		a.Coordinator, a.Scheduler, a.RetryPolicy, logger,
	)

	a.Sweeper = crawl.NewSweeper(a.QueueStore, a.RetryPolicy, a.Scheduler, config.Queue.StalenessSweepInterval, config.Queue.StalenessWindow, logger)

	if config.SelfTest.Enabled {
		a.SelfTest = crawl.NewSelfTest(a.FetcherClient, config.SelfTest.Cron, config.Fetcher.SubmitTimeout, logger)
		a.WebhookCore.SetSelfTestNotifier(a.SelfTest.NotifyCallback)
	}

	a.CrawlHandler = handlers.NewCrawlHandler(a.JobStore, a.QueueStore, a.JobLogStore, a.Coordinator, a.Scheduler, logger)
	a.WebhookHandler = handlers.NewWebhookHandler(a.WebhookCore, logger)
	a.ExclusionHandler = handlers.NewExclusionHandler(a.ExclusionStore, a.ExclusionCache, logger)
	a.MetricsHandler = handlers.NewMetricsHandler()
	if a.SelfTest != nil {
		a.HealthHandler = handlers.NewHealthHandler(a.SelfTest)
	}

	if err := a.warmCaches(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to warm caches at startup")
	}

	a.Sweeper.Start(ctx)
	a.startExclusionRefresh(ctx)
	if a.SelfTest != nil {
		if err := a.SelfTest.Start(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to start fetcher self-test")
		}
	}

	return a, nil
}

// warmCaches preloads the Deduplication Index and Exclusion Cache from
// Postgres so the first webhook callbacks after a restart are served
// warm (spec.md §5, "Cache warming").
func (a *App) warmCaches(ctx context.Context) error {
	if err := a.Dedup.Warm(ctx); err != nil {
		return fmt.Errorf("warm dedup cache: %w", err)
	}
	rules, err := a.ExclusionStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list exclusion rules: %w", err)
	}
	a.ExclusionCache.Refresh(ctx, rules)
	return nil
}

// startExclusionRefresh runs the periodic exclusion cache refresh on its
// configured cron schedule, the same pattern the fetcher self-test uses
// for its own periodic run.
func (a *App) startExclusionRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithCancel(ctx)
	a.exclusionRefreshStop = cancel

	schedule, err := cron.ParseStandard(a.Config.Exclusion.CacheRefreshCron)
	if err != nil {
		a.Logger.Warn().Err(err).Str("schedule", a.Config.Exclusion.CacheRefreshCron).Msg("Invalid exclusion cache refresh schedule")
		return
	}

	common.SafeGoWithContext(refreshCtx, a.Logger, "exclusion-cache-refresh", func() {
		for {
			timer := time.NewTimer(time.Until(schedule.Next(time.Now())))
			select {
			case <-refreshCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				rules, err := a.ExclusionStore.List(refreshCtx)
				if err != nil {
					a.Logger.Warn().Err(err).Msg("Scheduled exclusion cache refresh failed")
					continue
				}
				a.ExclusionCache.Refresh(refreshCtx, rules)
			}
		}
	})
}

// Close shuts down every background task and storage connection.
func (a *App) Close() error {
	if a.exclusionRefreshStop != nil {
		a.exclusionRefreshStop()
	}
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.BadgerDB != nil {
		if err := a.BadgerDB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close badger database")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return nil
}
