// Package common provides shared utilities and default configuration.
package common

import "time"

// Default pacing, retry and queue tuning values. These are the fallback
// values used by NewDefaultConfig before file and env overrides are applied.
const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080

	DefaultSubmitDelayMinSeconds = 5
	DefaultSubmitDelayMaxSeconds = 15

	DefaultRetryBaseSeconds   = 900 // 15 minutes
	DefaultRetryJitterSeconds = 300 // up to 5 minutes
	DefaultMaxRetries         = 3

	DefaultWarmupQueueDepth = 15

	DefaultFetcherSubmitTimeout = 10 * time.Second

	DefaultStalenessSweepInterval = 1 * time.Minute
	DefaultStalenessWindow        = 30 * time.Minute

	DefaultExclusionCacheRefreshCron = "*/5 * * * *"
	DefaultSelfTestCron              = "0 * * * *"

	DefaultBadgerPath = "./data/badger"
)
