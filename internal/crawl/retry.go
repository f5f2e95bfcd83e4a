package crawl

import (
	"math/rand"
	"time"
)

// RetryPolicy implements the backoff ladder of spec.md §4.5: base = 15
// minutes * 2^(retry_count-1), plus uniform jitter in [0, jitter], capped
// at MaxRetries attempts. Retries are not priority-boosted; a retried item
// re-enters its original priority tier (handled by the caller, not here).
type RetryPolicy struct {
	BaseDelay  time.Duration
	MaxJitter  time.Duration
	MaxRetries int
}

// NewRetryPolicy builds a RetryPolicy from configured seconds.
func NewRetryPolicy(baseSeconds, jitterSeconds, maxRetries int) *RetryPolicy {
	return &RetryPolicy{
		BaseDelay:  time.Duration(baseSeconds) * time.Second,
		MaxJitter:  time.Duration(jitterSeconds) * time.Second,
		MaxRetries: maxRetries,
	}
}

// ShouldGiveUp reports whether retryCount (already incremented for this
// failure) has exceeded the retry budget and the item should become
// terminal ("failed") instead of rescheduled.
func (p *RetryPolicy) ShouldGiveUp(retryCount int) bool {
	return retryCount > p.MaxRetries
}

// NextAttemptDelay computes the delay before the item becomes ready again,
// given the retry_count immediately after increment (1-indexed: the first
// failure yields retryCount=1, and a base-delay of 15m * 2^0 = 15m).
func (p *RetryPolicy) NextAttemptDelay(retryCount int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < retryCount; i++ {
		delay *= 2
	}
	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter) + 1))
	}
	return delay
}
