package crawl

import (
	"testing"
	"time"
)

func TestRetryPolicy_ShouldGiveUp(t *testing.T) {
	p := NewRetryPolicy(900, 300, 3)

	tests := []struct {
		retryCount int
		wantGiveUp bool
	}{
		{1, false},
		{2, false},
		{3, false},
		{4, true},
		{5, true},
	}
	for _, tt := range tests {
		if got := p.ShouldGiveUp(tt.retryCount); got != tt.wantGiveUp {
			t.Errorf("ShouldGiveUp(%d) = %v, want %v", tt.retryCount, got, tt.wantGiveUp)
		}
	}
}

func TestRetryPolicy_NextAttemptDelay_Ladder(t *testing.T) {
	p := NewRetryPolicy(900, 300, 3)

	// base = 15m * 2^(retryCount-1), plus jitter in [0, 5m].
	tests := []struct {
		retryCount int
		minDelay   time.Duration
		maxDelay   time.Duration
	}{
		{1, 15 * time.Minute, 20 * time.Minute},
		{2, 30 * time.Minute, 35 * time.Minute},
		{3, 60 * time.Minute, 65 * time.Minute},
	}
	for _, tt := range tests {
		for i := 0; i < 20; i++ {
			d := p.NextAttemptDelay(tt.retryCount)
			if d < tt.minDelay || d > tt.maxDelay {
				t.Errorf("retryCount=%d: delay %s out of range [%s, %s]", tt.retryCount, d, tt.minDelay, tt.maxDelay)
			}
		}
	}
}

func TestRetryPolicy_NextAttemptDelay_NoJitter(t *testing.T) {
	p := NewRetryPolicy(900, 0, 3)
	d := p.NextAttemptDelay(1)
	if d != 15*time.Minute {
		t.Errorf("got %s, want exactly 15m with zero jitter", d)
	}
}
