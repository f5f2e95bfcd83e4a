package crawl

import (
	"context"
	"testing"
	"time"
)

func TestScheduler_NextDelay_FirstSubmissionIsZero(t *testing.T) {
	s := NewScheduler(nil, nil, 5, 15, 15, nil)
	task := &jobTask{}

	if d := s.nextDelay(task); d != 0 {
		t.Errorf("got %s, want 0 for first submission", d)
	}
}

func TestScheduler_NextDelay_SubsequentWithinBounds(t *testing.T) {
	s := NewScheduler(nil, nil, 5, 15, 15, nil)
	task := &jobTask{firstSubmitted: true}

	for i := 0; i < 50; i++ {
		d := s.nextDelay(task)
		if d < 5*time.Second || d > 15*time.Second {
			t.Fatalf("delay %s out of bounds [5s, 15s]", d)
		}
	}
}

func TestScheduler_NextDelay_DegenerateRangeReturnsMin(t *testing.T) {
	s := NewScheduler(nil, nil, 10, 10, 15, nil)
	task := &jobTask{firstSubmitted: true}

	if d := s.nextDelay(task); d != 10*time.Second {
		t.Errorf("got %s, want exactly 10s when min == max", d)
	}
}

func TestScheduler_Kick_NoOpWithoutRegisteredJob(t *testing.T) {
	s := NewScheduler(nil, nil, 5, 15, 15, nil)
	// Should not panic even though "missing-job" was never started.
	s.Kick("missing-job", false)
}

func TestScheduler_StartJob_IsIdempotentAndStopJobCleansUp(t *testing.T) {
	s := NewScheduler(nil, nil, 5, 15, 15, nil)
	// StartJob registers a background task reading from queueStore on
	// kick; avoid kicking here so we only exercise the registration and
	// stop bookkeeping, not the nil queueStore path.
	s.StartJob(context.Background(), "job_1")
	s.mu.Lock()
	first := s.tasks["job_1"]
	s.mu.Unlock()

	s.StartJob(context.Background(), "job_1")
	s.mu.Lock()
	second := s.tasks["job_1"]
	s.mu.Unlock()
	if first == nil || first != second {
		t.Error("expected a second StartJob to keep the existing job task")
	}

	s.StopJob("job_1")

	s.mu.Lock()
	_, exists := s.tasks["job_1"]
	s.mu.Unlock()
	if exists {
		t.Error("expected job task to be removed after StopJob")
	}
}
