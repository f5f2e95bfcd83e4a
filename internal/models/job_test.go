package models

import "testing"

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusRunning, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
		{JobStatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCrawlJob_IsActive(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, true},
		{JobStatusRunning, true},
		{JobStatusCompleted, false},
		{JobStatusFailed, false},
		{JobStatusCancelled, false},
	}
	for _, tt := range tests {
		job := &CrawlJob{Status: tt.status}
		if got := job.IsActive(); got != tt.want {
			t.Errorf("IsActive() with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}
