package models

import (
	"testing"
	"time"
)

func TestQueueItem_Ready(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		item QueueItem
		want bool
	}{
		{"pending, no next_attempt_at", QueueItem{Status: ItemStatusPending}, true},
		{"pending, next_attempt_at in the past", QueueItem{Status: ItemStatusPending, NextAttemptAt: &past}, true},
		{"pending, next_attempt_at equal to now", QueueItem{Status: ItemStatusPending, NextAttemptAt: &now}, true},
		{"pending, next_attempt_at in the future", QueueItem{Status: ItemStatusPending, NextAttemptAt: &future}, false},
		{"submitted is never ready", QueueItem{Status: ItemStatusSubmitted}, false},
		{"completed is never ready", QueueItem{Status: ItemStatusCompleted}, false},
		{"failed is never ready", QueueItem{Status: ItemStatusFailed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Ready(now); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriorityForKind(t *testing.T) {
	if PriorityForKind(URLKindSearch) != PriorityDiscovery {
		t.Error("search should be discovery priority")
	}
	if PriorityForKind(URLKindPagination) != PriorityDiscovery {
		t.Error("pagination should be discovery priority")
	}
	if PriorityForKind(URLKindProduct) != PriorityProduct {
		t.Error("product should be product priority")
	}
}
