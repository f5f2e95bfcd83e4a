package models

import "time"

// ItemStatus is the lifecycle state of a QueueItem.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusSubmitted ItemStatus = "submitted"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusFailed    ItemStatus = "failed"
)

// URLKind is the tagged variant distinguishing the three shapes of crawl
// work. Deliberately a string enum, not subtype polymorphism: the Webhook
// Handler branches on the tag (spec Design Notes, "dynamic dispatch on
// url-kind").
type URLKind string

const (
	URLKindSearch     URLKind = "search"
	URLKindPagination URLKind = "pagination"
	URLKindProduct    URLKind = "product"
)

// Priority tiers. Lower values are claimed first by claim_next_ready.
const (
	PriorityDiscovery = 1 // seed search + pagination items
	PriorityProduct   = 2 // product-detail items
)

// PriorityForKind returns the priority tier a freshly-enqueued item of this
// kind is assigned.
func PriorityForKind(kind URLKind) int {
	if kind == URLKindProduct {
		return PriorityProduct
	}
	return PriorityDiscovery
}

// QueueItem is one unit of crawl work belonging to a job.
type QueueItem struct {
	ID                     string     `json:"id"`
	JobID                  string     `json:"job_id"`
	URL                    string     `json:"url"`
	URLKind                URLKind    `json:"url_type"`
	Keyword                string     `json:"keyword,omitempty"`
	Priority               int        `json:"priority"`
	Status                 ItemStatus `json:"status"`
	RetryCount             int        `json:"retry_count"`
	ConsecutiveShapeErrors int        `json:"consecutive_shape_errors"`
	NextAttemptAt          *time.Time `json:"next_attempt_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	SubmittedAt            *time.Time `json:"submitted_at,omitempty"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
	ErrorMessage           string     `json:"error_message,omitempty"`
}

// Ready reports whether the item is claimable at the given instant: pending
// and either never scheduled for later or its delay has elapsed.
func (q *QueueItem) Ready(now time.Time) bool {
	if q.Status != ItemStatusPending {
		return false
	}
	return q.NextAttemptAt == nil || !q.NextAttemptAt.After(now)
}
