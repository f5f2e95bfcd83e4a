package models

import "time"

// JobStatus is the lifecycle state of a CrawlJob.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// JobConfig is the configuration snapshot a job is created with: keywords,
// price bounds, and warehouse/category inclusion-exclusion sets.
type JobConfig struct {
	Keywords          []string `json:"keywords"`
	PriceMin          float64  `json:"price_min"`
	PriceMax          float64  `json:"price_max"`
	IncludeWarehouses []string `json:"include_warehouses,omitempty"`
	ExcludeWarehouses []string `json:"exclude_warehouses,omitempty"`
	IncludeCategories []string `json:"include_categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
}

// JobProgress is the progress counter bundle exposed verbatim on the admin
// API. Counters never decrease within a job's lifetime.
type JobProgress struct {
	SearchURLsSubmitted        int64 `json:"search_urls_submitted"`
	SearchURLsCompleted        int64 `json:"search_urls_completed"`
	ProductURLsFound           int64 `json:"product_urls_found"`
	ProductURLsSkippedExisting int64 `json:"product_urls_skipped_existing"`
	ProductURLsSubmitted       int64 `json:"product_urls_submitted"`
	ProductURLsCompleted       int64 `json:"product_urls_completed"`
	ProductsParsed             int64 `json:"products_parsed"`
	ProductsSkippedFiltered    int64 `json:"products_skipped_filtered"`
	ProductsScored             int64 `json:"products_scored"`
	ProductsPassedScoring      int64 `json:"products_passed_scoring"`
	Errors                     int64 `json:"errors"`
}

// CrawlJob identifies one crawl run.
type CrawlJob struct {
	ID          string      `json:"id"`
	Status      JobStatus   `json:"status"`
	Config      JobConfig   `json:"config"`
	Progress    JobProgress `json:"progress"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// IsActive reports whether the job can still accept scheduler activity.
func (j *CrawlJob) IsActive() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusRunning
}
