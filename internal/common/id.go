package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique crawl job id with the "job_" prefix.
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewQueueItemID generates a unique queue item id with the "qi_" prefix.
func NewQueueItemID() string {
	return "qi_" + uuid.New().String()
}

// NewExclusionRuleID generates a unique exclusion rule id with the "excl_" prefix.
func NewExclusionRuleID() string {
	return "excl_" + uuid.New().String()
}
