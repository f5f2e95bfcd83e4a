package models

import "time"

// JobLogEntry is one line of a per-job structured log stream, consumable
// via GET /crawl/{job_id}/logs?since=N.
type JobLogEntry struct {
	Seq   int64     `json:"seq"`
	TS    time.Time `json:"ts"`
	Level string    `json:"level"`
	Msg   string    `json:"msg"`
}
