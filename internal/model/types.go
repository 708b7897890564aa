package model

import "time"

type JobStatus string

const (
	JobStatusDone   JobStatus = "done"
	JobStatusFailed JobStatus = "failed"
)

type JobRecord struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Action     string    `json:"action"`
	Status     JobStatus `json:"status"`
	InputName  string    `json:"input_name"`
	OutputKey  string    `json:"output_key"` // s3 key, empty when archiving is off or the job failed
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

type JobsIndex struct {
	UpdatedAt time.Time   `json:"updated_at"`
	Items     []JobRecord `json:"items"`
}
