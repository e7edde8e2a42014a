package model

import (
	"time"

	"github.com/google/uuid"
)

// Job status constants
const (
	JobStatusPending     = "pending"
	JobStatusDownloading = "downloading"
	JobStatusDone        = "done"
	JobStatusError       = "error"
)

type Job struct {
	ID          uuid.UUID `gorm:"primaryKey;type:VARCHAR(36)"`
	URL         string    `gorm:"not null"`
	Format      string    `gorm:"type:VARCHAR(8);not null"`
	Status      string    `gorm:"type:VARCHAR(16);not null;index"`
	File        string
	Error       string
	ClientIP    string `gorm:"type:VARCHAR(64)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func (j Job) IsFinished() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusError
}

// Duration is the time spent downloading. It is zero for unfinished jobs.
func (j Job) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

type JobList []Job
