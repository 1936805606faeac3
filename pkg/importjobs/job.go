// Package importjobs tracks bulk lead imports from upload to completion
// and records each one in a Store.
package importjobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/natserract/mkto/pkg/marketo"
)

// Job states that exist before Marketo assigns a batch. Once a batch
// exists, Status mirrors the batch status (Queued, Importing, Complete,
// Failed).
const (
	StatusPending      = "Pending"
	StatusUploadFailed = "UploadFailed"
)

// Job is one tracked import.
type Job struct {
	ID              uuid.UUID
	FilePath        string
	Format          string
	LookupField     string
	ListID          int
	BatchID         int
	Status          string
	LeadsProcessed  int
	RowsFailed      int
	RowsWithWarning int
	Message         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FinishedAt      *time.Time
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	switch j.Status {
	case StatusUploadFailed, marketo.ImportComplete, marketo.ImportFailed:
		return true
	}
	return false
}

func (j *Job) apply(status *marketo.ImportStatus, now time.Time) {
	if status.BatchID != 0 {
		j.BatchID = status.BatchID
	}
	j.Status = status.Status
	j.LeadsProcessed = status.NumOfLeadsProcessed
	j.RowsFailed = status.NumOfRowsFailed
	j.RowsWithWarning = status.NumOfRowsWithWarning
	j.Message = status.Message
	j.UpdatedAt = now
	if status.Done() {
		finished := now
		j.FinishedAt = &finished
	}
}

func (j *Job) clone() *Job {
	c := *j
	if j.FinishedAt != nil {
		finished := *j.FinishedAt
		c.FinishedAt = &finished
	}
	return &c
}
