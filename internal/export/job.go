// Package export implements the export job aggregate: a request to generate
// QRDA Category I documents for a set of patients over one measure period.
package export

import (
	"time"

	"github.com/clarahealth/qrda-export/internal/qrda"
)

// Status represents export job status
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// OutcomeStatus is the per-patient result of one generation attempt.
type OutcomeStatus string

const (
	OutcomeGenerated OutcomeStatus = "generated"
	// OutcomeEmpty records the designed no-document result: the patient had
	// no reportable clinical data in the period.
	OutcomeEmpty  OutcomeStatus = "empty"
	OutcomeFailed OutcomeStatus = "failed"
)

// Job is the export job aggregate root.
type Job struct {
	ID          string
	MeasureCode string
	Period      qrda.MeasurePeriod
	PatientIDs  []string
	Status      Status
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Outcome is one patient's result within a job.
type Outcome struct {
	JobID     string        `json:"job_id"`
	PatientID string        `json:"patient_id"`
	Status    OutcomeStatus `json:"status"`
	// Error is set only for failed outcomes.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewJob creates a pending job from a validated request.
func NewJob(id string, req *Request, now time.Time) *Job {
	return &Job{
		ID:          id,
		MeasureCode: req.MeasureCode,
		Period:      qrda.MeasurePeriod{Start: req.PeriodStart, End: req.PeriodEnd},
		PatientIDs:  req.PatientIDs,
		Status:      StatusPending,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

// Finished reports whether the job has reached a terminal status.
func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
