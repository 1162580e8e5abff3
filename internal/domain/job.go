package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common domain errors
var ErrNotFound = errors.New("resource not found")

// JobStatus values mirror the job_status enum in PostgreSQL.
//
// Valid status graph:
//
//	draft ──► open ◄──► paused
//	           │  ▲        │
//	           │  └─closed◄┘
//	           ├──► filled
//	           └──► deleted (terminal, archival)
//
// expired is mostly a derived read-time status; a stored expired job may
// be reopened. deleted has no outgoing transitions.
type JobStatus string

const (
	StatusDraft   JobStatus = "draft"
	StatusOpen    JobStatus = "open"
	StatusPaused  JobStatus = "paused"
	StatusClosed  JobStatus = "closed"
	StatusFilled  JobStatus = "filled"
	StatusExpired JobStatus = "expired"
	StatusDeleted JobStatus = "deleted"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[JobStatus][]JobStatus{
	StatusDraft:   {StatusOpen},
	StatusOpen:    {StatusPaused, StatusClosed, StatusFilled, StatusDeleted},
	StatusPaused:  {StatusOpen, StatusClosed, StatusDeleted},
	StatusClosed:  {StatusOpen, StatusDeleted},
	StatusFilled:  {StatusDeleted},
	StatusExpired: {StatusOpen, StatusDeleted},
	// deleted is terminal — no outgoing transitions
}

// ParseJobStatus converts a raw string to a JobStatus, returning an error
// for unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case StatusDraft, StatusOpen, StatusPaused, StatusClosed, StatusFilled, StatusExpired, StatusDeleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// CanTransitionTo returns true when moving from → to is permitted by the
// state machine.
func (s JobStatus) CanTransitionTo(to JobStatus) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, t := range allowed {
		if t == to {
			return true
		}
	}
	return false
}

// JobPosting is a company's published training requirement. Postings are
// never hard-deleted: "deletion" is the archival deleted status.
type JobPosting struct {
	ID               int64      `json:"id"`
	CompanyID        int64      `json:"company_id"` // owner, immutable after creation
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Sector           string     `json:"sector"`
	TrainingType     string     `json:"training_type"`
	Status           JobStatus  `json:"status"`
	Revision         int64      `json:"revision"` // optimistic-concurrency counter
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ApplicationCount int64      `json:"application_count"`
	CreatedAt        time.Time  `json:"created_at"`
	ModifiedAt       time.Time  `json:"modified_at"`
}

// EffectiveStatus evaluates expiry lazily at read time: an open or paused
// job whose ExpiresAt has passed reads as expired even though the stored
// status is unchanged. There is no background sweep.
func (j *JobPosting) EffectiveStatus(now time.Time) JobStatus {
	if j.ExpiresAt != nil && !j.ExpiresAt.After(now) {
		if j.Status == StatusOpen || j.Status == StatusPaused {
			return StatusExpired
		}
	}
	return j.Status
}

// Live reports whether the posting is eligible for candidate-facing
// listings and matcher scoping: stored status open and not lazily expired.
func (j *JobPosting) Live(now time.Time) bool {
	return j.EffectiveStatus(now) == StatusOpen
}

// DeleteOutcome reports an archival delete, including whether application
// records referenced the job so the caller can message accordingly.
type DeleteOutcome struct {
	Job             *JobPosting `json:"job"`
	HadApplications bool        `json:"had_applications"`
}

type JobRepository interface {
	Create(ctx context.Context, job *JobPosting) error
	GetByID(ctx context.Context, id int64) (*JobPosting, error)
	// UpdateStatus performs a compare-and-swap on the revision counter.
	// It reports false when the expected revision no longer matches.
	UpdateStatus(ctx context.Context, id int64, status JobStatus, expectedRevision int64, clearExpiry bool) (bool, error)
	FetchOpen(ctx context.Context, now time.Time, limit, offset int) ([]JobPosting, int64, error)
}

type JobUsecase interface {
	CreateJob(ctx context.Context, companyID int64, job *JobPosting) error
	GetJob(ctx context.Context, id int64) (*JobPosting, error)
	ListOpenJobs(ctx context.Context, page, pageSize int) ([]JobPosting, int64, error)
	// Transition moves the posting to target if the state machine allows
	// it and the caller's revision is current.
	Transition(ctx context.Context, companyID, jobID int64, target JobStatus, expectedRevision int64) (*JobPosting, error)
	// Delete archives the posting (status deleted) and reports whether
	// applications referencing it existed. Applications are retained.
	Delete(ctx context.Context, companyID, jobID int64, expectedRevision int64) (*DeleteOutcome, error)
	// Duplicate derives a fresh open posting from an existing one.
	Duplicate(ctx context.Context, companyID, jobID int64) (*JobPosting, error)
}
