package domain

import (
	"context"
	"time"
)

// Application status constants
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusReviewed = "reviewed"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

// Application is a professional's application to a job posting. JobID is a
// reference, not ownership: applications outlive a deleted job and deleting
// a job must never cascade-delete them. Writes happen in the
// professional-facing collaborator; this core only reads.
type Application struct {
	ID             int64     `json:"id"`
	JobID          int64     `json:"job_id"`
	ProfessionalID string    `json:"professional_id"`
	Status         string    `json:"status"` // pending → reviewed → accepted / rejected
	CreatedAt      time.Time `json:"created_at"`
}

// ApplicationRepository defines read access used for application counts and
// retention checks.
type ApplicationRepository interface {
	GetByID(ctx context.Context, id int64) (*Application, error)
	GetByJobID(ctx context.Context, jobID int64) ([]Application, error)
	CountByJobID(ctx context.Context, jobID int64) (int64, error)
}
