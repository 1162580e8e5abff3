package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-training-marketplace/internal/domain"
	"go-training-marketplace/pkg/apperror"
	"go-training-marketplace/pkg/logger"
)

// duplicateTitleSuffix signals a derived posting to the owner.
const duplicateTitleSuffix = " (Copy)"

type jobUsecase struct {
	jobRepo domain.JobRepository
	appRepo domain.ApplicationRepository
}

func NewJobUsecase(jobRepo domain.JobRepository, appRepo domain.ApplicationRepository) domain.JobUsecase {
	return &jobUsecase{
		jobRepo: jobRepo,
		appRepo: appRepo,
	}
}

func (u *jobUsecase) CreateJob(ctx context.Context, companyID int64, job *domain.JobPosting) error {
	// Business Validation
	if strings.TrimSpace(job.Title) == "" {
		return apperror.BadRequest("Title is required")
	}
	if strings.TrimSpace(job.Sector) == "" || strings.TrimSpace(job.TrainingType) == "" {
		return apperror.BadRequest("Sector and training type are required")
	}
	// Creation-time choice of the owner: start hidden as draft or live as open
	if job.Status != domain.StatusDraft && job.Status != domain.StatusOpen {
		return apperror.BadRequest("A new job must start as draft or open")
	}
	if job.ExpiresAt != nil && !job.ExpiresAt.After(time.Now()) {
		return apperror.BadRequest("Expiry date must be in the future")
	}

	job.CompanyID = companyID
	job.Revision = 1
	job.ApplicationCount = 0
	job.CreatedAt = time.Now()
	job.ModifiedAt = time.Now()

	return u.jobRepo.Create(ctx, job)
}

func (u *jobUsecase) GetJob(ctx context.Context, id int64) (*domain.JobPosting, error) {
	job, err := u.jobRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Job not found")
		}
		return nil, err
	}
	// Expiry is evaluated lazily at read time; there is no background sweep.
	job.Status = job.EffectiveStatus(time.Now())
	return job, nil
}

func (u *jobUsecase) ListOpenJobs(ctx context.Context, page, pageSize int) ([]domain.JobPosting, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	return u.jobRepo.FetchOpen(ctx, time.Now(), pageSize, offset)
}

// Transition moves the posting through the lifecycle state machine with an
// optimistic revision check. A disallowed move leaves the record unchanged;
// a stale revision reports a conflict and is never retried server-side.
func (u *jobUsecase) Transition(ctx context.Context, companyID, jobID int64, target domain.JobStatus, expectedRevision int64) (*domain.JobPosting, error) {
	job, err := u.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Job not found")
		}
		return nil, err
	}
	if job.CompanyID != companyID {
		return nil, apperror.Forbidden("Only the owning company can change this job")
	}

	// The stored status drives the transition check, but a lazily expired
	// job transitions under its effective status so reopening works.
	from := job.EffectiveStatus(time.Now())
	if !from.CanTransitionTo(target) {
		return nil, apperror.UnprocessableEntity(
			fmt.Sprintf("Cannot change job status from %s to %s", from, target))
	}

	// Reopening clears the expiry check
	clearExpiry := target == domain.StatusOpen && from == domain.StatusExpired

	ok, err := u.jobRepo.UpdateStatus(ctx, jobID, target, expectedRevision, clearExpiry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("Job was modified concurrently, re-fetch and retry")
	}

	updated, err := u.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("job status changed",
		"job_id", jobID,
		"from", from,
		"to", target,
		"revision", updated.Revision,
	)
	return updated, nil
}

// Delete archives the posting. Applications referencing the job are
// retained: deletion only removes the job from candidate-facing listings
// and matcher eligibility.
func (u *jobUsecase) Delete(ctx context.Context, companyID, jobID int64, expectedRevision int64) (*domain.DeleteOutcome, error) {
	job, err := u.Transition(ctx, companyID, jobID, domain.StatusDeleted, expectedRevision)
	if err != nil {
		return nil, err
	}

	count, err := u.appRepo.CountByJobID(ctx, jobID)
	if err != nil {
		// The archive already happened; report it rather than failing.
		logger.Log.Error("application count lookup failed after archive", "job_id", jobID, "error", err)
		count = 0
	}

	return &domain.DeleteOutcome{
		Job:             job,
		HadApplications: count > 0,
	}, nil
}

// Duplicate derives a fresh posting: new id, status open, zero
// applications, refreshed timestamps, same owner, content copied verbatim
// with the title suffixed to signal duplication.
func (u *jobUsecase) Duplicate(ctx context.Context, companyID, jobID int64) (*domain.JobPosting, error) {
	source, err := u.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Source job no longer exists")
		}
		return nil, err
	}
	if source.CompanyID != companyID {
		return nil, apperror.Forbidden("Only the owning company can duplicate this job")
	}

	now := time.Now()
	copyJob := &domain.JobPosting{
		CompanyID:        source.CompanyID,
		Title:            source.Title + duplicateTitleSuffix,
		Description:      source.Description,
		Sector:           source.Sector,
		TrainingType:     source.TrainingType,
		Status:           domain.StatusOpen,
		Revision:         1,
		ExpiresAt:        source.ExpiresAt,
		ApplicationCount: 0,
		CreatedAt:        now,
		ModifiedAt:       now,
	}

	if err := u.jobRepo.Create(ctx, copyJob); err != nil {
		return nil, err
	}
	return copyJob, nil
}
