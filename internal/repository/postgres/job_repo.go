package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-training-marketplace/internal/domain"
)

type jobRepo struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) domain.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.JobPosting) error {
	query := `INSERT INTO job_postings (company_id, title, description, sector, training_type, status, revision, expires_at, created_at, modified_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := r.db.QueryRow(ctx, query,
		job.CompanyID, job.Title, job.Description, job.Sector, job.TrainingType,
		job.Status, job.Revision, job.ExpiresAt, job.CreatedAt, job.ModifiedAt,
	).Scan(&job.ID)
	return err
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*domain.JobPosting, error) {
	query := `
		SELECT j.id, j.company_id, j.title, j.description, j.sector, j.training_type,
		       j.status, j.revision, j.expires_at, j.created_at, j.modified_at,
		       COUNT(a.id) AS application_count
		FROM job_postings j
		LEFT JOIN applications a ON a.job_id = j.id
		WHERE j.id = $1
		GROUP BY j.id`

	var job domain.JobPosting
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.CompanyID, &job.Title, &job.Description, &job.Sector, &job.TrainingType,
		&job.Status, &job.Revision, &job.ExpiresAt, &job.CreatedAt, &job.ModifiedAt,
		&job.ApplicationCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// UpdateStatus is a compare-and-swap on the revision counter: a stale
// writer matches zero rows and the caller reports a conflict instead of
// silently clobbering a concurrent update.
func (r *jobRepo) UpdateStatus(ctx context.Context, id int64, status domain.JobStatus, expectedRevision int64, clearExpiry bool) (bool, error) {
	query := `UPDATE job_postings
              SET status = $2, revision = revision + 1, modified_at = NOW(),
                  expires_at = CASE WHEN $4 THEN NULL ELSE expires_at END
              WHERE id = $1 AND revision = $3`

	tag, err := r.db.Exec(ctx, query, id, status, expectedRevision, clearExpiry)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FetchOpen lists live postings only: stored status open and not lazily
// expired. The expiry filter runs in SQL so a stale stored status never
// leaks an expired job into candidate-facing listings.
func (r *jobRepo) FetchOpen(ctx context.Context, now time.Time, limit, offset int) ([]domain.JobPosting, int64, error) {
	query := `
		SELECT j.id, j.company_id, j.title, j.description, j.sector, j.training_type,
		       j.status, j.revision, j.expires_at, j.created_at, j.modified_at,
		       COUNT(a.id) AS application_count
		FROM job_postings j
		LEFT JOIN applications a ON a.job_id = j.id
		WHERE j.status = 'open' AND (j.expires_at IS NULL OR j.expires_at > $1)
		GROUP BY j.id
		ORDER BY j.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, now, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.JobPosting
	for rows.Next() {
		var job domain.JobPosting
		if err := rows.Scan(
			&job.ID, &job.CompanyID, &job.Title, &job.Description, &job.Sector, &job.TrainingType,
			&job.Status, &job.Revision, &job.ExpiresAt, &job.CreatedAt, &job.ModifiedAt,
			&job.ApplicationCount,
		); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM job_postings
                   WHERE status = 'open' AND (expires_at IS NULL OR expires_at > $1)`
	if err := r.db.QueryRow(ctx, countQuery, now).Scan(&total); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}
