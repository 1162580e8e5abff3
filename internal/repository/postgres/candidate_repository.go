package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-training-marketplace/internal/domain"
)

type candidateRepo struct {
	db *pgxpool.Pool
}

// NewCandidateRepository reads the professional directory maintained by the
// profile-management collaborators. This core never writes to it.
func NewCandidateRepository(db *pgxpool.Pool) domain.CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) FetchAll(ctx context.Context) ([]domain.Candidate, error) {
	query := `SELECT professional_id, name, title, sectors, languages, formats,
                     experience_level, rate_per_hour, rating
              FROM professionals
              WHERE available = TRUE
              ORDER BY professional_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			c         domain.Candidate
			languages []string
			formats   []string
		)
		if err := rows.Scan(
			&c.ProfessionalID, &c.Name, &c.Title, &c.Sectors, &languages, &formats,
			&c.ExperienceLevel, &c.RatePerHour, &c.Rating,
		); err != nil {
			return nil, err
		}

		// Profile rows predate the enum constraints; skip values the
		// directory collaborator has not normalized yet.
		for _, l := range languages {
			if parsed, err := domain.ParseLanguage(l); err == nil {
				c.Languages = append(c.Languages, parsed)
			}
		}
		for _, f := range formats {
			if parsed, err := domain.ParseFormat(f); err == nil {
				c.Formats = append(c.Formats, parsed)
			}
		}

		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
