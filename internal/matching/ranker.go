package matching

import (
	"sort"

	"go-training-marketplace/internal/domain"
)

// Scored pairs a candidate with its computed score, before ranking.
type Scored struct {
	Candidate domain.Candidate
	Score     float64
	Reasons   []string
}

// Top orders scored candidates deterministically and truncates to the best
// k. Sort key: score descending, then rating descending (absent ratings
// sort below any present rating), then professional id ascending — the last
// key guarantees full determinism even for literally identical inputs.
func Top(scored []Scored, k int) ([]domain.MatchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}

	ordered := make([]Scored, len(scored))
	copy(ordered, scored)

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		ri, rj := ratingOrd(ordered[i].Candidate), ratingOrd(ordered[j].Candidate)
		if ri != rj {
			return ri > rj
		}
		return ordered[i].Candidate.ProfessionalID < ordered[j].Candidate.ProfessionalID
	})

	if len(ordered) > k {
		ordered = ordered[:k]
	}

	results := make([]domain.MatchResult, len(ordered))
	for i, s := range ordered {
		results[i] = domain.MatchResult{
			ProfessionalID: s.Candidate.ProfessionalID,
			Score:          s.Score,
			Reasons:        s.Reasons,
			Rank:           i + 1,
		}
	}
	return results, nil
}

func ratingOrd(c domain.Candidate) float64 {
	if c.Rating == nil {
		return -1
	}
	return *c.Rating
}
