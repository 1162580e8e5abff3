package matching

import (
	"fmt"

	"go-training-marketplace/internal/domain"
)

// explain renders a deterministic, human-readable reason for a scoring
// contribution. Texts are stable for a fixed requirement and candidate so
// repeated passes yield bit-identical output.
func explain(c contribution, req domain.Requirement, cand domain.Candidate) string {
	switch c.feature {
	case featureSector:
		return fmt.Sprintf("proven expertise in the %s sector", req.Sector)
	case featureBudget:
		return fmt.Sprintf("hourly rate of %.0f fits the %.0f budget", cand.RatePerHour, *req.BudgetPerHour)
	case featureLanguage:
		if cand.SpeaksBilingual() {
			return "delivers bilingual training in English and Arabic"
		}
		return fmt.Sprintf("delivers training in %s as requested", *req.PreferredLanguage)
	case featureFormat:
		if cand.Offers(*req.Format) {
			return fmt.Sprintf("offers %s delivery as requested", formatLabel(*req.Format))
		}
		return "offers hybrid delivery covering the requested format"
	case featureExperience:
		return fmt.Sprintf("%s-level experience meets the %s requirement", cand.ExperienceLevel, *req.ExperienceLevel)
	case featureRating:
		if cand.Rating != nil {
			return fmt.Sprintf("rated %.1f out of 5 by past clients", *cand.Rating)
		}
		return "consistent client feedback"
	}
	return ""
}

func formatLabel(f domain.Format) string {
	if f == domain.FormatInPerson {
		return "in-person"
	}
	return string(f)
}
