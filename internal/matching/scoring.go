// Package matching implements the requirement-to-candidate scoring engine,
// the deterministic ranker, and the real-time match session machinery.
package matching

import (
	"math"
	"sort"

	"go-training-marketplace/internal/domain"
)

// Feature weights. Sector dominates: a sector mismatch is a hard relevance
// signal, not merely a preference.
const (
	weightSector     = 0.35
	weightLanguage   = 0.15
	weightFormat     = 0.15
	weightExperience = 0.15
	weightBudget     = 0.15
	weightRating     = 0.05

	// reasonThreshold is the minimum normalized contribution value for a
	// feature to be mentioned as a match reason.
	reasonThreshold = 0.7
	// maxReasons caps how many reasons a result carries.
	maxReasons = 3

	// budgetFalloffRatio: a rate exceeding the budget by this fraction or
	// more scores zero on the budget axis.
	budgetFalloffRatio = 0.5
	// experienceZeroGap: a candidate this many ordinal levels below the
	// required one scores zero on the experience axis.
	experienceZeroGap = 2

	ratingScale = 5.0
	// neutralRating stands in for an absent rating: unknown, not bad.
	neutralRating = 0.5
)

type feature int

// Tie-break order for equally weighted contributions. Budget sits right
// after sector because price fit is the second thing companies ask about.
const (
	featureSector feature = iota
	featureBudget
	featureLanguage
	featureFormat
	featureExperience
	featureRating
)

type contribution struct {
	feature  feature
	value    float64 // normalized to [0,1] before weighting
	weight   float64
	weighted float64 // value * weight / total active weight
}

// Engine scores a single (requirement, candidate) pair. It is pure and
// stateless: scoring pairs in parallel over a read-only snapshot needs no
// locks.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Score computes a weighted compatibility score in [0,1] plus the ordered
// reason strings for the strongest contributions.
//
// Any requirement field left unset drops its axis from both the numerator
// and the weight total (remaining weights re-normalize to sum to 1), so an
// unset preference never penalizes all candidates equally in a way that
// hides real differences.
func (e *Engine) Score(req domain.Requirement, cand domain.Candidate) (float64, []string, error) {
	if !req.Complete() {
		return 0, nil, ErrIncompleteRequirement
	}

	contribs := make([]contribution, 0, 6)

	sectorValue := 0.0
	if cand.HasSector(req.Sector) {
		sectorValue = 1.0
	}
	contribs = append(contribs, contribution{feature: featureSector, value: sectorValue, weight: weightSector})

	if req.PreferredLanguage != nil {
		contribs = append(contribs, contribution{
			feature: featureLanguage,
			value:   languageValue(*req.PreferredLanguage, cand),
			weight:  weightLanguage,
		})
	}

	if req.Format != nil {
		contribs = append(contribs, contribution{
			feature: featureFormat,
			value:   formatValue(*req.Format, cand),
			weight:  weightFormat,
		})
	}

	if req.ExperienceLevel != nil {
		contribs = append(contribs, contribution{
			feature: featureExperience,
			value:   experienceValue(*req.ExperienceLevel, cand.ExperienceLevel),
			weight:  weightExperience,
		})
	}

	if req.BudgetPerHour != nil {
		contribs = append(contribs, contribution{
			feature: featureBudget,
			value:   budgetValue(*req.BudgetPerHour, cand.RatePerHour),
			weight:  weightBudget,
		})
	}

	ratingValue := neutralRating
	if cand.Rating != nil {
		ratingValue = clamp01(*cand.Rating / ratingScale)
	}
	contribs = append(contribs, contribution{feature: featureRating, value: ratingValue, weight: weightRating})

	var totalWeight float64
	for _, c := range contribs {
		totalWeight += c.weight
	}

	var score float64
	for i := range contribs {
		contribs[i].weighted = contribs[i].value * contribs[i].weight / totalWeight
		score += contribs[i].weighted
	}

	return clamp01(score), buildReasons(req, cand, contribs), nil
}

// languageValue: exact match or a bilingual candidate scores full; a
// candidate covering exactly one half of a requested bilingual pair scores
// half; disjoint scores zero.
func languageValue(want domain.Language, cand domain.Candidate) float64 {
	if cand.SpeaksBilingual() {
		return 1.0
	}
	if want == domain.LanguageBilingual {
		if cand.Speaks(domain.LanguageEnglish) || cand.Speaks(domain.LanguageArabic) {
			return 0.5
		}
		return 0.0
	}
	if cand.Speaks(want) {
		return 1.0
	}
	return 0.0
}

// formatValue: exact match scores full; hybrid on either side means partial
// overlap and scores half; otherwise zero.
func formatValue(want domain.Format, cand domain.Candidate) float64 {
	if cand.Offers(want) {
		return 1.0
	}
	if want == domain.FormatHybrid || cand.Offers(domain.FormatHybrid) {
		return 0.5
	}
	return 0.0
}

// experienceValue: meeting or exceeding the level scores full; under the
// level the value decays linearly, reaching zero at a gap of two ordinals.
// Over-qualified is never penalized.
func experienceValue(want domain.ExperienceLevel, have domain.ExperienceLevel) float64 {
	gap := want.Rank() - have.Rank()
	if gap <= 0 {
		return 1.0
	}
	return clamp01(1.0 - float64(gap)/float64(experienceZeroGap))
}

// budgetValue: a rate at or under budget scores full, falling off linearly
// to zero as the rate exceeds the budget by 50% or more.
func budgetValue(budget, rate float64) float64 {
	if budget <= 0 {
		return 0.0
	}
	if rate <= budget {
		return 1.0
	}
	overrun := (rate - budget) / (budget * budgetFalloffRatio)
	return clamp01(1.0 - overrun)
}

// buildReasons selects contributions at or above the reason threshold,
// ordered by weighted contribution descending (feature priority breaks
// ties deterministically), capped at maxReasons. An empty list is fine.
func buildReasons(req domain.Requirement, cand domain.Candidate, contribs []contribution) []string {
	eligible := make([]contribution, 0, len(contribs))
	for _, c := range contribs {
		if c.value >= reasonThreshold {
			eligible = append(eligible, c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].weighted != eligible[j].weighted {
			return eligible[i].weighted > eligible[j].weighted
		}
		return eligible[i].feature < eligible[j].feature
	})
	if len(eligible) > maxReasons {
		eligible = eligible[:maxReasons]
	}

	reasons := make([]string, 0, len(eligible))
	for _, c := range eligible {
		reasons = append(reasons, explain(c, req, cand))
	}
	return reasons
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
