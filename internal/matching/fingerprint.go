package matching

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"go-training-marketplace/internal/domain"
)

// fieldSep keeps adjacent fields from colliding ("ab"+"c" vs "a"+"bc").
const fieldSep = "\x1f"

// Fingerprint computes a stable hash over the requirement fields that gate
// recomputation: sector, training type, preferred language, format and
// experience level.
//
// The high-churn numeric fields (team size, budget) are deliberately
// excluded: they are edited through steppers and would trigger a recompute
// storm for edits that rarely change the ranking shape. The periodic
// session poll picks those edits up instead.
func Fingerprint(req domain.Requirement) uint64 {
	h := xxhash.New()
	writeShape(h, req)
	return h.Sum64()
}

// ResultKey hashes every requirement field that influences scoring,
// including the numeric fields Fingerprint excludes. Cached rankings must
// be keyed by this, never by Fingerprint: two requirements sharing a
// fingerprint but differing in budget rank candidates differently.
func ResultKey(req domain.Requirement) uint64 {
	h := xxhash.New()
	writeShape(h, req)
	if req.BudgetPerHour != nil {
		writeField(h, strconv.FormatFloat(*req.BudgetPerHour, 'g', -1, 64))
	} else {
		writeField(h, "")
	}
	return h.Sum64()
}

// writeShape hashes the recompute-gating fields shared by Fingerprint and
// ResultKey.
func writeShape(h *xxhash.Digest, req domain.Requirement) {
	writeField(h, req.Sector)
	writeField(h, req.TrainingType)
	if req.PreferredLanguage != nil {
		writeField(h, string(*req.PreferredLanguage))
	} else {
		writeField(h, "")
	}
	if req.Format != nil {
		writeField(h, string(*req.Format))
	} else {
		writeField(h, "")
	}
	if req.ExperienceLevel != nil {
		writeField(h, string(*req.ExperienceLevel))
	} else {
		writeField(h, "")
	}
}

func writeField(h *xxhash.Digest, v string) {
	// Digest.WriteString never returns an error.
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(v)))
	_, _ = h.WriteString(fieldSep)
}
