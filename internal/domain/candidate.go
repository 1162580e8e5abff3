package domain

import (
	"context"
	"strings"
)

// Candidate is a read-only view of a professional profile eligible for
// matching. Candidate records are created and updated by the profile
// collaborators; this core only reads them.
type Candidate struct {
	ProfessionalID  string          `json:"professional_id"`
	Name            string          `json:"name"`  // display only, not scored
	Title           string          `json:"title"` // display only, not scored
	Sectors         []string        `json:"sectors"`
	Languages       []Language      `json:"languages"`
	Formats         []Format        `json:"formats"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	RatePerHour     float64         `json:"rate_per_hour"`
	Rating          *float64        `json:"rating,omitempty"` // 0-5, absent means unknown
}

// HasSector reports whether the candidate lists the given sector,
// compared case-insensitively.
func (c Candidate) HasSector(sector string) bool {
	for _, s := range c.Sectors {
		if strings.EqualFold(s, sector) {
			return true
		}
	}
	return false
}

// SpeaksBilingual reports whether the candidate covers both English and
// Arabic, either via an explicit bilingual entry or by listing both.
func (c Candidate) SpeaksBilingual() bool {
	var en, ar bool
	for _, l := range c.Languages {
		switch l {
		case LanguageBilingual:
			return true
		case LanguageEnglish:
			en = true
		case LanguageArabic:
			ar = true
		}
	}
	return en && ar
}

// Speaks reports whether the candidate offers the single language l.
func (c Candidate) Speaks(l Language) bool {
	for _, have := range c.Languages {
		if have == l {
			return true
		}
	}
	return false
}

// Offers reports whether the candidate delivers in the given format.
func (c Candidate) Offers(f Format) bool {
	for _, have := range c.Formats {
		if have == f {
			return true
		}
	}
	return false
}

// CandidateRepository supplies the professional records used to build the
// candidate snapshot. Backed by the candidate directory collaborator.
type CandidateRepository interface {
	FetchAll(ctx context.Context) ([]Candidate, error)
}
