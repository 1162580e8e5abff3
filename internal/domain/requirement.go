package domain

import (
	"fmt"
	"strings"
)

// Language is the training delivery language requested by a company or
// offered by a professional. Bilingual means English and Arabic both.
type Language string

const (
	LanguageEnglish   Language = "english"
	LanguageArabic    Language = "arabic"
	LanguageBilingual Language = "bilingual"
)

// ParseLanguage converts a raw string to a Language, returning an error for
// unknown values. Input is matched case-insensitively.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LanguageEnglish, LanguageArabic, LanguageBilingual:
		return l, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// Format is the training delivery format.
type Format string

const (
	FormatOnline   Format = "online"
	FormatInPerson Format = "in_person"
	FormatHybrid   Format = "hybrid"
)

// ParseFormat converts a raw string to a Format, matched case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatOnline, FormatInPerson, FormatHybrid:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ExperienceLevel is an ordinal: entry < junior < intermediate < senior < expert.
type ExperienceLevel string

const (
	LevelEntry        ExperienceLevel = "entry"
	LevelJunior       ExperienceLevel = "junior"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelSenior       ExperienceLevel = "senior"
	LevelExpert       ExperienceLevel = "expert"
)

var levelRank = map[ExperienceLevel]int{
	LevelEntry:        1,
	LevelJunior:       2,
	LevelIntermediate: 3,
	LevelSenior:       4,
	LevelExpert:       5,
}

// ParseExperienceLevel converts a raw string to an ExperienceLevel.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	l := ExperienceLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelRank[l]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown experience level %q", s)
}

// Rank returns the ordinal position of the level, 1-based. Unknown levels
// rank as 0, below every valid level.
func (l ExperienceLevel) Rank() int {
	return levelRank[l]
}

// Urgency is an ordinal bucket for how soon the training must start.
type Urgency string

const (
	UrgencyFlexible  Urgency = "flexible"
	UrgencySoon      Urgency = "soon"
	UrgencyImmediate Urgency = "immediate"
)

// ParseUrgency converts a raw string to an Urgency bucket.
func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case UrgencyFlexible, UrgencySoon, UrgencyImmediate:
		return u, nil
	}
	return "", fmt.Errorf("unknown urgency %q", s)
}

// Requirement is a company's stated training need. It is ephemeral: it
// exists only for the duration of a matching session and is never persisted.
//
// Sector and TrainingType are mandatory for scoring to run at all; every
// other field is optional and an unset field simply drops its axis from
// the score instead of penalizing candidates.
type Requirement struct {
	Sector            string           `json:"sector" validate:"required"`
	TrainingType      string           `json:"training_type" validate:"required"`
	PreferredLanguage *Language        `json:"preferred_language,omitempty"`
	Format            *Format          `json:"format,omitempty"`
	ExperienceLevel   *ExperienceLevel `json:"experience_level,omitempty"`
	Urgency           *Urgency         `json:"urgency,omitempty"`
	TeamSize          *int             `json:"team_size,omitempty" validate:"omitempty,gt=0"`
	BudgetPerHour     *float64         `json:"budget_per_hour,omitempty" validate:"omitempty,gt=0"`
}

// Complete reports whether the structurally required fields are present.
// An incomplete requirement yields an explicit empty result, not an error,
// in session contexts.
func (r Requirement) Complete() bool {
	return strings.TrimSpace(r.Sector) != "" && strings.TrimSpace(r.TrainingType) != ""
}
