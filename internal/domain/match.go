package domain

import "context"

// MatchResult is one ranked candidate for a requirement. For a fixed
// requirement and snapshot version the full result set is a pure function:
// re-running produces bit-identical output.
type MatchResult struct {
	ProfessionalID string   `json:"professional_id"`
	Score          float64  `json:"score"`   // closed range [0,1]
	Reasons        []string `json:"reasons"` // at most 3, most-contributing first
	Rank           int      `json:"rank"`    // 1-based position after ranking
}

// MatchSessionState describes what a polled session currently holds.
type MatchSessionState string

const (
	// SessionIncomplete means sector or training type is still missing;
	// results are empty and no computation runs.
	SessionIncomplete MatchSessionState = "incomplete"
	// SessionPending means a scoring pass is in flight and no results
	// have been produced yet.
	SessionPending MatchSessionState = "pending"
	// SessionReady means results reflect the latest completed pass. After
	// a requirement edit the previous results stay visible until the new
	// pass lands, so a polling client never sees its panel blank out.
	SessionReady MatchSessionState = "ready"
	// SessionTimedOut means the last pass exceeded its wall-clock budget;
	// results are empty and the caller should retry shortly.
	SessionTimedOut MatchSessionState = "timed_out"
	// SessionPaused means the idle-poll budget was exhausted; polling
	// resumes when the requirement fingerprint changes.
	SessionPaused MatchSessionState = "paused"
)

// MatchSnapshot is a polled view of a match session.
type MatchSnapshot struct {
	SessionID       string            `json:"session_id"`
	State           MatchSessionState `json:"state"`
	Results         []MatchResult     `json:"results"`
	SnapshotVersion int64             `json:"snapshot_version"`
	RetryAfterMs    int               `json:"retry_after_ms,omitempty"`
}

// MatchUsecase exposes the requirement-to-candidate matching engine.
type MatchUsecase interface {
	// Match scores and ranks the current candidate snapshot against the
	// requirement and returns the top k results. A pass that exceeds the
	// scoring budget degrades to an empty result with a retry hint.
	Match(ctx context.Context, req Requirement, k int) (*MatchSnapshot, error)

	// OpenSession starts a real-time matching session for an editable
	// requirement and returns its id.
	OpenSession(ctx context.Context, req Requirement) (*MatchSnapshot, error)

	// UpdateRequirement replaces the session's requirement. Recomputation
	// only triggers when the requirement fingerprint changed.
	UpdateRequirement(ctx context.Context, sessionID string, req Requirement) (*MatchSnapshot, error)

	// Poll returns the session's current state and results.
	Poll(ctx context.Context, sessionID string) (*MatchSnapshot, error)

	// CloseSession abandons the session and cancels in-flight work.
	CloseSession(ctx context.Context, sessionID string) error
}
