package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"go-training-marketplace/internal/domain"
	"go-training-marketplace/internal/matching"
	"go-training-marketplace/pkg/apperror"
	"go-training-marketplace/pkg/logger"
	"go-training-marketplace/pkg/validation"
)

type matchUsecase struct {
	matcher  *matching.Matcher
	sessions *matching.SessionManager
	cache    *redis.Client // nil when Redis is not configured
	cacheTTL time.Duration
	maxK     int
	validate *validator.Validate
}

// NewMatchUsecase wires the matcher, the session manager and the optional
// Redis result cache into the MatchUsecase contract.
func NewMatchUsecase(matcher *matching.Matcher, sessions *matching.SessionManager, cache *redis.Client, cacheTTL time.Duration, maxK int, validate *validator.Validate) domain.MatchUsecase {
	return &matchUsecase{
		matcher:  matcher,
		sessions: sessions,
		cache:    cache,
		cacheTTL: cacheTTL,
		maxK:     maxK,
		validate: validate,
	}
}

func (u *matchUsecase) Match(ctx context.Context, req domain.Requirement, k int) (*domain.MatchSnapshot, error) {
	// One-shot matching requires the full structural rules up front
	if err := u.validate.Struct(req); err != nil {
		return nil, apperror.Validation("Requirement has invalid fields", validation.FormatValidationErrors(err))
	}
	if k <= 0 {
		return nil, apperror.BadRequest("Result limit must be a positive integer")
	}
	if k > u.maxK {
		k = u.maxK
	}

	results, snapVersion, err := u.compute(ctx, req, k)
	switch {
	case errors.Is(err, matching.ErrTimeout):
		// The only failure mode that degrades instead of erroring: a stale
		// panel is worse than a hard error in a real-time matching context.
		return &domain.MatchSnapshot{
			State:           domain.SessionTimedOut,
			Results:         []domain.MatchResult{},
			SnapshotVersion: snapVersion,
			RetryAfterMs:    500,
		}, nil
	case errors.Is(err, matching.ErrIncompleteRequirement):
		return nil, apperror.BadRequest("Sector and training type are required for matching")
	case err != nil:
		return nil, apperror.Internal(err)
	}

	return &domain.MatchSnapshot{
		State:           domain.SessionReady,
		Results:         results,
		SnapshotVersion: snapVersion,
	}, nil
}

func (u *matchUsecase) OpenSession(ctx context.Context, req domain.Requirement) (*domain.MatchSnapshot, error) {
	if err := u.validateEditable(req); err != nil {
		return nil, err
	}
	return u.sessions.Open(req), nil
}

func (u *matchUsecase) UpdateRequirement(ctx context.Context, sessionID string, req domain.Requirement) (*domain.MatchSnapshot, error) {
	if err := u.validateEditable(req); err != nil {
		return nil, err
	}
	snap, err := u.sessions.Update(sessionID, req)
	if errors.Is(err, matching.ErrSessionNotFound) {
		return nil, apperror.NotFound("Match session not found")
	}
	return snap, err
}

func (u *matchUsecase) Poll(ctx context.Context, sessionID string) (*domain.MatchSnapshot, error) {
	snap, err := u.sessions.Poll(sessionID)
	if errors.Is(err, matching.ErrSessionNotFound) {
		return nil, apperror.NotFound("Match session not found")
	}
	return snap, err
}

func (u *matchUsecase) CloseSession(ctx context.Context, sessionID string) error {
	err := u.sessions.Close(sessionID)
	if errors.Is(err, matching.ErrSessionNotFound) {
		return apperror.NotFound("Match session not found")
	}
	return err
}

// compute runs one scoring pass through the read-through result cache. A
// cache or Redis failure silently degrades to computing; determinism makes
// the cached and the freshly computed results interchangeable.
func (u *matchUsecase) compute(ctx context.Context, req domain.Requirement, k int) ([]domain.MatchResult, int64, error) {
	type cached struct {
		Results         []domain.MatchResult `json:"results"`
		SnapshotVersion int64                `json:"snapshot_version"`
	}

	var key string
	if u.cache != nil {
		// Keyed by the full scored requirement plus snapshot version: a new
		// snapshot or any edit that can change scores misses naturally. The
		// session fingerprint is too narrow here — it excludes the budget,
		// which is a scored axis.
		key = fmt.Sprintf("match:v1:%d:%d:%d",
			matching.ResultKey(req), u.matcher.SnapshotVersion(), k)
		if raw, err := u.cache.Get(ctx, key).Bytes(); err == nil {
			var c cached
			if json.Unmarshal(raw, &c) == nil {
				return c.Results, c.SnapshotVersion, nil
			}
		}
	}

	results, snapVersion, err := u.matcher.Match(ctx, req, k)
	if err != nil {
		return nil, snapVersion, err
	}

	if u.cache != nil {
		raw, merr := json.Marshal(cached{Results: results, SnapshotVersion: snapVersion})
		if merr == nil {
			if err := u.cache.Set(ctx, key, raw, u.cacheTTL).Err(); err != nil {
				logger.Log.Warn("match result cache write failed", "error", err)
			}
		}
	}

	return results, snapVersion, nil
}

// validateEditable checks the numeric rules only: a session requirement may
// legitimately still be missing sector or training type while the company
// types, so required-field validation stays out of the edit path.
func (u *matchUsecase) validateEditable(req domain.Requirement) error {
	if err := u.validate.StructExcept(req, "Sector", "TrainingType"); err != nil {
		return apperror.Validation("Requirement has invalid fields", validation.FormatValidationErrors(err))
	}
	return nil
}
