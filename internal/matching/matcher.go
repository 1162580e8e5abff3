package matching

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"go-training-marketplace/internal/domain"
)

// Matcher runs a full scoring pass over the current candidate snapshot and
// ranks the outcome. Scoring each pair is embarrassingly parallel, so the
// pass fans out across a bounded set of goroutines; each goroutine writes
// to its own slot of a pre-sized slice and no locks are needed.
type Matcher struct {
	store   *SnapshotStore
	engine  *Engine
	workers int
	timeout time.Duration
}

func NewMatcher(store *SnapshotStore, engine *Engine, workers int, timeout time.Duration) *Matcher {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Matcher{
		store:   store,
		engine:  engine,
		workers: workers,
		timeout: timeout,
	}
}

// SnapshotVersion returns the version of the snapshot the next pass will
// read. Used by callers to key caches.
func (m *Matcher) SnapshotVersion() int64 {
	return m.store.Current().Version
}

// Match scores the snapshot against the requirement and returns the top k
// results together with the snapshot version they were computed from.
//
// The pass honors ctx for cancellation (an abandoned session promptly
// releases worker capacity) and enforces a hard wall-clock budget; on
// budget overrun it returns ErrTimeout so callers can degrade to an empty
// result with a retry hint instead of blocking.
func (m *Matcher) Match(ctx context.Context, req domain.Requirement, k int) ([]domain.MatchResult, int64, error) {
	if !req.Complete() {
		return nil, 0, ErrIncompleteRequirement
	}
	if k <= 0 {
		return nil, 0, ErrInvalidLimit
	}

	snap := m.store.Current()

	passCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	scored := make([]Scored, len(snap.Candidates))

	g, gctx := errgroup.WithContext(passCtx)
	g.SetLimit(m.workers)
	for i := range snap.Candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cand := snap.Candidates[i]
			score, reasons, err := m.engine.Score(req, cand)
			if err != nil {
				return err
			}
			scored[i] = Scored{Candidate: cand, Score: score, Reasons: reasons}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, snap.Version, ErrTimeout
		}
		return nil, snap.Version, err
	}

	results, err := Top(scored, k)
	if err != nil {
		return nil, snap.Version, err
	}
	return results, snap.Version, nil
}
