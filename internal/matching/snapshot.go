package matching

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"go-training-marketplace/internal/domain"
	"go-training-marketplace/pkg/logger"
)

// Snapshot is an immutable, versioned view of the candidate directory at a
// point in time. A scoring pass reads exactly one snapshot end-to-end, so a
// refresh mid-computation can never mix two directory versions into one
// ranking.
type Snapshot struct {
	Version    int64
	TakenAt    time.Time
	Candidates []domain.Candidate
}

// SnapshotStore holds the current snapshot behind an atomic pointer and
// refreshes it on a fixed cadence from the candidate directory.
type SnapshotStore struct {
	repo    domain.CandidateRepository
	current atomic.Pointer[Snapshot]
	version atomic.Int64
	cron    *cron.Cron
}

func NewSnapshotStore(repo domain.CandidateRepository) *SnapshotStore {
	s := &SnapshotStore{repo: repo}
	s.current.Store(&Snapshot{TakenAt: time.Now()})
	return s
}

// Current returns the latest snapshot. Readers must treat it as read-only.
func (s *SnapshotStore) Current() *Snapshot {
	return s.current.Load()
}

// Refresh fetches the candidate directory and atomically swaps in a new
// snapshot version.
func (s *SnapshotStore) Refresh(ctx context.Context) error {
	candidates, err := s.repo.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh candidate snapshot: %w", err)
	}

	snap := &Snapshot{
		Version:    s.version.Add(1),
		TakenAt:    time.Now(),
		Candidates: candidates,
	}
	s.current.Store(snap)

	logger.Log.Debug("candidate snapshot refreshed",
		"version", snap.Version,
		"candidates", len(candidates),
	)
	return nil
}

// StartRefresher schedules periodic refreshes and runs one immediately so
// matching does not wait for the first tick.
func (s *SnapshotStore) StartRefresher(ctx context.Context, interval time.Duration) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := s.Refresh(ctx); err != nil {
			logger.Log.Error("snapshot refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()

	go func() {
		if err := s.Refresh(ctx); err != nil {
			logger.Log.Error("initial snapshot refresh failed", "error", err)
		}
	}()
	return nil
}

// StopRefresher stops the refresh schedule.
func (s *SnapshotStore) StopRefresher() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
