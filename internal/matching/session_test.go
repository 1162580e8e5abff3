package matching_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-training-marketplace/internal/domain"
	"go-training-marketplace/internal/matching"
)

// countingCompute is a ComputeFunc stub that counts invocations and returns
// a fixed result set.
type countingCompute struct {
	calls atomic.Int32

	mu      sync.Mutex
	results []domain.MatchResult
	err     error
}

func (c *countingCompute) fn(ctx context.Context, req domain.Requirement, k int) ([]domain.MatchResult, int64, error) {
	c.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results, 7, c.err
}

func (c *countingCompute) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func singleResult() []domain.MatchResult {
	return []domain.MatchResult{{ProfessionalID: "prof-a", Score: 0.9, Rank: 1}}
}

// A long poll interval and a zero idle budget keep the background loop inert
// so tests observe only the recomputes they trigger themselves.
func inertManager(compute matching.ComputeFunc) *matching.SessionManager {
	return matching.NewSessionManager(compute, 3, time.Hour, 0, time.Hour)
}

func waitForState(t *testing.T, m *matching.SessionManager, id string, want domain.MatchSessionState) *domain.MatchSnapshot {
	t.Helper()
	var snap *domain.MatchSnapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = m.Poll(id)
		return err == nil && snap.State == want
	}, 2*time.Second, 5*time.Millisecond, "session never reached state %q", want)
	return snap
}

func TestSessionOpenIncomplete(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := inertManager(compute.fn)
	defer m.Shutdown()

	snap := m.Open(domain.Requirement{Sector: "Technology"})
	assert.Equal(t, domain.SessionIncomplete, snap.State)
	assert.Empty(t, snap.Results)
	assert.Equal(t, int32(0), compute.calls.Load(), "no scoring may run before the requirement is complete")
}

func TestSessionOpenComplete(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := inertManager(compute.fn)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	require.NotEmpty(t, snap.SessionID)

	ready := waitForState(t, m, snap.SessionID, domain.SessionReady)
	assert.Equal(t, singleResult(), ready.Results)
	assert.Equal(t, int64(7), ready.SnapshotVersion)
}

func TestSessionUpdateDebounce(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := inertManager(compute.fn)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	waitForState(t, m, snap.SessionID, domain.SessionReady)
	before := compute.calls.Load()

	// Identical requirement: same fingerprint, no recompute.
	_, err := m.Update(snap.SessionID, fullRequirement())
	require.NoError(t, err)

	// Numeric-only edit: outside the fingerprint, still no recompute.
	edited := fullRequirement()
	edited.BudgetPerHour = ptr(300.0)
	_, err = m.Update(snap.SessionID, edited)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, compute.calls.Load())
}

func TestSessionUpdateRecomputesOnFingerprintChange(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := inertManager(compute.fn)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	waitForState(t, m, snap.SessionID, domain.SessionReady)
	before := compute.calls.Load()

	changed := fullRequirement()
	changed.Sector = "Healthcare"
	_, err := m.Update(snap.SessionID, changed)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return compute.calls.Load() > before
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionUpdateToIncomplete(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := inertManager(compute.fn)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	waitForState(t, m, snap.SessionID, domain.SessionReady)

	updated, err := m.Update(snap.SessionID, domain.Requirement{TrainingType: "Leadership"})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionIncomplete, updated.State)
	assert.Empty(t, updated.Results, "stale results must not outlive the requirement that produced them")
}

func TestSessionTimeoutDegrades(t *testing.T) {
	compute := &countingCompute{err: matching.ErrTimeout}
	m := inertManager(compute.fn)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	timedOut := waitForState(t, m, snap.SessionID, domain.SessionTimedOut)
	assert.Empty(t, timedOut.Results)
	assert.Positive(t, timedOut.RetryAfterMs, "a timed out snapshot must carry a retry hint")
}

func TestSessionTransientFailureKeepsResults(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := matching.NewSessionManager(compute.fn, 3, 20*time.Millisecond, 10, time.Hour)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	waitForState(t, m, snap.SessionID, domain.SessionReady)

	// Subsequent polls fail; the working panel must survive.
	compute.setErr(assert.AnError)
	time.Sleep(100 * time.Millisecond)

	got, err := m.Poll(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionReady, got.State)
	assert.Equal(t, singleResult(), got.Results)
}

func TestSessionIdlePollBudget(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := matching.NewSessionManager(compute.fn, 3, 10*time.Millisecond, 2, time.Hour)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	paused := waitForState(t, m, snap.SessionID, domain.SessionPaused)
	assert.Equal(t, singleResult(), paused.Results, "pausing keeps the last good results")

	// Budget exhausted: call volume must flatline.
	settled := compute.calls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, compute.calls.Load())

	// A fingerprint change revives the session.
	changed := fullRequirement()
	changed.Sector = "Healthcare"
	_, err := m.Update(snap.SessionID, changed)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return compute.calls.Load() > settled
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionClose(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := inertManager(compute.fn)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	require.NoError(t, m.Close(snap.SessionID))

	_, err := m.Poll(snap.SessionID)
	assert.ErrorIs(t, err, matching.ErrSessionNotFound)

	assert.ErrorIs(t, m.Close(snap.SessionID), matching.ErrSessionNotFound)
}

func TestSessionUnknownID(t *testing.T) {
	m := inertManager((&countingCompute{}).fn)
	defer m.Shutdown()

	_, err := m.Poll("nope")
	assert.ErrorIs(t, err, matching.ErrSessionNotFound)

	_, err = m.Update("nope", fullRequirement())
	assert.ErrorIs(t, err, matching.ErrSessionNotFound)
}

func TestSessionIdleEviction(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := matching.NewSessionManager(compute.fn, 3, 10*time.Millisecond, 2, 40*time.Millisecond)
	defer m.Shutdown()

	t.Run("abandoned ready session is evicted", func(t *testing.T) {
		snap := m.Open(fullRequirement())
		waitForState(t, m, snap.SessionID, domain.SessionPaused)

		// Client goes quiet past the idle TTL.
		time.Sleep(150 * time.Millisecond)
		_, err := m.Poll(snap.SessionID)
		assert.ErrorIs(t, err, matching.ErrSessionNotFound)
	})

	t.Run("abandoned incomplete session is evicted", func(t *testing.T) {
		snap := m.Open(domain.Requirement{Sector: "Technology"})
		time.Sleep(150 * time.Millisecond)
		_, err := m.Poll(snap.SessionID)
		assert.ErrorIs(t, err, matching.ErrSessionNotFound)
	})

	t.Run("an actively polled session survives", func(t *testing.T) {
		snap := m.Open(fullRequirement())
		deadline := time.Now().Add(150 * time.Millisecond)
		for time.Now().Before(deadline) {
			_, err := m.Poll(snap.SessionID)
			require.NoError(t, err, "polling is client contact and must keep the session alive")
			time.Sleep(10 * time.Millisecond)
		}
	})
}

// A pass that finishes after being superseded by a same-fingerprint
// relaunch must leave the replacement's cancel handle in place, so a later
// requirement edit can still stop the in-flight work.
func TestSessionSupersededPassKeepsLiveCancelHandle(t *testing.T) {
	starts := make(chan context.Context, 8)
	compute := func(ctx context.Context, req domain.Requirement, k int) ([]domain.MatchResult, int64, error) {
		starts <- ctx
		<-ctx.Done()
		return nil, 0, ctx.Err()
	}
	m := matching.NewSessionManager(compute, 3, 20*time.Millisecond, 1, time.Hour)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())

	first := <-starts  // initial pass
	second := <-starts // idle-poll relaunch for the same fingerprint
	<-first.Done()

	// Let the first pass's completion handler run before editing.
	time.Sleep(30 * time.Millisecond)

	changed := fullRequirement()
	changed.Sector = "Healthcare"
	_, err := m.Update(snap.SessionID, changed)
	require.NoError(t, err)

	select {
	case <-second.Done():
	case <-time.After(time.Second):
		t.Fatal("requirement edit left the superseded in-flight pass running")
	}
}

// After a requirement edit a ready session keeps serving the previous
// results until the new pass lands.
func TestSessionUpdateKeepsPreviousResultsWhileRecomputing(t *testing.T) {
	compute := func(ctx context.Context, req domain.Requirement, k int) ([]domain.MatchResult, int64, error) {
		if req.Sector == "Healthcare" {
			<-ctx.Done() // the new pass never lands during this test
			return nil, 0, ctx.Err()
		}
		return singleResult(), 7, nil
	}
	m := inertManager(compute)
	defer m.Shutdown()

	snap := m.Open(fullRequirement())
	waitForState(t, m, snap.SessionID, domain.SessionReady)

	changed := fullRequirement()
	changed.Sector = "Healthcare"
	updated, err := m.Update(snap.SessionID, changed)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionReady, updated.State)
	assert.Equal(t, singleResult(), updated.Results)

	polled, err := m.Poll(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, singleResult(), polled.Results, "the panel must not blank out mid-recompute")
}

func TestSessionShutdownStopsWork(t *testing.T) {
	compute := &countingCompute{results: singleResult()}
	m := matching.NewSessionManager(compute.fn, 3, 10*time.Millisecond, 100, time.Hour)

	snap := m.Open(fullRequirement())
	waitForState(t, m, snap.SessionID, domain.SessionReady)

	m.Shutdown()
	settled := compute.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, compute.calls.Load())
}
