package matching

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-training-marketplace/internal/domain"
	"go-training-marketplace/pkg/logger"
)

// ComputeFunc runs one scoring pass. Supplied by the caller so sessions
// stay decoupled from caching and persistence concerns.
type ComputeFunc func(ctx context.Context, req domain.Requirement, k int) ([]domain.MatchResult, int64, error)

// scoringPass identifies one launched pass. Completion handlers compare
// against it so a superseded pass never clears the cancel handle of the
// pass that replaced it.
type scoringPass struct {
	cancel context.CancelFunc
}

// Session owns one live requirement edit. It debounces recomputation via
// the requirement fingerprint, keeps at most one pass in flight, and polls
// on a fixed interval to pick up candidate directory updates until its
// idle-poll budget runs out.
type Session struct {
	ID string

	mu          sync.Mutex
	req         domain.Requirement
	fingerprint uint64
	state       domain.MatchSessionState
	results     []domain.MatchResult
	snapVersion int64
	idlePolls   int
	lastSeen    time.Time // last client contact, drives idle eviction
	inflight    *scoringPass
	closed      bool
}

// touch records client contact; an untouched session is evicted after the
// manager's idle TTL.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) snapshot(retryHintMs int) *domain.MatchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &domain.MatchSnapshot{
		SessionID:       s.ID,
		State:           s.state,
		Results:         s.results,
		SnapshotVersion: s.snapVersion,
	}
	if snap.Results == nil {
		snap.Results = []domain.MatchResult{}
	}
	if s.state == domain.SessionTimedOut {
		snap.RetryAfterMs = retryHintMs
	}
	return snap
}

// SessionManager owns all live match sessions. Sessions whose client has
// gone quiet for idleTTL are evicted by their own poll loop, so abandoned
// sessions do not accumulate goroutines or map entries.
type SessionManager struct {
	compute      ComputeFunc
	k            int
	pollInterval time.Duration
	maxIdlePolls int
	idleTTL      time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewSessionManager(compute ComputeFunc, k int, pollInterval time.Duration, maxIdlePolls int, idleTTL time.Duration) *SessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		compute:      compute,
		k:            k,
		pollInterval: pollInterval,
		maxIdlePolls: maxIdlePolls,
		idleTTL:      idleTTL,
		sessions:     make(map[string]*Session),
		baseCtx:      ctx,
		cancel:       cancel,
	}
}

// Open creates a session for the requirement and starts its poll loop. An
// incomplete requirement is not an error: the session reports the explicit
// incomplete state until sector and training type arrive.
func (m *SessionManager) Open(req domain.Requirement) *domain.MatchSnapshot {
	s := &Session{
		ID:       uuid.NewString(),
		req:      req,
		state:    domain.SessionIncomplete,
		lastSeen: time.Now(),
	}
	if req.Complete() {
		s.fingerprint = Fingerprint(req)
		s.state = domain.SessionPending
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if req.Complete() {
		m.launch(s, s.fingerprint)
	}

	m.wg.Add(1)
	go m.pollLoop(s)

	return s.snapshot(m.retryHintMs())
}

// Update replaces the session's requirement. Recomputation triggers only
// when the fingerprint changed; the superseded in-flight pass is cancelled
// (single-flight per session) and the idle-poll budget resets. A ready
// session keeps serving the previous results while the new pass runs.
func (m *SessionManager) Update(sessionID string, req domain.Requirement) (*domain.MatchSnapshot, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.req = req
	s.lastSeen = time.Now()
	if !req.Complete() {
		if s.inflight != nil {
			s.inflight.cancel()
			s.inflight = nil
		}
		s.fingerprint = 0
		s.state = domain.SessionIncomplete
		s.results = nil
		s.idlePolls = 0
		s.mu.Unlock()
		return s.snapshot(m.retryHintMs()), nil
	}

	fp := Fingerprint(req)
	if fp == s.fingerprint {
		s.mu.Unlock()
		return s.snapshot(m.retryHintMs()), nil
	}

	if s.inflight != nil {
		s.inflight.cancel() // cancel the pass for the previous fingerprint
		s.inflight = nil
	}
	s.fingerprint = fp
	s.idlePolls = 0
	if s.state != domain.SessionReady {
		s.state = domain.SessionPending
	}
	s.mu.Unlock()

	m.launch(s, fp)
	return s.snapshot(m.retryHintMs()), nil
}

// Poll returns the session's current state and results. Polling counts as
// client contact and keeps the session from idle eviction.
func (m *SessionManager) Poll(sessionID string) (*domain.MatchSnapshot, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	s.touch()
	return s.snapshot(m.retryHintMs()), nil
}

// Close abandons the session and cancels any in-flight pass.
func (m *SessionManager) Close(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	s.closed = true
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
	s.mu.Unlock()
	return nil
}

// Shutdown cancels all sessions and waits for their loops to exit.
func (m *SessionManager) Shutdown() {
	m.cancel()
	m.mu.Lock()
	for id, s := range m.sessions {
		s.mu.Lock()
		s.closed = true
		if s.inflight != nil {
			s.inflight.cancel()
			s.inflight = nil
		}
		s.mu.Unlock()
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *SessionManager) get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *SessionManager) retryHintMs() int {
	return int(m.pollInterval.Milliseconds())
}

// pollLoop recomputes on a fixed interval even without fingerprint changes
// so results pick up candidate directory updates. The idle-poll budget
// bounds background work for abandoned sessions; once exhausted the session
// pauses until the fingerprint changes again. A session whose client has
// not touched it for idleTTL is evicted outright and the loop exits, so
// abandoned sessions do not tick forever.
func (m *SessionManager) pollLoop(s *Session) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.baseCtx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if m.idleTTL > 0 && time.Since(s.lastSeen) >= m.idleTTL {
			s.closed = true
			if s.inflight != nil {
				s.inflight.cancel()
				s.inflight = nil
			}
			s.mu.Unlock()
			m.mu.Lock()
			delete(m.sessions, s.ID)
			m.mu.Unlock()
			return
		}
		if !s.req.Complete() {
			s.mu.Unlock()
			continue
		}
		if s.idlePolls >= m.maxIdlePolls {
			if s.state == domain.SessionReady {
				s.state = domain.SessionPaused
			}
			s.mu.Unlock()
			continue
		}
		s.idlePolls++
		fp := s.fingerprint
		s.mu.Unlock()

		m.launch(s, fp)
	}
}

// launch starts one scoring pass for the given fingerprint, replacing any
// pass still in flight. Results are discarded if the fingerprint moved on
// or the session closed while computing.
func (m *SessionManager) launch(s *Session, fp uint64) {
	ctx, cancel := context.WithCancel(m.baseCtx)
	p := &scoringPass{cancel: cancel}

	s.mu.Lock()
	if s.closed || s.fingerprint != fp {
		s.mu.Unlock()
		cancel()
		return
	}
	if s.inflight != nil {
		s.inflight.cancel()
	}
	s.inflight = p
	req := s.req
	s.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		results, snapVersion, err := m.compute(ctx, req, m.k)

		s.mu.Lock()
		defer s.mu.Unlock()
		// Clear only this pass's own handle; a superseded pass must not
		// strip the cancel handle of the pass that replaced it.
		if s.inflight == p {
			s.inflight = nil
		}
		if s.closed || s.fingerprint != fp {
			return // superseded while computing
		}

		switch {
		case errors.Is(err, context.Canceled):
			return
		case errors.Is(err, ErrTimeout):
			s.state = domain.SessionTimedOut
			s.results = nil
			s.snapVersion = snapVersion
		case err != nil:
			// Keep the previous results; a transient failure should not
			// blank a working panel.
			logger.Log.Error("match session pass failed", "session_id", s.ID, "error", err)
		default:
			s.state = domain.SessionReady
			s.results = results
			s.snapVersion = snapVersion
		}
	}()
}
