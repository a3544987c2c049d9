package managers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/usherbot/usher/pkg/agentic/memory"
	"github.com/usherbot/usher/pkg/agentic/types"
)

// Session is one conversation scope. Its gate serializes agent runs so a
// session never executes two planning loops at once; requests for distinct
// sessions proceed in parallel.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActive   time.Time
	RequestCount int
	Memory       *memory.Window

	gate chan struct{}
}

// Acquire takes the session's run slot, waiting until it frees up or ctx
// expires.
func (s *Session) Acquire(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session %s: %w", s.ID, ctx.Err())
	}
}

// Release frees the run slot taken by Acquire.
func (s *Session) Release() {
	<-s.gate
}

// SessionManager owns the session map. All map access goes through its
// mutex; per-run serialization is the session gate's job, not the
// manager's.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	maxSessions  int
	memoryWindow int
	now          func() time.Time
}

type SessionManagerDependencies struct {
	MaxSessions  int
	MemoryWindow int
}

func NewSessionManager(deps SessionManagerDependencies) *SessionManager {
	maxSessions := deps.MaxSessions
	if maxSessions < 1 {
		maxSessions = 100
	}
	memoryWindow := deps.MemoryWindow
	if memoryWindow < 1 {
		memoryWindow = memory.DefaultWindowSize
	}

	return &SessionManager{
		sessions:     make(map[string]*Session),
		maxSessions:  maxSessions,
		memoryWindow: memoryWindow,
		now:          time.Now,
	}
}

// Resolve returns the session for id, creating a fresh one when id is
// empty. A non-empty id that is not in the store is an error; the caller
// decides whether that becomes a 404. The returned session's LastActive is
// bumped under the lock.
func (m *SessionManager) Resolve(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		session, ok := m.sessions[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrUnknownSession, id)
		}
		session.LastActive = m.now()
		session.RequestCount++
		return session, nil
	}

	if len(m.sessions) >= m.maxSessions {
		m.evictOldest()
	}

	now := m.now()
	session := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActive:   now,
		RequestCount: 1,
		Memory:       memory.NewWindow(m.memoryWindow),
		gate:         make(chan struct{}, 1),
	}
	m.sessions[session.ID] = session

	log.Debug().Str("session_id", session.ID).Int("sessions", len(m.sessions)).Msg("Created session")

	return session, nil
}

// SessionSummary is a point-in-time copy of a session's bookkeeping
// fields. Handing out copies keeps readers off the mutable struct, which
// Resolve updates under the manager lock.
type SessionSummary struct {
	ID           string
	CreatedAt    time.Time
	LastActive   time.Time
	RequestCount int
	MemoryTurns  int
}

func summarize(s *Session) SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		LastActive:   s.LastActive,
		RequestCount: s.RequestCount,
		MemoryTurns:  s.Memory.Len(),
	}
}

// Get returns a summary of the session without touching its activity
// timestamps.
func (m *SessionManager) Get(id string) (SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return SessionSummary{}, fmt.Errorf("%w: %s", types.ErrUnknownSession, id)
	}
	return summarize(session), nil
}

// Delete removes the session. Deleting an unknown id is a no-op.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		log.Debug().Str("session_id", id).Msg("Deleted session")
	}
}

// List returns summaries of all sessions ordered by creation time.
func (m *SessionManager) List() []SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]SessionSummary, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, summarize(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ExpireIdle drops every session whose LastActive is older than timeout
// and returns how many were removed.
func (m *SessionManager) ExpireIdle(timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-timeout)
	removed := 0
	for id, session := range m.sessions {
		if session.LastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Int("remaining", len(m.sessions)).Msg("Expired idle sessions")
	}
	return removed
}

// evictOldest removes the least recently active session. Ties fall back to
// the earliest creation time. Caller holds the lock.
func (m *SessionManager) evictOldest() {
	var victim *Session
	for _, session := range m.sessions {
		if victim == nil || older(session, victim) {
			victim = session
		}
	}
	if victim != nil {
		delete(m.sessions, victim.ID)
		log.Info().Str("session_id", victim.ID).Msg("Evicted least recently active session")
	}
}

func older(a, b *Session) bool {
	if a.LastActive.Equal(b.LastActive) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.LastActive.Before(b.LastActive)
}
