package agent

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the live orchestrators, one per session, and hands each
// incoming turn to the right one. Orchestrators for idle sessions are pruned;
// their persisted context survives in the session store until the sweeper
// evicts it.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	orch     *Orchestrator
	lastUsed time.Time
}

// NewManager creates a session manager.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, sessions: make(map[string]*entry)}
}

// Process routes one utterance to its session's orchestrator, creating the
// session when the id is empty or unknown. It returns the response and the
// session id the client should carry forward.
func (m *Manager) Process(ctx context.Context, sessionID, message string) (*Response, string) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if !ok {
		e = &entry{orch: NewOrchestrator(sessionID, m.deps)}
		m.sessions[sessionID] = e
	}
	e.lastUsed = time.Now()
	m.mu.Unlock()

	return e.orch.ProcessRequest(ctx, message), sessionID
}

// PruneIdle drops in-memory orchestrators unused since the cutoff and
// returns how many were removed.
func (m *Manager) PruneIdle(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Printf("agent: pruned %d idle orchestrator(s)", n)
	}
	return n
}

// Len reports the number of live orchestrators.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
