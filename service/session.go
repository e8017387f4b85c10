package service

import (
	"context"
	"sync"

	"github.com/a2aeval/bridge/llmgateway"
)

// ControllerSession is the LLM controller's conversation state for one
// contextId. The front-end maps contextId onto ControllerSession
// one-to-one: a new contextId creates a new session, a repeated one
// resumes it.
type ControllerSession struct {
	ContextID string
	History   []llmgateway.HistoryEntry
}

// SessionStore is the abstract session service the front-end's contextId
// mapping is backed by — in-memory or persistent, chosen at deploy time.
// The mapping itself (this store) is the front-end's only stateful
// concern; it is deliberately narrow so a persistent implementation (e.g.
// Redis-backed) can be dropped in without touching the router.
type SessionStore interface {
	GetOrCreate(ctx context.Context, contextID string) (*ControllerSession, error)
	Save(ctx context.Context, session *ControllerSession) error
}

// MemorySessionStore is an in-memory SessionStore, safe for concurrent use.
// It is the default: matches the spec's baseline of no persistent
// conversation history beyond what the deployment explicitly configures.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*ControllerSession
}

// NewMemorySessionStore returns an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*ControllerSession)}
}

// GetOrCreate returns the existing session for contextID, creating one if
// absent.
func (s *MemorySessionStore) GetOrCreate(_ context.Context, contextID string) (*ControllerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[contextID]; ok {
		return cloneSession(sess), nil
	}
	sess := &ControllerSession{ContextID: contextID}
	s.sessions[contextID] = sess
	return cloneSession(sess), nil
}

// Save persists session's current state.
func (s *MemorySessionStore) Save(_ context.Context, session *ControllerSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ContextID] = cloneSession(session)
	return nil
}

func cloneSession(s *ControllerSession) *ControllerSession {
	hist := make([]llmgateway.HistoryEntry, len(s.History))
	copy(hist, s.History)
	return &ControllerSession{ContextID: s.ContextID, History: hist}
}
