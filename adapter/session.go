// Package adapter implements the evaluator adapter (C4): it makes the Agent
// Protocol look like a local conversational agent to the harness
// orchestrator, owning per-task session state and bridging the
// orchestrator's synchronous calling contract into the protocol client's
// asynchronous network I/O.
package adapter

import (
	"github.com/a2aeval/bridge/harness"
	"github.com/a2aeval/bridge/protocol"
)

// TaskSession is created afresh for every task and discarded at task end.
// It is never shared across tasks — this is the isolation boundary: two
// concurrent tasks hold two disjoint TaskSessions and never observe each
// other's ContextID or History. Because exactly one task owns a TaskSession
// at a time, no locking is required here.
type TaskSession struct {
	// ContextID is unset initially, set from the first agent reply, and
	// re-sent on every subsequent outgoing message in the same task.
	ContextID string
	// History is the full ordered transcript, including the System prelude.
	History []harness.Message
	// Card is the AgentCard the Adapter discovered (or served from its
	// cache) when GetInitialState built this session, shared read-only
	// across tasks of the same adapter.
	Card *protocol.AgentCard
	// RequestCount is monotonically increasing.
	RequestCount int
}

// clone returns a deep-enough copy of s for handing back to the caller: the
// slice header is copied so a caller appending to the returned History
// cannot alias the adapter's internal state, even though in the current
// single-owner design nothing else holds a reference to s concurrently.
func (s *TaskSession) clone() *TaskSession {
	hist := make([]harness.Message, len(s.History))
	copy(hist, s.History)
	return &TaskSession{
		ContextID:    s.ContextID,
		History:      hist,
		Card:         s.Card,
		RequestCount: s.RequestCount,
	}
}
