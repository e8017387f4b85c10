// Package llmgateway declares the abstract LLM client the evaluation
// service front-end routes requests through, plus an Anthropic-backed
// implementation. The LLM itself is an out-of-scope external collaborator
// (spec §1); this package only wires a concrete gateway behind the
// interface C7 depends on — it never reimplements model behavior.
package llmgateway

import "context"

// ToolSpec describes one callable tool surfaced to the model, mirroring the
// C6 tool surface's declared input schemas.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolUse is a tool invocation the model chose to make.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

// Turn is one exchange in a controller session's conversation with the
// model: either plain text or a tool invocation request, never both.
type Turn struct {
	Text    string
	Tool    *ToolUse
}

// ToolResult answers a prior ToolUse by its ID.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// Request is one call to the model: the conversation so far, plus the
// tools it may invoke.
type Request struct {
	System   string
	History  []HistoryEntry
	Tools    []ToolSpec
}

// HistoryEntry is one entry of Request.History.
type HistoryEntry struct {
	Role       string // "user" or "assistant"
	Text       string
	ToolUse    *ToolUse
	ToolResult *ToolResult
}

// Client is the abstract LLM gateway the front-end's router depends on.
type Client interface {
	Complete(ctx context.Context, req Request) (Turn, error)
}
