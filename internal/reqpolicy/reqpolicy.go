// Package reqpolicy implements optional per-request tool filtering for the
// evaluation service front-end (C7): an operator can restrict which C6
// tools the LLM-backed router is allowed to select, via request headers,
// without redeploying the service.
package reqpolicy

import (
	"context"
	"strings"
)

// Header names carrying comma-separated tool name lists.
const (
	AllowToolsHeader = "X-A2AEval-Allow-Tools"
	DenyToolsHeader  = "X-A2AEval-Deny-Tools"
)

type contextKey int

const policyKey contextKey = iota + 1

// Policy restricts which tool names a router invocation may select.
type Policy struct {
	// AllowList, when non-empty, is the exhaustive set of permitted tools.
	AllowList []string
	// DenyList is always excluded, even if also present in AllowList.
	DenyList []string
}

// FromHeaders parses the allow/deny header values into a Policy.
func FromHeaders(allow, deny string) *Policy {
	return &Policy{AllowList: splitList(allow), DenyList: splitList(deny)}
}

func splitList(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Into stores p on ctx for retrieval by From.
func Into(ctx context.Context, p *Policy) context.Context {
	return context.WithValue(ctx, policyKey, p)
}

// From retrieves the Policy stored on ctx, or nil if none was set.
func From(ctx context.Context) *Policy {
	p, _ := ctx.Value(policyKey).(*Policy)
	return p
}

// Allows reports whether tool name may be invoked under p. A nil p allows
// everything. Deny takes precedence over allow.
func (p *Policy) Allows(name string) bool {
	if p == nil {
		return true
	}
	for _, d := range p.DenyList {
		if d == name {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if a == name {
			return true
		}
	}
	return false
}

// Filter returns the subset of names allowed under p, preserving order.
func Filter(names []string, p *Policy) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if p.Allows(n) {
			out = append(out, n)
		}
	}
	return out
}
