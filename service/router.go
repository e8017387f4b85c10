package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/a2aeval/bridge/internal/obs"
	"github.com/a2aeval/bridge/internal/reqpolicy"
	"github.com/a2aeval/bridge/llmgateway"
	"github.com/a2aeval/bridge/toolsurface"
)

// maxRouterTurns bounds how many tool-call round-trips one incoming message
// may drive before the router gives up and returns a fixed "could not be
// completed" reply.
// Without a bound a model that keeps requesting tools could loop forever.
const maxRouterTurns = 5

var routerTools = []llmgateway.ToolSpec{
	{
		Name:        "list_domains",
		Description: "List the available evaluation domains.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	},
	{
		Name:        "run_evaluation",
		Description: "Run an evaluation against an agent-under-test.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"domain":        map[string]any{"type": "string"},
				"agentEndpoint": map[string]any{"type": "string"},
			},
			"required": []any{"domain", "agentEndpoint"},
		},
	},
	{
		Name:        "get_evaluation_results",
		Description: "Retrieve a previously stored evaluation result.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"evaluationId": map[string]any{"type": "string"}},
			"required":   []any{"evaluationId"},
		},
	},
}

const routerSystemPrompt = "You are the router for a conversational-agent evaluation service. " +
	"Parse the user's request, choose the single best-fitting tool from the ones provided, " +
	"call it with the right arguments, then summarize the outcome back to the user in plain text."

// Router parses a natural-language request, selects and invokes a C6 tool
// via the LLM gateway, and returns the final text reply (C7, §4.7 (a)-(d)).
type Router struct {
	llm     llmgateway.Client
	surface *toolsurface.Surface
	log     obs.Logger
}

// NewRouter constructs a Router.
func NewRouter(llm llmgateway.Client, surface *toolsurface.Surface, log obs.Logger) *Router {
	if log == nil {
		log = obs.NoopLogger{}
	}
	return &Router{llm: llm, surface: surface, log: log}
}

// Handle appends userText to session's history, drives the tool-call loop,
// and returns the reply text plus the updated session.
func (r *Router) Handle(ctx context.Context, session *ControllerSession, userText string) (string, *ControllerSession, error) {
	history := append([]llmgateway.HistoryEntry{}, session.History...)
	history = append(history, llmgateway.HistoryEntry{Role: "user", Text: userText})

	policy := reqpolicy.From(ctx)
	allowedTools := allowedToolSpecs(policy)

	for turn := 0; turn < maxRouterTurns; turn++ {
		resp, err := r.llm.Complete(ctx, llmgateway.Request{
			System:  routerSystemPrompt,
			History: history,
			Tools:   allowedTools,
		})
		if err != nil {
			return "", session, fmt.Errorf("service: router: llm completion: %w", err)
		}

		if resp.Tool == nil {
			history = append(history, llmgateway.HistoryEntry{Role: "assistant", Text: resp.Text})
			return resp.Text, &ControllerSession{ContextID: session.ContextID, History: history}, nil
		}

		history = append(history, llmgateway.HistoryEntry{Role: "assistant", ToolUse: resp.Tool})

		if !policy.Allows(resp.Tool.Name) {
			result := llmgateway.ToolResult{ToolUseID: resp.Tool.ID, Content: fmt.Sprintf("tool %q is not permitted for this request", resp.Tool.Name), IsError: true}
			history = append(history, llmgateway.HistoryEntry{Role: "user", ToolResult: &result})
			continue
		}

		result := r.invokeTool(ctx, resp.Tool)
		history = append(history, llmgateway.HistoryEntry{Role: "user", ToolResult: &result})
	}

	return "the request could not be completed within the allotted number of tool calls", &ControllerSession{ContextID: session.ContextID, History: history}, nil
}

func (r *Router) invokeTool(ctx context.Context, call *llmgateway.ToolUse) llmgateway.ToolResult {
	switch call.Name {
	case "list_domains":
		domains, err := r.surface.ListDomains(ctx)
		if err != nil {
			return errorResult(call.ID, err)
		}
		return jsonResult(call.ID, domains)

	case "run_evaluation":
		argsJSON, err := json.Marshal(call.Input)
		if err != nil {
			return errorResult(call.ID, err)
		}
		result, err := r.surface.RunEvaluation(ctx, argsJSON)
		if err != nil {
			return errorResult(call.ID, err)
		}
		return jsonResult(call.ID, result)

	case "get_evaluation_results":
		evaluationID, _ := call.Input["evaluationId"].(string)
		raw, err := r.surface.GetEvaluationResults(ctx, evaluationID)
		if err != nil {
			return errorResult(call.ID, err)
		}
		return llmgateway.ToolResult{ToolUseID: call.ID, Content: string(raw)}

	default:
		return llmgateway.ToolResult{ToolUseID: call.ID, Content: fmt.Sprintf("unknown tool %q", call.Name), IsError: true}
	}
}

func errorResult(toolUseID string, err error) llmgateway.ToolResult {
	return llmgateway.ToolResult{ToolUseID: toolUseID, Content: err.Error(), IsError: true}
}

func jsonResult(toolUseID string, v any) llmgateway.ToolResult {
	raw, err := json.Marshal(v)
	if err != nil {
		return errorResult(toolUseID, err)
	}
	return llmgateway.ToolResult{ToolUseID: toolUseID, Content: string(raw)}
}

func allowedToolSpecs(policy *reqpolicy.Policy) []llmgateway.ToolSpec {
	if policy == nil {
		return routerTools
	}
	out := make([]llmgateway.ToolSpec, 0, len(routerTools))
	for _, t := range routerTools {
		if policy.Allows(t.Name) {
			out = append(out, t)
		}
	}
	return out
}
