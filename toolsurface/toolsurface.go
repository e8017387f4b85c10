// Package toolsurface implements the fixed set of capabilities (C6) exposed
// to the evaluation service's LLM-backed router: list_domains,
// run_evaluation, get_evaluation_results. None of them make protocol calls
// directly — each configures the harness orchestrator (via the
// orchestrator package's collaborator interfaces) and invokes it.
package toolsurface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/a2aeval/bridge/orchestrator"
	"github.com/a2aeval/bridge/resultstore"
)

// knownDomains is the fixed set of scenario domains run_evaluation accepts.
var knownDomains = map[string]bool{
	"airline": true,
	"retail":  true,
	"telecom": true,
	"mock":    true,
}

// ToolError is a structured, tool-level failure: the spec requires
// run_evaluation and friends to surface failures this way rather than as an
// unhandled error, so the front-end's LLM router can see and react to them
// (e.g. correct invalid arguments and retry).
type ToolError struct {
	Tool    string
	Message string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("toolsurface: %s: %s", e.Tool, e.Message)
}

// Surface bundles the three tool-surface capabilities against one harness
// Runner/DomainCatalog pair and one resultstore.Store.
type Surface struct {
	runner  orchestrator.Runner
	domains orchestrator.DomainCatalog
	results resultstore.Store

	runEvalSchema *jsonschema.Schema
}

// New constructs a Surface. store may be a *resultstore.Memory or a
// *resultstore.Redis depending on deployment configuration.
func New(runner orchestrator.Runner, domains orchestrator.DomainCatalog, store resultstore.Store) (*Surface, error) {
	compiler := jsonschema.NewCompiler()
	var schemaDoc any
	if err := json.Unmarshal([]byte(runEvaluationSchemaJSON), &schemaDoc); err != nil {
		return nil, fmt.Errorf("toolsurface: unmarshal run_evaluation schema: %w", err)
	}
	if err := compiler.AddResource("run_evaluation.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("toolsurface: add run_evaluation schema resource: %w", err)
	}
	schema, err := compiler.Compile("run_evaluation.json")
	if err != nil {
		return nil, fmt.Errorf("toolsurface: compile run_evaluation schema: %w", err)
	}

	return &Surface{runner: runner, domains: domains, results: store, runEvalSchema: schema}, nil
}

// DomainSummary is one entry of the list_domains output.
type DomainSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TaskCount   int    `json:"taskCount"`
}

// ListDomains returns the domains reported by the Surface's DomainCatalog,
// in catalog order. The list is not checked against knownDomains.
func (s *Surface) ListDomains(ctx context.Context) ([]DomainSummary, error) {
	domains, err := s.domains.ListDomains(ctx)
	if err != nil {
		return nil, &ToolError{Tool: "list_domains", Message: err.Error()}
	}
	out := make([]DomainSummary, 0, len(domains))
	for _, d := range domains {
		out = append(out, DomainSummary{Name: d.Name, Description: d.Description, TaskCount: d.TaskCount})
	}
	return out, nil
}

// RunEvaluationArgs is the run_evaluation tool's input.
type RunEvaluationArgs struct {
	Domain         string   `json:"domain"`
	AgentEndpoint  string   `json:"agentEndpoint"`
	UserLLM        string   `json:"userLlm,omitempty"`
	NumTrials      int      `json:"numTrials,omitempty"`
	NumTasks       int      `json:"numTasks,omitempty"`
	TaskIDs        []string `json:"taskIds,omitempty"`
	MaxSteps       int      `json:"maxSteps,omitempty"`
	MaxErrors      int      `json:"maxErrors,omitempty"`
	MaxConcurrency int      `json:"maxConcurrency,omitempty"`
}

// RunEvaluationSummary mirrors the run_evaluation tool output's "summary"
// object.
type RunEvaluationSummary struct {
	TotalSimulations     int     `json:"totalSimulations"`
	TotalTasks           int     `json:"totalTasks"`
	SuccessfulSimulations int    `json:"successfulSimulations"`
	SuccessRate          float64 `json:"successRate"`
}

// RunEvaluationResult is the run_evaluation tool's output.
type RunEvaluationResult struct {
	Status    string                `json:"status"`
	Timestamp string                `json:"timestamp"`
	Summary   RunEvaluationSummary  `json:"summary"`
	Tasks     []orchestrator.TaskInfo `json:"tasks"`
}

// RunEvaluation validates argsJSON against the declared schema, validates
// domain/agentEndpoint, constructs an orchestrator.RunConfig, and invokes
// the harness.
func (s *Surface) RunEvaluation(ctx context.Context, argsJSON []byte) (RunEvaluationResult, error) {
	var doc any
	if err := json.Unmarshal(argsJSON, &doc); err != nil {
		return RunEvaluationResult{}, &ToolError{Tool: "run_evaluation", Message: "arguments are not valid JSON: " + err.Error()}
	}
	if m, ok := doc.(map[string]any); ok {
		if domain, ok := m["domain"].(string); ok && !knownDomains[domain] {
			return RunEvaluationResult{}, &ToolError{Tool: "run_evaluation", Message: fmt.Sprintf("unknown domain %q: must be one of airline, retail, telecom, mock", domain)}
		}
	}
	if err := s.runEvalSchema.Validate(doc); err != nil {
		return RunEvaluationResult{}, &ToolError{Tool: "run_evaluation", Message: "arguments failed schema validation: " + err.Error()}
	}

	var args RunEvaluationArgs
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return RunEvaluationResult{}, &ToolError{Tool: "run_evaluation", Message: err.Error()}
	}
	if args.NumTrials <= 0 {
		args.NumTrials = 1
	}
	if args.MaxSteps <= 0 {
		args.MaxSteps = 50
	}
	if args.MaxErrors <= 0 {
		args.MaxErrors = 10
	}
	if args.MaxConcurrency <= 0 {
		args.MaxConcurrency = 3
	}

	parsed, err := url.ParseRequestURI(args.AgentEndpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return RunEvaluationResult{}, &ToolError{Tool: "run_evaluation", Message: fmt.Sprintf("agentEndpoint %q is not a well-formed URL", args.AgentEndpoint)}
	}

	cfg := orchestrator.RunConfig{
		Domain:         args.Domain,
		AgentEndpoint:  args.AgentEndpoint,
		UserLLM:        args.UserLLM,
		NumTrials:      args.NumTrials,
		NumTasks:       args.NumTasks,
		TaskIDs:        args.TaskIDs,
		MaxSteps:       args.MaxSteps,
		MaxErrors:      args.MaxErrors,
		MaxConcurrency: args.MaxConcurrency,
	}

	results, err := s.runner.RunEvaluation(ctx, cfg)
	if err != nil {
		return RunEvaluationResult{}, &ToolError{Tool: "run_evaluation", Message: err.Error()}
	}

	return summarize(results), nil
}

func summarize(results orchestrator.Results) RunEvaluationResult {
	successful := 0
	for _, sim := range results.Simulations {
		if sim.Success {
			successful++
		}
	}
	total := len(results.Simulations)
	var rate float64
	if total > 0 {
		rate = float64(successful) / float64(total)
	}

	return RunEvaluationResult{
		Status:    "completed",
		Timestamp: results.Timestamp,
		Summary: RunEvaluationSummary{
			TotalSimulations:      total,
			TotalTasks:            len(results.Tasks),
			SuccessfulSimulations: successful,
			SuccessRate:           rate,
		},
		Tasks: results.Tasks,
	}
}

// GetEvaluationResults retrieves the stored result for evaluationID, or a
// ToolError stating persistence isn't configured/found.
func (s *Surface) GetEvaluationResults(ctx context.Context, evaluationID string) (json.RawMessage, error) {
	if s.results == nil {
		return nil, &ToolError{Tool: "get_evaluation_results", Message: "result persistence is not configured for this deployment"}
	}
	raw, err := s.results.Get(ctx, evaluationID)
	if err != nil {
		return nil, &ToolError{Tool: "get_evaluation_results", Message: fmt.Sprintf("no stored result for evaluation %q", evaluationID)}
	}
	return raw, nil
}

// PutEvaluationResults stores result under evaluationID, so a later
// get_evaluation_results call can retrieve it. RunEvaluation and the
// front-end's router do not call it: a result is stored only when a caller
// invokes PutEvaluationResults directly. With no store configured it is a
// no-op.
func (s *Surface) PutEvaluationResults(ctx context.Context, evaluationID string, result RunEvaluationResult) error {
	if s.results == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("toolsurface: marshal result: %w", err)
	}
	return s.results.Put(ctx, evaluationID, raw)
}

const runEvaluationSchemaJSON = `{
  "type": "object",
  "properties": {
    "domain": {"type": "string", "enum": ["airline", "retail", "telecom", "mock"]},
    "agentEndpoint": {"type": "string", "format": "uri"},
    "userLlm": {"type": "string"},
    "numTrials": {"type": "integer", "minimum": 1},
    "numTasks": {"type": "integer", "minimum": 1},
    "taskIds": {"type": "array", "items": {"type": "string"}},
    "maxSteps": {"type": "integer", "minimum": 1},
    "maxErrors": {"type": "integer", "minimum": 1},
    "maxConcurrency": {"type": "integer", "minimum": 1}
  },
  "required": ["domain", "agentEndpoint"],
  "additionalProperties": true
}`
