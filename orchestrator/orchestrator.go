// Package orchestrator declares the external collaborator interfaces the
// bridge depends on but does not implement: the scenario domains (their
// tasks, tools, policies, and graders), the harness orchestrator's turn
// loop and scoring reducers, and the user-simulator LLM. Only the shapes
// needed to wire C4/C6 against them are declared here.
package orchestrator

import "context"

// RunConfig configures one evaluation run, as constructed by the
// run_evaluation tool (C6) before invoking the harness.
type RunConfig struct {
	Domain         string
	AgentEndpoint  string
	UserLLM        string
	NumTrials      int
	NumTasks       int
	TaskIDs        []string
	MaxSteps       int
	MaxErrors      int
	MaxConcurrency int
}

// TaskInfo identifies one scenario task within a domain.
type TaskInfo struct {
	ID   string
	Name string
}

// Simulation is one executed trial of one task against the agent-under-test.
// The tool surface treats it as opaque except for Success and TaskID.
type Simulation struct {
	TaskID  string
	Success bool
	Detail  map[string]any
}

// Results is the harness orchestrator's run output. The tool surface treats
// it as opaque except for counting successful simulations and summarizing
// task identifiers.
type Results struct {
	Timestamp   string
	Info        map[string]any
	Tasks       []TaskInfo
	Simulations []Simulation
}

// Runner is the harness collaborator interface consumed by C6: it accepts a
// RunConfig built from a run_evaluation call and executes the evaluation,
// internally driving the C4 Evaluator Adapter through the orchestrator's
// (out-of-scope) turn loop and termination rules.
type Runner interface {
	RunEvaluation(ctx context.Context, cfg RunConfig) (Results, error)
}

// DomainInfo describes one scenario domain for the list_domains tool.
type DomainInfo struct {
	Name        string
	Description string
	TaskCount   int
}

// DomainCatalog is the harness collaborator interface consumed by
// list_domains. Its implementation lives with the scenario domains
// (airline/retail/telecom/mock), out of scope here.
type DomainCatalog interface {
	ListDomains(ctx context.Context) ([]DomainInfo, error)
}
