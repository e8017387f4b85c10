package toolsurface

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2aeval/bridge/orchestrator"
	"github.com/a2aeval/bridge/resultstore"
)

type fakeRunner struct {
	results orchestrator.Results
	err     error
	lastCfg orchestrator.RunConfig
}

func (f *fakeRunner) RunEvaluation(_ context.Context, cfg orchestrator.RunConfig) (orchestrator.Results, error) {
	f.lastCfg = cfg
	return f.results, f.err
}

type fakeCatalog struct {
	domains []orchestrator.DomainInfo
	err     error
}

func (f *fakeCatalog) ListDomains(_ context.Context) ([]orchestrator.DomainInfo, error) {
	return f.domains, f.err
}

func newTestSurface(t *testing.T, runner orchestrator.Runner, catalog orchestrator.DomainCatalog, store resultstore.Store) *Surface {
	t.Helper()
	s, err := New(runner, catalog, store)
	require.NoError(t, err)
	return s
}

func TestListDomains_MapsOrchestratorOutput(t *testing.T) {
	catalog := &fakeCatalog{domains: []orchestrator.DomainInfo{
		{Name: "airline", Description: "airline scenarios", TaskCount: 12},
	}}
	s := newTestSurface(t, &fakeRunner{}, catalog, resultstore.NewMemory())

	got, err := s.ListDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "airline", got[0].Name)
	assert.Equal(t, 12, got[0].TaskCount)
}

func TestListDomains_WrapsCollaboratorErrorAsToolError(t *testing.T) {
	catalog := &fakeCatalog{err: assert.AnError}
	s := newTestSurface(t, &fakeRunner{}, catalog, resultstore.NewMemory())

	_, err := s.ListDomains(context.Background())
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "list_domains", toolErr.Tool)
}

func TestRunEvaluation_RejectsSchemaInvalidArgs(t *testing.T) {
	s := newTestSurface(t, &fakeRunner{}, &fakeCatalog{}, resultstore.NewMemory())
	_, err := s.RunEvaluation(context.Background(), []byte(`{"domain":"airline"}`))
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Message, "schema")
}

func TestRunEvaluation_RejectsUnknownDomain(t *testing.T) {
	s := newTestSurface(t, &fakeRunner{}, &fakeCatalog{}, resultstore.NewMemory())
	args, err := json.Marshal(map[string]any{"domain": "space", "agentEndpoint": "https://agent.example.com"})
	require.NoError(t, err)
	_, err = s.RunEvaluation(context.Background(), args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")
}

func TestRunEvaluation_RejectsMalformedAgentEndpoint(t *testing.T) {
	s := newTestSurface(t, &fakeRunner{}, &fakeCatalog{}, resultstore.NewMemory())
	args, err := json.Marshal(map[string]any{"domain": "airline", "agentEndpoint": "not-a-url"})
	require.NoError(t, err)
	_, err = s.RunEvaluation(context.Background(), args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a well-formed URL")
}

func TestRunEvaluation_AppliesDefaultsAndInvokesRunner(t *testing.T) {
	runner := &fakeRunner{results: orchestrator.Results{
		Timestamp:   "2026-01-01T00:00:00Z",
		Tasks:       []orchestrator.TaskInfo{{ID: "t1", Name: "Book flight"}},
		Simulations: []orchestrator.Simulation{{TaskID: "t1", Success: true}, {TaskID: "t1", Success: false}},
	}}
	s := newTestSurface(t, runner, &fakeCatalog{}, resultstore.NewMemory())

	args, err := json.Marshal(map[string]any{"domain": "airline", "agentEndpoint": "https://agent.example.com"})
	require.NoError(t, err)
	result, err := s.RunEvaluation(context.Background(), args)
	require.NoError(t, err)

	assert.Equal(t, 1, runner.lastCfg.NumTrials)
	assert.Equal(t, 50, runner.lastCfg.MaxSteps)
	assert.Equal(t, 10, runner.lastCfg.MaxErrors)
	assert.Equal(t, 3, runner.lastCfg.MaxConcurrency)

	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, 2, result.Summary.TotalSimulations)
	assert.Equal(t, 1, result.Summary.SuccessfulSimulations)
	assert.InDelta(t, 0.5, result.Summary.SuccessRate, 0.001)
}

func TestRunEvaluation_ZeroSimulationsGivesZeroSuccessRate(t *testing.T) {
	runner := &fakeRunner{results: orchestrator.Results{}}
	s := newTestSurface(t, runner, &fakeCatalog{}, resultstore.NewMemory())
	args, err := json.Marshal(map[string]any{"domain": "mock", "agentEndpoint": "https://agent.example.com"})
	require.NoError(t, err)
	result, err := s.RunEvaluation(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Summary.SuccessRate)
}

func TestRunEvaluation_WrapsRunnerErrorAsToolError(t *testing.T) {
	runner := &fakeRunner{err: assert.AnError}
	s := newTestSurface(t, runner, &fakeCatalog{}, resultstore.NewMemory())
	args, err := json.Marshal(map[string]any{"domain": "mock", "agentEndpoint": "https://agent.example.com"})
	require.NoError(t, err)
	_, err = s.RunEvaluation(context.Background(), args)
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "run_evaluation", toolErr.Tool)
}

func TestGetEvaluationResults_NotConfiguredStoreReturnsToolError(t *testing.T) {
	s := newTestSurface(t, &fakeRunner{}, &fakeCatalog{}, nil)
	_, err := s.GetEvaluationResults(context.Background(), "eval-1")
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
}

func TestPutThenGetEvaluationResults_RoundTrip(t *testing.T) {
	store := resultstore.NewMemory()
	s := newTestSurface(t, &fakeRunner{}, &fakeCatalog{}, store)

	result := RunEvaluationResult{Status: "completed", Summary: RunEvaluationSummary{TotalSimulations: 4}}
	require.NoError(t, s.PutEvaluationResults(context.Background(), "eval-42", result))

	raw, err := s.GetEvaluationResults(context.Background(), "eval-42")
	require.NoError(t, err)

	var got RunEvaluationResult
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, result.Status, got.Status)
	assert.Equal(t, 4, got.Summary.TotalSimulations)
}

func TestGetEvaluationResults_MissingEvaluationIDReturnsToolError(t *testing.T) {
	s := newTestSurface(t, &fakeRunner{}, &fakeCatalog{}, resultstore.NewMemory())
	_, err := s.GetEvaluationResults(context.Background(), "missing")
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "get_evaluation_results", toolErr.Tool)
}
