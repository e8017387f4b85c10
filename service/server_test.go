package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/a2aeval/bridge/llmgateway"
	"github.com/a2aeval/bridge/orchestrator"
	"github.com/a2aeval/bridge/protocol"
	"github.com/a2aeval/bridge/resultstore"
	"github.com/a2aeval/bridge/toolsurface"
)

type stubLLMClient struct {
	turn llmgateway.Turn
	err  error
}

func (s *stubLLMClient) Complete(_ context.Context, _ llmgateway.Request) (llmgateway.Turn, error) {
	return s.turn, s.err
}

func newTestServer(t *testing.T, llm llmgateway.Client) *Server {
	t.Helper()
	surface, err := toolsurface.New(
		&noopRunner{},
		&noopCatalog{},
		resultstore.NewMemory(),
	)
	require.NoError(t, err)
	router := NewRouter(llm, surface, nil)
	return NewServer(ServerConfig{
		AgentName:        "a2a-eval-bridge",
		AgentDescription: "test",
		BaseURL:          "http://localhost:8080",
		Version:          "1.0.0",
	}, router, WithRateLimit(rate.Limit(2), 2))
}

type noopRunner struct{}

func (n *noopRunner) RunEvaluation(_ context.Context, _ orchestrator.RunConfig) (orchestrator.Results, error) {
	return orchestrator.Results{}, nil
}

type noopCatalog struct{}

func (n *noopCatalog) ListDomains(_ context.Context) ([]orchestrator.DomainInfo, error) {
	return nil, nil
}

func TestHandleDiscovery_ReturnsAgentCardWithSkills(t *testing.T) {
	srv := newTestServer(t, &stubLLMClient{})
	req := httptest.NewRequest(http.MethodGet, "/.well-known/agent-card.json", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var card protocol.AgentCard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "a2a-eval-bridge", card.Name)
	assert.NotEmpty(t, card.Skills)
}

func postRPC(t *testing.T, srv *Server, req protocol.RPCRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httpReq)
	return rec
}

func TestHandleRPC_MessageSendHappyPath(t *testing.T) {
	srv := newTestServer(t, &stubLLMClient{turn: llmgateway.Turn{Text: "hello there"}})

	req := protocol.RPCRequest{
		JSONRPC: "2.0", ID: "1", Method: "message/send",
		Params: protocol.SendMessageParams{Message: protocol.Message{
			Role: protocol.RoleUser, Parts: []protocol.Part{protocol.TextPart("hi")},
		}},
	}
	rec := postRPC(t, srv, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp protocol.RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)

	reply, err := protocol.Normalize(resp.Result)
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply.Parts[0].Text)
	assert.NotEmpty(t, reply.ContextID)
}

func TestHandleRPC_UnknownMethodReturnsMethodNotFound(t *testing.T) {
	srv := newTestServer(t, &stubLLMClient{})
	req := protocol.RPCRequest{JSONRPC: "2.0", ID: "1", Method: "task/cancel"}
	rec := postRPC(t, srv, req)

	var resp protocol.RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestHandleRPC_GetMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubLLMClient{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRPC_MalformedBodyReturnsParseError(t *testing.T) {
	srv := newTestServer(t, &stubLLMClient{})
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httpReq)

	var resp protocol.RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32700, resp.Error.Code)
}

func TestHandleRPC_RateLimitExceededAfterBurst(t *testing.T) {
	srv := newTestServer(t, &stubLLMClient{turn: llmgateway.Turn{Text: "ok"}})

	makeReq := func() protocol.RPCRequest {
		return protocol.RPCRequest{
			JSONRPC: "2.0", ID: "1", Method: "message/send",
			Params: protocol.SendMessageParams{Message: protocol.Message{
				ContextID: "same-session",
				Role:      protocol.RoleUser,
				Parts:     []protocol.Part{protocol.TextPart("hi")},
			}},
		}
	}

	var lastResp protocol.RPCResponse
	for i := 0; i < 5; i++ {
		rec := postRPC(t, srv, makeReq())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lastResp))
	}
	require.NotNil(t, lastResp.Error, "burst of 5 requests against a rate limit of (2/s, burst 2) must eventually be rejected")
	assert.Equal(t, -32000, lastResp.Error.Code)
}

func TestHandleRPC_SessionPersistsAcrossRequestsWithSameContextID(t *testing.T) {
	srv := newTestServer(t, &stubLLMClient{turn: llmgateway.Turn{Text: "ack"}})

	first := protocol.RPCRequest{
		JSONRPC: "2.0", ID: "1", Method: "message/send",
		Params: protocol.SendMessageParams{Message: protocol.Message{
			Role: protocol.RoleUser, Parts: []protocol.Part{protocol.TextPart("first")},
		}},
	}
	rec := postRPC(t, srv, first)
	var resp protocol.RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	reply, err := protocol.Normalize(resp.Result)
	require.NoError(t, err)
	contextID := reply.ContextID
	require.NotEmpty(t, contextID)

	second := protocol.RPCRequest{
		JSONRPC: "2.0", ID: "2", Method: "message/send",
		Params: protocol.SendMessageParams{Message: protocol.Message{
			ContextID: contextID, Role: protocol.RoleUser, Parts: []protocol.Part{protocol.TextPart("second")},
		}},
	}
	rec2 := postRPC(t, srv, second)
	var resp2 protocol.RPCResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp2))
	require.Nil(t, resp2.Error)
}
