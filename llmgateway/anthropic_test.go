package llmgateway

import (
	"context"
	"encoding/json"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestNewAnthropicClient_RequiresMessagesClientAndModel(t *testing.T) {
	_, err := NewAnthropicClient(nil, "claude-3.5-sonnet", 128)
	require.Error(t, err)

	_, err = NewAnthropicClient(&stubMessagesClient{}, "", 128)
	require.Error(t, err)
}

func TestNewAnthropicClient_DefaultsMaxTokens(t *testing.T) {
	c, err := NewAnthropicClient(&stubMessagesClient{}, "claude-3.5-sonnet", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), c.maxTokens)
}

func TestComplete_TextOnlyReply(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "text", Text: "hello there"}},
	}}
	c, err := NewAnthropicClient(stub, "claude-3.5-sonnet", 128)
	require.NoError(t, err)

	turn, err := c.Complete(context.Background(), Request{History: []HistoryEntry{{Role: "user", Text: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "hello there", turn.Text)
	assert.Nil(t, turn.Tool)
}

func TestComplete_ToolUseReply(t *testing.T) {
	inputJSON, err := json.Marshal(map[string]any{"domain": "airline"})
	require.NoError(t, err)
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "tool_use", ID: "call-1", Name: "run_evaluation", Input: inputJSON}},
	}}
	c, err := NewAnthropicClient(stub, "claude-3.5-sonnet", 128)
	require.NoError(t, err)

	turn, err := c.Complete(context.Background(), Request{History: []HistoryEntry{{Role: "user", Text: "run it"}}})
	require.NoError(t, err)
	require.NotNil(t, turn.Tool)
	assert.Equal(t, "call-1", turn.Tool.ID)
	assert.Equal(t, "run_evaluation", turn.Tool.Name)
	assert.Equal(t, "airline", turn.Tool.Input["domain"])
}

func TestComplete_PropagatesMessagesClientError(t *testing.T) {
	stub := &stubMessagesClient{err: assert.AnError}
	c, err := NewAnthropicClient(stub, "claude-3.5-sonnet", 128)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), Request{})
	require.Error(t, err)
}

func TestComplete_EncodesSystemPromptAndTools(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{Content: []sdk.ContentBlockUnion{{Type: "text", Text: "ok"}}}}
	c, err := NewAnthropicClient(stub, "claude-3.5-sonnet", 128)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{
		System:  "be helpful",
		History: []HistoryEntry{{Role: "user", Text: "hi"}},
		Tools:   []ToolSpec{{Name: "list_domains", Description: "list domains", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	require.Len(t, stub.lastParams.System, 1)
	assert.Equal(t, "be helpful", stub.lastParams.System[0].Text)
	require.Len(t, stub.lastParams.Tools, 1)
	require.NotNil(t, stub.lastParams.Tools[0].OfTool)
	assert.Equal(t, "list_domains", stub.lastParams.Tools[0].OfTool.Name)
}

func TestComplete_EncodesHistoryRoles(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{Content: []sdk.ContentBlockUnion{{Type: "text", Text: "ok"}}}}
	c, err := NewAnthropicClient(stub, "claude-3.5-sonnet", 128)
	require.NoError(t, err)

	toolUse := &ToolUse{ID: "call-1", Name: "list_domains", Input: map[string]any{}}
	toolResult := &ToolResult{ToolUseID: "call-1", Content: `[]`}

	_, err = c.Complete(context.Background(), Request{History: []HistoryEntry{
		{Role: "user", Text: "hi"},
		{Role: "assistant", ToolUse: toolUse},
		{Role: "user", ToolResult: toolResult},
	}})
	require.NoError(t, err)
	require.Len(t, stub.lastParams.Messages, 3)
	assert.Equal(t, stub.lastParams.Messages[0].Role, stub.lastParams.Messages[2].Role, "both user turns share a role")
	assert.NotEqual(t, stub.lastParams.Messages[0].Role, stub.lastParams.Messages[1].Role, "assistant turn has a distinct role")
}
