package llmgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessagesClient captures the subset of the Anthropic SDK used here, so
// tests can substitute a fake without a live API key.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicClient implements Client on top of Anthropic's Messages API.
type AnthropicClient struct {
	msg       MessagesClient
	model     string
	maxTokens int64
}

// NewAnthropicClient builds a Client from an Anthropic Messages client.
func NewAnthropicClient(msg MessagesClient, model string, maxTokens int64) (*AnthropicClient, error) {
	if msg == nil {
		return nil, errors.New("llmgateway: anthropic messages client is required")
	}
	if model == "" {
		return nil, errors.New("llmgateway: model identifier is required")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{msg: msg, model: model, maxTokens: maxTokens}, nil
}

// NewAnthropicClientFromAPIKey constructs a client using the default
// Anthropic HTTP transport.
func NewAnthropicClientFromAPIKey(apiKey, model string, maxTokens int64) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("llmgateway: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicClient(&ac.Messages, model, maxTokens)
}

// Complete issues a non-streaming Messages.New call and translates the
// response into a single Turn: either the first text block's content, or
// the first tool_use block as a ToolUse. The router only ever needs one
// decision per turn (which tool to call, or what to say), so a single
// Turn is sufficient here even though the underlying API can return
// multiple content blocks.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Turn, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  encodeHistory(req.History),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if tools := encodeTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := c.msg.New(ctx, params)
	if err != nil {
		return Turn{}, fmt.Errorf("llmgateway: anthropic messages.new: %w", err)
	}
	return decodeResponse(resp), nil
}

func encodeHistory(history []HistoryEntry) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(history))
	for _, h := range history {
		var block sdk.ContentBlockParamUnion
		switch {
		case h.ToolUse != nil:
			block = sdk.NewToolUseBlock(h.ToolUse.ID, h.ToolUse.Input, h.ToolUse.Name)
		case h.ToolResult != nil:
			block = sdk.NewToolResultBlock(h.ToolResult.ToolUseID, h.ToolResult.Content, h.ToolResult.IsError)
		default:
			block = sdk.NewTextBlock(h.Text)
		}
		if h.Role == "assistant" {
			out = append(out, sdk.NewAssistantMessage(block))
		} else {
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	return out
}

func encodeTools(specs []ToolSpec) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(specs))
	for _, t := range specs {
		schema := sdk.ToolInputSchemaParam{ExtraFields: t.Parameters}
		u := sdk.ToolUnionParamOfTool(schema, t.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(t.Description)
		}
		out = append(out, u)
	}
	return out
}

func decodeResponse(msg *sdk.Message) Turn {
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				return Turn{Text: block.Text}
			}
		case "tool_use":
			var input map[string]any
			_ = json.Unmarshal(block.Input, &input)
			return Turn{Tool: &ToolUse{ID: block.ID, Name: block.Name, Input: input}}
		}
	}
	return Turn{}
}
