// Package translate implements the bidirectional conversion between the
// harness's native message model (package harness) and the Agent Protocol
// wire model (package protocol): rendering a transcript plus tool schemas
// into a single outgoing wire message, and extracting an assistant reply and
// tool calls back out of an incoming one.
package translate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/a2aeval/bridge/harness"
	"github.com/a2aeval/bridge/protocol"
)

const toolCallInstruction = `To call a tool, reply with JSON of the form {"tool_call":{"name":"...", "arguments":{...}}}.`

// HarnessToWire renders transcript (all prior turns, oldest first) plus the
// tools available to the agent-under-test into a single outgoing wire
// message with role=user. contextID is propagated verbatim (empty if this is
// the first message of the task).
//
// tool schemas and tool results are always rendered as text, never as
// structured Data parts: the remote agent is treated as a black-box reasoner
// over text.
func HarnessToWire(transcript []harness.Message, tools []harness.Tool, contextID string) protocol.Message {
	var b strings.Builder

	writeSystemPrelude(&b, transcript, tools)
	writeTranscript(&b, transcript)

	return protocol.Message{
		MessageID: uuid.NewString(),
		Role:      protocol.RoleUser,
		ContextID: contextID,
		Parts:     []protocol.Part{protocol.TextPart(strings.TrimSpace(b.String()))},
	}
}

// writeSystemPrelude writes the <system>...</system> block (concatenated
// System message contents) followed, if tools are present, by an
// <available_tools> block.
func writeSystemPrelude(b *strings.Builder, transcript []harness.Message, tools []harness.Tool) {
	var system strings.Builder
	for _, m := range transcript {
		if m.Kind != harness.KindSystem {
			continue
		}
		if system.Len() > 0 {
			system.WriteString("\n")
		}
		system.WriteString(m.Content)
	}

	if system.Len() == 0 && len(tools) == 0 {
		return
	}

	b.WriteString("<system>\n")
	b.WriteString(system.String())
	b.WriteString("\n</system>\n")

	if len(tools) == 0 {
		return
	}
	b.WriteString("<available_tools>\n")
	for _, t := range tools {
		b.WriteString("- ")
		b.WriteString(t.Name)
		b.WriteString("(")
		b.WriteString(renderParams(t.Parameters))
		b.WriteString(")\n  Description: ")
		b.WriteString(t.Description)
		b.WriteString("\n")
	}
	b.WriteString(toolCallInstruction)
	b.WriteString("\n</available_tools>\n")
}

// renderParams renders a JSON Schema "properties" object as a comma-joined
// "name: type" list, sorted by name for deterministic output.
func renderParams(schema map[string]any) string {
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return ""
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		typ := "any"
		if prop, ok := props[name].(map[string]any); ok {
			if t, ok := prop["type"].(string); ok {
				typ = t
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, typ))
	}
	return strings.Join(parts, ", ")
}

// writeTranscript serialises prior turns, one per line, skipping System
// messages (already folded into the prelude). MultiTool expands into one
// "Tool Result" line per contained tool message.
func writeTranscript(b *strings.Builder, transcript []harness.Message) {
	for _, m := range transcript {
		for _, line := range renderLines(m) {
			if line == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(line)
		}
	}
}

func renderLines(m harness.Message) []string {
	switch m.Kind {
	case harness.KindSystem:
		return nil
	case harness.KindUser:
		return []string{"User: " + m.Content}
	case harness.KindAssistant:
		if len(m.ToolCalls) > 0 {
			return nil
		}
		return []string{"Assistant: " + m.Content}
	case harness.KindTool:
		return []string{fmt.Sprintf("Tool Result (%s): %s", m.ToolName, m.Content)}
	case harness.KindMultiTool:
		lines := make([]string, 0, len(m.ToolMessages))
		for _, tm := range m.ToolMessages {
			lines = append(lines, fmt.Sprintf("Tool Result (%s): %s", tm.ToolName, tm.Content))
		}
		return lines
	default:
		return nil
	}
}

// toolCallPayload is the shape a structured tool-call Data part, or an
// embedded JSON object in text, must match.
type toolCallPayload struct {
	ToolCall struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
		ID        string         `json:"id"`
	} `json:"tool_call"`
}

// WireToHarness extracts an Assistant message and the reply's contextId from
// an incoming wire message, following the two-tier tool-call extraction
// priority (structured Data part, then embedded JSON-in-text) and enforcing
// the text-XOR-tool_calls invariant.
//
// warn is called with a single message if the invariant had to be enforced
// by dropping text content in favor of extracted tool calls; it may be nil.
func WireToHarness(reply protocol.Message, warn func(string)) (harness.Message, string) {
	var text strings.Builder
	var calls []harness.ToolCall

	for _, p := range reply.Parts {
		switch p.Type {
		case protocol.PartTypeText:
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(p.Text)
		case protocol.PartTypeData:
			if call, ok := extractStructured(p.Data); ok {
				calls = append(calls, call)
			}
		}
	}

	content := text.String()

	// Tier (b): only scan text if no structured call was already found.
	if len(calls) == 0 {
		if call, remainder, ok := extractEmbedded(content); ok {
			calls = append(calls, call)
			content = remainder
		}
	}

	content = strings.TrimSpace(content)

	msg := harness.Message{Kind: harness.KindAssistant}
	switch {
	case len(calls) > 0 && content != "":
		if warn != nil {
			warn("assistant reply carried both text and tool_calls; dropping text and keeping tool_calls")
		}
		msg.ToolCalls = calls
	case len(calls) > 0:
		msg.ToolCalls = calls
	default:
		msg.Content = content
	}

	return msg, reply.ContextID
}

// extractStructured decodes a Data part's payload as a tool-call payload.
func extractStructured(data json.RawMessage) (harness.ToolCall, bool) {
	var payload toolCallPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return harness.ToolCall{}, false
	}
	if payload.ToolCall.Name == "" {
		return harness.ToolCall{}, false
	}
	return toCall(payload), true
}

// extractEmbedded scans text for the first balanced JSON object matching the
// tool-call shape, and returns the text with the matched substring removed.
func extractEmbedded(text string) (harness.ToolCall, string, bool) {
	offset := 0
	for {
		start, end, ok := firstBalancedObject(text[offset:])
		if !ok {
			return harness.ToolCall{}, text, false
		}
		start, end = start+offset, end+offset
		var payload toolCallPayload
		if err := json.Unmarshal([]byte(text[start:end]), &payload); err == nil && payload.ToolCall.Name != "" {
			remainder := text[:start] + text[end:]
			return toCall(payload), remainder, true
		}
		offset = end
	}
}

func toCall(payload toolCallPayload) harness.ToolCall {
	id := payload.ToolCall.ID
	if id == "" {
		id = uuid.NewString()
	}
	return harness.ToolCall{
		ID:        id,
		Name:      payload.ToolCall.Name,
		Arguments: payload.ToolCall.Arguments,
		Requestor: "assistant",
	}
}

// firstBalancedObject finds the span of the first top-level balanced `{...}`
// object in s, respecting quoted strings and escapes, and returns its
// [start, end) byte offsets. It does not validate the object's shape; the
// caller decodes and checks that separately.
func firstBalancedObject(s string) (start, end int, ok bool) {
	depth := 0
	inString := false
	escaped := false
	objStart := -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && objStart >= 0 {
					return objStart, i + 1, true
				}
			}
		}
	}
	return 0, 0, false
}
