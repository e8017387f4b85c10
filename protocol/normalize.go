package protocol

import (
	"encoding/json"
	"fmt"
)

// Normalize accepts the five reply shapes observed in the wild for a
// message/send result and returns a single normalized Message:
//
//  1. a full Message with role "agent";
//  2. a bare {"parts": [...]};
//  3. a bare string value;
//  4. a wrapped {"message": {...}};
//  5. a task-object with a terminal message buried inside
//     (either {"status":{"message":{...}}} or {"history":[...last...]}).
//
// Normalize returns an error for empty input, for JSON that is neither an
// object nor a string (arrays included), for an object it cannot decode,
// and for an object that matches none of the above shapes; the caller
// reports any such error as Malformed.
func Normalize(raw json.RawMessage) (Message, error) {
	raw = trimRaw(raw)
	if len(raw) == 0 {
		return Message{}, fmt.Errorf("protocol: empty result")
	}

	// Shape 3: a bare string.
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Message{}, fmt.Errorf("protocol: decoding string result: %w", err)
		}
		return Message{Role: RoleAgent, Parts: []Part{TextPart(s)}}, nil
	}

	if raw[0] != '{' {
		return Message{}, fmt.Errorf("protocol: result is neither an object nor a string")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Message{}, fmt.Errorf("protocol: decoding result object: %w", err)
	}

	// Shape 1: a full Message (has "parts" directly, optionally "role").
	if partsRaw, ok := probe["parts"]; ok {
		msg, err := decodeBareParts(partsRaw, probe)
		if err != nil {
			return Message{}, err
		}
		return msg, nil
	}

	// Shape 4: {"message": {...}}.
	if wrapped, ok := probe["message"]; ok {
		var inner Message
		if err := json.Unmarshal(wrapped, &inner); err != nil {
			return Message{}, fmt.Errorf("protocol: decoding wrapped message: %w", err)
		}
		if inner.Role == "" {
			inner.Role = RoleAgent
		}
		return inner, nil
	}

	// Shape 5a: {"status": {"message": {...}}, ...}.
	if statusRaw, ok := probe["status"]; ok {
		var status struct {
			Message *Message `json:"message"`
		}
		if err := json.Unmarshal(statusRaw, &status); err == nil && status.Message != nil {
			msg := *status.Message
			if msg.Role == "" {
				msg.Role = RoleAgent
			}
			if ctx, ok := probe["contextId"]; ok {
				_ = json.Unmarshal(ctx, &msg.ContextID)
			}
			return msg, nil
		}
	}

	// Shape 5b: {"history": [...]} — last entry is the terminal message.
	if historyRaw, ok := probe["history"]; ok {
		var history []Message
		if err := json.Unmarshal(historyRaw, &history); err != nil {
			return Message{}, fmt.Errorf("protocol: decoding task history: %w", err)
		}
		if len(history) == 0 {
			return Message{}, fmt.Errorf("protocol: task history is empty")
		}
		msg := history[len(history)-1]
		if msg.Role == "" {
			msg.Role = RoleAgent
		}
		return msg, nil
	}

	return Message{}, fmt.Errorf("protocol: unrecognized result shape")
}

// decodeBareParts handles shape 2 (bare {"parts":[...]}) and the parts
// portion of shape 1 (a full Message), which share the same decoding path.
func decodeBareParts(partsRaw json.RawMessage, probe map[string]json.RawMessage) (Message, error) {
	var parts []Part
	if err := json.Unmarshal(partsRaw, &parts); err != nil {
		return Message{}, fmt.Errorf("protocol: decoding parts: %w", err)
	}
	msg := Message{Role: RoleAgent, Parts: parts}
	if roleRaw, ok := probe["role"]; ok {
		_ = json.Unmarshal(roleRaw, &msg.Role)
		if msg.Role == "" {
			msg.Role = RoleAgent
		}
	}
	if idRaw, ok := probe["messageId"]; ok {
		_ = json.Unmarshal(idRaw, &msg.MessageID)
	}
	if ctxRaw, ok := probe["contextId"]; ok {
		_ = json.Unmarshal(ctxRaw, &msg.ContextID)
	}
	return msg, nil
}

// trimRaw strips leading/trailing JSON whitespace so the shape sniff on
// raw[0] is reliable.
func trimRaw(raw json.RawMessage) json.RawMessage {
	start := 0
	for start < len(raw) {
		switch raw[start] {
		case ' ', '\t', '\n', '\r':
			start++
			continue
		}
		break
	}
	end := len(raw)
	for end > start {
		switch raw[end-1] {
		case ' ', '\t', '\n', '\r':
			end--
			continue
		}
		break
	}
	return raw[start:end]
}
