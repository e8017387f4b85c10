// Package protocol defines the Agent Protocol wire types: the JSON-RPC 2.0
// envelope, message parts, and the agent discovery document. Field names use
// camelCase JSON tags to conform to the protocol as observed on the wire.
//
//nolint:tagliatelle // Agent Protocol requires camelCase JSON field names
package protocol

import "encoding/json"

// Role identifies the speaker of a wire message.
type Role string

const (
	// RoleUser identifies a message sent to the remote agent.
	RoleUser Role = "user"
	// RoleAgent identifies a message produced by the remote agent.
	RoleAgent Role = "agent"
)

// PartType identifies the kind of payload carried by a Part.
type PartType string

const (
	// PartTypeText marks a Part carrying plain text.
	PartTypeText PartType = "text"
	// PartTypeData marks a Part carrying a structured JSON payload.
	PartTypeData PartType = "data"
	// PartTypeFile marks a Part carrying file content. Out of scope: the
	// client never constructs File parts and only preserves them verbatim
	// when echoing a reply's parts back through Normalize.
	PartTypeFile PartType = "file"
)

// Part is a single content block within a Message. Exactly one payload field
// is set, selected by Type.
type Part struct {
	Type PartType `json:"type"`

	// Text holds the content when Type is PartTypeText.
	Text string `json:"text,omitempty"`

	// Data holds the content when Type is PartTypeData.
	Data json.RawMessage `json:"data,omitempty"`

	// MIMEType and URI hold the content when Type is PartTypeFile.
	MIMEType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// TextPart builds a Part carrying plain text.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// DataPart builds a Part carrying a structured JSON payload.
func DataPart(data json.RawMessage) Part {
	return Part{Type: PartTypeData, Data: data}
}

// Message is the wire representation of a single exchange with the remote
// agent, as defined by the Agent Protocol's message/send method.
type Message struct {
	MessageID string         `json:"messageId"`
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	ContextID string         `json:"contextId,omitempty"`
	TaskID    string         `json:"taskId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AgentCapabilities describes protocol-level features the agent advertises.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// SecurityScheme describes a single authentication scheme an agent accepts.
type SecurityScheme struct {
	Type   string          `json:"type"`
	Scheme string          `json:"scheme,omitempty"`
	In     string          `json:"in,omitempty"`
	Name   string          `json:"name,omitempty"`
	Flows  json.RawMessage `json:"flows,omitempty"`
}

// Skill advertises a single capability of an agent in its AgentCard.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// AgentCard is the discovery document returned by
// GET <endpoint>/.well-known/agent-card.json.
type AgentCard struct {
	Name            string                     `json:"name"`
	URL             string                     `json:"url"`
	Description     string                     `json:"description,omitempty"`
	Version         string                     `json:"version,omitempty"`
	Capabilities    AgentCapabilities          `json:"capabilities"`
	SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
	Security        any                        `json:"security,omitempty"`
	Skills          []Skill                    `json:"skills,omitempty"`
}

// RPCRequest is the JSON-RPC 2.0 request envelope used for message/send.
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// SendMessageParams is the params object for the message/send method.
type SendMessageParams struct {
	Message Message `json:"message"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// RPCResponse is the JSON-RPC 2.0 response envelope. Result is left as raw
// JSON because message/send replies are observed in five different shapes
// (see Normalize) and must be sniffed before being decoded into a Message.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}
