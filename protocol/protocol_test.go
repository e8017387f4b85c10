package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FullMessage(t *testing.T) {
	raw := json.RawMessage(`{"messageId":"m1","role":"agent","parts":[{"type":"text","text":"hi"}],"contextId":"ctx1"}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, RoleAgent, msg.Role)
	assert.Equal(t, "ctx1", msg.ContextID)
	require.Len(t, msg.Parts, 1)
	assert.Equal(t, "hi", msg.Parts[0].Text)
}

func TestNormalize_BareParts(t *testing.T) {
	raw := json.RawMessage(`{"parts":[{"type":"text","text":"hello"}]}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, RoleAgent, msg.Role)
	assert.Equal(t, "hello", msg.Parts[0].Text)
}

func TestNormalize_BareString(t *testing.T) {
	raw := json.RawMessage(`"just text"`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, RoleAgent, msg.Role)
	require.Len(t, msg.Parts, 1)
	assert.Equal(t, "just text", msg.Parts[0].Text)
	assert.Equal(t, PartTypeText, msg.Parts[0].Type)
}

func TestNormalize_WrappedMessage(t *testing.T) {
	raw := json.RawMessage(`{"message":{"parts":[{"type":"text","text":"wrapped"}]}}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, RoleAgent, msg.Role)
	assert.Equal(t, "wrapped", msg.Parts[0].Text)
}

func TestNormalize_TaskStatusShape(t *testing.T) {
	raw := json.RawMessage(`{"contextId":"ctx9","status":{"message":{"parts":[{"type":"text","text":"done"}]}}}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "ctx9", msg.ContextID)
	assert.Equal(t, "done", msg.Parts[0].Text)
}

func TestNormalize_TaskHistoryShape(t *testing.T) {
	raw := json.RawMessage(`{"history":[
		{"role":"user","parts":[{"type":"text","text":"q"}]},
		{"role":"agent","parts":[{"type":"text","text":"last"}]}
	]}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "last", msg.Parts[0].Text)
}

func TestNormalize_EmptyHistoryIsError(t *testing.T) {
	raw := json.RawMessage(`{"history":[]}`)
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_UnrecognizedShape(t *testing.T) {
	raw := json.RawMessage(`{"foo":"bar"}`)
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json`)
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_EmptyRaw(t *testing.T) {
	_, err := Normalize(json.RawMessage(``))
	assert.Error(t, err)
}

func TestRPCError_ErrorMethod(t *testing.T) {
	var nilErr *RPCError
	assert.Equal(t, "", nilErr.Error())

	e := &RPCError{Code: -32000, Message: "boom"}
	assert.Equal(t, "boom", e.Error())
}

func TestTextPartAndDataPart(t *testing.T) {
	tp := TextPart("hi")
	assert.Equal(t, PartTypeText, tp.Type)
	assert.Equal(t, "hi", tp.Text)

	dp := DataPart(json.RawMessage(`{"a":1}`))
	assert.Equal(t, PartTypeData, dp.Type)
	assert.JSONEq(t, `{"a":1}`, string(dp.Data))
}
