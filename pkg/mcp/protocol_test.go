package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonRpcID_RoundTrip(t *testing.T) {
	t.Run("string id", func(t *testing.T) {
		id := NewStringID("abc-123")
		data, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, `"abc-123"`, string(data))

		var out JsonRpcID
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, "abc-123", out.String())
	})

	t.Run("int id", func(t *testing.T) {
		id := NewIntID(42)
		data, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, `42`, string(data))

		var out JsonRpcID
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, "42", out.String())
	})
}

func TestNewRequest_HasID(t *testing.T) {
	req, err := NewRequest(NewIntID(1), "tools/list", nil)
	require.NoError(t, err)
	require.NotNil(t, req.ID)
	assert.Equal(t, "2.0", req.JsonRPC)
	assert.Equal(t, "tools/list", req.Method)
}

func TestNewNotification_HasNoID(t *testing.T) {
	req, err := NewNotification("notifications/initialized", nil)
	require.NoError(t, err)
	assert.Nil(t, req.ID)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, hasID := decoded["id"]
	assert.False(t, hasID, "a notification must not carry an id field")
}

func TestToolDefinition_WireFieldIsInputSchema(t *testing.T) {
	def := ToolDefinition{
		Name:        "echo",
		Description: "echoes input",
		InputSchema: json.RawMessage(`{"type":"object"}`),
	}
	data, err := json.Marshal(def)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, hasInputSchema := decoded["input_schema"]
	assert.True(t, hasInputSchema)
	_, hasCamelCase := decoded["inputSchema"]
	assert.False(t, hasCamelCase)
}

func TestContent_ImageWireFieldIsMediaType(t *testing.T) {
	c := Content{Type: ContentImage, Data: "YWJj", MediaType: "image/png"}
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "image/png", decoded["media_type"])
}

func TestJsonRpcResponse_ErrorXorResult(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`
	var resp JsonRpcResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}
