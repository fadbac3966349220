package serve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_ResolveUnmarshal(t *testing.T) {
	input := `{"type":"resolve","payload":{"url":"https://github.com/golang/go"}}`

	var req Request
	err := json.Unmarshal([]byte(input), &req)
	require.NoError(t, err)

	assert.Equal(t, TypeResolve, req.Type)

	var payload ResolvePayload
	err = json.Unmarshal(req.Payload, &payload)
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/golang/go", payload.URL)
}

func TestResponse_Marshal(t *testing.T) {
	resp := Response{
		Success: true,
		Type:    TypeReady,
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"success":true`)
	assert.Contains(t, string(data), `"type":"ready"`)
	assert.NotContains(t, string(data), `"error"`)
}

func TestResolveResult_NoMatchMarshal(t *testing.T) {
	data, err := json.Marshal(ResolveResult{URL: "https://x.test"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"url":"https://x.test","group":null}`, string(data))
}
