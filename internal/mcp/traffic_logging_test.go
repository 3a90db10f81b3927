package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactMasksSecrets(t *testing.T) {
	params := map[string]any{
		"name":  "create_client",
		"token": "abc",
		"arguments": map[string]any{
			"name":     "Acme",
			"password": "hunter2",
		},
	}

	got := redact(params)
	require.Equal(t, "[redacted]", got["token"])
	require.Equal(t, "create_client", got["name"])
	args := got["arguments"].(map[string]any)
	require.Equal(t, "[redacted]", args["password"])
	require.Equal(t, "Acme", args["name"])
	require.Equal(t, "hunter2", params["arguments"].(map[string]any)["password"])
}

func TestFormatPayloadTruncates(t *testing.T) {
	require.Equal(t, "<nil>", formatPayload(nil))
	require.Equal(t, "<nil>", formatPayload(redact(nil)))

	out := formatPayload(map[string]any{"text": strings.Repeat("x", maxLoggedPayload)})
	require.True(t, strings.HasSuffix(out, "…"))
	require.Len(t, out, maxLoggedPayload+len("…"))
}

func TestPayloadMapRejectsNonObjects(t *testing.T) {
	require.Nil(t, payloadMap(nil))
	require.Nil(t, payloadMap([]int{1, 2}))
	require.Equal(t, "ping", payloadMap(struct {
		Name string `json:"name"`
	}{"ping"})["name"])
}
