package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(cfg)
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
	})
	return session
}

func callText(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestServer_ListsCatalog(t *testing.T) {
	f := setup(t, perm.RoleViewer)
	session := connect(t, Config{Loop: f.loop})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make(map[string]bool, len(res.Tools))
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, def := range buildToolCatalog() {
		require.True(t, names[def.Name], "missing tool %s", def.Name)
	}
}

func TestServer_CallToolResults(t *testing.T) {
	f := setup(t, perm.RoleViewer)
	session := connect(t, Config{Loop: f.loop})

	text, isErr := callText(t, session, "list_tasks", map[string]any{"status": "To Do"})
	require.False(t, isErr)
	var page PageResponse[TaskResponse]
	require.NoError(t, json.Unmarshal([]byte(text), &page))
	require.Equal(t, 2, page.TotalCount)

	text, isErr = callText(t, session, "delete_project", map[string]any{"id": "p1"})
	require.True(t, isErr)
	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code)
}

func TestServer_WaitsForReady(t *testing.T) {
	f := setup(t, perm.RoleViewer)
	ready := make(chan struct{})
	session := connect(t, Config{Loop: f.loop, Ready: ready})

	type outcome struct {
		res *sdkmcp.CallToolResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "whoami"})
		done <- outcome{res, err}
	}()

	select {
	case <-done:
		t.Fatal("tool call finished before ready")
	case <-time.After(50 * time.Millisecond):
	}
	close(ready)

	select {
	case out := <-done:
		require.NoError(t, out.err)
		require.False(t, out.res.IsError)
		require.Contains(t, out.res.Content[0].(*sdkmcp.TextContent).Text, `"name":"Ada"`)
	case <-time.After(2 * time.Second):
		t.Fatal("tool call did not finish after ready")
	}
}

func TestServer_ReadsDocs(t *testing.T) {
	f := setup(t, perm.RoleViewer)
	session := connect(t, Config{Loop: f.loop})

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "syncteam://docs/permissions"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "Project Manager")
}
