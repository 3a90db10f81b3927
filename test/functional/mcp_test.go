package functional_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/hydrate"
	"github.com/rpggio/syncteam/internal/loop"
	"github.com/rpggio/syncteam/internal/mcp"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/realtime"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/testserver"
	"github.com/stretchr/testify/require"
)

// agent is an MCP client session backed by a signed-in loop against the
// test server.
type agent struct {
	session *sdkmcp.ClientSession
}

func startLoop(t *testing.T, b *remote.HTTPBackend, user team.Member) *loop.Loop {
	t.Helper()
	s := store.New()
	s.SetCurrentUser(user)
	l := loop.New(mutate.NewEngine(s, b, nil, nil), realtime.NewReconciler(s, nil), nil, loop.WithSource(b))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ds, err := hydrate.Fetch(ctx, b, nil)
	require.NoError(t, err)
	require.NoError(t, l.Do(ctx, func(s *store.Store) error {
		ds.Apply(s)
		return nil
	}))
	return l
}

func newAgent(t *testing.T, ts *testserver.TestServer, email, role string) *agent {
	t.Helper()
	b, sess := ts.SignedIn(t, email, email, role)
	server := mcp.NewServer(mcp.Config{Loop: startLoop(t, b, sess.User), Version: "test"})

	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
	})
	return &agent{session: session}
}

// call invokes a tool and returns its JSON text and error flag.
func (a *agent) call(t *testing.T, name string, args map[string]any) (json.RawMessage, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := a.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return json.RawMessage(text.Text), res.IsError
}

func (a *agent) mustCall(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	out, isErr := a.call(t, name, args)
	require.False(t, isErr, "tool %s failed: %s", name, out)
	return out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestFunctional_ProjectsAndTasks(t *testing.T) {
	ts := testserver.New(t)
	admin := newAgent(t, ts, "ada@example.com", "")

	me := decode[map[string]any](t, admin.mustCall(t, "whoami", nil))
	require.Equal(t, "Admin", me["role"])

	created := decode[mcp.MutationResponse](t, admin.mustCall(t, "create_project", map[string]any{
		"name":   "Website",
		"budget": 12000,
	}))
	require.Equal(t, "create project", created.Op)
	require.False(t, mutate.IsTentative(created.ID))

	admin.mustCall(t, "create_task", map[string]any{
		"title":      "Design",
		"project_id": created.ID,
		"priority":   "High",
	})

	projects := decode[mcp.PageResponse[mcp.ProjectResponse]](t, admin.mustCall(t, "list_projects", nil))
	require.Equal(t, 1, projects.TotalCount)
	require.Equal(t, "Website", projects.Rows[0].Name)
	require.Equal(t, 1, projects.Rows[0].TaskCount)

	tasks := decode[mcp.PageResponse[mcp.TaskResponse]](t, admin.mustCall(t, "list_tasks", map[string]any{"project_id": created.ID}))
	require.Equal(t, 1, tasks.TotalCount)
	require.Equal(t, "Website", tasks.Rows[0].ProjectName)
	require.Equal(t, "Unassigned", tasks.Rows[0].AssigneeName)

	admin.mustCall(t, "set_task_status", map[string]any{"id": tasks.Rows[0].ID, "status": "Completed"})
	projects = decode[mcp.PageResponse[mcp.ProjectResponse]](t, admin.mustCall(t, "list_projects", nil))
	require.Equal(t, 100, projects.Rows[0].Progress)
}

func TestFunctional_ValidationAndPermissions(t *testing.T) {
	ts := testserver.New(t)
	admin := newAgent(t, ts, "ada@example.com", "")
	viewer := newAgent(t, ts, "vic@example.com", "Viewer")

	out, isErr := admin.call(t, "create_project", map[string]any{"name": "Late", "start_date": "2025-05-01", "end_date": "2025-04-01"})
	require.True(t, isErr)
	require.Equal(t, "VALIDATION_FAILED", decode[mcp.APIError](t, out).Code)

	out, isErr = viewer.call(t, "create_client", map[string]any{"name": "Acme"})
	require.True(t, isErr)
	require.Equal(t, "PERMISSION_DENIED", decode[mcp.APIError](t, out).Code)

	out, isErr = admin.call(t, "export_csv", map[string]any{"kind": "invoices"})
	require.True(t, isErr)
	require.Equal(t, "INVALID_PARAMS", decode[mcp.APIError](t, out).Code)
}

func TestFunctional_ExportCSV(t *testing.T) {
	ts := testserver.New(t)
	admin := newAgent(t, ts, "ada@example.com", "")
	admin.mustCall(t, "create_client", map[string]any{"name": "Acme", "company": "Acme, Inc.", "email": "ops@acme.test"})

	export := decode[mcp.ExportResponse](t, admin.mustCall(t, "export_csv", map[string]any{"kind": "clients"}))
	require.Equal(t, "clients", export.Kind)
	require.Contains(t, export.CSV, `Acme,"Acme, Inc.",ops@acme.test`)
}

func TestFunctional_HTTPTransportRequiresToken(t *testing.T) {
	ts := testserver.New(t)
	b, sess := ts.SignedIn(t, "ada@example.com", "Ada", "")
	server := mcp.NewServer(mcp.Config{Loop: startLoop(t, b, sess.User)})
	api := httptest.NewServer(mcp.NewHTTPHandler(server, "secret", nil))
	t.Cleanup(api.Close)

	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`
	post := func(token string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, api.URL, bytes.NewBufferString(initialize))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := post("")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = post("wrong")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("secret")
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NotEmpty(t, resp.Header.Get("Mcp-Session-Id"))
	require.Contains(t, string(body), `"syncteam"`)
}
