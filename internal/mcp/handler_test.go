package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/loop"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/realtime"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/remote/mocks"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	loop    *loop.Loop
	backend *mocks.Backend
	handler *Handler
}

func setup(t *testing.T, role perm.Role) fixture {
	t.Helper()
	s := store.New()
	s.ReplaceClients([]client.Client{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}})
	s.ReplaceProjects([]project.Project{
		{ID: "p1", Name: "Website", ClientID: "c1", ClientName: "Acme", Status: project.StatusActive},
		{ID: "p2", Name: "Mobile app", ClientID: "c2", ClientName: "Globex", Status: project.StatusOnHold},
		{ID: "p3", Name: "Web shop", ClientID: "c1", ClientName: "Acme", Status: project.StatusActive},
	})
	s.ReplaceTasks([]task.Task{
		{ID: "t1", Title: "Copy", ProjectID: "p1", Status: task.StatusCompleted, Priority: task.PriorityLow},
		{ID: "t2", Title: "Design", ProjectID: "p1", Status: task.StatusToDo, Priority: task.PriorityHigh},
		{ID: "t3", Title: "Deploy", ProjectID: "p1", Status: task.StatusToDo, Priority: task.PriorityMedium, BlockedBy: []string{"t2"}},
	})
	me := team.Member{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: role}
	s.ReplaceMembers([]team.Member{me, {ID: "u2", Name: "Bob", Email: "bob@example.com", Role: perm.RoleMember}})
	s.SetCurrentUser(me)

	backend := &mocks.Backend{}
	engine := mutate.NewEngine(s, backend, nil, nil)
	l := loop.New(engine, realtime.NewReconciler(s, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return fixture{loop: l, backend: backend, handler: NewHandler(l)}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func requireCode(t *testing.T, err error, code string) *APIError {
	t.Helper()
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func TestHandler_ListProjectsFiltersAndPages(t *testing.T) {
	f := setup(t, perm.RoleViewer)
	ctx := context.Background()

	res, err := f.handler.Handle(ctx, "list_projects", mustJSON(t, ListParams{Query: "web", SortBy: "name"}))
	require.NoError(t, err)
	page := res.(PageResponse[ProjectResponse])
	require.Equal(t, 2, page.TotalCount)
	require.Equal(t, "Web shop", page.Rows[0].Name)
	require.Equal(t, "Website", page.Rows[1].Name)
	require.Equal(t, 33, page.Rows[1].Progress)
	require.Equal(t, "Acme", page.Rows[1].ClientLabel)

	res, err = f.handler.Handle(ctx, "list_projects", mustJSON(t, ListParams{Status: "on hold"}))
	require.NoError(t, err)
	require.Equal(t, 1, res.(PageResponse[ProjectResponse]).TotalCount)

	res, err = f.handler.Handle(ctx, "list_projects", mustJSON(t, ListParams{PageSize: 2, Page: 9}))
	require.NoError(t, err)
	page = res.(PageResponse[ProjectResponse])
	require.Equal(t, 2, page.Page, "page clamps to the last page")
	require.Len(t, page.Rows, 1)
}

func TestHandler_GetTaskIncludesDerivedFields(t *testing.T) {
	f := setup(t, perm.RoleViewer)

	res, err := f.handler.Handle(context.Background(), "get_task", mustJSON(t, IDParams{ID: "t3"}))
	require.NoError(t, err)
	detail := res.(TaskDetailResponse)
	require.True(t, detail.Blocked)
	require.Equal(t, "Website", detail.ProjectName)
	require.Equal(t, "Unassigned", detail.AssigneeName)
	require.Empty(t, detail.Comments)

	_, err = f.handler.Handle(context.Background(), "get_task", mustJSON(t, IDParams{ID: "missing"}))
	requireCode(t, err, "NOT_FOUND")
}

func TestHandler_CreateTaskReturnsConfirmedID(t *testing.T) {
	f := setup(t, perm.RoleMember)
	f.backend.On("Insert", mock.Anything, remote.TableTasks, mock.Anything).
		Return(remote.Row{"id": float64(42), "title": "Write brief", "project_id": "p1", "status": "To Do", "priority": "High"}, nil)

	res, err := f.handler.Handle(context.Background(), "create_task",
		mustJSON(t, CreateTaskParams{Title: "Write brief", ProjectID: "p1", Priority: "high"}))
	require.NoError(t, err)
	require.Equal(t, MutationResponse{Op: "create task", ID: "42"}, res)

	res, err = f.handler.Handle(context.Background(), "get_task", mustJSON(t, IDParams{ID: "42"}))
	require.NoError(t, err)
	require.Equal(t, task.PriorityHigh, res.(TaskDetailResponse).Priority)
	f.backend.AssertExpectations(t)
}

func TestHandler_PermissionDeniedSkipsBackend(t *testing.T) {
	f := setup(t, perm.RoleViewer)

	_, err := f.handler.Handle(context.Background(), "create_project", mustJSON(t, CreateProjectParams{Name: "New"}))
	requireCode(t, err, "PERMISSION_DENIED")
	f.backend.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)

	_, err = f.handler.Handle(context.Background(), "export_csv", mustJSON(t, ExportParams{Kind: "tasks"}))
	requireCode(t, err, "PERMISSION_DENIED")
}

func TestHandler_ValidationAndParams(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, "set_task_status", mustJSON(t, SetTaskStatusParams{ID: "t3", Status: "Completed"}))
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.handler.Handle(ctx, "delete_task", nil)
	requireCode(t, err, "INVALID_PARAMS")

	_, err = f.handler.Handle(ctx, "update_member", mustJSON(t, UpdateMemberParams{ID: "u2", Role: ptr("Overlord")}))
	requireCode(t, err, "INVALID_PARAMS")

	_, err = f.handler.Handle(ctx, "list_tasks", json.RawMessage(`{"page":"two"}`))
	requireCode(t, err, "INVALID_PARAMS")

	_, err = f.handler.Handle(ctx, "summon_task", nil)
	requireCode(t, err, "UNKNOWN_TOOL")
}

func TestHandler_RemoteFailureRollsBack(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.backend.On("Update", mock.Anything, remote.TableProjects, "p1", mock.Anything).
		Return(nil, &remote.StatusError{Status: 500, Message: "database unavailable"})

	_, err := f.handler.Handle(context.Background(), "update_project",
		mustJSON(t, UpdateProjectParams{ID: "p1", Name: ptr("Renamed")}))
	apiErr := requireCode(t, err, "REMOTE_FAILED")
	require.Equal(t, map[string]any{"status": 500}, apiErr.Details)

	res, err := f.handler.Handle(context.Background(), "get_project", mustJSON(t, IDParams{ID: "p1"}))
	require.NoError(t, err)
	require.Equal(t, "Website", res.(ProjectDetailResponse).Name)
}

func TestHandler_BulkDeleteReportsRemaining(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.backend.On("Delete", mock.Anything, remote.TableClients, "c1").Return(nil)
	f.backend.On("Delete", mock.Anything, remote.TableClients, "c2").Return(errors.New("locked"))

	_, err := f.handler.Handle(context.Background(), "bulk_delete",
		mustJSON(t, BulkDeleteParams{Kind: "clients", IDs: []string{"c1", "c2"}}))
	apiErr := requireCode(t, err, "REMOTE_FAILED")
	require.Equal(t, BulkDeleteResponse{Requested: 2, Remaining: []string{"c2"}}, apiErr.Details)

	res, err := f.handler.Handle(context.Background(), "list_clients", nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.(PageResponse[client.Client]).TotalCount)

	_, err = f.handler.Handle(context.Background(), "bulk_delete", mustJSON(t, BulkDeleteParams{Kind: "tasks"}))
	requireCode(t, err, "NOTHING_SELECTED")
}

func TestHandler_ExportCSV(t *testing.T) {
	f := setup(t, perm.RoleProjectManager)

	res, err := f.handler.Handle(context.Background(), "export_csv", mustJSON(t, ExportParams{Kind: "clients"}))
	require.NoError(t, err)
	require.Equal(t, "id,name,company,email,phone\nc1,Acme,,,\nc2,Globex,,,\n", res.(ExportResponse).CSV)
}

func TestHandler_Notifications(t *testing.T) {
	f := setup(t, perm.RoleViewer)

	res, err := f.handler.Handle(context.Background(), "mark_notifications_read", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"marked": 0}, res)

	res, err = f.handler.Handle(context.Background(), "list_notifications", nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.(NotificationsResponse).Unread)
}

func TestHandler_LoopStopped(t *testing.T) {
	s := store.New()
	l := loop.New(mutate.NewEngine(s, &mocks.Backend{}, nil, nil), realtime.NewReconciler(s, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = l.Run(ctx)

	_, err := NewHandler(l).Handle(context.Background(), "whoami", nil)
	requireCode(t, err, "UNAVAILABLE")
}

func ptr[T any](v T) *T { return &v }
