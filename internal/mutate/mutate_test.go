package mutate_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/patch"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/remote/mocks"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

type toasts []mutate.Toast

func (ts *toasts) Toast(t mutate.Toast) { *ts = append(*ts, t) }

func (ts toasts) last() mutate.Toast {
	if len(ts) == 0 {
		return mutate.Toast{}
	}
	return ts[len(ts)-1]
}

type fixture struct {
	store   *store.Store
	backend *mocks.Backend
	toasts  *toasts
	engine  *mutate.Engine
}

func setup(t *testing.T, role perm.Role) fixture {
	t.Helper()
	s := store.New(store.WithClock(func() time.Time { return fixedNow }))
	s.ReplaceProjects([]project.Project{{ID: "9", Name: "Website", Status: project.StatusActive}})
	s.ReplaceTasks([]task.Task{
		{ID: "1", Title: "Copy", ProjectID: "9", Status: task.StatusToDo, Priority: task.PriorityLow,
			Subtasks: []task.Subtask{{ID: "s1", TaskID: "1", Title: "Draft"}}},
		{ID: "2", Title: "Design", ProjectID: "9", Status: task.StatusToDo, Priority: task.PriorityMedium},
		{ID: "3", Title: "Deploy", ProjectID: "9", Status: task.StatusToDo, Priority: task.PriorityHigh, BlockedBy: []string{"2"}},
	})
	s.ReplaceClients([]client.Client{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}})
	me := team.Member{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: role}
	s.ReplaceMembers([]team.Member{me, {ID: "u2", Name: "Bob", Email: "bob@example.com", Role: perm.RoleMember}})
	s.SetCurrentUser(me)

	b := &mocks.Backend{}
	ts := &toasts{}
	seq := 0
	e := mutate.NewEngine(s, b, ts, nil, mutate.WithIDGenerator(func() string {
		seq++
		return mutate.TentativePrefix + strings.Repeat("x", seq)
	}))
	return fixture{store: s, backend: b, toasts: ts, engine: e}
}

func TestCreateTask_CommitRekeys(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.backend.On("Insert", mock.Anything, remote.TableTasks, mock.Anything).
		Return(remote.Row{"id": float64(42), "title": "Write brief", "project_id": float64(9), "status": "To Do", "priority": "Medium"}, nil)

	p, err := f.engine.CreateTask(task.Task{Title: "Write brief", ProjectID: "9"})
	require.NoError(t, err)
	require.Equal(t, mutate.Submitting, p.State())
	require.True(t, mutate.IsTentative(f.store.Tasks()[0].ID))
	require.True(t, f.engine.Busy("create:task"))

	require.NoError(t, f.engine.Run(context.Background(), p))
	require.Equal(t, mutate.Committed, p.State())
	require.False(t, f.engine.Busy("create:task"))

	got, ok := f.store.Task("42")
	require.True(t, ok)
	require.Equal(t, "Write brief", got.Title)
	require.Equal(t, "u1", got.CreatedBy)
	require.Len(t, f.store.Tasks(), 4)
	require.Equal(t, activity.LevelSuccess, f.toasts.last().Level)
	require.Equal(t, activity.KindCreated, f.store.Activities()[0].Kind)
	f.backend.AssertExpectations(t)
}

func TestCreateTask_RealtimeRacedAhead(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.backend.On("Insert", mock.Anything, remote.TableTasks, mock.Anything).
		Return(remote.Row{"id": "42", "title": "Write brief", "project_id": "9"}, nil)

	p, err := f.engine.CreateTask(task.Task{Title: "Write brief", ProjectID: "9"})
	require.NoError(t, err)
	f.store.InsertTask(task.Task{ID: "42", Title: "Write brief", ProjectID: "9"})

	require.NoError(t, f.engine.Run(context.Background(), p))
	count := 0
	for _, tk := range f.store.Tasks() {
		require.False(t, mutate.IsTentative(tk.ID))
		if tk.ID == "42" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

// A failed create leaves no trace of the tentative task.
func TestCreateTask_RollbackOnRemoteFailure(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	before := f.store.Snapshot()
	f.backend.On("Insert", mock.Anything, remote.TableTasks, mock.Anything).
		Return(nil, &remote.StatusError{Status: 500, Message: "database unavailable"})

	p, err := f.engine.CreateTask(task.Task{Title: "Write brief", ProjectID: "9"})
	require.NoError(t, err)
	require.Len(t, f.store.Tasks(), 4)

	err = f.engine.Run(context.Background(), p)
	require.ErrorIs(t, err, mutate.ErrRemote)
	var re *mutate.RemoteError
	require.ErrorAs(t, err, &re)
	require.Equal(t, mutate.RolledBack, p.State())
	require.Equal(t, before, f.store.Snapshot())
	require.Equal(t, activity.LevelError, f.toasts.last().Level)
	require.Contains(t, f.toasts.last().Message, "database unavailable")
}

func TestUpdateTask_RollbackRestoresFields(t *testing.T) {
	f := setup(t, perm.RoleMember)
	before := f.store.Snapshot()
	f.backend.On("Update", mock.Anything, remote.TableTasks, "2", mock.Anything).Return(nil, errors.New("offline"))

	p, err := f.engine.UpdateTask("2", task.Patch{Title: patch.Ptr("Design v2"), Priority: patch.Ptr(task.PriorityHigh)})
	require.NoError(t, err)
	got, _ := f.store.Task("2")
	require.Equal(t, "Design v2", got.Title)

	require.Error(t, f.engine.Run(context.Background(), p))
	require.Equal(t, before, f.store.Snapshot())
}

func TestDeleteTask_RollbackRestoresIndex(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.store.Selection().Set(view.KindTasks, "2", true)
	f.store.Selection().Set(view.KindTasks, "3", true)
	before := f.store.Snapshot()
	f.backend.On("Delete", mock.Anything, remote.TableTasks, "2").Return(errors.New("offline"))

	p, err := f.engine.DeleteTask("2")
	require.NoError(t, err)
	_, ok := f.store.Task("2")
	require.False(t, ok)

	require.False(t, f.store.Selection().Has(view.KindTasks, "2"))

	require.Error(t, f.engine.Run(context.Background(), p))
	require.Equal(t, before, f.store.Snapshot())
	require.Equal(t, "2", f.store.Tasks()[1].ID)
	require.True(t, f.store.Selection().Has(view.KindTasks, "2"))
}

func TestDeleteRollbackRestoresSelection(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.store.Selection().Set(view.KindProjects, "9", true)
	f.store.Selection().Set(view.KindClients, "c2", true)
	before := f.store.Snapshot()
	f.backend.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("offline"))

	p, err := f.engine.DeleteProject("9")
	require.NoError(t, err)
	require.Error(t, f.engine.Run(context.Background(), p))

	p, err = f.engine.DeleteClient("c2")
	require.NoError(t, err)
	require.Error(t, f.engine.Run(context.Background(), p))

	// An unselected entity stays unselected.
	p, err = f.engine.DeleteClient("c1")
	require.NoError(t, err)
	require.Error(t, f.engine.Run(context.Background(), p))

	require.Equal(t, before, f.store.Snapshot())
}

func TestDeleteProject_LeavesTasks(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.backend.On("Delete", mock.Anything, remote.TableProjects, "9").Return(nil)

	p, err := f.engine.DeleteProject("9")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	require.Len(t, f.store.TasksForProject("9"), 3)
	require.Equal(t, store.DeletedProject, f.store.ProjectName("9"))
}

func TestPermissionDenied_NoRemoteCall(t *testing.T) {
	f := setup(t, perm.RoleViewer)
	before := f.store.Snapshot()

	_, err := f.engine.CreateTask(task.Task{Title: "Nope", ProjectID: "9"})
	require.ErrorIs(t, err, mutate.ErrPermissionDenied)
	var denied perm.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, perm.CreateTask, denied.Action)
	require.Equal(t, before, f.store.Snapshot())
	require.Contains(t, f.toasts.last().Message, "permission")
	f.backend.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectManager_CannotDeleteProject(t *testing.T) {
	f := setup(t, perm.RoleProjectManager)
	_, err := f.engine.DeleteProject("9")
	require.ErrorIs(t, err, mutate.ErrPermissionDenied)
	_, ok := f.store.Project("9")
	require.True(t, ok)
}

func TestValidation_BlocksBeforeApply(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	before := f.store.Snapshot()

	_, err := f.engine.CreateProject(project.Project{Name: "  "})
	require.ErrorIs(t, err, mutate.ErrValidation)
	require.ErrorIs(t, err, project.ErrInvalidInput)
	require.Equal(t, before, f.store.Snapshot())
	require.Equal(t, activity.LevelWarning, f.toasts.last().Level)
}

func TestCreateTask_RequiresKnownProject(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	before := f.store.Snapshot()

	_, err := f.engine.CreateTask(task.Task{Title: "Ghost", ProjectID: "does-not-exist"})
	require.ErrorIs(t, err, mutate.ErrValidation)
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	require.Equal(t, before, f.store.Snapshot())
	require.False(t, f.engine.Busy("create:task"))
	f.backend.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTask_RejectsTentativeProject(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	pp, err := f.engine.CreateProject(project.Project{Name: "Launch"})
	require.NoError(t, err)
	var tentative string
	for _, pr := range f.store.Projects() {
		if mutate.IsTentative(pr.ID) {
			tentative = pr.ID
		}
	}
	require.NotEmpty(t, tentative)

	_, err = f.engine.CreateTask(task.Task{Title: "Plan", ProjectID: tentative})
	require.ErrorIs(t, err, project.ErrProjectUnconfirmed)
	require.Len(t, f.store.TasksForProject(tentative), 0)
	require.Equal(t, mutate.Submitting, pp.State())
}

func TestUpdateTask_MoveRequiresKnownProject(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	before := f.store.Snapshot()

	_, err := f.engine.UpdateTask("2", task.Patch{ProjectID: patch.Ptr("404")})
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	require.Equal(t, before, f.store.Snapshot())
	f.backend.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInFlight_SecondSubmissionRejected(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.backend.On("Update", mock.Anything, remote.TableTasks, "2", mock.Anything).Return(remote.Row{"id": "2"}, nil)

	p, err := f.engine.UpdateTask("2", task.Patch{Title: patch.Ptr("A")})
	require.NoError(t, err)
	_, err = f.engine.UpdateTask("2", task.Patch{Title: patch.Ptr("B")})
	require.ErrorIs(t, err, mutate.ErrInFlight)

	require.NoError(t, f.engine.Run(context.Background(), p))
	got, _ := f.store.Task("2")
	require.Equal(t, "A", got.Title)

	_, err = f.engine.UpdateTask("2", task.Patch{Title: patch.Ptr("B")})
	require.NoError(t, err)
}

func TestNotFoundLocally(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	_, err := f.engine.UpdateTask("404", task.Patch{Title: patch.Ptr("x")})
	require.ErrorIs(t, err, mutate.ErrNotFoundLocally)
	require.False(t, f.engine.Busy("edit:task:404"))
}

func TestSetTaskStatus_BlockedCannotComplete(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	_, err := f.engine.SetTaskStatus("3", "Completed")
	require.ErrorIs(t, err, mutate.ErrValidation)

	f.backend.On("Update", mock.Anything, remote.TableTasks, "3", mock.Anything).Return(remote.Row{"id": "3"}, nil)
	p, err := f.engine.SetTaskStatus("3", "in progress")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	got, _ := f.store.Task("3")
	require.Equal(t, task.StatusInProgress, got.Status)
	require.Equal(t, activity.KindStatusChanged, f.store.Activities()[0].Kind)
}

func TestTimer_StartStop(t *testing.T) {
	f := setup(t, perm.RoleMember)
	f.backend.On("Update", mock.Anything, remote.TableTasks, "2", mock.Anything).Return(remote.Row{"id": "2"}, nil)

	p, err := f.engine.StartTimer("2")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	got, _ := f.store.Task("2")
	require.True(t, got.Running())

	_, err = f.engine.StartTimer("2")
	require.ErrorIs(t, err, task.ErrTimerRunning)

	p, err = f.engine.StopTimer("2")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	got, _ = f.store.Task("2")
	require.False(t, got.Running())
}

func TestAddBlocker_RejectsCycle(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	_, err := f.engine.AddBlocker("2", "3")
	require.ErrorIs(t, err, mutate.ErrValidation)

	f.backend.On("Update", mock.Anything, remote.TableTasks, "1", mock.Anything).Return(remote.Row{"id": "1"}, nil)
	p, err := f.engine.AddBlocker("1", "2")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	require.True(t, f.store.Blocked("1"))
}

func TestAssignTask_UnknownMember(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	_, err := f.engine.AssignTask("2", "ghost")
	require.ErrorIs(t, err, mutate.ErrValidation)
}

func TestSubtasks_AddToggleRemove(t *testing.T) {
	f := setup(t, perm.RoleMember)
	f.backend.On("Insert", mock.Anything, remote.TableSubtasks, mock.Anything).
		Return(remote.Row{"id": "s2", "task_id": "1", "title": "Review", "position": 1}, nil)
	f.backend.On("Update", mock.Anything, remote.TableSubtasks, "s2", remote.Row{"completed": true}).Return(remote.Row{"id": "s2"}, nil)
	f.backend.On("Delete", mock.Anything, remote.TableSubtasks, "s1").Return(errors.New("offline"))

	p, err := f.engine.AddSubtask("1", "Review")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	got, _ := f.store.Task("1")
	require.Len(t, got.Subtasks, 2)
	require.Equal(t, "s2", got.Subtasks[1].ID)

	p, err = f.engine.ToggleSubtask("s2")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	sub, _ := f.store.FindSubtask("s2")
	require.True(t, sub.Completed)

	before := f.store.Snapshot()
	p, err = f.engine.RemoveSubtask("s1")
	require.NoError(t, err)
	require.Error(t, f.engine.Run(context.Background(), p))
	require.Equal(t, before, f.store.Snapshot())
}

func TestUpdateMember_SelfWithoutRoleChange(t *testing.T) {
	f := setup(t, perm.RoleMember)
	f.backend.On("Update", mock.Anything, remote.TableProfiles, "u1", mock.Anything).
		Return(remote.Row{"id": "u1", "bio": "Writes things"}, nil)

	p, err := f.engine.UpdateMember("u1", team.Patch{Bio: patch.Ptr("Writes things")})
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	require.Equal(t, "Writes things", f.store.CurrentUser().Bio)

	role := perm.RoleAdmin
	_, err = f.engine.UpdateMember("u1", team.Patch{Role: &role})
	require.ErrorIs(t, err, mutate.ErrPermissionDenied)
	_, err = f.engine.UpdateMember("u2", team.Patch{Bio: patch.Ptr("x")})
	require.ErrorIs(t, err, mutate.ErrPermissionDenied)
}

func TestComments_AddAndDelete(t *testing.T) {
	f := setup(t, perm.RoleMember)
	f.backend.On("Insert", mock.Anything, remote.TableComments, mock.Anything).
		Return(remote.Row{"id": float64(7), "entity_type": "task", "entity_id": "2", "author_id": "u1", "text": "Looks good"}, nil)
	f.backend.On("Delete", mock.Anything, remote.TableComments, "7").Return(nil)

	p, err := f.engine.AddComment(comment.EntityTask, "2", " Looks good ")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	require.Len(t, f.store.CommentsOn(comment.EntityTask, "2"), 1)
	require.Equal(t, "Commented on Design", f.store.Activities()[0].Summary)

	p, err = f.engine.DeleteComment("7")
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	require.Empty(t, f.store.Comments())
}

func TestDeleteComment_OthersNeedAdmin(t *testing.T) {
	f := setup(t, perm.RoleMember)
	f.store.InsertComment(comment.Comment{ID: "8", EntityType: comment.EntityTask, EntityID: "2", AuthorID: "u2", Text: "hi"})
	_, err := f.engine.DeleteComment("8")
	require.ErrorIs(t, err, mutate.ErrPermissionDenied)
}

func TestAttachFile_Upload(t *testing.T) {
	f := setup(t, perm.RoleMember)
	f.backend.On("Upload", mock.Anything, mock.MatchedBy(func(u remote.FileUpload) bool {
		return u.Name == "brief.pdf" && u.EntityID == "2"
	})).Return(remote.Row{"id": "f1", "name": "brief.pdf", "url": "/api/files/f1", "size": 5, "entity_type": "task", "entity_id": "2"}, nil)

	p, err := f.engine.AttachFile(comment.EntityTask, "2", "brief.pdf", "application/pdf", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	require.NoError(t, f.engine.Run(context.Background(), p))
	files := f.store.FilesOn(comment.EntityTask, "2")
	require.Len(t, files, 1)
	require.Equal(t, "/api/files/f1", files[0].URL)
}

func TestBulkDelete_PartialFailure(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	f.store.Selection().SelectAll(view.KindClients, []string{"c1", "c2"})
	f.backend.On("Delete", mock.Anything, remote.TableClients, "c1").Return(nil)
	f.backend.On("Delete", mock.Anything, remote.TableClients, "c2").Return(errors.New("locked"))

	p, err := f.engine.BulkDelete(view.KindClients)
	require.NoError(t, err)
	require.Empty(t, f.store.Clients())

	err = f.engine.Run(context.Background(), p)
	require.ErrorIs(t, err, mutate.ErrRemote)
	clients := f.store.Clients()
	require.Len(t, clients, 1)
	require.Equal(t, "c2", clients[0].ID)
	require.Equal(t, []string{"c2"}, f.store.Selection().IDs(view.KindClients))
	require.Equal(t, "Deleted 1 clients", f.store.Activities()[0].Summary)
}

func TestBulkDelete_EmptySelection(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	_, err := f.engine.BulkDelete(view.KindTasks)
	require.ErrorIs(t, err, mutate.ErrNothingSelected)
	require.False(t, f.engine.Busy("bulk:tasks"))
}

func TestCall_RecoversBackendPanic(t *testing.T) {
	f := setup(t, perm.RoleAdmin)
	before := f.store.Snapshot()
	f.backend.On("Delete", mock.Anything, remote.TableTasks, "1").Run(func(mock.Arguments) { panic("boom") })

	p, err := f.engine.DeleteTask("1")
	require.NoError(t, err)
	res := p.Call(context.Background())
	require.ErrorContains(t, res.Err, "boom")
	require.Error(t, f.engine.Settle(p, res))
	require.Equal(t, before, f.store.Snapshot())
}
