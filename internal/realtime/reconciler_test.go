package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/realtime"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
	"github.com/stretchr/testify/require"
)

func seeded() *store.Store {
	s := store.New()
	s.ReplaceProjects([]project.Project{{ID: "9", Name: "Website", Status: project.StatusActive}})
	s.ReplaceTasks([]task.Task{
		{ID: "1", Title: "Copy", ProjectID: "9", Status: task.StatusToDo, Subtasks: []task.Subtask{{ID: "s1", TaskID: "1", Title: "Draft"}}},
		{ID: "2", Title: "Design", ProjectID: "9", Status: task.StatusToDo},
		{ID: "3", Title: "Deploy", ProjectID: "9", Status: task.StatusToDo},
	})
	s.ReplaceMembers([]team.Member{{ID: "u1", Name: "Ada", Role: perm.RoleAdmin}})
	return s
}

func TestApply_UpdateIdempotent(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil)
	ev := realtime.Event{Table: "tasks", Type: realtime.Update, New: remote.Row{"id": float64(1), "status": "In Progress"}}

	first := r.Apply(ev)
	require.NoError(t, first.Err)
	require.True(t, first.Changed)
	once := s.Snapshot()

	second := r.Apply(ev)
	require.NoError(t, second.Err)
	require.False(t, second.Changed)
	require.Equal(t, once, s.Snapshot())
}

func TestApply_UpdateKeepsHydratedSubtasks(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil)
	r.Apply(realtime.Event{Table: "tasks", Type: realtime.Update, New: remote.Row{"id": "1", "title": "Copywriting"}})

	got, _ := s.Task("1")
	require.Equal(t, "Copywriting", got.Title)
	require.Len(t, got.Subtasks, 1)
}

func TestApply_UpdateUnknownIsNoop(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil)
	before := s.Snapshot()

	out := r.Apply(realtime.Event{Table: "tasks", Type: realtime.Update, New: remote.Row{"id": "404", "title": "x"}})
	require.ErrorIs(t, out.Err, realtime.ErrNotFoundLocally)
	require.Equal(t, before, s.Snapshot())
}

func TestApply_DuplicateInsert(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil)
	ev := realtime.Event{Table: "tasks", Type: realtime.Insert, New: remote.Row{"id": float64(57), "title": "Launch", "project_id": "9", "status": "To Do"}}

	require.True(t, r.Apply(ev).Changed)
	require.False(t, r.Apply(ev).Changed)

	count := 0
	for _, tk := range s.Tasks() {
		if tk.ID == "57" {
			count++
		}
	}
	require.Equal(t, 1, count)
	require.Equal(t, "57", s.Tasks()[0].ID, "inserts are prepended")
	require.Len(t, s.Notifications(), 1, "one notification for the first delivery only")
}

func TestApply_InsertForPresentIDIsNoop(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil)
	before := s.Snapshot()

	out := r.Apply(realtime.Event{Table: "projects", Type: realtime.Insert, New: remote.Row{"id": "9", "name": "Other"}})
	require.NoError(t, out.Err)
	require.False(t, out.Changed)
	require.Equal(t, before, s.Snapshot())
}

func TestApply_DeleteProjectOrphansTasks(t *testing.T) {
	s := seeded()
	s.Selection().SelectAll(view.KindTasks, []string{"1", "2", "3"})
	s.Selection().Set(view.KindProjects, "9", true)
	r := realtime.NewReconciler(s, nil)

	out := r.Apply(realtime.Event{Table: "projects", Type: realtime.Delete, Old: remote.Row{"id": float64(9)}})
	require.True(t, out.Changed)

	_, ok := s.Project("9")
	require.False(t, ok)
	require.False(t, s.Selection().Has(view.KindProjects, "9"))
	require.Equal(t, []string{"1", "2", "3"}, s.Selection().IDs(view.KindTasks))
	for _, tk := range s.Tasks() {
		require.Equal(t, "9", tk.ProjectID)
		require.Equal(t, store.DeletedProject, s.ProjectName(tk.ProjectID))
	}

	require.False(t, r.Apply(realtime.Event{Table: "projects", Type: realtime.Delete, Old: remote.Row{"id": "9"}}).Changed)
}

func TestApply_DeletePrunesSelection(t *testing.T) {
	s := seeded()
	s.Selection().Set(view.KindTasks, "2", true)
	r := realtime.NewReconciler(s, nil)

	r.Apply(realtime.Event{Table: "tasks", Type: realtime.Delete, Old: remote.Row{"id": "2"}})
	require.False(t, s.Selection().Has(view.KindTasks, "2"))
}

func TestApply_Subtasks(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil)

	out := r.Apply(realtime.Event{Table: "subtasks", Type: realtime.Insert, New: remote.Row{"id": "s2", "task_id": float64(1), "title": "Review", "position": 1}})
	require.NoError(t, out.Err)
	require.True(t, out.Changed)
	got, _ := s.Task("1")
	require.Len(t, got.Subtasks, 2)

	// Partial update without task_id locates the owner from local state.
	out = r.Apply(realtime.Event{Table: "subtasks", Type: realtime.Update, New: remote.Row{"id": "s2", "completed": true}})
	require.NoError(t, out.Err)
	require.True(t, out.Changed)
	sub, _ := s.FindSubtask("s2")
	require.True(t, sub.Completed)
	require.Equal(t, "Review", sub.Title)

	out = r.Apply(realtime.Event{Table: "subtasks", Type: realtime.Delete, Old: remote.Row{"id": "s2"}})
	require.True(t, out.Changed)
	got, _ = s.Task("1")
	require.Len(t, got.Subtasks, 1)
	require.Empty(t, s.Notifications())
}

func TestApply_SubtaskWithoutOwnerDropped(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil)
	before := s.Snapshot()

	out := r.Apply(realtime.Event{Table: "subtasks", Type: realtime.Insert, New: remote.Row{"id": "s9", "task_id": "404", "title": "Orphan"}})
	require.ErrorIs(t, out.Err, realtime.ErrReconciliationConflict)
	require.Equal(t, before, s.Snapshot())
}

func TestApply_InterleavedTables(t *testing.T) {
	s := seeded()
	r := realtime.NewReconciler(s, nil, realtime.WithoutNotifications())
	events := []realtime.Event{
		{Table: "tasks", Type: realtime.Insert, New: remote.Row{"id": "4", "title": "QA", "project_id": "10"}},
		{Table: "projects", Type: realtime.Insert, New: remote.Row{"id": "10", "name": "Mobile", "status": "Active"}},
		{Table: "profiles", Type: realtime.Update, New: remote.Row{"id": "u1", "role": "Viewer"}},
		{Table: "clients", Type: realtime.Insert, New: remote.Row{"id": "c1", "name": "Acme"}},
		{Table: "comments", Type: realtime.Insert, New: remote.Row{"id": "m1", "entity_type": "task", "entity_id": "4", "author_id": "u1", "text": "ok"}},
		{Table: "files", Type: realtime.Insert, New: remote.Row{"id": "f1", "name": "a.pdf", "entity_type": "task", "entity_id": "4"}},
		{Table: "files", Type: realtime.Update, New: remote.Row{"id": "f1", "url": "/api/files/f1"}},
		{Table: "tasks", Type: realtime.Update, New: remote.Row{"id": "4", "status": "Completed"}},
	}
	for _, ev := range events {
		require.NoError(t, r.Apply(ev).Err, ev.Table)
	}
	require.Equal(t, 100, s.ProjectProgress("10"))
	m, _ := s.Member("u1")
	require.Equal(t, perm.RoleViewer, m.Role)
	require.Len(t, s.CommentsOn("task", "4"), 1)
	f, _ := s.File("f1")
	require.Equal(t, "a.pdf", f.Name)
	require.Equal(t, "/api/files/f1", f.URL)
	require.Empty(t, s.Notifications())
}

func TestApply_UnknownTableAndType(t *testing.T) {
	r := realtime.NewReconciler(seeded(), nil)
	require.ErrorIs(t, r.Apply(realtime.Event{Table: "invoices", Type: realtime.Insert}).Err, realtime.ErrUnknownTable)
	require.ErrorIs(t, r.Apply(realtime.Event{Table: "tasks", Type: "TRUNCATE"}).Err, realtime.ErrUnknownType)
}

func TestChanSource(t *testing.T) {
	src := realtime.NewChanSource(2)
	ch, err := src.Subscribe(context.Background())
	require.NoError(t, err)
	src.Send(realtime.Event{Table: "tasks"})
	src.Close()
	src.Close()

	ev, ok := <-ch
	require.True(t, ok)
	require.Equal(t, "tasks", ev.Table)
	_, ok = <-ch
	require.False(t, ok)
}

type postFunc func(fn func(*store.Store))

func (p postFunc) Post(fn func(*store.Store)) { p(fn) }

func TestSimulator(t *testing.T) {
	s := seeded()
	sim := realtime.NewSimulator(5*time.Millisecond, 1)
	require.True(t, sim.Tick(s, "updated", 0))
	require.Len(t, s.Activities(), 1)
	require.Contains(t, s.Activities()[0].Summary, "Ada updated")
	require.False(t, sim.Tick(store.New(), "updated", 0))

	ctx, cancel := context.WithCancel(context.Background())
	posted := make(chan func(*store.Store), 16)
	done := make(chan struct{})
	go func() {
		sim.Run(ctx, postFunc(func(fn func(*store.Store)) { posted <- fn }))
		close(done)
	}()
	fn := <-posted
	fn(s)
	cancel()
	<-done
	require.Len(t, s.Activities(), 2)
	require.Equal(t, 2, s.UnreadCount())
}
