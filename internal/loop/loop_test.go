package loop_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

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
	"github.com/rpggio/syncteam/internal/view"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type harness struct {
	loop    *loop.Loop
	source  *realtime.ChanSource
	backend *mocks.Backend
	cancel  context.CancelFunc
	stopped chan error

	mu    sync.Mutex
	dirty []view.Kind
}

func start(t *testing.T) *harness {
	t.Helper()
	s := store.New()
	s.ReplaceProjects([]project.Project{{ID: "9", Name: "Website", Status: project.StatusActive}})
	s.ReplaceTasks([]task.Task{{ID: "1", Title: "Copy", ProjectID: "9", Status: task.StatusToDo}})
	me := team.Member{ID: "u1", Name: "Ada", Role: perm.RoleAdmin}
	s.ReplaceMembers([]team.Member{me})
	s.SetCurrentUser(me)
	s.Mount(view.KindTasks)

	h := &harness{source: realtime.NewChanSource(8), backend: &mocks.Backend{}, stopped: make(chan error, 1)}
	engine := mutate.NewEngine(s, h.backend, nil, nil)
	h.loop = loop.New(engine, realtime.NewReconciler(s, nil), nil,
		loop.WithSource(h.source),
		loop.WithOnChange(func(kinds []view.Kind) {
			h.mu.Lock()
			h.dirty = append(h.dirty, kinds...)
			h.mu.Unlock()
		}),
	)
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.stopped <- h.loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.stopped
	})
	return h
}

func (h *harness) task(t *testing.T, id string) (task.Task, bool) {
	t.Helper()
	var (
		got task.Task
		ok  bool
	)
	require.NoError(t, h.loop.Do(context.Background(), func(s *store.Store) error {
		got, ok = s.Task(id)
		return nil
	}))
	return got, ok
}

func TestLoop_AppliesRealtimeEvents(t *testing.T) {
	h := start(t)
	h.source.Send(realtime.Event{Table: remote.TableTasks, Type: realtime.Update, New: remote.Row{"id": "1", "status": "Completed"}})

	require.Eventually(t, func() bool {
		got, _ := h.task(t, "1")
		return got.Status == task.StatusCompleted
	}, time.Second, 10*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Contains(t, h.dirty, view.KindTasks)
}

func TestLoop_MutateSettlesOnLoop(t *testing.T) {
	h := start(t)
	h.backend.On("Update", mock.Anything, remote.TableTasks, "1", mock.Anything).Return(remote.Row{"id": "1", "title": "Copywriting"}, nil)

	err := h.loop.Mutate(context.Background(), func(e *mutate.Engine) (*mutate.Pending, error) {
		return e.SetTaskStatus("1", "In Progress")
	})
	require.NoError(t, err)

	got, _ := h.task(t, "1")
	require.Equal(t, task.StatusInProgress, got.Status)
	require.Equal(t, "Copywriting", got.Title)
}

func TestLoop_MutateRollsBack(t *testing.T) {
	h := start(t)
	h.backend.On("Delete", mock.Anything, remote.TableTasks, "1").Return(errors.New("offline"))

	err := h.loop.Mutate(context.Background(), func(e *mutate.Engine) (*mutate.Pending, error) {
		return e.DeleteTask("1")
	})
	require.ErrorIs(t, err, mutate.ErrRemote)
	_, ok := h.task(t, "1")
	require.True(t, ok)
}

func TestLoop_PrepareErrorReturnsImmediately(t *testing.T) {
	h := start(t)
	err := h.loop.Mutate(context.Background(), func(e *mutate.Engine) (*mutate.Pending, error) {
		return e.UpdateTask("404", task.Patch{})
	})
	require.ErrorIs(t, err, mutate.ErrNotFoundLocally)
	h.backend.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoop_DoAfterStop(t *testing.T) {
	h := start(t)
	h.cancel()
	require.ErrorIs(t, <-h.stopped, context.Canceled)
	h.stopped <- nil

	err := h.loop.Do(context.Background(), func(*store.Store) error { return nil })
	require.ErrorIs(t, err, loop.ErrStopped)
}

func TestLoop_PostSurvivesPanic(t *testing.T) {
	h := start(t)
	h.loop.Post(func(*store.Store) { panic("bad action") })

	_, ok := h.task(t, "1")
	require.True(t, ok)
}

func TestLoop_MutateSkipsPrepareAfterDeadline(t *testing.T) {
	h := start(t)
	h.backend.On("Insert", mock.Anything, remote.TableTasks, mock.Anything).Return(remote.Row{"id": "2", "title": "Build", "project_id": "9"}, nil)

	release := make(chan struct{})
	h.loop.Post(func(*store.Store) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	errs := make(chan error, 1)
	go func() {
		errs <- h.loop.Mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) {
			return e.CreateTask(task.Task{Title: "Build", ProjectID: "9"})
		})
	}()
	<-ctx.Done()
	close(release)
	require.ErrorIs(t, <-errs, context.DeadlineExceeded)

	var ids []string
	require.NoError(t, h.loop.Do(context.Background(), func(s *store.Store) error {
		for _, tk := range s.Tasks() {
			ids = append(ids, tk.ID)
		}
		return nil
	}))
	require.Equal(t, []string{"1"}, ids, "no tentative task left behind")
	h.backend.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)

	err := h.loop.Mutate(context.Background(), func(e *mutate.Engine) (*mutate.Pending, error) {
		return e.CreateTask(task.Task{Title: "Build", ProjectID: "9"})
	})
	require.NoError(t, err, "control key released")
	_, ok := h.task(t, "2")
	require.True(t, ok)
}
