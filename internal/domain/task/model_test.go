package task_test

import (
	"testing"
	"time"

	"github.com/rpggio/syncteam/internal/domain/patch"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/stretchr/testify/require"
)

func TestParseStatus_NormalisesLegacyLabels(t *testing.T) {
	cases := map[string]task.Status{
		"To Do":       task.StatusToDo,
		"to do":       task.StatusToDo,
		"Pending":     task.StatusToDo,
		"in_progress": task.StatusInProgress,
		"In Progress": task.StatusInProgress,
		"Done":        task.StatusCompleted,
		"completed":   task.StatusCompleted,
	}
	for in, want := range cases {
		got, ok := task.ParseStatus(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	_, ok := task.ParseStatus("blocked")
	require.False(t, ok)
}

func TestTask_ApplyKeepsSubtasksWhenAbsent(t *testing.T) {
	tk := task.Task{
		ID:       "1",
		Title:    "Wireframes",
		Status:   task.StatusToDo,
		Subtasks: []task.Subtask{{ID: "s1", TaskID: "1", Title: "Header"}},
	}

	pt := task.Patch{Status: patch.Ptr(task.StatusInProgress), Title: patch.Ptr("Wireframes v2")}
	require.True(t, tk.Apply(pt))
	require.Len(t, tk.Subtasks, 1)
	require.Equal(t, "Wireframes v2", tk.Title)

	require.False(t, tk.Apply(pt), "identical patch must report no change")
}

func TestTask_CloneIsIndependent(t *testing.T) {
	tk := task.Task{ID: "1", BlockedBy: []string{"2"}, Subtasks: []task.Subtask{{ID: "s1"}}}
	cp := tk.Clone()
	cp.BlockedBy[0] = "3"
	cp.Subtasks[0].Title = "changed"
	require.Equal(t, "2", tk.BlockedBy[0])
	require.Empty(t, tk.Subtasks[0].Title)
}

func TestTask_Overdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.True(t, task.Task{DueDate: "2025-03-09", Status: task.StatusToDo}.Overdue(now))
	require.False(t, task.Task{DueDate: "2025-03-10", Status: task.StatusToDo}.Overdue(now))
	require.False(t, task.Task{DueDate: "2025-03-01", Status: task.StatusCompleted}.Overdue(now))
	require.False(t, task.Task{Status: task.StatusToDo}.Overdue(now))
}

func TestTimer_WallClock(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tk := task.Task{ID: "1", TimeSpent: 60}

	pt, err := tk.StartTimer(start)
	require.NoError(t, err)
	tk.Apply(pt)
	require.True(t, tk.Running())

	_, err = tk.StartTimer(start)
	require.ErrorIs(t, err, task.ErrTimerRunning)

	// A suspended process that resumes much later still reports the full interval.
	later := start.Add(2 * time.Hour)
	require.Equal(t, 2*time.Hour+time.Minute, tk.Elapsed(later))

	pt, err = tk.StopTimer(later)
	require.NoError(t, err)
	tk.Apply(pt)
	require.False(t, tk.Running())
	require.Equal(t, int64(7260), tk.TimeSpent)

	_, err = tk.StopTimer(later)
	require.ErrorIs(t, err, task.ErrTimerStopped)
}

func TestSubtasks_Splice(t *testing.T) {
	tk := task.Task{ID: "1"}
	require.True(t, tk.UpsertSubtask(task.Subtask{ID: "b", TaskID: "1", Title: "B", Position: 2}))
	require.True(t, tk.UpsertSubtask(task.Subtask{ID: "a", TaskID: "1", Title: "A", Position: 1}))
	require.Equal(t, "a", tk.Subtasks[0].ID)

	require.False(t, tk.UpsertSubtask(task.Subtask{ID: "a", TaskID: "1", Title: "A", Position: 1}))
	require.True(t, tk.UpsertSubtask(task.Subtask{ID: "a", TaskID: "1", Title: "A", Position: 1, Completed: true}))

	done, total := tk.SubtaskProgress()
	require.Equal(t, 1, done)
	require.Equal(t, 2, total)

	require.True(t, tk.RemoveSubtask("a"))
	require.False(t, tk.RemoveSubtask("a"))
	require.Len(t, tk.Subtasks, 1)
}

func TestDependencies(t *testing.T) {
	tasks := map[string]task.Task{
		"1": {ID: "1", Status: task.StatusToDo},
		"2": {ID: "2", Status: task.StatusCompleted},
		"3": {ID: "3", Status: task.StatusToDo, BlockedBy: []string{"1"}},
	}
	lookup := func(id string) (task.Task, bool) {
		tk, ok := tasks[id]
		return tk, ok
	}

	require.True(t, tasks["3"].Blocked(lookup))
	require.False(t, task.Task{BlockedBy: []string{"2"}}.Blocked(lookup))
	require.False(t, task.Task{BlockedBy: []string{"missing"}}.Blocked(lookup))

	_, err := tasks["1"].AddBlocker("3", lookup)
	require.ErrorIs(t, err, task.ErrInvalidInput, "cycle 1 -> 3 -> 1")

	_, err = tasks["1"].AddBlocker("1", lookup)
	require.ErrorIs(t, err, task.ErrInvalidInput)

	_, err = tasks["1"].AddBlocker("nope", lookup)
	require.ErrorIs(t, err, task.ErrTaskNotFound)

	blockers, err := tasks["1"].AddBlocker("2", lookup)
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, blockers)

	require.Empty(t, tasks["3"].RemoveBlocker("1"))
}

func TestValidate(t *testing.T) {
	ok := task.Task{Title: "Write copy", ProjectID: "p1", Priority: task.PriorityHigh, Status: task.StatusToDo, DueDate: "2025-04-01"}
	require.NoError(t, task.Validate(ok))

	noProject := ok
	noProject.ProjectID = ""
	require.ErrorIs(t, task.Validate(noProject), task.ErrInvalidInput)

	badDate := ok
	badDate.DueDate = "04/01/2025"
	require.ErrorIs(t, task.Validate(badDate), task.ErrInvalidInput)

	badPriority := ok
	badPriority.Priority = "Urgent"
	require.ErrorIs(t, task.Validate(badPriority), task.ErrInvalidInput)

	require.ErrorIs(t, task.ValidatePatch(task.Patch{Subtasks: &[]task.Subtask{{ID: "x"}}}), task.ErrInvalidInput)
}
