package remote_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/syncteam/internal/domain/patch"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/stretchr/testify/require"
)

func TestDecodeTask_NumericIDsAndLegacyStatus(t *testing.T) {
	row := remote.Row{
		"id":         float64(57),
		"title":      "Launch",
		"project_id": json.Number("9"),
		"status":     "Done",
		"priority":   "high",
		"due_date":   "2025-06-01",
		"blocked_by": []any{float64(3), "4"},
		"created_at": "2025-05-01T10:00:00Z",
	}
	got, err := remote.DecodeTask(row)
	require.NoError(t, err)
	require.Equal(t, "57", got.ID)
	require.Equal(t, "9", got.ProjectID)
	require.Equal(t, task.StatusCompleted, got.Status)
	require.Equal(t, task.PriorityHigh, got.Priority)
	require.Equal(t, []string{"3", "4"}, got.BlockedBy)
	require.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), got.CreatedAt)
}

func TestTaskPatch_OnlyPresentKeys(t *testing.T) {
	p := remote.TaskPatch(remote.Row{"id": "1", "status": "in progress"})
	require.NotNil(t, p.Status)
	require.Nil(t, p.Title)
	require.Nil(t, p.Subtasks)
	require.Nil(t, p.BlockedBy)

	camel := remote.TaskPatch(remote.Row{"projectId": "9", "dueDate": "2025-01-01"})
	require.Equal(t, "9", *camel.ProjectID)
	require.Equal(t, "2025-01-01", *camel.DueDate)
}

func TestDecode_MissingID(t *testing.T) {
	_, err := remote.DecodeProject(remote.Row{"name": "x"})
	require.ErrorIs(t, err, remote.ErrMissingID)
}

func TestEncodeProjectPatch_SnakeCase(t *testing.T) {
	row := remote.EncodeProjectPatch(project.Patch{
		ClientID: patch.Ptr("c1"),
		EndDate:  patch.Ptr("2025-12-31"),
		Status:   patch.Ptr(project.StatusOnHold),
	})
	require.Equal(t, remote.Row{"client_id": "c1", "end_date": "2025-12-31", "status": "On Hold"}, row)
}

func TestEncodeTask_TimerClears(t *testing.T) {
	var zero time.Time
	row := remote.EncodeTaskPatch(task.Patch{TimerStartedAt: &zero, TimeSpent: patch.Ptr(int64(90))})
	require.Nil(t, row["timer_started_at"])
	require.Contains(t, row, "timer_started_at")
	require.Equal(t, int64(90), row["time_spent"])
}

func TestTaskRoundTrip(t *testing.T) {
	in := task.Task{
		Title:     "Ship",
		ProjectID: "9",
		Priority:  task.PriorityLow,
		Status:    task.StatusInProgress,
		BlockedBy: []string{"2"},
	}
	row := remote.EncodeTask(in)
	row["id"] = float64(12)
	out, err := remote.DecodeTask(row)
	require.NoError(t, err)
	in.ID = "12"
	require.Equal(t, in, out)
}

func TestDecodeMember_Profiles(t *testing.T) {
	m, err := remote.DecodeMember(remote.Row{"id": "u1", "full_name": "Ada", "email": "ada@example.com", "role": "manager"})
	require.NoError(t, err)
	require.Equal(t, "Ada", m.Name)
	require.Equal(t, perm.RoleProjectManager, m.Role)

	m, err = remote.DecodeMember(remote.Row{"id": "u2", "full_name": "Bob"})
	require.NoError(t, err)
	require.Equal(t, perm.RoleViewer, m.Role)
}

func TestDecodeSubtaskAndComment(t *testing.T) {
	s, err := remote.DecodeSubtask(remote.Row{"id": float64(5), "task_id": float64(57), "title": "QA", "completed": true, "position": json.Number("2")})
	require.NoError(t, err)
	require.Equal(t, task.Subtask{ID: "5", TaskID: "57", Title: "QA", Completed: true, Position: 2}, s)

	c, err := remote.DecodeComment(remote.Row{"id": "c1", "entity_type": "Task", "entity_id": "57", "user_id": "u1", "content": "hi"})
	require.NoError(t, err)
	require.Equal(t, "task", string(c.EntityType))
	require.Equal(t, "u1", c.AuthorID)
	require.Equal(t, "hi", c.Text)
}

func TestRowMerge(t *testing.T) {
	base := remote.Row{"a": 1, "b": 2}
	merged := base.Merge(remote.Row{"b": 3})
	require.Equal(t, remote.Row{"a": 1, "b": 3}, merged)
	require.Equal(t, 2, base["b"])
}
