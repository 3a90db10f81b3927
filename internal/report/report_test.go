package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/report"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func seeded(role perm.Role) *store.Store {
	s := store.New(store.WithClock(func() time.Time { return now }))
	s.ReplaceProjects([]project.Project{
		{ID: "9", Name: "Website", Status: project.StatusActive, ClientID: "c1", Budget: 1200},
		{ID: "10", Name: "Mobile", Status: project.StatusCompleted},
	})
	s.ReplaceTasks([]task.Task{
		{ID: "1", Title: "Copy", ProjectID: "9", Status: task.StatusCompleted, TimeSpent: 60},
		{ID: "2", Title: "Design", ProjectID: "9", Status: task.StatusToDo, DueDate: "2025-04-01", AssigneeID: "u1"},
		{ID: "3", Title: "Deploy", ProjectID: "404", Status: task.StatusInProgress, DueDate: "2025-06-01",
			TimeSpent: 30, TimerStartedAt: now.Add(-time.Minute)},
	})
	s.ReplaceClients([]client.Client{{ID: "c1", Name: "Acme"}})
	me := team.Member{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: role}
	s.ReplaceMembers([]team.Member{me})
	s.SetCurrentUser(me)
	return s
}

func TestCompute(t *testing.T) {
	st := report.Compute(seeded(perm.RoleAdmin), now)

	require.Equal(t, 2, st.TotalProjects)
	require.Equal(t, 1, st.CompletedProjects)
	require.Equal(t, 2, st.ActiveTasks)
	require.Equal(t, 1, st.OverdueTasks)
	require.Equal(t, "2", st.Overdue[0].ID)
	require.Equal(t, 1, st.TeamMembers)
	require.Equal(t, 1, st.Clients)
	require.Equal(t, 25, st.AverageProgress)
	require.Equal(t, int64(150), st.TrackedSeconds)
	require.Equal(t, []report.StatusCount{
		{Status: project.StatusActive, Count: 1},
		{Status: project.StatusOnHold, Count: 0},
		{Status: project.StatusCompleted, Count: 1},
	}, st.ProjectStatus)
	require.Len(t, st.RecentProjects, 2)
	require.Equal(t, 50, st.RecentProjects[0].Progress)
}

func TestCompute_Empty(t *testing.T) {
	st := report.Compute(store.New(), now)
	require.Zero(t, st.AverageProgress)
	require.Empty(t, st.Overdue)
}

func TestExport_Tasks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Export(&buf, seeded(perm.RoleProjectManager), view.KindTasks))

	want := "id,title,project,assignee,priority,status,due_date,time_spent\n" +
		"1,Copy,Website,Unassigned,,Completed,,60\n" +
		"2,Design,Website,Ada,,To Do,2025-04-01,0\n" +
		"3,Deploy,Deleted Project,Unassigned,,In Progress,2025-06-01,90\n"
	require.Equal(t, want, buf.String())
}

func TestExport_ProjectsResolveClient(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Export(&buf, seeded(perm.RoleAdmin), view.KindProjects))
	require.Contains(t, buf.String(), "9,Website,Acme,Active,,,1200.00,50\n")
	require.Contains(t, buf.String(), "10,Mobile,N/A,Completed,,,0.00,0\n")
}

func TestExport_RequiresPermission(t *testing.T) {
	var buf bytes.Buffer
	err := report.Export(&buf, seeded(perm.RoleMember), view.KindTasks)
	var denied perm.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Empty(t, buf.String())
}
