package project_test

import (
	"testing"

	"github.com/rpggio/syncteam/internal/domain/patch"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]project.Status{
		"Active":    project.StatusActive,
		"on hold":   project.StatusOnHold,
		"ON_HOLD":   project.StatusOnHold,
		"completed": project.StatusCompleted,
		"Done":      project.StatusCompleted,
	}
	for in, want := range cases {
		got, ok := project.ParseStatus(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	_, ok := project.ParseStatus("archived")
	require.False(t, ok)
}

func TestProject_ApplyPreservesAbsentFields(t *testing.T) {
	p := project.Project{ID: "1", Name: "Site", Budget: 1200, Status: project.StatusActive}
	changed := p.Apply(project.Patch{Status: patch.Ptr(project.StatusOnHold)})
	require.True(t, changed)
	require.Equal(t, "Site", p.Name)
	require.Equal(t, 1200.0, p.Budget)
	require.Equal(t, project.StatusOnHold, p.Status)

	require.False(t, p.Apply(project.Patch{Status: patch.Ptr(project.StatusOnHold)}))
}

func TestValidate(t *testing.T) {
	ok := project.Project{Name: "Site", Status: project.StatusActive, StartDate: "2025-01-01", EndDate: "2025-02-01"}
	require.NoError(t, project.Validate(ok))

	missing := ok
	missing.Name = " "
	require.ErrorIs(t, project.Validate(missing), project.ErrInvalidInput)

	negative := ok
	negative.Budget = -1
	require.ErrorIs(t, project.Validate(negative), project.ErrInvalidInput)

	backwards := ok
	backwards.EndDate = "2024-12-01"
	require.ErrorIs(t, project.Validate(backwards), project.ErrInvalidInput)

	require.ErrorIs(t, project.ValidatePatch(project.Patch{Budget: patch.Ptr(-5.0)}), project.ErrInvalidInput)
	require.NoError(t, project.ValidatePatch(project.Patch{Name: patch.Ptr("Renamed")}))
}

func TestProgress(t *testing.T) {
	tasks := []project.TaskState{
		{ProjectID: "p1", Completed: true},
		{ProjectID: "p1", Completed: false},
		{ProjectID: "p1", Completed: false},
		{ProjectID: "p2", Completed: true},
	}
	require.Equal(t, 33, project.Progress("p1", tasks))
	require.Equal(t, 100, project.Progress("p2", tasks))
	require.Equal(t, 0, project.Progress("p3", tasks))

	for n := 1; n <= 7; n++ {
		var ts []project.TaskState
		for i := 0; i < n; i++ {
			ts = append(ts, project.TaskState{ProjectID: "p", Completed: i%2 == 0})
		}
		got := project.Progress("p", ts)
		require.GreaterOrEqual(t, got, 0)
		require.LessOrEqual(t, got, 100)
	}
}
