package perm_test

import (
	"errors"
	"testing"

	"github.com/rpggio/syncteam/internal/perm"
	"github.com/stretchr/testify/require"
)

func TestCheck_Matrix(t *testing.T) {
	require.True(t, perm.Check(perm.RoleAdmin, perm.DeleteProject), "wildcard grants everything")
	require.True(t, perm.Check(perm.RoleAdmin, perm.Action("anything:else")))

	require.True(t, perm.Check(perm.RoleProjectManager, perm.CreateProject))
	require.True(t, perm.Check(perm.RoleProjectManager, perm.ExportData))
	require.False(t, perm.Check(perm.RoleProjectManager, perm.DeleteProject))

	require.True(t, perm.Check(perm.RoleMember, perm.CreateTask))
	require.True(t, perm.Check(perm.RoleMember, perm.Comment))
	require.False(t, perm.Check(perm.RoleMember, perm.DeleteTask))

	require.True(t, perm.Check(perm.RoleViewer, perm.View))
	require.False(t, perm.Check(perm.RoleViewer, perm.CreateTask))

	require.False(t, perm.Check("Guest", perm.View))
}

func TestRequire(t *testing.T) {
	require.NoError(t, perm.Require(perm.RoleMember, perm.EditTask))

	err := perm.Require(perm.RoleViewer, perm.EditTask)
	var denied perm.DeniedError
	require.True(t, errors.As(err, &denied))
	require.Equal(t, perm.EditTask, denied.Action)
}

func TestPermissions_ReturnsCopy(t *testing.T) {
	p := perm.Permissions(perm.RoleMember)
	p[0] = perm.Wildcard
	require.False(t, perm.Check(perm.RoleMember, perm.DeleteProject))
}

func TestParseRole(t *testing.T) {
	r, ok := perm.ParseRole("project manager")
	require.True(t, ok)
	require.Equal(t, perm.RoleProjectManager, r)

	r, ok = perm.ParseRole("user")
	require.True(t, ok)
	require.Equal(t, perm.RoleMember, r)

	_, ok = perm.ParseRole("owner")
	require.False(t, ok)
}

func TestForTable(t *testing.T) {
	cases := []struct {
		table, verb string
		want        perm.Action
	}{
		{"projects", "create", perm.CreateProject},
		{"projects", "delete", perm.DeleteProject},
		{"tasks", "edit", perm.EditTask},
		{"subtasks", "create", perm.EditTask},
		{"files", "delete", perm.EditTask},
		{"clients", "delete", perm.DeleteClient},
		{"profiles", "edit", perm.ManageTeam},
		{"comments", "create", perm.Comment},
	}
	for _, tc := range cases {
		got, ok := perm.ForTable(tc.table, tc.verb)
		require.True(t, ok, tc.table)
		require.Equal(t, tc.want, got, tc.table+" "+tc.verb)
	}
	_, ok := perm.ForTable("secrets", "create")
	require.False(t, ok)
}
