// Package perm holds the role to permission matrix shared by the client core
// and the API server.
package perm

import (
	"fmt"
	"slices"
	"strings"
)

// Role names a position in the team role vocabulary.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleProjectManager Role = "Project Manager"
	RoleMember         Role = "Member"
	RoleViewer         Role = "Viewer"
)

// Roles lists the role vocabulary from most to least privileged.
var Roles = []Role{RoleAdmin, RoleProjectManager, RoleMember, RoleViewer}

// Action is a capability string of the form "verb:object".
type Action string

const (
	Wildcard Action = "*"

	CreateProject Action = "create:project"
	EditProject   Action = "edit:project"
	DeleteProject Action = "delete:project"
	CreateTask    Action = "create:task"
	EditTask      Action = "edit:task"
	DeleteTask    Action = "delete:task"
	CreateClient  Action = "create:client"
	EditClient    Action = "edit:client"
	DeleteClient  Action = "delete:client"
	ManageTeam    Action = "manage:team"
	ExportData    Action = "export:data"
	Comment       Action = "comment"
	View          Action = "view"
)

var matrix = map[Role][]Action{
	RoleAdmin: {Wildcard},
	RoleProjectManager: {
		CreateProject, EditProject,
		CreateTask, EditTask, DeleteTask,
		CreateClient, EditClient, ManageTeam, ExportData,
	},
	RoleMember: {CreateTask, EditTask, Comment},
	RoleViewer: {View},
}

// ParseRole matches a role name ignoring case, and accepts the short server
// forms "admin", "manager" and "user".
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	switch strings.ToLower(s) {
	case "manager", "pm":
		return RoleProjectManager, true
	case "user":
		return RoleMember, true
	}
	return "", false
}

// Permissions returns the actions granted to a role. Unknown roles get none.
func Permissions(role Role) []Action {
	return slices.Clone(matrix[role])
}

// Check reports whether role may perform action. The wildcard grants everything.
func Check(role Role, action Action) bool {
	granted, ok := matrix[role]
	if !ok {
		return false
	}
	return slices.Contains(granted, Wildcard) || slices.Contains(granted, action)
}

// DeniedError reports a failed capability check.
type DeniedError struct {
	Role   Role
	Action Action
}

func (e DeniedError) Error() string {
	return fmt.Sprintf("role %q lacks permission %s", e.Role, e.Action)
}

// Require returns a DeniedError when role may not perform action.
func Require(role Role, action Action) error {
	if Check(role, action) {
		return nil
	}
	return DeniedError{Role: role, Action: action}
}

// ForTable maps a data table and verb ("create", "edit", "delete") to the
// action guarding it. Subtasks and files follow their parent task.
func ForTable(table, verb string) (Action, bool) {
	var object string
	switch table {
	case "projects":
		object = "project"
	case "tasks", "subtasks", "files":
		object = "task"
	case "clients":
		object = "client"
	case "profiles":
		return ManageTeam, true
	case "comments":
		return Comment, true
	default:
		return "", false
	}
	switch verb {
	case "create", "edit", "delete":
		if (table == "subtasks" || table == "files") && verb != "edit" {
			return EditTask, true
		}
		return Action(verb + ":" + object), true
	}
	return "", false
}
