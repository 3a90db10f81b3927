// Package view holds the pure filter, sort and paginate pipeline and the
// per-collection UI state (pages, sort keys, selections) that drives it.
// Nothing here renders; presentation layers consume Slice values.
package view

// Kind names an entity collection.
type Kind string

const (
	KindProjects      Kind = "projects"
	KindTasks         Kind = "tasks"
	KindTeam          Kind = "team"
	KindClients       Kind = "clients"
	KindComments      Kind = "comments"
	KindFiles         Kind = "files"
	KindActivity      Kind = "activity"
	KindNotifications Kind = "notifications"
)

// Tabular lists the kinds shown as paginated tables.
var Tabular = []Kind{KindProjects, KindTasks, KindTeam, KindClients}

// ParseKind matches a collection name, accepting the remote table names.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "projects", "project":
		return KindProjects, true
	case "tasks", "task":
		return KindTasks, true
	case "team", "profiles", "members":
		return KindTeam, true
	case "clients", "client":
		return KindClients, true
	case "comments":
		return KindComments, true
	case "files":
		return KindFiles, true
	case "activity", "activities":
		return KindActivity, true
	case "notifications":
		return KindNotifications, true
	}
	return "", false
}
