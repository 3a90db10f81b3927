package tui

import (
	"strings"

	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/view"
)

// Page is one screen of the terminal client.
type Page string

const (
	PageDashboard Page = "dashboard"
	PageProjects  Page = "projects"
	PageTasks     Page = "tasks"
	PageTeam      Page = "team"
	PageClients   Page = "clients"
	PageActivity  Page = "activity"
)

var pages = []Page{PageDashboard, PageProjects, PageTasks, PageTeam, PageClients, PageActivity}

// ParsePage matches a persisted page name.
func ParsePage(s string) (Page, bool) {
	for _, p := range pages {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

func (p Page) title() string {
	switch p {
	case PageDashboard:
		return "Dashboard"
	case PageProjects:
		return "Projects"
	case PageTasks:
		return "Tasks"
	case PageTeam:
		return "Team"
	case PageClients:
		return "Clients"
	case PageActivity:
		return "Activity"
	}
	return string(p)
}

// kind is the collection shown as a table on p, or "" for the other pages.
func (p Page) kind() view.Kind {
	switch p {
	case PageProjects:
		return view.KindProjects
	case PageTasks:
		return view.KindTasks
	case PageTeam:
		return view.KindTeam
	case PageClients:
		return view.KindClients
	}
	return ""
}

// mounts lists the collections whose changes should redraw p.
func (p Page) mounts() []view.Kind {
	switch p {
	case PageDashboard:
		return []view.Kind{view.KindProjects, view.KindTasks, view.KindTeam, view.KindClients, view.KindNotifications}
	case PageProjects:
		return []view.Kind{view.KindProjects, view.KindClients, view.KindTasks, view.KindComments, view.KindNotifications}
	case PageTasks:
		return []view.Kind{view.KindTasks, view.KindProjects, view.KindTeam, view.KindComments, view.KindNotifications}
	case PageTeam:
		return []view.Kind{view.KindTeam, view.KindNotifications}
	case PageClients:
		return []view.Kind{view.KindClients, view.KindComments, view.KindNotifications}
	case PageActivity:
		return []view.Kind{view.KindActivity, view.KindNotifications}
	}
	return nil
}

func (p Page) entity() (comment.EntityType, bool) {
	switch p {
	case PageProjects:
		return comment.EntityProject, true
	case PageTasks:
		return comment.EntityTask, true
	case PageClients:
		return comment.EntityClient, true
	}
	return "", false
}

// statusOptions is the category filter cycle for p. The empty string means
// no filter.
func (p Page) statusOptions() []string {
	opts := []string{""}
	switch p {
	case PageProjects:
		for _, s := range project.Statuses {
			opts = append(opts, string(s))
		}
	case PageTasks:
		for _, s := range task.Statuses {
			opts = append(opts, string(s))
		}
	case PageTeam:
		for _, r := range perm.Roles {
			opts = append(opts, string(r))
		}
	}
	return opts
}

func (p Page) next(step int) Page {
	for i, candidate := range pages {
		if candidate == p {
			return pages[(i+step+len(pages))%len(pages)]
		}
	}
	return PageDashboard
}
