package store

import (
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/view"
)

// Snapshot is a deep copy of the store contents, used by the local cache and
// by tests comparing state before and after an operation.
type Snapshot struct {
	Projects      []project.Project            `json:"projects"`
	Tasks         []task.Task                  `json:"tasks"`
	Team          []team.Member                `json:"team"`
	Clients       []client.Client              `json:"clients"`
	Comments      []comment.Comment            `json:"comments"`
	Files         []attachment.File            `json:"files"`
	Activities    []activity.Activity          `json:"activities"`
	Notifications []activity.Notification      `json:"notifications"`
	Selection     map[view.Kind][]string       `json:"selection,omitempty"`
	Pages         map[view.Kind]view.PageState `json:"pages,omitempty"`
}

// Snapshot captures the current contents.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Projects:      s.projects.all(),
		Tasks:         s.tasks.all(),
		Team:          s.team.all(),
		Clients:       s.clients.all(),
		Comments:      s.comments.all(),
		Files:         s.files.all(),
		Activities:    s.activities.Items(),
		Notifications: s.notifications.Items(),
		Selection:     make(map[view.Kind][]string),
		Pages:         make(map[view.Kind]view.PageState, len(s.pages)),
	}
	for _, k := range []view.Kind{view.KindProjects, view.KindTasks, view.KindTeam, view.KindClients} {
		if ids := s.selection.IDs(k); len(ids) > 0 {
			snap.Selection[k] = ids
		}
	}
	for k, p := range s.pages {
		snap.Pages[k] = *p
	}
	return snap
}

// Restore replaces the contents with snap and marks every mounted view dirty.
func (s *Store) Restore(snap Snapshot) {
	s.projects.replace(snap.Projects)
	s.tasks.replace(snap.Tasks)
	s.team.replace(snap.Team)
	s.clients.replace(snap.Clients)
	s.comments.replace(snap.Comments)
	s.files.replace(snap.Files)
	s.activities.Reset(snap.Activities)
	s.notifications.Reset(snap.Notifications)

	s.selection = view.NewSelection()
	for k, ids := range snap.Selection {
		s.selection.SelectAll(k, ids)
	}
	s.pages = make(map[view.Kind]*view.PageState, len(snap.Pages))
	for k, p := range snap.Pages {
		s.pages[k] = &p
	}
	for k := range s.mounted {
		s.dirty[k] = true
	}
}
