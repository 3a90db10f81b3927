package store

import (
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/view"
)

// Placeholders rendered for references that do not resolve.
const (
	DeletedProject = "Deleted Project"
	NoProject      = "No Project"
	Unassigned     = "Unassigned"
	NoClient       = "N/A"
)

// ProjectProgress derives completion percentage from the tasks referencing
// the project. It is recomputed on every call.
func (s *Store) ProjectProgress(id string) int {
	states := make([]project.TaskState, 0, len(s.tasks.items))
	for _, t := range s.tasks.items {
		states = append(states, project.TaskState{ProjectID: t.ProjectID, Completed: t.Completed()})
	}
	return project.Progress(id, states)
}

// ProjectName resolves a project reference for display.
func (s *Store) ProjectName(id string) string {
	if id == "" {
		return NoProject
	}
	if p, ok := s.projects.get(id); ok {
		return p.Name
	}
	return DeletedProject
}

// AssigneeName resolves an assignee reference for display.
func (s *Store) AssigneeName(id string) string {
	if m, ok := s.team.get(id); ok && id != "" {
		return m.Name
	}
	return Unassigned
}

// ClientName resolves the client of a project, preferring the live client
// record over the denormalised name.
func (s *Store) ClientName(p project.Project) string {
	if c, ok := s.clients.get(p.ClientID); ok && p.ClientID != "" {
		return c.Name
	}
	if p.ClientName != "" {
		return p.ClientName
	}
	return NoClient
}

// ProjectColumns returns the project sort keys bound to this store.
func (s *Store) ProjectColumns() view.Columns[project.Project] {
	return view.ProjectColumns(s.ProjectProgress)
}

// TaskColumns returns the task sort keys bound to this store.
func (s *Store) TaskColumns() view.Columns[task.Task] {
	return view.TaskColumns(s.ProjectName, s.AssigneeName)
}

// RenderProjects runs the pipeline over projects with the stored page state.
func (s *Store) RenderProjects(filter view.Predicate[project.Project]) view.Slice[project.Project] {
	return view.Render(s.projects.all(), filter, s.ProjectColumns(), s.Page(view.KindProjects))
}

// RenderTasks runs the pipeline over tasks with the stored page state.
func (s *Store) RenderTasks(filter view.Predicate[task.Task]) view.Slice[task.Task] {
	return view.Render(s.tasks.all(), filter, s.TaskColumns(), s.Page(view.KindTasks))
}

// RenderTeam runs the pipeline over the team with the stored page state.
func (s *Store) RenderTeam(filter view.Predicate[team.Member]) view.Slice[team.Member] {
	return view.Render(s.team.all(), filter, view.TeamColumns(), s.Page(view.KindTeam))
}

// RenderClients runs the pipeline over clients with the stored page state.
func (s *Store) RenderClients(filter view.Predicate[client.Client]) view.Slice[client.Client] {
	return view.Render(s.clients.all(), filter, view.ClientColumns(), s.Page(view.KindClients))
}
