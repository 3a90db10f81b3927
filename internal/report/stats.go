// Package report derives dashboard figures and data exports from the store.
package report

import (
	"time"

	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/store"
)

// StatusCount is one bar of the project status chart.
type StatusCount struct {
	Status project.Status `json:"status"`
	Count  int            `json:"count"`
}

// ProjectSummary is a dashboard row for a recent project.
type ProjectSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   project.Status `json:"status"`
	Progress int            `json:"progress"`
}

// Stats are the headline figures for the dashboard and reports pages.
type Stats struct {
	TotalProjects     int              `json:"total_projects"`
	CompletedProjects int              `json:"completed_projects"`
	ActiveTasks       int              `json:"active_tasks"`
	OverdueTasks      int              `json:"overdue_tasks"`
	TeamMembers       int              `json:"team_members"`
	Clients           int              `json:"clients"`
	AverageProgress   int              `json:"average_progress"`
	TrackedSeconds    int64            `json:"tracked_seconds"`
	ProjectStatus     []StatusCount    `json:"project_status"`
	Overdue           []task.Task      `json:"overdue,omitempty"`
	RecentProjects    []ProjectSummary `json:"recent_projects,omitempty"`
}

const (
	// OverdueLimit caps the overdue list on the dashboard.
	OverdueLimit = 4
	// RecentLimit caps the recent projects table.
	RecentLimit = 5
)

// Compute derives stats at now. Must run on the store's goroutine.
func Compute(s *store.Store, now time.Time) Stats {
	projects := s.Projects()
	tasks := s.Tasks()
	st := Stats{
		TotalProjects: len(projects),
		TeamMembers:   len(s.Members()),
		Clients:       len(s.Clients()),
	}

	counts := make(map[project.Status]int, len(project.Statuses))
	progressSum := 0
	for i, p := range projects {
		counts[p.Status]++
		if p.Status == project.StatusCompleted {
			st.CompletedProjects++
		}
		progress := s.ProjectProgress(p.ID)
		progressSum += progress
		if i < RecentLimit {
			st.RecentProjects = append(st.RecentProjects, ProjectSummary{ID: p.ID, Name: p.Name, Status: p.Status, Progress: progress})
		}
	}
	for _, status := range project.Statuses {
		st.ProjectStatus = append(st.ProjectStatus, StatusCount{Status: status, Count: counts[status]})
	}
	if len(projects) > 0 {
		st.AverageProgress = progressSum / len(projects)
	}

	for _, t := range tasks {
		if !t.Completed() {
			st.ActiveTasks++
		}
		st.TrackedSeconds += int64(t.Elapsed(now) / time.Second)
		if t.Overdue(now) {
			st.OverdueTasks++
			if len(st.Overdue) < OverdueLimit {
				st.Overdue = append(st.Overdue, t)
			}
		}
	}
	return st
}
