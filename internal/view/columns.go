package view

import (
	"strings"

	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
)

// Columns is the set of sort keys a collection offers.
type Columns[T any] struct {
	Keys []Key[T]
}

// Key looks up a sort key by name.
func (c Columns[T]) Key(name string) (Key[T], bool) {
	for _, k := range c.Keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key[T]{}, false
}

// Names lists the sort key names in column order.
func (c Columns[T]) Names() []string {
	names := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		names[i] = k.Name
	}
	return names
}

// Spec resolves the state's sort key. Unknown keys leave source order.
func (c Columns[T]) Spec(state *PageState) SortSpec[T] {
	if state == nil || state.SortKey == "" {
		return SortSpec[T]{}
	}
	k, ok := c.Key(state.SortKey)
	if !ok {
		return SortSpec[T]{}
	}
	return SortSpec[T]{Key: &k, Desc: state.Desc}
}

// ProjectColumns sorts projects. progress supplies the derived completion percentage.
func ProjectColumns(progress func(id string) int) Columns[project.Project] {
	return Columns[project.Project]{Keys: []Key[project.Project]{
		{Name: "name", Kind: Text, Text: func(p project.Project) string { return p.Name }},
		{Name: "client", Kind: Text, Text: func(p project.Project) string { return p.ClientName }},
		{Name: "status", Kind: Text, Text: func(p project.Project) string { return string(p.Status) }},
		{Name: "start_date", Kind: Date, Text: func(p project.Project) string { return p.StartDate }},
		{Name: "end_date", Kind: Date, Text: func(p project.Project) string { return p.EndDate }},
		{Name: "budget", Kind: Number, Number: func(p project.Project) float64 { return p.Budget }},
		{Name: "progress", Kind: Number, Number: func(p project.Project) float64 { return float64(progress(p.ID)) }},
	}}
}

// ProjectFilter matches name or client name against query, and status.
func ProjectFilter(query, status string) Predicate[project.Project] {
	if s, ok := project.ParseStatus(status); ok {
		status = string(s)
	}
	return All(
		TextMatch(query,
			func(p project.Project) string { return p.Name },
			func(p project.Project) string { return p.ClientName },
		),
		Category(status, func(p project.Project) string { return string(p.Status) }),
	)
}

// TaskColumns sorts tasks. projectName and assigneeName resolve references
// for display-order sorting.
func TaskColumns(projectName, assigneeName func(id string) string) Columns[task.Task] {
	return Columns[task.Task]{Keys: []Key[task.Task]{
		{Name: "title", Kind: Text, Text: func(t task.Task) string { return t.Title }},
		{Name: "project", Kind: Text, Text: func(t task.Task) string { return projectName(t.ProjectID) }},
		{Name: "assignee", Kind: Text, Text: func(t task.Task) string { return assigneeName(t.AssigneeID) }},
		{Name: "priority", Kind: Number, Number: func(t task.Task) float64 { return float64(t.Priority.Rank()) }},
		{Name: "status", Kind: Number, Number: func(t task.Task) float64 { return float64(statusRank(t.Status)) }},
		{Name: "due_date", Kind: Date, Text: func(t task.Task) string { return t.DueDate }},
		{Name: "time_spent", Kind: Number, Number: func(t task.Task) float64 { return float64(t.TimeSpent) }},
	}}
}

// TaskFilter is the task table filter. Empty or "All" values match everything.
func TaskFilter(query, status, priority, projectID string) Predicate[task.Task] {
	if s, ok := task.ParseStatus(status); ok {
		status = string(s)
	}
	var inProject Predicate[task.Task]
	if projectID != "" {
		inProject = func(t task.Task) bool { return t.ProjectID == projectID }
	}
	return All(
		TextMatch(query,
			func(t task.Task) string { return t.Title },
			func(t task.Task) string { return t.Description },
		),
		Category(status, func(t task.Task) string { return string(t.Status) }),
		Category(priority, func(t task.Task) string { return string(t.Priority) }),
		inProject,
	)
}

// TeamColumns sorts team members.
func TeamColumns() Columns[team.Member] {
	return Columns[team.Member]{Keys: []Key[team.Member]{
		{Name: "name", Kind: Text, Text: func(m team.Member) string { return m.Name }},
		{Name: "email", Kind: Text, Text: func(m team.Member) string { return m.Email }},
		{Name: "role", Kind: Text, Text: func(m team.Member) string { return string(m.Role) }},
	}}
}

// TeamFilter matches name or email, and role.
func TeamFilter(query, role string) Predicate[team.Member] {
	return All(
		TextMatch(query,
			func(m team.Member) string { return m.Name },
			func(m team.Member) string { return m.Email },
		),
		Category(role, func(m team.Member) string { return string(m.Role) }),
	)
}

// ClientColumns sorts clients.
func ClientColumns() Columns[client.Client] {
	return Columns[client.Client]{Keys: []Key[client.Client]{
		{Name: "name", Kind: Text, Text: func(c client.Client) string { return c.Name }},
		{Name: "company", Kind: Text, Text: func(c client.Client) string { return c.Company }},
		{Name: "email", Kind: Text, Text: func(c client.Client) string { return c.Email }},
	}}
}

// ClientFilter matches name, company or email.
func ClientFilter(query string) Predicate[client.Client] {
	return TextMatch(query,
		func(c client.Client) string { return c.Name },
		func(c client.Client) string { return c.Company },
		func(c client.Client) string { return strings.ToLower(c.Email) },
	)
}

func statusRank(s task.Status) int {
	for i, st := range task.Statuses {
		if st == s {
			return i
		}
	}
	return len(task.Statuses)
}
