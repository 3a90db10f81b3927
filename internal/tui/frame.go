package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/report"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

// feedLimit caps the activity and notification lists.
const feedLimit = 50

// column is a table header. Key is the sort key, empty when the column
// cannot be sorted.
type column struct {
	Title string
	Key   string
	Width int
}

// filter is the per-page search box and category filter.
type filter struct {
	Query  string
	Status string
}

// frame is everything a View needs, copied out of the store on the loop
// goroutine so rendering never touches shared state.
type frame struct {
	Page          Page
	Open          string
	Now           time.Time
	User          team.Member
	Unread        int
	Columns       []column
	Rows          [][]string
	IDs           []string
	Selected      int
	Total         int
	PageNum       int
	PageCount     int
	SortKey       string
	Desc          bool
	Stats         report.Stats
	Activity      []activity.Activity
	Notifications []activity.Notification
	Detail        *detail
}

type detail struct {
	Entity   comment.EntityType
	ID       string
	Title    string
	Fields   [][2]string
	Subtasks []task.Subtask
	Comments []commentLine
	Files    []string
}

type commentLine struct {
	ID     string
	Author string
	Text   string
	When   string
}

var tableColumns = map[Page][]column{
	PageProjects: {
		{Title: "", Width: 3},
		{Title: "Name", Key: "name", Width: 24},
		{Title: "Client", Key: "client", Width: 16},
		{Title: "Status", Key: "status", Width: 10},
		{Title: "Progress", Key: "progress", Width: 9},
		{Title: "Budget", Key: "budget", Width: 12},
		{Title: "End", Key: "end_date", Width: 11},
	},
	PageTasks: {
		{Title: "", Width: 3},
		{Title: "Title", Key: "title", Width: 24},
		{Title: "Project", Key: "project", Width: 16},
		{Title: "Assignee", Key: "assignee", Width: 14},
		{Title: "Priority", Key: "priority", Width: 8},
		{Title: "Status", Key: "status", Width: 13},
		{Title: "Due", Key: "due_date", Width: 11},
		{Title: "Time", Key: "time_spent", Width: 10},
	},
	PageTeam: {
		{Title: "", Width: 3},
		{Title: "Name", Key: "name", Width: 20},
		{Title: "Email", Key: "email", Width: 28},
		{Title: "Role", Key: "role", Width: 16},
	},
	PageClients: {
		{Title: "", Width: 3},
		{Title: "Name", Key: "name", Width: 20},
		{Title: "Company", Key: "company", Width: 20},
		{Title: "Email", Key: "email", Width: 24},
		{Title: "Phone", Key: "phone", Width: 14},
	},
}

// sortKeys returns the sortable column keys of p in display order.
func sortKeys(p Page) []string {
	var out []string
	for _, c := range tableColumns[p] {
		if c.Key != "" {
			out = append(out, c.Key)
		}
	}
	return out
}

// buildFrame snapshots the state for page. Must run on the store's goroutine.
func buildFrame(s *store.Store, page Page, f filter, open string) frame {
	now := s.Now()
	fr := frame{
		Page:    page,
		Open:    open,
		Now:     now,
		User:    s.CurrentUser(),
		Unread:  s.UnreadCount(),
		Columns: tableColumns[page],
	}
	sel := s.Selection()
	mark := func(kind view.Kind, id string) string {
		if sel.Has(kind, id) {
			return "[x]"
		}
		return "[ ]"
	}

	switch page {
	case PageDashboard:
		fr.Stats = report.Compute(s, now)
	case PageProjects:
		slice := s.RenderProjects(view.ProjectFilter(f.Query, f.Status))
		for _, p := range slice.Rows {
			fr.IDs = append(fr.IDs, p.ID)
			fr.Rows = append(fr.Rows, []string{
				mark(view.KindProjects, p.ID),
				p.Name,
				s.ClientName(p),
				string(p.Status),
				fmt.Sprintf("%d%%", s.ProjectProgress(p.ID)),
				"$" + humanize.Commaf(p.Budget),
				orDash(p.EndDate),
			})
		}
		fr.setPage(slice.TotalCount, slice.PageCount, slice.Page)
	case PageTasks:
		slice := s.RenderTasks(view.TaskFilter(f.Query, f.Status, "", ""))
		for _, t := range slice.Rows {
			status := string(t.Status)
			if s.Blocked(t.ID) {
				status += " ⛔"
			}
			elapsed := formatElapsed(t.Elapsed(now))
			if t.Running() {
				elapsed = "● " + elapsed
			}
			fr.IDs = append(fr.IDs, t.ID)
			fr.Rows = append(fr.Rows, []string{
				mark(view.KindTasks, t.ID),
				t.Title,
				s.ProjectName(t.ProjectID),
				s.AssigneeName(t.AssigneeID),
				string(t.Priority),
				status,
				orDash(t.DueDate),
				elapsed,
			})
		}
		fr.setPage(slice.TotalCount, slice.PageCount, slice.Page)
	case PageTeam:
		slice := s.RenderTeam(view.TeamFilter(f.Query, f.Status))
		for _, m := range slice.Rows {
			fr.IDs = append(fr.IDs, m.ID)
			fr.Rows = append(fr.Rows, []string{mark(view.KindTeam, m.ID), m.Name, m.Email, string(m.Role)})
		}
		fr.setPage(slice.TotalCount, slice.PageCount, slice.Page)
	case PageClients:
		slice := s.RenderClients(view.ClientFilter(f.Query))
		for _, c := range slice.Rows {
			fr.IDs = append(fr.IDs, c.ID)
			fr.Rows = append(fr.Rows, []string{mark(view.KindClients, c.ID), c.Name, orDash(c.Company), orDash(c.Email), orDash(c.Phone)})
		}
		fr.setPage(slice.TotalCount, slice.PageCount, slice.Page)
	case PageActivity:
		fr.Activity = head(s.Activities(), feedLimit)
		fr.Notifications = head(s.Notifications(), feedLimit)
	}

	if kind := page.kind(); kind != "" {
		state := s.Page(kind)
		fr.SortKey, fr.Desc = state.SortKey, state.Desc
		fr.Selected = sel.Count(kind)
	}
	if open != "" {
		fr.Detail = buildDetail(s, page, open, now)
	}
	return fr
}

func (fr *frame) setPage(total, count, page int) {
	fr.Total, fr.PageCount, fr.PageNum = total, count, page
}

// buildDetail describes the entity id on page, or returns nil when it no
// longer exists.
func buildDetail(s *store.Store, page Page, id string, now time.Time) *detail {
	entity, ok := page.entity()
	if !ok {
		return nil
	}
	d := &detail{Entity: entity, ID: id}
	switch entity {
	case comment.EntityProject:
		p, ok := s.Project(id)
		if !ok {
			return nil
		}
		d.Title = p.Name
		d.Fields = [][2]string{
			{"Client", s.ClientName(p)},
			{"Status", string(p.Status)},
			{"Progress", fmt.Sprintf("%d%% of %d tasks", s.ProjectProgress(p.ID), len(s.TasksForProject(p.ID)))},
			{"Budget", "$" + humanize.Commaf(p.Budget)},
			{"Dates", orDash(p.StartDate) + " → " + orDash(p.EndDate)},
			{"Description", orDash(p.Description)},
		}
	case comment.EntityTask:
		t, ok := s.Task(id)
		if !ok {
			return nil
		}
		d.Title = t.Title
		blockers := make([]string, 0, len(t.BlockedBy))
		for _, b := range t.BlockedBy {
			if bt, ok := s.Task(b); ok {
				blockers = append(blockers, bt.Title)
			}
		}
		done, total := t.SubtaskProgress()
		d.Fields = [][2]string{
			{"Project", s.ProjectName(t.ProjectID)},
			{"Assignee", s.AssigneeName(t.AssigneeID)},
			{"Status", string(t.Status)},
			{"Priority", string(t.Priority)},
			{"Due", orDash(t.DueDate)},
			{"Tracked", formatElapsed(t.Elapsed(now))},
			{"Subtasks", fmt.Sprintf("%d/%d", done, total)},
			{"Blocked by", orDash(strings.Join(blockers, ", "))},
			{"Description", orDash(t.Description)},
		}
		d.Subtasks = t.Subtasks
	case comment.EntityClient:
		c, ok := s.Client(id)
		if !ok {
			return nil
		}
		d.Title = c.Name
		d.Fields = [][2]string{
			{"Company", orDash(c.Company)},
			{"Email", orDash(c.Email)},
			{"Phone", orDash(c.Phone)},
		}
	}
	for _, c := range s.CommentsOn(entity, id) {
		d.Comments = append(d.Comments, commentLine{
			ID:     c.ID,
			Author: s.AssigneeName(c.AuthorID),
			Text:   c.Text,
			When:   humanize.RelTime(c.CreatedAt, now, "ago", "from now"),
		})
	}
	for _, f := range s.FilesOn(entity, id) {
		d.Files = append(d.Files, fmt.Sprintf("%s (%s)", f.Name, humanize.Bytes(uint64(max(f.Size, 0)))))
	}
	return d
}

func formatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
