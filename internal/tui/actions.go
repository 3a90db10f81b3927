package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/report"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

const (
	readTimeout   = 5 * time.Second
	mutateTimeout = time.Minute
)

// errInput marks form values the terminal could not interpret. The engine
// never sees them, so no toast has been shown yet.
var errInput = errors.New("invalid input")

type (
	frameMsg struct {
		seq   int
		frame frame
		err   error
		toast *mutate.Toast
	}
	changedMsg struct {
		kinds []view.Kind
	}
	toastMsg   mutate.Toast
	tickMsg    time.Time
	mutatedMsg struct {
		err error
	}
	formMsg struct {
		form *form
		err  error
	}
	exportedMsg struct {
		path string
		err  error
	}
	noticeMsg mutate.Toast
)

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// apply runs fn on the loop and snapshots a fresh frame in the same turn.
func (m *Model) apply(fn func(*store.Store)) tea.Cmd {
	m.seq++
	seq, page, f, open, l := m.seq, m.page, m.filters[m.page], m.open, m.loop
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		var fr frame
		err := l.Do(ctx, func(s *store.Store) error {
			if fn != nil {
				fn(s)
			}
			fr = buildFrame(s, page, f, open)
			return nil
		})
		return frameMsg{seq: seq, frame: fr, err: err}
	}
}

func (m *Model) refresh() tea.Cmd {
	return m.apply(nil)
}

// withPage applies fn to the page state of the current table.
func (m *Model) withPage(fn func(*view.PageState)) tea.Cmd {
	kind := m.page.kind()
	if kind == "" {
		return nil
	}
	return m.apply(func(s *store.Store) { fn(s.Page(kind)) })
}

func (m *Model) switchPage(to Page) tea.Cmd {
	from := m.page
	m.page, m.open, m.searching = to, "", false
	m.search.Blur()
	m.search.SetValue(m.filters[to].Query)
	m.table.SetRows(nil)
	m.table.SetCursor(0)
	cmds := []tea.Cmd{m.apply(func(s *store.Store) {
		for _, k := range from.mounts() {
			s.Unmount(k)
		}
		for _, k := range to.mounts() {
			s.Mount(k)
		}
	})}
	if m.prefs != nil {
		prefs, logger := m.prefs, m.logger
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
			defer cancel()
			if err := prefs.SetLastPage(ctx, string(to)); err != nil {
				logger.Debug("saving last page failed", "error", err)
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) mutate(prepare func(*mutate.Engine) (*mutate.Pending, error)) tea.Cmd {
	l := m.loop
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
		defer cancel()
		return mutatedMsg{err: l.Mutate(ctx, prepare)}
	}
}

func notice(level activity.Level, format string, args ...any) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{Level: level, Message: fmt.Sprintf(format, args...)}
	}
}

// toasted reports whether the engine already told the user about err.
func toasted(err error) bool {
	return errors.Is(err, mutate.ErrPermissionDenied) ||
		errors.Is(err, mutate.ErrValidation) ||
		errors.Is(err, mutate.ErrRemote)
}

func isDenied(err error) bool {
	var denied perm.DeniedError
	return errors.As(err, &denied)
}

func (m *Model) toggleSelect(id string) tea.Cmd {
	kind := m.page.kind()
	if kind == "" || id == "" {
		return nil
	}
	return m.apply(func(s *store.Store) { s.Selection().Toggle(kind, id) })
}

// selectPage selects every row on the page, or clears the selection when
// they are all selected already.
func (m *Model) selectPage() tea.Cmd {
	kind := m.page.kind()
	if kind == "" {
		return nil
	}
	ids := slices.Clone(m.frame.IDs)
	return m.apply(func(s *store.Store) {
		sel := s.Selection()
		all := len(ids) > 0
		for _, id := range ids {
			all = all && sel.Has(kind, id)
		}
		if all {
			sel.Clear(kind)
			return
		}
		sel.SelectAll(kind, ids)
	})
}

func (m *Model) cycleSort() tea.Cmd {
	keys := sortKeys(m.page)
	if len(keys) == 0 {
		return nil
	}
	return m.withPage(func(st *view.PageState) {
		i := slices.Index(keys, st.SortKey)
		st.SortKey = keys[(i+1)%len(keys)]
		st.Desc = false
		st.Page = 1
	})
}

func (m *Model) reverseSort() tea.Cmd {
	return m.withPage(func(st *view.PageState) {
		if st.SortKey != "" {
			st.SortBy(st.SortKey)
		}
	})
}

func (m *Model) cycleStatus() tea.Cmd {
	opts := m.page.statusOptions()
	if len(opts) < 2 {
		return nil
	}
	f := m.filters[m.page]
	f.Status = opts[(slices.Index(opts, f.Status)+1)%len(opts)]
	m.filters[m.page] = f
	return m.withPage(func(st *view.PageState) { st.Page = 1 })
}

// advance moves a task or project to the next status in its workflow.
func (m *Model) advance(id string) tea.Cmd {
	switch m.page {
	case PageTasks:
		return m.mutate(func(e *mutate.Engine) (*mutate.Pending, error) {
			t, ok := e.Store().Task(id)
			if !ok {
				return nil, fmt.Errorf("task %s: %w", id, mutate.ErrNotFoundLocally)
			}
			i := slices.Index(task.Statuses, t.Status)
			return e.SetTaskStatus(id, string(task.Statuses[(i+1)%len(task.Statuses)]))
		})
	case PageProjects:
		return m.mutate(func(e *mutate.Engine) (*mutate.Pending, error) {
			p, ok := e.Store().Project(id)
			if !ok {
				return nil, fmt.Errorf("project %s: %w", id, mutate.ErrNotFoundLocally)
			}
			next := project.Statuses[(slices.Index(project.Statuses, p.Status)+1)%len(project.Statuses)]
			return e.UpdateProject(id, project.Patch{Status: &next})
		})
	}
	return nil
}

func (m *Model) toggleTimer(id string) tea.Cmd {
	return m.mutate(func(e *mutate.Engine) (*mutate.Pending, error) {
		t, ok := e.Store().Task(id)
		if !ok {
			return nil, fmt.Errorf("task %s: %w", id, mutate.ErrNotFoundLocally)
		}
		if t.Running() {
			return e.StopTimer(id)
		}
		return e.StartTimer(id)
	})
}

func (m *Model) toggleSubtask(n int) tea.Cmd {
	d := m.frame.Detail
	if d == nil || n < 1 || n > len(d.Subtasks) {
		return nil
	}
	id := d.Subtasks[n-1].ID
	return m.mutate(func(e *mutate.Engine) (*mutate.Pending, error) { return e.ToggleSubtask(id) })
}

func (m *Model) confirmDelete(id, name string) tea.Cmd {
	var prepare func(*mutate.Engine) (*mutate.Pending, error)
	noun := ""
	switch m.page {
	case PageProjects:
		noun = "project"
		prepare = func(e *mutate.Engine) (*mutate.Pending, error) { return e.DeleteProject(id) }
	case PageTasks:
		noun = "task"
		prepare = func(e *mutate.Engine) (*mutate.Pending, error) { return e.DeleteTask(id) }
	case PageClients:
		noun = "client"
		prepare = func(e *mutate.Engine) (*mutate.Pending, error) { return e.DeleteClient(id) }
	default:
		return nil
	}
	m.confirm = &confirmation{
		prompt: fmt.Sprintf("Delete %s %q?", noun, name),
		run:    m.mutate(prepare),
	}
	return nil
}

func (m *Model) confirmBulkDelete() tea.Cmd {
	kind := m.page.kind()
	if kind == "" || kind == view.KindTeam {
		return nil
	}
	if m.frame.Selected == 0 {
		return notice(activity.LevelWarning, "Nothing selected")
	}
	m.confirm = &confirmation{
		prompt: fmt.Sprintf("Delete %d selected %s?", m.frame.Selected, kind),
		run:    m.mutate(func(e *mutate.Engine) (*mutate.Pending, error) { return e.BulkDelete(kind) }),
	}
	return nil
}

func (m *Model) markRead() tea.Cmd {
	var n int
	refresh := m.apply(func(s *store.Store) { n = s.MarkAllNotificationsRead() })
	return func() tea.Msg {
		msg := refresh().(frameMsg)
		if msg.err == nil && n > 0 {
			msg.toast = &mutate.Toast{Level: activity.LevelInfo, Message: fmt.Sprintf("Marked %d notifications read", n)}
		}
		return msg
	}
}

func (m *Model) export() tea.Cmd {
	kind := m.page.kind()
	if kind == "" {
		return nil
	}
	l, dir := m.loop, m.exportDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		var buf bytes.Buffer
		var stamp string
		err := l.Do(ctx, func(s *store.Store) error {
			stamp = s.Now().Format("20060102-150405")
			return report.Export(&buf, s, kind)
		})
		if err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, fmt.Sprintf("syncteam-%s-%s.csv", kind, stamp))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return exportedMsg{err: fmt.Errorf("write %s: %w", path, err)}
		}
		return exportedMsg{path: path}
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	if m.theme == ThemeDark {
		m.theme = ThemeLight
	} else {
		m.theme = ThemeDark
	}
	m.styles = newStyles(m.theme)
	m.table.SetStyles(tableStyles(m.styles))
	if m.prefs == nil {
		return nil
	}
	prefs, theme, logger := m.prefs, m.theme, m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		if err := prefs.SetTheme(ctx, theme); err != nil {
			logger.Debug("saving theme failed", "error", err)
		}
		return nil
	}
}

// openForm builds a form on the loop so edits are prefilled from the store.
func (m *Model) openForm(kind formKind, target string) tea.Cmd {
	l := m.loop
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		var f *form
		err := l.Do(ctx, func(s *store.Store) error {
			var err error
			f, err = formFor(s, kind, target)
			return err
		})
		return formMsg{form: f, err: err}
	}
}

func formFor(s *store.Store, kind formKind, target string) (*form, error) {
	switch kind {
	case formProject:
		if target == "" {
			return newForm(kind, "New project", "",
				fieldSpec{key: "name", label: "Name"},
				fieldSpec{key: "client", label: "Client"},
				fieldSpec{key: "status", label: "Status", initial: string(project.StatusActive)},
				fieldSpec{key: "start_date", label: "Start date"},
				fieldSpec{key: "end_date", label: "End date"},
				fieldSpec{key: "budget", label: "Budget", initial: "0"},
				fieldSpec{key: "description", label: "Description"},
			), nil
		}
		p, ok := s.Project(target)
		if !ok {
			return nil, fmt.Errorf("project %s: %w", target, mutate.ErrNotFoundLocally)
		}
		client := ""
		if c, ok := s.Client(p.ClientID); ok {
			client = c.Name
		}
		return newForm(kind, "Edit project", target,
			fieldSpec{key: "name", label: "Name", initial: p.Name},
			fieldSpec{key: "client", label: "Client", initial: client},
			fieldSpec{key: "status", label: "Status", initial: string(p.Status)},
			fieldSpec{key: "start_date", label: "Start date", initial: p.StartDate},
			fieldSpec{key: "end_date", label: "End date", initial: p.EndDate},
			fieldSpec{key: "budget", label: "Budget", initial: strconv.FormatFloat(p.Budget, 'f', -1, 64)},
			fieldSpec{key: "description", label: "Description", initial: p.Description},
		), nil
	case formTask:
		if target == "" {
			return newForm(kind, "New task", "",
				fieldSpec{key: "title", label: "Title"},
				fieldSpec{key: "project", label: "Project"},
				fieldSpec{key: "assignee", label: "Assignee"},
				fieldSpec{key: "priority", label: "Priority", initial: string(task.PriorityMedium)},
				fieldSpec{key: "due_date", label: "Due date"},
				fieldSpec{key: "description", label: "Description"},
			), nil
		}
		t, ok := s.Task(target)
		if !ok {
			return nil, fmt.Errorf("task %s: %w", target, mutate.ErrNotFoundLocally)
		}
		projectName, assignee := "", ""
		if p, ok := s.Project(t.ProjectID); ok {
			projectName = p.Name
		}
		if a, ok := s.Member(t.AssigneeID); ok {
			assignee = a.Name
		}
		return newForm(kind, "Edit task", target,
			fieldSpec{key: "title", label: "Title", initial: t.Title},
			fieldSpec{key: "project", label: "Project", initial: projectName},
			fieldSpec{key: "assignee", label: "Assignee", initial: assignee},
			fieldSpec{key: "priority", label: "Priority", initial: string(t.Priority)},
			fieldSpec{key: "due_date", label: "Due date", initial: t.DueDate},
			fieldSpec{key: "description", label: "Description", initial: t.Description},
		), nil
	case formClient:
		var c client.Client
		title := "New client"
		if target != "" {
			var ok bool
			if c, ok = s.Client(target); !ok {
				return nil, fmt.Errorf("client %s: %w", target, mutate.ErrNotFoundLocally)
			}
			title = "Edit client"
		}
		return newForm(kind, title, target,
			fieldSpec{key: "name", label: "Name", initial: c.Name},
			fieldSpec{key: "company", label: "Company", initial: c.Company},
			fieldSpec{key: "email", label: "Email", initial: c.Email},
			fieldSpec{key: "phone", label: "Phone", initial: c.Phone},
		), nil
	case formMember:
		mem, ok := s.Member(target)
		if !ok {
			return nil, fmt.Errorf("member %s: %w", target, mutate.ErrNotFoundLocally)
		}
		return newForm(kind, "Edit "+mem.Name, target,
			fieldSpec{key: "name", label: "Name", initial: mem.Name},
			fieldSpec{key: "role", label: "Role", initial: string(mem.Role)},
			fieldSpec{key: "bio", label: "Bio", initial: mem.Bio},
		), nil
	case formComment:
		f := newForm(kind, "Add comment", target, fieldSpec{key: "text", label: "Comment"})
		f.fields[0].input.Width = 60
		return f, nil
	case formSubtask:
		return newForm(kind, "Add subtask", target, fieldSpec{key: "title", label: "Title"}), nil
	}
	return nil, fmt.Errorf("%w: unknown form", errInput)
}

// submit turns a filled form into a mutation. References typed by name are
// resolved on the loop.
func (m *Model) submit(f *form) tea.Cmd {
	entity, _ := m.page.entity()
	return m.mutate(func(e *mutate.Engine) (*mutate.Pending, error) {
		s := e.Store()
		switch f.kind {
		case formProject:
			return submitProject(e, s, f)
		case formTask:
			return submitTask(e, s, f)
		case formClient:
			if f.target == "" {
				return e.CreateClient(client.Client{
					Name: f.value("name"), Company: f.value("company"), Email: f.value("email"), Phone: f.value("phone"),
				})
			}
			var p client.Patch
			p.Name = changedPtr(f, "name")
			p.Company = changedPtr(f, "company")
			p.Email = changedPtr(f, "email")
			p.Phone = changedPtr(f, "phone")
			return e.UpdateClient(f.target, p)
		case formMember:
			var p team.Patch
			p.Name = changedPtr(f, "name")
			p.Bio = changedPtr(f, "bio")
			if v, ok := f.changed("role"); ok {
				role, ok := perm.ParseRole(v)
				if !ok {
					return nil, fmt.Errorf("%w: unknown role %q", errInput, v)
				}
				p.Role = &role
			}
			return e.UpdateMember(f.target, p)
		case formComment:
			return e.AddComment(entity, f.target, f.value("text"))
		case formSubtask:
			return e.AddSubtask(f.target, f.value("title"))
		}
		return nil, fmt.Errorf("%w: unknown form", errInput)
	})
}

func submitProject(e *mutate.Engine, s *store.Store, f *form) (*mutate.Pending, error) {
	status, ok := project.ParseStatus(f.value("status"))
	if !ok && f.value("status") != "" {
		return nil, fmt.Errorf("%w: unknown status %q", errInput, f.value("status"))
	}
	budget, err := parseBudget(f.value("budget"))
	if err != nil {
		return nil, err
	}
	var c client.Client
	if ref := f.value("client"); ref != "" {
		if c, ok = findClient(s, ref); !ok {
			return nil, fmt.Errorf("%w: no client named %q", errInput, ref)
		}
	}
	if f.target == "" {
		return e.CreateProject(project.Project{
			Name:        f.value("name"),
			ClientID:    c.ID,
			ClientName:  c.Name,
			Status:      status,
			StartDate:   f.value("start_date"),
			EndDate:     f.value("end_date"),
			Budget:      budget,
			Description: f.value("description"),
		})
	}
	var p project.Patch
	p.Name = changedPtr(f, "name")
	p.StartDate = changedPtr(f, "start_date")
	p.EndDate = changedPtr(f, "end_date")
	p.Description = changedPtr(f, "description")
	if _, ok := f.changed("status"); ok {
		p.Status = &status
	}
	if _, ok := f.changed("budget"); ok {
		p.Budget = &budget
	}
	if _, ok := f.changed("client"); ok {
		p.ClientID, p.ClientName = &c.ID, &c.Name
	}
	return e.UpdateProject(f.target, p)
}

func submitTask(e *mutate.Engine, s *store.Store, f *form) (*mutate.Pending, error) {
	var projectID, assigneeID string
	if ref := f.value("project"); ref != "" {
		p, ok := findProject(s, ref)
		if !ok {
			return nil, fmt.Errorf("%w: no project named %q", errInput, ref)
		}
		projectID = p.ID
	}
	if ref := f.value("assignee"); ref != "" {
		a, ok := findMember(s, ref)
		if !ok {
			return nil, fmt.Errorf("%w: no team member named %q", errInput, ref)
		}
		assigneeID = a.ID
	}
	priority := task.Priority(f.value("priority"))
	if p, ok := task.ParsePriority(string(priority)); ok {
		priority = p
	}
	if f.target == "" {
		return e.CreateTask(task.Task{
			Title:       f.value("title"),
			ProjectID:   projectID,
			AssigneeID:  assigneeID,
			Priority:    priority,
			DueDate:     f.value("due_date"),
			Description: f.value("description"),
		})
	}
	var p task.Patch
	p.Title = changedPtr(f, "title")
	p.DueDate = changedPtr(f, "due_date")
	p.Description = changedPtr(f, "description")
	if _, ok := f.changed("project"); ok {
		p.ProjectID = &projectID
	}
	if _, ok := f.changed("assignee"); ok {
		p.AssigneeID = &assigneeID
	}
	if _, ok := f.changed("priority"); ok {
		p.Priority = &priority
	}
	return e.UpdateTask(f.target, p)
}

func parseBudget(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	b, err := strconv.ParseFloat(strings.NewReplacer("$", "", ",", "").Replace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: budget %q is not a number", errInput, v)
	}
	return b, nil
}

func changedPtr(f *form, key string) *string {
	if v, ok := f.changed(key); ok {
		return &v
	}
	return nil
}

func findProject(s *store.Store, ref string) (project.Project, bool) {
	if p, ok := s.Project(ref); ok {
		return p, true
	}
	for _, p := range s.Projects() {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return project.Project{}, false
}

func findClient(s *store.Store, ref string) (client.Client, bool) {
	if c, ok := s.Client(ref); ok {
		return c, true
	}
	for _, c := range s.Clients() {
		if strings.EqualFold(c.Name, ref) {
			return c, true
		}
	}
	return client.Client{}, false
}

func findMember(s *store.Store, ref string) (team.Member, bool) {
	if mem, ok := s.Member(ref); ok {
		return mem, true
	}
	for _, mem := range s.Members() {
		if strings.EqualFold(mem.Name, ref) || strings.EqualFold(mem.Email, ref) {
			return mem, true
		}
	}
	return team.Member{}, false
}
