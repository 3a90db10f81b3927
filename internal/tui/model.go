// Package tui is the terminal client. The model never reads the store
// directly: every key press becomes a command that runs on the loop and
// returns an immutable frame to render.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

// toastTTL is how long a toast stays on screen.
const toastTTL = 4 * time.Second

// Loop is the part of the event loop the terminal client drives.
type Loop interface {
	Do(ctx context.Context, fn func(*store.Store) error) error
	Mutate(ctx context.Context, prepare func(*mutate.Engine) (*mutate.Pending, error)) error
}

// Prefs persists display preferences between runs.
type Prefs interface {
	SetTheme(ctx context.Context, theme string) error
	SetLastPage(ctx context.Context, page string) error
}

// Options configures a Model.
type Options struct {
	Prefs     Prefs
	Theme     string
	Page      string
	ExportDir string
	Logger    *slog.Logger
}

type confirmation struct {
	prompt string
	run    tea.Cmd
}

type toast struct {
	mutate.Toast
	at time.Time
}

// Model is the bubbletea model for the terminal client.
type Model struct {
	loop      Loop
	prefs     Prefs
	logger    *slog.Logger
	exportDir string

	page    Page
	open    string
	filters map[Page]filter
	frame   frame
	seq     int
	applied int

	theme     string
	styles    styles
	table     table.Model
	search    textinput.Model
	searching bool
	help      help.Model
	form      *form
	submitted *form
	confirm   *confirmation
	toast     *toast
	now       time.Time

	width  int
	height int
}

// New creates the model. The starting page and theme come from opts, so a
// cached preference restores the previous session.
func New(l Loop, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Theme != ThemeLight {
		opts.Theme = ThemeDark
	}
	page, ok := ParsePage(opts.Page)
	if !ok {
		page = PageDashboard
	}
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 100
	search.Cursor.SetMode(cursor.CursorStatic)

	st := newStyles(opts.Theme)
	t := table.New(table.WithFocused(true), table.WithHeight(10))
	t.SetStyles(tableStyles(st))

	return Model{
		loop:      l,
		prefs:     opts.Prefs,
		logger:    opts.Logger,
		exportDir: opts.ExportDir,
		page:      page,
		filters:   make(map[Page]filter, len(pages)),
		theme:     opts.Theme,
		styles:    st,
		table:     t,
		search:    search,
		help:      help.New(),
		now:       time.Now(),
	}
}

func tableStyles(st styles) table.Styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(st.Label.GetForeground()).Bold(true)
	ts.Selected = st.Selected
	return ts
}

// Init mounts the starting page and starts the clock.
func (m Model) Init() tea.Cmd {
	page := m.page
	m.page = ""
	return tea.Batch(m.switchPage(page), tick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(msg.Height-10, 3))
		return m, nil

	case frameMsg:
		if msg.err != nil {
			m.logger.Debug("frame failed", "page", m.page, "error", msg.err)
			m.setToast(mutate.Toast{Level: activity.LevelError, Message: "Workspace unavailable: " + msg.err.Error()})
			return m, nil
		}
		if msg.seq < m.applied || msg.frame.Page != m.page || msg.frame.Open != m.open {
			return m, nil
		}
		m.applied = msg.seq
		m.setFrame(msg.frame)
		if msg.toast != nil {
			m.setToast(*msg.toast)
		}
		return m, nil

	case changedMsg:
		return m, m.refresh()

	case toastMsg:
		m.setToast(mutate.Toast(msg))
		return m, nil

	case noticeMsg:
		m.setToast(mutate.Toast(msg))
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		if m.toast != nil && m.now.Sub(m.toast.at) > toastTTL {
			m.toast = nil
		}
		if m.page == PageTasks || m.page == PageDashboard {
			return m, tea.Batch(tick(), m.refresh())
		}
		return m, tick()

	case mutatedMsg:
		f := m.submitted
		m.submitted = nil
		if msg.err != nil {
			if errors.Is(msg.err, errInput) || errors.Is(msg.err, mutate.ErrValidation) {
				m.form = f
			}
			if !toasted(msg.err) {
				m.setToast(mutate.Toast{Level: activity.LevelError, Message: msg.err.Error()})
			}
		}
		return m, m.refresh()

	case formMsg:
		if msg.err != nil {
			m.setToast(mutate.Toast{Level: activity.LevelWarning, Message: msg.err.Error()})
			return m, nil
		}
		m.form = msg.form
		return m, nil

	case exportedMsg:
		switch {
		case msg.err == nil:
			m.setToast(mutate.Toast{Level: activity.LevelSuccess, Message: "Exported " + msg.path})
		case isDenied(msg.err):
			m.setToast(mutate.Toast{Level: activity.LevelWarning, Message: "You don't have permission to export data"})
		default:
			m.setToast(mutate.Toast{Level: activity.LevelError, Message: "Export failed: " + msg.err.Error()})
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setToast(t mutate.Toast) {
	m.toast = &toast{Toast: t, at: m.now}
}

func (m *Model) setFrame(fr frame) {
	if m.open != "" && fr.Detail == nil {
		m.open = ""
		m.setToast(mutate.Toast{Level: activity.LevelInfo, Message: "That record no longer exists"})
	}
	m.frame = fr
	cols := make([]table.Column, len(fr.Columns))
	for i, c := range fr.Columns {
		title := c.Title
		if c.Key != "" && c.Key == fr.SortKey {
			if fr.Desc {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		cols[i] = table.Column{Title: title, Width: c.Width}
	}
	rows := make([]table.Row, len(fr.Rows))
	for i, r := range fr.Rows {
		rows[i] = table.Row(r)
	}
	// Columns first: rendering rows wider than the header panics.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	switch c := m.table.Cursor(); {
	case c < 0:
		m.table.SetCursor(0)
	case c >= len(rows):
		m.table.SetCursor(len(rows) - 1)
	}
}

// current is the id the row actions apply to.
func (m Model) current() string {
	if m.open != "" {
		return m.open
	}
	c := m.table.Cursor()
	if c < 0 || c >= len(m.frame.IDs) {
		return ""
	}
	return m.frame.IDs[c]
}

func (m Model) currentName() string {
	if m.open != "" && m.frame.Detail != nil {
		return m.frame.Detail.Title
	}
	c := m.table.Cursor()
	if c < 0 || c >= len(m.frame.Rows) || len(m.frame.Rows[c]) < 2 {
		return ""
	}
	return m.frame.Rows[c][1]
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			run := m.confirm.run
			m.confirm = nil
			return m, run
		case "n", "N", "esc":
			m.confirm = nil
		}
		return m, nil
	}

	if m.form != nil {
		if key.Matches(msg, keys.Back) {
			m.form = nil
			return m, nil
		}
		submit, cmd := m.form.update(msg)
		if !submit {
			return m, cmd
		}
		if m.submitted != nil {
			m.setToast(mutate.Toast{Level: activity.LevelInfo, Message: "Still saving the previous form"})
			return m, nil
		}
		f := m.form
		m.form, m.submitted = nil, f
		return m, m.submit(f)
	}

	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			if m.search.Value() == m.filters[m.page].Query {
				return m, cmd
			}
		}
		f := m.filters[m.page]
		f.Query = m.search.Value()
		m.filters[m.page] = f
		return m, m.withPage(func(st *view.PageState) { st.Page = 1 })
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, keys.Theme):
		return m, m.toggleTheme()
	case key.Matches(msg, keys.Back):
		if m.open != "" {
			m.open = ""
			return m, m.refresh()
		}
		return m, nil
	case key.Matches(msg, keys.Tab):
		return m, m.switchPage(m.page.next(1))
	case key.Matches(msg, keys.ShiftTab):
		return m, m.switchPage(m.page.next(-1))
	}

	if m.open != "" {
		return m.handleDetailKey(msg)
	}

	if m.page == PageActivity {
		if key.Matches(msg, keys.Read) {
			return m, m.markRead()
		}
		return m, nil
	}
	if m.page.kind() == "" {
		return m, nil
	}

	id := m.current()
	switch {
	case key.Matches(msg, keys.Up):
		m.table.MoveUp(1)
	case key.Matches(msg, keys.Down):
		m.table.MoveDown(1)
	case key.Matches(msg, keys.NextPage):
		total := m.frame.Total
		return m, m.withPage(func(st *view.PageState) { st.Next(total) })
	case key.Matches(msg, keys.PrevPage):
		total := m.frame.Total
		return m, m.withPage(func(st *view.PageState) { st.Prev(total) })
	case key.Matches(msg, keys.Sort):
		return m, m.cycleSort()
	case key.Matches(msg, keys.Reverse):
		return m, m.reverseSort()
	case key.Matches(msg, keys.Filter):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, keys.Status):
		return m, m.cycleStatus()
	case key.Matches(msg, keys.Select):
		return m, m.toggleSelect(id)
	case key.Matches(msg, keys.SelectAll):
		return m, m.selectPage()
	case key.Matches(msg, keys.Bulk):
		return m, m.confirmBulkDelete()
	case key.Matches(msg, keys.Export):
		return m, m.export()
	case key.Matches(msg, keys.New):
		if kind, ok := m.formKind(); ok && m.page != PageTeam {
			return m, m.openForm(kind, "")
		}
	case id == "":
		return m, nil
	case key.Matches(msg, keys.Open):
		if _, ok := m.page.entity(); ok {
			m.open = id
			return m, m.refresh()
		}
	default:
		return m.handleRowKey(msg, id)
	}
	return m, nil
}

// handleRowKey handles actions on the highlighted row or the open record.
func (m Model) handleRowKey(msg tea.KeyMsg, id string) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Edit):
		if kind, ok := m.formKind(); ok {
			return m, m.openForm(kind, id)
		}
	case key.Matches(msg, keys.Delete):
		return m, m.confirmDelete(id, m.currentName())
	case key.Matches(msg, keys.Advance):
		return m, m.advance(id)
	case key.Matches(msg, keys.Timer):
		if m.page == PageTasks {
			return m, m.toggleTimer(id)
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.open
	switch {
	case key.Matches(msg, keys.Comment):
		return m, m.openForm(formComment, id)
	case key.Matches(msg, keys.Subtask):
		if m.page == PageTasks {
			return m, m.openForm(formSubtask, id)
		}
		return m, nil
	}
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' && m.page == PageTasks {
		return m, m.toggleSubtask(int(s[0] - '0'))
	}
	return m.handleRowKey(msg, id)
}

func (m Model) formKind() (formKind, bool) {
	switch m.page {
	case PageProjects:
		return formProject, true
	case PageTasks:
		return formTask, true
	case PageClients:
		return formClient, true
	case PageTeam:
		return formMember, true
	}
	return 0, false
}
