package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch {
	case m.page == PageDashboard:
		body = m.renderDashboard()
	case m.page == PageActivity:
		body = m.renderActivity()
	case m.open != "" && m.frame.Detail != nil:
		body = m.renderDetail(m.frame.Detail)
	default:
		body = m.renderTable()
	}

	parts := []string{m.renderHeader(), body, m.renderStatus(), m.help.View(keys)}
	screen := lipgloss.JoinVertical(lipgloss.Left, parts...)

	var modal string
	switch {
	case m.confirm != nil:
		modal = m.styles.Modal.Render(m.confirm.prompt + "\n\n" + m.styles.Label.Render("y confirm · n cancel"))
	case m.form != nil:
		modal = m.form.view(m.styles)
	}
	if modal != "" && m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	if modal != "" {
		return screen + "\n\n" + modal
	}
	return screen
}

func (m Model) renderHeader() string {
	tabs := make([]string, 0, len(pages))
	for _, p := range pages {
		if p == m.page {
			tabs = append(tabs, m.styles.TabOn.Render(p.title()))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(p.title()))
		}
	}
	user := m.frame.User
	who := m.styles.Label.Render("not signed in")
	if user.ID != "" {
		who = m.styles.Value.Render(user.Name) + m.styles.Label.Render(" ("+string(user.Role)+")")
	}
	if m.frame.Unread > 0 {
		who += " " + m.styles.Badge.Render(fmt.Sprintf("%d unread", m.frame.Unread))
	}
	left := m.styles.Title.Render("SyncTeam") + "  " + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(who), 2)
	return left + strings.Repeat(" ", gap) + who + "\n"
}

func (m Model) renderTable() string {
	var b strings.Builder
	f := m.filters[m.page]
	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case f.Query != "":
		b.WriteString(m.styles.Label.Render("search: ") + m.styles.Value.Render(f.Query))
	}
	if f.Status != "" {
		if b.Len() > 0 {
			b.WriteString("  ")
		}
		b.WriteString(m.styles.Label.Render("filter: ") + m.styles.Value.Render(f.Status))
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	if len(m.frame.Rows) == 0 {
		b.WriteString(m.styles.Label.Render(fmt.Sprintf("No %s match.", m.page.kind())))
		return b.String()
	}
	b.WriteString(m.table.View())
	b.WriteString("\n")
	meta := fmt.Sprintf("page %d of %d · %d total", m.frame.PageNum, m.frame.PageCount, m.frame.Total)
	if m.frame.Selected > 0 {
		meta += fmt.Sprintf(" · %d selected", m.frame.Selected)
	}
	b.WriteString(m.styles.Label.Render(meta))
	return b.String()
}

func (m Model) renderDetail(d *detail) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(d.Title))
	b.WriteString("\n\n")
	width := 0
	for _, f := range d.Fields {
		width = max(width, lipgloss.Width(f[0]))
	}
	for _, f := range d.Fields {
		b.WriteString(m.styles.Label.Width(width+2).Render(f[0]) + m.styles.Value.Render(f[1]) + "\n")
	}
	if len(d.Subtasks) > 0 {
		b.WriteString("\n" + m.styles.Title.Render("Subtasks") + "\n")
		for i, st := range d.Subtasks {
			box := "[ ]"
			if st.Completed {
				box = "[x]"
			}
			b.WriteString(fmt.Sprintf("%d %s %s\n", i+1, box, st.Title))
		}
	}
	if len(d.Files) > 0 {
		b.WriteString("\n" + m.styles.Title.Render("Files") + "\n")
		for _, f := range d.Files {
			b.WriteString("  " + f + "\n")
		}
	}
	b.WriteString("\n" + m.styles.Title.Render(fmt.Sprintf("Comments (%d)", len(d.Comments))) + "\n")
	for _, c := range d.Comments {
		b.WriteString(m.styles.Value.Render(c.Author) + m.styles.Label.Render(" · "+c.When) + "\n  " + c.Text + "\n")
	}
	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderDashboard() string {
	st := m.frame.Stats
	card := func(label, value string) string {
		return m.styles.Panel.Width(18).Render(m.styles.Label.Render(label) + "\n" + m.styles.Title.Render(value))
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Projects", fmt.Sprintf("%d", st.TotalProjects)),
		card("Active tasks", fmt.Sprintf("%d", st.ActiveTasks)),
		card("Overdue", fmt.Sprintf("%d", st.OverdueTasks)),
		card("Team", fmt.Sprintf("%d", st.TeamMembers)),
		card("Avg progress", fmt.Sprintf("%d%%", st.AverageProgress)),
		card("Tracked", formatElapsed(time.Duration(st.TrackedSeconds)*time.Second)),
	)

	var status strings.Builder
	status.WriteString(m.styles.Title.Render("Project status") + "\n")
	for _, sc := range st.ProjectStatus {
		status.WriteString(fmt.Sprintf("%-10s %s %d\n", sc.Status, bar(sc.Count, st.TotalProjects, 20), sc.Count))
	}

	var recent strings.Builder
	recent.WriteString(m.styles.Title.Render("Recent projects") + "\n")
	for _, p := range st.RecentProjects {
		recent.WriteString(fmt.Sprintf("%-24s %-10s %3d%%\n", truncate(p.Name, 24), p.Status, p.Progress))
	}

	var overdue strings.Builder
	overdue.WriteString(m.styles.Title.Render("Overdue") + "\n")
	if len(st.Overdue) == 0 {
		overdue.WriteString(m.styles.Label.Render("Nothing overdue") + "\n")
	}
	for _, t := range st.Overdue {
		overdue.WriteString(fmt.Sprintf("%-24s due %s\n", truncate(t.Title, 24), t.DueDate))
	}

	lower := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Panel.Render(strings.TrimRight(status.String(), "\n")),
		m.styles.Panel.Render(strings.TrimRight(recent.String(), "\n")),
		m.styles.Panel.Render(strings.TrimRight(overdue.String(), "\n")),
	)
	return lipgloss.JoinVertical(lipgloss.Left, cards, lower)
}

func (m Model) renderActivity() string {
	var notes strings.Builder
	notes.WriteString(m.styles.Title.Render("Notifications") + "\n")
	if len(m.frame.Notifications) == 0 {
		notes.WriteString(m.styles.Label.Render("No notifications") + "\n")
	}
	for _, n := range m.frame.Notifications {
		marker := "  "
		title := m.styles.Label.Render(n.Title)
		if !n.Read {
			marker = "• "
			title = m.styles.Value.Bold(true).Render(n.Title)
		}
		notes.WriteString(marker + title + m.styles.Label.Render(" · "+humanize.RelTime(n.CreatedAt, m.frame.Now, "ago", "from now")) + "\n")
		if n.Message != "" {
			notes.WriteString("  " + n.Message + "\n")
		}
	}

	var feed strings.Builder
	feed.WriteString(m.styles.Title.Render("Activity") + "\n")
	if len(m.frame.Activity) == 0 {
		feed.WriteString(m.styles.Label.Render("No activity yet") + "\n")
	}
	for _, a := range m.frame.Activity {
		feed.WriteString(a.Summary + m.styles.Label.Render(" · "+humanize.RelTime(a.CreatedAt, m.frame.Now, "ago", "from now")) + "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Panel.Render(strings.TrimRight(notes.String(), "\n")),
		m.styles.Panel.Render(strings.TrimRight(feed.String(), "\n")),
	)
}

func (m Model) renderStatus() string {
	if m.toast == nil {
		return ""
	}
	style, ok := m.styles.Toast[string(m.toast.Level)]
	if !ok {
		style = m.styles.Toast["info"]
	}
	return style.Render(m.toast.Message)
}

func bar(n, total, width int) string {
	filled := 0
	if total > 0 {
		filled = n * width / total
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
