package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Tab       key.Binding
	ShiftTab  key.Binding
	Up        key.Binding
	Down      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Sort      key.Binding
	Reverse   key.Binding
	Filter    key.Binding
	Status    key.Binding
	Select    key.Binding
	SelectAll key.Binding
	Bulk      key.Binding
	Open      key.Binding
	New       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Advance   key.Binding
	Timer     key.Binding
	Comment   key.Binding
	Subtask   key.Binding
	Read      key.Binding
	Export    key.Binding
	Theme     key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next page"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev page"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "l", "]"),
		key.WithHelp("→", "next page of rows"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "h", "["),
		key.WithHelp("←", "prev page of rows"),
	),
	Sort: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "sort column"),
	),
	Reverse: key.NewBinding(
		key.WithKeys("O"),
		key.WithHelp("O", "reverse sort"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Status: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "status filter"),
	),
	Select: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "select"),
	),
	SelectAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "select page"),
	),
	Bulk: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "delete selected"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete"),
	),
	Advance: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "next status"),
	),
	Timer: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "start/stop timer"),
	),
	Comment: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "comment"),
	),
	Subtask: key.NewBinding(
		key.WithKeys("+"),
		key.WithHelp("+", "add subtask"),
	),
	Read: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "mark read"),
	),
	Export: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "export csv"),
	),
	Theme: key.NewBinding(
		key.WithKeys("T"),
		key.WithHelp("T", "theme"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Filter, k.New, k.Open, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Up, k.Down, k.NextPage, k.PrevPage},
		{k.Sort, k.Reverse, k.Filter, k.Status, k.Select, k.SelectAll, k.Bulk},
		{k.Open, k.New, k.Edit, k.Delete, k.Advance, k.Timer},
		{k.Comment, k.Subtask, k.Read, k.Export, k.Theme, k.Back, k.Quit},
	}
}
