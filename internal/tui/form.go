package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formProject formKind = iota
	formTask
	formClient
	formMember
	formComment
	formSubtask
)

type fieldSpec struct {
	key     string
	label   string
	initial string
}

type formField struct {
	fieldSpec
	input textinput.Model
}

// form is a modal of labelled text inputs. Target is the id being edited,
// empty when the form creates a record.
type form struct {
	kind   formKind
	title  string
	target string
	fields []formField
	focus  int
}

func newForm(kind formKind, title, target string, specs ...fieldSpec) *form {
	f := &form{kind: kind, title: title, target: target}
	for _, spec := range specs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 500
		in.Width = 40
		in.Cursor.SetMode(cursor.CursorStatic)
		in.SetValue(spec.initial)
		f.fields = append(f.fields, formField{fieldSpec: spec, input: in})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f *form) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focus].input.Blur()
	f.focus = (i + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

func (f *form) last() bool { return f.focus == len(f.fields)-1 }

// update routes a key to the focused input. It reports true when the form
// should be submitted.
func (f *form) update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return false, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return false, nil
	case "ctrl+s":
		return true, nil
	case "enter":
		if f.last() {
			return true, nil
		}
		f.setFocus(f.focus + 1)
		return false, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return false, cmd
}

func (f *form) value(key string) string {
	for _, field := range f.fields {
		if field.key == key {
			return strings.TrimSpace(field.input.Value())
		}
	}
	return ""
}

// changed returns the trimmed value of key and whether it differs from the
// prefilled value.
func (f *form) changed(key string) (string, bool) {
	for _, field := range f.fields {
		if field.key == key {
			v := strings.TrimSpace(field.input.Value())
			return v, v != strings.TrimSpace(field.initial)
		}
	}
	return "", false
}

func (f *form) view(st styles) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(f.title))
	b.WriteString("\n\n")
	width := 0
	for _, field := range f.fields {
		width = max(width, lipgloss.Width(field.label))
	}
	for i, field := range f.fields {
		label := st.Label.Width(width + 2).Render(field.label)
		if i == f.focus {
			label = st.Title.Width(width + 2).Render(field.label)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, field.input.View()))
		b.WriteString("\n")
	}
	b.WriteString(st.Footer.Render("tab next field · enter save · esc cancel"))
	return st.Modal.Render(b.String())
}
