package tui

import "github.com/charmbracelet/lipgloss"

// Theme names accepted by the theme toggle and persisted in the cache.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type palette struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
	Fg      lipgloss.Color
	Bg      lipgloss.Color
	BgLight lipgloss.Color
}

var palettes = map[string]palette{
	ThemeDark: {
		Primary: lipgloss.Color("#7aa2f7"),
		Success: lipgloss.Color("#9ece6a"),
		Warning: lipgloss.Color("#e0af68"),
		Error:   lipgloss.Color("#f7768e"),
		Muted:   lipgloss.Color("#565f89"),
		Fg:      lipgloss.Color("#c0caf5"),
		Bg:      lipgloss.Color("#1a1b26"),
		BgLight: lipgloss.Color("#24283b"),
	},
	ThemeLight: {
		Primary: lipgloss.Color("#2e7de9"),
		Success: lipgloss.Color("#587539"),
		Warning: lipgloss.Color("#8c6c3e"),
		Error:   lipgloss.Color("#f52a65"),
		Muted:   lipgloss.Color("#848cb5"),
		Fg:      lipgloss.Color("#3760bf"),
		Bg:      lipgloss.Color("#e1e2e7"),
		BgLight: lipgloss.Color("#d0d5e3"),
	},
}

type styles struct {
	Title    lipgloss.Style
	Tab      lipgloss.Style
	TabOn    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Panel    lipgloss.Style
	Modal    lipgloss.Style
	Selected lipgloss.Style
	Badge    lipgloss.Style
	Toast    map[string]lipgloss.Style
	Footer   lipgloss.Style
}

func newStyles(theme string) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeDark]
	}
	return styles{
		Title: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		Tab: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 1),
		TabOn: lipgloss.NewStyle().
			Foreground(p.Fg).
			Background(p.BgLight).
			Bold(true).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Foreground(p.Muted),
		Value: lipgloss.NewStyle().
			Foreground(p.Fg),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Muted).
			Padding(0, 1),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),
		Selected: lipgloss.NewStyle().
			Foreground(p.Bg).
			Background(p.Primary).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Foreground(p.Bg).
			Background(p.Warning).
			Padding(0, 1),
		Toast: map[string]lipgloss.Style{
			"info":    lipgloss.NewStyle().Foreground(p.Primary),
			"success": lipgloss.NewStyle().Foreground(p.Success),
			"warning": lipgloss.NewStyle().Foreground(p.Warning),
			"error":   lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		},
		Footer: lipgloss.NewStyle().
			Foreground(p.Muted).
			MarginTop(1),
	}
}
