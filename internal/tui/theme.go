package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme colours the panel chrome around the grid.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Graph     lipgloss.Color
}

var (
	ThemeMono = Theme{
		Name:      "mono",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#8a8a8a"),
		Text:      lipgloss.Color("#e4e4e4"),
		Muted:     lipgloss.Color("#6c6c6c"),
		Border:    lipgloss.Color("#3a3a3a"),
		Graph:     lipgloss.Color("#bcbcbc"),
	}

	ThemeCyberpunk = Theme{
		Name:      "cyberpunk",
		Primary:   lipgloss.Color("#ff00ff"),
		Secondary: lipgloss.Color("#00ffff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666666"),
		Border:    lipgloss.Color("#444466"),
		Graph:     lipgloss.Color("#00ffff"),
	}

	ThemeRetro = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Border:    lipgloss.Color("#003300"),
		Graph:     lipgloss.Color("#00cc00"),
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"),
		Secondary: lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Border:    lipgloss.Color("#00406b"),
		Graph:     lipgloss.Color("#00a8cc"),
	}

	Themes = []Theme{ThemeMono, ThemeCyberpunk, ThemeRetro, ThemeOcean}
)

// GetTheme returns the named theme, or mono when there is none.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMono
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(current Theme) Theme {
	for i, t := range Themes {
		if t.Name == current.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// Gradient colours text by blending from one colour to another in HCL
// space.
func Gradient(text string, from, to lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	start, err1 := colorful.Hex(string(from))
	end, err2 := colorful.Hex(string(to))
	if err1 != nil || err2 != nil {
		return lipgloss.NewStyle().Foreground(from).Render(text)
	}

	var sb strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := start.BlendHcl(end, t).Clamped()
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return sb.String()
}

type styles struct {
	status lipgloss.Style
	paused lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	panel  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		status: lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		paused: lipgloss.NewStyle().Foreground(t.Muted).Bold(true),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Border).
			Padding(0, 1).
			Width(statsWidth - 1),
		graph: lipgloss.NewStyle().Foreground(t.Graph),
		help:  lipgloss.NewStyle().Foreground(t.Muted),
	}
}
