package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme is the colour scheme of the report printer and the live view.
type Theme struct {
	Name    string
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	// Series colours plotted species in order, cycling when there are more species.
	Series []asciigraph.AnsiColor
}

var (
	ThemeLab = Theme{
		Name:    "lab",
		Accent:  lipgloss.Color("#00ccff"),
		Text:    lipgloss.Color("#e6e6e6"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
		Series:  []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow, asciigraph.Green, asciigraph.Magenta, asciigraph.Red, asciigraph.Blue},
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Accent:  lipgloss.Color("#00ff00"),
		Text:    lipgloss.Color("#00cc00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
		Series:  []asciigraph.AnsiColor{asciigraph.Green, asciigraph.Yellow, asciigraph.White},
	}

	ThemeMono = Theme{
		Name:    "mono",
		Accent:  lipgloss.Color("#ffffff"),
		Text:    lipgloss.Color("#cccccc"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#ffffff"),
		Warning: lipgloss.Color("#cccccc"),
		Error:   lipgloss.Color("#ffffff"),
		Series:  []asciigraph.AnsiColor{asciigraph.Default},
	}

	Themes = []Theme{ThemeLab, ThemeRetro, ThemeMono}
)

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, candidate := range Themes {
		if candidate.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func (t Theme) seriesColors(n int) []asciigraph.AnsiColor {
	out := make([]asciigraph.AnsiColor, n)
	for i := range out {
		out[i] = t.Series[i%len(t.Series)]
	}
	return out
}
