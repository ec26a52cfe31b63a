// Package themes holds the color palettes of the dashboard.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Selected      lipgloss.Style
	Tab           lipgloss.Style
	ActiveTab     lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Border        lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
}

// Usage picks the status style for a budget utilization percentage:
// red once the ceiling is exceeded, amber from 80%.
func (t Theme) Usage(percent float64) lipgloss.Style {
	switch {
	case percent > 100:
		return t.StatusError
	case percent >= 80:
		return t.StatusWarning
	default:
		return t.StatusSuccess
	}
}

// Default is the default theme.
var Default = Theme{
	Primary:   lipgloss.Color("#4ECDC4"),
	Secondary: lipgloss.Color("#95E1D3"),
	Border:    lipgloss.Color("#404040"),
	Success:   lipgloss.Color("#10b981"),
	Warning:   lipgloss.Color("#f59e0b"),
	Error:     lipgloss.Color("#ef4444"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#4ECDC4")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#4ECDC4")).
		Foreground(lipgloss.Color("#1a1a1a")).
		Bold(true),
	Tab: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Padding(0, 1),
	ActiveTab: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1a1a1a")).
		Background(lipgloss.Color("#4ECDC4")).
		Bold(true).
		Padding(0, 1),
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 2),

	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
}

// Monochrome drops colors for terminals without color support.
var Monochrome = Theme{
	Primary:   lipgloss.Color(""),
	Secondary: lipgloss.Color(""),
	Border:    lipgloss.Color(""),
	Success:   lipgloss.Color(""),
	Warning:   lipgloss.Color(""),
	Error:     lipgloss.Color(""),

	Title:         lipgloss.NewStyle().Bold(true),
	Subtitle:      lipgloss.NewStyle().Faint(true),
	Normal:        lipgloss.NewStyle(),
	Bold:          lipgloss.NewStyle().Bold(true),
	Muted:         lipgloss.NewStyle().Faint(true),
	Selected:      lipgloss.NewStyle().Reverse(true),
	Tab:           lipgloss.NewStyle().Padding(0, 1),
	ActiveTab:     lipgloss.NewStyle().Reverse(true).Padding(0, 1),
	RoundedBox:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
	StatusSuccess: lipgloss.NewStyle(),
	StatusWarning: lipgloss.NewStyle().Bold(true),
	StatusError:   lipgloss.NewStyle().Bold(true).Underline(true),
}

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	if name == "mono" || name == "monochrome" {
		return Monochrome
	}
	return Default
}
