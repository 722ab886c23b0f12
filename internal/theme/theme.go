package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps overlay content such as the help view.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TabStyle is an unfocused category tab.
var TabStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Padding(0, 2)

// ActiveTabStyle is the focused category tab.
var ActiveTabStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Padding(0, 2).
	Border(lipgloss.NormalBorder(), false, false, true, false).
	BorderForeground(ColorBlue)

// DirtyMarkerStyle colors the marker shown on tabs with unseen changes.
var DirtyMarkerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// CountStyle renders the xN group counter.
var CountStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// LinkStyle renders deep links.
var LinkStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Underline(true)

// EmptyStyle is used for the placeholder of an empty tab.
var EmptyStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true).
	Padding(1, 2)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle is used for error text in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// ReasonStyle returns a color-coded style for a notification reason.
func ReasonStyle(reason string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch reason {
	case "ci_activity":
		return base.Foreground(ColorYellow)
	case "review_requested":
		return base.Foreground(ColorMagenta)
	case "mention", "team_mention":
		return base.Foreground(ColorGreen)
	case "assign":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// SyncStyle returns a style for the header's sync indicator.
func SyncStyle(state string) lipgloss.Style {
	switch state {
	case "syncing":
		return HeaderStyle.Foreground(ColorYellow)
	case "error":
		return HeaderStyle.Foreground(ColorRed)
	default:
		return HeaderStyle
	}
}

// Apply selects the palette variant named by the display.theme setting.
// "dark" and "light" override terminal detection; anything else keeps it.
func Apply(name string) {
	switch name {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}
