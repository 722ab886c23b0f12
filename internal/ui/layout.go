package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghnotify/internal/theme"
)

// TabsHeight is the number of rows the tab strip occupies, border included.
const TabsHeight = 2

// Tab is one entry of the category tab strip.
type Tab struct {
	Label  string
	Count  int
	Dirty  bool
	Active bool
}

// Layout splits the terminal into header, tab strip, list and status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height between the header and the status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// ListHeight is the content height left below the tab strip.
func (l Layout) ListHeight() int {
	return max(l.ContentHeight()-TabsHeight, 1)
}

// RenderHeader renders the title on the left and the sync status flush right,
// colored by syncState (see theme.SyncStyle).
func (l Layout) RenderHeader(title, syncStatus, syncState string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.SyncStyle(syncState).Align(lipgloss.Right).Render(syncStatus)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		left,
		fill(theme.HeaderStyle, l.Width-lipgloss.Width(left)-lipgloss.Width(right)),
		right,
	)
}

// RenderTabs draws one numbered tab per entry. Dirty tabs carry a marker.
func (l Layout) RenderTabs(tabs []Tab) string {
	out := make([]string, 0, len(tabs))
	for i, t := range tabs {
		label := fmt.Sprintf("%d %s (%d)", i+1, t.Label, t.Count)
		if t.Dirty {
			label += " " + theme.DirtyMarkerStyle.Render("•")
		}
		style := theme.TabStyle
		if t.Active {
			style = theme.ActiveTabStyle
		}
		out = append(out, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, out...)
}

// RenderStatusBar renders the bottom bar padded to the full width.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		rendered,
		fill(theme.StatusBarStyle, l.Width-lipgloss.Width(rendered)),
	)
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fill returns width blank cells painted with style's background.
func fill(style lipgloss.Style, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(width).
		Background(style.GetBackground()).
		Render("")
}
