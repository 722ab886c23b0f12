package grouplist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/theme"
)

// GroupItem wraps an engine.Group so it can be used in a bubbles/list.
type GroupItem struct {
	Group    engine.Group
	Category engine.Category
}

// Notification returns the representative notification of the group.
func (i GroupItem) Notification() model.Notification {
	return i.Group.Representative()
}

// Link returns the deep link for the group's representative.
func (i GroupItem) Link() string {
	return engine.DeepLink(i.Category, i.Notification())
}

// FilterValue returns the string used for fuzzy filtering.
func (i GroupItem) FilterValue() string { return i.Group.Title }

// Title returns the subject title for the list.
func (i GroupItem) Title() string { return i.Group.Title }

// Description returns a short summary line for the list.
func (i GroupItem) Description() string {
	n := i.Notification()
	parts := []string{
		n.RepositoryFullName(),
		n.Reason,
		relativeTime(n.UpdatedAt),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering groups.
type ItemDelegate struct {
	now func() time.Time

	// read holds ids marked read during this session. Shared by reference
	// with the grouplist Model so updates are visible.
	read map[string]bool
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a group as a title line and a link line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	gi, ok := item.(GroupItem)
	if !ok {
		return
	}
	n := gi.Notification()

	marker := "○"
	if n.Unread && !d.read[n.ID] {
		marker = "●"
	}

	reason := theme.ReasonStyle(n.Reason).Render(n.Reason)

	count := ""
	if gi.Group.Count > 1 {
		count = " " + theme.CountStyle.Render(fmt.Sprintf("x%d", gi.Group.Count))
	}

	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTimeAt(n.UpdatedAt, d.clock()))

	first := fmt.Sprintf("%s %s %s%s  %s", marker, reason, gi.Group.Title, count, age)
	second := fmt.Sprintf("  %s  %s", n.RepositoryFullName(), theme.LinkStyle.Render(gi.Link()))

	if index == m.Index() {
		first = selectedStyle.Render(first)
		second = selectedStyle.UnsetBold().Render(second)
	} else {
		first = itemStyle.Render(first)
		second = itemStyle.Render(second)
	}

	fmt.Fprint(w, first+"\n"+second)
}

func (d ItemDelegate) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}

var itemStyle = lipgloss.NewStyle().PaddingLeft(2)

var selectedStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(theme.ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(theme.ColorBlue)

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	return relativeTimeAt(t, time.Now())
}

func relativeTimeAt(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
