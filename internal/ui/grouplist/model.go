package grouplist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/keys"
	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/theme"
)

// Empty-state messages.
const (
	FetchingText = "Fetching Notifications..."
	EmptyText    = "No notifications in this category."
)

// MarkReadMsg is sent when the user marks the selected group read.
type MarkReadMsg struct {
	Category     engine.Category
	Notification model.Notification
}

// ShowLinkMsg is sent when the user asks for the selected group's link.
type ShowLinkMsg struct {
	URL string
}

// Model lists the groups of one category.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	read     map[string]bool
	category engine.Category
	loaded   bool
	width    int
	height   int
}

// New creates a new group list model.
func New(k *keys.KeyMap, width, height int) Model {
	read := make(map[string]bool)
	l := list.New([]list.Item{}, ItemDelegate{read: read}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		list:   l,
		keys:   k,
		read:   read,
		width:  width,
		height: height,
	}
}

// SetView replaces the list content with the groups of v. loaded is false
// until the first batch has arrived.
func (m *Model) SetView(v engine.CategoryView, loaded bool) tea.Cmd {
	m.loaded = loaded
	if m.category != v.Category {
		m.category = v.Category
		m.list.ResetSelected()
	}

	groups := v.Groups.Groups()
	items := make([]list.Item, len(groups))
	for i, g := range groups {
		items[i] = GroupItem{Group: g, Category: v.Category}
	}
	return m.list.SetItems(items)
}

// MarkLocallyRead renders the notification with id as read.
func (m *Model) MarkLocallyRead(id string) {
	m.read[id] = true
}

// Category returns the category currently shown.
func (m Model) Category() engine.Category {
	return m.category
}

// Selected returns the highlighted group, if any.
func (m Model) Selected() (GroupItem, bool) {
	gi, ok := m.list.SelectedItem().(GroupItem)
	return gi, ok
}

// Len returns the number of groups shown.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Update handles messages for the group list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.MarkRead):
			gi, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return MarkReadMsg{Category: gi.Category, Notification: gi.Notification()}
			}

		case key.Matches(msg, m.keys.Open):
			gi, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return ShowLinkMsg{URL: gi.Link()} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the group list or its empty state.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	text := EmptyText
	if !m.loaded {
		text = FetchingText
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Inherit(theme.EmptyStyle).
		Render(text)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
