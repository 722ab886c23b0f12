package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/keys"
	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/theme"
)

// legend lists which reasons land in each tab; rest takes everything else.
var legend = []struct {
	cat     engine.Category
	reasons []string
}{
	{engine.CategoryCIActivity, []string{model.ReasonCIActivity}},
	{engine.CategoryReviewRequested, []string{
		model.ReasonReviewRequested,
		model.ReasonAssign,
		model.ReasonApprovalRequested,
		model.ReasonParticipating,
	}},
	{engine.CategoryRest, []string{"any other reason"}},
}

// Model is the help overlay: key bindings followed by the tab legend.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a help view sized width x height.
func New(km *keys.KeyMap, width, height int) Model {
	m := Model{keys: km, help: help.New()}
	m.help.ShowAll = true
	m.SetSize(width, height)
	return m
}

// Update is a no-op; the parent closes the overlay.
func (m Model) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the overlay.
func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)

	var tabs strings.Builder
	for i, l := range legend {
		if i > 0 {
			tabs.WriteByte('\n')
		}
		tabs.WriteString(theme.CountStyle.Render(l.cat.Label()))
		tabs.WriteString("  ")
		tabs.WriteString(theme.HelpStyle.Render(strings.Join(l.reasons, ", ")))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		heading.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		heading.Render("Tabs"),
		tabs.String(),
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-4, 0)
}
