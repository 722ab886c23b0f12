package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLayout_Heights(t *testing.T) {
	l := NewLayout(100, 30)
	assert.Equal(t, 28, l.ContentHeight())
	assert.Equal(t, 26, l.ListHeight())

	tiny := NewLayout(10, 2)
	assert.Equal(t, 0, tiny.ContentHeight())
	assert.Equal(t, 1, tiny.ListHeight())
}

func TestLayout_RenderTabs(t *testing.T) {
	l := NewLayout(100, 30)
	out := l.RenderTabs([]Tab{
		{Label: "CI ACTIVITY", Count: 2},
		{Label: "REST", Count: 0, Dirty: true, Active: true},
	})
	assert.Contains(t, out, "1 CI ACTIVITY (2)")
	assert.Contains(t, out, "2 REST (0) •")
}

func TestLayout_HeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 10)
	out := l.RenderHeader("GitHub Notifications", "waiting", "")
	assert.Equal(t, 60, lipgloss.Width(out))
}
