package grouplist

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/keys"
	"github.com/nhle/ghnotify/internal/model"
)

func reviewView() engine.CategoryView {
	mk := func(id, title string) model.Notification {
		return model.Notification{
			ID:      id,
			Reason:  model.ReasonReviewRequested,
			Unread:  true,
			Subject: model.Subject{Title: title, URL: "https://api.github.com/repos/o/r/pulls/" + id, Type: model.SubjectPullRequest},
			Repository: model.Repository{
				FullName: "o/r",
				HTMLURL:  "https://github.com/o/r",
			},
		}
	}
	items := []model.Notification{mk("7", "Fix"), mk("8", "Fix"), mk("9", "Docs")}
	return engine.CategoryView{
		Category: engine.CategoryReviewRequested,
		Items:    items,
		Groups:   engine.GroupByKey(items),
	}
}

func TestView_EmptyStates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 10)

	m.SetView(engine.CategoryView{Category: engine.CategoryRest}, false)
	assert.Contains(t, m.View(), FetchingText)

	m.SetView(engine.CategoryView{Category: engine.CategoryRest}, true)
	assert.Contains(t, m.View(), EmptyText)
}

func TestSetView_ListsGroups(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 20)
	m.SetView(reviewView(), true)

	require.Equal(t, 2, m.Len())
	assert.Equal(t, engine.CategoryReviewRequested, m.Category())

	gi, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "Fix", gi.Title())
	assert.Equal(t, 2, gi.Group.Count)
	assert.Equal(t, "https://github.com/o/r/pull/7", gi.Link())

	out := m.View()
	assert.Contains(t, out, "x2")
	assert.Contains(t, out, "Docs")
}

func TestUpdate_EnterMarksRead(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 20)
	m.SetView(reviewView(), true)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(MarkReadMsg)
	require.True(t, ok)
	assert.Equal(t, "7", msg.Notification.ID)
	assert.Equal(t, engine.CategoryReviewRequested, msg.Category)
}

func TestUpdate_OpenShowsLink(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 20)
	m.SetView(reviewView(), true)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	require.NotNil(t, cmd)
	assert.Equal(t, ShowLinkMsg{URL: "https://github.com/o/r/pull/7"}, cmd())
}

func TestUpdate_EnterOnEmptyListIsNoop(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 10)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestRelativeTimeAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "", relativeTimeAt(time.Time{}, now))
	assert.Equal(t, "just now", relativeTimeAt(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", relativeTimeAt(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", relativeTimeAt(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", relativeTimeAt(now.Add(-48*time.Hour), now))
	assert.Equal(t, "2w ago", relativeTimeAt(now.Add(-15*24*time.Hour), now))
}

func TestSetView_ReturnsListCommand(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 20)
	assert.Nil(t, m.SetView(reviewView(), true), "unfiltered lists need no follow-up")

	m.list.SetFilterText("Docs")
	cmd := m.SetView(reviewView(), true)
	require.NotNil(t, cmd, "a filtered list re-filters the new items")
	assert.IsType(t, list.FilterMatchesMsg{}, cmd())
}
