package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghnotify/internal/alert"
	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/source"
	"github.com/nhle/ghnotify/internal/store"
	appsync "github.com/nhle/ghnotify/internal/sync"
	"github.com/nhle/ghnotify/internal/ui/grouplist"
	"github.com/nhle/ghnotify/tests/testutil"
)

type countingNotifier struct {
	n int
}

func (c *countingNotifier) Notify(context.Context, string, string) error {
	c.n++
	return nil
}

type fakeSource struct {
	read []string
}

func (f *fakeSource) Type() source.SourceType { return source.SourceTypeGitHub }

func (f *fakeSource) ValidateConnection(context.Context) (string, error) { return "me", nil }

func (f *fakeSource) FetchNotifications(context.Context) ([]model.Notification, error) {
	return nil, nil
}

func (f *fakeSource) MarkThreadRead(_ context.Context, id string) error {
	f.read = append(f.read, id)
	return nil
}

var base = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (*Model, *countingNotifier, *fakeSource, *store.SQLiteStore) {
	t.Helper()
	notifier := &countingNotifier{}
	src := &fakeSource{}
	st := testutil.NewTestStore(t)

	m := New(Deps{
		Source: src,
		Store:  st,
		Gate:   alert.NewGate(alert.Static(notifier), model.AlertConfig{Enabled: true, Title: "Yo"}, zerolog.Nop()),
		Log:    zerolog.Nop(),
	})
	t.Cleanup(m.Close)

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m, notifier, src, st
}

// run executes cmd and feeds every resulting message back into the model.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	default:
		_, next := m.Update(msg)
		run(m, next)
	}
}

func deliver(m *Model, ns ...model.Notification) {
	_, cmd := m.Update(batchMsg{batch: appsync.Batch{Notifications: ns, FetchedAt: base}})
	// The batch command list ends with waitForBatch, which blocks; run the
	// rest only.
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch[:len(batch)-1] {
			run(m, c)
		}
	}
}

func TestModel_FirstBatchDoesNotAlert(t *testing.T) {
	m, notifier, _, st := newTestModel(t)

	deliver(m,
		testutil.Notification("1", model.ReasonCIActivity, 1, base),
		testutil.Notification("2", model.ReasonReviewRequested, 2, base),
	)

	assert.Equal(t, 0, notifier.n)
	assert.True(t, m.Engine().FirstLoadComplete())

	recs, err := st.GetNotifications(context.Background(), store.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	batches, err := st.RecentBatches(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].Added)

	deliver(m, testutil.Notification("3", model.ReasonMention, 3, base))
	assert.Equal(t, 1, notifier.n)

	deliver(m, testutil.Notification("3", model.ReasonMention, 3, base))
	assert.Equal(t, 1, notifier.n, "no new items, no alert")
}

func TestModel_TabKeysFocusCategories(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	deliver(m, testutil.Notification("1", model.ReasonCIActivity, 1, base))
	deliver(m, testutil.Notification("2", model.ReasonReviewRequested, 2, base))

	assert.False(t, m.snap.Dirty(engine.CategoryReviewRequested), "primed on first content")

	deliver(m, testutil.Notification("3", model.ReasonReviewRequested, 3, base))
	assert.True(t, m.snap.Dirty(engine.CategoryReviewRequested))

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	assert.Equal(t, engine.CategoryReviewRequested, m.Engine().Focused())
	assert.False(t, m.snap.Dirty(engine.CategoryReviewRequested))
	assert.Equal(t, engine.CategoryReviewRequested, m.groupList.Category())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, engine.CategoryRest, m.Engine().Focused())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, engine.CategoryCIActivity, m.Engine().Focused())

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, engine.CategoryRest, m.Engine().Focused())
}

func TestModel_MarkRead(t *testing.T) {
	m, _, src, st := newTestModel(t)
	deliver(m, testutil.Notification("1", model.ReasonCIActivity, 1, base))

	_, cmd := m.Update(grouplist.MarkReadMsg{
		Category:     engine.CategoryCIActivity,
		Notification: testutil.Notification("1", model.ReasonCIActivity, 1, base),
	})
	run(m, cmd)

	assert.Equal(t, []string{"1"}, src.read)
	assert.Equal(t, "marked read", m.flash)

	n, err := st.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestModel_ViewRendersTabsAndEmptyState(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "CI ACTIVITY")
	assert.Contains(t, out, "REVIEW REQUESTED")
	assert.Contains(t, out, "REST")
	assert.Contains(t, out, grouplist.FetchingText)

	deliver(m, testutil.Notification("1", model.ReasonReviewRequested, 1, base))
	assert.Contains(t, m.View(), grouplist.EmptyText)
}

func TestModel_HelpAndQuit(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Equal(t, ViewHelp, m.currentView)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.currentView)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_SyncStatusShowsRateLimit(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	m.status = appsync.Status{State: appsync.SyncError, RateLimited: true, Interval: 200 * time.Second}
	assert.Contains(t, m.View(), "rate limited, retry in 3m20s")
	assert.Equal(t, "error", m.syncState())

	m.status = appsync.Status{State: appsync.SyncError, AuthFailed: true}
	assert.Contains(t, m.View(), "auth failed, check token")
}
