package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/nhle/ghnotify/internal/alert"
	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/source"
	"github.com/nhle/ghnotify/internal/store"
	appsync "github.com/nhle/ghnotify/internal/sync"
	"github.com/nhle/ghnotify/internal/theme"
	"github.com/nhle/ghnotify/internal/ui"
	"github.com/nhle/ghnotify/internal/ui/grouplist"
	helpview "github.com/nhle/ghnotify/internal/ui/help"
)

// batchMsg carries one poller batch into the update loop.
type batchMsg struct {
	batch appsync.Batch
}

// statusTickMsg refreshes the header's sync indicator.
type statusTickMsg time.Time

// markReadResultMsg reports the outcome of marking a thread read.
type markReadResultMsg struct {
	id  string
	err error
}

// archivedMsg reports the outcome of archiving a batch.
type archivedMsg struct {
	err error
}

const statusTickInterval = time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewHelp
)

// Deps are the collaborators the root model drives. Store and Source may be
// nil; the archive and upstream read marking are then skipped.
type Deps struct {
	Poller *appsync.Poller
	Source source.Source
	Store  store.Store
	Gate   *alert.Gate
	Log    zerolog.Logger
}

// Model is the root Bubble Tea model. It owns the engine and renders its
// snapshots as one tab per category.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *KeyMap
	engine      *engine.Engine
	snap        engine.Snapshot
	groupList   grouplist.Model
	helpView    helpview.Model
	deps        Deps
	log         zerolog.Logger
	batches     chan appsync.Batch
	done        chan struct{}
	unsubscribe func()
	status      appsync.Status
	flash       string
	ready       bool
	initCmd     tea.Cmd
}

// New creates the root model and subscribes it to the poller's batches.
func New(deps Deps) *Model {
	keys := DefaultKeyMap()
	e := engine.New()

	if deps.Gate == nil {
		deps.Gate = alert.NewGate(nil, model.AlertConfig{
			Enabled: true,
			Title:   engine.DefaultAlertTitle,
			Body:    engine.DefaultAlertBody,
		}, deps.Log)
	}

	m := &Model{
		currentView: ViewList,
		keys:        keys,
		engine:      e,
		snap:        e.Snapshot(),
		groupList:   grouplist.New(keys, 80, 20),
		helpView:    helpview.New(keys, 80, 24),
		deps:        deps,
		log:         deps.Log.With().Str("component", "app").Logger(),
		batches:     make(chan appsync.Batch, 8),
		done:        make(chan struct{}),
	}

	if deps.Poller != nil {
		m.unsubscribe = deps.Poller.Subscribe(m.enqueue)
	}
	m.initCmd = m.groupList.SetView(m.snap.View(e.Focused()), false)
	return m
}

// enqueue hands a batch to the update loop. It gives up once the program
// has shut down so the poller's dispatcher never blocks on a dead UI.
func (m *Model) enqueue(b appsync.Batch) {
	select {
	case m.batches <- b:
	case <-m.done:
	}
}

// Close detaches the model from the poller.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

// Engine exposes the engine for inspection.
func (m *Model) Engine() *engine.Engine {
	return m.engine
}

// Init starts listening for batches and ticking the status indicator.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.initCmd, m.waitForBatch(), tickStatus())
}

func (m *Model) waitForBatch() tea.Cmd {
	batches, done := m.batches, m.done
	return func() tea.Msg {
		select {
		case b := <-batches:
			return batchMsg{batch: b}
		case <-done:
			return nil
		}
	}
}

func tickStatus() tea.Cmd {
	return tea.Tick(statusTickInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// Update handles messages and dispatches to the active view.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.groupList.SetSize(m.layout.ContentWidth(), m.listHeight())
		m.helpView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case batchMsg:
		return m, tea.Batch(m.applyBatch(msg.batch), m.waitForBatch())

	case statusTickMsg:
		if m.deps.Poller != nil {
			m.status = m.deps.Poller.Status()
		}
		return m, tickStatus()

	case grouplist.MarkReadMsg:
		m.groupList.MarkLocallyRead(msg.Notification.ID)
		m.engine.MarkViewed(msg.Category)
		m.snap = m.engine.Snapshot()
		return m, m.markRead(msg.Notification.ID)

	case grouplist.ShowLinkMsg:
		m.flash = msg.URL
		return m, nil

	case markReadResultMsg:
		if msg.err != nil {
			m.flash = theme.ErrorStyle.Render("mark read failed: " + msg.err.Error())
		} else {
			m.flash = "marked read"
		}
		return m, nil

	case archivedMsg:
		if msg.err != nil {
			m.log.Error().Err(msg.err).Msg("archiving batch failed")
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = ViewList
		} else {
			m.currentView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = ViewList
			return m, nil
		}
		m.flash = ""
		return m, nil
	}

	if m.currentView != ViewList {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextTab):
		return m, m.focus(m.tabOffset(1))
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.focus(m.tabOffset(-1))
	case key.Matches(msg, m.keys.Tab1):
		return m, m.focus(engine.Tabs[0])
	case key.Matches(msg, m.keys.Tab2):
		return m, m.focus(engine.Tabs[1])
	case key.Matches(msg, m.keys.Tab3):
		return m, m.focus(engine.Tabs[2])
	case key.Matches(msg, m.keys.Refresh):
		m.refresh()
		return m, nil
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m *Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewList:
		m.groupList, cmd = m.groupList.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}
	return m, cmd
}

// applyBatch feeds a batch to the engine and returns the follow-up work:
// the alert and the archive write.
func (m *Model) applyBatch(b appsync.Batch) tea.Cmd {
	res := m.engine.OnBatch(b.Notifications)
	m.snap = res.Snapshot
	cmds := []tea.Cmd{m.groupList.SetView(m.snap.View(m.engine.Focused()), true)}

	m.log.Debug().
		Int("size", len(b.Notifications)).
		Int("added", res.Added).
		Bool("alert", res.Alert).
		Msg("batch applied")

	if res.Alert {
		gate := m.deps.Gate
		cmds = append(cmds, func() tea.Msg {
			gate.Handle(context.Background(), res)
			return nil
		})
	}
	if m.deps.Store != nil {
		cmds = append(cmds, archive(m.deps.Store, b, res.Added))
	}
	return tea.Batch(cmds...)
}

func archive(s store.Store, b appsync.Batch, added int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := s.SaveNotifications(ctx, b.Notifications); err != nil {
			return archivedMsg{err: err}
		}
		_, err := s.RecordBatch(ctx, store.BatchRecord{
			ReceivedAt: b.FetchedAt,
			Size:       len(b.Notifications),
			Added:      added,
		})
		return archivedMsg{err: err}
	}
}

func (m *Model) markRead(id string) tea.Cmd {
	st, src := m.deps.Store, m.deps.Source
	return func() tea.Msg {
		ctx := context.Background()
		if src != nil {
			if err := src.MarkThreadRead(ctx, id); err != nil {
				return markReadResultMsg{id: id, err: err}
			}
		}
		if st != nil {
			if err := st.MarkRead(ctx, id); err != nil {
				return markReadResultMsg{id: id, err: err}
			}
		}
		return markReadResultMsg{id: id}
	}
}

func (m *Model) focus(c engine.Category) tea.Cmd {
	m.engine.Focus(c)
	m.snap = m.engine.Snapshot()
	m.flash = ""
	return m.groupList.SetView(m.snap.View(c), m.snap.Load == engine.Active)
}

func (m *Model) tabOffset(delta int) engine.Category {
	cur := 0
	for i, c := range engine.Tabs {
		if c == m.engine.Focused() {
			cur = i
			break
		}
	}
	n := len(engine.Tabs)
	return engine.Tabs[((cur+delta)%n+n)%n]
}

func (m *Model) refresh() {
	if m.deps.Poller == nil {
		return
	}
	if m.deps.Poller.RefreshNow() {
		m.flash = "refreshing..."
	} else {
		m.flash = "refresh throttled, try again shortly"
	}
}

func (m *Model) listHeight() int {
	return m.layout.ListHeight()
}

// View renders the full terminal UI using the layout manager.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "GitHub Notifications"
	if n := m.snap.DirtyCount(); n > 0 {
		headerTitle = fmt.Sprintf("GitHub Notifications [%d updated]", n)
	}

	header := m.layout.RenderHeader(headerTitle, m.syncStatus(), m.syncState())
	statusBar := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m *Model) renderContent() string {
	if m.currentView == ViewHelp {
		return m.helpView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.groupList.View())
}

// renderTabs draws one tab per category with its count and a marker when
// the category changed since it was last viewed.
func (m *Model) renderTabs() string {
	tabs := make([]ui.Tab, 0, len(engine.Tabs))
	for _, c := range engine.Tabs {
		tabs = append(tabs, ui.Tab{
			Label:  c.Label(),
			Count:  m.snap.View(c).Count(),
			Dirty:  m.snap.Dirty(c),
			Active: c == m.engine.Focused(),
		})
	}
	return m.layout.RenderTabs(tabs)
}

// syncStatus returns a short string describing the poller state.
func (m *Model) syncStatus() string {
	st := m.status
	switch {
	case st.AuthFailed:
		return "auth failed, check token"
	case st.RateLimited:
		return fmt.Sprintf("rate limited, retry in %s", st.Interval.Round(time.Second))
	case st.State == appsync.SyncRunning:
		return "syncing"
	case st.State == appsync.SyncError:
		return "⚠ unreachable"
	case st.LastSync.IsZero():
		return "waiting"
	default:
		return fmt.Sprintf("synced %s, next in %s",
			st.LastSync.Format("15:04:05"),
			st.Interval.Round(time.Second))
	}
}

// syncState maps the poller status to a theme.SyncStyle key.
func (m *Model) syncState() string {
	switch {
	case m.status.AuthFailed, m.status.RateLimited, m.status.State == appsync.SyncError:
		return "error"
	case m.status.State == appsync.SyncRunning:
		return "syncing"
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m *Model) keyHints() string {
	if m.flash != "" {
		return m.flash
	}
	if m.currentView == ViewHelp {
		return "? close help | esc back"
	}
	hints := []string{"tab/1-3 switch", "enter mark read", "o link", "r refresh", "? help", "q quit"}
	return strings.Join(hints, " | ")
}
