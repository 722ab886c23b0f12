// Package engine reconciles batches of notifications into a deduplicated,
// categorized and grouped view, tracks unseen changes per category and
// decides when the user should be alerted.
//
// The engine is single-threaded: callers deliver batches one at a time and
// no method may be called concurrently. Snapshots handed out are never
// mutated afterwards.
package engine

import "github.com/nhle/ghnotify/internal/model"

// CategoryView is the derived content of one tab.
type CategoryView struct {
	Category Category
	Items    []model.Notification
	Groups   *Grouping
}

// Count returns the number of notifications in the category.
func (v CategoryView) Count() int {
	return len(v.Items)
}

// Snapshot is an immutable picture of the engine state after a batch.
type Snapshot struct {
	Notifications []model.Notification
	Views         []CategoryView
	States        []CategoryCountState
	Load          LoadState
}

// View returns the view of category c.
func (s Snapshot) View(c Category) CategoryView {
	for _, v := range s.Views {
		if v.Category == c {
			return v
		}
	}
	return CategoryView{Category: c}
}

// Dirty reports whether category c has unseen changes.
func (s Snapshot) Dirty(c Category) bool {
	if i := findState(s.States, c); i >= 0 {
		return s.States[i].Dirty
	}
	return false
}

// DirtyCount returns the number of dirty categories.
func (s Snapshot) DirtyCount() int {
	n := 0
	for _, st := range s.States {
		if st.Dirty {
			n++
		}
	}
	return n
}

// Result describes the outcome of one OnBatch call.
type Result struct {
	// Added is the number of notifications the merge introduced.
	Added int

	// Alert is true when the caller should notify the user.
	Alert bool

	Snapshot Snapshot
}

// Engine holds the reconciliation state for the lifetime of the process.
type Engine struct {
	notifications []model.Notification
	views         []CategoryView
	states        []CategoryCountState
	primed        map[Category]bool
	load          LoadState
	focus         Category
}

// New creates an empty engine focused on the first tab.
func New() *Engine {
	e := &Engine{
		states: InitialStates(),
		primed: make(map[Category]bool, len(Tabs)),
		focus:  Tabs[0],
	}
	e.views = buildViews(nil)
	return e
}

// OnBatch ingests one batch of notifications.
func (e *Engine) OnBatch(batch []model.Notification) Result {
	merged := Merge(e.notifications, batch)
	added := len(merged) - len(e.notifications)

	alert := ShouldAlert(e.load == Active, added > 0)

	if added > 0 {
		e.notifications = merged
		e.views = buildViews(merged)
		e.states = UpdateDirtiness(e.states, countsOf(e.views))
		e.primeNonEmpty()
	}

	e.load = e.load.advance(len(e.notifications) > 0)

	return Result{
		Added:    added,
		Alert:    alert,
		Snapshot: e.Snapshot(),
	}
}

// primeNonEmpty clears the dirty flag once per category, the first time the
// category holds content.
func (e *Engine) primeNonEmpty() {
	for _, v := range e.views {
		if v.Count() == 0 || e.primed[v.Category] {
			continue
		}
		e.primed[v.Category] = true
		e.setViewed(v.Category)
	}
}

// Focus records that the user switched to category c. Its dirty flag is
// cleared when the category has content.
func (e *Engine) Focus(c Category) {
	e.focus = c
	if e.Count(c) > 0 {
		e.setViewed(c)
	}
}

// Focused returns the category the user is looking at.
func (e *Engine) Focused() Category {
	return e.focus
}

// MarkViewed clears the dirty flag of category c.
func (e *Engine) MarkViewed(c Category) {
	e.setViewed(c)
}

func (e *Engine) setViewed(c Category) {
	i := findState(e.states, c)
	if i < 0 {
		return
	}
	next := make([]CategoryCountState, len(e.states))
	copy(next, e.states)
	next[i] = MarkViewed(next[i], e.Count(c))
	e.states = next
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Notifications: e.notifications,
		Views:         e.views,
		States:        e.states,
		Load:          e.load,
	}
}

// Notifications returns the deduplicated working set, newest merge first.
func (e *Engine) Notifications() []model.Notification {
	return e.notifications
}

// Groups returns the grouping of category c.
func (e *Engine) Groups(c Category) *Grouping {
	return e.Snapshot().View(c).Groups
}

// Count returns the number of notifications in category c.
func (e *Engine) Count(c Category) int {
	return e.Snapshot().View(c).Count()
}

// Dirty reports whether category c has unseen changes.
func (e *Engine) Dirty(c Category) bool {
	return e.Snapshot().Dirty(c)
}

// FirstLoadComplete reports whether content has been observed at least once.
func (e *Engine) FirstLoadComplete() bool {
	return e.load == Active
}

func buildViews(notifications []model.Notification) []CategoryView {
	parts := Partition(notifications)
	views := make([]CategoryView, 0, len(Tabs))
	for _, c := range Tabs {
		views = append(views, CategoryView{
			Category: c,
			Items:    parts[c],
			Groups:   GroupByKey(parts[c]),
		})
	}
	return views
}

func countsOf(views []CategoryView) map[Category]int {
	counts := make(map[Category]int, len(views))
	for _, v := range views {
		counts[v.Category] = v.Count()
	}
	return counts
}
