package engine

import "github.com/nhle/ghnotify/internal/model"

// Group clusters notifications that share a subject title and repository.
type Group struct {
	// Key is subjectTitle + "_" + repositoryFullName.
	Key string

	// Title is the shared subject title.
	Title string

	// Count is the number of notifications folded into the group.
	Count int

	// Members holds the first-seen representative only. Later occurrences
	// bump Count without being appended; the view links to Members[0].
	Members []model.Notification
}

// Representative returns the first-seen member of the group.
func (g Group) Representative() model.Notification {
	if len(g.Members) == 0 {
		return model.Notification{}
	}
	return g.Members[0]
}

// Grouping is an insertion-ordered mapping from group key to Group.
type Grouping struct {
	keys  []string
	byKey map[string]Group
}

// GroupKey returns the composite grouping key of a notification.
func GroupKey(n model.Notification) string {
	return n.SubjectTitle() + "_" + n.RepositoryFullName()
}

// GroupByKey clusters notifications by GroupKey, iterating in input order.
func GroupByKey(notifications []model.Notification) *Grouping {
	g := &Grouping{byKey: make(map[string]Group)}

	for _, n := range notifications {
		key := GroupKey(n)
		existing, ok := g.byKey[key]
		if !ok {
			g.keys = append(g.keys, key)
			g.byKey[key] = Group{
				Key:     key,
				Title:   n.SubjectTitle(),
				Count:   1,
				Members: []model.Notification{n},
			}
			continue
		}
		existing.Count++
		g.byKey[key] = existing
	}

	return g
}

// Len returns the number of groups.
func (g *Grouping) Len() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

// Keys returns the group keys in first-seen order.
func (g *Grouping) Keys() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Get looks up a group by key.
func (g *Grouping) Get(key string) (Group, bool) {
	if g == nil {
		return Group{}, false
	}
	grp, ok := g.byKey[key]
	return grp, ok
}

// Groups returns all groups in first-seen order.
func (g *Grouping) Groups() []Group {
	if g == nil {
		return nil
	}
	out := make([]Group, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, g.byKey[k])
	}
	return out
}
