package engine

// CategoryCountState is the per-category bookkeeping behind the dirty marker.
type CategoryCountState struct {
	Key           Category
	LastSeenCount int
	Dirty         bool
}

// InitialStates returns a clean state for every tab.
func InitialStates() []CategoryCountState {
	states := make([]CategoryCountState, 0, len(Tabs))
	for _, c := range Tabs {
		states = append(states, CategoryCountState{Key: c})
	}
	return states
}

// UpdateDirtiness compares each tracked category's current count with the
// count recorded when it was last viewed and flags the ones that differ.
// It only ever sets Dirty; clearing is MarkViewed's job. Categories missing
// from prev are not tracked. prev is not modified.
func UpdateDirtiness(
	prev []CategoryCountState,
	counts map[Category]int,
) []CategoryCountState {
	next := make([]CategoryCountState, len(prev))
	for i, st := range prev {
		if counts[st.Key] != st.LastSeenCount {
			st.Dirty = true
		}
		next[i] = st
	}
	return next
}

// MarkViewed clears the dirty flag and records count as the last seen count.
func MarkViewed(st CategoryCountState, count int) CategoryCountState {
	st.Dirty = false
	st.LastSeenCount = count
	return st
}

// findState returns the index of the state for c, or -1.
func findState(states []CategoryCountState, c Category) int {
	for i, st := range states {
		if st.Key == c {
			return i
		}
	}
	return -1
}
