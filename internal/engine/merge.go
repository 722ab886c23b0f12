package engine

import "github.com/nhle/ghnotify/internal/model"

// Merge folds an incoming batch into the existing working set.
//
// Items of incoming whose ID is already present in existing are dropped.
// When nothing is left, existing is returned as is (same backing array), so
// callers can compare lengths to skip recomputation. Otherwise the new items
// are placed first, in batch order, followed by existing.
//
// Duplicate IDs inside incoming itself are not collapsed.
func Merge(existing, incoming []model.Notification) []model.Notification {
	if len(incoming) == 0 {
		return existing
	}

	known := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		known[n.ID] = struct{}{}
	}

	var fresh []model.Notification
	for _, n := range incoming {
		if _, ok := known[n.ID]; ok {
			continue
		}
		fresh = append(fresh, n)
	}

	if len(fresh) == 0 {
		return existing
	}

	merged := make([]model.Notification, 0, len(fresh)+len(existing))
	merged = append(merged, fresh...)
	merged = append(merged, existing...)
	return merged
}
