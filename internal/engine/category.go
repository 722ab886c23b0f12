package engine

import "github.com/nhle/ghnotify/internal/model"

// Category is one of the fixed classification buckets driving the tabs.
type Category string

const (
	CategoryCIActivity      Category = "ci_activity"
	CategoryReviewRequested Category = "review_requested"
	CategoryRest            Category = "rest"
)

// Tabs is the fixed, ordered tab set rendered by the view.
var Tabs = []Category{
	CategoryCIActivity,
	CategoryReviewRequested,
	CategoryRest,
}

// Label returns a display label such as "REVIEW REQUESTED".
func (c Category) Label() string {
	switch c {
	case CategoryCIActivity:
		return "CI ACTIVITY"
	case CategoryReviewRequested:
		return "REVIEW REQUESTED"
	default:
		return "REST"
	}
}

// Involved reports whether notifications in c concern the user directly.
func (c Category) Involved() bool {
	return c == CategoryReviewRequested
}

// Categorize maps a raw reason code to its category. Every input maps to
// exactly one category; unknown reasons land in rest.
func Categorize(reason string) Category {
	switch reason {
	case model.ReasonReviewRequested,
		model.ReasonAssign,
		model.ReasonApprovalRequested,
		model.ReasonParticipating:
		return CategoryReviewRequested
	case model.ReasonCIActivity:
		return CategoryCIActivity
	default:
		return CategoryRest
	}
}

// Partition splits notifications into per-category slices, preserving input
// order. The buckets are disjoint: rest only holds what the other two
// categories did not claim.
func Partition(notifications []model.Notification) map[Category][]model.Notification {
	out := make(map[Category][]model.Notification, len(Tabs))
	for _, c := range Tabs {
		out[c] = nil
	}
	for _, n := range notifications {
		c := Categorize(n.Reason)
		out[c] = append(out[c], n)
	}
	return out
}
