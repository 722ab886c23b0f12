package engine

// LoadState is the first-load state of the alert trigger.
type LoadState int

const (
	// AwaitingFirstLoad holds until the view first has content; no alert
	// is ever emitted in this state.
	AwaitingFirstLoad LoadState = iota

	// Active is terminal: every merge that adds items alerts.
	Active
)

func (s LoadState) String() string {
	if s == Active {
		return "active"
	}
	return "awaiting_first_load"
}

// Default alert text.
const (
	DefaultAlertTitle = "Yo"
	DefaultAlertBody  = "There is a new github activity"
)

// ShouldAlert reports whether a merge warrants a user alert.
func ShouldAlert(firstLoadComplete, mergeProducedNewItems bool) bool {
	return firstLoadComplete && mergeProducedNewItems
}

// advance moves the state machine forward when content is observed.
func (s LoadState) advance(hasContent bool) LoadState {
	if s == AwaitingFirstLoad && hasContent {
		return Active
	}
	return s
}
