package model

import "time"

// Notification reasons reported by the GitHub notifications API.
// See: https://docs.github.com/en/rest/activity/notifications
const (
	ReasonAssign            = "assign"
	ReasonAuthor            = "author"
	ReasonApprovalRequested = "approval_requested"
	ReasonCIActivity        = "ci_activity"
	ReasonComment           = "comment"
	ReasonMention           = "mention"
	ReasonParticipating     = "participating"
	ReasonReviewRequested   = "review_requested"
	ReasonStateChange       = "state_change"
	ReasonSubscribed        = "subscribed"
)

// Subject types reported for a notification subject.
const (
	SubjectIssue       = "Issue"
	SubjectPullRequest = "PullRequest"
	SubjectRelease     = "Release"
	SubjectDiscussion  = "Discussion"
	SubjectCheckSuite  = "CheckSuite"
)

// Notification is one activity item delivered by the upstream source.
type Notification struct {
	// ID is the thread identifier; it is stable across polls and is the
	// dedup key of the working set.
	ID string `json:"id"`

	// Reason is the raw classification code (e.g. "review_requested").
	Reason string `json:"reason"`

	// Subject is the thing the notification concerns.
	Subject Subject `json:"subject"`

	// Repository is the owning repository.
	Repository Repository `json:"repository"`

	// Unread mirrors the upstream read state at fetch time.
	Unread bool `json:"unread"`

	// UpdatedAt is the upstream last-activity timestamp.
	UpdatedAt time.Time `json:"updated_at"`
}

// Subject describes the issue, pull request, release, etc. behind a
// notification.
type Subject struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// Repository identifies the repository a notification belongs to.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

func (n Notification) SubjectTitle() string       { return n.Subject.Title }
func (n Notification) SubjectURL() string         { return n.Subject.URL }
func (n Notification) RepositoryFullName() string { return n.Repository.FullName }
func (n Notification) RepositoryHTMLURL() string  { return n.Repository.HTMLURL }
