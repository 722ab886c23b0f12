package github

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/source"
)

// Adapter implements source.Source for the GitHub notifications API.
type Adapter struct {
	client   *Client
	exclude  map[string]bool
	pageSize int
	now      func() time.Time

	mu           sync.Mutex
	since        time.Time
	pollInterval time.Duration
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithExcludedReasons drops notifications whose reason is listed.
func WithExcludedReasons(reasons ...string) Option {
	return func(a *Adapter) {
		a.exclude = make(map[string]bool, len(reasons))
		for _, r := range reasons {
			a.exclude[r] = true
		}
	}
}

// WithClock overrides the clock used for the since cursor.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter creates a new GitHub source adapter. By default notifications
// the user authored are dropped.
func NewAdapter(baseURL, token string, opts ...Option) *Adapter {
	a := &Adapter{
		client:   NewClient(baseURL, token),
		exclude:  map[string]bool{model.ReasonAuthor: true},
		pageSize: 50,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type returns the source type identifier for GitHub.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeGitHub
}

// ValidateConnection verifies the token by fetching the authenticated user.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var user User
	if _, err := a.client.Get(ctx, "/user", &user); err != nil {
		return "", fmt.Errorf("validating GitHub connection: %w", err)
	}
	if user.Login == "" {
		return "", fmt.Errorf("GET /user returned empty login; token may be invalid")
	}
	return user.Login, nil
}

// FetchNotifications retrieves every notification thread updated since the
// previous successful call, following pagination. Excluded reasons are
// dropped and the result is sorted newest first.
func (a *Adapter) FetchNotifications(ctx context.Context) ([]model.Notification, error) {
	requestedAt := a.now().UTC()

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(a.pageSize))
	if since := a.Since(); !since.IsZero() {
		query.Set("since", since.Format(time.RFC3339))
	}

	var threads []Thread
	next := "/notifications?" + query.Encode()
	var pollInterval time.Duration

	for next != "" {
		var page []Thread
		resp, err := a.client.Get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("fetching notifications: %w", err)
		}
		threads = append(threads, page...)

		if pollInterval == 0 {
			pollInterval = parsePollInterval(resp.Header.Get("X-Poll-Interval"))
		}
		next = nextPageURL(resp.Header)
	}

	notifications := make([]model.Notification, 0, len(threads))
	for _, t := range threads {
		if a.exclude[t.Reason] {
			continue
		}
		notifications = append(notifications, threadToNotification(t))
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].UpdatedAt.After(notifications[j].UpdatedAt)
	})

	a.mu.Lock()
	a.since = requestedAt
	if pollInterval > 0 {
		a.pollInterval = pollInterval
	}
	a.mu.Unlock()

	return notifications, nil
}

// MarkThreadRead marks a notification thread as read on GitHub.
func (a *Adapter) MarkThreadRead(ctx context.Context, id string) error {
	if _, err := a.client.Patch(ctx, "/notifications/threads/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("marking thread %s read: %w", id, err)
	}
	return nil
}

// Since returns the cursor sent with the next fetch.
func (a *Adapter) Since() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.since
}

// PollInterval returns the minimum poll interval GitHub asked for, or zero.
func (a *Adapter) PollInterval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pollInterval
}

// threadToNotification converts a GitHub Thread to a model.Notification.
func threadToNotification(t Thread) model.Notification {
	return model.Notification{
		ID:     t.ID,
		Reason: t.Reason,
		Subject: model.Subject{
			Title: t.Subject.Title,
			URL:   t.Subject.URL,
			Type:  t.Subject.Type,
		},
		Repository: model.Repository{
			Name:     t.Repository.Name,
			FullName: t.Repository.FullName,
			HTMLURL:  t.Repository.HTMLURL,
		},
		Unread:    t.Unread,
		UpdatedAt: t.UpdatedAt,
	}
}

func parsePollInterval(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
