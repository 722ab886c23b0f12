package testutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Notification builds an unread notification on owner/repo pull request n.
func Notification(id, reason string, n int, updated time.Time) model.Notification {
	num := strconv.Itoa(n)
	return model.Notification{
		ID:     id,
		Reason: reason,
		Unread: true,
		Subject: model.Subject{
			Title: "Change " + num,
			URL:   "https://api.github.com/repos/owner/repo/pulls/" + num,
			Type:  model.SubjectPullRequest,
		},
		Repository: model.Repository{
			Name:     "repo",
			FullName: "owner/repo",
			HTMLURL:  "https://github.com/owner/repo",
		},
		UpdatedAt: updated,
	}
}
