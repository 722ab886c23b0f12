package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/ghnotify/internal/model"
)

// AuthError indicates that authentication has failed or expired for a source.
// It is returned by source clients when a 401 response is received.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// RateLimitError is returned when the upstream quota is exhausted and the
// retry budget has been spent.
type RateLimitError struct {
	SourceType SourceType
	Method     string
	Path       string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (%s) on %s %s", e.SourceType, e.Method, e.Path)
}

// IsRateLimitError reports whether err (or any error in its chain) is a
// RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// SourceType identifies the kind of external source integration.
type SourceType string

const (
	SourceTypeGitHub SourceType = "github"
)

// Source is the contract of an upstream notification feed.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message (e.g. the login) on success.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchNotifications retrieves the notifications that changed since the
	// previous successful fetch, newest first.
	FetchNotifications(ctx context.Context) ([]model.Notification, error)

	// MarkThreadRead marks a single notification thread as read upstream.
	MarkThreadRead(ctx context.Context, id string) error
}
