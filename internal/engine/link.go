package engine

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nhle/ghnotify/internal/model"
)

// NoLink is returned when no deep link can be derived.
const NoLink = "#"

// DeepLink derives the browser URL for a notification shown in category c.
//
// For involved categories the link has the form
// {origin}/{full_name}/{pull|issues}/{number}, where number is the numeric
// tail of the subject API URL. An unparseable tail yields NoLink.
// Other categories use the same derivation when possible and fall back to
// the repository page.
func DeepLink(c Category, n model.Notification) string {
	link := subjectLink(n)
	if c.Involved() || link != NoLink {
		return link
	}
	if n.RepositoryHTMLURL() != "" {
		return n.RepositoryHTMLURL()
	}
	return NoLink
}

func subjectLink(n model.Notification) string {
	num, ok := trailingNumber(n.SubjectURL())
	if !ok {
		return NoLink
	}

	origin, ok := originOf(n.RepositoryHTMLURL())
	if !ok {
		return NoLink
	}

	kind := "issues"
	if n.Subject.Type == model.SubjectPullRequest ||
		strings.Contains(n.SubjectURL(), "/pulls/") {
		kind = "pull"
	}

	return origin + "/" + n.RepositoryFullName() + "/" + kind + "/" + strconv.FormatUint(num, 10)
}

// trailingNumber parses the last path segment of raw as an unsigned integer.
func trailingNumber(raw string) (uint64, bool) {
	raw = strings.TrimRight(raw, "/")
	idx := strings.LastIndex(raw, "/")
	if idx < 0 || idx == len(raw)-1 {
		return 0, false
	}
	num, err := strconv.ParseUint(raw[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

// originOf returns scheme://host of raw.
func originOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}
