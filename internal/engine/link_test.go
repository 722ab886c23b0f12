package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/ghnotify/internal/model"
)

func TestDeepLink(t *testing.T) {
	repo := model.Repository{FullName: "o/r", HTMLURL: "https://github.com/o/r"}

	tests := []struct {
		name     string
		category Category
		subject  model.Subject
		want     string
	}{
		{
			name:     "pull request",
			category: CategoryReviewRequested,
			subject:  model.Subject{URL: "https://api.github.com/repos/o/r/pulls/42"},
			want:     "https://github.com/o/r/pull/42",
		},
		{
			name:     "issue",
			category: CategoryReviewRequested,
			subject:  model.Subject{URL: "https://api.github.com/repos/o/r/issues/7", Type: model.SubjectIssue},
			want:     "https://github.com/o/r/issues/7",
		},
		{
			name:     "unparseable tail",
			category: CategoryReviewRequested,
			subject:  model.Subject{URL: "https://api.github.com/repos/o/r/pulls/abc"},
			want:     NoLink,
		},
		{
			name:     "empty url",
			category: CategoryReviewRequested,
			want:     NoLink,
		},
		{
			name:     "rest falls back to repository",
			category: CategoryRest,
			subject:  model.Subject{URL: "https://api.github.com/repos/o/r/releases/latest"},
			want:     "https://github.com/o/r",
		},
		{
			name:     "ci activity with numeric tail",
			category: CategoryCIActivity,
			subject:  model.Subject{URL: "https://api.github.com/repos/o/r/issues/3"},
			want:     "https://github.com/o/r/issues/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := model.Notification{ID: "1", Subject: tt.subject, Repository: repo}
			assert.Equal(t, tt.want, DeepLink(tt.category, n))
		})
	}
}

func TestDeepLink_EnterpriseOrigin(t *testing.T) {
	n := model.Notification{
		Subject: model.Subject{URL: "https://ghe.example.com/api/v3/repos/team/svc/pulls/9"},
		Repository: model.Repository{
			FullName: "team/svc",
			HTMLURL:  "https://ghe.example.com/team/svc",
		},
	}

	assert.Equal(t, "https://ghe.example.com/team/svc/pull/9", DeepLink(CategoryReviewRequested, n))
}
