package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/store"
	"github.com/nhle/ghnotify/tests/testutil"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSaveNotifications_Upserts(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveNotifications(ctx, []model.Notification{
		testutil.Notification("1", model.ReasonCIActivity, 1, t0),
		testutil.Notification("2", model.ReasonReviewRequested, 2, t0.Add(time.Minute)),
	}))

	updated := testutil.Notification("1", model.ReasonCIActivity, 1, t0.Add(2*time.Minute))
	updated.Unread = false
	require.NoError(t, s.SaveNotifications(ctx, []model.Notification{updated}))

	got, err := s.GetNotifications(ctx, store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ID, "newest update first")
	assert.False(t, got[0].Unread)
	assert.True(t, got[0].UpdatedAt.Equal(t0.Add(2*time.Minute)))
	assert.Equal(t, "owner/repo", got[0].RepositoryFullName())
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, model.SubjectPullRequest, got[1].Subject.Type)
}

func TestSaveNotifications_Empty(t *testing.T) {
	s := testutil.NewTestStore(t)
	assert.NoError(t, s.SaveNotifications(context.Background(), nil))
}

func TestGetNotifications_Filters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveNotifications(ctx, []model.Notification{
		testutil.Notification("1", model.ReasonCIActivity, 1, t0),
		testutil.Notification("2", model.ReasonReviewRequested, 2, t0.Add(time.Minute)),
		testutil.Notification("3", model.ReasonCIActivity, 3, t0.Add(2*time.Minute)),
	}))
	require.NoError(t, s.MarkRead(ctx, "3"))

	reason := model.ReasonCIActivity
	got, err := s.GetNotifications(ctx, store.NotificationFilter{Reason: &reason})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.GetNotifications(ctx, store.NotificationFilter{Reason: &reason, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got, err = s.GetNotifications(ctx, store.NotificationFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got, err = s.GetNotifications(ctx, store.NotificationFilter{Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 2, "offset without a limit skips only the first rows")
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "1", got[1].ID)

	repo := "owner/repo"
	got, err = s.GetNotifications(ctx, store.NotificationFilter{Repository: &repo, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMarkRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveNotifications(ctx, []model.Notification{
		testutil.Notification("1", model.ReasonMention, 1, t0),
		testutil.Notification("2", model.ReasonMention, 2, t0),
	}))

	require.NoError(t, s.MarkRead(ctx, "1"))
	require.NoError(t, s.MarkRead(ctx, "missing"))

	n, err := s.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetNotifications(ctx, store.NotificationFilter{})
	require.NoError(t, err)
	for _, r := range got {
		if r.ID == "1" {
			assert.False(t, r.Unread)
			assert.NotNil(t, r.ReadTime)
		} else {
			assert.True(t, r.Unread)
			assert.Nil(t, r.ReadTime)
		}
	}
}

func TestMarkRead_UnreadAgainClearsReadTime(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	n := testutil.Notification("1", model.ReasonComment, 1, t0)
	require.NoError(t, s.SaveNotifications(ctx, []model.Notification{n}))
	require.NoError(t, s.MarkRead(ctx, "1"))

	n.UpdatedAt = t0.Add(time.Hour)
	require.NoError(t, s.SaveNotifications(ctx, []model.Notification{n}))

	got, err := s.GetNotifications(ctx, store.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ReadTime)
}

func TestRecordBatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first, err := s.RecordBatch(ctx, store.BatchRecord{ReceivedAt: t0, Size: 5, Added: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = s.RecordBatch(ctx, store.BatchRecord{ReceivedAt: t0.Add(time.Minute), Size: 2, Added: 1})
	require.NoError(t, err)

	got, err := s.RecentBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Added)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, 5, got[1].Size)

	got, err = s.RecentBatches(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
