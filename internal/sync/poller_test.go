package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/source"
)

type fakeFetcher struct {
	mu      gosync.Mutex
	results [][]model.Notification
	err     error
	calls   int
	hint    time.Duration
}

func (f *fakeFetcher) FetchNotifications(context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next, nil
}

func (f *fakeFetcher) PollInterval() time.Duration { return f.hint }

func fastConfig() Config {
	return Config{
		BaseInterval:     10 * time.Millisecond,
		MaxInterval:      20 * time.Millisecond,
		BackoffFactor:    1.2,
		ResetAfterEmpty:  10,
		StartupDelay:     0,
		RefreshPerMinute: 60,
	}
}

func TestPoller_PublishesNonEmptyBatches(t *testing.T) {
	f := &fakeFetcher{results: [][]model.Notification{
		{{ID: "1"}},
		nil,
		{{ID: "2"}, {ID: "3"}},
	}}
	p := New(f, fastConfig(), zerolog.Nop())

	got := make(chan Batch, 8)
	unsubscribe := p.Subscribe(func(b Batch) { got <- b })
	defer unsubscribe()

	p.Start(context.Background())
	defer p.Stop()

	first := <-got
	second := <-got

	require.Len(t, first.Notifications, 1)
	assert.Equal(t, "1", first.Notifications[0].ID)
	require.Len(t, second.Notifications, 2)
	assert.Equal(t, "2", second.Notifications[0].ID)
}

func TestPoller_UnsubscribeStopsDelivery(t *testing.T) {
	p := New(&fakeFetcher{}, fastConfig(), zerolog.Nop())

	var mu gosync.Mutex
	var seen []string
	unsubscribe := p.Subscribe(func(b Batch) {
		mu.Lock()
		seen = append(seen, b.Notifications[0].ID)
		mu.Unlock()
	})

	p.publish(Batch{Notifications: []model.Notification{{ID: "a"}}})
	unsubscribe()
	unsubscribe()
	p.publish(Batch{Notifications: []model.Notification{{ID: "b"}}})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a"}, seen)
}

func TestPoller_AfterPollBackoff(t *testing.T) {
	cfg := Config{
		BaseInterval:    60 * time.Second,
		MaxInterval:     200 * time.Second,
		BackoffFactor:   1.2,
		ResetAfterEmpty: 10,
	}
	p := New(&fakeFetcher{}, cfg, zerolog.Nop())

	assert.Equal(t, 72*time.Second, p.afterPoll(0))
	assert.InDelta(t, float64(86400*time.Millisecond), float64(p.afterPoll(0)), float64(time.Millisecond))

	for i := 0; i < 6; i++ {
		p.afterPoll(0)
	}
	assert.Equal(t, 200*time.Second, p.afterPoll(0), "capped at max interval")
	assert.Equal(t, 9, p.Status().EmptyStreak)

	assert.Equal(t, 60*time.Second, p.afterPoll(0), "reset after ten empty polls")
	assert.Equal(t, 0, p.Status().EmptyStreak)

	p.afterPoll(0)
	assert.Equal(t, 60*time.Second, p.afterPoll(3), "content resets to base")
}

func TestPoller_AfterPollHonorsUpstreamHint(t *testing.T) {
	f := &fakeFetcher{hint: 90 * time.Second}
	p := New(f, Config{BaseInterval: 60 * time.Second, MaxInterval: 200 * time.Second}, zerolog.Nop())

	assert.Equal(t, 90*time.Second, p.afterPoll(1))
}

func TestPoller_RecordsAuthFailure(t *testing.T) {
	f := &fakeFetcher{err: &source.AuthError{SourceType: source.SourceTypeGitHub, Message: "401"}}
	p := New(f, fastConfig(), zerolog.Nop())

	_, err := p.PollOnce(context.Background())

	require.Error(t, err)
	st := p.Status()
	assert.Equal(t, SyncError, st.State)
	assert.True(t, st.AuthFailed)
}

func TestPoller_RateLimitSlowsDown(t *testing.T) {
	f := &fakeFetcher{err: fmt.Errorf("max retries (3) exceeded: %w",
		&source.RateLimitError{SourceType: source.SourceTypeGitHub, Method: "GET", Path: "/notifications"})}
	cfg := fastConfig()
	p := New(f, cfg, zerolog.Nop())

	_, err := p.PollOnce(context.Background())
	require.Error(t, err)

	st := p.Status()
	assert.True(t, st.RateLimited)
	assert.False(t, st.AuthFailed)
	assert.Equal(t, cfg.MaxInterval, p.afterError(err))
	assert.Equal(t, cfg.MaxInterval, p.Status().Interval)

	assert.Equal(t, cfg.MaxInterval, p.afterError(errors.New("connection refused")),
		"other errors keep the current interval")
}

func TestPoller_PollOnce(t *testing.T) {
	f := &fakeFetcher{results: [][]model.Notification{{{ID: "1"}}}}
	p := New(f, fastConfig(), zerolog.Nop())

	var delivered int
	p.Subscribe(func(b Batch) { delivered += len(b.Notifications) })

	batch, err := p.PollOnce(context.Background())

	require.NoError(t, err)
	assert.Len(t, batch.Notifications, 1)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.False(t, p.Status().LastSync.IsZero())
}

func TestPoller_RefreshNowIsThrottled(t *testing.T) {
	cfg := fastConfig()
	cfg.RefreshPerMinute = 1
	p := New(&fakeFetcher{}, cfg, zerolog.Nop())

	assert.True(t, p.RefreshNow())
	assert.False(t, p.RefreshNow())
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	p := New(&fakeFetcher{err: errors.New("offline")}, fastConfig(), zerolog.Nop())

	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
