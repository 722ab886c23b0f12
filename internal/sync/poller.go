package sync

import (
	"context"
	"math"
	"sort"
	gosync "sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/source"
)

// SyncState represents the current state of the poll loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// Status is a point-in-time view of the poller.
type Status struct {
	State       SyncState
	LastSync    time.Time
	LastError   error
	AuthFailed  bool
	RateLimited bool
	Interval    time.Duration
	EmptyStreak int
}

// Batch is one non-empty fetch result delivered to subscribers.
type Batch struct {
	Notifications []model.Notification
	FetchedAt     time.Time
}

// BatchHandler receives batches. Handlers run on the poller's dispatch
// goroutine, one batch at a time.
type BatchHandler func(Batch)

// Fetcher is the upstream the poller pulls from.
type Fetcher interface {
	FetchNotifications(ctx context.Context) ([]model.Notification, error)
}

// intervalHinter is implemented by fetchers that learn a minimum poll
// interval from the upstream (GitHub's X-Poll-Interval).
type intervalHinter interface {
	PollInterval() time.Duration
}

// Config tunes the poll loop.
type Config struct {
	BaseInterval     time.Duration
	MaxInterval      time.Duration
	BackoffFactor    float64
	ResetAfterEmpty  int
	StartupDelay     time.Duration
	FetchTimeout     time.Duration
	RefreshPerMinute int
}

// DefaultConfig mirrors the cadence of the desktop client: poll every
// minute, back off by 20% per empty poll up to 200s.
func DefaultConfig() Config {
	return Config{
		BaseInterval:     60 * time.Second,
		MaxInterval:      200 * time.Second,
		BackoffFactor:    1.2,
		ResetAfterEmpty:  10,
		StartupDelay:     3 * time.Second,
		FetchTimeout:     30 * time.Second,
		RefreshPerMinute: 6,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseInterval <= 0 {
		c.BaseInterval = d.BaseInterval
	}
	if c.MaxInterval < c.BaseInterval {
		c.MaxInterval = c.BaseInterval
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = d.BackoffFactor
	}
	if c.ResetAfterEmpty <= 0 {
		c.ResetAfterEmpty = d.ResetAfterEmpty
	}
	if c.StartupDelay < 0 {
		c.StartupDelay = 0
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.RefreshPerMinute <= 0 {
		c.RefreshPerMinute = d.RefreshPerMinute
	}
	return c
}

// Poller polls a Fetcher on an adaptive interval and publishes non-empty
// batches to its subscribers.
type Poller struct {
	fetcher Fetcher
	log     zerolog.Logger

	mu       gosync.Mutex
	cfg      Config
	backoff  *backoff.ExponentialBackOff
	limiter  *rate.Limiter
	status   Status
	handlers map[int]BatchHandler
	nextID   int
	running  bool
	cancel   context.CancelFunc
	wg       gosync.WaitGroup

	batchCh   chan Batch
	triggerCh chan struct{}
}

// New creates a new Poller for the given fetcher.
func New(f Fetcher, cfg Config, log zerolog.Logger) *Poller {
	p := &Poller{
		fetcher:   f,
		log:       log.With().Str("component", "poller").Logger(),
		handlers:  make(map[int]BatchHandler),
		batchCh:   make(chan Batch, 16),
		triggerCh: make(chan struct{}, 1),
	}
	p.applyLocked(cfg)
	return p
}

// Apply swaps the poll configuration; it takes effect on the next poll.
func (p *Poller) Apply(cfg Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(cfg)
}

func (p *Poller) applyLocked(cfg Config) {
	cfg = cfg.withDefaults()
	p.cfg = cfg

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(math.Round(float64(cfg.BaseInterval) * cfg.BackoffFactor))
	b.Multiplier = cfg.BackoffFactor
	b.MaxInterval = cfg.MaxInterval
	b.RandomizationFactor = 0
	b.Reset()
	p.backoff = b

	p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RefreshPerMinute)), 1)
	p.status.Interval = cfg.BaseInterval
	p.status.EmptyStreak = 0
}

// Subscribe registers a batch handler and returns its disposer. Calling the
// disposer more than once is harmless.
func (p *Poller) Subscribe(h BatchHandler) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = h
	p.mu.Unlock()

	var once gosync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.handlers, id)
			p.mu.Unlock()
		})
	}
}

// Start launches the poll and dispatch goroutines. It is a no-op when the
// poller is already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	p.wg.Add(2)
	go p.pollLoop(ctx)
	go p.dispatchLoop(ctx)
}

// Stop halts the poller and waits for its goroutines to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// RefreshNow asks for an immediate poll. It returns false when the request
// was throttled or a poll is already pending.
func (p *Poller) RefreshNow() bool {
	p.mu.Lock()
	limiter := p.limiter
	p.mu.Unlock()

	if !limiter.Allow() {
		p.log.Debug().Msg("manual refresh throttled")
		return false
	}

	select {
	case p.triggerCh <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns the current poll status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// PollOnce fetches once and publishes the result synchronously to the
// subscribers, bypassing the schedule. Used by one-shot runs.
func (p *Poller) PollOnce(ctx context.Context) (Batch, error) {
	batch, err := p.fetch(ctx)
	if err != nil {
		return Batch{}, err
	}
	if len(batch.Notifications) > 0 {
		p.publish(batch)
	}
	return batch, nil
}

// pollLoop waits for the start-up delay and then polls on the adaptive
// interval until ctx is cancelled.
func (p *Poller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	p.mu.Lock()
	wait := p.cfg.StartupDelay
	p.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.triggerCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		batch, err := p.fetch(ctx)
		var next time.Duration
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			next = p.afterError(err)
		} else {
			next = p.afterPoll(len(batch.Notifications))
			if len(batch.Notifications) > 0 {
				select {
				case p.batchCh <- batch:
				case <-ctx.Done():
					return
				}
			}
		}

		timer.Reset(next)
	}
}

// dispatchLoop hands batches to subscribers sequentially.
func (p *Poller) dispatchLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-p.batchCh:
			p.publish(batch)
		}
	}
}

func (p *Poller) publish(batch Batch) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.handlers))
	for id := range p.handlers {
		ids = append(ids, id)
	}
	handlers := make([]BatchHandler, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, p.handlers[id])
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(batch)
	}
}

// fetch performs a single fetch and records the outcome in the status.
func (p *Poller) fetch(ctx context.Context) (Batch, error) {
	p.setState(SyncRunning, nil)

	p.mu.Lock()
	timeout := p.cfg.FetchTimeout
	p.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	notifications, err := p.fetcher.FetchNotifications(fetchCtx)
	if err != nil {
		p.setState(SyncError, err)
		event := p.log.Error()
		if source.IsAuthError(err) {
			event = event.Bool("auth", true)
		}
		if source.IsRateLimitError(err) {
			event = event.Bool("rate_limited", true)
		}
		event.Err(err).Msg("fetching notifications failed")
		return Batch{}, err
	}

	p.setState(SyncIdle, nil)
	p.log.Debug().
		Int("count", len(notifications)).
		Dur("took", time.Since(start)).
		Msg("fetched notifications")

	return Batch{Notifications: notifications, FetchedAt: time.Now()}, nil
}

// afterPoll advances the backoff state after a successful poll that
// returned n notifications and returns the delay until the next poll.
func (p *Poller) afterPoll(n int) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > 0 {
		p.backoff.Reset()
		p.status.EmptyStreak = 0
		p.status.Interval = p.cfg.BaseInterval
	} else {
		p.status.EmptyStreak++
		p.status.Interval = p.backoff.NextBackOff()
		p.log.Debug().
			Int("empty_streak", p.status.EmptyStreak).
			Dur("interval", p.status.Interval).
			Msg("no notifications, backing off")

		if p.status.EmptyStreak >= p.cfg.ResetAfterEmpty {
			p.backoff.Reset()
			p.status.EmptyStreak = 0
			p.status.Interval = p.cfg.BaseInterval
		}
	}

	if h, ok := p.fetcher.(intervalHinter); ok {
		if floor := h.PollInterval(); p.status.Interval < floor {
			p.status.Interval = floor
		}
	}

	return p.status.Interval
}

// afterError returns the delay after a failed poll. An exhausted quota
// waits the maximum interval; anything else retries on the current one.
func (p *Poller) afterError(err error) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if source.IsRateLimitError(err) {
		p.status.Interval = p.cfg.MaxInterval
		p.log.Warn().Dur("interval", p.status.Interval).Msg("rate limited, slowing down")
	}
	return p.status.Interval
}

// setState updates the sync state.
func (p *Poller) setState(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.LastError = err
	p.status.AuthFailed = err != nil && source.IsAuthError(err)
	p.status.RateLimited = err != nil && source.IsRateLimitError(err)
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}
