// Package alert delivers the "new activity" signal to the user.
package alert

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/model"
)

// ErrPermissionDenied is returned when the notifier is not allowed to show
// alerts on this system.
var ErrPermissionDenied = errors.New("alert permission denied")

// Notifier shows a user-visible alert.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Nop discards alerts.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

// Multi fans an alert out to several notifiers. Every notifier is tried;
// the errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory builds the notifier for an alert config. It is called lazily,
// the first time an enabled alert fires, and again after the config
// changes or a previous build failed.
type Factory func(cfg model.AlertConfig) (Notifier, error)

// Static returns a factory that always hands out n.
func Static(n Notifier) Factory {
	return func(model.AlertConfig) (Notifier, error) { return n, nil }
}

// Gate turns engine results into alerts according to the alert config.
type Gate struct {
	build Factory
	log   zerolog.Logger

	mu       sync.Mutex
	cfg      model.AlertConfig
	notifier Notifier
}

// NewGate creates a gate whose notifier comes from build.
func NewGate(build Factory, cfg model.AlertConfig, log zerolog.Logger) *Gate {
	if build == nil {
		build = Static(Nop{})
	}
	return &Gate{
		build: build,
		cfg:   cfg,
		log:   log.With().Str("component", "alert").Logger(),
	}
}

// Apply replaces the alert settings. The notifier is rebuilt on the next
// alert.
func (g *Gate) Apply(cfg model.AlertConfig) {
	g.mu.Lock()
	if cfg != g.cfg {
		g.notifier = nil
	}
	g.cfg = cfg
	g.mu.Unlock()
}

// current returns the config and a notifier for it, building one if needed.
func (g *Gate) current() (model.AlertConfig, Notifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cfg.Enabled || g.notifier != nil {
		return g.cfg, g.notifier, nil
	}
	n, err := g.build(g.cfg)
	if err != nil {
		return g.cfg, nil, err
	}
	g.notifier = n
	return g.cfg, n, nil
}

// Handle raises an alert when res asks for one and alerts are enabled. It
// reports whether an alert was delivered.
func (g *Gate) Handle(ctx context.Context, res engine.Result) bool {
	if !res.Alert {
		return false
	}

	cfg, notifier, err := g.current()
	if !cfg.Enabled {
		g.log.Debug().Int("added", res.Added).Msg("alert suppressed by config")
		return false
	}
	if err != nil {
		g.log.Warn().Err(err).Msg("no notifier available, alert dropped")
		return false
	}

	title, body := cfg.Title, cfg.Body
	if title == "" {
		title = engine.DefaultAlertTitle
	}
	if body == "" {
		body = engine.DefaultAlertBody
	}

	if err := notifier.Notify(ctx, title, body); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			g.log.Info().Msg("alert skipped, notifications not permitted")
		} else {
			g.log.Error().Err(err).Msg("sending alert failed")
		}
		return false
	}

	g.log.Debug().Int("added", res.Added).Msg("alert sent")
	return true
}
