package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/nhle/ghnotify/internal/alert"
	"github.com/nhle/ghnotify/internal/app"
	"github.com/nhle/ghnotify/internal/credential"
	"github.com/nhle/ghnotify/internal/logging"
	"github.com/nhle/ghnotify/internal/model"
	"github.com/nhle/ghnotify/internal/source"
	"github.com/nhle/ghnotify/internal/source/github"
	"github.com/nhle/ghnotify/internal/store"
	appsync "github.com/nhle/ghnotify/internal/sync"
	"github.com/nhle/ghnotify/internal/theme"
)

type options struct {
	configPath string
	headless   bool
	once       bool
	history    bool
	logout     bool
	logLevel   string
	noAlert    bool
}

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]string{
	"log.level":       "log-level",
	"github.base_url": "base-url",
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "ghnotify: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	flags := pflag.NewFlagSet("ghnotify", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.configPath, "config", "c", model.DefaultConfigPath(), "path to the config file")
	flags.BoolVar(&opts.headless, "headless", false, "run without the terminal UI and only raise desktop alerts")
	flags.BoolVar(&opts.once, "once", false, "fetch once, print the grouped notifications and exit")
	flags.BoolVar(&opts.history, "history", false, "print the archived unread notifications and recent batches, then exit")
	flags.BoolVar(&opts.logout, "logout", false, "remove the stored GitHub token and exit")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("base-url", "https://api.github.com", "GitHub API base URL")
	flags.BoolVar(&opts.noAlert, "no-alert", false, "disable desktop alerts")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	tokens := credential.NewTokenStore()
	if opts.logout {
		if err := tokens.ForgetToken(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Stored GitHub token removed.")
		return nil
	}

	loader, err := model.NewLoader(opts.configPath, flags, flagBindings)
	if err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = logging.DefaultFile()
	}
	var console io.Writer
	if opts.headless || opts.once || opts.history {
		console = stderr
	}
	log, closer := logging.New(logging.Options{
		Level:      logging.ParseLevel(cfg.Log.Level),
		File:       logFile,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    console,
	})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archive store.Store
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()
		archive = s
	}

	if opts.history {
		if archive == nil {
			return errors.New("no archive configured (store.path is empty)")
		}
		return printHistory(ctx, stdout, archive, historyLimit)
	}

	token, prompted, err := resolveToken(opts, tokens, log)
	if err != nil {
		return err
	}
	if prompted {
		if err := writeDefaultConfig(opts.configPath, cfg); err != nil {
			log.Warn().Err(err).Msg("writing default config failed")
		}
	}
	if opts.noAlert {
		cfg.Alert.Enabled = false
	}

	adapter := github.NewAdapter(cfg.GitHub.BaseURL, token,
		github.WithExcludedReasons(cfg.GitHub.ExcludeReasons...))
	if err := checkToken(ctx, adapter, log); err != nil {
		return err
	}

	poller := appsync.New(adapter, pollConfig(cfg.Poll), log)

	if opts.once {
		return runOnce(ctx, poller, archive, stdout)
	}

	theme.Apply(cfg.Display.Theme)
	gate := alert.NewGate(notifierFactory(desktopNotifier, stderr, log), cfg.Alert, log)
	loader.Watch(reloader(gate, poller, opts.noAlert, log), func(err error) {
		log.Warn().Err(err).Msg("ignoring invalid configuration change")
	})

	if opts.headless {
		return runHeadless(ctx, poller, gate, archive, log)
	}

	m := app.New(app.Deps{
		Poller: poller,
		Source: adapter,
		Store:  archive,
		Gate:   gate,
		Log:    log,
	})
	defer m.Close()

	poller.Start(ctx)
	defer poller.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

// resolveToken finds the GitHub token, prompting for one on an interactive
// first run. prompted reports whether the user had to type it in.
func resolveToken(opts options, tokens *credential.TokenStore, log zerolog.Logger) (token string, prompted bool, err error) {
	token, src, err := credential.DefaultResolver(tokens).Resolve()
	if err == nil {
		log.Debug().Str("source", string(src)).Msg("github token resolved")
		return token, false, nil
	}
	if !errors.Is(err, credential.ErrNoToken) || opts.headless {
		return "", false, err
	}
	token, err = credential.Prompt(tokens)
	return token, err == nil, err
}

// writeDefaultConfig saves cfg to path unless a file is already there, so a
// first run leaves an editable config behind.
func writeDefaultConfig(path string, cfg *model.AppConfig) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return model.SaveConfig(path, cfg)
}

// connectionValidator is the part of a source checked before polling.
type connectionValidator interface {
	ValidateConnection(ctx context.Context) (string, error)
}

// checkToken fails fast on a rejected token. Other errors, such as being
// offline at start-up, are left for the poller to retry.
func checkToken(ctx context.Context, v connectionValidator, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	login, err := v.ValidateConnection(ctx)
	switch {
	case err == nil:
		log.Info().Str("login", login).Msg("connected to GitHub")
		return nil
	case source.IsAuthError(err):
		return fmt.Errorf("GitHub rejected the token, run with --logout and try again: %w", err)
	default:
		log.Warn().Err(err).Msg("could not verify the token, continuing")
		return nil
	}
}

func pollConfig(p model.PollConfig) appsync.Config {
	cfg := appsync.DefaultConfig()
	cfg.BaseInterval = p.BaseInterval()
	cfg.MaxInterval = p.MaxInterval()
	cfg.BackoffFactor = p.BackoffFactor
	cfg.ResetAfterEmpty = p.ResetAfterEmpty
	cfg.StartupDelay = p.StartupDelay()
	cfg.RefreshPerMinute = p.RefreshPerMinute
	return cfg
}

func desktopNotifier(appName string) (alert.Notifier, error) {
	d, err := alert.NewDesktop(appName)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// notifierFactory builds the desktop notifier, plus the terminal bell when
// alert.bell is set. Without a session bus the bell alone is used; with
// neither the build fails and the gate tries again on the next alert.
func notifierFactory(
	newDesktop func(appName string) (alert.Notifier, error),
	bell io.Writer,
	log zerolog.Logger,
) alert.Factory {
	return func(cfg model.AlertConfig) (alert.Notifier, error) {
		var notifiers alert.Multi

		d, err := newDesktop(cfg.AppName)
		switch {
		case err == nil:
			notifiers = append(notifiers, d)
		case !cfg.Bell:
			return nil, err
		default:
			log.Warn().Err(err).Msg("desktop alerts unavailable, using the terminal bell")
		}
		if cfg.Bell {
			notifiers = append(notifiers, alert.NewBell(bell))
		}

		if len(notifiers) == 1 {
			return notifiers[0], nil
		}
		return notifiers, nil
	}
}

// reloader applies a changed config file to the running gate and poller.
func reloader(gate *alert.Gate, poller *appsync.Poller, noAlert bool, log zerolog.Logger) func(*model.AppConfig) {
	return func(next *model.AppConfig) {
		if noAlert {
			next.Alert.Enabled = false
		}
		gate.Apply(next.Alert)
		poller.Apply(pollConfig(next.Poll))
		theme.Apply(next.Display.Theme)
		log.Info().Msg("configuration reloaded")
	}
}
