package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// GitHubConfig holds the upstream API settings.
type GitHubConfig struct {
	// BaseURL is the REST API root, e.g. https://api.github.com or
	// https://ghe.example.com/api/v3.
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`

	// ExcludeReasons lists notification reasons dropped before merging.
	ExcludeReasons []string `mapstructure:"exclude_reasons" yaml:"exclude_reasons"`
}

// PollConfig tunes the polling cadence.
type PollConfig struct {
	BaseIntervalSec  int     `mapstructure:"base_interval_sec" yaml:"base_interval_sec" validate:"min=1"`
	MaxIntervalSec   int     `mapstructure:"max_interval_sec" yaml:"max_interval_sec" validate:"gtefield=BaseIntervalSec"`
	BackoffFactor    float64 `mapstructure:"backoff_factor" yaml:"backoff_factor" validate:"gte=1"`
	ResetAfterEmpty  int     `mapstructure:"reset_after_empty" yaml:"reset_after_empty" validate:"min=1"`
	StartupDelaySec  int     `mapstructure:"startup_delay_sec" yaml:"startup_delay_sec" validate:"min=0"`
	RefreshPerMinute int     `mapstructure:"refresh_per_minute" yaml:"refresh_per_minute" validate:"min=1,max=60"`
}

// BaseInterval returns the base poll interval as a duration.
func (p PollConfig) BaseInterval() time.Duration {
	return time.Duration(p.BaseIntervalSec) * time.Second
}

// MaxInterval returns the backoff ceiling as a duration.
func (p PollConfig) MaxInterval() time.Duration {
	return time.Duration(p.MaxIntervalSec) * time.Second
}

// StartupDelay returns the delay before the first poll.
func (p PollConfig) StartupDelay() time.Duration {
	return time.Duration(p.StartupDelaySec) * time.Second
}

// AlertConfig controls the desktop alert.
type AlertConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Title   string `mapstructure:"title" yaml:"title" validate:"required_if=Enabled true"`
	Body    string `mapstructure:"body" yaml:"body"`
	AppName string `mapstructure:"app_name" yaml:"app_name"`

	// Bell also rings the terminal bell on every alert.
	Bell bool `mapstructure:"bell" yaml:"bell"`
}

// StoreConfig locates the notification archive. An empty path disables it.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" validate:"min=0"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme" validate:"omitempty,oneof=default dark light"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	GitHub  GitHubConfig  `mapstructure:"github" yaml:"github"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Alert   AlertConfig   `mapstructure:"alert" yaml:"alert"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// EnvPrefix prefixes environment overrides, e.g. GHNOTIFY_POLL_BASE_INTERVAL_SEC.
const EnvPrefix = "GHNOTIFY"

var validate = validator.New()

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/ghnotify/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "ghnotify", "config.yaml")
}

// DefaultStorePath returns ~/.local/share/ghnotify/notifications.db.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "notifications.db"
	}
	return filepath.Join(home, ".local", "share", "ghnotify", "notifications.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.exclude_reasons", []string{ReasonAuthor})
	v.SetDefault("poll.base_interval_sec", 60)
	v.SetDefault("poll.max_interval_sec", 200)
	v.SetDefault("poll.backoff_factor", 1.2)
	v.SetDefault("poll.reset_after_empty", 10)
	v.SetDefault("poll.startup_delay_sec", 3)
	v.SetDefault("poll.refresh_per_minute", 6)
	v.SetDefault("alert.enabled", true)
	v.SetDefault("alert.title", "Yo")
	v.SetDefault("alert.body", "There is a new github activity")
	v.SetDefault("alert.app_name", "ghnotify")
	v.SetDefault("alert.bell", false)
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("display.theme", "default")
}

// newViper returns a viper instance with defaults and environment overrides
// for the file at path.
func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Loader reads, validates and watches the configuration file.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader for path. Flags, when given, override file and
// environment values for the keys they are bound to.
func NewLoader(path string, flags *pflag.FlagSet, bindings map[string]string) (*Loader, error) {
	v := newViper(path)
	for key, flag := range bindings {
		if flags == nil {
			break
		}
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("binding flag --%s: %w", flag, err)
		}
	}
	return &Loader{v: v}, nil
}

// Load reads the config file and returns the validated configuration. A
// missing file yields the defaults.
func (l *Loader) Load() (*AppConfig, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", l.v.ConfigFileUsed(), err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", l.v.ConfigFileUsed(), err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads the file on every change and hands the new configuration
// to onChange. Invalid edits are reported to onError and otherwise ignored.
func (l *Loader) Watch(onChange func(*AppConfig), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Validate checks cfg against its struct constraints.
func Validate(cfg *AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads configuration from the given YAML file path.
// If the file does not exist, it returns the default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	l, err := NewLoader(path, nil, nil)
	if err != nil {
		return nil, err
	}
	return l.Load()
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("github.base_url", cfg.GitHub.BaseURL)
	v.Set("github.exclude_reasons", cfg.GitHub.ExcludeReasons)
	v.Set("poll.base_interval_sec", cfg.Poll.BaseIntervalSec)
	v.Set("poll.max_interval_sec", cfg.Poll.MaxIntervalSec)
	v.Set("poll.backoff_factor", cfg.Poll.BackoffFactor)
	v.Set("poll.reset_after_empty", cfg.Poll.ResetAfterEmpty)
	v.Set("poll.startup_delay_sec", cfg.Poll.StartupDelaySec)
	v.Set("poll.refresh_per_minute", cfg.Poll.RefreshPerMinute)
	v.Set("alert.enabled", cfg.Alert.Enabled)
	v.Set("alert.title", cfg.Alert.Title)
	v.Set("alert.body", cfg.Alert.Body)
	v.Set("alert.app_name", cfg.Alert.AppName)
	v.Set("alert.bell", cfg.Alert.Bell)
	v.Set("store.path", cfg.Store.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.Set("log.max_backups", cfg.Log.MaxBackups)
	v.Set("display.theme", cfg.Display.Theme)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
