// Package config loads and validates the ticket system settings.
//
// Settings come from a YAML config file with GHTICKETS_* environment
// variable overrides (GHTICKETS_GITHUB_AUTH_TOKEN overrides
// github.auth.token, and so on). Credential and repository validation
// happens here, before any client is constructed or any remote call is
// queued.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid is the sentinel wrapped by all configuration validation
// failures, so callers can distinguish them from transport errors with
// errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError describes one invalid or missing setting.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Defaults mirroring the upstream plugin's config.yml.
const (
	DefaultMinWordCount  = 2
	DefaultCallDelay     = 2 * time.Second
	DefaultInstanceCount = 1
	DefaultStartupDelay  = time.Second
	DefaultFetchInterval = 10 * time.Second
)

// Repository points at the backing issue repository.
type Repository struct {
	Owner string
	Name  string
}

// Auth holds remote credentials: a token, or a username/password pair.
// Exactly one of the two forms must be configured.
type Auth struct {
	Token    string
	Username string
	Password string
}

// NotifyToggle enables notifications for one audience pair.
type NotifyToggle struct {
	Staff  bool
	Player bool
}

// Notify holds the per-event notification toggles. They are consumed by
// presentation collaborators; the core service emits events regardless.
type Notify struct {
	OnLogin        NotifyToggle
	OnCreate       NotifyToggle
	OnStatusChange NotifyToggle
	OnComment      NotifyToggle
}

// Config is the full validated configuration.
type Config struct {
	// ServerName, when set, overrides the caller-supplied server name on
	// every created ticket.
	ServerName string

	// MinWordCount is the minimum number of words in a ticket body.
	// Enforced synchronously, before a queue slot is consumed.
	MinWordCount int

	Repository Repository
	Auth       Auth
	Notify     Notify

	// CallDelay is the base delay between consecutive remote calls,
	// derived from the remote service's published call budget.
	CallDelay time.Duration

	// InstanceCount is how many cooperating server instances share the
	// remote account's budget. The effective delay is CallDelay scaled by
	// this count; the split is static, agreed up front between instances.
	InstanceCount int

	// StartupDelay and FetchInterval drive the cache refresh job.
	StartupDelay  time.Duration
	FetchInterval time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// EffectiveCallDelay is the inter-call spacing this instance enforces:
// its share of the remote budget.
func (c *Config) EffectiveCallDelay() time.Duration {
	return c.CallDelay * time.Duration(c.InstanceCount)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("serverName", "")
	v.SetDefault("ticketMinWordCount", DefaultMinWordCount)
	v.SetDefault("logLevel", "info")

	v.SetDefault("notify.onLogin.staff", true)
	v.SetDefault("notify.onLogin.player", true)
	v.SetDefault("notify.onCreate.staff", true)
	v.SetDefault("notify.onCreate.player", false)
	v.SetDefault("notify.onStatusChange.staff", true)
	v.SetDefault("notify.onStatusChange.player", true)
	v.SetDefault("notify.onComment.staff", true)
	v.SetDefault("notify.onComment.player", true)

	v.SetDefault("github.auth.username", "")
	v.SetDefault("github.auth.password", "")
	v.SetDefault("github.auth.token", "")
	v.SetDefault("github.repository.owner", "")
	v.SetDefault("github.repository.name", "")

	v.SetDefault("api.callDelay", DefaultCallDelay)
	v.SetDefault("api.instanceCount", DefaultInstanceCount)
	v.SetDefault("fetch.startupDelay", DefaultStartupDelay)
	v.SetDefault("fetch.interval", DefaultFetchInterval)

	v.SetEnvPrefix("GHTICKETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Default returns a Config carrying the defaults only. Repository and
// credentials are unset, so the result does not pass Validate.
func Default() *Config {
	return &Config{
		MinWordCount: DefaultMinWordCount,
		LogLevel:     "info",
		Notify: Notify{
			OnLogin:        NotifyToggle{Staff: true, Player: true},
			OnCreate:       NotifyToggle{Staff: true, Player: false},
			OnStatusChange: NotifyToggle{Staff: true, Player: true},
			OnComment:      NotifyToggle{Staff: true, Player: true},
		},
		CallDelay:     DefaultCallDelay,
		InstanceCount: DefaultInstanceCount,
		StartupDelay:  DefaultStartupDelay,
		FetchInterval: DefaultFetchInterval,
	}
}

// Load reads the config file at path (optional: "" uses defaults and
// environment only) and returns a validated Config.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing file is fine: defaults + env still apply.
			var notFound *os.PathError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		ServerName:   v.GetString("serverName"),
		MinWordCount: v.GetInt("ticketMinWordCount"),
		LogLevel:     v.GetString("logLevel"),
		Repository: Repository{
			Owner: v.GetString("github.repository.owner"),
			Name:  v.GetString("github.repository.name"),
		},
		Auth: Auth{
			Token:    v.GetString("github.auth.token"),
			Username: v.GetString("github.auth.username"),
			Password: v.GetString("github.auth.password"),
		},
		Notify: Notify{
			OnLogin: NotifyToggle{
				Staff:  v.GetBool("notify.onLogin.staff"),
				Player: v.GetBool("notify.onLogin.player"),
			},
			OnCreate: NotifyToggle{
				Staff:  v.GetBool("notify.onCreate.staff"),
				Player: v.GetBool("notify.onCreate.player"),
			},
			OnStatusChange: NotifyToggle{
				Staff:  v.GetBool("notify.onStatusChange.staff"),
				Player: v.GetBool("notify.onStatusChange.player"),
			},
			OnComment: NotifyToggle{
				Staff:  v.GetBool("notify.onComment.staff"),
				Player: v.GetBool("notify.onComment.player"),
			},
		},
		CallDelay:     v.GetDuration("api.callDelay"),
		InstanceCount: v.GetInt("api.instanceCount"),
		StartupDelay:  v.GetDuration("fetch.startupDelay"),
		FetchInterval: v.GetDuration("fetch.interval"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks repository coordinates, credential shape, and timing
// settings. It fails fast: nothing is queued against an invalid config.
func (c *Config) Validate() error {
	if c.Repository.Owner == "" {
		return &ValidationError{Key: "github.repository.owner", Reason: "must not be empty"}
	}
	if c.Repository.Name == "" {
		return &ValidationError{Key: "github.repository.name", Reason: "must not be empty"}
	}

	hasToken := c.Auth.Token != ""
	hasBasic := c.Auth.Username != "" || c.Auth.Password != ""
	switch {
	case hasToken && hasBasic:
		return &ValidationError{Key: "github.auth", Reason: "set either token or username/password, not both"}
	case !hasToken && !hasBasic:
		return &ValidationError{Key: "github.auth", Reason: "no credentials configured"}
	case hasBasic && (c.Auth.Username == "" || c.Auth.Password == ""):
		return &ValidationError{Key: "github.auth", Reason: "username and password must both be set"}
	}

	if c.MinWordCount < 0 {
		return &ValidationError{Key: "ticketMinWordCount", Reason: "must not be negative"}
	}
	if c.CallDelay <= 0 {
		return &ValidationError{Key: "api.callDelay", Reason: "must be positive"}
	}
	if c.InstanceCount < 1 {
		return &ValidationError{Key: "api.instanceCount", Reason: "must be at least 1"}
	}
	if c.FetchInterval <= 0 {
		return &ValidationError{Key: "fetch.interval", Reason: "must be positive"}
	}
	return nil
}
