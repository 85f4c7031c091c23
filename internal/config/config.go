// ABOUTME: Configuration loading and parsing for diner-bot
// ABOUTME: Supports YAML or TOML files with .env loading, env var expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Credential cache backends
const (
	CredentialsMemory = "memory"
	CredentialsSQLite = "sqlite"
	CredentialsRedis  = "redis"
)

// Dispatch modes for the update poller
const (
	DispatchSequential = "sequential"
	DispatchPerChat    = "per_chat"
)

// Config represents the complete diner-bot configuration
type Config struct {
	Telegram    TelegramConfig    `yaml:"telegram" toml:"telegram"`
	Backend     BackendConfig     `yaml:"backend" toml:"backend"`
	Credentials CredentialsConfig `yaml:"credentials" toml:"credentials"`
	Bot         BotConfig         `yaml:"bot" toml:"bot"`
	Database    DatabaseConfig    `yaml:"database" toml:"database"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

// TelegramConfig holds Bot API settings
type TelegramConfig struct {
	Token string `yaml:"token" toml:"token"`
	// TokenParameter names an SSM parameter holding the token; used when Token is empty
	TokenParameter string  `yaml:"token_parameter" toml:"token_parameter"`
	APIURL         string  `yaml:"api_url" toml:"api_url"`
	BotName        string  `yaml:"bot_name" toml:"bot_name"`
	RateLimit      float64 `yaml:"rate_limit" toml:"rate_limit"`

	PollTimeout    time.Duration `yaml:"-" toml:"-"`
	PollTimeoutRaw string        `yaml:"poll_timeout" toml:"poll_timeout"`
}

// BackendConfig holds the restaurant API location
type BackendConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// CredentialsConfig selects and tunes the per-chat token cache
type CredentialsConfig struct {
	Backend    string `yaml:"backend" toml:"backend"`
	MaxEntries int    `yaml:"max_entries" toml:"max_entries"`
	RedisURL   string `yaml:"redis_url" toml:"redis_url"`

	TTL    time.Duration `yaml:"-" toml:"-"`
	TTLRaw string        `yaml:"ttl" toml:"ttl"`
}

// BotConfig holds update processing settings
type BotConfig struct {
	Dispatch string `yaml:"dispatch" toml:"dispatch"`

	WorkerIdle      time.Duration `yaml:"-" toml:"-"`
	DedupeWindow    time.Duration `yaml:"-" toml:"-"`
	PollBackoff     time.Duration `yaml:"-" toml:"-"`
	WorkerIdleRaw   string        `yaml:"worker_idle" toml:"worker_idle"`
	DedupeWindowRaw string        `yaml:"dedupe_window" toml:"dedupe_window"`
	PollBackoffRaw  string        `yaml:"poll_backoff" toml:"poll_backoff"`
}

// DatabaseConfig holds the optional SQLite location.
// An empty path disables the request log and the sqlite credential backend.
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A .env file next to the config is loaded first if present. Environment variables
// in the format ${VAR_NAME} are expanded. Files ending in .toml are parsed as TOML,
// everything else as YAML.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(expandEnvVars(string(data)), strings.EqualFold(filepath.Ext(path), ".toml"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes already-expanded config content, applies defaults and validates it.
func Parse(content string, isTOML bool) (*Config, error) {
	var cfg Config
	if isTOML {
		if _, err := toml.Decode(content, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads variables from a .env file without overriding ones already set.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = "https://api.telegram.org"
	}
	if cfg.Telegram.PollTimeout == 0 {
		cfg.Telegram.PollTimeout = 30 * time.Second
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 25
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 15 * time.Second
	}
	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = CredentialsMemory
	}
	if cfg.Credentials.TTL == 0 {
		cfg.Credentials.TTL = 60 * time.Minute
	}
	if cfg.Credentials.MaxEntries == 0 {
		cfg.Credentials.MaxEntries = 10000
	}
	if cfg.Bot.Dispatch == "" {
		cfg.Bot.Dispatch = DispatchSequential
	}
	if cfg.Bot.WorkerIdle == 0 {
		cfg.Bot.WorkerIdle = 5 * time.Minute
	}
	if cfg.Bot.DedupeWindow == 0 {
		cfg.Bot.DedupeWindow = 10 * time.Minute
	}
	if cfg.Bot.PollBackoff == 0 {
		cfg.Bot.PollBackoff = time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" && c.Telegram.TokenParameter == "" {
		return fmt.Errorf("telegram.token or telegram.token_parameter is required")
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https scheme")
	}

	switch c.Credentials.Backend {
	case CredentialsMemory:
	case CredentialsSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite credentials backend")
		}
	case CredentialsRedis:
		if c.Credentials.RedisURL == "" {
			return fmt.Errorf("credentials.redis_url is required for the redis credentials backend")
		}
	default:
		return fmt.Errorf("unknown credentials.backend %q", c.Credentials.Backend)
	}

	if c.Bot.Dispatch != DispatchSequential && c.Bot.Dispatch != DispatchPerChat {
		return fmt.Errorf("unknown bot.dispatch %q", c.Bot.Dispatch)
	}

	if c.Telegram.RateLimit < 0 {
		return fmt.Errorf("telegram.rate_limit must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeoutRaw, &cfg.Telegram.PollTimeout},
		{"backend.timeout", cfg.Backend.TimeoutRaw, &cfg.Backend.Timeout},
		{"credentials.ttl", cfg.Credentials.TTLRaw, &cfg.Credentials.TTL},
		{"bot.worker_idle", cfg.Bot.WorkerIdleRaw, &cfg.Bot.WorkerIdle},
		{"bot.dedupe_window", cfg.Bot.DedupeWindowRaw, &cfg.Bot.DedupeWindow},
		{"bot.poll_backoff", cfg.Bot.PollBackoffRaw, &cfg.Bot.PollBackoff},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
