// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML/TOML loading, .env loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  bot_name: "dinerbot"
  poll_timeout: "20s"
  rate_limit: 10

backend:
  base_url: "http://localhost:8000/api"
  timeout: "5s"

credentials:
  backend: "sqlite"
  ttl: "45m"
  max_entries: 50

bot:
  dispatch: "per_chat"
  worker_idle: "1m"

database:
  path: "./bot.db"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123:abc")
	}
	if cfg.Telegram.BotName != "dinerbot" {
		t.Errorf("Telegram.BotName = %q, want %q", cfg.Telegram.BotName, "dinerbot")
	}
	if cfg.Telegram.PollTimeout != 20*time.Second {
		t.Errorf("Telegram.PollTimeout = %v, want %v", cfg.Telegram.PollTimeout, 20*time.Second)
	}
	if cfg.Telegram.RateLimit != 10 {
		t.Errorf("Telegram.RateLimit = %v, want 10", cfg.Telegram.RateLimit)
	}
	if cfg.Telegram.APIURL != "https://api.telegram.org" {
		t.Errorf("Telegram.APIURL = %q, want default", cfg.Telegram.APIURL)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, 5*time.Second)
	}
	if cfg.Credentials.Backend != CredentialsSQLite {
		t.Errorf("Credentials.Backend = %q, want %q", cfg.Credentials.Backend, CredentialsSQLite)
	}
	if cfg.Credentials.TTL != 45*time.Minute {
		t.Errorf("Credentials.TTL = %v, want %v", cfg.Credentials.TTL, 45*time.Minute)
	}
	if cfg.Credentials.MaxEntries != 50 {
		t.Errorf("Credentials.MaxEntries = %d, want 50", cfg.Credentials.MaxEntries)
	}
	if cfg.Bot.Dispatch != DispatchPerChat {
		t.Errorf("Bot.Dispatch = %q, want %q", cfg.Bot.Dispatch, DispatchPerChat)
	}
	if cfg.Bot.WorkerIdle != time.Minute {
		t.Errorf("Bot.WorkerIdle = %v, want %v", cfg.Bot.WorkerIdle, time.Minute)
	}
	if cfg.Database.Path != "./bot.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./bot.db")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
backend:
  base_url: "https://api.example.com/api"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.PollTimeout != 30*time.Second {
		t.Errorf("Telegram.PollTimeout = %v, want 30s", cfg.Telegram.PollTimeout)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Errorf("Backend.Timeout = %v, want 15s", cfg.Backend.Timeout)
	}
	if cfg.Credentials.Backend != CredentialsMemory {
		t.Errorf("Credentials.Backend = %q, want memory", cfg.Credentials.Backend)
	}
	if cfg.Credentials.TTL != 60*time.Minute {
		t.Errorf("Credentials.TTL = %v, want 60m", cfg.Credentials.TTL)
	}
	if cfg.Bot.Dispatch != DispatchSequential {
		t.Errorf("Bot.Dispatch = %q, want sequential", cfg.Bot.Dispatch)
	}
	if cfg.Bot.PollBackoff != time.Second {
		t.Errorf("Bot.PollBackoff = %v, want 1s", cfg.Bot.PollBackoff)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[telegram]
token = "123:toml"
poll_timeout = "10s"

[backend]
base_url = "http://localhost:8000/api"

[credentials]
backend = "redis"
redis_url = "redis://localhost:6379/0"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123:toml" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123:toml")
	}
	if cfg.Telegram.PollTimeout != 10*time.Second {
		t.Errorf("Telegram.PollTimeout = %v, want 10s", cfg.Telegram.PollTimeout)
	}
	if cfg.Credentials.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Credentials.RedisURL = %q", cfg.Credentials.RedisURL)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DINERBOT_TOKEN", "token-from-env")
	t.Setenv("TEST_DINERBOT_BACKEND", "http://backend:8000/api")

	configPath := writeConfig(t, "config.yaml", `
telegram:
  token: "${TEST_DINERBOT_TOKEN}"
backend:
  base_url: "${TEST_DINERBOT_BACKEND}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "token-from-env" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "token-from-env")
	}
	if cfg.Backend.BaseURL != "http://backend:8000/api" {
		t.Errorf("Backend.BaseURL = %q, want %q", cfg.Backend.BaseURL, "http://backend:8000/api")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	// Unset so that godotenv is allowed to set it; t.Setenv restores afterwards.
	t.Setenv("TEST_DINERBOT_DOTENV_TOKEN", "")
	os.Unsetenv("TEST_DINERBOT_DOTENV_TOKEN")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TEST_DINERBOT_DOTENV_TOKEN=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	content := `
telegram:
  token: "${TEST_DINERBOT_DOTENV_TOKEN}"
backend:
  base_url: "http://localhost:8000/api"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "from-dotenv" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "from-dotenv")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", "telegram: [unclosed")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing config file", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: "soon"
backend:
  base_url: "http://localhost:8000/api"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "telegram.poll_timeout") {
		t.Errorf("error = %v, want mention of telegram.poll_timeout", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{
			Telegram: TelegramConfig{Token: "123:abc"},
			Backend:  BackendConfig{BaseURL: "http://localhost:8000/api"},
		}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"token from ssm", func(c *Config) { c.Telegram.Token = ""; c.Telegram.TokenParameter = "/bot/token" }, ""},
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "telegram.token"},
		{"missing base url", func(c *Config) { c.Backend.BaseURL = "" }, "backend.base_url is required"},
		{"bad scheme", func(c *Config) { c.Backend.BaseURL = "ftp://example.com" }, "http or https"},
		{"sqlite without path", func(c *Config) { c.Credentials.Backend = CredentialsSQLite }, "database.path"},
		{"redis without url", func(c *Config) { c.Credentials.Backend = CredentialsRedis }, "redis_url"},
		{"unknown backend", func(c *Config) { c.Credentials.Backend = "etcd" }, "unknown credentials.backend"},
		{"unknown dispatch", func(c *Config) { c.Bot.Dispatch = "parallel" }, "unknown bot.dispatch"},
		{"negative rate", func(c *Config) { c.Telegram.RateLimit = -1 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "alpha")

	got := expandEnvVars("a=${TEST_EXPAND_A} b=${TEST_EXPAND_UNSET_B}")
	if got != "a=alpha b=" {
		t.Errorf("expandEnvVars() = %q, want %q", got, "a=alpha b=")
	}
}
