// Package config handles configuration loading for diner-bot.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Files ending in .toml are decoded as TOML; anything else is YAML.
// A .env file in the same directory is loaded first, without overriding
// variables that are already set.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from DINERBOT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/diner-bot/config.yaml
//  3. ~/.config/diner-bot/config.yaml
//
// # Environment Variable Expansion
//
//	telegram:
//	  token: "${TELEGRAM_BOT_TOKEN}"
//
// Unset variables expand to an empty string.
//
// # Configuration Sections
//
//	telegram:
//	  token: "${TELEGRAM_BOT_TOKEN}"
//	  token_parameter: "/diner-bot/telegram-token"  # SSM, used when token is empty
//	  bot_name: "dinerbot"
//	  poll_timeout: "30s"
//	  rate_limit: 25                                # outbound calls per second
//
//	backend:
//	  base_url: "http://localhost:8000/api"
//	  timeout: "15s"
//
//	credentials:
//	  backend: "memory"   # memory, sqlite, redis
//	  ttl: "60m"
//	  max_entries: 10000
//	  redis_url: "redis://localhost:6379/0"
//
//	bot:
//	  dispatch: "sequential"  # sequential, per_chat
//	  worker_idle: "5m"
//	  dedupe_window: "10m"
//	  poll_backoff: "1s"
//
//	database:
//	  path: "~/.local/share/diner-bot/bot.db"  # optional
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Duration values use Go's time.ParseDuration syntax.
package config
