// ABOUTME: Interactive config generator for diner-bot init
// ABOUTME: Prompts for Telegram, backend, credential cache and logging settings and writes YAML

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// initAnswers holds everything runInit asks for.
type initAnswers struct {
	Token          string
	TokenParameter string
	BotName        string
	BaseURL        string
	Credentials    string
	RedisURL       string
	DatabasePath   string
	Dispatch       string
	LogLevel       string
	LogFormat      string
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("diner-bot configuration setup")
	fmt.Println("=============================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Println("\n--- Telegram ---")
	a.Token = prompt(reader, "Bot token (leave empty to read from SSM)", "")
	if a.Token == "" {
		a.TokenParameter = prompt(reader, "SSM parameter name", "/diner-bot/telegram-token")
	}
	a.BotName = prompt(reader, "Bot username (for deep links)", "")

	fmt.Println("\n--- Backend ---")
	a.BaseURL = prompt(reader, "API base URL", "http://localhost:8000/api")

	fmt.Println("\n--- Credentials ---")
	a.Credentials = prompt(reader, "Token cache (memory/sqlite/redis)", "memory")
	if a.Credentials == "redis" {
		a.RedisURL = prompt(reader, "Redis URL", "redis://localhost:6379/0")
	}
	defaultDB := filepath.Join(getDataPath(), "diner-bot.db")
	if a.Credentials == "sqlite" {
		a.DatabasePath = prompt(reader, "SQLite database path", defaultDB)
	} else {
		a.DatabasePath = optionalPath(prompt(reader, "SQLite database path (\"none\" disables the request log)", defaultDB))
	}

	fmt.Println("\n--- Bot ---")
	a.Dispatch = prompt(reader, "Dispatch (sequential/per_chat)", "sequential")

	fmt.Println("\n--- Logging ---")
	a.LogLevel = prompt(reader, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, "Log format (text/json)", "text")

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if a.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(a.DatabasePath), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the bot:")
	fmt.Println("  diner-bot")

	return nil
}

// renderConfig produces the YAML written by init.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# diner-bot configuration\n")
	cfg.WriteString("# Generated by diner-bot init\n\n")

	cfg.WriteString("telegram:\n")
	if a.Token != "" {
		cfg.WriteString(fmt.Sprintf("  token: %q\n", a.Token))
	} else {
		cfg.WriteString(fmt.Sprintf("  token_parameter: %q\n", a.TokenParameter))
	}
	if a.BotName != "" {
		cfg.WriteString(fmt.Sprintf("  bot_name: %q\n", a.BotName))
	}
	cfg.WriteString("  poll_timeout: \"30s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("backend:\n")
	cfg.WriteString(fmt.Sprintf("  base_url: %q\n", a.BaseURL))
	cfg.WriteString("  timeout: \"15s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("credentials:\n")
	cfg.WriteString(fmt.Sprintf("  backend: %q\n", a.Credentials))
	cfg.WriteString("  ttl: \"60m\"\n")
	if a.RedisURL != "" {
		cfg.WriteString(fmt.Sprintf("  redis_url: %q\n", a.RedisURL))
	}
	cfg.WriteString("\n")

	cfg.WriteString("bot:\n")
	cfg.WriteString(fmt.Sprintf("  dispatch: %q\n", a.Dispatch))
	cfg.WriteString("  worker_idle: \"5m\"\n")
	cfg.WriteString("\n")

	if a.DatabasePath != "" {
		cfg.WriteString("database:\n")
		cfg.WriteString(fmt.Sprintf("  path: %q\n", a.DatabasePath))
		cfg.WriteString("\n")
	}

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))

	return cfg.String()
}

// optionalPath maps the answer "none" to an empty path.
func optionalPath(s string) string {
	if strings.EqualFold(s, "none") {
		return ""
	}
	return s
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
