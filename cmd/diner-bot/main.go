// ABOUTME: Entry point for diner-bot, the restaurant discovery Telegram bot
// ABOUTME: Loads config, wires the bridge, credential cache and poller, and runs until signalled

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/diner-bot/internal/backend"
	"github.com/2389/diner-bot/internal/config"
	"github.com/2389/diner-bot/internal/conversation"
	"github.com/2389/diner-bot/internal/dedupe"
	"github.com/2389/diner-bot/internal/paramstore"
	"github.com/2389/diner-bot/internal/poller"
	"github.com/2389/diner-bot/internal/store"
	"github.com/2389/diner-bot/internal/telegram"
)

// Version is set at build time.
var version = "dev"

const banner = `
     _ _                       _           _
  __| (_)_ __   ___ _ __      | |__   ___ | |_
 / _' | | '_ \ / _ \ '__|_____| '_ \ / _ \| __|
| (_| | | | | |  __/ | |_____| |_) | (_) | |_
 \__,_|_|_| |_|\___|_|       |_.__/ \___/ \__|
`

// getConfigPath returns the path to the bot config file.
// Priority: DINERBOT_CONFIG env var > XDG_CONFIG_HOME/diner-bot/config.yaml > ~/.config/diner-bot/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("DINERBOT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "diner-bot", "config.yaml")
}

// getDataPath returns the path to the diner-bot data directory.
// Priority: XDG_DATA_HOME/diner-bot > ~/.local/share/diner-bot
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "diner-bot")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "", "run":
		err = runBot(ctx)
	case "init":
		err = runInit()
	case "requests":
		err = runRequests(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: diner-bot [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run (default)          Poll Telegram and answer chats")
	fmt.Println("  init                   Create a new config file interactively")
	fmt.Println("  requests CHAT_ID [N]   Show the last N backend calls made for a chat")
	fmt.Println("  version                Print the version")
}

func runBot(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("  %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:      %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Backend:     %s\n", cfg.Backend.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Credentials: %s\n", cfg.Credentials.Backend)
	green.Print("    ▶ ")
	fmt.Printf("Dispatch:    %s\n", cfg.Bot.Dispatch)
	if cfg.Database.Path != "" {
		green.Print("    ▶ ")
		fmt.Printf("Database:    %s\n", cfg.Database.Path)
	}
	fmt.Println()

	token, err := resolveToken(ctx, cfg.Telegram)
	if err != nil {
		return fmt.Errorf("resolving telegram token: %w", err)
	}

	var db *store.SQLiteStore
	var credStore store.CredentialStore
	if cfg.Database.Path != "" {
		db, err = store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		credStore = db
	}

	tokens, closeTokens, err := buildCredentialCache(ctx, cfg, credStore, logger)
	if err != nil {
		return err
	}
	defer closeTokens()

	tg := telegram.NewClient(token, telegram.Options{
		APIURL:    cfg.Telegram.APIURL,
		RateLimit: cfg.Telegram.RateLimit,
		Logger:    logger,
	})

	bridgeOpts := backend.Options{
		Timeout: cfg.Backend.Timeout,
		Logger:  logger,
	}
	if db != nil {
		bridgeOpts.RequestLog = db
	}
	api := backend.NewClient(cfg.Backend.BaseURL, tokens, tg, bridgeOpts)

	bot := conversation.NewBot(api, tg, tokens, conversation.Options{
		TokenTTL: cfg.Credentials.TTL,
		BotName:  cfg.Telegram.BotName,
		Logger:   logger,
	})

	seen := dedupe.New(cfg.Bot.DedupeWindow, 10_000)
	defer seen.Close()

	p, err := poller.New(tg, bot, poller.Options{
		PollTimeout: cfg.Telegram.PollTimeout,
		Backoff:     cfg.Bot.PollBackoff,
		Dispatch:    cfg.Bot.Dispatch,
		WorkerIdle:  cfg.Bot.WorkerIdle,
		Dedupe:      seen,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating poller: %w", err)
	}

	logger.Info("starting bot", "version", version)
	return p.Run(ctx)
}

// resolveToken takes the inline token or, failing that, reads it from SSM.
func resolveToken(ctx context.Context, cfg config.TelegramConfig) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	ssmClient, err := paramstore.NewFromEnvironment(ctx)
	if err != nil {
		return "", err
	}
	return paramstore.Resolve(ctx, ssmClient, cfg.Token, cfg.TokenParameter)
}
