// ABOUTME: The requests subcommand listing recent backend calls for a chat
// ABOUTME: Reads the api_requests log from the configured SQLite database

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/2389/diner-bot/internal/config"
	"github.com/2389/diner-bot/internal/store"
)

func runRequests(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: diner-bot requests CHAT_ID [LIMIT]")
	}
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", args[0], err)
	}
	limit := 20
	if len(args) > 1 {
		limit, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid limit %q: %w", args[1], err)
		}
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path is not set; the request log is disabled")
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	records, err := db.ListAPIRequests(ctx, chatID, limit)
	if err != nil {
		return err
	}

	printRequests(os.Stdout, chatID, records)
	return nil
}

func printRequests(w io.Writer, chatID int64, records []*store.APIRequest) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No backend calls recorded for chat %d\n", chatID)
		return
	}

	for _, r := range records {
		status := color.GreenString("%d", r.StatusCode)
		switch {
		case r.StatusCode == 0:
			status = color.New(color.FgRed, color.Bold).Sprint("ERR")
		case r.StatusCode >= 400:
			status = color.YellowString("%d", r.StatusCode)
		}

		fmt.Fprintf(w, "%s  %-4s %-6s %-32s %6dms",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			r.Method,
			r.Path,
			r.Duration.Milliseconds(),
		)
		if r.Error != "" {
			fmt.Fprintf(w, "  %s", color.HiBlackString(r.Error))
		}
		fmt.Fprintln(w)
	}
}
