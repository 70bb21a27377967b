package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"remindbot/internal/config"
	"remindbot/internal/llm"
	"remindbot/internal/store"
)

// runCLI handles one-shot commands and returns the process exit code.
func runCLI(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "create":
		return cliCreate(cfg, args[1:])
	case "prompt":
		return cliPrompt(cfg, args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`remindbot - create notifications from the command line

Usage: remindbot <command> [options]

Commands:
  create   Create a notification with explicit arguments
           -text <content> -time <RFC3339> [-user <id>] [-channel <id>]
  prompt   Create a notification from free text via the extraction engine
           -text <free text> [-user <id>] [-channel <id>]

Run mode is controlled by RUN_MODE (api|cli) in the environment or the
CONFIG_FILE key/value file.`)
}

func cliCreate(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	text := fs.String("text", "", "Notification content")
	timeArg := fs.String("time", "", "Event time, RFC3339")
	user := fs.String("user", cfg.DefaultUserID, "User id to notify")
	channel := fs.String("channel", cfg.DefaultChannelID, "Channel id to deliver to")
	fs.Parse(args)

	if *text == "" || *timeArg == "" {
		fmt.Fprintln(os.Stderr, "create requires -text and -time")
		return 1
	}
	eventTime, err := time.Parse(time.RFC3339, *timeArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -time %q: %v\n", *timeArg, err)
		return 1
	}
	if *user == "" || *channel == "" {
		fmt.Fprintln(os.Stderr, "create requires -user and -channel (or DISCORD_USER_ID / DISCORD_CHANNEL_ID)")
		return 1
	}

	return createNotification(cfg, *text, *user, eventTime, *channel)
}

func cliPrompt(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	text := fs.String("text", "", "Free-text notification request")
	user := fs.String("user", cfg.DefaultUserID, "User id to notify")
	channel := fs.String("channel", cfg.DefaultChannelID, "Channel id to deliver to")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "prompt requires -text")
		return 1
	}
	if err := cfg.ValidateCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}
	if cfg.OpenAIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY must be set for prompt mode")
		return 1
	}

	client := llm.NewOpenAI(cfg.OpenAIKey)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	draft, err := llm.ExtractNotification(ctx, client, *text, llm.PromptNotification)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to extract notification: %v\n", err)
		return 1
	}
	fmt.Printf("Extracted: %q at %s\n", draft.Content, draft.Time.Format(time.RFC1123))

	return createNotification(cfg, draft.Content, *user, draft.Time, *channel)
}

func createNotification(cfg *config.Config, content, userID string, eventTime time.Time, channelID string) int {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	id, err := db.CreateNotification(context.Background(), content, userID, eventTime, channelID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create notification: %v\n", err)
		return 1
	}
	fmt.Printf("Created notification %s\n", id)
	return 0
}
