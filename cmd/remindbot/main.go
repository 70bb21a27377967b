package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remindbot/internal/config"
	"remindbot/internal/discord"
	"remindbot/internal/events"
	"remindbot/internal/flow"
	"remindbot/internal/intent"
	"remindbot/internal/llm"
	"remindbot/internal/pending"
	"remindbot/internal/store"
	"remindbot/internal/tasks"
)

const (
	busCapacity          = 64
	notificationInterval = 30 * time.Second
	calendarInterval     = time.Minute
	sweepInterval        = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch cfg.RunMode {
	case "api":
		if err := cfg.ValidateAPI(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		runAPI(cfg)
	case "cli":
		os.Exit(runCLI(cfg, os.Args[1:]))
	default:
		log.Fatalf("Invalid run mode %q (want api or cli)", cfg.RunMode)
	}
}

func runAPI(cfg *config.Config) {
	log.Println("remindbot - notification bot")

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	rules := intent.DefaultRules()
	if cfg.IntentRulesPath != "" {
		loaded, err := intent.LoadRules(cfg.IntentRulesPath)
		if err != nil {
			log.Fatalf("Failed to load intent rules: %v", err)
		}
		rules = loaded
	}

	client := llm.NewOpenAI(cfg.OpenAIKey)
	classifier := intent.NewRouterClassifier(client, rules, cfg.TodoIntent)
	router := flow.NewRouter(classifier, cfg.PendingTTL)
	pendingStore := pending.NewStore()
	bus := events.NewBus(busCapacity)

	gateway, err := discord.NewGateway(cfg.DiscordToken, bus, pendingStore)
	if err != nil {
		log.Fatalf("Failed to create Discord gateway: %v", err)
	}
	if err := gateway.Start(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	messenger := discord.NewMessenger(gateway.Session())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := events.NewWorker(bus, router, client, pendingStore, db, messenger)
	workerDone := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(workerDone)
	}()

	runner := tasks.NewRunner()
	runner.Add(tasks.NewNotificationLoop(db, client, messenger, notificationInterval))
	runner.Add(tasks.NewTodoLoop(db, messenger, cfg.Location()))
	runner.Add(tasks.NewCalendarLoop(db, bus, calendarInterval))
	runner.Add(tasks.NewSweepLoop(pendingStore, messenger, cfg.PendingTTL, sweepInterval))
	runner.Start(ctx)

	log.Println("[main] All subsystems started. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")

	runner.Stop()
	bus.Close()
	<-workerDone
	if err := gateway.Stop(); err != nil {
		log.Printf("Warning: failed to close Discord session: %v", err)
	}

	log.Println("[main] Goodbye!")
}
