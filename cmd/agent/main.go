// Package main is the entry point for the dayflow assistant.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"dayflow/internal/calendar"
	"dayflow/internal/config"
	"dayflow/internal/llm"
	"dayflow/internal/memory"
	"dayflow/internal/reminder"
	"dayflow/internal/service"
)

func main() {
	configPath := flag.String("config", "dayflow.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		cancel()
	}()

	agent, cleanup, err := initializeAgent(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize agent", zap.Error(err))
	}
	defer cleanup()

	if err := agent.StartSession(ctx); err != nil {
		logger.Fatal("failed to start session", zap.Error(err))
	}

	runREPL(ctx, agent)
}

// newLogger builds the application logger; the debug flag selects the
// development configuration.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initializeAgent creates and wires all components.
func initializeAgent(ctx context.Context, cfg config.Config, logger *zap.Logger) (*service.Agent, func(), error) {
	llmClient, err := llm.NewClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var memStore memory.Store
	switch cfg.DBType {
	case "postgres":
		store, err := memory.NewPostgresStore(ctx, cfg.DatabaseURL, llmClient)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to initialize memory schema: %w", err)
		}
		memStore = store
	default:
		store, err := memory.NewSQLiteStore(ctx, cfg.DatabaseURL, llmClient)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to initialize memory schema: %w", err)
		}
		memStore = store
	}

	// Events and reminders always live in a local SQLite file; when the
	// memory store is remote they get their own.
	localPath := cfg.DatabaseURL
	if cfg.DBType == "postgres" {
		localPath = "./dayflow.db"
	}

	calStore, err := calendar.NewStore(ctx, localPath)
	if err != nil {
		memStore.Close()
		return nil, nil, fmt.Errorf("failed to open calendar store: %w", err)
	}
	if err := calStore.InitSchema(ctx); err != nil {
		calStore.Close()
		memStore.Close()
		return nil, nil, fmt.Errorf("failed to initialize calendar schema: %w", err)
	}

	remStore, err := reminder.NewStore(ctx, localPath)
	if err != nil {
		calStore.Close()
		memStore.Close()
		return nil, nil, fmt.Errorf("failed to open reminder store: %w", err)
	}
	if err := remStore.InitSchema(ctx); err != nil {
		remStore.Close()
		calStore.Close()
		memStore.Close()
		return nil, nil, fmt.Errorf("failed to initialize reminder schema: %w", err)
	}

	agent := service.NewAgent(llmClient, memStore, calStore, remStore, logger)

	cleanup := func() {
		remStore.Close()
		calStore.Close()
		memStore.Close()
	}

	logger.Info("agent initialized", zap.String("db_type", cfg.DBType))
	return agent, cleanup, nil
}

// runREPL reads user messages from stdin until EOF or cancellation.
func runREPL(ctx context.Context, agent *service.Agent) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("dayflow assistant ready. Type a message, or 'exit' to quit.")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			return
		}

		reply, err := agent.Chat(ctx, message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
}
