package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/glimpse-app/glimpse/internal/action"
	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/engine"
	"github.com/glimpse-app/glimpse/internal/extract"
	"github.com/glimpse-app/glimpse/internal/llm"
	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/internal/store"
)

// runForeground contains the main application logic for running Glimpse in
// the foreground. It's called by the 'start' command's Run function.
func runForeground(configPath string) {
	// A missing .env file is fine; it only supplies optional overrides.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration from '%s': %v\n", configPath, err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Application, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.L()
	log.Info("Glimpse running in foreground...")

	if pidFilePath := cfg.Application.PIDFilePath; pidFilePath != "" {
		if err := writePIDFile(pidFilePath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer func() {
			log.Info("Removing PID file on exit", "path", pidFilePath)
			_ = os.Remove(pidFilePath)
		}()
	}

	log.Debug("Initializing services...")

	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		dataDir = ":memory:"
	}
	db, err := store.Open(dataDir)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	content := db.Content(os.Getenv("GLIMPSE_TENANT_ID"))

	var completer llm.Completer
	if cfg.LLM.BaseURL != "" {
		client := llm.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout.Duration, &cfg.Engine.DefaultRetry)
		if client.IsRunning(context.Background()) {
			completer = client
			log.Info("Completion backend available", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
		} else {
			log.Warn("Completion backend unreachable, extraction falls back to pattern matching", "base_url", cfg.LLM.BaseURL)
		}
	}

	extractor := extract.NewExtractor(completer)
	exporter := extract.NewWebhookExporter(cfg.Engine.WebhookTimeout.Duration, &cfg.Engine.DefaultRetry)
	tracker := extract.NewTracker(cfg.Extraction, extractor, exporter, nil)

	eng := engine.New(cfg.Engine, action.Config{
		DB:             content,
		Completer:      completer,
		Extractor:      extractor,
		Exporter:       exporter,
		WebhookTimeout: cfg.Engine.WebhookTimeout.Duration,
	}, tracker, db)

	ctx := context.Background()
	if err := eng.Init(ctx); err != nil {
		log.Error("Failed to initialize playbook engine", "error", err)
		os.Exit(1)
	}
	eng.Start(ctx)
	log.Info("All services started successfully")

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-stopChan
	log.Info("Received shutdown signal", "signal", sig.String())

	log.Info("Initiating graceful shutdown...")
	if _, err := tracker.EndAllMeetings(ctx); err != nil {
		log.Error("Error ending active meetings", "error", err)
	}
	eng.Stop()

	log.Info("Glimpse shut down gracefully")
}

// writePIDFile guards against double-starts, replacing a stale PID file from
// a dead process.
func writePIDFile(path string) error {
	log := logger.L()
	if _, err := os.Stat(path); err == nil {
		pidBytes, errRead := os.ReadFile(path)
		if errRead == nil {
			pidStr := strings.TrimSpace(string(pidBytes))
			if pid, errConv := strconv.Atoi(pidStr); errConv == nil {
				process, errFind := os.FindProcess(pid)
				if errFind == nil && process.Signal(syscall.Signal(0)) == nil {
					log.Error("PID file exists and process is running. Aborting.", "path", path, "pid", pid)
					return fmt.Errorf("process with PID %d found (from %s); is Glimpse already running?", pid, path)
				}
			}
		}
		log.Warn("Removing stale PID file", "path", path)
		_ = os.Remove(path)
	}

	pid := os.Getpid()
	log.Info("Writing PID file", "path", path, "pid", pid)
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644); err != nil {
		log.Error("Failed to write PID file", "error", err)
	}
	return nil
}
