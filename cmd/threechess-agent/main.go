// Package main runs the LLM move agent service: an HTTP API that resolves
// three-player chess moves through a configured LLM provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"threechess/cmd/threechess-agent/cli"
	"threechess/internal/agent"
	"threechess/internal/llm"
	"threechess/internal/storage"
	transporthttp "threechess/internal/transport/http"
)

const gracefulShutdownTimeout = time.Second * 5

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			logrus.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	// Command-line flags
	var (
		apiHost     = flag.String("api-host", "localhost", "API server host")
		apiPort     = flag.Int("api-port", 5000, "API server port")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL storage)")
		storagePath = flag.String("storage-path", "", "Path to SQLite telemetry database (disables persistence if empty)")
		provider    = flag.String("provider", "openai", "LLM provider (openai, anthropic, openrouter, groq)")
		model       = flag.String("model", "", "Model override (empty uses the provider default)")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("component", "main")

	// API keys come from the environment; .env is a convenience, not a requirement.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	// 1. Initialize Storage (optional)
	var store *storage.Store
	var storageHealth func() string
	if *storagePath != "" {
		log.WithField("path", *storagePath).Info("initializing persistent storage")
		var err error
		store, err = storage.NewStore(*storagePath, *dev)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize storage")
		}
		if err := store.InitDB(); err != nil {
			log.WithError(err).Fatal("failed to initialize schema")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("failed to close storage cleanly")
			}
		}()
		storageHealth = func() string {
			if store.IsHealthy() {
				return "ok"
			}
			return "degraded"
		}
	} else {
		log.Info("persistent storage disabled (use -storage-path to enable)")
	}

	// 2. Initialize the LLM provider. A missing API key is the one
	// configuration error that fails fast.
	prov, err := llm.NewProvider(*provider, *model)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize LLM provider")
	}

	// 3. Initialize the agent with its own memory and optional persistence
	ag := agent.New(prov, agent.NewMemory(), store)

	// 4. Initialize the Fiber app
	app := transporthttp.NewFiberApp(ag, storageHealth, *dev)

	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)

	go func() {
		log.Info("LLM chess agent starting...")
		log.Infof("Listening on: http://%s", apiAddr)
		log.Infof("Provider: %s (model: %s)", *provider, prov.Model())
		if *dev {
			log.Info("Rate limit: 20 requests/second per IP (DEV MODE)")
		} else {
			log.Info("Rate limit: 2 requests/second per IP")
		}
		if *storagePath != "" {
			log.Infof("Storage: enabled (%s)", *storagePath)
		} else {
			log.Info("Storage: disabled")
		}
		log.Infof("Move endpoint: http://%s/get-move", apiAddr)
		log.Infof("Telemetry: http://%s/agent-memory", apiAddr)
		log.Infof("Health: http://%s/health", apiAddr)

		if err := app.Listen(apiAddr); err != nil {
			log.WithError(err).Error("server listen error")
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}

	log.Info("server exited")
}
