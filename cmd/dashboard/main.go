package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/config"
	"github.com/Purav30803/nds-client/internal/orchestrator"
)

// main is the entry point for the NetSleuth dashboard service.
//
// The dashboard:
//   - Polls the detection backend for threat logs, ML anomalies and DPI alerts
//   - Falls back to simulated overview counters while the backend is unreachable
//   - Forwards start/stop requests to the backend
//   - Serves the browser UI, a JSON API and a WebSocket of rendered pages
//   - Exposes /metrics, /health and a gRPC health service
func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Printf("NetSleuth Dashboard starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	log.Printf("Configuration loaded successfully")
	log.Printf("  Backend URL: %s", cfg.BackendURL)
	log.Printf("  Refresh Interval: %s", cfg.RefreshInterval)
	log.Printf("  Fetch Timeout: %s", cfg.FetchTimeout)
	log.Printf("  HTTP Port: %s", cfg.HTTPPort)
	log.Printf("  Health Port: %s", cfg.HealthPort)
	log.Printf("  gRPC Health Port: %s", cfg.GRPCHealthPort)
	log.Printf("  NATS URL: %s", cfg.NatsURL)
	log.Printf("  Event Publishing Enabled: %v", cfg.EnableEventPublishing)

	orch := orchestrator.NewOrchestrator(cfg)

	if err := orch.Start(); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Orchestrator error: %v", err)
	}

	log.Printf("Shutdown signal received, initiating graceful shutdown...")

	if err := orch.Stop(); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}

	log.Printf("Dashboard stopped successfully")
}
