package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/relaykit/relay/internal/telemetry"
	"github.com/relaykit/relay/pkg/relay"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("RELAY_CONFIG", "relay.yaml"), "path to the YAML config file")
	dbPath := flag.String("db", envOr("RELAY_DB", "./data/relay.db"), "path to the settings database")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("relayd", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	eng, err := relay.New(
		relay.WithFileConfig(*configPath),
		relay.WithSQLiteSettings(*dbPath),
		relay.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	// Observe crashes and request failures; a registered failure
	// listener makes the engine's error handling reactive rather than
	// exceptional.
	eng.On(relay.Crashed, relay.Listener(func(ev relay.Event) {
		logger.Error("server crashed", slog.Any("report", ev.Data))
	}))
	eng.On(relay.RouterMiss, relay.Listener(func(ev relay.Event) {
		logger.Warn("no route matched", slog.Any("miss", ev.Data))
	}))

	eng.All("/healthz", func(c *relay.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	if err := eng.On(relay.Ready, relay.ReadyOptions{Message: "relayd listening"}); err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := eng.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("relayd stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
