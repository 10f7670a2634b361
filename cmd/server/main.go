package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/bulksend/internal/config"
	"github.com/JonMunkholm/bulksend/internal/core"
	"github.com/JonMunkholm/bulksend/internal/logging"
	"github.com/JonMunkholm/bulksend/internal/transport"
	"github.com/JonMunkholm/bulksend/internal/transport/dryrun"
	"github.com/JonMunkholm/bulksend/internal/transport/gateway"
	"github.com/JonMunkholm/bulksend/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"transport", cfg.Transport.Mode,
		"strategy", cfg.Dispatch.Strategy,
		"batch_width", cfg.Dispatch.BatchWidth,
		"dispatch_max_concurrent", cfg.Dispatch.MaxConcurrent,
	)
	slog.Debug("configuration", "config", cfg.String())

	// Background jobs (status polling) stop on shutdown
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	sender, state, err := newTransport(jobCtx, cfg)
	if err != nil {
		slog.Error("failed to set up transport", "error", err)
		os.Exit(1)
	}

	service, err := core.NewService(sender, state, cfg)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running campaigns before closing connections
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for dispatches to complete", "active", status.Active)
			if err := service.WaitForDispatches(shutdownCtx); err != nil {
				slog.Warn("dispatches did not complete in time", "error", err)
			} else {
				slog.Info("all dispatches completed")
			}
		}

		if dr, ok := sender.(*dryrun.Sender); ok {
			slog.Info("dry-run summary", "messages_logged", dr.Count())
		}

		cancelJobs()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newTransport builds the configured binding. The gateway binding starts
// polling its status in the background until ctx is cancelled.
func newTransport(ctx context.Context, cfg *config.Config) (transport.Sender, *transport.State, error) {
	switch strings.ToLower(cfg.Transport.Mode) {
	case config.ModeDryRun:
		s := dryrun.New(slog.Default())
		slog.Warn("dry-run transport: messages are logged, not delivered")
		return s, s.State(), nil

	case config.ModeGateway:
		client, err := gateway.New(gateway.Options{
			BaseURL:         cfg.Transport.GatewayURL,
			Token:           cfg.Transport.GatewayToken,
			Timeout:         cfg.Transport.GatewayTimeout,
			RecipientSuffix: cfg.Transport.RecipientSuffix,
			Logger:          slog.Default(),
		}, transport.NewState())
		if err != nil {
			return nil, nil, err
		}
		go client.Watch(ctx, cfg.Transport.StatusInterval)
		slog.Info("waiting for whatsapp gateway", "url", cfg.Transport.GatewayURL)
		return client, client.State(), nil

	default:
		return nil, nil, fmt.Errorf("unknown transport mode %q", cfg.Transport.Mode)
	}
}
