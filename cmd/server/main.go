// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for the storewatch server.
//
// storewatch watches the store listings of a set of mobile apps and
// raises an alert when a listing disappears. A batch run loads every
// app marked Online, probes its Google Play listing page, refreshes
// last_check for apps still live, and transitions disappeared apps to
// Removed with an append-only alert event.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, config.yaml,
//     STOREWATCH_* environment variables)
//  2. Logging: global zerolog logger
//  3. Store: PostgreSQL via pgx, schema applied on startup
//  4. Prober: HTTP listing prober with a circuit breaker
//  5. Monitor engine: probing, pacing, reconciliation, alerting
//  6. Scheduler (optional): in-process batch trigger when
//     monitor.schedule_interval is set; by default runs are triggered
//     externally via POST /api/v1/monitor/run
//  7. HTTP server: chi router with the trigger, read views, health
//     probes and Prometheus metrics
//
// # Triggering
//
// Batch runs are meant to be triggered by an external cron hitting
// POST /api/v1/monitor/run with "Authorization: Bearer <cron secret>".
// Example:
//
//	export STOREWATCH_DATABASE_URL=postgres://storewatch:pw@db:5432/storewatch
//	export STOREWATCH_SECURITY_CRON_SECRET=$(openssl rand -base64 32)
//	./storewatch
//
//	curl -X POST -H "Authorization: Bearer $STOREWATCH_SECURITY_CRON_SECRET" \
//	  http://localhost:8787/api/v1/monitor/run
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests (10s timeout),
// stops the scheduler and closes the database pool.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storewatch/storewatch/internal/api"
	"github.com/storewatch/storewatch/internal/config"
	"github.com/storewatch/storewatch/internal/logging"
	"github.com/storewatch/storewatch/internal/monitor"
	"github.com/storewatch/storewatch/internal/notify"
	"github.com/storewatch/storewatch/internal/prober"
	"github.com/storewatch/storewatch/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("probe_interval", cfg.Monitor.ProbeInterval.String()).
		Bool("scheduler", cfg.Monitor.ScheduleInterval > 0).
		Bool("telegram", cfg.Notify.TelegramEnabled).
		Msg("Starting storewatch")

	if cfg.Security.CronSecret == "" {
		// Not fatal: the trigger endpoint reports the misconfiguration
		// per-request. Everything else still works.
		logging.Warn().Msg("No cron secret configured, the monitor trigger will refuse all calls")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database.
	pg, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if err := pg.InitSchema(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	logging.Info().Msg("Database initialized successfully")

	// Outbound notification channel. Disabled unless fully configured.
	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.TelegramEnabled {
		notifier = notify.NewTelegram(cfg.Notify)
		logging.Info().Str("notifier", notifier.Name()).Msg("Notifications enabled")
	}

	// Monitor engine.
	engine := monitor.NewEngine(
		pg,
		pg,
		prober.New(cfg.Monitor),
		monitor.NewIntervalPacer(cfg.Monitor.ProbeInterval),
		notifier,
	)

	// Optional in-process scheduler for deployments without external cron.
	scheduler := monitor.NewScheduler(engine, cfg.Monitor.ScheduleInterval)
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	// HTTP server.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(api.NewServer(engine, pg, pg, pg), cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server failure.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logging.Info().Str("signal", s.String()).Msg("Shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server failed")
		}
	}

	cancel() // stop the scheduler and any in-flight batch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	<-schedulerDone
	logging.Info().Msg("Shutdown complete")
}
