package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/internal/broadcast"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/iocache"
	"github.com/huangsam/flowtrack/internal/metrics"
	"github.com/huangsam/flowtrack/internal/router"
	"github.com/huangsam/flowtrack/internal/session"
	"github.com/huangsam/flowtrack/internal/summary"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// retentionInterval is how often the running server sweeps old events.
const retentionInterval = 24 * time.Hour

// serveCmd runs the message endpoint, the flow session and the retention sweeper.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept browser messages and run the live flow session",
	Long: `Start the flowtrack message endpoint.

The browser extension posts message envelopes to /v1/messages. Tab and idle
changes become activity events in the event store, and SESSION_START begins a
session that ticks the flow simulator, broadcasts score updates and battery
status, and periodically asks the summary endpoint for a recap.

Endpoints:
  POST /v1/messages - dispatch one message envelope
  GET  /v1/events   - recent activity events (from, to, limit)
  GET  /v1/totals   - time spent per category (from, to)
  GET  /health      - liveness and store status
  GET  /metrics     - Prometheus metrics

Events older than --retention-days are swept at startup and once a day.

Examples:
  # Serve on the default address with log broadcasts
  flowtrack serve

  # Broadcast to Kafka and NATS as well
  flowtrack serve --broadcast log,kafka,nats --kafka-brokers localhost:9092

  # Store events in PostgreSQL (set connection string via env variable)
  FLOWTRACK_EVENTS_BACKEND=postgresql FLOWTRACK_EVENTS_DB_CONNECT="..." flowtrack serve`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		accessLog, _ := cmd.Flags().GetBool("access-log")
		archivePath, _ := cmd.Flags().GetString("archive-file")
		if err := runServe(rootCtx, accessLog, archivePath); err != nil {
			contract.LogFatal("Server failed", err)
		}
	},
}

// watchLogLevel reloads the log level whenever the config file changes.
func watchLogLevel(logger *slog.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		level, err := contract.ParseLogLevel(viper.GetString("log-level"))
		if err != nil {
			logger.Warn("ignoring config change", "file", e.Name, "error", err)
			return
		}
		contract.LogLevel.Set(level)
		logger.Info("config reloaded", "file", e.Name, "log_level", level.String())
	})
	viper.WatchConfig()
}

// sweepOnce applies the retention window and logs the outcome.
func sweepOnce(ctx context.Context, store contract.EventStore, now time.Time, archivePath string, logger *slog.Logger) {
	res, err := iocache.SweepEvents(ctx, store, now.UnixMilli(), cfg.RetentionDays, archivePath)
	if err != nil {
		logger.Error("retention sweep failed", "error", err)
		return
	}
	logger.Info("retention sweep", "cutoff", res.Cutoff, "archived", res.Archived, "deleted", res.Deleted)
}

// runRetention sweeps immediately and then on every interval until ctx ends.
func runRetention(ctx context.Context, store contract.EventStore, interval time.Duration, archivePath string, logger *slog.Logger) {
	sweepOnce(ctx, store, time.Now(), archivePath, logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweepOnce(ctx, store, now, archivePath, logger)
		}
	}
}

// runServe wires the store, broadcasts, session and router and serves until interrupted.
func runServe(parent context.Context, accessLog bool, archivePath string) error {
	logger := contract.NewLogger(os.Stderr)
	watchLogLevel(logger)

	base, err := eventStore()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)
	store := metrics.InstrumentStore(base, m)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runRetention(ctx, store, retentionInterval, archivePath, logger)

	hub, err := broadcast.New(cfg, logger, m)
	if err != nil {
		return fmt.Errorf("failed to start broadcasts: %w", err)
	}
	defer func() {
		if err := hub.Close(); err != nil {
			logger.Warn("closing broadcasts", "error", err)
		}
	}()

	sim, err := session.NewSimulator(cfg)
	if err != nil {
		return err
	}
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithMetrics(m),
		session.WithTarget(cfg.TargetMode),
	}
	if cfg.SummaryURL != "" {
		client := summary.New(cfg.SummaryURL, cfg.SummaryTimeout,
			summary.WithLogger(logger),
			summary.WithMetrics(m),
			summary.WithInterval(cfg.SummaryInterval))
		opts = append(opts, session.WithSummary(client))
	}
	runner := session.NewRunner(sim, hub, cfg.TickInterval, opts...)
	defer runner.Stop()

	tabs := core.NewTabRegistry()
	tracker := core.NewTracker(store, tabs,
		core.WithBroadcaster(hub),
		core.WithTrackerLogger(logger),
		core.WithLookupTimeout(contract.DefaultLookupTimeout))

	r := router.New(tracker, tabs, runner, store, hub,
		router.WithLogger(logger),
		router.WithBaseContext(ctx))

	serverCfg := router.ServerConfig{Addr: cfg.Listen, EventLimit: cfg.ResultLimit}
	if accessLog {
		serverCfg.AccessLog = os.Stderr
	}

	logger.Info("flowtrack listening", "addr", cfg.Listen, "backend", cfg.EventsBackend, "target", cfg.TargetMode)
	return router.Serve(ctx, serverCfg, router.NewHandler(r, store, m, serverCfg))
}
