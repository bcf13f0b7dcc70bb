package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/iocache"
	"github.com/huangsam/flowtrack/internal/outwriter"
	"github.com/huangsam/flowtrack/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mustEventStore returns the initialized event store or exits.
func mustEventStore() contract.EventStore {
	store, err := eventStore()
	if err != nil {
		contract.LogFatal("Event store unavailable", err)
	}
	return store
}

// eventsCmd focused on activity event management.
//
// Note: clear and migrate validate config without opening the store, so they
// work against a database the store could not open.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and manage stored activity events",
	Long: `Inspect and manage the activity events recorded by flowtrack serve.

Every finished attention segment is stored as one event with its URL, category
and duration. Events older than --retention-days are swept automatically while
serving, or on demand with the sweep subcommand.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status  - Show event store statistics and connection info
  list    - List recent events
  totals  - Time spent per category
  sweep   - Delete events past the retention window
  export  - Export events to a Parquet file
  clear   - Remove all stored events
  migrate - Run event schema migrations

Examples:
  # Check event store status
  flowtrack events status

  # Time per category over the last day
  flowtrack events totals --since 24h`,
}

// eventsStatusCmd shows event store status.
var eventsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display event store statistics and connection details",
	Long: `Show the backend, connection status, event count, oldest and newest
event times and the current schema version.

Examples:
  flowtrack events status`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := mustEventStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get event status", err)
		}
		iocache.PrintEventStatus(os.Stdout, status)
	},
}

// eventsListCmd lists events.
var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent activity events",
	Long: `List stored activity events, oldest first, within --since.

Examples:
  # The last 20 events of the past hour
  flowtrack events list --since 1h --limit 20

  # All events as CSV
  flowtrack events list --limit 10000 --output csv --output-file events.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		start := time.Now()
		from, to := cfg.QueryWindow(start)
		events, err := mustEventStore().Range(rootCtx, from, to, cfg.ResultLimit)
		if err != nil {
			contract.LogFatal("Failed to list events", err)
		}
		if err := outwriter.NewOutWriter().WriteEvents(events, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Error writing events", err)
		}
	},
}

// eventsTotalsCmd sums time per category.
var eventsTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show time spent per category",
	Long: `Sum the duration of stored events per category within --since.

Examples:
  flowtrack events totals --since 168h`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		start := time.Now()
		from, to := cfg.QueryWindow(start)
		totals, err := mustEventStore().TotalsByCategory(rootCtx, from, to)
		if err != nil {
			contract.LogFatal("Failed to total events", err)
		}
		if err := outwriter.NewOutWriter().WriteTotals(totals, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Error writing totals", err)
		}
	},
}

// eventsSweepCmd applies the retention window.
var eventsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete events older than the retention window",
	Long: `Delete every event that started more than --retention-days ago.

With --archive-file, the swept events are first appended to a zstd-compressed
JSON lines archive.

Examples:
  flowtrack events sweep --retention-days 7
  flowtrack events sweep --archive-file events-archive.jsonl.zst`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		archivePath, _ := cmd.Flags().GetString("archive-file")
		res, err := iocache.SweepEvents(rootCtx, mustEventStore(), time.Now().UnixMilli(), cfg.RetentionDays, archivePath)
		if err != nil {
			contract.LogFatal("Failed to sweep events", err)
		}
		fmt.Printf("Swept %d events older than %s", res.Deleted, time.UnixMilli(res.Cutoff).Format(time.RFC3339))
		if archivePath != "" {
			fmt.Printf(" (%d archived to %s)", res.Archived, archivePath)
		}
		fmt.Println()
	},
}

// eventsExportCmd exports events to Parquet.
var eventsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export activity events to a Parquet file",
	Long: `Export stored events within --since to a Parquet file for analysis.

Examples:
  flowtrack events export --output-file events.parquet
  flowtrack events export --since 720h --output-file month.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		from, to := cfg.QueryWindow(time.Now())
		if err := iocache.ExecuteEventsExport(rootCtx, os.Stdout, mustEventStore(), cfg.OutputFile, from, to); err != nil {
			contract.LogFatal("Failed to export events", err)
		}
	},
}

// eventsClearCmd clears the event store.
var eventsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored activity events",
	Long: `Delete all activity events from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the events table

Examples:
  # Clear SQLite events (default)
  flowtrack events clear

  # Clear MySQL events (set connection string via env variable)
  FLOWTRACK_EVENTS_BACKEND=mysql FLOWTRACK_EVENTS_DB_CONNECT="..." flowtrack events clear`,
	PreRunE: configOnlySetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbPath := iocache.GetEventsDBFilePath()
		if cfg.EventsBackend == schema.SQLiteBackend && cfg.EventsDBConnect != "" {
			dbPath = cfg.EventsDBConnect
		}
		if err := iocache.ClearEvents(cfg.EventsBackend, dbPath, cfg.EventsDBConnect); err != nil {
			contract.LogFatal("Failed to clear events", err)
		}
		fmt.Println("Events cleared successfully.")
	},
}

// eventsMigrateCmd runs schema migrations.
var eventsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run event schema migrations",
	Long: `Migrate the events schema up to the latest version or to --target-version.

Examples:
  # Migrate to latest
  flowtrack events migrate

  # Roll back to the initial state
  flowtrack events migrate --target-version 0`,
	PreRunE: configOnlySetup,
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := iocache.MigrateEvents(os.Stdout, cfg.EventsBackend, cfg.EventsDBConnect, target); err != nil {
			contract.LogFatal("Failed to migrate events", err)
		}
	},
}
