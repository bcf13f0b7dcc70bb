// Package cmd defines the command-line interface for flowtrack.
package cmd

import (
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the events subcommands to the parent events command
	eventsCmd.AddCommand(eventsStatusCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsTotalsCmd)
	eventsCmd.AddCommand(eventsSweepCmd)
	eventsCmd.AddCommand(eventsExportCmd)
	eventsCmd.AddCommand(eventsClearCmd)
	eventsCmd.AddCommand(eventsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("events-backend", string(schema.SQLiteBackend), "Event store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("events-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Int("retention-days", contract.DefaultRetentionDays, "Days of activity events to keep (0 keeps nothing older than now)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("target-mode", string(schema.FocusState), "Target flow state: focus or creative or recovery")
	rootCmd.PersistentFlags().Int64("seed", contract.DefaultSeed, "Seed for the flow simulator")
	rootCmd.PersistentFlags().String("dwell", contract.DefaultDwell.String(), "How long the simulator holds each anchor")
	rootCmd.PersistentFlags().String("tick-interval", contract.DefaultTickInterval.String(), "Interval between flow score ticks")
	rootCmd.PersistentFlags().String("anchors-file", "", "Optional TOML file of simulator anchors")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Bool("explain", false, "Print the per-component score breakdown")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address for the message endpoint")
	serveCmd.Flags().String("summary-url", "", "Endpoint for periodic flow summaries (empty disables)")
	serveCmd.Flags().String("summary-interval", contract.DefaultSummaryInterval.String(), "Minimum time between summary requests")
	serveCmd.Flags().String("summary-timeout", contract.DefaultSummaryTimeout.String(), "Timeout for one summary request")
	serveCmd.Flags().String("broadcast", string(schema.LogBroadcast), "Comma-separated broadcast sinks: log, kafka, nats")
	serveCmd.Flags().String("kafka-brokers", "", "Comma-separated Kafka brokers")
	serveCmd.Flags().String("kafka-topic", contract.DefaultKafkaTopic, "Kafka topic for broadcasts")
	serveCmd.Flags().String("nats-url", contract.DefaultNATSURL, "NATS server URL")
	serveCmd.Flags().String("nats-subject", contract.DefaultNATSSubject, "NATS subject prefix for broadcasts")
	serveCmd.Flags().Bool("access-log", false, "Write an HTTP access log to stderr")
	serveCmd.Flags().String("archive-file", "", "Archive swept events to this zstd file before deleting them")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of simulateCmd to Viper
	simulateCmd.Flags().Int("ticks", contract.DefaultSimulateTicks, "Number of ticks to simulate")
	if err := viper.BindPFlags(simulateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding simulate flags", err)
	}

	// Score inputs are read directly from the command flags.
	scoreCmd.Flags().Float64("baseline", 70, "Baseline flow score (0-100)")
	scoreCmd.Flags().Float64("stability", 0.5, "Flow stability (0-1)")
	scoreCmd.Flags().Float64("attention", 0.5, "Attention span (0-1)")
	scoreCmd.Flags().Float64("context-switch-rate", 0, "Context switch rate (0-1)")
	scoreCmd.Flags().Float64("fatigue", 0, "Mental fatigue (0-1)")
	scoreCmd.Flags().String("observed", string(schema.FocusState), "Observed flow state")
	scoreCmd.Flags().Float64("tab-switches", 0, "Tab switches per minute")
	scoreCmd.Flags().Duration("window", 0, "Length of the activity window")
	scoreCmd.Flags().Duration("leisure", 0, "Time spent on leisure sites within the window")
	scoreCmd.Flags().Duration("communication", 0, "Time spent on communication sites within the window")
	scoreCmd.Flags().Duration("idle", 0, "Idle time within the window")
	scoreCmd.Flags().Float64("previous", 0, "Previous score, used to compute the trend")

	// Bind all persistent flags of eventsCmd to Viper
	eventsCmd.PersistentFlags().String("since", "", "Only include events started within this duration (e.g., 24h)")
	eventsCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of events to display")
	if err := viper.BindPFlags(eventsCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding events flags", err)
	}

	eventsSweepCmd.Flags().String("archive-file", "", "Archive swept events to this zstd file before deleting them")

	// Bind all flags of eventsMigrateCmd to Viper
	eventsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(eventsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding events migrate flags", err)
	}
}
