package contract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/flowtrack/schema"
)

// Default values for configuration.
const (
	DefaultRetentionDays   = 30
	DefaultListenAddr      = "127.0.0.1:4112"
	DefaultTickInterval    = 8 * time.Second
	DefaultSeed            = 42
	DefaultDwell           = 45 * time.Second
	DefaultSummaryURL      = "http://localhost:4111/v1/flow-ai/summary"
	DefaultSummaryInterval = 30 * time.Second
	DefaultSummaryTimeout  = 5 * time.Second
	DefaultKafkaTopic      = "flowtrack.events"
	DefaultNATSURL         = "nats://127.0.0.1:4222"
	DefaultNATSSubject     = "flowtrack.events"
	DefaultPrecision       = 1
	DefaultResultLimit     = 50
	MaxResultLimit         = 10000
	DefaultSimulateTicks   = 12
	DefaultLookupTimeout   = 2 * time.Second
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for flowtrack.
// This struct remains the "final, validated" config.
type Config struct {
	EventsBackend   schema.DatabaseBackend
	EventsDBConnect string // Please use env var as this is plaintext
	RetentionDays   int

	Listen          string
	TickInterval    time.Duration
	Seed            int64
	Dwell           time.Duration
	TargetMode      schema.FlowState
	AnchorsFile     string
	SummaryURL      string // empty disables summary requests
	SummaryInterval time.Duration
	SummaryTimeout  time.Duration

	Broadcasts   []schema.BroadcastBackend
	KafkaBrokers []string
	KafkaTopic   string
	NATSURL      string
	NATSSubject  string

	LogLevel slog.Level

	Since       time.Duration // lookback window for event queries (0 = everything)
	ResultLimit int
	Ticks       int
	Explain     bool
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	EventsBackend   string `mapstructure:"events-backend"`
	EventsDBConnect string `mapstructure:"events-db-connect"`
	RetentionDays   int    `mapstructure:"retention-days"`
	LogLevel        string `mapstructure:"log-level"`
	Output          string `mapstructure:"output"`
	OutputFile      string `mapstructure:"output-file"`
	Precision       int    `mapstructure:"precision"`
	Width           int    `mapstructure:"width"`
	Color           string `mapstructure:"color"`
	TargetMode      string `mapstructure:"target-mode"`
	Seed            int64  `mapstructure:"seed"`
	Dwell           string `mapstructure:"dwell"`
	AnchorsFile     string `mapstructure:"anchors-file"`

	// --- Fields from serveCmd.Flags() ---
	Listen          string `mapstructure:"listen"`
	TickInterval    string `mapstructure:"tick-interval"`
	SummaryURL      string `mapstructure:"summary-url"`
	SummaryInterval string `mapstructure:"summary-interval"`
	SummaryTimeout  string `mapstructure:"summary-timeout"`
	Broadcast       string `mapstructure:"broadcast"`
	KafkaBrokers    string `mapstructure:"kafka-brokers"`
	KafkaTopic      string `mapstructure:"kafka-topic"`
	NATSURL         string `mapstructure:"nats-url"`
	NATSSubject     string `mapstructure:"nats-subject"`

	// --- Fields from simulateCmd / scoreCmd / events flags ---
	Ticks   int    `mapstructure:"ticks"`
	Explain bool   `mapstructure:"explain"`
	Since   string `mapstructure:"since"`
	Limit   int    `mapstructure:"limit"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Broadcasts != nil {
		clone.Broadcasts = make([]schema.BroadcastBackend, len(c.Broadcasts))
		copy(clone.Broadcasts, c.Broadcasts)
	}
	if c.KafkaBrokers != nil {
		clone.KafkaBrokers = make([]string, len(c.KafkaBrokers))
		copy(clone.KafkaBrokers, c.KafkaBrokers)
	}
	return &clone
}

// QueryWindow returns the [from, to) millisecond window for event queries ending at now.
func (c *Config) QueryWindow(now time.Time) (int64, int64) {
	to := now.UnixMilli() + 1
	if c.Since <= 0 {
		return 0, to
	}
	return now.Add(-c.Since).UnixMilli(), to
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := processBroadcasts(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("events-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("events-db-connect is required when using %s backend", backend)
		}
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			return nil
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend normalizes a backend name; empty means SQLite.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	if s == "" {
		return schema.SQLiteBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(s))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid events backend '%s'. must be sqlite, mysql, postgresql, none", s)
	}
	return backend, nil
}

// validateBackendConfigs validates the event store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.EventsBackend)
	if err != nil {
		return err
	}
	cfg.EventsBackend = backend
	cfg.EventsDBConnect = input.EventsDBConnect
	return ValidateDatabaseConnectionString(cfg.EventsBackend, cfg.EventsDBConnect)
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Explain = input.Explain
	cfg.Width = input.Width
	cfg.Listen = input.Listen
	cfg.SummaryURL = strings.TrimSpace(input.SummaryURL)
	cfg.AnchorsFile = input.AnchorsFile
	cfg.Seed = input.Seed

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Retention ---
	if input.RetentionDays < 0 {
		return fmt.Errorf("retention-days cannot be negative (received %d)", input.RetentionDays)
	}
	cfg.RetentionDays = input.RetentionDays

	// --- 2. Target mode ---
	target, err := schema.ParseFlowState(input.TargetMode)
	if err != nil {
		return fmt.Errorf("invalid --target-mode: %w", err)
	}
	cfg.TargetMode = target

	// --- 3. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > 3 {
		return fmt.Errorf("precision must be between 0 and 3 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	// --- 4. Limits ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Ticks <= 0 {
		return fmt.Errorf("ticks must be greater than 0 (received %d)", input.Ticks)
	}
	cfg.Ticks = input.Ticks

	// --- 5. Log level ---
	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	return nil
}

// processDurations parses all duration-valued settings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	parse := func(name, value string, fallback time.Duration, allowZero bool) (time.Duration, error) {
		if strings.TrimSpace(value) == "" {
			return fallback, nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid --%s value %q: %w", name, value, err)
		}
		if d < 0 || (d == 0 && !allowZero) {
			return 0, fmt.Errorf("--%s must be positive (received %s)", name, value)
		}
		return d, nil
	}

	var err error
	if cfg.TickInterval, err = parse("tick-interval", input.TickInterval, DefaultTickInterval, false); err != nil {
		return err
	}
	if cfg.Dwell, err = parse("dwell", input.Dwell, DefaultDwell, false); err != nil {
		return err
	}
	if cfg.SummaryInterval, err = parse("summary-interval", input.SummaryInterval, DefaultSummaryInterval, true); err != nil {
		return err
	}
	if cfg.SummaryTimeout, err = parse("summary-timeout", input.SummaryTimeout, DefaultSummaryTimeout, false); err != nil {
		return err
	}
	if cfg.Since, err = parse("since", input.Since, 0, true); err != nil {
		return err
	}
	return nil
}

// processBroadcasts parses the broadcast sink list and validates sink settings.
func processBroadcasts(cfg *Config, input *ConfigRawInput) error {
	cfg.Broadcasts = nil
	seen := make(map[schema.BroadcastBackend]struct{})
	for p := range strings.SplitSeq(input.Broadcast, ",") {
		b := schema.BroadcastBackend(strings.ToLower(strings.TrimSpace(p)))
		if b == "" {
			continue
		}
		if _, ok := schema.ValidBroadcastBackends[b]; !ok {
			return fmt.Errorf("invalid broadcast sink '%s'. must be log, kafka, nats", b)
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		cfg.Broadcasts = append(cfg.Broadcasts, b)
	}
	if len(cfg.Broadcasts) == 0 {
		cfg.Broadcasts = []schema.BroadcastBackend{schema.LogBroadcast}
	}

	cfg.KafkaBrokers = nil
	for p := range strings.SplitSeq(input.KafkaBrokers, ",") {
		if broker := strings.TrimSpace(p); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}
	cfg.KafkaTopic = input.KafkaTopic
	cfg.NATSURL = input.NATSURL
	cfg.NATSSubject = input.NATSSubject

	if _, ok := seen[schema.KafkaBroadcast]; ok {
		if len(cfg.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka-brokers is required when broadcasting to kafka")
		}
		if cfg.KafkaTopic == "" {
			return fmt.Errorf("kafka-topic cannot be empty when broadcasting to kafka")
		}
	}
	if _, ok := seen[schema.NATSBroadcast]; ok {
		if cfg.NATSURL == "" {
			return fmt.Errorf("nats-url is required when broadcasting to nats")
		}
		if cfg.NATSSubject == "" {
			return fmt.Errorf("nats-subject cannot be empty when broadcasting to nats")
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
