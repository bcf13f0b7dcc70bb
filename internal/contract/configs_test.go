package contract

import (
	"log/slog"
	"testing"
	"time"

	"github.com/huangsam/flowtrack/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation with defaults applied.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		EventsBackend: string(schema.SQLiteBackend),
		RetentionDays: DefaultRetentionDays,
		Output:        string(schema.TextOut),
		Precision:     DefaultPrecision,
		Color:         "yes",
		TargetMode:    string(schema.FocusState),
		Seed:          DefaultSeed,
		Dwell:         "45s",
		TickInterval:  "8s",
		Broadcast:     "log",
		Limit:         DefaultResultLimit,
		Ticks:         DefaultSimulateTicks,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "empty backend defaults to sqlite", mutate: func(in *ConfigRawInput) { in.EventsBackend = "" }},
		{name: "invalid backend", mutate: func(in *ConfigRawInput) { in.EventsBackend = "redis" }, expectError: true},
		{name: "negative retention", mutate: func(in *ConfigRawInput) { in.RetentionDays = -1 }, expectError: true},
		{name: "zero retention is allowed", mutate: func(in *ConfigRawInput) { in.RetentionDays = 0 }},
		{name: "invalid target mode", mutate: func(in *ConfigRawInput) { in.TargetMode = "sleep" }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 4 }, expectError: true},
		{name: "zero limit", mutate: func(in *ConfigRawInput) { in.Limit = 0 }, expectError: true},
		{name: "zero ticks", mutate: func(in *ConfigRawInput) { in.Ticks = 0 }, expectError: true},
		{name: "bad dwell", mutate: func(in *ConfigRawInput) { in.Dwell = "forever" }, expectError: true},
		{name: "zero tick interval", mutate: func(in *ConfigRawInput) { in.TickInterval = "0s" }, expectError: true},
		{name: "zero summary interval allowed", mutate: func(in *ConfigRawInput) { in.SummaryInterval = "0s" }},
		{name: "invalid log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "unknown broadcast sink", mutate: func(in *ConfigRawInput) { in.Broadcast = "log,carrier-pigeon" }, expectError: true},
		{name: "kafka without brokers", mutate: func(in *ConfigRawInput) {
			in.Broadcast = "kafka"
			in.KafkaTopic = DefaultKafkaTopic
		}, expectError: true},
		{name: "kafka with brokers", mutate: func(in *ConfigRawInput) {
			in.Broadcast = "kafka"
			in.KafkaBrokers = "localhost:9092"
			in.KafkaTopic = DefaultKafkaTopic
		}},
		{name: "nats without url", mutate: func(in *ConfigRawInput) {
			in.Broadcast = "nats"
			in.NATSSubject = DefaultNATSSubject
		}, expectError: true},
		{name: "mysql without connect", mutate: func(in *ConfigRawInput) { in.EventsBackend = "mysql" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidate_Values(t *testing.T) {
	input := validInput()
	input.EventsBackend = "SQLite"
	input.TargetMode = "Creative"
	input.Broadcast = " log , nats,log "
	input.NATSURL = DefaultNATSURL
	input.NATSSubject = DefaultNATSSubject
	input.KafkaBrokers = "a:9092, b:9092 ,"
	input.Since = "24h"
	input.LogLevel = "debug"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.SQLiteBackend, cfg.EventsBackend)
	assert.Equal(t, schema.CreativeState, cfg.TargetMode)
	assert.Equal(t, []schema.BroadcastBackend{schema.LogBroadcast, schema.NATSBroadcast}, cfg.Broadcasts)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 45*time.Second, cfg.Dwell)
	assert.Equal(t, 8*time.Second, cfg.TickInterval)
	assert.Equal(t, DefaultSummaryInterval, cfg.SummaryInterval)
	assert.Equal(t, DefaultSummaryTimeout, cfg.SummaryTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Since)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidate_DefaultBroadcast(t *testing.T) {
	input := validInput()
	input.Broadcast = ""
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []schema.BroadcastBackend{schema.LogBroadcast}, cfg.Broadcasts)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/flowtrack", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql no tcp", schema.MySQLBackend, "user:pass@localhost/flowtrack", true},
		{"postgres keyword valid", schema.PostgreSQLBackend, "host=localhost user=u dbname=flowtrack", false},
		{"postgres url valid", schema.PostgreSQLBackend, "postgres://u:p@localhost:5432/flowtrack", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost user=u", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Broadcasts:   []schema.BroadcastBackend{schema.LogBroadcast},
		KafkaBrokers: []string{"a:9092"},
		Seed:         7,
	}
	clone := cfg.Clone()
	clone.Broadcasts[0] = schema.KafkaBroadcast
	clone.KafkaBrokers[0] = "b:9092"
	clone.Seed = 8

	assert.Equal(t, schema.LogBroadcast, cfg.Broadcasts[0])
	assert.Equal(t, "a:9092", cfg.KafkaBrokers[0])
	assert.Equal(t, int64(7), cfg.Seed)
}

func TestQueryWindow(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	cfg := &Config{}
	from, to := cfg.QueryWindow(now)
	assert.Equal(t, int64(0), from)
	assert.Equal(t, now.UnixMilli()+1, to)

	cfg.Since = time.Hour
	from, to = cfg.QueryWindow(now)
	assert.Equal(t, now.UnixMilli()-3_600_000, from)
	assert.Equal(t, now.UnixMilli()+1, to)
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "flowtrack"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "flowtrack", profile.Prefix)
}
