//go:build database

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/flowtrack/internal/iocache"
	"github.com/huangsam/flowtrack/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestFlowtrackWithMySQL tests the event store and CLI with a MySQL backend.
func TestFlowtrackWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "flowtrack",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/flowtrack", host, port.Port())
	exerciseBackend(t, schema.MySQLBackend, connStr)
}

// TestFlowtrackWithPostgres tests the event store and CLI with a PostgreSQL backend.
func TestFlowtrackWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseBackend(t, schema.PostgreSQLBackend, connStr)
}

// exerciseBackend runs the store contract in-process, then drives the CLI against the same database.
func exerciseBackend(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()
	ctx := context.Background()

	store, err := iocache.NewEventStore(backend, connStr)
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)
	end := now - 1000
	duration := int64(4000)
	events := []schema.ActivityEvent{
		{TsStart: now - 40*day, URL: "https://old.reddit.com", Hostname: "old.reddit.com", Category: schema.LeisureCategory, EventType: schema.TabActiveEvent},
		{TsStart: end - duration, TsEnd: &end, DurationMs: &duration, URL: "https://github.com/x", Hostname: "github.com", Category: schema.WorkCategory, EventType: schema.TabActiveEvent, SessionActive: true},
	}
	for _, e := range events {
		id, err := store.Append(ctx, e)
		require.NoError(t, err)
		assert.Positive(t, id)
	}

	got, err := store.Range(ctx, 0, now+1, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "github.com", got[1].Hostname)
	assert.True(t, got[1].SessionActive)

	totals, err := store.TotalsByCategory(ctx, now-day, now+1)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(4000), totals[0].DurationMs)

	deleted, err := store.Sweep(ctx, now, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, int64(1), status.TotalEvents)
	require.NoError(t, store.Close())

	env := []string{
		"FLOWTRACK_EVENTS_BACKEND=" + string(backend),
		"FLOWTRACK_EVENTS_DB_CONNECT=" + connStr,
	}

	_, err = runFlowtrack(t, env, "events", "status")
	require.NoError(t, err)

	out, err := runFlowtrack(t, env, "events", "list", "--output", "json")
	require.NoError(t, err)
	var listed []schema.ActivityEvent
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, schema.WorkCategory, listed[0].Category)

	_, err = runFlowtrack(t, env, "events", "clear")
	require.NoError(t, err)

	_, err = runFlowtrack(t, env, "events", "migrate")
	require.NoError(t, err)

	out, err = runFlowtrack(t, env, "events", "list", "--output", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}
