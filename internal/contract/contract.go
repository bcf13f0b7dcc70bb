// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/flowtrack/schema"
)

// StoreManager defines the interface for managing the event store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetEventStore() EventStore
}

// EventStore defines the interface for activity event persistence.
// Timestamps are Unix milliseconds.
type EventStore interface {
	// Append durably writes one event and returns its id
	Append(ctx context.Context, event schema.ActivityEvent) (int64, error)

	// Sweep deletes every event whose start is older than now - retentionDays
	Sweep(ctx context.Context, now int64, retentionDays int) (int64, error)

	// Range returns events with from <= start < to, oldest first. limit <= 0 means no limit.
	Range(ctx context.Context, from, to int64, limit int) ([]schema.ActivityEvent, error)

	// TotalsByCategory sums event durations per category for from <= start < to
	TotalsByCategory(ctx context.Context, from, to int64) ([]schema.CategoryTotal, error)

	// GetStatus returns status information about the event store
	GetStatus() (schema.EventStatus, error)

	// Close closes the underlying connection
	Close() error
}

// TabResolver looks up browser tabs. Lookups may fail or return nothing;
// callers bound them with a context deadline.
type TabResolver interface {
	// TabByID returns the tab with the given id.
	TabByID(ctx context.Context, tabID int) (schema.Tab, bool, error)

	// FocusedTab returns the active tab of the last focused window.
	FocusedTab(ctx context.Context) (schema.Tab, bool, error)
}

// Broadcaster publishes outbound notifications to downstream consumers.
type Broadcaster interface {
	Publish(ctx context.Context, msgType schema.MessageType, payload any) error
	Close() error
}
