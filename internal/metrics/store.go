package metrics

import (
	"context"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
)

// InstrumentedStore counts appends, sweeps and failures of the wrapped store.
type InstrumentedStore struct {
	contract.EventStore
	metrics *Metrics
}

var _ contract.EventStore = &InstrumentedStore{} // Compile-time check

// InstrumentStore wraps store so its writes are recorded on m.
func InstrumentStore(store contract.EventStore, m *Metrics) *InstrumentedStore {
	return &InstrumentedStore{EventStore: store, metrics: m}
}

// Append records the appended event by type and category.
func (s *InstrumentedStore) Append(ctx context.Context, event schema.ActivityEvent) (int64, error) {
	id, err := s.EventStore.Append(ctx, event)
	if err != nil {
		s.metrics.StoreError("append")
		return id, err
	}
	category := event.Category
	if category == "" {
		category = schema.UnknownCategory
	}
	s.metrics.EventAppended(string(event.EventType), string(category))
	return id, nil
}

// Sweep records the number of deleted events.
func (s *InstrumentedStore) Sweep(ctx context.Context, now int64, retentionDays int) (int64, error) {
	deleted, err := s.EventStore.Sweep(ctx, now, retentionDays)
	if err != nil {
		s.metrics.StoreError("sweep")
		return deleted, err
	}
	s.metrics.EventsSwept(deleted)
	return deleted, nil
}
