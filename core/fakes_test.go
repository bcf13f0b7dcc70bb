package core

import (
	"context"
	"errors"
	"sync"

	"github.com/huangsam/flowtrack/schema"
)

// memoryStore is an in-memory contract.EventStore for tracker tests.
type memoryStore struct {
	mu      sync.Mutex
	events  []schema.ActivityEvent
	failing bool
}

var errStoreDown = errors.New("store down")

func (s *memoryStore) Append(ctx context.Context, e schema.ActivityEvent) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return 0, errStoreDown
	}
	e.ID = int64(len(s.events) + 1)
	s.events = append(s.events, e)
	return e.ID, nil
}

func (s *memoryStore) Sweep(context.Context, int64, int) (int64, error) { return 0, nil }

func (s *memoryStore) Range(context.Context, int64, int64, int) ([]schema.ActivityEvent, error) {
	return s.snapshot(), nil
}

func (s *memoryStore) TotalsByCategory(context.Context, int64, int64) ([]schema.CategoryTotal, error) {
	return nil, nil
}

func (s *memoryStore) GetStatus() (schema.EventStatus, error) { return schema.EventStatus{}, nil }

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) snapshot() []schema.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.ActivityEvent(nil), s.events...)
}

// stubResolver answers tab lookups from a fixed map, or fails.
type stubResolver struct {
	tabs    map[int]schema.Tab
	focused *schema.Tab
	err     error
	block   bool
}

func (r *stubResolver) TabByID(ctx context.Context, id int) (schema.Tab, bool, error) {
	if r.block {
		<-ctx.Done()
		return schema.Tab{}, false, ctx.Err()
	}
	if r.err != nil {
		return schema.Tab{}, false, r.err
	}
	tab, ok := r.tabs[id]
	return tab, ok, nil
}

func (r *stubResolver) FocusedTab(ctx context.Context) (schema.Tab, bool, error) {
	if r.block {
		<-ctx.Done()
		return schema.Tab{}, false, ctx.Err()
	}
	if r.err != nil {
		return schema.Tab{}, false, r.err
	}
	if r.focused == nil {
		return schema.Tab{}, false, nil
	}
	return *r.focused, true, nil
}

// recordingBroadcaster keeps every published message type.
type recordingBroadcaster struct {
	mu    sync.Mutex
	types []schema.MessageType
	err   error
}

func (b *recordingBroadcaster) Publish(_ context.Context, t schema.MessageType, _ any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.types = append(b.types, t)
	return b.err
}

func (b *recordingBroadcaster) Close() error { return nil }
