package router

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu        sync.Mutex
	events    []schema.ActivityEvent
	appendErr error
}

func (s *memStore) Append(_ context.Context, event schema.ActivityEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	event.ID = int64(len(s.events) + 1)
	s.events = append(s.events, event)
	return event.ID, nil
}

func (s *memStore) Sweep(context.Context, int64, int) (int64, error) { return 0, nil }

func (s *memStore) Range(_ context.Context, from, to int64, limit int) ([]schema.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schema.ActivityEvent
	for _, e := range s.events {
		if e.TsStart >= from && e.TsStart < to {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) TotalsByCategory(_ context.Context, from, to int64) ([]schema.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[schema.Category]*schema.CategoryTotal{}
	for _, e := range s.events {
		if e.TsStart < from || e.TsStart >= to {
			continue
		}
		t, ok := sums[e.Category]
		if !ok {
			t = &schema.CategoryTotal{Category: e.Category}
			sums[e.Category] = t
		}
		t.Events++
		t.DurationMs += e.Duration()
	}
	var out []schema.CategoryTotal
	for _, t := range sums {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DurationMs > out[j].DurationMs })
	return out, nil
}

func (s *memStore) GetStatus() (schema.EventStatus, error) {
	return schema.EventStatus{Backend: "memory", Connected: true}, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) all() []schema.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.ActivityEvent(nil), s.events...)
}

type fakeSession struct {
	mu      sync.Mutex
	active  bool
	starts  int
	stops   int
	target  schema.FlowState
	lastCtx context.Context
}

func (s *fakeSession) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.starts++
	s.lastCtx = ctx
}

func (s *fakeSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.stops++
}

func (s *fakeSession) SetTarget(target schema.FlowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
}

func (s *fakeSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *fakeSession) DeviceStatus() schema.DeviceStatus {
	return schema.DeviceStatus{Connected: true, Name: "Flow Simulator"}
}

type published struct {
	msgType schema.MessageType
	payload any
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []published
}

func (b *recordingBroadcaster) Publish(_ context.Context, msgType schema.MessageType, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{msgType, payload})
	return nil
}

func (b *recordingBroadcaster) Close() error { return nil }

func (b *recordingBroadcaster) ofType(t schema.MessageType) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []any
	for _, m := range b.msgs {
		if m.msgType == t {
			out = append(out, m.payload)
		}
	}
	return out
}

type fixture struct {
	router      *Router
	tracker     *core.Tracker
	store       *memStore
	session     *fakeSession
	broadcaster *recordingBroadcaster
}

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		store:       &memStore{},
		session:     &fakeSession{},
		broadcaster: &recordingBroadcaster{},
	}
	tabs := core.NewTabRegistry()
	f.tracker = core.NewTracker(f.store, tabs, core.WithBroadcaster(f.broadcaster))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	f.router = New(f.tracker, tabs, f.session, f.store, f.broadcaster, opts...)
	return f
}

func message(t *testing.T, msgType schema.MessageType, ts int64, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	out, err := json.Marshal(schema.Message{Type: msgType, Payload: raw, Timestamp: ts})
	require.NoError(t, err)
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"type":"PING","payload":{},"timestamp":1}`, false},
		{"null payload is present", `{"type":"PING","payload":null,"timestamp":1}`, false},
		{"not json", `PING`, true},
		{"array", `[1,2]`, true},
		{"null", `null`, true},
		{"missing payload", `{"type":"PING","timestamp":1}`, true},
		{"missing timestamp", `{"type":"PING","payload":{}}`, true},
		{"missing type", `{"payload":{},"timestamp":1}`, true},
		{"empty type", `{"type":"","payload":{},"timestamp":1}`, true},
		{"wrong timestamp type", `{"type":"PING","payload":{},"timestamp":"now"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, schema.PingMessage, msg.Type)
		})
	}
}

func TestDispatch_InvalidAndUnknown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.router.Dispatch(ctx, []byte(`{"type":"PING"}`))
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid message format", resp.Error)

	resp, err = f.router.Dispatch(ctx, []byte(`{"type":"WARP_DRIVE","payload":{},"timestamp":1}`))
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown message type: WARP_DRIVE", resp.Error)
}

func TestDispatch_Ping(t *testing.T) {
	f := newFixture()
	resp, err := f.router.Dispatch(context.Background(), message(t, schema.PingMessage, 1, struct{}{}))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, schema.PongPayload{Timestamp: fixedNow.UnixMilli()}, resp.Data)
}

func TestDispatch_Session(t *testing.T) {
	type ctxKey struct{}
	base := context.WithValue(context.Background(), ctxKey{}, "base")
	f := newFixture(WithBaseContext(base))

	reqCtx, cancel := context.WithCancel(context.Background())
	_, err := f.router.Dispatch(reqCtx, message(t, schema.SessionStartMessage, 1, struct{}{}))
	cancel()
	require.NoError(t, err)
	assert.True(t, f.tracker.SessionActive())
	assert.True(t, f.session.Active())
	assert.Equal(t, "base", f.session.lastCtx.Value(ctxKey{}), "sessions outlive the request")

	_, err = f.router.Dispatch(context.Background(), message(t, schema.SessionEndMessage, 2, struct{}{}))
	require.NoError(t, err)
	assert.False(t, f.tracker.SessionActive())
	assert.False(t, f.session.Active())
	assert.Equal(t, 1, f.session.starts)
	assert.Equal(t, 1, f.session.stops)
}

func TestDispatch_BrainStateChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.router.Dispatch(ctx, message(t, schema.BrainStateChangeMessage, 1, map[string]string{"targetMode": "Creative"}))
	require.NoError(t, err)
	assert.Equal(t, schema.CreativeState, f.session.target)

	resp, err := f.router.Dispatch(ctx, message(t, schema.BrainStateChangeMessage, 1, map[string]string{"targetMode": "sleepy"}))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.False(t, resp.Success)
	assert.Equal(t, schema.CreativeState, f.session.target)

	_, err = f.router.Dispatch(ctx, []byte(`{"type":"BRAIN_STATE_CHANGE","payload":null,"timestamp":1}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDispatch_ActivityLog(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.tracker.SetSessionActive(true)

	resp, err := f.router.Dispatch(ctx, message(t, schema.ActivityLogMessage, 5_000, map[string]any{
		"url":   "https://www.github.com/huangsam",
		"tabId": 3,
	}))
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = f.router.Dispatch(ctx, message(t, schema.ActivityLogMessage, 9_000, map[string]any{
		"url":     "https://youtube.com/watch",
		"tsStart": 7_000,
	}))
	require.NoError(t, err)

	events := f.store.all()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, int64(5_000), first.TsStart)
	assert.Nil(t, first.TsEnd)
	assert.Nil(t, first.DurationMs)
	assert.Equal(t, "github.com", first.Hostname)
	assert.Equal(t, schema.WorkCategory, first.Category)
	assert.Equal(t, schema.TabActiveEvent, first.EventType)
	assert.True(t, first.SessionActive)
	require.NotNil(t, first.TabID)
	assert.Equal(t, 3, *first.TabID)

	assert.Equal(t, int64(7_000), events[1].TsStart)
	assert.Equal(t, schema.LeisureCategory, events[1].Category)
}

func TestDispatch_ActivityLogErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.router.Dispatch(ctx, message(t, schema.ActivityLogMessage, 1, map[string]any{"tabId": 3}))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	f.store.appendErr = errors.New("disk full")
	resp, err := f.router.Dispatch(ctx, message(t, schema.ActivityLogMessage, 1, map[string]any{"url": "https://x.com"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, resp.Error, "disk full")
}

func TestDispatch_Device(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.router.Dispatch(ctx, message(t, schema.DeviceConnectMessage, 1, struct{}{}))
	require.NoError(t, err)
	assert.Equal(t, schema.DeviceStatus{Connected: true, Name: "Flow Simulator"}, resp.Data)

	_, err = f.router.Dispatch(ctx, message(t, schema.DeviceDisconnectMessage, 2, struct{}{}))
	require.NoError(t, err)

	updates := f.broadcaster.ofType(schema.DeviceStatusUpdateMessage)
	require.Len(t, updates, 2)
	assert.True(t, updates[0].(schema.DeviceStatus).Connected)
	assert.False(t, updates[1].(schema.DeviceStatus).Connected)
}

func TestDispatch_TabLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	steps := [][]byte{
		message(t, schema.TabActivatedMessage, 1_000, map[string]any{"tabId": 1, "windowId": 1, "url": "https://github.com"}),
		message(t, schema.TabActivatedMessage, 5_000, map[string]any{"tabId": 2, "windowId": 1, "url": "https://youtube.com"}),
		message(t, schema.TabRemovedMessage, 9_000, map[string]any{"tabId": 2}),
	}
	for _, raw := range steps {
		_, err := f.router.Dispatch(ctx, raw)
		require.NoError(t, err)
	}

	events := f.store.all()
	require.Len(t, events, 2)
	assert.Equal(t, schema.TabActiveEvent, events[0].EventType)
	assert.Equal(t, schema.WorkCategory, events[0].Category)
	assert.Equal(t, int64(4_000), events[0].Duration())
	assert.Equal(t, schema.TabClosedEvent, events[1].EventType)
	assert.Equal(t, schema.LeisureCategory, events[1].Category)
	assert.Equal(t, *events[0].TsEnd, events[1].TsStart)

	_, open := f.tracker.Current()
	assert.False(t, open)
	assert.Len(t, f.broadcaster.ofType(schema.ActivityLogMessage), 2)
}

func TestDispatch_TabUpdatedAndIdle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.router.Dispatch(ctx, message(t, schema.TabUpdatedMessage, 1_000, map[string]any{"tabId": 4, "windowId": 2, "url": "https://slack.com", "active": true}))
	require.NoError(t, err)
	seg, open := f.tracker.Current()
	require.True(t, open)
	assert.Equal(t, schema.CommunicationCategory, seg.Category)

	_, err = f.router.Dispatch(ctx, message(t, schema.IdleStateMessage, 3_000, map[string]string{"state": "idle"}))
	require.NoError(t, err)
	_, err = f.router.Dispatch(ctx, message(t, schema.IdleStateMessage, 8_000, map[string]string{"state": "active"}))
	require.NoError(t, err)

	events := f.store.all()
	require.Len(t, events, 2)
	assert.Equal(t, schema.WindowBlurEvent, events[0].EventType)
	assert.Equal(t, schema.IdleEvent, events[1].EventType)
	assert.Equal(t, int64(5_000), events[1].Duration())

	// Focus resumes on the registered tab
	seg, open = f.tracker.Current()
	require.True(t, open)
	assert.Equal(t, 4, seg.TabID)
	assert.Equal(t, int64(8_000), seg.TsStart)
}

func TestDispatch_InvalidTabAndIdlePayloads(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		raw  []byte
	}{
		{"activated without tab id", message(t, schema.TabActivatedMessage, 1, map[string]any{"url": "https://github.com"})},
		{"removed with bad id", message(t, schema.TabRemovedMessage, 1, map[string]any{"tabId": "seven"})},
		{"unknown idle state", message(t, schema.IdleStateMessage, 1, map[string]string{"state": "asleep"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.router.Dispatch(ctx, tt.raw)
			assert.ErrorIs(t, err, ErrInvalidPayload)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Empty(t, f.store.all())
}

func TestDispatch_MissingTimestampUsesClock(t *testing.T) {
	f := newFixture()
	_, err := f.router.Dispatch(context.Background(), []byte(`{"type":"ACTIVITY_LOG","payload":{"url":"https://github.com"},"timestamp":0}`))
	require.NoError(t, err)
	events := f.store.all()
	require.Len(t, events, 1)
	assert.Equal(t, fixedNow.UnixMilli(), events[0].TsStart)
}

func FuzzDispatch(f *testing.F) {
	for _, seed := range []string{
		`{"type":"PING","payload":{},"timestamp":1}`,
		`{"type":"TAB_ACTIVATED","payload":{"tabId":1},"timestamp":1}`,
		`{"type":"IDLE_STATE","payload":{"state":"idle"},"timestamp":1}`,
		`{}`, `[]`, `"`,
	} {
		f.Add([]byte(seed))
	}
	fx := newFixture()
	f.Fuzz(func(t *testing.T, raw []byte) {
		resp, err := fx.router.Dispatch(context.Background(), raw)
		if err != nil && resp.Success {
			t.Fatalf("failed dispatch reported success for %q", raw)
		}
		if err == nil && !resp.Success {
			t.Fatalf("successful dispatch reported failure for %q", raw)
		}
	})
}

func BenchmarkDispatchPing(b *testing.B) {
	fx := newFixture()
	raw := []byte(`{"type":"PING","payload":{},"timestamp":1}`)
	ctx := context.Background()
	for b.Loop() {
		_, _ = fx.router.Dispatch(ctx, raw)
	}
}
