package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
)

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithBroadcaster publishes an ACTIVITY_LOG notice after each finalized segment.
func WithBroadcaster(b contract.Broadcaster) TrackerOption {
	return func(t *Tracker) { t.broadcaster = b }
}

// WithTrackerLogger sets the tracker logger.
func WithTrackerLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = l }
}

// WithLookupTimeout bounds each tab lookup.
func WithLookupTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.lookupTimeout = d
		}
	}
}

// Tracker owns the single open attention segment and the idle marker. Every
// handler holds mu for its whole finalize-then-open pair, so browser events are
// applied one at a time in the order they acquire the lock. Timestamps older
// than the last one applied are raised to it, so events never overlap.
//
// Segment transitions outlive the caller's context: a cancelled request still
// records the segment it closed.
type Tracker struct {
	store         contract.EventStore
	tabs          contract.TabResolver
	broadcaster   contract.Broadcaster
	logger        *slog.Logger
	lookupTimeout time.Duration

	mu            sync.Mutex
	current       *schema.Segment
	idleSince     *int64
	sessionActive bool
	lastTs        int64
}

// NewTracker builds a tracker that appends finalized events to store and
// resolves tabs through tabs.
func NewTracker(store contract.EventStore, tabs contract.TabResolver, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:         store,
		tabs:          tabs,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		lookupTimeout: contract.DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetSessionActive sets the flag stamped on events finalized from now on.
func (t *Tracker) SetSessionActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionActive = active
}

// SessionActive reports whether a flow session is active.
func (t *Tracker) SessionActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionActive
}

// Current returns a copy of the open segment, if any.
func (t *Tracker) Current() (schema.Segment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return schema.Segment{}, false
	}
	return *t.current, true
}

// IdleSince returns the start of the current idle interval, if idle.
func (t *Tracker) IdleSince() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.idleSince == nil {
		return 0, false
	}
	return *t.idleSince, true
}

// TabActivated closes the open segment and opens one on the activated tab.
// A failed lookup leaves no segment open. While idle nothing opens; tracking
// resumes on the focused tab once the user is active again.
func (t *Tracker) TabActivated(ctx context.Context, now int64, tabID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now = t.advance(now)
	err := t.finalize(ctx, now, schema.TabActiveEvent)
	if t.idleSince != nil {
		return err
	}

	lookupCtx, cancel := t.lookupContext(ctx)
	defer cancel()
	tab, ok, lookupErr := t.tabs.TabByID(lookupCtx, tabID)
	if lookupErr != nil {
		t.logger.Debug("tab lookup failed", "tab", tabID, "error", lookupErr)
		return err
	}
	if ok {
		t.open(tab, now)
	}
	return err
}

// TabUpdated handles a URL change. Only the active tab counts, and a change on a
// tab other than the one owning the open segment is ignored.
func (t *Tracker) TabUpdated(ctx context.Context, now int64, tab schema.Tab) error {
	if !tab.Active || tab.URL == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && t.current.TabID != tab.ID {
		return nil
	}
	// A background reload while idle must not reopen a segment.
	if t.idleSince != nil {
		return nil
	}
	now = t.advance(now)
	err := t.finalize(ctx, now, schema.TabNavEvent)
	t.open(tab, now)
	return err
}

// TabRemoved finalizes the open segment when it belongs to the closed tab.
func (t *Tracker) TabRemoved(ctx context.Context, now int64, tabID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil || t.current.TabID != tabID {
		return nil
	}
	return t.finalize(ctx, t.advance(now), schema.TabClosedEvent)
}

// IdleStateChanged reacts to the user going idle, locking the screen, or
// coming back. Returning to active records the idle interval and resumes on
// the focused tab when it can be resolved.
func (t *Tracker) IdleStateChanged(ctx context.Context, now int64, state schema.IdleState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now = t.advance(now)
	if state != schema.ActiveIdleState {
		err := t.finalize(ctx, now, schema.WindowBlurEvent)
		// idle -> locked keeps the earlier marker.
		if t.idleSince == nil {
			t.idleSince = &now
		}
		return err
	}

	var err error
	if t.idleSince != nil {
		start := *t.idleSince
		t.idleSince = nil
		err = t.appendEvent(ctx, schema.ActivityEvent{
			TsStart:       start,
			TsEnd:         &now,
			DurationMs:    schema.Int64Ptr(max(0, now-start)),
			Category:      schema.UnknownCategory,
			EventType:     schema.IdleEvent,
			SessionActive: t.sessionActive,
		})
	}

	lookupCtx, cancel := t.lookupContext(ctx)
	defer cancel()
	tab, ok, lookupErr := t.tabs.FocusedTab(lookupCtx)
	if lookupErr != nil {
		t.logger.Debug("focused tab lookup failed", "error", lookupErr)
		return err
	}
	if !ok {
		return err
	}
	if ferr := t.finalize(ctx, now, schema.WindowBlurEvent); err == nil {
		err = ferr
	}
	t.open(tab, now)
	return err
}

// advance clamps now to the latest timestamp seen. Callers hold mu.
func (t *Tracker) advance(now int64) int64 {
	now = max(now, t.lastTs)
	t.lastTs = now
	return now
}

func (t *Tracker) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), t.lookupTimeout)
}

// open starts a segment on tab. Callers hold mu.
func (t *Tracker) open(tab schema.Tab, now int64) {
	category := schema.UnknownCategory
	host, _ := Hostname(tab.URL)
	if host != "" {
		category = ClassifyHost(host)
	}
	t.current = &schema.Segment{
		TabID:    tab.ID,
		WindowID: tab.WindowID,
		URL:      tab.URL,
		Hostname: host,
		Category: category,
		TsStart:  now,
	}
}

// finalize closes the open segment, if any, as an event of kind. The slot is
// cleared even when the write fails. Callers hold mu.
func (t *Tracker) finalize(ctx context.Context, now int64, kind schema.EventType) error {
	seg := t.current
	if seg == nil {
		return nil
	}
	t.current = nil

	category := seg.Category
	if category == "" {
		category = Classify(seg.URL)
	}
	event := schema.ActivityEvent{
		TsStart:       seg.TsStart,
		TsEnd:         &now,
		DurationMs:    schema.Int64Ptr(max(0, now-seg.TsStart)),
		URL:           seg.URL,
		Hostname:      seg.Hostname,
		Category:      category,
		TabID:         schema.IntPtr(seg.TabID),
		WindowID:      schema.IntPtr(seg.WindowID),
		EventType:     kind,
		SessionActive: t.sessionActive,
	}
	if err := t.appendEvent(ctx, event); err != nil {
		return err
	}

	if t.broadcaster != nil {
		notice := schema.ActivityNotice{URL: seg.URL, Category: category, EventType: kind, Timestamp: now}
		if err := t.broadcaster.Publish(ctx, schema.ActivityLogMessage, notice); err != nil {
			t.logger.Warn("activity broadcast failed", "error", err)
		}
	}
	return nil
}

func (t *Tracker) appendEvent(ctx context.Context, event schema.ActivityEvent) error {
	id, err := t.store.Append(context.WithoutCancel(ctx), event)
	if err != nil {
		t.logger.Error("failed to append activity event", "type", event.EventType, "error", err)
		return fmt.Errorf("append %s event: %w", event.EventType, err)
	}
	t.logger.Debug("activity event appended", "id", id, "type", event.EventType, "category", event.Category, "duration_ms", event.Duration())
	return nil
}
