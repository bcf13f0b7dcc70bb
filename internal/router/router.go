// Package router validates inbound control and activity messages and
// dispatches them to the tracker, the session runner and the event store.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
)

// Sentinel errors returned by Dispatch.
var (
	ErrInvalidMessage = errors.New("invalid message format")
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Session is the part of the simulator runner the router controls.
type Session interface {
	Start(ctx context.Context)
	Stop()
	SetTarget(target schema.FlowState)
	Active() bool
	DeviceStatus() schema.DeviceStatus
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithBaseContext sets the context sessions started by the router run under.
// Request contexts end with the request and cannot be used.
func WithBaseContext(ctx context.Context) Option {
	return func(r *Router) { r.baseCtx = ctx }
}

// Router maps message types to handlers.
type Router struct {
	tracker     *core.Tracker
	tabs        *core.TabRegistry
	session     Session
	store       contract.EventStore
	broadcaster contract.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
	baseCtx     context.Context
	handlers    map[schema.MessageType]handlerFunc
}

type handlerFunc func(ctx context.Context, msg schema.Message) (any, error)

// New returns a router wired to its collaborators.
func New(tracker *core.Tracker, tabs *core.TabRegistry, session Session, store contract.EventStore, broadcaster contract.Broadcaster, opts ...Option) *Router {
	r := &Router{
		tracker:     tracker,
		tabs:        tabs,
		session:     session,
		store:       store,
		broadcaster: broadcaster,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		baseCtx:     context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[schema.MessageType]handlerFunc{
		schema.PingMessage:             r.handlePing,
		schema.SessionStartMessage:     r.handleSessionStart,
		schema.SessionEndMessage:       r.handleSessionEnd,
		schema.BrainStateChangeMessage: r.handleBrainStateChange,
		schema.ActivityLogMessage:      r.handleActivityLog,
		schema.DeviceConnectMessage:    r.handleDeviceConnect,
		schema.DeviceDisconnectMessage: r.handleDeviceDisconnect,
		schema.TabActivatedMessage:     r.handleTabActivated,
		schema.TabUpdatedMessage:       r.handleTabUpdated,
		schema.TabRemovedMessage:       r.handleTabRemoved,
		schema.IdleStateMessage:        r.handleIdleState,
	}
	return r
}

// Decode parses and validates a message envelope. The type, payload and
// timestamp keys must all be present.
func Decode(raw []byte) (schema.Message, error) {
	var msg schema.Message
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return msg, ErrInvalidMessage
	}
	for _, key := range []string{"type", "payload", "timestamp"} {
		if _, ok := fields[key]; !ok {
			return msg, ErrInvalidMessage
		}
	}
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		return msg, ErrInvalidMessage
	}
	return msg, nil
}

// Dispatch decodes raw and handles it. The response always describes the
// outcome; the error is set for failures so callers can pick a status code.
func (r *Router) Dispatch(ctx context.Context, raw []byte) (schema.Response, error) {
	msg, err := Decode(raw)
	if err != nil {
		r.logger.Warn("invalid message received", "error", err)
		return schema.Response{Success: false, Error: "Invalid message format"}, err
	}
	return r.Handle(ctx, msg)
}

// Handle runs the handler registered for msg.Type.
func (r *Router) Handle(ctx context.Context, msg schema.Message) (schema.Response, error) {
	handler, ok := r.handlers[msg.Type]
	if !ok {
		r.logger.Warn("unhandled message type", "type", msg.Type)
		return schema.Response{Success: false, Error: "Unknown message type: " + string(msg.Type)},
			fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}

	r.logger.Debug("message received", "type", msg.Type, "source", msg.Source)
	data, err := handler(ctx, msg)
	if err != nil {
		r.logger.Warn("message handling failed", "type", msg.Type, "error", err)
		return schema.Response{Success: false, Error: err.Error()}, err
	}
	return schema.Response{Success: true, Data: data}, nil
}

// eventTime is the message timestamp, or now when the sender left it unset.
func (r *Router) eventTime(msg schema.Message) int64 {
	if msg.Timestamp > 0 {
		return msg.Timestamp
	}
	return r.now().UnixMilli()
}

func decodePayload[T any](msg schema.Message) (T, error) {
	var payload T
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return payload, fmt.Errorf("%w: %s requires a payload", ErrInvalidPayload, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, msg.Type, err)
	}
	return payload, nil
}

func (r *Router) handlePing(context.Context, schema.Message) (any, error) {
	return schema.PongPayload{Timestamp: r.now().UnixMilli()}, nil
}

func (r *Router) handleSessionStart(context.Context, schema.Message) (any, error) {
	r.tracker.SetSessionActive(true)
	r.session.Start(r.baseCtx)
	return map[string]bool{"sessionActive": true}, nil
}

func (r *Router) handleSessionEnd(context.Context, schema.Message) (any, error) {
	r.tracker.SetSessionActive(false)
	r.session.Stop()
	return map[string]bool{"sessionActive": false}, nil
}

func (r *Router) handleBrainStateChange(_ context.Context, msg schema.Message) (any, error) {
	payload, err := decodePayload[schema.BrainStatePayload](msg)
	if err != nil {
		return nil, err
	}
	target, err := schema.ParseFlowState(string(payload.TargetMode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	r.session.SetTarget(target)
	return map[string]schema.FlowState{"targetMode": target}, nil
}

// handleActivityLog appends a tab_active event for senders that segment
// activity themselves.
func (r *Router) handleActivityLog(ctx context.Context, msg schema.Message) (any, error) {
	payload, err := decodePayload[schema.ActivityLogPayload](msg)
	if err != nil {
		return nil, err
	}
	if payload.URL == "" {
		return nil, fmt.Errorf("%w: %s requires a url", ErrInvalidPayload, msg.Type)
	}
	start := payload.TsStart
	if start <= 0 {
		start = r.eventTime(msg)
	}
	host, _ := core.Hostname(payload.URL)
	event := schema.ActivityEvent{
		TsStart:       start,
		URL:           payload.URL,
		Hostname:      host,
		Category:      core.Classify(payload.URL),
		TabID:         payload.TabID,
		WindowID:      payload.WindowID,
		EventType:     schema.TabActiveEvent,
		SessionActive: r.tracker.SessionActive(),
	}
	id, err := r.store.Append(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("append activity log: %w", err)
	}
	return map[string]any{"id": id, "category": event.Category}, nil
}

func (r *Router) handleDeviceConnect(ctx context.Context, _ schema.Message) (any, error) {
	status := r.session.DeviceStatus()
	if err := r.broadcaster.Publish(ctx, schema.DeviceStatusUpdateMessage, status); err != nil {
		r.logger.Warn("broadcast failed", "type", schema.DeviceStatusUpdateMessage, "error", err)
	}
	return status, nil
}

func (r *Router) handleDeviceDisconnect(ctx context.Context, _ schema.Message) (any, error) {
	status := r.session.DeviceStatus()
	status.Connected = false
	if err := r.broadcaster.Publish(ctx, schema.DeviceStatusUpdateMessage, status); err != nil {
		r.logger.Warn("broadcast failed", "type", schema.DeviceStatusUpdateMessage, "error", err)
	}
	return status, nil
}

func (r *Router) tabPayload(msg schema.Message) (schema.Tab, error) {
	payload, err := decodePayload[schema.TabPayload](msg)
	if err != nil {
		return schema.Tab{}, err
	}
	if payload.TabID == nil {
		return schema.Tab{}, fmt.Errorf("%w: %s requires tabId", ErrInvalidPayload, msg.Type)
	}
	return schema.Tab{ID: *payload.TabID, WindowID: payload.WindowID, URL: payload.URL, Active: payload.Active}, nil
}

func (r *Router) handleTabActivated(ctx context.Context, msg schema.Message) (any, error) {
	tab, err := r.tabPayload(msg)
	if err != nil {
		return nil, err
	}
	tab.Active = true
	r.tabs.Activate(tab)
	return nil, r.tracker.TabActivated(ctx, r.eventTime(msg), tab.ID)
}

func (r *Router) handleTabUpdated(ctx context.Context, msg schema.Message) (any, error) {
	tab, err := r.tabPayload(msg)
	if err != nil {
		return nil, err
	}
	r.tabs.Update(tab)
	return nil, r.tracker.TabUpdated(ctx, r.eventTime(msg), tab)
}

func (r *Router) handleTabRemoved(ctx context.Context, msg schema.Message) (any, error) {
	tab, err := r.tabPayload(msg)
	if err != nil {
		return nil, err
	}
	defer r.tabs.Remove(tab.ID)
	return nil, r.tracker.TabRemoved(ctx, r.eventTime(msg), tab.ID)
}

func (r *Router) handleIdleState(ctx context.Context, msg schema.Message) (any, error) {
	payload, err := decodePayload[schema.IdleStatePayload](msg)
	if err != nil {
		return nil, err
	}
	if _, ok := schema.ValidIdleStates[payload.State]; !ok {
		return nil, fmt.Errorf("%w: unknown idle state %q", ErrInvalidPayload, payload.State)
	}
	return nil, r.tracker.IdleStateChanged(ctx, r.eventTime(msg), payload.State)
}
