// Package broadcast publishes outbound flowtrack notifications to downstream
// consumers: the process log, Kafka and NATS.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/metrics"
	"github.com/huangsam/flowtrack/schema"
)

// Sink delivers a broadcast envelope to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg schema.Broadcast) error
	Close() error
}

// Hub fans each published message out to every sink. All sinks receive the
// same envelope, including its id.
type Hub struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

var _ contract.Broadcaster = &Hub{} // Compile-time check

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = logger }
}

// WithMetrics records every publish on m.
func WithMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithClock replaces time.Now for envelope timestamps.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// NewHub returns a hub publishing to sinks.
func NewHub(sinks []Sink, opts ...HubOption) *Hub {
	h := &Hub{
		sinks:  sinks,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish wraps payload in an envelope and sends it to every sink. A failing
// sink does not stop delivery to the others; all failures are joined.
func (h *Hub) Publish(ctx context.Context, msgType schema.MessageType, payload any) error {
	msg := schema.Broadcast{
		ID:        h.newID(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: h.now().UnixMilli(),
	}

	var errs []error
	for _, sink := range h.sinks {
		if err := sink.Send(ctx, msg); err != nil {
			h.logger.Warn("broadcast failed", "sink", sink.Name(), "type", msgType, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	err := errors.Join(errs...)
	h.metrics.Broadcast(string(msgType), err)
	return err
}

// Close closes every sink.
func (h *Hub) Close() error {
	var errs []error
	for _, sink := range h.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// New builds a hub with one sink per configured backend.
func New(cfg *contract.Config, logger *slog.Logger, m *metrics.Metrics) (*Hub, error) {
	var sinks []Sink
	for _, backend := range cfg.Broadcasts {
		switch backend {
		case schema.LogBroadcast:
			sinks = append(sinks, NewLogSink(logger))
		case schema.KafkaBroadcast:
			sinks = append(sinks, NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic))
		case schema.NATSBroadcast:
			sink, err := NewNATSSink(cfg.NATSURL, cfg.NATSSubject)
			if err != nil {
				closeAll(sinks)
				return nil, err
			}
			sinks = append(sinks, sink)
		default:
			closeAll(sinks)
			return nil, fmt.Errorf("unsupported broadcast sink: %s", backend)
		}
	}
	return NewHub(sinks, WithLogger(logger), WithMetrics(m)), nil
}

func closeAll(sinks []Sink) {
	for _, sink := range sinks {
		_ = sink.Close()
	}
}

// LogSink writes every broadcast to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name implements Sink.
func (s *LogSink) Name() string { return string(schema.LogBroadcast) }

// Send implements Sink.
func (s *LogSink) Send(ctx context.Context, msg schema.Broadcast) error {
	s.logger.InfoContext(ctx, "broadcast", "id", msg.ID, "type", msg.Type, "payload", msg.Payload)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }
