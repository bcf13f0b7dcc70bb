package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/flowtrack/schema"
	"github.com/nats-io/nats.go"
)

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSink publishes envelopes as JSON on <subject>.<lower(type)>.
type NATSSink struct {
	conn    natsConn
	subject string
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("flowtrack"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSSink{conn: conn, subject: subject}, nil
}

// Name implements Sink.
func (s *NATSSink) Name() string { return string(schema.NATSBroadcast) }

// Subject returns the subject a message type is published on.
func (s *NATSSink) Subject(msgType schema.MessageType) string {
	return s.subject + "." + strings.ToLower(string(msgType))
}

// Send implements Sink.
func (s *NATSSink) Send(ctx context.Context, msg schema.Broadcast) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s broadcast: %w", msg.Type, err)
	}
	subject := s.Subject(msg.Type)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection, flushing buffered messages.
func (s *NATSSink) Close() error { return s.conn.Drain() }
