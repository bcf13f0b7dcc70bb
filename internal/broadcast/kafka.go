package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/flowtrack/schema"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes envelopes as JSON to a Kafka topic, keyed by message
// type so each type stays ordered within its partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaSink returns a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		topic: topic,
	}
}

// Name implements Sink.
func (s *KafkaSink) Name() string { return string(schema.KafkaBroadcast) }

// Send implements Sink.
func (s *KafkaSink) Send(ctx context.Context, msg schema.Broadcast) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s broadcast: %w", msg.Type, err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.Type), Value: value}); err != nil {
		return fmt.Errorf("write to kafka topic %s: %w", s.topic, err)
	}
	return nil
}

// Close flushes pending writes.
func (s *KafkaSink) Close() error { return s.writer.Close() }
