package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"robofleet-sim/internal/telemetry"
)

// messageWriter is the subset of *kafka.Writer used by KafkaWriter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter publishes updates as JSON messages keyed by robot id, so each
// robot's records stay ordered within one partition.
type KafkaWriter struct {
	w       messageWriter
	log     *slog.Logger
	timeout time.Duration
}

// NewKafkaWriter creates a writer for topic on the given brokers.
func NewKafkaWriter(brokers []string, topic string, log *slog.Logger) (*KafkaWriter, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka writer needs brokers and a topic")
	}
	if log == nil {
		log = slog.Default()
	}
	return &KafkaWriter{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
		},
		log:     log.With("component", "kafka", "topic", topic),
		timeout: 10 * time.Second,
	}, nil
}

// Write publishes a single update.
func (k *KafkaWriter) Write(u telemetry.Update) error {
	return k.WriteBatch([]telemetry.Update{u})
}

// WriteBatch publishes updates in one WriteMessages call.
func (k *KafkaWriter) WriteBatch(updates []telemetry.Update) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(updates))
	for _, u := range updates {
		b, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode %s update: %w", u.Kind(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(u.Robot()),
			Value: b,
			Time:  u.Time(),
			Headers: []kafka.Header{
				{Key: "kind", Value: []byte(u.Kind())},
				{Key: "fleet_id", Value: []byte(u.Fleet())},
			},
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		k.log.Error("kafka write failed", "err", err, "count", len(msgs))
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaWriter) Close() error {
	return k.w.Close()
}
