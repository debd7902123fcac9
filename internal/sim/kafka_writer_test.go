package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"robofleet-sim/internal/telemetry"
)

type fakeMessageWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeMessageWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeMessageWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaWriterKeysByRobot(t *testing.T) {
	fw := &fakeMessageWriter{}
	k := &KafkaWriter{w: fw, log: slog.New(slog.NewTextHandler(io.Discard, nil)), timeout: time.Second}

	if err := k.WriteBatch(sampleUpdates()); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if len(fw.msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(fw.msgs))
	}
	for i, m := range fw.msgs {
		if string(m.Key) != "r1" {
			t.Errorf("message %d key = %s, want r1", i, m.Key)
		}
		u, err := telemetry.DecodeUpdate(m.Value)
		if err != nil {
			t.Fatalf("message %d not decodable: %v", i, err)
		}
		if string(m.Headers[0].Value) != string(u.Kind()) {
			t.Errorf("kind header %s does not match payload %s", m.Headers[0].Value, u.Kind())
		}
	}
	if err := k.Close(); err != nil || !fw.closed {
		t.Error("expected writer to be closed")
	}
}

func TestKafkaWriterErrors(t *testing.T) {
	fw := &fakeMessageWriter{err: errors.New("broker down")}
	k := &KafkaWriter{w: fw, log: slog.New(slog.NewTextHandler(io.Discard, nil)), timeout: time.Second}
	if err := k.Write(sampleUpdates()[0]); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewKafkaWriter(nil, "t", nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}
