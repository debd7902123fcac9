package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"robofleet-sim/internal/telemetry"
)

// FileWriter logs updates to a JSONL file that ReplayLog can read back.
// Events are optionally copied to a second file.
type FileWriter struct {
	mu        sync.Mutex
	teleFile  *os.File
	eventFile *os.File
	teleEnc   *json.Encoder
	eventEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. eventsPath may be empty to skip the event log.
func NewFileWriter(telemetryPath, eventsPath string) (*FileWriter, error) {
	tf, err := os.Create(telemetryPath)
	if err != nil {
		return nil, fmt.Errorf("create telemetry log: %w", err)
	}
	fw := &FileWriter{teleFile: tf, teleEnc: json.NewEncoder(tf)}
	if eventsPath != "" {
		ef, err := os.Create(eventsPath)
		if err != nil {
			tf.Close()
			return nil, fmt.Errorf("create event log: %w", err)
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	return fw, nil
}

// eventRecord is one line of the event log.
type eventRecord struct {
	telemetry.Header
	telemetry.Event
}

// Write logs a single update.
func (f *FileWriter) Write(u telemetry.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.teleEnc.Encode(u); err != nil {
		return err
	}
	mu, ok := u.(telemetry.MetricsUpdate)
	if !ok || f.eventEnc == nil {
		return nil
	}
	for _, ev := range mu.Events {
		if err := f.eventEnc.Encode(eventRecord{Header: mu.Header, Event: ev}); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch logs multiple updates.
func (f *FileWriter) WriteBatch(updates []telemetry.Update) error {
	for _, u := range updates {
		if err := f.Write(u); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.teleFile != nil {
		if e := f.teleFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
