package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"robofleet-sim/internal/telemetry"
)

// JSONStdoutWriter prints updates as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs an update in JSON format.
func (w *JSONStdoutWriter) Write(u telemetry.Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode %s update: %w", u.Kind(), err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteBatch outputs multiple updates in JSON format.
func (w *JSONStdoutWriter) WriteBatch(updates []telemetry.Update) error {
	for _, u := range updates {
		if err := w.Write(u); err != nil {
			return err
		}
	}
	return nil
}
