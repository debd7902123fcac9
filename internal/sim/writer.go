package sim

import (
	"errors"

	"robofleet-sim/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.Update) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.Update) error
}

// writeAll sends updates to w, in one batch when w supports it.
func writeAll(w TelemetryWriter, updates []telemetry.Update) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(updates)
	}
	var errs []error
	for _, u := range updates {
		if err := w.Write(u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AdminStatusWriter is implemented by writers that show whether the admin
// API is listening.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// MultiWriter fans updates out to multiple writers. A failing writer does
// not stop delivery to the others.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write sends an update to all writers.
func (mw *MultiWriter) Write(u telemetry.Update) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Write(u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple updates to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(updates []telemetry.Update) error {
	var errs []error
	for _, w := range mw.writers {
		if err := writeAll(w, updates); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetAdminStatus forwards the admin server state to writers that show it.
func (mw *MultiWriter) SetAdminStatus(active bool) {
	for _, w := range mw.writers {
		if s, ok := w.(AdminStatusWriter); ok {
			s.SetAdminStatus(active)
		}
	}
}

// Close closes every writer that holds resources.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
