// Package lidar wires logging for the decoder packages and exposes the same
// three streams to commands.
//
//   - ops: actionable warnings, errors, lifecycle events
//   - diag: day-to-day diagnostics, configuration context
//   - trace: high-frequency packet and scan telemetry
package lidar

import (
	"io"
	"log"
	"sync"

	"github.com/banshee-data/pandarscan/internal/lidar/l2frames"
	"github.com/banshee-data/pandarscan/internal/lidar/monitor"
	"github.com/banshee-data/pandarscan/internal/lidar/parse"
	"github.com/banshee-data/pandarscan/internal/lidar/pipeline"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures all three logging streams at once, here and in
// every decoder subpackage. Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	opsLogger = newLogger("[lidar] ", w.Ops)
	diagLogger = newLogger("[lidar] ", w.Diag)
	traceLogger = newLogger("[lidar] ", w.Trace)
	mu.Unlock()

	parse.SetLogWriters(w.Ops, w.Diag, w.Trace)
	l2frames.SetLogWriters(w.Ops, w.Diag, w.Trace)
	pipeline.SetLogWriters(w.Ops, w.Diag, w.Trace)
	monitor.SetLogWriters(w.Ops, w.Diag, w.Trace)
}

// newLogger creates a *log.Logger for a given writer, or returns nil if w is nil.
func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream (actionable warnings, errors, lifecycle events).
func Opsf(format string, args ...interface{}) {
	mu.RLock()
	l := opsLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Diagf logs to the diag stream (day-to-day diagnostics, tuning context).
func Diagf(format string, args ...interface{}) {
	mu.RLock()
	l := diagLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Tracef logs to the trace stream (high-frequency packet/frame telemetry).
func Tracef(format string, args ...interface{}) {
	mu.RLock()
	l := traceLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
