// Package dilog provides the pipeline's three logging streams: ops
// (per-trace lifecycle, warnings, the batch summary), diag (per-stage
// detail for threshold tuning) and trace (per-sample firehose). Each
// stream is an independent standard-library logger, safe for
// concurrent use by worker goroutines.
package dilog

import (
	"io"
	"log"
)

var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams. Pass nil for
// any writer to disable that stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger = newLogger("[deident] ", ops)
	diagLogger = newLogger("[deident] ", diag)
	traceLogger = newLogger("[deident] ", trace)
}

// SetLegacyLogger routes all three streams to a single writer. Pass
// nil to disable all logging.
func SetLegacyLogger(w io.Writer) {
	SetLogWriters(w, w, w)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream (trace lifecycle, data loss, summary).
func Opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// Diagf logs to the diag stream (stage diagnostics, tuning context).
func Diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// Tracef logs to the trace stream (per-sample telemetry).
func Tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
