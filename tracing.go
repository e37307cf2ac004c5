package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logExporter writes finished spans to the logger at debug level.
type logExporter struct {
	logger *log.Logger
}

func (e logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if !e.logger.IsLevelEnabled(log.DebugLevel) {
		return nil
	}
	for _, s := range spans {
		fields := log.Fields{
			"span":     s.Name(),
			"trace_id": s.SpanContext().TraceID().String(),
			"total_ms": float64(s.EndTime().Sub(s.StartTime())) / float64(time.Millisecond),
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		if s.Status().Code == codes.Error {
			fields["error"] = s.Status().Description
		}
		e.logger.WithFields(fields).Debug("span")
	}
	return nil
}

func (logExporter) Shutdown(context.Context) error { return nil }

// setupTracing installs a global provider exporting through the logger. The
// returned func flushes and stops it.
func setupTracing(logger *log.Logger) (*sdktrace.TracerProvider, func(context.Context) error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(logExporter{logger: logger}),
	)
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown
}
