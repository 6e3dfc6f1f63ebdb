package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dshills/graphflow/graph/emit"
	"github.com/dshills/graphflow/internal/config"
)

// newTracing installs a global tracer provider whose spans are written to
// logger at debug level, and returns the emitter feeding it plus its
// shutdown func.
func newTracing(cfg config.TracingConfig, logger zerolog.Logger) (*emit.OTelEmitter, func(context.Context) error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(&logSpanExporter{logger: logger.With().Str("component", "tracing").Logger()}),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	)
	otel.SetTracerProvider(tp)

	emitter := emit.NewOTelEmitter(tp.Tracer("github.com/dshills/graphflow"))
	shutdown := func(ctx context.Context) error {
		if err := emitter.Flush(ctx); err != nil {
			return err
		}
		return tp.Shutdown(ctx)
	}
	return emitter, shutdown
}

// logSpanExporter is a sdktrace.SpanExporter that logs finished spans.
type logSpanExporter struct {
	logger zerolog.Logger
}

func (e *logSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		ev := e.logger.Debug().
			Str("trace_id", s.SpanContext().TraceID().String()).
			Str("span_id", s.SpanContext().SpanID().String()).
			Str("span", s.Name()).
			Dur("duration", s.EndTime().Sub(s.StartTime()))
		for _, kv := range s.Attributes() {
			ev = ev.Str(string(kv.Key), kv.Value.Emit())
		}
		if s.Status().Code == codes.Error {
			ev = ev.Str("status_description", s.Status().Description)
		}
		ev.Msg("span")
	}
	return nil
}

func (e *logSpanExporter) Shutdown(context.Context) error {
	return nil
}
