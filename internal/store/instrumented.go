package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Instrumented wraps an Adapter with tracing spans and latency metrics.
type Instrumented struct {
	next    Adapter
	backend string
	metrics *metrics.DashboardMetrics
	tracer  trace.Tracer
}

func NewInstrumented(next Adapter, backend string, m *metrics.DashboardMetrics, tracer trace.Tracer) *Instrumented {
	if next == nil {
		panic("store: adapter cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("medicpro.internal.store")
	}
	return &Instrumented{next: next, backend: backend, metrics: m, tracer: tracer}
}

func (s *Instrumented) Load(ctx context.Context, key string) (*clinic.Record, error) {
	ctx, span := s.start(ctx, "store.load", key)
	defer span.End()

	started := time.Now()
	rec, err := s.next.Load(ctx, key)
	s.metrics.ObserveStoreOp(s.backend, "load", err, time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrCorruptRecord) {
			s.metrics.IncCorruptRecord(s.backend)
		}
	}
	span.SetAttributes(attribute.Bool("record.found", rec != nil))
	return rec, err
}

func (s *Instrumented) Save(ctx context.Context, key string, rec *clinic.Record) error {
	ctx, span := s.start(ctx, "store.save", key)
	defer span.End()

	started := time.Now()
	err := s.next.Save(ctx, key, rec)
	s.metrics.ObserveStoreOp(s.backend, "save", err, time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Instrumented) Clear(ctx context.Context, key string) error {
	ctx, span := s.start(ctx, "store.clear", key)
	defer span.End()

	started := time.Now()
	err := s.next.Clear(ctx, key)
	s.metrics.ObserveStoreOp(s.backend, "clear", err, time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Instrumented) start(ctx context.Context, name, key string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("store.backend", s.backend),
		attribute.Bool("store.user_scoped", strings.Contains(key, ":")),
	)
	return ctx, span
}
