// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/relkit/relkit/internal/event"
)

const (
	tracerName       = "github.com/relkit/relkit"
	sessionSpanName  = "relkit.session"
	shutdownDeadline = 5 * time.Second
)

// TracingListener exports one span per session with a child span per step.
type TracingListener struct {
	name            string
	continueOnError bool
	provider        *sdktrace.TracerProvider
	tracer          trace.Tracer

	mu          sync.Mutex
	sessionCtx  context.Context
	sessionSpan trace.Span
	steps       map[string]trace.Span
	closed      bool
}

// NewOTLPExporter creates an OTLP/HTTP span exporter for endpoint (host:port).
func NewOTLPExporter(ctx context.Context, endpoint string, insecure bool) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP exporter: %w", err)
	}
	return exporter, nil
}

// NewTracingListener creates a listener exporting spans to exporter. A nil
// exporter keeps spans in process. syncExport exports each span as it ends,
// which tests rely on; otherwise spans are batched.
func NewTracingListener(name string, continueOnError bool, exporter sdktrace.SpanExporter, syncExport bool, attrs ...attribute.KeyValue) *TracingListener {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(append([]attribute.KeyValue{
			attribute.String("service.name", "relkit"),
		}, attrs...)...)),
	}
	if exporter != nil {
		if syncExport {
			opts = append(opts, sdktrace.WithSyncer(exporter))
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}
	tp := sdktrace.NewTracerProvider(opts...)
	return &TracingListener{
		name:            name,
		continueOnError: continueOnError,
		provider:        tp,
		tracer:          tp.Tracer(tracerName),
		steps:           make(map[string]trace.Span),
	}
}

// Name returns the listener name.
func (t *TracingListener) Name() string { return t.name }

// ContinueOnError reports whether failures are tolerated.
func (t *TracingListener) ContinueOnError() bool { return t.continueOnError }

// OnSessionStart opens the session span.
func (t *TracingListener) OnSessionStart(ctx context.Context, s Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionCtx, t.sessionSpan = t.tracer.Start(ctx, sessionSpanName, trace.WithAttributes(
		attribute.String("relkit.session.id", s.ID),
		attribute.String("relkit.project.name", s.ProjectName),
		attribute.String("relkit.project.version", s.ProjectVersion),
		attribute.Bool("relkit.dry_run", s.DryRun),
	))
	return nil
}

// OnWorkflowEvent opens a step span on before and closes it on success or failure.
func (t *TracingListener) OnWorkflowEvent(_ context.Context, _ Session, e event.ExecutionEvent) error {
	if e.IsSession() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessionSpan == nil {
		return nil
	}

	switch e.Type() {
	case event.TypeBefore:
		_, span := t.tracer.Start(t.sessionCtx, e.Name(), trace.WithAttributes(attribute.String("relkit.step", e.Name())))
		t.steps[e.Name()] = span
	case event.TypeSuccess:
		if span, ok := t.steps[e.Name()]; ok {
			span.SetStatus(codes.Ok, "")
			span.End()
			delete(t.steps, e.Name())
		}
	case event.TypeFailure:
		if span, ok := t.steps[e.Name()]; ok {
			msg := "failed"
			if cause := e.Failure(); cause != nil {
				span.RecordError(cause)
				msg = cause.Error()
			}
			span.SetStatus(codes.Error, msg)
			span.End()
			delete(t.steps, e.Name())
			t.sessionSpan.SetStatus(codes.Error, fmt.Sprintf("step %s failed", e.Name()))
		}
	}
	return nil
}

// OnSessionEnd ends any open step span and the session span.
func (t *TracingListener) OnSessionEnd(_ context.Context, _ Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, span := range t.steps {
		span.End()
		delete(t.steps, name)
	}
	if t.sessionSpan != nil {
		t.sessionSpan.End()
		t.sessionSpan = nil
	}
	return nil
}

// Close flushes and shuts down the tracer provider.
func (t *TracingListener) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	return t.provider.Shutdown(ctx)
}
