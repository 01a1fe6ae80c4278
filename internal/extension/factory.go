// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"io"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/shell"
)

// BuildOptions carries what built-in listeners need from the session.
type BuildOptions struct {
	// BaseDir is the working directory of command listeners.
	BaseDir string
	// OutputDir receives the metrics textfile.
	OutputDir string
	// Out receives command listener output.
	Out io.Writer
	// Now is the clock used by the metrics listener.
	Now func() time.Time
	// SpanExporter overrides the OTLP exporter of tracing listeners.
	SpanExporter sdktrace.SpanExporter
}

// Build creates the enabled listeners declared in exts, in declaration order.
func Build(ctx context.Context, exts []model.Extension, opts BuildOptions) ([]Listener, error) {
	var listeners []Listener
	for _, ext := range exts {
		if !ext.IsEnabled() {
			continue
		}
		l, err := build(ctx, ext, opts)
		if err != nil {
			for _, built := range listeners {
				if c, ok := built.(io.Closer); ok {
					_ = c.Close()
				}
			}
			return nil, issue.NewErrorContext().
				WithOperation("create extension").
				WithResource(ext.Name).
				WithIssue(issue.ListenerFailedId).
				WithSuggestion("Check the extension settings in the project configuration").
				Wrap(err).
				BuildError()
		}
		listeners = append(listeners, l)
	}
	return listeners, nil
}

func build(ctx context.Context, ext model.Extension, opts BuildOptions) (Listener, error) {
	if ok, errs := ext.Type.IsValid(); !ok {
		return nil, errs[0]
	}

	switch ext.Type {
	case model.ExtensionCommand:
		runner, err := shell.New(shell.Mode(ext.Shell))
		if err != nil {
			return nil, err
		}
		return NewCommandListener(ext.Name, ext.ContinueOnError, ext.Run, runner, opts.BaseDir, opts.Out), nil
	case model.ExtensionMetrics:
		return NewMetricsListener(ext.Name, ext.ContinueOnError, opts.OutputDir, opts.Now), nil
	default:
		exporter := opts.SpanExporter
		if exporter == nil && ext.Endpoint != "" {
			var err error
			exporter, err = NewOTLPExporter(ctx, ext.Endpoint, ext.Insecure)
			if err != nil {
				return nil, err
			}
		}
		return NewTracingListener(ext.Name, ext.ContinueOnError, exporter, opts.SpanExporter != nil), nil
	}
}
