// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/relkit/relkit/internal/event"
	"github.com/relkit/relkit/internal/extension"
)

// ErrFatal is matched by every *FatalError.
var ErrFatal = errors.New("workflow failed")

type (
	// Step is one unit of release work.
	Step interface {
		// Command is the stable step name used to scope events and hooks.
		Command() string
		Invoke(ctx context.Context) error
	}

	// Logger is the session logger.
	Logger interface {
		Debug(msg string, keyvals ...any)
		Info(msg string, keyvals ...any)
		Warn(msg string, keyvals ...any)
		Error(msg string, keyvals ...any)
		// Trace records the full error chain for later inspection.
		Trace(err error)
		// Reset drops any per-step state such as a log prefix.
		Reset()
		Close() error
	}

	// HookRunner runs session hooks. It knows nothing about listeners.
	HookRunner interface {
		ExecuteHooks(ctx context.Context, e event.ExecutionEvent) error
	}

	// Registry is the per-session extension registry released after every run.
	// Cleanup must be idempotent.
	Registry interface {
		Cleanup() error
	}

	// Filter is a named include/exclude selection logged at session start.
	Filter struct {
		Name     string
		Includes []string
		Excludes []string
	}

	// Context is the session the workflow runs in.
	Context interface {
		// ValidateOnce validates the configuration; later calls return the first result.
		ValidateOnce() error
		FireSessionStart(ctx context.Context) extension.Result
		FireSessionEnd(ctx context.Context) extension.Result
		FireWorkflowEvent(ctx context.Context, e event.ExecutionEvent) extension.Result
		Logger() Logger
		// Report persists the session outcome.
		Report() error
		Hooks() HookRunner
		Extensions() Registry
		DryRun() bool
		Filters() []Filter
	}

	// Workflow runs steps for one session.
	Workflow struct {
		rc    Context
		steps []Step
		now   func() time.Time
	}

	// Option configures a Workflow.
	Option func(*Workflow)

	// FatalError wraps a failure that was not already an engine-level error.
	// It matches ErrFatal and unwraps to the cause.
	FatalError struct {
		Cause error
	}
)

// WithClock sets the clock used to measure the session duration.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// New validates rc and returns a workflow running a copy of steps.
func New(rc Context, steps []Step, opts ...Option) (*Workflow, error) {
	if err := rc.ValidateOnce(); err != nil {
		return nil, err
	}
	w := &Workflow{
		rc:    rc,
		steps: slices.Clone(steps),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Steps returns the command names of the workflow steps, in order.
func (w *Workflow) Steps() []string {
	names := make([]string, len(w.steps))
	for i, s := range w.steps {
		names[i] = s.Command()
	}
	return names
}

// Error implements the error interface for FatalError.
func (e *FatalError) Error() string {
	return "workflow failed: " + e.Cause.Error()
}

// Unwrap returns ErrFatal and the cause.
func (e *FatalError) Unwrap() []error { return []error{ErrFatal, e.Cause} }
