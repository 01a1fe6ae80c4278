// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/relkit/relkit/internal/event"
	"github.com/relkit/relkit/internal/extension"
)

// Execute runs the session and returns the resolved failure, if any.
func (w *Workflow) Execute(ctx context.Context) error {
	defer w.cleanup()

	w.logFilters()
	start := w.now()

	out := w.drive(ctx)

	duration := w.now().Sub(start).Round(time.Millisecond)
	w.rc.Logger().Reset()
	if err := w.rc.Report(); err != nil {
		w.rc.Logger().Warn("failed to write session report", "error", err)
	}

	return w.resolve(ctx, out, duration)
}

func (w *Workflow) cleanup() {
	if err := w.rc.Extensions().Cleanup(); err != nil {
		w.rc.Logger().Warn("extension cleanup failed", "error", err)
	}
	_ = w.rc.Logger().Close()
}

func (w *Workflow) logFilters() {
	logger := w.rc.Logger()
	logger.Info("workflow starting", "dry-run", w.rc.DryRun())
	for _, f := range w.rc.Filters() {
		if len(f.Includes) > 0 {
			logger.Info("included "+f.Name, "values", f.Includes)
		}
		if len(f.Excludes) > 0 {
			logger.Info("excluded "+f.Name, "values", f.Excludes)
		}
	}
}

// drive runs the session up to the session end event and returns the
// recorded failure.
func (w *Workflow) drive(ctx context.Context) outcome {
	var out outcome

	if err := w.rc.Hooks().ExecuteHooks(ctx, event.Before(event.Session)); err != nil {
		w.rc.Logger().Error("before-session hooks failed")
		w.rc.Logger().Trace(err)
		out.record(outcomeHookBefore, err)
		return out
	}

	if _, halted := w.check(w.rc.FireSessionStart(ctx), "session start"); halted != nil {
		out.record(outcomeSessionStart, halted)
	} else {
		w.loop(ctx, &out)
	}

	if _, halted := w.check(w.rc.FireSessionEnd(ctx), "session end"); halted != nil {
		out.record(outcomeSessionEnd, halted)
	}
	return out
}

func (w *Workflow) loop(ctx context.Context, out *outcome) {
	logger := w.rc.Logger()
	for _, step := range w.steps {
		name := step.Command()

		if _, halted := w.check(w.rc.FireWorkflowEvent(ctx, event.Before(name)), "before "+name); halted != nil {
			out.record(outcomeLoopListener, halted)
			return
		}

		logger.Debug("invoking step", "step", name)
		if err := step.Invoke(ctx); err != nil {
			out.record(outcomeStep, err)
			tolerated, halted := w.check(w.rc.FireWorkflowEvent(ctx, event.Failure(name, err)), "failure "+name)
			if halted != nil {
				out.record(outcomeLoopListener, halted)
				return
			}
			if tolerated {
				// A tolerant listener failing on the failure event keeps the
				// loop going; the step failure stays recorded.
				continue
			}
			return
		}

		if _, halted := w.check(w.rc.FireWorkflowEvent(ctx, event.Success(name)), "success "+name); halted != nil {
			out.record(outcomeLoopListener, halted)
			return
		}
	}
}

// check logs every listener failure in r. It reports whether any failure was
// tolerated and returns the cause of the halting failure, if any.
func (w *Workflow) check(r extension.Result, what string) (bool, error) {
	logger := w.rc.Logger()
	for _, f := range r.Tolerated {
		logger.Error("listener failed", "listener", f.Listener, "event", what, "continue-on-error", true)
		logger.Trace(f)
	}
	if r.Halted == nil {
		return len(r.Tolerated) > 0, nil
	}
	logger.Error("listener failed", "listener", r.Halted.Listener, "event", what, "continue-on-error", false)
	logger.Trace(r.Halted)
	return len(r.Tolerated) > 0, r.Halted.Cause
}

func (w *Workflow) resolve(ctx context.Context, out outcome, d time.Duration) error {
	logger := w.rc.Logger()
	switch out.kind {
	case outcomeNone:
		w.closingHooks(ctx, event.Success(event.Session))
		logger.Info("workflow succeeded", "duration", d)
		return nil
	case outcomeHookBefore:
		w.failed(out, d)
		return fatal(out.cause)
	case outcomeSessionEnd:
		w.closingHooks(ctx, event.Failure(event.Session, out.cause))
		w.failed(out, d)
		return fatal(out.cause)
	case outcomeStep:
		w.closingHooks(ctx, event.Failure(event.Session, out.cause))
		w.failed(out, d)
		return out.cause
	case outcomeSessionStart, outcomeLoopListener:
		w.failed(out, d)
		return fatal(out.cause)
	default:
		panic(fmt.Sprintf("workflow: unhandled outcome %s", out.kind))
	}
}

// closingHooks runs success or failure session hooks. Their failure is logged
// and never changes the outcome.
func (w *Workflow) closingHooks(ctx context.Context, e event.ExecutionEvent) {
	if err := w.rc.Hooks().ExecuteHooks(ctx, e); err != nil {
		w.rc.Logger().Error("session hooks failed", "event", e.String())
		w.rc.Logger().Trace(err)
	}
}

func (w *Workflow) failed(out outcome, d time.Duration) {
	w.rc.Logger().Error("workflow failed", "source", out.kind.String(), "duration", d)
	w.rc.Logger().Trace(out.cause)
}
