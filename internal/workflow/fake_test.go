// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"slices"
	"time"

	"github.com/relkit/relkit/internal/event"
	"github.com/relkit/relkit/internal/extension"
)

type (
	// journal records every collaborator call in order.
	journal struct {
		calls []string
	}

	fakeContext struct {
		j           *journal
		validateErr error
		validations int
		dryRun      bool
		filters     []Filter
		reportErr   error
		// results maps "start", "end" or an event string to a listener result.
		results map[string]extension.Result
		// hookErrs maps an event string to a hook failure.
		hookErrs map[string]error
		logger   *fakeLogger
		registry *fakeRegistry
		hooks    *fakeHooks
	}

	fakeHooks struct {
		j    *journal
		errs map[string]error
	}

	fakeRegistry struct {
		j        *journal
		cleanups int
	}

	logEntry struct {
		level   string
		msg     string
		keyvals []any
	}

	fakeLogger struct {
		j       *journal
		entries []logEntry
		traces  []error
		closes  int
	}

	fakeStep struct {
		j       *journal
		name    string
		err     error
		panicV  any
		advance time.Duration
		clock   interface{ Advance(time.Duration) }
	}
)

func newFakeContext() *fakeContext {
	j := &journal{}
	rc := &fakeContext{
		j:        j,
		results:  make(map[string]extension.Result),
		hookErrs: make(map[string]error),
		logger:   &fakeLogger{j: j},
		registry: &fakeRegistry{j: j},
	}
	rc.hooks = &fakeHooks{j: j, errs: rc.hookErrs}
	return rc
}

func (j *journal) add(call string) { j.calls = append(j.calls, call) }

// count returns how many times call was recorded.
func (j *journal) count(call string) int {
	n := 0
	for _, c := range j.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (j *journal) has(call string) bool { return slices.Contains(j.calls, call) }

func (rc *fakeContext) ValidateOnce() error {
	rc.validations++
	return rc.validateErr
}

func (rc *fakeContext) FireSessionStart(context.Context) extension.Result {
	rc.j.add("start")
	return rc.results["start"]
}

func (rc *fakeContext) FireSessionEnd(context.Context) extension.Result {
	rc.j.add("end")
	return rc.results["end"]
}

func (rc *fakeContext) FireWorkflowEvent(_ context.Context, e event.ExecutionEvent) extension.Result {
	rc.j.add("event " + e.String())
	return rc.results[e.String()]
}

func (rc *fakeContext) Logger() Logger { return rc.logger }

func (rc *fakeContext) Report() error {
	rc.j.add("report")
	return rc.reportErr
}

func (rc *fakeContext) Hooks() HookRunner    { return rc.hooks }
func (rc *fakeContext) Extensions() Registry { return rc.registry }
func (rc *fakeContext) DryRun() bool         { return rc.dryRun }
func (rc *fakeContext) Filters() []Filter    { return rc.filters }

func (h *fakeHooks) ExecuteHooks(_ context.Context, e event.ExecutionEvent) error {
	h.j.add("hook " + e.String())
	return h.errs[e.String()]
}

func (r *fakeRegistry) Cleanup() error {
	r.cleanups++
	r.j.add("cleanup")
	return nil
}

func (l *fakeLogger) Debug(msg string, keyvals ...any) { l.log("debug", msg, keyvals) }
func (l *fakeLogger) Info(msg string, keyvals ...any)  { l.log("info", msg, keyvals) }
func (l *fakeLogger) Warn(msg string, keyvals ...any)  { l.log("warn", msg, keyvals) }
func (l *fakeLogger) Error(msg string, keyvals ...any) { l.log("error", msg, keyvals) }
func (l *fakeLogger) Trace(err error)                  { l.traces = append(l.traces, err) }
func (l *fakeLogger) Reset()                           { l.j.add("reset") }

func (l *fakeLogger) Close() error {
	l.closes++
	l.j.add("close")
	return nil
}

func (l *fakeLogger) log(level, msg string, keyvals []any) {
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

// find returns the first entry with msg.
func (l *fakeLogger) find(msg string) (logEntry, bool) {
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func (e logEntry) value(key string) any {
	for i := 0; i+1 < len(e.keyvals); i += 2 {
		if e.keyvals[i] == key {
			return e.keyvals[i+1]
		}
	}
	return nil
}

func (s *fakeStep) Command() string { return s.name }

func (s *fakeStep) Invoke(context.Context) error {
	s.j.add("invoke " + s.name)
	if s.clock != nil {
		s.clock.Advance(s.advance)
	}
	if s.panicV != nil {
		panic(s.panicV)
	}
	return s.err
}

func step(rc *fakeContext, name string, err error) *fakeStep {
	return &fakeStep{j: rc.j, name: name, err: err}
}

func halt(listener string, cause error) extension.Result {
	return extension.Result{Halted: &extension.Failure{Listener: listener, Cause: cause}}
}

func tolerate(listener string, cause error) extension.Result {
	return extension.Result{Tolerated: []extension.Failure{{Listener: listener, ContinueOnError: true, Cause: cause}}}
}
