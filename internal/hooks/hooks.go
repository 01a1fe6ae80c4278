// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/relkit/relkit/internal/event"
	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/shell"
)

const (
	// KindCommand identifies command hooks.
	KindCommand = "command"
	// KindScript identifies script hooks.
	KindScript = "script"
)

// ErrHookFailed is the sentinel error wrapped by HookError.
var ErrHookFailed = errors.New("hook failed")

type (
	// Logger is the subset of the session logger used by the executor.
	Logger interface {
		Debug(msg string, keyvals ...any)
		Info(msg string, keyvals ...any)
		Warn(msg string, keyvals ...any)
	}

	// HookError reports a hook that failed to run or exited non-zero.
	// It matches ErrHookFailed and the underlying cause.
	HookError struct {
		Kind  string
		Event string
		// Index is the hook position in its list.
		Index int
		// Source is the command line or the first line of the script.
		Source string
		Cause  error
	}

	// Executor runs hooks for lifecycle events.
	Executor struct {
		hooks   model.Hooks
		dir     string
		env     map[string]string
		out     io.Writer
		logger  Logger
		runners map[shell.Mode]shell.Runner
	}

	// Option configures an Executor.
	Option func(*Executor)

	nopLogger struct{}
)

// WithDir sets the working directory of hooks.
func WithDir(dir string) Option {
	return func(e *Executor) { e.dir = dir }
}

// WithEnv sets environment variables passed to every hook, in addition to
// the event variables.
func WithEnv(env map[string]string) Option {
	return func(e *Executor) {
		for k, v := range env {
			e.env[k] = v
		}
	}
}

// WithOutput streams the output of verbose hooks to w.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) { e.out = w }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithRunner overrides the runner used for a shell mode.
func WithRunner(mode shell.Mode, r shell.Runner) Option {
	return func(e *Executor) { e.runners[mode] = r }
}

// NewExecutor creates an executor for the given hooks.
func NewExecutor(hooks model.Hooks, opts ...Option) *Executor {
	e := &Executor{
		hooks:  hooks,
		env:    make(map[string]string),
		logger: nopLogger{},
		runners: map[shell.Mode]shell.Runner{
			shell.ModeNative:  shell.NewNative(),
			shell.ModeVirtual: shell.NewVirtual(),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteHooks runs, in declaration order, the command hooks and then the
// script hooks registered for the event type whose platform and filter match.
// A failing hook that continues on error is logged; any other failure stops
// and is returned as an *issue.ActionableError wrapping a *HookError.
func (e *Executor) ExecuteHooks(ctx context.Context, ev event.ExecutionEvent) error {
	if !e.hooks.Enabled {
		return nil
	}

	var (
		commands []model.CommandHook
		scripts  []model.ScriptHook
	)
	switch ev.Type() {
	case event.TypeBefore:
		commands, scripts = e.hooks.Command.Before, e.hooks.Script.Before
	case event.TypeSuccess:
		commands, scripts = e.hooks.Command.Success, e.hooks.Script.Success
	case event.TypeFailure:
		commands, scripts = e.hooks.Command.Failure, e.hooks.Script.Failure
	}

	for i, h := range commands {
		if !model.MatchesPlatform(h.Platforms) || !h.Filter.Matches(ev.Name()) {
			continue
		}
		err := e.run(ctx, ev, shell.ModeNative, h.Cmd, h.Verbose)
		if err := e.handle(ev, KindCommand, i, h.Cmd, h.ContinueOnError, err); err != nil {
			return err
		}
	}
	for i, h := range scripts {
		if !model.MatchesPlatform(h.Platforms) || !h.Filter.Matches(ev.Name()) {
			continue
		}
		err := e.run(ctx, ev, shell.Mode(h.Shell), h.Run, h.Verbose)
		if err := e.handle(ev, KindScript, i, h.Run, h.ContinueOnError, err); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, ev event.ExecutionEvent, mode shell.Mode, content string, verbose bool) error {
	if mode == "" {
		mode = shell.ModeNative
	}
	runner, ok := e.runners[mode]
	if !ok {
		return &shell.InvalidModeError{Value: mode}
	}

	env := make(map[string]string, len(e.env)+3)
	for k, v := range e.env {
		env[k] = v
	}
	for k, v := range ev.Env() {
		env[k] = v
	}

	script := shell.Script{Content: content, Dir: e.dir, Env: env}
	if verbose && e.out != nil {
		script.Stdout, script.Stderr = e.out, e.out
	}

	e.logger.Info("running hook", "event", ev.String(), "shell", string(mode), "hook", firstLine(content))
	result := runner.Run(ctx, script)
	if !verbose && result.Output != "" {
		e.logger.Debug("hook output", "output", strings.TrimRight(result.Output, "\n"))
	}
	return result.Err()
}

func (e *Executor) handle(ev event.ExecutionEvent, kind string, index int, source string, continueOnError bool, err error) error {
	if err == nil {
		return nil
	}
	herr := &HookError{Kind: kind, Event: ev.String(), Index: index, Source: firstLine(source), Cause: err}
	if continueOnError {
		e.logger.Warn("hook failed, continuing", "error", herr)
		return nil
	}
	return issue.NewErrorContext().
		WithOperation("execute hook").
		WithResource(herr.Event).
		WithIssue(issue.HookFailedId).
		WithSuggestion("Run the hook command manually to see its full output").
		WithSuggestion("Set continue_on_error on the hook to tolerate this failure").
		Wrap(herr).
		BuildError()
}

// Error implements the error interface for HookError.
func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook #%d for %s (%s): %v", e.Kind, e.Index+1, e.Event, e.Source, e.Cause)
}

// Unwrap returns ErrHookFailed and the cause for errors.Is() and errors.As().
func (e *HookError) Unwrap() []error { return []error{ErrHookFailed, e.Cause} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
