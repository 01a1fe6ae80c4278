// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/relkit/relkit/internal/event"
	"github.com/relkit/relkit/internal/extension"
	"github.com/relkit/relkit/internal/hooks"
	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/logging"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/workflow"
)

// DefaultOutputDir is the output directory, relative to the base directory,
// used when none is given.
const DefaultOutputDir = "out/relkit"

type (
	// Options configures a Context.
	Options struct {
		Model *model.Model
		// BaseDir is the project directory. Defaults to the working directory.
		BaseDir string
		// OutputDir receives the report, checksums and the trace file.
		// Relative paths are resolved against BaseDir.
		OutputDir string
		DryRun    bool
		Logger    *logging.Logger
		// Out receives hook and listener output. Defaults to os.Stdout.
		Out     io.Writer
		Filters Filters
		// Listeners are registered after those declared in the model.
		Listeners []extension.Listener
		// SpanExporter overrides the exporter of tracing extensions.
		SpanExporter sdktrace.SpanExporter
		HookOptions  []hooks.Option
		Now          func() time.Time
	}

	// Filters are the include/exclude selections for uploaders and announcers.
	Filters struct {
		IncludedUploaders  []string
		ExcludedUploaders  []string
		IncludedAnnouncers []string
		ExcludedAnnouncers []string
	}

	// Context is the state of one release session.
	Context struct {
		model     *model.Model
		baseDir   string
		outputDir string
		dryRun    bool
		logger    *logging.Logger
		out       io.Writer
		filters   Filters
		manager   *extension.Manager
		hooks     *hooks.Executor
		session   extension.Session
		now       func() time.Time

		validateOnce sync.Once
		validateErr  error

		mu      sync.Mutex
		steps   []StepRecord
		tagName string
	}
)

// New creates a session context and builds the extensions declared in the
// model. The model is not validated; the workflow calls ValidateOnce.
func New(ctx context.Context, opts Options) (*Context, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		baseDir = wd
	}
	outputDir := ResolveOutputDir(baseDir, opts.OutputDir)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	rc := &Context{
		model:     opts.Model,
		baseDir:   baseDir,
		outputDir: outputDir,
		dryRun:    opts.DryRun,
		logger:    logger,
		out:       out,
		filters:   opts.Filters,
		now:       now,
		session: extension.Session{
			ID:              uuid.NewString(),
			ProjectName:     opts.Model.Project.Name,
			ProjectVersion:  opts.Model.Project.Version,
			OutputDirectory: outputDir,
			DryRun:          opts.DryRun,
			Start:           now(),
		},
	}

	listeners, err := extension.Build(ctx, opts.Model.Extensions, extension.BuildOptions{
		BaseDir:      baseDir,
		OutputDir:    outputDir,
		Out:          out,
		Now:          now,
		SpanExporter: opts.SpanExporter,
	})
	if err != nil {
		return nil, err
	}
	rc.manager = extension.NewManager(append(listeners, opts.Listeners...)...)

	hookOpts := append([]hooks.Option{
		hooks.WithDir(baseDir),
		hooks.WithEnv(rc.session.Env()),
		hooks.WithOutput(out),
		hooks.WithLogger(logger),
	}, opts.HookOptions...)
	rc.hooks = hooks.NewExecutor(opts.Model.Hooks, hookOpts...)

	return rc, nil
}

// ResolveOutputDir returns dir resolved against baseDir, or the default output
// directory when dir is empty.
func ResolveOutputDir(baseDir, dir string) string {
	if dir == "" {
		dir = DefaultOutputDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}
	return dir
}

// ValidateOnce validates the model on the first call and returns the same
// result afterwards.
func (rc *Context) ValidateOnce() error {
	rc.validateOnce.Do(func() {
		if err := rc.model.Validate(); err != nil {
			rc.validateErr = issue.NewErrorContext().
				WithOperation("validate project").
				WithIssue(issue.ModelValidationFailedId).
				WithSuggestion("Fix the reported fields in the project configuration").
				WithSuggestion("Run 'relkit config' to see the resolved model").
				Wrap(err).
				BuildError()
		}
	})
	return rc.validateErr
}

// FireSessionStart notifies listeners that the session started.
func (rc *Context) FireSessionStart(ctx context.Context) extension.Result {
	return rc.manager.FireSessionStart(ctx, rc.session)
}

// FireSessionEnd notifies listeners that the session ended.
func (rc *Context) FireSessionEnd(ctx context.Context) extension.Result {
	return rc.manager.FireSessionEnd(ctx, rc.session)
}

// FireWorkflowEvent records e for the report and notifies listeners.
func (rc *Context) FireWorkflowEvent(ctx context.Context, e event.ExecutionEvent) extension.Result {
	rc.record(e)
	return rc.manager.FireWorkflowEvent(ctx, rc.session, e)
}

// Logger returns the session logger.
func (rc *Context) Logger() workflow.Logger { return rc.logger }

// Log returns the concrete session logger for steps that switch prefixes.
func (rc *Context) Log() *logging.Logger { return rc.logger }

// Hooks returns the session hook executor.
func (rc *Context) Hooks() workflow.HookRunner { return rc.hooks }

// HookExecutor returns the concrete hook executor.
func (rc *Context) HookExecutor() *hooks.Executor { return rc.hooks }

// Extensions returns the extension manager.
func (rc *Context) Extensions() workflow.Registry { return rc.manager }

// Manager returns the concrete extension manager.
func (rc *Context) Manager() *extension.Manager { return rc.manager }

// DryRun reports whether side effects are skipped.
func (rc *Context) DryRun() bool { return rc.dryRun }

// Filters returns the non-empty selections for the filter log.
func (rc *Context) Filters() []workflow.Filter {
	return []workflow.Filter{
		{Name: "uploaders", Includes: rc.filters.IncludedUploaders, Excludes: rc.filters.ExcludedUploaders},
		{Name: "announcers", Includes: rc.filters.IncludedAnnouncers, Excludes: rc.filters.ExcludedAnnouncers},
	}
}

// UploaderFilter returns the uploader selection as a model filter.
func (rc *Context) UploaderFilter() model.Filter {
	return model.Filter{Includes: rc.filters.IncludedUploaders, Excludes: rc.filters.ExcludedUploaders}
}

// AnnouncerFilter returns the announcer selection as a model filter.
func (rc *Context) AnnouncerFilter() model.Filter {
	return model.Filter{Includes: rc.filters.IncludedAnnouncers, Excludes: rc.filters.ExcludedAnnouncers}
}

// Model returns the project model.
func (rc *Context) Model() *model.Model { return rc.model }

// BaseDir returns the project directory.
func (rc *Context) BaseDir() string { return rc.baseDir }

// OutputDir returns the absolute output directory.
func (rc *Context) OutputDir() string { return rc.outputDir }

// Out returns the writer for hook and step output.
func (rc *Context) Out() io.Writer { return rc.out }

// Session returns the session description passed to listeners.
func (rc *Context) Session() extension.Session { return rc.session }

// Now returns the current time of the session clock.
func (rc *Context) Now() time.Time { return rc.now() }

var _ workflow.Context = (*Context)(nil)
