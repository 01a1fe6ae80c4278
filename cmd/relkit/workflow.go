// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/logging"
	"github.com/relkit/relkit/internal/release"
	"github.com/relkit/relkit/internal/steps"
	"github.com/relkit/relkit/internal/workflow"
)

// newWorkflowCommand creates a command that runs the steps of command as a
// workflow. Uploader and announcer filter flags are added when the command
// runs those steps.
func newWorkflowCommand(app *App, command, short string, uploaders, announcers bool) *cobra.Command {
	var filters release.Filters
	cmd := &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := app.runWorkflow(cmd.Context(), command, filters)
			return err
		},
	}

	if uploaders {
		cmd.Flags().StringSliceVar(&filters.IncludedUploaders, "include-uploader", nil, "run only the named uploaders (repeatable)")
		cmd.Flags().StringSliceVar(&filters.ExcludedUploaders, "exclude-uploader", nil, "skip the named uploaders (repeatable)")
	}
	if announcers {
		cmd.Flags().StringSliceVar(&filters.IncludedAnnouncers, "include-announcer", nil, "run only the named announcers (repeatable)")
		cmd.Flags().StringSliceVar(&filters.ExcludedAnnouncers, "exclude-announcer", nil, "skip the named announcers (repeatable)")
	}
	return cmd
}

// runWorkflow loads the model, builds the session and executes the steps of
// command. A workflow failure is returned as an *ExitError with code 1.
func (a *App) runWorkflow(ctx context.Context, command string, filters release.Filters) (*release.Context, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}

	outputDir := release.ResolveOutputDir(cfg.BaseDir, a.flags.outputDir)
	logger, err := logging.New(logging.Options{
		Out:       a.stderr,
		TraceFile: filepath.Join(outputDir, logging.TraceFileName),
		Level:     a.logLevel(),
		Prefix:    "relkit",
	})
	if err != nil {
		return nil, issue.WrapWithOperation(err, "open session log")
	}
	logger.Debug("configuration loaded", "path", cfg.Path)
	if a.flags.dryRun {
		fmt.Fprintln(a.stderr, WarningStyle.Render("dry-run")+" remote side effects are skipped")
	}

	rc, err := release.New(ctx, release.Options{
		Model:        cfg.Model,
		BaseDir:      cfg.BaseDir,
		OutputDir:    outputDir,
		DryRun:       a.flags.dryRun,
		Logger:       logger,
		Out:          a.stdout,
		Filters:      filters,
		SpanExporter: a.SpanExporter,
	})
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	stepList, err := steps.Build(rc, command, a.Steps)
	if err != nil {
		abandon(rc)
		return rc, err
	}
	w, err := workflow.New(rc, stepList)
	if err != nil {
		abandon(rc)
		return rc, err
	}

	if err := w.Execute(ctx); err != nil {
		return rc, &ExitError{Code: 1, Err: err}
	}
	return rc, nil
}

// abandon releases a session that never reached Execute.
func abandon(rc *release.Context) {
	if err := rc.Extensions().Cleanup(); err != nil {
		rc.Log().Warn("extension cleanup failed", "error", err)
	}
	_ = rc.Log().Close()
}
