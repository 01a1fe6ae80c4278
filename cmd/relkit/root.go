// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/steps"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and reads the root flags from it.
	App struct {
		Config       config.Provider
		Steps        steps.Dependencies
		SpanExporter sdktrace.SpanExporter
		stdout       io.Writer
		stderr       io.Writer
		flags        rootFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config       config.Provider
		Steps        steps.Dependencies
		SpanExporter sdktrace.SpanExporter
		Stdout       io.Writer
		Stderr       io.Writer
	}

	rootFlags struct {
		configFile string
		baseDir    string
		outputDir  string
		dryRun     bool
		debug      bool
		quiet      bool
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:       deps.Config,
		Steps:        deps.Steps,
		SpanExporter: deps.SpanExporter,
		stdout:       deps.Stdout,
		stderr:       deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// NewRootCommand creates the relkit command tree.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relkit",
		Short: "Release workflow runner",
		Long: TitleStyle.Render("relkit") + SubtitleStyle.Render(" - Release workflow runner") + `

relkit checksums, uploads, tags and announces a project release as a single
workflow. Hooks run shell commands around the session and every step, and
extensions observe each lifecycle event.

The project is described in relkit.cue, relkit.yml or relkit.toml.

` + SubtitleStyle.Render("Examples:") + `
  relkit init                           Create a starter relkit.cue
  relkit config                         Show the resolved project model
  relkit full-release --dry-run         Walk through a release without side effects
  relkit upload --include-uploader s3   Upload with one uploader only`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	f := rootCmd.PersistentFlags()
	f.StringVar(&app.flags.configFile, "config", "", "config file (default is relkit.{cue,yml,yaml,toml} in the base directory)")
	f.StringVar(&app.flags.baseDir, "basedir", "", "project base directory (default is the working directory)")
	f.StringVar(&app.flags.outputDir, "output-directory", "", "output directory, relative to the base directory (default \"out/relkit\")")
	f.BoolVar(&app.flags.dryRun, "dry-run", false, "skip remote side effects")
	f.BoolVarP(&app.flags.debug, "debug", "d", false, "enable debug logging")
	f.BoolVarP(&app.flags.quiet, "quiet", "q", false, "log warnings and errors only")
	rootCmd.MarkFlagsMutuallyExclusive("debug", "quiet")

	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newWorkflowCommand(app, steps.ChecksumCommand, "Calculate checksums of release artifacts", false, false))
	rootCmd.AddCommand(newWorkflowCommand(app, steps.UploadCommand, "Upload artifacts to object storage", true, false))
	rootCmd.AddCommand(newWorkflowCommand(app, steps.TagCommand, "Create and push the release tag", false, false))
	rootCmd.AddCommand(newWorkflowCommand(app, steps.AnnounceCommand, "Announce the release", false, true))
	rootCmd.AddCommand(newWorkflowCommand(app, steps.FullReleaseCommand, "Run checksum, upload, tag and announce", true, true))
	rootCmd.AddCommand(newInitCommand(app))
	rootCmd.AddCommand(newVersionCheckCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// logLevel maps --debug and --quiet to a console level.
func (a *App) logLevel() log.Level {
	switch {
	case a.flags.debug:
		return log.DebugLevel
	case a.flags.quiet:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.flags.configFile, BaseDir: a.flags.baseDir}
}

// Execute runs the root command and exits with the resolved code.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(&app.flags.debug)),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
