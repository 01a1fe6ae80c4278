// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/issue"
)

// newInitCommand creates the `relkit init` command.
func newInitCommand(app *App) *cobra.Command {
	var (
		name    string
		version string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter relkit.cue",
		Long: `Create a starter relkit.cue in the base directory.

The generated file declares the project, a release section and commented-out
examples for hooks, artifacts, uploaders and announcers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := app.flags.baseDir
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}
			if name == "" {
				name = filepath.Base(dir)
			}

			path, err := config.WriteStarter(dir, config.Starter(name, version), force)
			if err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return issue.NewErrorContext().
						WithOperation("create configuration").
						WithResource(path).
						WithSuggestion("Pass --force to overwrite the existing file").
						Wrap(err).
						BuildError()
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" Created "+CmdStyle.Render(path))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (default is the base directory name)")
	cmd.Flags().StringVar(&version, "version", "0.1.0", "initial project version")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing relkit.cue")
	return cmd
}
