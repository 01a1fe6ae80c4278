// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/version"
)

// newVersionCheckCommand creates the `relkit version-check` command. It
// validates the project version, or the given argument, against
// project.version_pattern.
func newVersionCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version-check [VERSION]",
		Short: "Validate a version against the project version pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), app.loadOptions())
			if err != nil {
				return err
			}

			value := cfg.Model.Project.Version
			if len(args) == 1 {
				value = args[0]
			}

			pattern, err := version.ParsePattern(cfg.Model.Project.VersionPattern)
			if err == nil {
				err = pattern.Validate(value)
			}
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("check version").
					WithResource(value).
					WithIssue(issue.InvalidVersionId).
					WithSuggestion("Match the version to project.version_pattern").
					Wrap(err).
					BuildError()
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" "+value+" matches "+CmdStyle.Render(pattern.String()))
			return nil
		},
	}
}
