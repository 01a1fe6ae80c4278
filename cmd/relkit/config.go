// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/relkit/relkit/internal/release"
	"github.com/relkit/relkit/internal/steps"
)

// newConfigCommand creates the `relkit config` command. It runs the config
// step as a workflow and then prints the resolved model as YAML.
func newConfigCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   steps.ConfigCommand,
		Short: "Show the resolved project model",
		Long: `Show the resolved project model.

The model is read from the configuration file, merged with RELKIT_* environment
overrides and defaults, and printed as YAML. Secrets (release.token,
access keys) are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := app.runWorkflow(cmd.Context(), steps.ConfigCommand, release.Filters{})
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(rc.Model()); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
