// SPDX-License-Identifier: MPL-2.0

// Package config loads the project model using Viper.
//
// The model is read from the first of relkit.cue, relkit.yml, relkit.yaml or
// relkit.toml found in the base directory, or from an explicit file. CUE files
// are validated against the embedded #Project schema (config_schema.cue)
// before being merged into Viper. Environment variables prefixed with RELKIT_
// override file values, with dots in keys replaced by underscores
// (RELKIT_RELEASE_TOKEN overrides release.token).
package config
