// SPDX-License-Identifier: MPL-2.0

// Package model defines the project model read from relkit configuration:
// project metadata, release (git tag) settings, hooks, extensions, artifacts,
// checksums, uploaders and announcers.
//
// The model is a plain data container. Loading lives in internal/config,
// behavior lives in internal/steps, internal/hooks and internal/extension.
package model
