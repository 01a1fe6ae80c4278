// SPDX-License-Identifier: MPL-2.0

// Package hooks runs the command and script hooks declared in the project
// model for a lifecycle event.
package hooks
