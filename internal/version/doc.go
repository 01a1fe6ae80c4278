// SPDX-License-Identifier: MPL-2.0

// Package version validates and compares project versions against the
// configured version pattern: SEMVER, CALVER:<format> or CUSTOM.
package version
