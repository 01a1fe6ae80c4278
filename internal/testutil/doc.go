// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by relkit tests: a manually
// advanced clock for session timing, project fixture writers, and a slot
// limiter for container-backed integration tests.
package testutil
