// SPDX-License-Identifier: MPL-2.0

// Package event defines the lifecycle events fired while a release workflow runs.
//
// An ExecutionEvent is scoped either to the whole session (Name == Session) or to
// a single step (Name == the step's command), and carries a phase: before the
// scope runs, after it succeeded, or after it failed. Events are immutable values.
package event
