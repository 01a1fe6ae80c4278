// SPDX-License-Identifier: MPL-2.0

// Package extension delivers lifecycle events to registered listeners.
//
// The Manager never decides control flow: every fire method returns a Result
// describing which listeners failed and whether delivery was halted by a
// listener that does not tolerate its own failures. The workflow engine
// inspects the Result.
//
// Built-in listeners run a shell command per event (CommandListener), record
// Prometheus metrics (MetricsListener) and export OpenTelemetry spans
// (TracingListener).
package extension
