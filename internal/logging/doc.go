// SPDX-License-Identifier: MPL-2.0

// Package logging provides the session logger used by a release run.
//
// Every message goes to the console (filtered by level) and, when a trace file
// is configured, to the trace file at debug level in logfmt. Trace writes an
// error chain to the trace file only. Close releases the trace file; it is
// safe to call more than once.
package logging
