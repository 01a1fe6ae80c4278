// SPDX-License-Identifier: MPL-2.0

// Package workflow runs an ordered list of release steps inside one session.
//
// Execute drives the session lifecycle: before-session hooks, the session
// start event, the step loop with before/success/failure events around each
// step, the session end event and finally the resolution of the single error
// returned to the caller. Failures can come from hooks, listeners and steps;
// resolution applies a fixed precedence:
//
//  1. a before-session hook failure, returned without closing hooks;
//  2. an intolerant session-end listener failure, after failure hooks;
//  3. a step failure, after failure hooks, returned unchanged;
//  4. an intolerant session-start or step-event listener failure, returned
//     without closing hooks;
//  5. success, after success hooks.
//
// Extension cleanup and closing the session logger always happen, in that
// order, even when a step panics.
package workflow
