// SPDX-License-Identifier: MPL-2.0

// Package release holds the state of one release session: the project model,
// the session logger, the extension manager, the hook executor and the
// filters selected on the command line. A *Context is what the workflow
// engine drives and what steps read from.
package release
