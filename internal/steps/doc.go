// SPDX-License-Identifier: MPL-2.0

// Package steps provides the release steps a workflow runs: config,
// checksum, upload, tag and announce. Every step is wrapped so that hooks
// scoped to its name run around it, and the step logger prefix is switched
// to the step name while it runs.
package steps
