// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError records what relkit was doing when something failed, which
// resource was involved and how the user might fix it. Errors may point at an
// entry of the markdown issue catalogue, which the CLI renders on failure.
package issue
