// SPDX-License-Identifier: MPL-2.0

// Package shell runs hook and listener scripts.
//
// Two runners are available: the native runner executes the script with the
// host shell, the virtual runner interprets it with the embedded mvdan/sh
// interpreter so hooks behave the same on every platform.
package shell
