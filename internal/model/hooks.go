// SPDX-License-Identifier: MPL-2.0

package model

import (
	"runtime"
	"slices"
)

type (
	// Hooks holds the hooks run around the session and around each step.
	Hooks struct {
		Enabled bool         `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
		Command CommandHooks `json:"command" mapstructure:"command" yaml:"command"`
		Script  ScriptHooks  `json:"script" mapstructure:"script" yaml:"script"`
	}

	// CommandHooks groups command hooks by event type.
	CommandHooks struct {
		Before  []CommandHook `json:"before,omitempty" mapstructure:"before" yaml:"before,omitempty"`
		Success []CommandHook `json:"success,omitempty" mapstructure:"success" yaml:"success,omitempty"`
		Failure []CommandHook `json:"failure,omitempty" mapstructure:"failure" yaml:"failure,omitempty"`
	}

	// ScriptHooks groups script hooks by event type.
	ScriptHooks struct {
		Before  []ScriptHook `json:"before,omitempty" mapstructure:"before" yaml:"before,omitempty"`
		Success []ScriptHook `json:"success,omitempty" mapstructure:"success" yaml:"success,omitempty"`
		Failure []ScriptHook `json:"failure,omitempty" mapstructure:"failure" yaml:"failure,omitempty"`
	}

	// CommandHook runs a single command line through the host shell.
	CommandHook struct {
		Cmd             string   `json:"cmd" mapstructure:"cmd" yaml:"cmd"`
		Filter          Filter   `json:"filter" mapstructure:"filter" yaml:"filter,omitempty"`
		ContinueOnError bool     `json:"continue_on_error,omitempty" mapstructure:"continue_on_error" yaml:"continue_on_error,omitempty"`
		Verbose         bool     `json:"verbose,omitempty" mapstructure:"verbose" yaml:"verbose,omitempty"`
		Platforms       []string `json:"platforms,omitempty" mapstructure:"platforms" yaml:"platforms,omitempty"`
	}

	// ScriptHook runs a multi-line script with the native or virtual shell.
	ScriptHook struct {
		Run             string   `json:"run" mapstructure:"run" yaml:"run"`
		Shell           string   `json:"shell,omitempty" mapstructure:"shell" yaml:"shell,omitempty"`
		Filter          Filter   `json:"filter" mapstructure:"filter" yaml:"filter,omitempty"`
		ContinueOnError bool     `json:"continue_on_error,omitempty" mapstructure:"continue_on_error" yaml:"continue_on_error,omitempty"`
		Verbose         bool     `json:"verbose,omitempty" mapstructure:"verbose" yaml:"verbose,omitempty"`
		Platforms       []string `json:"platforms,omitempty" mapstructure:"platforms" yaml:"platforms,omitempty"`
	}
)

// MatchesPlatform reports whether the current platform is listed.
// An empty list matches every platform.
func MatchesPlatform(platforms []string) bool {
	return len(platforms) == 0 || slices.Contains(platforms, runtime.GOOS)
}

// IsEmpty reports whether no hooks are configured.
func (h Hooks) IsEmpty() bool {
	return len(h.Command.Before)+len(h.Command.Success)+len(h.Command.Failure)+
		len(h.Script.Before)+len(h.Script.Success)+len(h.Script.Failure) == 0
}
