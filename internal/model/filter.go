// SPDX-License-Identifier: MPL-2.0

package model

import "slices"

// Filter selects names by inclusion and exclusion lists.
type Filter struct {
	Includes []string `json:"includes,omitempty" mapstructure:"includes" yaml:"includes,omitempty"`
	Excludes []string `json:"excludes,omitempty" mapstructure:"excludes" yaml:"excludes,omitempty"`
}

// Matches reports whether name passes the filter. An empty include list
// matches every name; excludes always win.
func (f Filter) Matches(name string) bool {
	if slices.Contains(f.Excludes, name) {
		return false
	}
	return len(f.Includes) == 0 || slices.Contains(f.Includes, name)
}

// IsEmpty reports whether the filter has neither includes nor excludes.
func (f Filter) IsEmpty() bool {
	return len(f.Includes) == 0 && len(f.Excludes) == 0
}
