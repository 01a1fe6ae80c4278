// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"fmt"
)

const (
	// ExtensionCommand runs a shell command for every lifecycle event.
	ExtensionCommand ExtensionType = "command"
	// ExtensionMetrics records Prometheus metrics and writes a textfile on session end.
	ExtensionMetrics ExtensionType = "metrics"
	// ExtensionTracing exports OpenTelemetry spans for the session and its steps.
	ExtensionTracing ExtensionType = "tracing"
)

// ErrInvalidExtensionType is the sentinel error wrapped by InvalidExtensionTypeError.
var ErrInvalidExtensionType = errors.New("invalid extension type")

type (
	// ExtensionType selects a built-in listener.
	ExtensionType string

	// InvalidExtensionTypeError is returned when an ExtensionType value is not recognized.
	// It wraps ErrInvalidExtensionType for errors.Is() compatibility.
	InvalidExtensionTypeError struct {
		Value ExtensionType
	}

	// Extension declares a lifecycle listener.
	Extension struct {
		Name    string        `json:"name" mapstructure:"name" yaml:"name"`
		Type    ExtensionType `json:"type" mapstructure:"type" yaml:"type"`
		Enabled *bool         `json:"enabled,omitempty" mapstructure:"enabled" yaml:"enabled,omitempty"`
		// ContinueOnError makes failures of this listener tolerated.
		ContinueOnError bool `json:"continue_on_error,omitempty" mapstructure:"continue_on_error" yaml:"continue_on_error,omitempty"`
		// Run and Shell configure the command listener.
		Run   string `json:"run,omitempty" mapstructure:"run" yaml:"run,omitempty"`
		Shell string `json:"shell,omitempty" mapstructure:"shell" yaml:"shell,omitempty"`
		// Endpoint is the OTLP/HTTP collector for the tracing listener. Empty
		// keeps spans in process.
		Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint" yaml:"endpoint,omitempty"`
		Insecure bool   `json:"insecure,omitempty" mapstructure:"insecure" yaml:"insecure,omitempty"`
	}
)

// IsEnabled reports whether the extension is enabled. Unset means enabled.
func (e Extension) IsEnabled() bool { return e.Enabled == nil || *e.Enabled }

// String returns the string representation of the ExtensionType.
func (t ExtensionType) String() string { return string(t) }

// IsValid returns whether the ExtensionType is one of the built-in listeners,
// and a list of validation errors if it is not.
func (t ExtensionType) IsValid() (bool, []error) {
	switch t {
	case ExtensionCommand, ExtensionMetrics, ExtensionTracing:
		return true, nil
	default:
		return false, []error{&InvalidExtensionTypeError{Value: t}}
	}
}

// Error implements the error interface for InvalidExtensionTypeError.
func (e *InvalidExtensionTypeError) Error() string {
	return fmt.Sprintf("invalid extension type %q (valid: command, metrics, tracing)", e.Value)
}

// Unwrap returns ErrInvalidExtensionType for errors.Is() compatibility.
func (e *InvalidExtensionTypeError) Unwrap() error { return ErrInvalidExtensionType }
