// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// ModeNative runs scripts with the host shell.
	ModeNative Mode = "native"
	// ModeVirtual runs scripts with the embedded mvdan/sh interpreter.
	ModeVirtual Mode = "virtual"
)

var (
	// ErrInvalidMode is the sentinel error wrapped by InvalidModeError.
	ErrInvalidMode = errors.New("invalid shell mode")
	// ErrNoShell is returned when the native runner cannot find a host shell.
	ErrNoShell = errors.New("no shell found")
	// ErrEmptyScript is returned when a script has no content.
	ErrEmptyScript = errors.New("script has no content to execute")
)

type (
	// Mode selects a Runner.
	Mode string

	// InvalidModeError is returned when a Mode value is not recognized.
	// It wraps ErrInvalidMode for errors.Is() compatibility.
	InvalidModeError struct {
		Value Mode
	}

	// Script is a unit of shell code to run.
	Script struct {
		// Content is the script source.
		Content string
		// Dir is the working directory. Empty means the current directory.
		Dir string
		// Env is layered on top of the inherited process environment.
		Env map[string]string
		// Stdout and Stderr receive output in addition to the captured copy.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result contains the outcome of a script run.
	Result struct {
		// ExitCode is the script's exit status.
		ExitCode int
		// Error is set when the script could not be run at all.
		Error error
		// Output and ErrOutput hold the captured stdout and stderr.
		Output    string
		ErrOutput string
	}

	// ExitError reports a script that ran but exited non-zero.
	ExitError struct {
		Code   int
		Stderr string
	}

	// Runner executes scripts.
	Runner interface {
		// Name returns the runner name.
		Name() string
		// Available reports whether the runner can be used on this system.
		Available() bool
		// Validate checks a script before running it.
		Validate(script Script) error
		// Run executes the script, capturing its output.
		Run(ctx context.Context, script Script) *Result
	}
)

// New returns the runner for mode. The empty mode selects the native runner.
func New(mode Mode) (Runner, error) {
	switch mode {
	case ModeNative, "":
		return NewNative(), nil
	case ModeVirtual:
		return NewVirtual(), nil
	default:
		return nil, &InvalidModeError{Value: mode}
	}
}

// Success reports whether the script ran and exited zero.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode == 0
}

// Err returns nil on success, the run error, or an *ExitError.
func (r *Result) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if r.ExitCode != 0 {
		return &ExitError{Code: r.ExitCode, Stderr: r.ErrOutput}
	}
	return nil
}

// Error implements the error interface for ExitError. The last stderr line is
// included when present.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("exit status %d", e.Code)
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		msg += ": " + last
	}
	return msg
}

// String returns the string representation of the Mode.
func (m Mode) String() string { return string(m) }

// IsValid returns whether the Mode is a known runner. The empty mode is valid
// and selects the native runner.
func (m Mode) IsValid() (bool, []error) {
	switch m {
	case ModeNative, ModeVirtual, "":
		return true, nil
	default:
		return false, []error{&InvalidModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidModeError.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid shell mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns ErrInvalidMode for errors.Is() compatibility.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

func validateScript(script Script) error {
	if strings.TrimSpace(script.Content) == "" {
		return ErrEmptyScript
	}
	return nil
}
