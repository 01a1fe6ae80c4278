// SPDX-License-Identifier: MPL-2.0

package event

import (
	"errors"
	"fmt"
)

const (
	// TypeBefore is fired before a session or step runs.
	TypeBefore Type = "before"
	// TypeSuccess is fired after a session or step completed without error.
	TypeSuccess Type = "success"
	// TypeFailure is fired after a session or step failed.
	TypeFailure Type = "failure"

	// Session is the event name used for session-scoped events.
	Session = "session"

	// EnvEventType holds the event phase in hook environments.
	EnvEventType = "RELKIT_EVENT_TYPE"
	// EnvEventName holds the session or step name in hook environments.
	EnvEventName = "RELKIT_EVENT_NAME"
	// EnvFailure holds the failure message of failure events.
	EnvFailure = "RELKIT_FAILURE"
)

// ErrInvalidType is the sentinel error wrapped by InvalidTypeError.
var ErrInvalidType = errors.New("invalid event type")

type (
	// Type is the phase of an ExecutionEvent.
	Type string

	// InvalidTypeError is returned when a Type value is not recognized.
	// It wraps ErrInvalidType for errors.Is() compatibility.
	InvalidTypeError struct {
		Value Type
	}

	// ExecutionEvent is a lifecycle event. Construct it with Before, Success or Failure.
	ExecutionEvent struct {
		typ     Type
		name    string
		failure error
	}
)

// Before returns an event fired before name runs.
func Before(name string) ExecutionEvent {
	return ExecutionEvent{typ: TypeBefore, name: name}
}

// Success returns an event fired after name succeeded.
func Success(name string) ExecutionEvent {
	return ExecutionEvent{typ: TypeSuccess, name: name}
}

// Failure returns an event fired after name failed with cause.
func Failure(name string, cause error) ExecutionEvent {
	return ExecutionEvent{typ: TypeFailure, name: name, failure: cause}
}

// Type returns the event phase.
func (e ExecutionEvent) Type() Type { return e.typ }

// Name returns the session or step name the event is scoped to.
func (e ExecutionEvent) Name() string { return e.name }

// Failure returns the failure cause, or nil for non-failure events.
func (e ExecutionEvent) Failure() error { return e.failure }

// IsSession reports whether the event is scoped to the whole session.
func (e ExecutionEvent) IsSession() bool { return e.name == Session }

// String renders the event as "<type>:<name>".
func (e ExecutionEvent) String() string {
	return fmt.Sprintf("%s:%s", e.typ, e.name)
}

// Env returns the environment variables describing the event to hooks and
// command listeners.
func (e ExecutionEvent) Env() map[string]string {
	env := map[string]string{
		EnvEventType: string(e.typ),
		EnvEventName: e.name,
	}
	if e.failure != nil {
		env[EnvFailure] = e.failure.Error()
	}
	return env
}

// String returns the string representation of the Type.
func (t Type) String() string { return string(t) }

// IsValid returns whether the Type is one of the defined phases,
// and a list of validation errors if it is not.
func (t Type) IsValid() (bool, []error) {
	switch t {
	case TypeBefore, TypeSuccess, TypeFailure:
		return true, nil
	default:
		return false, []error{&InvalidTypeError{Value: t}}
	}
}

// Error implements the error interface for InvalidTypeError.
func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid event type %q (valid: before, success, failure)", e.Value)
}

// Unwrap returns ErrInvalidType for errors.Is() compatibility.
func (e *InvalidTypeError) Unwrap() error { return ErrInvalidType }
