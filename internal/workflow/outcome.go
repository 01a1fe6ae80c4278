// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"errors"
	"fmt"

	"github.com/relkit/relkit/internal/issue"
)

const (
	outcomeNone outcomeKind = iota
	outcomeHookBefore
	outcomeSessionStart
	outcomeStep
	outcomeSessionEnd
	outcomeLoopListener
)

type (
	outcomeKind int

	// outcome is the single failure that decides how a session resolves.
	outcome struct {
		kind  outcomeKind
		cause error
	}
)

// record stores a failure. A step failure is never replaced by a step-event
// listener failure; everything else replaces the previous record.
func (o *outcome) record(kind outcomeKind, cause error) {
	if kind == outcomeLoopListener && o.kind == outcomeStep {
		return
	}
	o.kind = kind
	o.cause = cause
}

func (k outcomeKind) String() string {
	switch k {
	case outcomeNone:
		return "none"
	case outcomeHookBefore:
		return "before-session hook"
	case outcomeSessionStart:
		return "session-start listener"
	case outcomeStep:
		return "step"
	case outcomeSessionEnd:
		return "session-end listener"
	case outcomeLoopListener:
		return "step-event listener"
	default:
		return fmt.Sprintf("outcomeKind(%d)", int(k))
	}
}

// fatal returns cause unchanged when it already is an engine-level error and
// wraps it in a *FatalError otherwise.
func fatal(cause error) error {
	var (
		fe *FatalError
		ae *issue.ActionableError
	)
	if errors.As(cause, &fe) || errors.As(cause, &ae) {
		return cause
	}
	return &FatalError{Cause: cause}
}
