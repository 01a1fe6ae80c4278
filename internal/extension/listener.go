// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/relkit/relkit/internal/event"
)

const (
	// EnvSessionID holds the session id in listener and hook environments.
	EnvSessionID = "RELKIT_SESSION_ID"
	// EnvProjectName holds the project name.
	EnvProjectName = "RELKIT_PROJECT_NAME"
	// EnvProjectVersion holds the project version.
	EnvProjectVersion = "RELKIT_PROJECT_VERSION"
	// EnvOutputDirectory holds the output directory.
	EnvOutputDirectory = "RELKIT_OUTPUT_DIRECTORY"
	// EnvDryRun is "true" when the session is a dry run.
	EnvDryRun = "RELKIT_DRY_RUN"
)

type (
	// Session describes the running session to listeners.
	Session struct {
		ID              string
		ProjectName     string
		ProjectVersion  string
		OutputDirectory string
		DryRun          bool
		Start           time.Time
	}

	// Listener receives lifecycle events.
	Listener interface {
		// Name identifies the listener in failures and logs.
		Name() string
		// ContinueOnError reports whether the listener's own failures are tolerated.
		ContinueOnError() bool
		OnSessionStart(ctx context.Context, s Session) error
		OnSessionEnd(ctx context.Context, s Session) error
		OnWorkflowEvent(ctx context.Context, s Session, e event.ExecutionEvent) error
	}

	// Failure is a listener error tagged with the listener and its policy.
	Failure struct {
		Listener        string
		ContinueOnError bool
		Cause           error
	}

	// Result is the outcome of delivering one event to every listener.
	Result struct {
		// Halted is the intolerant failure that stopped delivery, if any.
		Halted *Failure
		// Tolerated lists failures of listeners that continue on error.
		Tolerated []Failure
	}
)

// Env returns the environment variables describing the session.
func (s Session) Env() map[string]string {
	return map[string]string{
		EnvSessionID:       s.ID,
		EnvProjectName:     s.ProjectName,
		EnvProjectVersion:  s.ProjectVersion,
		EnvOutputDirectory: s.OutputDirectory,
		EnvDryRun:          strconv.FormatBool(s.DryRun),
	}
}

// Error implements the error interface for Failure.
func (f Failure) Error() string {
	return fmt.Sprintf("listener %q failed: %v", f.Listener, f.Cause)
}

// Unwrap returns the listener's error.
func (f Failure) Unwrap() error { return f.Cause }

// Err returns the halting failure, or nil when delivery completed.
func (r Result) Err() error {
	if r.Halted == nil {
		return nil
	}
	return r.Halted
}

// OK reports whether no listener failed at all.
func (r Result) OK() bool {
	return r.Halted == nil && len(r.Tolerated) == 0
}
