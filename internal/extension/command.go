// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"fmt"
	"io"

	"github.com/relkit/relkit/internal/event"
	"github.com/relkit/relkit/internal/shell"
)

// SessionEnd is the RELKIT_EVENT_TYPE seen by command listeners when the session ends.
const SessionEnd = "end"

// CommandListener runs a script for every lifecycle event. The script sees
// the session and event through RELKIT_* environment variables.
type CommandListener struct {
	name            string
	continueOnError bool
	script          string
	dir             string
	runner          shell.Runner
	out             io.Writer
}

// NewCommandListener creates a listener running script with runner in dir.
// Script output is copied to out when it is not nil.
func NewCommandListener(name string, continueOnError bool, script string, runner shell.Runner, dir string, out io.Writer) *CommandListener {
	return &CommandListener{
		name:            name,
		continueOnError: continueOnError,
		script:          script,
		dir:             dir,
		runner:          runner,
		out:             out,
	}
}

// Name returns the listener name.
func (c *CommandListener) Name() string { return c.name }

// ContinueOnError reports whether failures are tolerated.
func (c *CommandListener) ContinueOnError() bool { return c.continueOnError }

// OnSessionStart runs the script with RELKIT_EVENT_TYPE=before and RELKIT_EVENT_NAME=session.
func (c *CommandListener) OnSessionStart(ctx context.Context, s Session) error {
	return c.run(ctx, s, event.Before(event.Session).Env())
}

// OnSessionEnd runs the script with RELKIT_EVENT_TYPE=end and RELKIT_EVENT_NAME=session.
func (c *CommandListener) OnSessionEnd(ctx context.Context, s Session) error {
	return c.run(ctx, s, map[string]string{
		event.EnvEventType: SessionEnd,
		event.EnvEventName: event.Session,
	})
}

// OnWorkflowEvent runs the script for a step or session event.
func (c *CommandListener) OnWorkflowEvent(ctx context.Context, s Session, e event.ExecutionEvent) error {
	return c.run(ctx, s, e.Env())
}

func (c *CommandListener) run(ctx context.Context, s Session, eventEnv map[string]string) error {
	env := s.Env()
	for k, v := range eventEnv {
		env[k] = v
	}
	result := c.runner.Run(ctx, shell.Script{
		Content: c.script,
		Dir:     c.dir,
		Env:     env,
		Stdout:  c.out,
		Stderr:  c.out,
	})
	if err := result.Err(); err != nil {
		return fmt.Errorf("%s %s: %w", eventEnv[event.EnvEventType], eventEnv[event.EnvEventName], err)
	}
	return nil
}
