// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Virtual interprets scripts with mvdan/sh. External programs invoked by the
// script are still resolved from the PATH.
type Virtual struct{}

// NewVirtual creates a virtual runner.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Name returns the runner name.
func (r *Virtual) Name() string {
	return string(ModeVirtual)
}

// Available always returns true: the interpreter is built in.
func (r *Virtual) Available() bool {
	return true
}

// Validate checks the script has content and parses.
func (r *Virtual) Validate(script Script) error {
	if err := validateScript(script); err != nil {
		return err
	}
	if _, err := parse(script.Content); err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}
	return nil
}

// Run interprets the script.
func (r *Virtual) Run(ctx context.Context, script Script) *Result {
	if err := validateScript(script); err != nil {
		return &Result{ExitCode: 1, Error: err}
	}
	prog, err := parse(script.Content)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to parse script: %w", err)}
	}

	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(EnvToSlice(buildEnv(script.Env))...)),
		interp.StdIO(nil, tee(&stdout, script.Stdout), tee(&stderr, script.Stderr)),
	}
	if script.Dir != "" {
		opts = append(opts, interp.Dir(script.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	result := &Result{}
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = int(exitStatus)
		} else {
			result.ExitCode = 1
			result.Error = fmt.Errorf("script execution failed: %w", err)
		}
	}
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

func parse(content string) (*syntax.File, error) {
	return syntax.NewParser().Parse(strings.NewReader(content), "script")
}
