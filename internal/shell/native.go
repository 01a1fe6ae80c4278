// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
)

// Native executes scripts with the system shell.
type Native struct {
	// Shell overrides the detected shell.
	Shell string
	// ShellArgs are passed to the shell before the script.
	ShellArgs []string
}

// NewNative creates a native runner using the detected shell.
func NewNative() *Native {
	return &Native{}
}

// Name returns the runner name.
func (r *Native) Name() string {
	return string(ModeNative)
}

// Available reports whether a host shell was found.
func (r *Native) Available() bool {
	_, err := r.shell()
	return err == nil
}

// Validate checks the script has content.
func (r *Native) Validate(script Script) error {
	return validateScript(script)
}

// Run executes the script with the host shell.
func (r *Native) Run(ctx context.Context, script Script) *Result {
	if err := r.Validate(script); err != nil {
		return &Result{ExitCode: 1, Error: err}
	}
	sh, err := r.shell()
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	args := append(r.shellArgs(sh), script.Content)
	cmd := exec.CommandContext(ctx, sh, args...)
	cmd.Dir = script.Dir
	cmd.Env = EnvToSlice(buildEnv(script.Env))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, script.Stdout)
	cmd.Stderr = tee(&stderr, script.Stderr)

	err = cmd.Run()
	result := &Result{Output: stdout.String(), ErrOutput: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Error = fmt.Errorf("failed to execute script: %w", err)
		}
	}
	return result
}

// shell determines which shell to use. Scripts are written for POSIX sh, so
// $SHELL is deliberately not consulted on unix.
func (r *Native) shell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}

	if goruntime.GOOS == "windows" {
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		if cmd, err := exec.LookPath("cmd"); err == nil {
			return cmd, nil
		}
		return "", ErrNoShell
	}

	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if env := os.Getenv("SHELL"); env != "" {
		return env, nil
	}
	return "", ErrNoShell
}

func (r *Native) shellArgs(sh string) []string {
	if len(r.ShellArgs) > 0 {
		return r.ShellArgs
	}

	base := strings.TrimSuffix(filepath.Base(sh), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}
