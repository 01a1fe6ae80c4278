// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"io"
	"os"
	"slices"
	"strings"
)

// buildEnv layers extra on top of the process environment.
func buildEnv(extra map[string]string) map[string]string {
	env := make(map[string]string, len(extra)+32)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// EnvToSlice converts env to KEY=VALUE pairs sorted by key.
func EnvToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

// tee returns a writer copying to buf and, when set, to extra.
func tee(buf io.Writer, extra io.Writer) io.Writer {
	if extra == nil {
		return buf
	}
	return io.MultiWriter(buf, extra)
}
