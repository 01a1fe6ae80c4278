// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

func TestWriteReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteFile(t, dir, filepath.Join("dist", "nested", "a.txt"), "hello")
	if want := filepath.Join(dir, "dist", "nested", "a.txt"); path != want {
		t.Errorf("WriteFile() = %q, want %q", path, want)
	}
	if got := ReadFile(t, path); got != "hello" {
		t.Errorf("ReadFile() = %q, want %q", got, "hello")
	}
}

func TestContainerParallelism(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  func(int) bool
	}{
		{name: "explicit", value: "5", want: func(n int) bool { return n == 5 }},
		{name: "invalid falls back", value: "zero", want: func(n int) bool { return n >= 1 && n <= 2 }},
		{name: "negative falls back", value: "-3", want: func(n int) bool { return n >= 1 && n <= 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ContainerParallelEnv, tt.value)
			if got := containerParallelism(); !tt.want(got) {
				t.Errorf("containerParallelism() = %d", got)
			}
		})
	}
}
