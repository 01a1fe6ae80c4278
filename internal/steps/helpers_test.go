// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"bytes"
	"context"
	"testing"

	"github.com/relkit/relkit/internal/hooks"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/release"
	"github.com/relkit/relkit/internal/shell"
	"github.com/relkit/relkit/internal/testutil"
)

func demoModel() *model.Model {
	m := &model.Model{Project: model.Project{Name: "demo", Version: "1.2.3"}}
	m.Defaults()
	return m
}

// newRC creates a session rooted in a temp dir with hooks on the virtual shell.
func newRC(t *testing.T, m *model.Model, mutate func(*release.Options)) *release.Context {
	t.Helper()
	opts := release.Options{
		Model:       m,
		BaseDir:     t.TempDir(),
		OutputDir:   "out",
		Out:         &bytes.Buffer{},
		HookOptions: []hooks.Option{hooks.WithRunner(shell.ModeNative, shell.NewVirtual())},
	}
	if mutate != nil {
		mutate(&opts)
	}
	rc, err := release.New(context.Background(), opts)
	if err != nil {
		t.Fatalf("release.New() error = %v", err)
	}
	return rc
}

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, dir, name, content)
}
