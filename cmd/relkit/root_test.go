// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/logging"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/release"
	"github.com/relkit/relkit/internal/steps"
	"github.com/relkit/relkit/internal/testutil"
)

const projectYAML = `
project:
  name: demo
  version: 1.2.3
release:
  token: s3cr3t
artifacts:
  - path: dist/demo.tar.gz
upload:
  s3:
    - name: primary
      bucket: releases
    - name: mirror
      bucket: mirror
`

type recordingBucket struct {
	mu   *sync.Mutex
	name string
	keys *[]string
}

func (b *recordingBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	*b.keys = append(*b.keys, b.name+":"+aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

// setupProject writes relkit.yml and a built artifact into a temp dir.
func setupProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "relkit.yml", content)
	testutil.WriteFile(t, dir, filepath.Join("dist", "demo.tar.gz"), "payload")
	return dir
}

func runCLI(t *testing.T, deps Dependencies, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	deps.Stdout = &out
	deps.Stderr = &errOut
	root := NewRootCommand(NewApp(deps))
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestChecksumCommand(t *testing.T) {
	t.Parallel()

	dir := setupProject(t, projectYAML)
	if _, _, err := runCLI(t, Dependencies{}, "checksum", "--basedir", dir); err != nil {
		t.Fatalf("checksum error = %v", err)
	}

	outDir := filepath.Join(dir, release.DefaultOutputDir)
	data := testutil.ReadFile(t, filepath.Join(outDir, steps.ChecksumDir, "checksums_sha256.txt"))
	if !strings.Contains(data, "  demo.tar.gz") {
		t.Errorf("checksum file = %q, want artifact entry", data)
	}
	for _, name := range []string{logging.TraceFileName, release.ReportFileName} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s in output dir: %v", name, err)
		}
	}
}

func TestWorkflowCommand_OutputDirectoryFlag(t *testing.T) {
	t.Parallel()

	dir := setupProject(t, projectYAML)
	if _, _, err := runCLI(t, Dependencies{}, "checksum", "--basedir", dir, "--output-directory", "build/release"); err != nil {
		t.Fatalf("checksum error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "build", "release", release.ReportFileName)); err != nil {
		t.Errorf("report not written to custom output dir: %v", err)
	}
}

func TestWorkflowCommand_FailureExitCode(t *testing.T) {
	t.Parallel()

	dir := setupProject(t, projectYAML)
	if err := os.Remove(filepath.Join(dir, "dist", "demo.tar.gz")); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, Dependencies{}, "checksum", "--basedir", dir)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID != issue.StepFailedId {
		t.Errorf("error = %v, want actionable step failure", err)
	}
}

func TestWorkflowCommand_ConfigNotFound(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, Dependencies{}, "checksum", "--basedir", t.TempDir())
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestUploadCommand_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "all", want: []string{"mirror:demo/1.2.3/demo.tar.gz", "primary:demo/1.2.3/demo.tar.gz"}},
		{name: "include", args: []string{"--include-uploader", "primary"}, want: []string{"primary:demo/1.2.3/demo.tar.gz"}},
		{name: "exclude", args: []string{"--exclude-uploader", "primary"}, want: []string{"mirror:demo/1.2.3/demo.tar.gz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := setupProject(t, projectYAML)
			var keys []string
			var mu sync.Mutex
			deps := Dependencies{Steps: steps.Dependencies{
				S3: func(_ context.Context, u model.S3Uploader) (steps.ObjectPutter, error) {
					return &recordingBucket{mu: &mu, name: u.Name, keys: &keys}, nil
				},
			}}

			args := append([]string{"upload", "--basedir", dir}, tt.args...)
			if _, _, err := runCLI(t, deps, args...); err != nil {
				t.Fatalf("upload error = %v", err)
			}
			slices.Sort(keys)
			if !slices.Equal(keys, tt.want) {
				t.Errorf("uploaded = %v, want %v", keys, tt.want)
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	t.Parallel()

	dir := setupProject(t, projectYAML)
	stdout, _, err := runCLI(t, Dependencies{}, "config", "--basedir", dir)
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	if !strings.Contains(stdout, "name: demo") {
		t.Errorf("stdout = %q, want project name", stdout)
	}
	if strings.Contains(stdout, "s3cr3t") {
		t.Error("config output leaks release token")
	}
}

func TestInitCommand(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "widget")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, Dependencies{}, "init", "--basedir", dir); err != nil {
		t.Fatalf("init error = %v", err)
	}
	cfg, err := config.Load(context.Background(), config.LoadOptions{BaseDir: dir})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Model.Project.Name != "widget" || cfg.Model.Project.Version != "0.1.0" {
		t.Errorf("project = %+v, want widget 0.1.0", cfg.Model.Project)
	}

	_, _, err = runCLI(t, Dependencies{}, "init", "--basedir", dir)
	if !errors.Is(err, config.ErrConfigExists) {
		t.Errorf("second init error = %v, want ErrConfigExists", err)
	}

	if _, _, err := runCLI(t, Dependencies{}, "init", "--basedir", dir, "--force", "--name", "gadget"); err != nil {
		t.Fatalf("init --force error = %v", err)
	}
}

func TestVersionCheckCommand(t *testing.T) {
	t.Parallel()

	calver := `
project:
  name: demo
  version: 2024.05.1
  version_pattern: CALVER:YYYY.0M.MICRO
`

	tests := []struct {
		name    string
		project string
		args    []string
		wantErr bool
	}{
		{name: "semver project version", project: projectYAML},
		{name: "semver argument", project: projectYAML, args: []string{"2.0.0-rc.1"}},
		{name: "semver invalid", project: projectYAML, args: []string{"2.x"}, wantErr: true},
		{name: "calver project version", project: calver},
		{name: "calver invalid month", project: calver, args: []string{"2024.13.0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := setupProject(t, tt.project)
			args := append([]string{"version-check", "--basedir", dir}, tt.args...)
			stdout, _, err := runCLI(t, Dependencies{}, args...)
			if tt.wantErr {
				var ae *issue.ActionableError
				if !errors.As(err, &ae) || ae.IssueID != issue.InvalidVersionId {
					t.Fatalf("error = %v, want InvalidVersion actionable error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("version-check error = %v", err)
			}
			if !strings.Contains(stdout, "matches") {
				t.Errorf("stdout = %q", stdout)
			}
		})
	}
}

func TestRootCommand_DebugQuietExclusive(t *testing.T) {
	t.Parallel()

	dir := setupProject(t, projectYAML)
	if _, _, err := runCLI(t, Dependencies{}, "checksum", "--basedir", dir, "--debug", "--quiet"); err == nil {
		t.Error("expected error for --debug with --quiet")
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	err := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource("relkit.yml").
		WithIssue(issue.ConfigParseErrorId).
		Wrap(errors.New("boom")).
		BuildError()

	var buf bytes.Buffer
	renderError(&buf, err, false)
	out := buf.String()
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "load configuration") {
		t.Errorf("renderError() = %q", out)
	}

	buf.Reset()
	renderError(&buf, errors.New("plain"), true)
	if !strings.Contains(buf.String(), "plain") {
		t.Errorf("renderError() = %q", buf.String())
	}
}
