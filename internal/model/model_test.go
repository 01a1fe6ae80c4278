// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"strings"
	"testing"
)

func validModel() *Model {
	m := &Model{
		Project: Project{Name: "demo", Version: "1.2.3"},
		Hooks:   Hooks{Enabled: true},
	}
	m.Defaults()
	return m
}

func TestModel_Defaults(t *testing.T) {
	t.Parallel()

	m := &Model{
		Upload:   Upload{S3: []S3Uploader{{Name: "s3"}}},
		Announce: Announce{Webhooks: []WebhookAnnouncer{{Name: "hook"}}},
	}
	m.Defaults()

	if m.Project.VersionPattern != "SEMVER" {
		t.Errorf("VersionPattern = %q, want SEMVER", m.Project.VersionPattern)
	}
	if m.Release.TagName != DefaultTagName || m.Release.Remote != DefaultRemote {
		t.Errorf("Release = %+v, want default tag and remote", m.Release)
	}
	if len(m.Checksum.Algorithms) != 1 || m.Checksum.Algorithms[0] != ChecksumSHA256 {
		t.Errorf("Algorithms = %v, want [sha256]", m.Checksum.Algorithms)
	}
	if m.Upload.Parallelism != DefaultParallelism {
		t.Errorf("Parallelism = %d, want %d", m.Upload.Parallelism, DefaultParallelism)
	}
	if m.Upload.S3[0].Path != DefaultUploadPath {
		t.Errorf("S3 path = %q, want default", m.Upload.S3[0].Path)
	}
	if m.Announce.Webhooks[0].Message != DefaultAnnounceMessage {
		t.Errorf("webhook message = %q, want default", m.Announce.Webhooks[0].Message)
	}
}

func TestModel_Expand(t *testing.T) {
	t.Parallel()

	m := validModel()
	m.Release.TagName = "release-{{projectVersion}}"

	if got := m.TagName(); got != "release-1.2.3" {
		t.Errorf("TagName() = %q, want release-1.2.3", got)
	}

	got := m.Expand("{{projectName}}/{{projectVersion}}/{{artifactFile}} {{unknown}} {{tagName}}",
		map[string]string{"artifactFile": "app.tar.gz"})
	want := "demo/1.2.3/app.tar.gz {{unknown}} release-1.2.3"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestFilter_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter Filter
		in     string
		want   bool
	}{
		{"empty matches all", Filter{}, "upload", true},
		{"included", Filter{Includes: []string{"tag", "upload"}}, "upload", true},
		{"not included", Filter{Includes: []string{"tag"}}, "upload", false},
		{"excluded", Filter{Excludes: []string{"upload"}}, "upload", false},
		{"excludes win", Filter{Includes: []string{"upload"}, Excludes: []string{"upload"}}, "upload", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.filter.Matches(tt.in); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestModel_Validate(t *testing.T) {
	t.Parallel()

	disabled := false
	tests := []struct {
		name      string
		mutate    func(*Model)
		wantField string
	}{
		{"valid", func(*Model) {}, ""},
		{"blank name", func(m *Model) { m.Project.Name = " " }, "project.name"},
		{"bad semver", func(m *Model) { m.Project.Version = "one" }, "project.version"},
		{"bad pattern", func(m *Model) { m.Project.VersionPattern = "DATE" }, "project.version_pattern"},
		{"calver", func(m *Model) {
			m.Project.VersionPattern = "CALVER:YYYY.MICRO"
			m.Project.Version = "2024.3"
		}, ""},
		{"push without token", func(m *Model) { m.Release.Push = true }, "release.token"},
		{"command hook without cmd", func(m *Model) {
			m.Hooks.Command.Before = []CommandHook{{}}
		}, "hooks.command.before[0].cmd"},
		{"script hook bad shell", func(m *Model) {
			m.Hooks.Script.Failure = []ScriptHook{{Run: "echo", Shell: "zsh"}}
		}, "hooks.script.failure[0].shell"},
		{"hook bad platform", func(m *Model) {
			m.Hooks.Command.Success = []CommandHook{{Cmd: "echo", Platforms: []string{"plan9x"}}}
		}, "hooks.command.success[0].platforms"},
		{"extension bad type", func(m *Model) {
			m.Extensions = []Extension{{Name: "x", Type: "webhook"}}
		}, "extensions[0].type"},
		{"duplicate extension", func(m *Model) {
			m.Extensions = []Extension{{Name: "m", Type: ExtensionMetrics}, {Name: "m", Type: ExtensionMetrics, Enabled: &disabled}}
		}, "extensions[1].name"},
		{"command extension without run", func(m *Model) {
			m.Extensions = []Extension{{Name: "c", Type: ExtensionCommand}}
		}, "extensions[0].run"},
		{"bad checksum", func(m *Model) { m.Checksum.Algorithms = []string{"md5"} }, "checksum.algorithms[0]"},
		{"s3 without bucket", func(m *Model) {
			m.Upload.S3 = []S3Uploader{{Name: "s3", Region: "eu-west-1"}}
		}, "upload.s3[0].bucket"},
		{"s3 without region", func(m *Model) {
			m.Upload.S3 = []S3Uploader{{Name: "s3", Bucket: "b"}}
		}, "upload.s3[0].region"},
		{"webhook bad url", func(m *Model) {
			m.Announce.Webhooks = []WebhookAnnouncer{{Name: "w", URL: "ftp://x"}}
		}, "announce.webhooks[0].url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := validModel()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidModel) {
				t.Fatalf("Validate() = %v, want ErrInvalidModel", err)
			}
			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("Validate() = %T, want ValidationErrors", err)
			}
			for _, e := range errs {
				if e.Field == tt.wantField {
					return
				}
			}
			t.Errorf("Validate() = %v, want an error for %s", err, tt.wantField)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	one := ValidationErrors{{Field: "a", Message: "bad"}}
	if one.Error() != "a: bad" {
		t.Errorf("Error() = %q", one.Error())
	}

	two := ValidationErrors{{Field: "a", Message: "bad"}, {Message: "worse"}}
	got := two.Error()
	if !strings.HasPrefix(got, "model validation failed with 2 errors:") || !strings.Contains(got, "\n  - worse") {
		t.Errorf("Error() = %q", got)
	}
}
