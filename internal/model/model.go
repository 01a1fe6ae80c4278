// SPDX-License-Identifier: MPL-2.0

package model

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultTagName is the tag template used when release.tag_name is unset.
	DefaultTagName = "v{{projectVersion}}"
	// DefaultRemote is the git remote used when release.remote is unset.
	DefaultRemote = "origin"
	// DefaultUploadPath is the object key template used when an uploader has no path.
	DefaultUploadPath = "{{projectName}}/{{projectVersion}}/{{artifactFile}}"
	// DefaultParallelism bounds concurrent uploads when upload.parallelism is unset.
	DefaultParallelism = 4
	// DefaultAnnounceMessage is the webhook message used when an announcer has no message.
	DefaultAnnounceMessage = "{{projectName}} {{projectVersion}} has been released!"

	// ChecksumSHA256 selects SHA-256 checksums.
	ChecksumSHA256 = "sha256"
	// ChecksumSHA512 selects SHA-512 checksums.
	ChecksumSHA512 = "sha512"
)

type (
	// Model is the root of a relkit project configuration.
	Model struct {
		Project    Project     `json:"project" mapstructure:"project" yaml:"project"`
		Release    Release     `json:"release" mapstructure:"release" yaml:"release"`
		Hooks      Hooks       `json:"hooks" mapstructure:"hooks" yaml:"hooks"`
		Extensions []Extension `json:"extensions,omitempty" mapstructure:"extensions" yaml:"extensions,omitempty"`
		Artifacts  []Artifact  `json:"artifacts,omitempty" mapstructure:"artifacts" yaml:"artifacts,omitempty"`
		Checksum   Checksum    `json:"checksum" mapstructure:"checksum" yaml:"checksum"`
		Upload     Upload      `json:"upload" mapstructure:"upload" yaml:"upload"`
		Announce   Announce    `json:"announce" mapstructure:"announce" yaml:"announce"`
	}

	// Project holds the project identity.
	Project struct {
		Name    string `json:"name" mapstructure:"name" yaml:"name"`
		Version string `json:"version" mapstructure:"version" yaml:"version"`
		// VersionPattern is SEMVER (default), CALVER:<format> or CUSTOM.
		VersionPattern string   `json:"version_pattern,omitempty" mapstructure:"version_pattern" yaml:"version_pattern,omitempty"`
		Description    string   `json:"description,omitempty" mapstructure:"description" yaml:"description,omitempty"`
		Authors        []string `json:"authors,omitempty" mapstructure:"authors" yaml:"authors,omitempty"`
		License        string   `json:"license,omitempty" mapstructure:"license" yaml:"license,omitempty"`
	}

	// Release configures the git tag created by the tag step.
	Release struct {
		// TagName is a template; see Model.Expand.
		TagName     string `json:"tag_name,omitempty" mapstructure:"tag_name" yaml:"tag_name,omitempty"`
		Overwrite   bool   `json:"overwrite,omitempty" mapstructure:"overwrite" yaml:"overwrite,omitempty"`
		Push        bool   `json:"push,omitempty" mapstructure:"push" yaml:"push,omitempty"`
		Remote      string `json:"remote,omitempty" mapstructure:"remote" yaml:"remote,omitempty"`
		Username    string `json:"username,omitempty" mapstructure:"username" yaml:"username,omitempty"`
		Token       string `json:"-" mapstructure:"token" yaml:"-"`
		AuthorName  string `json:"author_name,omitempty" mapstructure:"author_name" yaml:"author_name,omitempty"`
		AuthorEmail string `json:"author_email,omitempty" mapstructure:"author_email" yaml:"author_email,omitempty"`
	}

	// Artifact is a file (or glob) produced by the build and published by relkit.
	Artifact struct {
		Path string `json:"path" mapstructure:"path" yaml:"path"`
	}

	// Checksum selects the checksum algorithms computed by the checksum step.
	Checksum struct {
		Algorithms []string `json:"algorithms,omitempty" mapstructure:"algorithms" yaml:"algorithms,omitempty"`
	}

	// Upload groups the artifact uploaders.
	Upload struct {
		Parallelism int          `json:"parallelism,omitempty" mapstructure:"parallelism" yaml:"parallelism,omitempty"`
		S3          []S3Uploader `json:"s3,omitempty" mapstructure:"s3" yaml:"s3,omitempty"`
	}

	// S3Uploader publishes artifacts to an S3-compatible bucket.
	S3Uploader struct {
		Name     string `json:"name" mapstructure:"name" yaml:"name"`
		Enabled  *bool  `json:"enabled,omitempty" mapstructure:"enabled" yaml:"enabled,omitempty"`
		Bucket   string `json:"bucket" mapstructure:"bucket" yaml:"bucket"`
		Region   string `json:"region,omitempty" mapstructure:"region" yaml:"region,omitempty"`
		Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint" yaml:"endpoint,omitempty"`
		// Path is the object key template; see Model.Expand.
		Path        string `json:"path,omitempty" mapstructure:"path" yaml:"path,omitempty"`
		PathStyle   bool   `json:"path_style,omitempty" mapstructure:"path_style" yaml:"path_style,omitempty"`
		AccessKeyID string `json:"access_key_id,omitempty" mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
		SecretKey   string `json:"-" mapstructure:"secret_key" yaml:"-"`
	}

	// Announce groups the release announcers.
	Announce struct {
		Webhooks []WebhookAnnouncer `json:"webhooks,omitempty" mapstructure:"webhooks" yaml:"webhooks,omitempty"`
	}

	// WebhookAnnouncer posts {"text": message} to a URL.
	WebhookAnnouncer struct {
		Name    string            `json:"name" mapstructure:"name" yaml:"name"`
		Enabled *bool             `json:"enabled,omitempty" mapstructure:"enabled" yaml:"enabled,omitempty"`
		URL     string            `json:"url" mapstructure:"url" yaml:"url"`
		Message string            `json:"message,omitempty" mapstructure:"message" yaml:"message,omitempty"`
		Headers map[string]string `json:"headers,omitempty" mapstructure:"headers" yaml:"headers,omitempty"`
	}
)

// Defaults fills unset optional fields with their default values.
func (m *Model) Defaults() {
	if m.Project.VersionPattern == "" {
		m.Project.VersionPattern = "SEMVER"
	}
	if m.Release.TagName == "" {
		m.Release.TagName = DefaultTagName
	}
	if m.Release.Remote == "" {
		m.Release.Remote = DefaultRemote
	}
	if len(m.Checksum.Algorithms) == 0 {
		m.Checksum.Algorithms = []string{ChecksumSHA256}
	}
	if m.Upload.Parallelism <= 0 {
		m.Upload.Parallelism = DefaultParallelism
	}
	for i := range m.Upload.S3 {
		if m.Upload.S3[i].Path == "" {
			m.Upload.S3[i].Path = DefaultUploadPath
		}
	}
	for i := range m.Announce.Webhooks {
		if m.Announce.Webhooks[i].Message == "" {
			m.Announce.Webhooks[i].Message = DefaultAnnounceMessage
		}
	}
}

// Props returns the template properties derived from the project.
func (m *Model) Props() map[string]string {
	props := map[string]string{
		"projectName":        m.Project.Name,
		"projectVersion":     m.Project.Version,
		"projectDescription": m.Project.Description,
		"projectLicense":     m.Project.License,
	}
	tag := m.Release.TagName
	if tag == "" {
		tag = DefaultTagName
	}
	props["tagName"] = expand(tag, props)
	return props
}

// Expand replaces {{key}} placeholders in tpl with the project properties
// and extra. Unknown placeholders are left untouched.
func (m *Model) Expand(tpl string, extra map[string]string) string {
	props := m.Props()
	for k, v := range extra {
		props[k] = v
	}
	return expand(tpl, props)
}

// TagName returns the expanded release tag name.
func (m *Model) TagName() string {
	return m.Props()["tagName"]
}

// ArtifactFile returns the base name of an artifact path.
func ArtifactFile(path string) string {
	return filepath.Base(path)
}

// IsEnabled reports whether the uploader is enabled. Unset means enabled.
func (u S3Uploader) IsEnabled() bool { return u.Enabled == nil || *u.Enabled }

// IsEnabled reports whether the announcer is enabled. Unset means enabled.
func (a WebhookAnnouncer) IsEnabled() bool { return a.Enabled == nil || *a.Enabled }

func expand(tpl string, props map[string]string) string {
	if !strings.Contains(tpl, "{{") {
		return tpl
	}
	pairs := make([]string, 0, len(props)*2)
	for k, v := range props {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
