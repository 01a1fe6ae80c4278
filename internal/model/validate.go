// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/relkit/relkit/internal/shell"
	"github.com/relkit/relkit/internal/version"
)

// ErrInvalidModel is the sentinel error wrapped by ValidationErrors.
var ErrInvalidModel = errors.New("invalid project model")

var knownPlatforms = map[string]bool{
	"linux": true, "darwin": true, "windows": true,
	"freebsd": true, "openbsd": true, "netbsd": true,
}

type (
	// ValidationError is a single problem found in the model.
	ValidationError struct {
		// Field is the dotted path of the offending field, e.g. "upload.s3[0].bucket".
		Field   string
		Message string
	}

	// ValidationErrors collects every problem found in one validation pass.
	ValidationErrors []ValidationError

	validator struct {
		errs ValidationErrors
	}
)

// Validate checks the model and returns ValidationErrors when it is invalid.
// All problems are reported, not only the first.
func (m *Model) Validate() error {
	v := &validator{}
	v.project(m.Project)
	v.release(m.Release)
	v.hooks(m.Hooks)
	v.extensions(m.Extensions)
	v.artifacts(m.Artifacts)
	v.checksum(m.Checksum)
	v.upload(m.Upload)
	v.announce(m.Announce)
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Error implements the error interface by joining all error messages.
func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "model validation failed with %d errors:", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap returns ErrInvalidModel for errors.Is() compatibility.
func (errs ValidationErrors) Unwrap() error { return ErrInvalidModel }

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, "must not be blank")
		return false
	}
	return true
}

func (v *validator) project(p Project) {
	v.required("project.name", p.Name)
	pattern, err := version.ParsePattern(p.VersionPattern)
	if err != nil {
		v.add("project.version_pattern", "%s", err)
		return
	}
	if v.required("project.version", p.Version) {
		if err := pattern.Validate(p.Version); err != nil {
			v.add("project.version", "%s", err)
		}
	}
}

func (v *validator) release(r Release) {
	if r.Push && strings.TrimSpace(r.Token) == "" {
		v.add("release.token", "required when push is enabled")
	}
}

func (v *validator) hooks(h Hooks) {
	commands := [][]CommandHook{h.Command.Before, h.Command.Success, h.Command.Failure}
	scripts := [][]ScriptHook{h.Script.Before, h.Script.Success, h.Script.Failure}
	for t, typ := range []string{"before", "success", "failure"} {
		for i, hook := range commands[t] {
			field := fmt.Sprintf("hooks.command.%s[%d]", typ, i)
			v.required(field+".cmd", hook.Cmd)
			v.platforms(field+".platforms", hook.Platforms)
		}
		for i, hook := range scripts[t] {
			field := fmt.Sprintf("hooks.script.%s[%d]", typ, i)
			v.required(field+".run", hook.Run)
			v.shell(field+".shell", hook.Shell)
			v.platforms(field+".platforms", hook.Platforms)
		}
	}
}

func (v *validator) extensions(exts []Extension) {
	seen := make(map[string]bool, len(exts))
	for i, e := range exts {
		field := fmt.Sprintf("extensions[%d]", i)
		if v.required(field+".name", e.Name) {
			if seen[e.Name] {
				v.add(field+".name", "duplicate extension %q", e.Name)
			}
			seen[e.Name] = true
		}
		if ok, errs := e.Type.IsValid(); !ok {
			v.add(field+".type", "%s", errors.Join(errs...))
			continue
		}
		if e.Type == ExtensionCommand {
			v.required(field+".run", e.Run)
			v.shell(field+".shell", e.Shell)
		}
		if e.Type == ExtensionTracing && e.Endpoint != "" && strings.Contains(e.Endpoint, "://") {
			v.add(field+".endpoint", "must be host:port without a scheme")
		}
	}
}

func (v *validator) artifacts(artifacts []Artifact) {
	for i, a := range artifacts {
		v.required(fmt.Sprintf("artifacts[%d].path", i), a.Path)
	}
}

func (v *validator) checksum(c Checksum) {
	for i, algo := range c.Algorithms {
		if algo != ChecksumSHA256 && algo != ChecksumSHA512 {
			v.add(fmt.Sprintf("checksum.algorithms[%d]", i), "unsupported algorithm %q (valid: sha256, sha512)", algo)
		}
	}
}

func (v *validator) upload(u Upload) {
	if u.Parallelism < 0 {
		v.add("upload.parallelism", "must not be negative")
	}
	seen := make(map[string]bool, len(u.S3))
	for i, s3 := range u.S3 {
		field := fmt.Sprintf("upload.s3[%d]", i)
		if v.required(field+".name", s3.Name) {
			if seen[s3.Name] {
				v.add(field+".name", "duplicate uploader %q", s3.Name)
			}
			seen[s3.Name] = true
		}
		v.required(field+".bucket", s3.Bucket)
		if s3.Region == "" && s3.Endpoint == "" {
			v.add(field+".region", "region or endpoint is required")
		}
		if s3.Endpoint != "" {
			v.url(field+".endpoint", s3.Endpoint)
		}
	}
}

func (v *validator) announce(a Announce) {
	seen := make(map[string]bool, len(a.Webhooks))
	for i, w := range a.Webhooks {
		field := fmt.Sprintf("announce.webhooks[%d]", i)
		if v.required(field+".name", w.Name) {
			if seen[w.Name] {
				v.add(field+".name", "duplicate announcer %q", w.Name)
			}
			seen[w.Name] = true
		}
		if v.required(field+".url", w.URL) {
			v.url(field+".url", w.URL)
		}
	}
}

func (v *validator) url(field, raw string) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.add(field, "must be an absolute http(s) URL")
	}
}

func (v *validator) shell(field, mode string) {
	if ok, errs := shell.Mode(mode).IsValid(); !ok {
		v.add(field, "%s", errors.Join(errs...))
	}
}

func (v *validator) platforms(field string, platforms []string) {
	for _, p := range platforms {
		if !knownPlatforms[p] {
			v.add(field, "unknown platform %q", p)
		}
	}
}
