// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/relkit/relkit/internal/model"
)

// ErrConfigExists is returned by WriteStarter when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

// Starter returns the model written by 'relkit init'.
func Starter(name, version string) *model.Model {
	m := &model.Model{
		Project: model.Project{Name: name, Version: version},
		Release: model.Release{TagName: model.DefaultTagName},
		Hooks:   model.Hooks{Enabled: true},
		Checksum: model.Checksum{
			Algorithms: []string{model.ChecksumSHA256},
		},
	}
	m.Defaults()
	return m
}

// WriteStarter writes m as relkit.cue into dir. An existing file is replaced
// only when force is set.
func WriteStarter(dir string, m *model.Model, force bool) (string, error) {
	path := filepath.Join(dir, FileName+".cue")
	if !force && fileExists(path) {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := renameio.WriteFile(path, []byte(GenerateCUE(m)), 0o644); err != nil {
		return path, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE generates a CUE representation of the model.
func GenerateCUE(m *model.Model) string {
	var sb strings.Builder

	sb.WriteString("// relkit project configuration\n\n")

	sb.WriteString("project: {\n")
	fmt.Fprintf(&sb, "\tname:    %q\n", m.Project.Name)
	fmt.Fprintf(&sb, "\tversion: %q\n", m.Project.Version)
	if m.Project.VersionPattern != "" {
		fmt.Fprintf(&sb, "\tversion_pattern: %q\n", m.Project.VersionPattern)
	}
	if m.Project.Description != "" {
		fmt.Fprintf(&sb, "\tdescription: %q\n", m.Project.Description)
	}
	if m.Project.License != "" {
		fmt.Fprintf(&sb, "\tlicense: %q\n", m.Project.License)
	}
	if len(m.Project.Authors) > 0 {
		fmt.Fprintf(&sb, "\tauthors: [%s]\n", quoteList(m.Project.Authors))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nrelease: {\n")
	fmt.Fprintf(&sb, "\ttag_name: %q\n", m.Release.TagName)
	if m.Release.Remote != "" && m.Release.Remote != model.DefaultRemote {
		fmt.Fprintf(&sb, "\tremote: %q\n", m.Release.Remote)
	}
	fmt.Fprintf(&sb, "\toverwrite: %v\n", m.Release.Overwrite)
	fmt.Fprintf(&sb, "\tpush: %v\n", m.Release.Push)
	sb.WriteString("\t// token is read from RELKIT_RELEASE_TOKEN\n")
	sb.WriteString("}\n")

	sb.WriteString("\nhooks: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", m.Hooks.Enabled)
	writeHooks(&sb, m.Hooks)
	sb.WriteString("}\n")

	if len(m.Artifacts) > 0 {
		sb.WriteString("\nartifacts: [\n")
		for _, a := range m.Artifacts {
			fmt.Fprintf(&sb, "\t{path: %q},\n", a.Path)
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\nchecksum: {\n")
	fmt.Fprintf(&sb, "\talgorithms: [%s]\n", quoteList(m.Checksum.Algorithms))
	sb.WriteString("}\n")

	if len(m.Upload.S3) > 0 {
		sb.WriteString("\nupload: {\n")
		fmt.Fprintf(&sb, "\tparallelism: %d\n", m.Upload.Parallelism)
		sb.WriteString("\ts3: [\n")
		for _, u := range m.Upload.S3 {
			sb.WriteString("\t\t{\n")
			fmt.Fprintf(&sb, "\t\t\tname:   %q\n", u.Name)
			fmt.Fprintf(&sb, "\t\t\tbucket: %q\n", u.Bucket)
			if u.Region != "" {
				fmt.Fprintf(&sb, "\t\t\tregion: %q\n", u.Region)
			}
			if u.Endpoint != "" {
				fmt.Fprintf(&sb, "\t\t\tendpoint: %q\n", u.Endpoint)
			}
			if u.Path != "" {
				fmt.Fprintf(&sb, "\t\t\tpath: %q\n", u.Path)
			}
			if u.PathStyle {
				sb.WriteString("\t\t\tpath_style: true\n")
			}
			sb.WriteString("\t\t},\n")
		}
		sb.WriteString("\t]\n")
		sb.WriteString("}\n")
	}

	if len(m.Announce.Webhooks) > 0 {
		sb.WriteString("\nannounce: {\n")
		sb.WriteString("\twebhooks: [\n")
		for _, w := range m.Announce.Webhooks {
			fmt.Fprintf(&sb, "\t\t{name: %q, url: %q, message: %q},\n", w.Name, w.URL, w.Message)
		}
		sb.WriteString("\t]\n")
		sb.WriteString("}\n")
	}

	if len(m.Extensions) > 0 {
		sb.WriteString("\nextensions: [\n")
		for _, e := range m.Extensions {
			fmt.Fprintf(&sb, "\t{name: %q, type: %q", e.Name, e.Type)
			if e.Run != "" {
				fmt.Fprintf(&sb, ", run: %q", e.Run)
			}
			if e.Endpoint != "" {
				fmt.Fprintf(&sb, ", endpoint: %q", e.Endpoint)
			}
			if e.ContinueOnError {
				sb.WriteString(", continue_on_error: true")
			}
			sb.WriteString("},\n")
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}

func writeHooks(sb *strings.Builder, h model.Hooks) {
	cmds := map[string][]model.CommandHook{"before": h.Command.Before, "success": h.Command.Success, "failure": h.Command.Failure}
	scripts := map[string][]model.ScriptHook{"before": h.Script.Before, "success": h.Script.Success, "failure": h.Script.Failure}
	order := []string{"before", "success", "failure"}

	if len(h.Command.Before)+len(h.Command.Success)+len(h.Command.Failure) > 0 {
		sb.WriteString("\tcommand: {\n")
		for _, kind := range order {
			if len(cmds[kind]) == 0 {
				continue
			}
			fmt.Fprintf(sb, "\t\t%s: [\n", kind)
			for _, hook := range cmds[kind] {
				fmt.Fprintf(sb, "\t\t\t{cmd: %q%s},\n", hook.Cmd, hookOptions(hook.ContinueOnError, hook.Filter))
			}
			sb.WriteString("\t\t]\n")
		}
		sb.WriteString("\t}\n")
	}

	if len(h.Script.Before)+len(h.Script.Success)+len(h.Script.Failure) > 0 {
		sb.WriteString("\tscript: {\n")
		for _, kind := range order {
			if len(scripts[kind]) == 0 {
				continue
			}
			fmt.Fprintf(sb, "\t\t%s: [\n", kind)
			for _, hook := range scripts[kind] {
				shell := ""
				if hook.Shell != "" {
					shell = fmt.Sprintf(", shell: %q", hook.Shell)
				}
				fmt.Fprintf(sb, "\t\t\t{run: %q%s%s},\n", hook.Run, shell, hookOptions(hook.ContinueOnError, hook.Filter))
			}
			sb.WriteString("\t\t]\n")
		}
		sb.WriteString("\t}\n")
	}
}

func hookOptions(continueOnError bool, f model.Filter) string {
	var sb strings.Builder
	if continueOnError {
		sb.WriteString(", continue_on_error: true")
	}
	if !f.IsEmpty() {
		sb.WriteString(", filter: {")
		var parts []string
		if len(f.Includes) > 0 {
			parts = append(parts, "includes: ["+quoteList(f.Includes)+"]")
		}
		if len(f.Excludes) > 0 {
			parts = append(parts, "excludes: ["+quoteList(f.Excludes)+"]")
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("}")
	}
	return sb.String()
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
