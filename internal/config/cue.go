// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// MaxFileSize bounds the size of a configuration file.
const MaxFileSize = 5 * 1024 * 1024

//go:embed config_schema.cue
var projectSchema string

// validateCUE compiles src, unifies it with #Project and decodes the result.
func validateCUE(src []byte, path string) (map[string]any, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}

	value := ctx.CompileBytes(src, cue.Filename(path))
	if value.Err() != nil {
		return nil, formatCUEError(value.Err(), path)
	}
	return unify(schema, value, path)
}

// validateMap checks an already decoded YAML or TOML document against #Project.
func validateMap(doc map[string]any, path string) (map[string]any, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}

	value := ctx.Encode(doc)
	if value.Err() != nil {
		return nil, formatCUEError(value.Err(), path)
	}
	return unify(schema, value, path)
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileString(projectSchema)
	if schema.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile project schema: %w", schema.Err())
	}
	return schema.LookupPath(cue.ParsePath("#Project")), nil
}

func unify(schema, value cue.Value, path string) (map[string]any, error) {
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, formatCUEError(err, path)
	}

	var doc map[string]any
	if err := unified.Decode(&doc); err != nil {
		return nil, formatCUEError(err, path)
	}
	return doc, nil
}

// formatCUEError renders CUE errors as "<file>: <json-path>: <message>" lines.
func formatCUEError(err error, path string) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		field := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if field != "" && strings.HasPrefix(msg, field) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
		}
		if field != "" {
			msg = field + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", path, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", path, strings.Join(lines, "\n  "))
}

// formatPath turns ["upload", "s3", "0", "bucket"] into "upload.s3[0].bucket".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func checkFileSize(data []byte, path string) error {
	if len(data) > MaxFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), MaxFileSize)
	}
	return nil
}
