// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/model"
)

const (
	// AppName is the application name.
	AppName = "relkit"
	// FileName is the config file name without extension.
	FileName = "relkit"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "RELKIT"
)

// Formats lists the supported config extensions in lookup order.
var Formats = []string{"cue", "yml", "yaml", "toml"}

var (
	// ErrConfigNotFound is returned when no config file can be resolved.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrUnsupportedFormat is returned for an explicit file with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// BaseDir is searched for relkit.{cue,yml,yaml,toml}. Defaults to the
		// working directory, or to the directory of ConfigFilePath.
		BaseDir string
	}

	// Config is a loaded project model and where it came from.
	Config struct {
		Model   *model.Model
		Path    string
		BaseDir string
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return Load(ctx, opts)
}

// Load resolves, validates and decodes the project model. Model validation
// beyond the schema is left to the caller.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	path, baseDir, err := Resolve(opts)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(baseDir).
			WithIssue(issue.ConfigNotFoundId).
			WithSuggestion("Run 'relkit init' to create a starter relkit.cue").
			WithSuggestion("Pass --config to point at an existing file").
			Wrap(err).
			BuildError()
	}

	v := newViper()
	if err := mergeFile(v, path); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithIssue(issue.ConfigParseErrorId).
			WithSuggestion("Check that the file is valid for its format").
			WithSuggestion("Verify the values match the #Project schema ('relkit init' shows an example)").
			Wrap(err).
			BuildError()
	}

	var m model.Model
	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	m.Defaults()

	return &Config{Model: &m, Path: path, BaseDir: baseDir}, nil
}

// Resolve returns the config file to load and the base directory.
func Resolve(opts LoadOptions) (path, baseDir string, err error) {
	baseDir = opts.BaseDir

	if opts.ConfigFilePath != "" {
		path = opts.ConfigFilePath
		if baseDir == "" {
			baseDir = filepath.Dir(path)
		}
		if !fileExists(path) {
			return "", baseDir, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		if _, err := format(path); err != nil {
			return "", baseDir, err
		}
		return path, baseDir, nil
	}

	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	for _, ext := range Formats {
		candidate := filepath.Join(baseDir, FileName+"."+ext)
		if fileExists(candidate) {
			return candidate, baseDir, nil
		}
	}
	return "", baseDir, fmt.Errorf("%w in %s (looked for %s.{%s})", ErrConfigNotFound, baseDir, FileName, strings.Join(Formats, ","))
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("project.name", "")
	v.SetDefault("project.version", "")
	v.SetDefault("project.version_pattern", "SEMVER")
	v.SetDefault("release.tag_name", model.DefaultTagName)
	v.SetDefault("release.remote", model.DefaultRemote)
	v.SetDefault("release.overwrite", false)
	v.SetDefault("release.push", false)
	v.SetDefault("release.username", "")
	v.SetDefault("release.token", "")
	v.SetDefault("hooks.enabled", true)
	v.SetDefault("checksum.algorithms", []string{model.ChecksumSHA256})
	v.SetDefault("upload.parallelism", model.DefaultParallelism)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// mergeFile decodes path according to its extension, validates it against
// the schema and merges it into v.
func mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFileSize(data, path); err != nil {
		return err
	}

	ext, err := format(path)
	if err != nil {
		return err
	}

	var doc map[string]any
	switch ext {
	case "cue":
		doc, err = validateCUE(data, path)
	case "yml", "yaml":
		doc, err = decodeYAML(data, path)
	case "toml":
		doc, err = decodeTOML(data, path)
	}
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(doc); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func decodeYAML(data []byte, path string) (map[string]any, error) {
	doc := map[string]any{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return validateMap(doc, path)
}

func decodeTOML(data []byte, path string) (map[string]any, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return validateMap(doc, path)
}

func format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if ext == f {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, filepath.Ext(path), strings.Join(Formats, ", "))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
