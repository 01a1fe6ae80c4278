// SPDX-License-Identifier: MPL-2.0

package release

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/relkit/relkit/internal/event"
)

// ReportFileName is the name of the session report inside the output directory.
const ReportFileName = "output.yml"

const (
	// OutcomeRunning marks a step whose before event was seen last.
	OutcomeRunning = "running"
	// OutcomeSuccess marks a step that succeeded.
	OutcomeSuccess = "success"
	// OutcomeFailure marks a step that failed.
	OutcomeFailure = "failure"
)

type (
	// StepRecord is what the report keeps about one step.
	StepRecord struct {
		Name     string        `yaml:"name"`
		Outcome  string        `yaml:"outcome"`
		Duration time.Duration `yaml:"duration"`
		Error    string        `yaml:"error,omitempty"`
		Outputs  []string      `yaml:"outputs,omitempty"`

		start time.Time
	}

	stepYAML struct {
		Name     string   `yaml:"name"`
		Outcome  string   `yaml:"outcome"`
		Duration string   `yaml:"duration"`
		Error    string   `yaml:"error,omitempty"`
		Outputs  []string `yaml:"outputs,omitempty"`
	}

	// Report is the content of output.yml.
	Report struct {
		SessionID string       `yaml:"session_id"`
		Project   ProjectInfo  `yaml:"project"`
		DryRun    bool         `yaml:"dry_run"`
		Start     time.Time    `yaml:"start"`
		Duration  string       `yaml:"duration"`
		TagName   string       `yaml:"tag_name,omitempty"`
		Steps     []StepRecord `yaml:"steps"`
	}

	// ProjectInfo identifies the released project.
	ProjectInfo struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	}
)

// MarshalYAML renders the duration in its human form.
func (r StepRecord) MarshalYAML() (any, error) {
	return stepYAML{
		Name:     r.Name,
		Outcome:  r.Outcome,
		Duration: r.Duration.String(),
		Error:    r.Error,
		Outputs:  r.Outputs,
	}, nil
}

// record tracks step outcomes from workflow events. Session events are ignored.
func (rc *Context) record(e event.ExecutionEvent) {
	if e.IsSession() {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := rc.now()
	if e.Type() == event.TypeBefore {
		rc.steps = append(rc.steps, StepRecord{Name: e.Name(), Outcome: OutcomeRunning, start: now})
		return
	}

	i := rc.current(e.Name())
	if i < 0 {
		return
	}
	rec := &rc.steps[i]
	rec.Duration = now.Sub(rec.start).Round(time.Millisecond)
	if e.Type() == event.TypeSuccess {
		rec.Outcome = OutcomeSuccess
		return
	}
	rec.Outcome = OutcomeFailure
	if err := e.Failure(); err != nil {
		rec.Error = err.Error()
	}
}

// current returns the index of the latest record for name, or -1.
func (rc *Context) current(name string) int {
	for i := len(rc.steps) - 1; i >= 0; i-- {
		if rc.steps[i].Name == name {
			return i
		}
	}
	return -1
}

// AddOutput attaches an output (a written file, an uploaded key) to the
// step currently recorded under name.
func (rc *Context) AddOutput(step, output string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if i := rc.current(step); i >= 0 {
		rc.steps[i].Outputs = append(rc.steps[i].Outputs, output)
	}
}

// SetTagName records the tag created or planned by the session.
func (rc *Context) SetTagName(name string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.tagName = name
}

// Steps returns a copy of the recorded steps.
func (rc *Context) Steps() []StepRecord {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return slices.Clone(rc.steps)
}

// BuildReport returns the report for the session so far.
func (rc *Context) BuildReport() Report {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return Report{
		SessionID: rc.session.ID,
		Project:   ProjectInfo{Name: rc.session.ProjectName, Version: rc.session.ProjectVersion},
		DryRun:    rc.dryRun,
		Start:     rc.session.Start,
		Duration:  rc.now().Sub(rc.session.Start).Round(time.Millisecond).String(),
		TagName:   rc.tagName,
		Steps:     slices.Clone(rc.steps),
	}
}

// Report writes the session report to <output>/output.yml atomically.
func (rc *Context) Report() error {
	data, err := yaml.Marshal(rc.BuildReport())
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(rc.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(rc.outputDir, ReportFileName)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	rc.logger.Debug("report written", "path", path)
	return nil
}
