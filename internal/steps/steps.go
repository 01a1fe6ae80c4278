// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/relkit/relkit/internal/event"
	"github.com/relkit/relkit/internal/release"
	"github.com/relkit/relkit/internal/workflow"
)

// Step command names.
const (
	ConfigCommand      = "config"
	ChecksumCommand    = "checksum"
	UploadCommand      = "upload"
	TagCommand         = "tag"
	AnnounceCommand    = "announce"
	FullReleaseCommand = "full-release"
)

// ErrUnknownCommand is returned by Build for a command no step implements.
var ErrUnknownCommand = errors.New("unknown step command")

type (
	// Dependencies overrides external clients used by steps.
	Dependencies struct {
		S3       S3ClientFactory
		Webhooks HTTPDoer
	}

	// hooked runs the step-scoped hooks around a step.
	hooked struct {
		rc   *release.Context
		step workflow.Step
	}
)

// Commands lists the commands Build accepts.
func Commands() []string {
	return []string{ConfigCommand, ChecksumCommand, UploadCommand, TagCommand, AnnounceCommand, FullReleaseCommand}
}

// Build returns the steps for command, each wrapped with its scoped hooks.
// full-release expands to checksum, upload, tag and announce.
func Build(rc *release.Context, command string, deps Dependencies) ([]workflow.Step, error) {
	var names []string
	switch command {
	case FullReleaseCommand:
		names = []string{ChecksumCommand, UploadCommand, TagCommand, AnnounceCommand}
	case ConfigCommand, ChecksumCommand, UploadCommand, TagCommand, AnnounceCommand:
		names = []string{command}
	default:
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownCommand, command, strings.Join(Commands(), ", "))
	}

	steps := make([]workflow.Step, 0, len(names))
	for _, name := range names {
		steps = append(steps, Hooked(rc, newStep(rc, name, deps)))
	}
	return steps, nil
}

func newStep(rc *release.Context, name string, deps Dependencies) workflow.Step {
	switch name {
	case ConfigCommand:
		return &Config{rc: rc}
	case ChecksumCommand:
		return &Checksum{rc: rc}
	case UploadCommand:
		return NewUpload(rc, deps.S3)
	case TagCommand:
		return &Tag{rc: rc}
	default:
		return NewAnnounce(rc, deps.Webhooks)
	}
}

// Hooked wraps step so that the hooks filtered to its name run around it.
// A before-hook failure fails the step without running it. A success-hook
// failure fails the step. Failure hooks receive the step error; their own
// failure is logged and the step error is returned.
func Hooked(rc *release.Context, step workflow.Step) workflow.Step {
	return &hooked{rc: rc, step: step}
}

func (h *hooked) Command() string { return h.step.Command() }

func (h *hooked) Invoke(ctx context.Context) error {
	name := h.step.Command()
	log := h.rc.Log()
	log.WithStep(name)
	defer log.Reset()

	runner := h.rc.Hooks()
	if err := runner.ExecuteHooks(ctx, event.Before(name)); err != nil {
		return err
	}

	if err := h.step.Invoke(ctx); err != nil {
		if herr := runner.ExecuteHooks(ctx, event.Failure(name, err)); herr != nil {
			log.Warn("failure hooks failed", "step", name)
			log.Trace(herr)
		}
		return err
	}

	return runner.ExecuteHooks(ctx, event.Success(name))
}
