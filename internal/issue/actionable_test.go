// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "execute hook"},
			want: "failed to execute hook",
		},
		{
			name: "operation and resource",
			err:  &ActionableError{Operation: "load project configuration", Resource: "relkit.cue"},
			want: "failed to load project configuration: relkit.cue",
		},
		{
			name: "operation resource and cause",
			err: &ActionableError{
				Operation: "upload artifact",
				Resource:  "app.tar.gz",
				Cause:     errors.New("access denied"),
			},
			want: "failed to upload artifact: app.tar.gz: access denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("root cause")
	err := NewErrorContext().WithOperation("tag release").Wrap(fmt.Errorf("wrapped: %w", sentinel)).BuildError()

	if !errors.Is(err, sentinel) {
		t.Errorf("errors.Is should find the root cause through the chain")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("errors.As should find the ActionableError")
	}
	if ae.Operation != "tag release" {
		t.Errorf("Operation = %q, want %q", ae.Operation, "tag release")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "execute hook",
		Resource:    "before:session",
		Suggestions: []string{"Run the command by hand", "Set continueOnError"},
		Cause:       fmt.Errorf("exit status 2: %w", errors.New("command failed")),
	}

	plain := err.Format(false)
	if !strings.Contains(plain, "  • Run the command by hand") {
		t.Errorf("expected suggestions in output, got %q", plain)
	}
	if strings.Contains(plain, "Error chain:") {
		t.Errorf("non-verbose output should not contain the error chain, got %q", plain)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Errorf("verbose output should contain the error chain, got %q", verbose)
	}
	if !strings.Contains(verbose, "2. command failed") {
		t.Errorf("verbose output should number wrapped errors, got %q", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError without operation should return untyped nil, got %#v", err)
	}

	ae := NewErrorContext().
		WithOperation("announce release").
		WithResource("slack").
		WithSuggestion("check the webhook URL").
		WithIssue(AnnounceFailedId).
		Build()
	if ae.IssueID != AnnounceFailedId {
		t.Errorf("IssueID = %d, want %d", ae.IssueID, AnnounceFailedId)
	}
	if ae.Issue() == nil || ae.Issue().Id() != AnnounceFailedId {
		t.Errorf("Issue() should resolve the catalogue entry")
	}
	if len(ae.Suggestions) != 1 {
		t.Errorf("Suggestions = %v, want one entry", ae.Suggestions)
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "noop") != nil {
		t.Error("wrapping nil should return nil")
	}
	cause := errors.New("boom")
	err := WrapWithOperation(cause, "write report")
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to the cause")
	}
	if err.Error() != "failed to write report: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFormatForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := FormatForDisplay(plain, true); got != "plain failure" {
		t.Errorf("FormatForDisplay(plain) = %q", got)
	}

	wrapped := fmt.Errorf("outer: %w", &ActionableError{Operation: "tag release", Suggestions: []string{"retry"}})
	if got := FormatForDisplay(wrapped, false); !strings.Contains(got, "• retry") {
		t.Errorf("FormatForDisplay should use ActionableError.Format, got %q", got)
	}
}
