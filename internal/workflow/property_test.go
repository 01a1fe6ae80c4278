// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

const (
	listenerOK = iota
	listenerTolerate
	listenerHalt
)

func drawResult(t *rapid.T, label string) int {
	return rapid.IntRange(listenerOK, listenerHalt).Draw(t, label)
}

func applyResult(rc *fakeContext, key string, r int) {
	switch r {
	case listenerTolerate:
		rc.results[key] = tolerate("audit", fmt.Errorf("tolerated at %s", key))
	case listenerHalt:
		rc.results[key] = halt("strict", fmt.Errorf("halted at %s", key))
	}
}

func TestExecute_SessionInvariants(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		rc := newFakeContext()
		hookFails := rapid.Bool().Draw(t, "hookFails")
		if hookFails {
			rc.hookErrs["before:session"] = errors.New("hook failed")
		}
		applyResult(rc, "start", drawResult(t, "start"))
		applyResult(rc, "end", drawResult(t, "end"))

		n := rapid.IntRange(0, 4).Draw(t, "steps")
		steps := make([]Step, 0, n)
		stepErrs := make(map[error]bool)
		for i := range n {
			name := fmt.Sprintf("s%d", i)
			var err error
			if rapid.Bool().Draw(t, name+"Fails") {
				err = fmt.Errorf("%s failed", name)
				stepErrs[err] = true
				applyResult(rc, "failure:"+name, drawResult(t, name+"Failure"))
			} else {
				applyResult(rc, "success:"+name, drawResult(t, name+"Success"))
			}
			applyResult(rc, "before:"+name, drawResult(t, name+"Before"))
			steps = append(steps, step(rc, name, err))
		}

		w, err := New(rc, steps)
		if err != nil {
			t.Fatalf("New() = %v", err)
		}
		got := w.Execute(context.Background())
		calls := rc.j.calls

		// Cleanup and close happen exactly once, last.
		if rc.j.count("cleanup") != 1 || rc.j.count("close") != 1 {
			t.Fatalf("cleanup/close counts = %d/%d", rc.j.count("cleanup"), rc.j.count("close"))
		}
		if !slices.Equal(calls[len(calls)-2:], []string{"cleanup", "close"}) {
			t.Fatalf("calls do not end with cleanup, close: %v", calls)
		}

		// Report always runs after reset on a non-panicking path.
		if rc.j.count("report") != 1 || slices.Index(calls, "reset") > slices.Index(calls, "report") {
			t.Fatalf("report/reset misordered: %v", calls)
		}

		if hookFails {
			if rc.j.has("start") || rc.j.has("end") {
				t.Fatalf("session events fired after hook failure: %v", calls)
			}
			if got == nil || !errors.Is(got, ErrFatal) {
				t.Fatalf("Execute() = %v, want fatal", got)
			}
			return
		}
		if !rc.j.has("end") {
			t.Fatalf("session end not fired: %v", calls)
		}

		// Steps run in declaration order with no gaps.
		var invoked []string
		for _, c := range calls {
			if name, ok := strings.CutPrefix(c, "invoke "); ok {
				invoked = append(invoked, name)
			}
		}
		for i, name := range invoked {
			if name != fmt.Sprintf("s%d", i) {
				t.Fatalf("invoked = %v, want a prefix of the steps", invoked)
			}
		}

		// At most one closing hook, and only for the step/end/success branches.
		success, failure := rc.j.has("hook success:session"), rc.j.has("hook failure:session")
		if success && failure {
			t.Fatalf("both closing hooks ran: %v", calls)
		}

		switch {
		case got == nil:
			if !success {
				t.Fatalf("success hooks did not run: %v", calls)
			}
		case stepErrs[got]:
			if !failure {
				t.Fatalf("failure hooks did not run for step error: %v", calls)
			}
		default:
			if !errors.Is(got, ErrFatal) {
				t.Fatalf("Execute() = %v, want a step error or fatal", got)
			}
			if success {
				t.Fatalf("success hooks ran on failure: %v", calls)
			}
			// Only a session-end failure runs failure hooks with a fatal error.
			if failure != (rc.results["end"].Halted != nil) {
				t.Fatalf("failure hooks = %v with end result %+v", failure, rc.results["end"])
			}
		}
	})
}
