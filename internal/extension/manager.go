// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/relkit/relkit/internal/event"
)

// Manager holds the listeners registered for one session.
type Manager struct {
	mu        sync.Mutex
	listeners []Listener
	cleaned   bool
}

// NewManager creates a manager with the given listeners.
func NewManager(listeners ...Listener) *Manager {
	return &Manager{listeners: slices.Clone(listeners)}
}

// Register appends a listener. Listeners are notified in registration order.
func (m *Manager) Register(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Listeners returns a copy of the registered listeners.
func (m *Manager) Listeners() []Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.listeners)
}

// FireSessionStart notifies listeners that the session started.
func (m *Manager) FireSessionStart(ctx context.Context, s Session) Result {
	return m.dispatch(func(l Listener) error { return l.OnSessionStart(ctx, s) })
}

// FireSessionEnd notifies listeners that the session ended.
func (m *Manager) FireSessionEnd(ctx context.Context, s Session) Result {
	return m.dispatch(func(l Listener) error { return l.OnSessionEnd(ctx, s) })
}

// FireWorkflowEvent notifies listeners of a step or session event.
func (m *Manager) FireWorkflowEvent(ctx context.Context, s Session, e event.ExecutionEvent) Result {
	return m.dispatch(func(l Listener) error { return l.OnWorkflowEvent(ctx, s, e) })
}

// Cleanup closes every listener implementing io.Closer. Only the first call
// has an effect.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	if m.cleaned {
		m.mu.Unlock()
		return nil
	}
	m.cleaned = true
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		if c, ok := l.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close listener %q: %w", l.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) dispatch(deliver func(Listener) error) Result {
	var result Result
	for _, l := range m.Listeners() {
		err := deliver(l)
		if err == nil {
			continue
		}
		f := Failure{Listener: l.Name(), ContinueOnError: l.ContinueOnError(), Cause: err}
		if f.ContinueOnError {
			result.Tolerated = append(result.Tolerated, f)
			continue
		}
		result.Halted = &f
		break
	}
	return result
}
