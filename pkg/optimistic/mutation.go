// Package optimistic models a single UI affordance whose state is changed
// before the server confirms it and reverted if the server refuses.
package optimistic

import (
	"context"
	"errors"
	"sync"
)

// State is the lifecycle position of a Mutation
type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

var (
	// ErrInFlight is returned when a mutation is started while another is pending.
	// Callers treat it as a suppressed duplicate click.
	ErrInFlight = errors.New("a change is already in progress")

	ErrNotPending = errors.New("no change in progress")
)

// Mutation holds the current view value of one affordance. At most one change
// is in flight at a time.
type Mutation[T any] struct {
	mu       sync.Mutex
	state    State
	value    T
	previous T
}

// New returns an idle mutation showing initial
func New[T any](initial T) *Mutation[T] {
	return &Mutation[T]{value: initial}
}

// Value returns what the view should show right now
func (m *Mutation[T]) Value() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *Mutation[T]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin computes the optimistic value from the current one and shows it
// immediately, remembering the value to restore. update runs under the lock,
// so it always sees the latest committed or rolled back value.
func (m *Mutation[T]) Begin(update func(current T) T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Pending {
		var zero T
		return zero, ErrInFlight
	}
	m.previous = m.value
	m.value = update(m.value)
	m.state = Pending
	return m.value, nil
}

// Commit confirms the pending change. A non-nil authoritative value from the
// server replaces the optimistic one.
func (m *Mutation[T]) Commit(authoritative *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Pending {
		return ErrNotPending
	}
	if authoritative != nil {
		m.value = *authoritative
	}
	m.state = Committed
	return nil
}

// Rollback restores the value from before Begin
func (m *Mutation[T]) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Pending {
		return ErrNotPending
	}
	m.value = m.previous
	m.state = RolledBack
	return nil
}

// Run performs Begin, calls apply with the optimistic value, then commits
// with its result or rolls back on error. The error from apply is returned unchanged.
func (m *Mutation[T]) Run(ctx context.Context, update func(current T) T, apply func(ctx context.Context, next T) (*T, error)) error {
	next, err := m.Begin(update)
	if err != nil {
		return err
	}

	authoritative, err := apply(ctx, next)
	if err != nil {
		m.Rollback()
		return err
	}
	return m.Commit(authoritative)
}
