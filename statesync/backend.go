// Package statesync implements the State Sync / Pool component (§4, §6):
// it decides where a node's required input state is obtained from (self,
// a peer worker, or the shared pool) and talks to the State Backend
// collaborator to check/get/set/unset named snapshots. Implementing the
// actual VM snapshot backend is explicitly out of scope (spec.md §1
// Non-goals); Backend here is the interface boundary plus an in-memory
// double used by tests and manual CLI tools that don't need a real
// hypervisor.
package statesync

import (
	"context"
	"sync"

	"github.com/cartgraph/cartgraph/internal/errors"
)

// RootState is the sentinel designating the initial/empty state (§6).
const RootState = "root"

// Mode is a two-character word from {r,a,i,f}^2: the first char governs
// behavior "if present", the second "if missing" (§6).
type Mode string

const (
	ModeRemoveIfMissing  Mode = "ri"
	ModeForceIfMissing   Mode = "fi"
	ModeIgnoreIfPresent  Mode = "ia"
	ModeForceIfPresent   Mode = "fa"
	ModeForceBoth        Mode = "ff"
	ModeIgnoreBoth       Mode = "ii"
	ModeRemoveIfPresentF Mode = "rf"
)

// Forced reports whether the mode's "if present" character requests a
// forced action regardless of existing state.
func (m Mode) Forced() bool {
	return len(m) > 0 && m[0] == 'f'
}

// Backend is the State Backend collaborator (§6): check/get/set/unset a
// named snapshot of an object at a location.
type Backend interface {
	Check(ctx context.Context, kind, suffix, state, location string) (bool, error)
	Get(ctx context.Context, kind, suffix, state, location string, mode Mode) error
	Set(ctx context.Context, kind, suffix, state, location string, mode Mode) error
	Unset(ctx context.Context, kind, suffix, state, location string, mode Mode) error
}

// InMemoryBackend is a Backend double that tracks which (kind, suffix,
// state, location) tuples exist in memory, for tests and for manual CLI
// tools operating against a fake pool.
type InMemoryBackend struct {
	mu     sync.Mutex
	states map[string]bool
}

// NewInMemoryBackend builds an empty in-memory state backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{states: map[string]bool{}}
}

func key(kind, suffix, state, location string) string {
	return kind + "|" + suffix + "|" + state + "|" + location
}

func (b *InMemoryBackend) Check(_ context.Context, kind, suffix, state, location string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.states[key(kind, suffix, state, location)], nil
}

func (b *InMemoryBackend) Get(_ context.Context, kind, suffix, state, location string, _ Mode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.states[key(kind, suffix, state, location)] {
		return errors.Errorf("state %s for %s.%s not available at %s", state, kind, suffix, location)
	}

	return nil
}

func (b *InMemoryBackend) Set(_ context.Context, kind, suffix, state, location string, _ Mode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.states[key(kind, suffix, state, location)] = true

	return nil
}

func (b *InMemoryBackend) Unset(_ context.Context, kind, suffix, state, location string, mode Mode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.states[key(kind, suffix, state, location)] && !mode.Forced() {
		return nil
	}

	delete(b.states, key(kind, suffix, state, location))

	return nil
}
