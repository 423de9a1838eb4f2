// Package store provides the versioned, append-only history store that backs
// every kirby collection. A History keeps the full sequence of snapshots for one
// location and persists it as a unit on each mutation, which is what makes a
// single-step undo survive process restarts.
package store

import (
	"errors"
	"fmt"

	"kirby/internal/logging"
)

// Options configures a History. All function fields are optional; nil
// functions behave as identity (Normalise, Clone) or fmt's %v (Pretty).
type Options[T any] struct {
	// Empty is the value of a freshly created or cleared history.
	Empty T
	// Normalise cleans snapshots read back from the backend.
	Normalise func(T) T
	// Pretty renders a snapshot for Summary.
	Pretty func(T) string
	// Clone returns an independent copy of a snapshot.
	Clone func(T) T
}

// History is the in-memory view of one persisted snapshot sequence.
// The last element is the current value and the sequence is never empty.
type History[T any] struct {
	backend   Backend[T]
	location  string
	opts      Options[T]
	snapshots []T
}

// New loads the history stored at location, seeding and persisting [Empty]
// when nothing has been stored yet.
func New[T any](backend Backend[T], location string, opts Options[T]) (*History[T], error) {
	if backend == nil {
		return nil, errors.New("history backend is required")
	}
	if location == "" {
		return nil, errors.New("history location is required")
	}

	h := &History[T]{backend: backend, location: location, opts: opts}

	loaded, err := backend.Load(location)
	switch {
	case errors.Is(err, ErrNotFound):
		logging.StoreDebug("No history at %s, seeding empty snapshot", location)
	case err != nil:
		return nil, fmt.Errorf("failed to load history %s: %w", location, err)
	}

	if len(loaded) == 0 {
		seed := []T{h.clone(opts.Empty)}
		if err := backend.Save(location, seed); err != nil {
			return nil, fmt.Errorf("failed to seed history %s: %w", location, err)
		}
		h.snapshots = seed
		return h, nil
	}

	for i := range loaded {
		loaded[i] = h.normalise(loaded[i])
	}
	h.snapshots = loaded
	logging.StoreDebug("Loaded history %s: %d snapshots", location, len(loaded))
	return h, nil
}

// Location returns the backend location this history persists to.
func (h *History[T]) Location() string {
	return h.location
}

// Latest returns a copy of the current snapshot.
func (h *History[T]) Latest() T {
	if len(h.snapshots) == 0 {
		return h.clone(h.opts.Empty)
	}
	return h.clone(h.snapshots[len(h.snapshots)-1])
}

// Depth returns the number of stored snapshots.
func (h *History[T]) Depth() int {
	return len(h.snapshots)
}

// Push appends v as the new current snapshot and persists the full history.
// v is stored exactly as given; on a failed write the in-memory history is
// left untouched.
func (h *History[T]) Push(v T) error {
	next := make([]T, len(h.snapshots), len(h.snapshots)+1)
	copy(next, h.snapshots)
	next = append(next, h.clone(v))

	if err := h.commit(next); err != nil {
		return fmt.Errorf("failed to push snapshot to %s: %w", h.location, err)
	}
	logging.StoreDebug("Pushed snapshot to %s (depth=%d)", h.location, len(next))
	return nil
}

// Undo drops the current snapshot and reports whether anything was undone.
// The first snapshot is never removed.
func (h *History[T]) Undo() (bool, error) {
	if len(h.snapshots) <= 1 {
		return false, nil
	}

	next := make([]T, len(h.snapshots)-1)
	copy(next, h.snapshots[:len(h.snapshots)-1])

	if err := h.commit(next); err != nil {
		return false, fmt.Errorf("failed to undo %s: %w", h.location, err)
	}
	logging.StoreDebug("Undid last snapshot of %s (depth=%d)", h.location, len(next))
	return true, nil
}

// Clear resets the history to a single empty snapshot.
func (h *History[T]) Clear() error {
	next := []T{h.clone(h.opts.Empty)}
	if err := h.commit(next); err != nil {
		return fmt.Errorf("failed to clear %s: %w", h.location, err)
	}
	logging.Store("Cleared history %s", h.location)
	return nil
}

// Summary renders the current snapshot with the configured pretty-printer.
func (h *History[T]) Summary() string {
	latest := h.Latest()
	if h.opts.Pretty == nil {
		return fmt.Sprintf("%v", latest)
	}
	return h.opts.Pretty(latest)
}

// commit persists next and only then makes it the in-memory history.
func (h *History[T]) commit(next []T) error {
	if err := h.backend.Save(h.location, next); err != nil {
		logging.StoreError("Save failed for %s: %v", h.location, err)
		return err
	}
	h.snapshots = next
	return nil
}

func (h *History[T]) clone(v T) T {
	if h.opts.Clone == nil {
		return v
	}
	return h.opts.Clone(v)
}

func (h *History[T]) normalise(v T) T {
	if h.opts.Normalise == nil {
		return v
	}
	return h.opts.Normalise(v)
}
