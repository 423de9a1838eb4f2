package collection

import (
	"fmt"
	"strings"

	"kirby/internal/logging"
	"kirby/internal/store"
)

// Collection is the facade for one named collection.
type Collection[T any] struct {
	kind     Kind
	strategy Strategy[T]
	history  *store.History[T]
}

// New opens (seeding if needed) the collection stored at location.
func New[T any](kind Kind, strategy Strategy[T], backend store.Backend[T], location string) (*Collection[T], error) {
	c := &Collection[T]{kind: kind, strategy: strategy}

	h, err := store.New(backend, location, store.Options[T]{
		Empty:     strategy.Empty(),
		Normalise: strategy.Normalise,
		Pretty:    c.pretty,
		Clone:     strategy.Clone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", kind.Name, err)
	}
	c.history = h
	return c, nil
}

// NewList opens an ordered collection.
func NewList(kind Kind, backend store.Backend[[]string], location string) (*Collection[[]string], error) {
	return New(kind, ListStrategy, backend, location)
}

// NewSetCollection opens an unordered collection.
func NewSetCollection(kind Kind, backend store.Backend[Set], location string) (*Collection[Set], error) {
	return New(kind, SetStrategy, backend, location)
}

// Kind returns the collection's kind.
func (c *Collection[T]) Kind() Kind {
	return c.kind
}

// Append adds item (trimmed) unless it is blank or already present.
func (c *Collection[T]) Append(item string) (Result, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return c.warn("Empty %s: nothing added.", c.kind.Noun), nil
	}

	current := c.history.Latest()
	if c.strategy.Contains(current, item) {
		return c.warn("%s already present: %s", c.kind.Title, item), nil
	}

	if err := c.history.Push(c.strategy.Add(current, item)); err != nil {
		return Result{}, err
	}
	logging.Collection("%s: added %q", c.kind.Name, item)
	return success(fmt.Sprintf("Added %s: %s", c.kind.Noun, item)), nil
}

// Remove deletes item (trimmed) if it is tracked.
func (c *Collection[T]) Remove(item string) (Result, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return c.warn("Empty %s: nothing removed.", c.kind.Noun), nil
	}

	current := c.history.Latest()
	if !c.strategy.Contains(current, item) {
		return c.warn("%s not tracked: %s", c.kind.Title, item), nil
	}

	if err := c.history.Push(c.strategy.Remove(current, item)); err != nil {
		return Result{}, err
	}
	logging.Collection("%s: removed %q", c.kind.Name, item)
	return success(fmt.Sprintf("Removed %s: %s", c.kind.Noun, item)), nil
}

// Undo reverts the most recent change.
func (c *Collection[T]) Undo() (Result, error) {
	undone, err := c.history.Undo()
	if err != nil {
		return Result{}, err
	}
	if !undone {
		return c.warn("Nothing to undo."), nil
	}
	logging.Collection("%s: undo", c.kind.Name)
	return success(fmt.Sprintf("Reverted last %s change.", c.kind.Noun)), nil
}

// Clear drops every item and the undo history.
func (c *Collection[T]) Clear() (Result, error) {
	if err := c.history.Clear(); err != nil {
		return Result{}, err
	}
	logging.Collection("%s: cleared", c.kind.Name)
	return success(fmt.Sprintf("%s cleared.", c.kind.Label)), nil
}

// Summary renders the current items under the kind's heading.
func (c *Collection[T]) Summary() string {
	return c.history.Summary()
}

// Latest returns a copy of the current snapshot.
func (c *Collection[T]) Latest() T {
	return c.history.Latest()
}

// Items returns the current items in display order.
func (c *Collection[T]) Items() []string {
	return c.strategy.Items(c.history.Latest())
}

// Depth returns how many snapshots are stored.
func (c *Collection[T]) Depth() int {
	return c.history.Depth()
}

func (c *Collection[T]) pretty(v T) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s:", c.kind.Icon, c.kind.Label)
	items := c.strategy.Items(v)
	if len(items) == 0 {
		b.WriteString("\n(none)")
		return b.String()
	}
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}

func (c *Collection[T]) warn(format string, args ...interface{}) Result {
	r := warning(fmt.Sprintf(format, args...))
	logging.CollectionWarn("%s: %s", c.kind.Name, r.Message)
	return r
}

// Facade is the type-independent view of a Collection used by the CLI.
type Facade interface {
	Kind() Kind
	Append(item string) (Result, error)
	Remove(item string) (Result, error)
	Undo() (Result, error)
	Clear() (Result, error)
	Summary() string
	Items() []string
	Depth() int
}

var (
	_ Facade = (*Collection[[]string])(nil)
	_ Facade = (*Collection[Set])(nil)
)
