package collection

import (
	"encoding/json"

	"bitbucket.org/creachadair/stringset"
)

// Set is an unordered snapshot of unique strings. It is persisted as a sorted
// JSON array so files diff cleanly and round-trip exactly.
type Set struct {
	items stringset.Set
}

// NewSet returns a set holding items.
func NewSet(items ...string) Set {
	return Set{items: stringset.New(items...)}
}

// Items returns the members in sorted order. Never nil.
func (s Set) Items() []string {
	if s.items.Empty() {
		return []string{}
	}
	return s.items.Elements()
}

// Contains reports whether item is a member.
func (s Set) Contains(item string) bool {
	return s.items.Contains(item)
}

// Len returns the number of members.
func (s Set) Len() int {
	return s.items.Len()
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	if s.items == nil {
		return NewSet()
	}
	return Set{items: s.items.Clone()}
}

// With returns a copy of s that also holds item.
func (s Set) With(item string) Set {
	out := s.Clone()
	out.items.Add(item)
	return out
}

// Without returns a copy of s with item removed.
func (s Set) Without(item string) Set {
	out := s.Clone()
	out.items.Discard(item)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

// UnmarshalJSON accepts an array of strings; null decodes to the empty set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}
