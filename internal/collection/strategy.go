package collection

import "strings"

// Strategy supplies the snapshot operations for one snapshot type.
type Strategy[T any] struct {
	Empty     func() T
	Normalise func(T) T
	Clone     func(T) T
	Contains  func(T, string) bool
	Add       func(T, string) T
	Remove    func(T, string) T
	Items     func(T) []string
}

// ListStrategy keeps insertion order; duplicates keep the first occurrence.
var ListStrategy = Strategy[[]string]{
	Empty:     func() []string { return []string{} },
	Normalise: normaliseList,
	Clone:     cloneList,
	Contains: func(items []string, item string) bool {
		return indexOf(items, item) >= 0
	},
	Add: func(items []string, item string) []string {
		return append(cloneList(items), item)
	},
	Remove: func(items []string, item string) []string {
		out := cloneList(items)
		if i := indexOf(out, item); i >= 0 {
			out = append(out[:i], out[i+1:]...)
		}
		return out
	},
	Items: cloneList,
}

// SetStrategy has no order; members are listed sorted.
var SetStrategy = Strategy[Set]{
	Empty: func() Set { return NewSet() },
	Normalise: func(s Set) Set {
		return NewSet(normaliseList(s.Items())...)
	},
	Clone:    Set.Clone,
	Contains: Set.Contains,
	Add:      Set.With,
	Remove:   Set.Without,
	Items:    Set.Items,
}

// normaliseList trims entries, drops blanks and removes later duplicates.
func normaliseList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func cloneList(items []string) []string {
	return append([]string{}, items...)
}

func indexOf(items []string, item string) int {
	for i, s := range items {
		if s == item {
			return i
		}
	}
	return -1
}
