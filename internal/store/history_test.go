package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func listOptions() Options[[]string] {
	return Options[[]string]{
		Empty: []string{},
		Normalise: func(v []string) []string {
			seen := make(map[string]bool, len(v))
			out := []string{}
			for _, s := range v {
				s = strings.TrimSpace(s)
				if s == "" || seen[s] {
					continue
				}
				seen[s] = true
				out = append(out, s)
			}
			return out
		},
		Pretty: func(v []string) string {
			if len(v) == 0 {
				return "(none)"
			}
			return strings.Join(v, ", ")
		},
		Clone: func(v []string) []string {
			return append([]string{}, v...)
		},
	}
}

func TestNewSeedsEmptyHistory(t *testing.T) {
	backend := NewMemoryBackend[[]string]()

	h, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, h.Depth())
	assert.Empty(t, h.Latest())
	assert.Equal(t, 1, backend.Saves("prompts"), "seed must be persisted immediately")
	assert.Equal(t, [][]string{{}}, backend.Stored("prompts"))
}

func TestNewNormalisesLoadedSnapshots(t *testing.T) {
	backend := NewMemoryBackend[[]string]()
	require.NoError(t, backend.Save("prompts", [][]string{{}, {" a ", "", "a", "b"}}))

	h, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, h.Depth())
	if diff := cmp.Diff([]string{"a", "b"}, h.Latest()); diff != "" {
		t.Errorf("Latest() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, backend.Saves("prompts"), "loading must not write")
}

func TestNewReseedsEmptyPersistedList(t *testing.T) {
	backend := NewMemoryBackend[[]string]()
	require.NoError(t, backend.Save("prompts", nil))

	h, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Depth())
	assert.Equal(t, 2, backend.Saves("prompts"))
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New[[]string](nil, "prompts", listOptions())
	assert.Error(t, err)

	_, err = New(NewMemoryBackend[[]string](), "", listOptions())
	assert.Error(t, err)
}

func TestNewSeedFailure(t *testing.T) {
	backend := NewMemoryBackend[[]string]()
	boom := errors.New("disk full")
	backend.FailWith(boom)

	_, err := New(backend, "prompts", listOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestPushThenLatest(t *testing.T) {
	h, err := New(NewMemoryBackend[[]string](), "prompts", listOptions())
	require.NoError(t, err)

	for _, v := range [][]string{{"x"}, {"x", "y"}, {}} {
		require.NoError(t, h.Push(v))
		if diff := cmp.Diff(v, h.Latest()); diff != "" {
			t.Errorf("Latest() after Push(%v) mismatch (-want +got):\n%s", v, diff)
		}
	}
	assert.Equal(t, 4, h.Depth())
}

func TestLatestIsACopy(t *testing.T) {
	h, err := New(NewMemoryBackend[[]string](), "prompts", listOptions())
	require.NoError(t, err)
	require.NoError(t, h.Push([]string{"a"}))

	got := h.Latest()
	got[0] = "mutated"

	assert.Equal(t, []string{"a"}, h.Latest())
}

func TestPushStoresACopy(t *testing.T) {
	h, err := New(NewMemoryBackend[[]string](), "prompts", listOptions())
	require.NoError(t, err)

	v := []string{"a"}
	require.NoError(t, h.Push(v))
	v[0] = "mutated"

	assert.Equal(t, []string{"a"}, h.Latest())
}

func TestUndoBounds(t *testing.T) {
	backend := NewMemoryBackend[[]string]()
	h, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)

	undone, err := h.Undo()
	require.NoError(t, err)
	assert.False(t, undone)
	assert.Empty(t, h.Latest())
	assert.Equal(t, 1, backend.Saves("prompts"), "a no-op undo must not write")

	require.NoError(t, h.Push([]string{"a"}))
	require.NoError(t, h.Push([]string{"a", "b"}))

	undone, err = h.Undo()
	require.NoError(t, err)
	assert.True(t, undone)
	assert.Equal(t, []string{"a"}, h.Latest())

	undone, err = h.Undo()
	require.NoError(t, err)
	assert.True(t, undone)
	assert.Empty(t, h.Latest())

	undone, err = h.Undo()
	require.NoError(t, err)
	assert.False(t, undone)
	assert.Equal(t, 1, h.Depth())
}

func TestClearReseeds(t *testing.T) {
	backend := NewMemoryBackend[[]string]()
	h, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)
	require.NoError(t, h.Push([]string{"a"}))
	require.NoError(t, h.Push([]string{"a", "b"}))

	require.NoError(t, h.Clear())

	assert.Equal(t, 1, h.Depth())
	assert.Empty(t, h.Latest())
	assert.Equal(t, [][]string{{}}, backend.Stored("prompts"))

	undone, err := h.Undo()
	require.NoError(t, err)
	assert.False(t, undone)
}

func TestFailedSaveLeavesMemoryUnchanged(t *testing.T) {
	backend := NewMemoryBackend[[]string]()
	h, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)
	require.NoError(t, h.Push([]string{"a"}))

	boom := errors.New("read-only file system")
	backend.FailWith(boom)

	err = h.Push([]string{"a", "b"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, h.Latest())
	assert.Equal(t, 2, h.Depth())

	_, err = h.Undo()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, h.Latest())

	err = h.Clear()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, h.Depth())

	backend.FailWith(nil)
	require.NoError(t, h.Push([]string{"a", "c"}))
	assert.Equal(t, [][]string{{}, {"a"}, {"a", "c"}}, backend.Stored("prompts"))
}

func TestSummary(t *testing.T) {
	h, err := New(NewMemoryBackend[[]string](), "prompts", listOptions())
	require.NoError(t, err)
	assert.Equal(t, "(none)", h.Summary())

	require.NoError(t, h.Push([]string{"a", "b"}))
	assert.Equal(t, "a, b", h.Summary())

	plain, err := New(NewMemoryBackend[int](), "counter", Options[int]{})
	require.NoError(t, err)
	require.NoError(t, plain.Push(42))
	assert.Equal(t, "42", plain.Summary())
}

func TestHistorySurvivesReload(t *testing.T) {
	backend := NewMemoryBackend[[]string]()
	h, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)
	require.NoError(t, h.Push([]string{"a"}))
	require.NoError(t, h.Push([]string{"a", "b"}))

	reloaded, err := New(backend, "prompts", listOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Depth())

	undone, err := reloaded.Undo()
	require.NoError(t, err)
	assert.True(t, undone)
	assert.Equal(t, []string{"a"}, reloaded.Latest())
}
