package r

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAddAndLookup(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("foo", 1)
	v, ok := h.LookupName("foo")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = h.LookupName("bar")
	assert.False(t, ok)
}

func TestHashAddNameReplacesExisting(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("foo", 1)
	h.AddName("foo", 2)
	v, _ := h.LookupName("foo")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, h.Len())
}

func TestHashCaselessLookup(t *testing.T) {
	h := NewHash(8, HashCaseless)
	h.AddName("FOO", 1)
	v, ok := h.LookupName("foo")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestHashCaseSensitiveByDefault(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("FOO", 1)
	_, ok := h.LookupName("foo")
	assert.False(t, ok)
}

func TestHashRemoveName(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("foo", 1)
	assert.True(t, h.RemoveName("foo"))
	assert.False(t, h.RemoveName("foo"))
	assert.Equal(t, 0, h.Len())
}

func TestHashRehashPreservesEntries(t *testing.T) {
	h := NewHash(4, HashStatic)
	for i := 0; i < 100; i++ {
		h.AddName(Itosafe(int64(i), 10), i)
	}
	assert.Equal(t, 100, h.Len())
	for i := 0; i < 100; i++ {
		v, ok := h.LookupName(Itosafe(int64(i), 10))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestHashCursorDetectsMutationDuringIteration(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("a", 1)
	h.AddName("b", 2)

	c := h.NewCursor()
	_, _, ok, err := h.GetNextName(c)
	require.NoError(t, err)
	require.True(t, ok)

	h.AddName("c", 3)

	_, _, _, err = h.GetNextName(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, NewError(ErrCantComplete, "")))
}

func TestHashCursorFullIterationWithoutMutation(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("a", 1)
	h.AddName("b", 2)

	c := h.NewCursor()
	seen := map[string]any{}
	for {
		name, value, ok, err := h.GetNextName(c)
		require.NoError(t, err)
		if !ok {
			break
		}
		seen[name] = value
	}
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, seen)
}

func TestHashRangeVisitsAllLiveEntries(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("a", 1)
	h.AddName("b", 2)
	h.RemoveName("a")

	seen := map[string]any{}
	h.Range(func(name string, value any) bool {
		seen[name] = value
		return true
	})
	assert.Equal(t, map[string]any{"b": 2}, seen)
}

func TestHashClone(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("a", 1)
	clone := h.Clone()
	clone.AddName("b", 2)

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestHashToJsonSortedKeys(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("zebra", 1)
	h.AddName("apple", "red")
	assert.Equal(t, `{"apple": "red","zebra": 1}`, h.HashToJson(false))
}

func TestHashToString(t *testing.T) {
	h := NewHash(8, HashStatic)
	h.AddName("a", 1)
	h.AddName("b", 2)
	assert.Equal(t, "a=1,b=2", h.HashToString(","))
}

func TestHashAddNameSubstring(t *testing.T) {
	h := NewHash(8, HashStatic)
	require.NoError(t, h.AddNameSubstring("hello", 1, 3, 1))
	v, ok := h.LookupName("el")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	err := h.AddNameSubstring("hello", 3, 1, nil)
	assert.ErrorIs(t, err, ErrIsBadArgs)
}
