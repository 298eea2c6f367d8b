package r

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitRegistryAllocAndLookup(t *testing.T) {
	r := newWaitRegistry()
	w := r.AllocWait(42)
	require.NotNil(t, w)
	assert.Equal(t, 42, w.fd)

	got, ok := r.lookup(42)
	require.True(t, ok)
	assert.Same(t, w, got)
}

func TestWaitRegistryLookupMiss(t *testing.T) {
	r := newWaitRegistry()
	_, ok := r.lookup(99)
	assert.False(t, ok)
}

func TestWaitRegistryFreeWaitMarksFreedAndRemoves(t *testing.T) {
	r := newWaitRegistry()
	w := r.AllocWait(7)
	r.FreeWait(w)

	assert.True(t, w.freed)
	_, ok := r.lookup(7)
	assert.False(t, ok)
}
