package r

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCauseString(t *testing.T) {
	assert.Equal(t, "warning", MemWarning.String())
	assert.Equal(t, "limit", MemLimit.String())
	assert.Equal(t, "fail", MemFail.String())
	assert.Equal(t, "too big", MemTooBig.String())
	assert.Equal(t, "stack", MemStack.String())
	assert.Equal(t, "unknown", MemCause(999).String())
}

func TestMemDupNilAndCopy(t *testing.T) {
	assert.Nil(t, MemDup(nil))

	src := []byte("hello")
	dup := MemDup(src)
	require.Equal(t, src, dup)

	dup[0] = 'H'
	assert.Equal(t, byte('h'), src[0], "MemDup must return an independent copy")
}

func TestMemCopyClamps(t *testing.T) {
	dst := make([]byte, 3)
	n := MemCopy(dst, []byte("hello"))
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("hel"), dst)
}

func TestMemCopyShortSrc(t *testing.T) {
	dst := make([]byte, 5)
	n := MemCopy(dst, []byte("hi"))
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("hi\x00\x00\x00"), dst)
}

func TestAllocZeroSizeReturnsNonNil(t *testing.T) {
	buf := Alloc(0)
	require.NotNil(t, buf)
	assert.Equal(t, 0, len(buf))
	assert.GreaterOrEqual(t, cap(buf), 1)
}

func TestAllocPositiveSize(t *testing.T) {
	buf := Alloc(8)
	assert.Equal(t, 8, len(buf))
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

func TestReallocGrowsPreservingPrefix(t *testing.T) {
	buf := Alloc(4)
	copy(buf, []byte("abcd"))
	grown := Realloc(buf, 8)
	assert.Equal(t, 8, len(grown))
	assert.Equal(t, []byte("abcd"), grown[:4])
}

func TestReallocShrinks(t *testing.T) {
	buf := Alloc(8)
	copy(buf, []byte("abcdefgh"))
	shrunk := Realloc(buf, 3)
	assert.Equal(t, []byte("abc"), shrunk)
}

func TestSetMemHandlerInvokedOnOversizeCopy(t *testing.T) {
	var gotCause MemCause
	var gotSize int
	SetMemHandler(func(cause MemCause, size int) {
		gotCause = cause
		gotSize = size
	})
	defer SetMemHandler(nil)

	dst := make([]byte, 2)
	MemCopy(dst, []byte("too long"))

	assert.Equal(t, MemTooBig, gotCause)
	assert.Equal(t, len("too long"), gotSize)
}

func TestSetMemHandlerNilRestoresDefault(t *testing.T) {
	SetMemHandler(func(MemCause, int) {})
	SetMemHandler(nil)

	assert.Panics(t, func() {
		invokeMemHandler(MemFail, 16)
	})
}
