package r

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFmtNullLiteralForNilArg(t *testing.T) {
	assert.Equal(t, "value: null", Fmt("value: %s", nil))
}

func TestFmtNullLiteralForNilStringPointer(t *testing.T) {
	var p *string
	assert.Equal(t, "name: null", Fmt("name: %s", p))
}

func TestFmtNonNilStringPointerDereferenced(t *testing.T) {
	s := "ioto"
	assert.Equal(t, "name: ioto", Fmt("name: %s", &s))
}

func TestFmtPassesThroughOrdinaryVerbs(t *testing.T) {
	assert.Equal(t, "x=42, y=3.50", Fmt("x=%d, y=%.2f", 42, 3.5))
}

func TestFmtCommaGroupsInteger(t *testing.T) {
	assert.Equal(t, "total: 1,234,567", Fmt("total: %,d", 1234567))
}

func TestFmtCommaGroupsSmallInteger(t *testing.T) {
	assert.Equal(t, "total: 42", Fmt("total: %,d", 42))
}

func TestFprintfWritesFormattedBytes(t *testing.T) {
	var buf bytes.Buffer
	n, err := Fprintf(&buf, "hello %s", "world")
	assert.NoError(t, err)
	assert.Equal(t, len("hello world"), n)
	assert.Equal(t, "hello world", buf.String())
}
