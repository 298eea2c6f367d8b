package r

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeString(t *testing.T) {
	assert.Equal(t, "cannot find", ErrCantFind.String())
	assert.Equal(t, "ok", OK.String())
	assert.Contains(t, Code(-999).String(), "-999")
}

func TestNewErrorMessage(t *testing.T) {
	err := NewError(ErrBadArgs, "field %q is required", "name")
	assert.Equal(t, ErrBadArgs, err.Code)
	assert.Equal(t, "bad args: field \"name\" is required", err.Error())
}

func TestNewErrorNoMessage(t *testing.T) {
	err := NewError(ErrTimeout, "")
	assert.Equal(t, "timeout", err.Error())
}

func TestErrorIsByCode(t *testing.T) {
	a := NewError(ErrCantFind, "needle")
	b := NewError(ErrCantFind, "a different needle")
	assert.True(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, ErrIsCantFind))
	assert.False(t, errors.Is(a, ErrIsTimeout))
}

func TestErrorIsRejectsOtherErrorTypes(t *testing.T) {
	assert.False(t, errors.Is(NewError(ErrFail, ""), errors.New("fail")))
}
