package asserr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	e := Malformed("box.3mf", 0x1b, "bad magic")
	assert.Equal(t, MalformedInput, e.Kind)
	assert.Contains(t, e.Error(), "box.3mf")
	assert.Contains(t, e.Error(), "0x1b")
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(IoError, cause, "write failed")
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "disk full")
}

func TestKindOf(t *testing.T) {
	e := New(UnknownFormat, "no importer")
	k, ok := KindOf(e)
	assert.True(t, ok)
	assert.Equal(t, UnknownFormat, k)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestPostProcessFailCarriesPassName(t *testing.T) {
	e := PostProcessFail("triangulate", "unsupported polygon with %d sides", 0)
	assert.Equal(t, PostProcessFailed, e.Kind)
	assert.Equal(t, "triangulate", e.Pass)
	assert.Contains(t, e.Error(), "pass=triangulate")
}

func TestIsMatchesByKind(t *testing.T) {
	e1 := New(MalformedInput, "a")
	e2 := New(MalformedInput, "b")
	e3 := New(IoError, "c")
	assert.True(t, errors.Is(e1, e2))
	assert.False(t, errors.Is(e1, e3))
}
