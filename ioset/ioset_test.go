package ioset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFSRoundTrip(t *testing.T) {
	fs := NewMemFS()
	fs.Put("model.amf", []byte("<amf/>"))

	assert.True(t, fs.Exists("model.amf"))
	assert.False(t, fs.Exists("missing.amf"))

	s, err := fs.Open("model.amf", ReadBinary)
	require.NoError(t, err)
	data, err := ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "<amf/>", string(data))
}

func TestMemFSWrite(t *testing.T) {
	fs := NewMemFS()
	w, err := fs.Open("out.3mf", WriteBinary)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := fs.Open("out.3mf", ReadBinary)
	require.NoError(t, err)
	data, err := ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestExtAndDir(t *testing.T) {
	assert.Equal(t, "3mf", Ext("/a/b/Box.3MF"))
	assert.Equal(t, "", Ext("noext"))
	assert.Equal(t, "/a/b", Dir("/a/b/Box.3mf"))
}
