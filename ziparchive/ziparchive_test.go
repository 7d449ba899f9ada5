package ziparchive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for name, content := range entries {
		require.NoError(t, w.WriteEntry(name, []byte(content)))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRoundTripReadWrite(t *testing.T) {
	data := buildZip(t, map[string]string{
		"3D/3dmodel.model": "<model/>",
		"_rels/.rels":       "<rels/>",
	})
	archive, err := OpenBytes(data)
	require.NoError(t, err)

	assert.True(t, archive.Exists("3D/3dmodel.model"))
	assert.False(t, archive.Exists("missing"))

	content, err := archive.ReadAll("3D/3dmodel.model")
	require.NoError(t, err)
	assert.Equal(t, "<model/>", string(content))

	assert.ElementsMatch(t, []string{"3D/3dmodel.model", "_rels/.rels"}, archive.Names())
}

func TestOpenBytesRejectsGarbage(t *testing.T) {
	_, err := OpenBytes([]byte("not a zip"))
	require.Error(t, err)
}

func TestOpenMissingEntry(t *testing.T) {
	data := buildZip(t, map[string]string{"a": "1"})
	archive, err := OpenBytes(data)
	require.NoError(t, err)
	_, err = archive.Open("b")
	require.Error(t, err)
}
