package opc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/sceneforge/ziparchive"
)

func buildPackage(t *testing.T, rootTarget string, extra map[string]string) *ziparchive.Archive {
	t.Helper()
	var buf bytes.Buffer
	w := ziparchive.NewWriter(&buf)
	rels := `<?xml version="1.0"?><Relationships xmlns="x"><Relationship Id="rel0" Type="` +
		RootPartRelationshipType + `" Target="` + rootTarget + `"/></Relationships>`
	require.NoError(t, w.WriteEntry("_rels/.rels", []byte(rels)))
	require.NoError(t, w.WriteEntry("3D/3dmodel.model", []byte("<model/>")))
	for name, content := range extra {
		require.NoError(t, w.WriteEntry(name, []byte(content)))
	}
	require.NoError(t, w.Close())
	archive, err := ziparchive.OpenBytes(buf.Bytes())
	require.NoError(t, err)
	return archive
}

func TestOpenResolvesRootPart(t *testing.T) {
	archive := buildPackage(t, "/3D/3dmodel.model", nil)
	pkg, err := OpenArchive(archive)
	require.NoError(t, err)
	assert.Equal(t, "3D/3dmodel.model", pkg.RootPartPath)
	assert.True(t, pkg.Validate())

	data, err := pkg.RootStream()
	require.NoError(t, err)
	assert.Equal(t, "<model/>", string(data))
}

func TestOpenStripsUpToTwoLeadingSlashes(t *testing.T) {
	archive := buildPackage(t, "//3D/3dmodel.model", nil)
	pkg, err := OpenArchive(archive)
	require.NoError(t, err)
	assert.Equal(t, "3D/3dmodel.model", pkg.RootPartPath)
}

func TestOpenFailsWhenRootPartMissing(t *testing.T) {
	archive := buildPackage(t, "/3D/does-not-exist.model", nil)
	_, err := OpenArchive(archive)
	require.Error(t, err)
}

func TestThumbnailsCollectedAsAuxTextures(t *testing.T) {
	archive := buildPackage(t, "/3D/3dmodel.model", map[string]string{
		"Metadata/thumbnail.png": "pngbytes",
		"Metadata/unrelated.txt": "ignored",
	})
	pkg, err := OpenArchive(archive)
	require.NoError(t, err)
	require.Len(t, pkg.AuxTextures, 1)
	assert.Equal(t, "png", pkg.AuxTextures[0].FormatHint)
	assert.Equal(t, "pngbytes", string(pkg.AuxTextures[0].Data))
}
