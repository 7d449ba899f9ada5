package amf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/math32"
)

func TestParseMinimalProducesOneMeshOneVertex(t *testing.T) {
	doc := `<amf unit="millimeter"><object id="1"><mesh><vertices><vertex><coordinates><x>0</x><y>0</y><z>0</z></coordinates></vertex></vertices></mesh></object></amf>`
	sc, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, sc.Meshes, 1)
	require.Equal(t, 1, sc.Meshes[0].VertexCount())
	assert.Equal(t, math32.Vector3{X: 0, Y: 0, Z: 0}, sc.Meshes[0].Position[0])
}

func TestParseMinimalWithVolumeProducesOneMesh(t *testing.T) {
	doc := `<amf unit="millimeter"><object id="1"><mesh>` +
		`<vertices><vertex><coordinates><x>0</x><y>0</y><z>0</z></coordinates></vertex></vertices>` +
		`<volume><triangle><v1>0</v1><v2>0</v2><v3>0</v3></triangle></volume>` +
		`</mesh></object></amf>`
	sc, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, sc.Meshes, 1)
	assert.Equal(t, 1, sc.Meshes[0].VertexCount())
	assert.Equal(t, math32.Vector3{X: 0, Y: 0, Z: 0}, sc.Meshes[0].Position[0])
}

func TestParseBadUnitFails(t *testing.T) {
	doc := `<amf unit="parsec"><object id="1"/></amf>`
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
	k, ok := asserr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, asserr.MalformedInput, k)
}

func TestParseMissingUnitFails(t *testing.T) {
	doc := `<amf><object id="1"/></amf>`
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
}

func TestInstanceRotationGoesToRotationNotTranslation(t *testing.T) {
	doc := `<amf unit="millimeter">` +
		`<object id="1"><mesh>` +
		`<vertices><vertex><coordinates><x>0</x><y>0</y><z>0</z></coordinates></vertex></vertices>` +
		`<volume><triangle><v1>0</v1><v2>0</v2><v3>0</v3></triangle></volume>` +
		`</mesh></object>` +
		`<constellation id="2"><instance objectid="1"><rx>90</rx></instance></constellation>` +
		`</amf>`
	sc, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	constellation := sc.Root.FindByName("constellation_2")
	require.NotNil(t, constellation)
	require.Len(t, constellation.Children, 1)
	inst := constellation.Children[0]

	var pos, scale math32.Vector3
	var rot math32.Quaternion
	inst.Matrix.Decompose(&pos, &rot, &scale)

	assert.InDelta(t, 0, pos.X, 1e-5, "a pure rx rotation must not leak into translation")
	assert.InDelta(t, 0, pos.Y, 1e-5)
	assert.InDelta(t, 0, pos.Z, 1e-5)
	assert.False(t, rot.X == 0 && rot.Y == 0 && rot.Z == 0, "a 90 degree rx rotation must produce a non-identity quaternion")
}

func TestBase64RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 17, 255, 4096} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte((i*37 + 11) % 256)
		}
		encoded := base64Encode(data)
		decoded, err := decodeBase64(encoded)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	}
}

func TestBase64DecodeIgnoresNonAlphabetBytes(t *testing.T) {
	encoded := base64Encode([]byte("hello amf"))
	withNoise := "  " + encoded[:4] + "\n\t" + encoded[4:] + "  "
	decoded, err := decodeBase64(withNoise)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello amf"), decoded)
}

func TestBase64DecodeRejectsBadPaddingLength(t *testing.T) {
	_, err := decodeBase64("abcde")
	require.Error(t, err)
	k, ok := asserr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, asserr.MalformedInput, k)
}
