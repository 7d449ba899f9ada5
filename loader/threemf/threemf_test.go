package threemf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/opc"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/ziparchive"
)

func buildPackage(t *testing.T, model string) *opc.Package {
	t.Helper()
	var buf bytes.Buffer
	w := ziparchive.NewWriter(&buf)
	rels := `<?xml version="1.0"?><Relationships xmlns="x"><Relationship Id="rel0" Type="` +
		opc.RootPartRelationshipType + `" Target="/3D/3dmodel.model"/></Relationships>`
	require.NoError(t, w.WriteEntry("_rels/.rels", []byte(rels)))
	require.NoError(t, w.WriteEntry("3D/3dmodel.model", []byte(model)))
	require.NoError(t, w.Close())
	archive, err := ziparchive.OpenBytes(buf.Bytes())
	require.NoError(t, err)
	pkg, err := opc.OpenArchive(archive)
	require.NoError(t, err)
	return pkg
}

func cubeModelXML() string {
	return `<model unit="millimeter"><resources>` +
		`<basematerials id="1"><base name="red" displaycolor="#FF0000FF"/></basematerials>` +
		`<object id="2" type="model"><mesh>` +
		`<vertices>` +
		`<vertex x="0" y="0" z="0"/><vertex x="1" y="0" z="0"/><vertex x="1" y="1" z="0"/><vertex x="0" y="1" z="0"/>` +
		`<vertex x="0" y="0" z="1"/><vertex x="1" y="0" z="1"/><vertex x="1" y="1" z="1"/><vertex x="0" y="1" z="1"/>` +
		`</vertices>` +
		`<triangles>` +
		`<triangle v1="0" v2="1" v3="2" pid="1" p1="0"/><triangle v1="0" v2="2" v3="3" pid="1" p1="0"/>` +
		`<triangle v1="4" v2="6" v3="5" pid="1" p1="0"/><triangle v1="4" v2="7" v3="6" pid="1" p1="0"/>` +
		`<triangle v1="0" v2="4" v3="5" pid="1" p1="0"/><triangle v1="0" v2="5" v3="1" pid="1" p1="0"/>` +
		`<triangle v1="1" v2="5" v3="6" pid="1" p1="0"/><triangle v1="1" v2="6" v3="2" pid="1" p1="0"/>` +
		`<triangle v1="2" v2="6" v3="7" pid="1" p1="0"/><triangle v1="2" v2="7" v3="3" pid="1" p1="0"/>` +
		`<triangle v1="3" v2="7" v3="4" pid="1" p1="0"/><triangle v1="3" v2="4" v3="0" pid="1" p1="0"/>` +
		`</triangles>` +
		`</mesh></object>` +
		`</resources><build><item objectid="2"/></build></model>`
}

func TestDecodeBoxProducesOneMeshEightVerticesTwelveFaces(t *testing.T) {
	pkg := buildPackage(t, cubeModelXML())
	sc, err := Decode(pkg)
	require.NoError(t, err)
	require.Len(t, sc.Meshes, 1)
	mesh := sc.Meshes[0]
	assert.Equal(t, 8, mesh.VertexCount())
	assert.Equal(t, 12, mesh.FaceCount())
	for _, f := range mesh.Faces {
		assert.Equal(t, 3, f.Arity())
	}
	require.GreaterOrEqual(t, len(sc.Materials), 1)
}

func TestDecodeMalformedColorLeavesPropertyUnset(t *testing.T) {
	model := `<model unit="millimeter"><resources>` +
		`<basematerials id="1"><base name="bad" displaycolor="not-a-color"/></basematerials>` +
		`<object id="2" type="model"><mesh><vertices><vertex x="0" y="0" z="0"/></vertices></mesh></object>` +
		`</resources><build/></model>`
	pkg := buildPackage(t, model)
	sc, err := Decode(pkg)
	require.NoError(t, err)
	require.Len(t, sc.Materials, 1)
	_, hasDiffuse := sc.Materials[0].Properties["diffuse"]
	assert.False(t, hasDiffuse, "a malformed colour string must be silently ignored, not set")
}

func cube() *scene.Scene {
	sc := scene.New()
	mat := scene.NewMaterial("red")
	mat.SetProperty("diffuse", scene.Color4Property(math32.Vector4{X: 1, Y: 0, Z: 0, W: 1}))
	matIdx := sc.AddMaterial(mat)

	m := scene.NewMesh("cube")
	m.MaterialIndex = matIdx
	m.Position = []math32.Vector3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	faces := [][3]uint32{
		{0, 1, 2}, {0, 2, 3}, {4, 6, 5}, {4, 7, 6},
		{0, 4, 5}, {0, 5, 1}, {1, 5, 6}, {1, 6, 2},
		{2, 6, 7}, {2, 7, 3}, {3, 7, 4}, {3, 4, 0},
	}
	for _, f := range faces {
		m.AddFace(f[0], f[1], f[2])
	}
	meshIdx := sc.AddMesh(m)

	node := scene.NewNode("cube_instance")
	node.Meshes = append(node.Meshes, meshIdx)
	sc.Root.AddChild(node)
	return sc
}

func TestExportThenDecodeRoundTripsVertexPositions(t *testing.T) {
	sc := cube()
	require.NoError(t, sc.Validate())

	var buf bytes.Buffer
	require.NoError(t, Export(sc, &buf))

	archive, err := ziparchive.OpenBytes(buf.Bytes())
	require.NoError(t, err)
	pkg, err := opc.OpenArchive(archive)
	require.NoError(t, err)

	reimported, err := Decode(pkg)
	require.NoError(t, err)
	require.Len(t, reimported.Meshes, 1)
	assert.Equal(t, 8, reimported.Meshes[0].VertexCount())
	assert.Equal(t, 12, reimported.Meshes[0].FaceCount())
	assert.Equal(t, sc.Meshes[0].Position, reimported.Meshes[0].Position)
}

func TestExportMultipleCubesRoundTripsMeshCount(t *testing.T) {
	sc := scene.New()
	for i := 0; i < 3; i++ {
		one := cube()
		for _, m := range one.Meshes {
			idx := sc.AddMesh(m)
			node := scene.NewNode("instance")
			node.Meshes = append(node.Meshes, idx)
			sc.Root.AddChild(node)
		}
		for _, mat := range one.Materials {
			sc.AddMaterial(mat)
		}
	}
	require.NoError(t, sc.Validate())

	var buf bytes.Buffer
	require.NoError(t, Export(sc, &buf))
	archive, err := ziparchive.OpenBytes(buf.Bytes())
	require.NoError(t, err)
	pkg, err := opc.OpenArchive(archive)
	require.NoError(t, err)
	reimported, err := Decode(pkg)
	require.NoError(t, err)
	require.Len(t, reimported.Meshes, 3)
	for _, m := range reimported.Meshes {
		assert.Equal(t, 8, m.VertexCount())
		assert.Equal(t, 12, m.FaceCount())
	}
}
