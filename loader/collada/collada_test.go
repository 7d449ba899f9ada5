package collada

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
)

func triangleDoc(materialSymbol string) string {
	return `<?xml version="1.0"?><COLLADA version="1.4.1">` +
		`<asset><up_axis>Z_UP</up_axis></asset>` +
		`<library_images><image id="diffuse_img"><init_from>tex.png</init_from></image></library_images>` +
		`<library_effects><effect id="effect0"><profile_COMMON>` +
		`<newparam sid="surface0"><surface><init_from>diffuse_img</init_from></surface></newparam>` +
		`<newparam sid="sampler0"><sampler2D><source>surface0</source></sampler2D></newparam>` +
		`<technique sid="common"><lambert><diffuse><color>1 0 0 1</color><texture texture="sampler0"/></diffuse></lambert></technique>` +
		`</profile_COMMON></effect></library_effects>` +
		`<library_materials><material id="red_material"><instance_effect url="#effect0"/></material></library_materials>` +
		`<library_geometries><geometry id="tri_geom" name="triangle"><mesh>` +
		`<source id="tri_geom-positions"><float_array id="tri_geom-positions-array" count="9">0 0 0 1 0 0 0 1 0</float_array>` +
		`<technique_common><accessor source="#tri_geom-positions-array" count="3" stride="3"/></technique_common></source>` +
		`<vertices id="tri_geom-vertices"><input semantic="POSITION" source="#tri_geom-positions"/></vertices>` +
		`<triangles count="1" material="` + materialSymbol + `"><input semantic="VERTEX" source="#tri_geom-vertices" offset="0"/><p>0 1 2</p></triangles>` +
		`</mesh></geometry></library_geometries>` +
		`<library_visual_scenes><visual_scene id="scene0">` +
		`<node name="triangle_instance"><translate>1 2 3</translate>` +
		`<instance_geometry url="#tri_geom"><bind_material><technique_common>` +
		`<instance_material symbol="` + materialSymbol + `" target="#red_material"/>` +
		`</technique_common></bind_material></instance_geometry>` +
		`</node></visual_scene></library_visual_scenes>` +
		`<scene><instance_visual_scene url="#scene0"/></scene>` +
		`</COLLADA>`
}

func TestDecodeTriangleProducesOneMeshWithMaterial(t *testing.T) {
	sc, err := Decode(strings.NewReader(triangleDoc("red_symbol")))
	require.NoError(t, err)
	require.Len(t, sc.Meshes, 1)
	mesh := sc.Meshes[0]
	assert.Equal(t, 3, mesh.VertexCount())
	assert.Equal(t, 1, mesh.FaceCount())
	assert.Equal(t, 3, mesh.Faces[0].Arity())
	assert.Equal(t, math32.Vector3{X: 1, Y: 0, Z: 0}, mesh.Position[1])

	require.Len(t, sc.Materials, 1)
	mat := sc.Materials[mesh.MaterialIndex]
	assert.Equal(t, "red_material", mat.Name)
	prop, ok := mat.Properties["diffuse"]
	require.True(t, ok)
	assert.InDelta(t, 1, prop.Color4.X, 1e-6)
	require.Len(t, mat.Maps, 1)
	assert.Equal(t, scene.MapDiffuse, mat.Maps[0].MapType)
}

func TestDecodeNodeTransformIsTranslation(t *testing.T) {
	sc, err := Decode(strings.NewReader(triangleDoc("red_symbol")))
	require.NoError(t, err)
	node := sc.Root.FindByName("triangle_instance")
	require.NotNil(t, node)
	assert.InDelta(t, 1, node.Matrix[12], 1e-6)
	assert.InDelta(t, 2, node.Matrix[13], 1e-6)
	assert.InDelta(t, 3, node.Matrix[14], 1e-6)
	require.Len(t, node.Meshes, 1)
}

func TestDecodeRejectsNonColladaRoot(t *testing.T) {
	_, err := Decode(strings.NewReader(`<notcollada/>`))
	require.Error(t, err)
}

func cubeScene() *scene.Scene {
	sc := scene.New()
	mat := scene.NewMaterial("blue")
	mat.SetProperty("diffuse", scene.Color4Property(math32.Vector4{X: 0, Y: 0, Z: 1, W: 1}))
	matIdx := sc.AddMaterial(mat)

	m := scene.NewMesh("quad")
	m.MaterialIndex = matIdx
	m.Position = []math32.Vector3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	}
	m.AddFace(0, 1, 2)
	m.AddFace(0, 2, 3)
	meshIdx := sc.AddMesh(m)

	node := scene.NewNode("quad_instance")
	node.Meshes = append(node.Meshes, meshIdx)
	node.Matrix.MakeTranslation(5, 0, 0)
	sc.Root.AddChild(node)
	return sc
}

func TestExportThenDecodeRoundTripsMeshAndMaterial(t *testing.T) {
	sc := cubeScene()
	require.NoError(t, sc.Validate())

	var buf bytes.Buffer
	require.NoError(t, Export(sc, &buf))

	reimported, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, reimported.Meshes, 1)
	// The importer expands one vertex per triangle corner: faces (0,1,2)
	// and (0,2,3) come back as six vertices.
	assert.Equal(t, 6, reimported.Meshes[0].VertexCount())
	assert.Equal(t, 2, reimported.Meshes[0].FaceCount())
	assert.Equal(t, []math32.Vector3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	}, reimported.Meshes[0].Position)

	node := reimported.Root.FindByName("quad_instance")
	require.NotNil(t, node)
	assert.InDelta(t, 5, node.Matrix[12], 1e-5)

	require.Len(t, reimported.Materials, 1)
	reimportedMat := reimported.Materials[reimported.Meshes[0].MaterialIndex]
	prop, ok := reimportedMat.Properties["diffuse"]
	require.True(t, ok)
	assert.InDelta(t, 1, prop.Color4.Z, 1e-5)
}
