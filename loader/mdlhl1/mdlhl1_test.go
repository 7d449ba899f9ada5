package mdlhl1

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/registry"
)

// fixtureBuilder assembles a synthetic .mdl byte buffer by writing fixed-
// size records at caller-chosen absolute offsets, the same way a real
// StudioMDL compiler lays the file out: every section is a flat array
// addressed by an index/count pair in the header.
type fixtureBuilder struct {
	buf []byte
}

func newFixtureBuilder(size int) *fixtureBuilder {
	return &fixtureBuilder{buf: make([]byte, size)}
}

func (b *fixtureBuilder) grow(n int) {
	if n > len(b.buf) {
		b.buf = append(b.buf, make([]byte, n-len(b.buf))...)
	}
}

func (b *fixtureBuilder) putInt32(off int, v int32) {
	b.grow(off + 4)
	binary.LittleEndian.PutUint32(b.buf[off:], uint32(v))
}

func (b *fixtureBuilder) putUint16(off int, v uint16) {
	b.grow(off + 2)
	binary.LittleEndian.PutUint16(b.buf[off:], v)
}

func (b *fixtureBuilder) putInt16(off int, v int16) {
	b.putUint16(off, uint16(v))
}

func (b *fixtureBuilder) putFloat32(off int, v float32) {
	b.grow(off + 4)
	binary.LittleEndian.PutUint32(b.buf[off:], math.Float32bits(v))
}

func (b *fixtureBuilder) putString(off int, s string) {
	b.grow(off + len(s) + 1)
	copy(b.buf[off:], s)
}

func (b *fixtureBuilder) putByte(off int, v byte) {
	b.grow(off + 1)
	b.buf[off] = v
}

func (b *fixtureBuilder) putVec3(off int, x, y, z float32) {
	b.putFloat32(off, x)
	b.putFloat32(off+4, y)
	b.putFloat32(off+8, z)
}

// buildSingleBoneSingleMeshFixture assembles one bone, one bodypart/model
// with a 3-vertex triangle fan mesh, and one 2x1 paletted texture: enough
// to exercise header parsing, skeleton construction, bind-pose baking,
// triangle-fan decoding and texture palette expansion in one file.
func buildSingleBoneSingleMeshFixture() []byte {
	const (
		boneOff    = 244
		bodypartOff = boneOff + boneRecordSize        // 356
		modelOff    = bodypartOff + bodypartRecordSize // 432
		meshOff     = modelOff + modelRecordSize       // 544
		vertInfoOff = meshOff + meshRecordSize         // 564
		normInfoOff = vertInfoOff + 3                  // 567
		vertOff     = normInfoOff + 3                  // 570
		normOff     = vertOff + 3*12                   // 606
		triOff      = normOff + 3*12                   // 642
		texOff      = triOff + 28                      // 670
		texDataOff  = texOff + textureRecordSize       // 750
	)

	b := newFixtureBuilder(texDataOff + 2 + 768)

	b.putInt32(0, int32(Magic))
	b.putInt32(4, Version)
	b.putString(8, "synthetic")

	b.putInt32(140, 1)       // numbones
	b.putInt32(144, boneOff) // boneindex
	b.putInt32(164, 0)       // numseq
	b.putInt32(172, 0)       // numseqgroups
	b.putInt32(180, 1)       // numtextures
	b.putInt32(184, texOff)  // textureindex
	b.putInt32(188, texDataOff)
	b.putInt32(204, 1)          // numbodyparts
	b.putInt32(208, bodypartOff) // bodypartindex

	// Bone 0: root, positioned at (1,2,3), no rotation, unit scale.
	b.putString(boneOff, "root")
	b.putInt32(boneOff+32, -1) // parent
	b.putVec3(boneOff+64, 1, 2, 3)
	b.putVec3(boneOff+76, 0, 0, 0)
	for j := 0; j < 6; j++ {
		b.putFloat32(boneOff+88+j*4, 1)
	}

	// Bodypart 0: one model.
	b.putInt32(bodypartOff+64, 1)       // nummodels
	b.putInt32(bodypartOff+72, modelOff) // modelindex

	// Model 0: one mesh, three vertices/normals, all bound to bone 0.
	b.putInt32(modelOff+72, 1)       // nummesh
	b.putInt32(modelOff+76, meshOff) // meshindex
	b.putInt32(modelOff+80, 3)       // numverts
	b.putInt32(modelOff+84, vertInfoOff)
	b.putInt32(modelOff+88, vertOff)
	b.putInt32(modelOff+92, 3) // numnorms
	b.putInt32(modelOff+96, normInfoOff)
	b.putInt32(modelOff+100, normOff)

	// Mesh 0: one triangle fan of 3 corners.
	b.putInt32(meshOff, 1)        // numtris
	b.putInt32(meshOff+4, triOff) // triindex
	b.putInt32(meshOff+8, 0)      // skinref

	b.putByte(vertInfoOff+0, 0)
	b.putByte(vertInfoOff+1, 0)
	b.putByte(vertInfoOff+2, 0)
	b.putByte(normInfoOff+0, 0)
	b.putByte(normInfoOff+1, 0)
	b.putByte(normInfoOff+2, 0)

	b.putVec3(vertOff+0*12, 0, 0, 0)
	b.putVec3(vertOff+1*12, 1, 0, 0)
	b.putVec3(vertOff+2*12, 0, 1, 0)
	b.putVec3(normOff+0*12, 0, 0, 1)
	b.putVec3(normOff+1*12, 0, 0, 1)
	b.putVec3(normOff+2*12, 0, 0, 1)

	pos := triOff
	b.putInt16(pos, -3) // fan of 3 corners
	pos += 2
	corners := [][4]int16{{0, 0, 0, 0}, {1, 1, 2, 0}, {2, 2, 0, 1}}
	for _, c := range corners {
		b.putInt16(pos, c[0])
		b.putInt16(pos+2, c[1])
		b.putInt16(pos+4, c[2])
		b.putInt16(pos+6, c[3])
		pos += 8
	}
	b.putInt16(pos, 0) // terminator

	b.putString(texOff, "wall")
	b.putInt32(texOff+64, 0) // flags
	b.putInt32(texOff+68, 2) // width
	b.putInt32(texOff+72, 1) // height
	b.putInt32(texOff+76, texDataOff)

	b.putByte(texDataOff+0, 0)
	b.putByte(texDataOff+1, 1)
	paletteOff := texDataOff + 2
	b.putByte(paletteOff+0*3+0, 255)
	b.putByte(paletteOff+1*3+1, 255)

	return b.buf
}

func TestCanReadRecognisesMagic(t *testing.T) {
	data := buildSingleBoneSingleMeshFixture()
	assert.True(t, CanRead(data, false))
	assert.False(t, CanRead([]byte("not an mdl"), false))
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	data := buildSingleBoneSingleMeshFixture()
	data[0] = 'X'
	_, err := Decode(data, "bad.mdl", nil)
	require.Error(t, err)
}

func TestDecodeBuildsSkeletonGeometryAndTexture(t *testing.T) {
	data := buildSingleBoneSingleMeshFixture()
	sc, err := Decode(data, "test.mdl", nil)
	require.NoError(t, err)

	require.Len(t, sc.Root.Children, 1)
	root := sc.Root.Children[0]
	assert.Equal(t, "root", root.Name)

	require.Len(t, sc.Meshes, 1)
	m := sc.Meshes[0]
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, 1, m.FaceCount())
	require.Len(t, m.Bones, 1)
	assert.Equal(t, "root", m.Bones[0].NodeName)
	require.Len(t, m.Bones[0].Weights, 3)

	// The bone's translation (1,2,3) is baked directly into bind-pose
	// vertex 0, which sits at the bone's local origin.
	assert.InDelta(t, 1, m.Position[0].X, 1e-5)
	assert.InDelta(t, 2, m.Position[0].Y, 1e-5)
	assert.InDelta(t, 3, m.Position[0].Z, 1e-5)

	require.Len(t, sc.Materials, 1)
	assert.Equal(t, "wall", sc.Materials[0].Name)
	require.Len(t, sc.Textures, 1)
	tex := sc.Textures[0]
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 1, tex.Height)
	require.Len(t, tex.Data, 8)
	// Pixel 0 uses palette index 0, coloured pure red.
	assert.Equal(t, byte(255), tex.Data[0])
	assert.Equal(t, byte(0), tex.Data[1])
	// Pixel 1 uses palette index 1, coloured pure green.
	assert.Equal(t, byte(0), tex.Data[4])
	assert.Equal(t, byte(255), tex.Data[5])
}

func TestDecodeSkipsMaterialsWhenDisabled(t *testing.T) {
	data := buildSingleBoneSingleMeshFixture()
	props := registry.NewProperties()
	props.SetBool("import.mdl.hl1.read_materials", false)
	sc, err := Decode(data, "test.mdl", props)
	require.NoError(t, err)
	assert.Empty(t, sc.Textures)
	require.Len(t, sc.Meshes, 1)

	// No textures were decoded, so the mesh falls back to a lazily
	// created default material rather than an out-of-range index.
	require.Len(t, sc.Materials, 1)
	assert.Equal(t, "mdlhl1-default", sc.Materials[0].Name)
	assert.Equal(t, 0, sc.Meshes[0].MaterialIndex)
}

func TestOpenReadsThroughFileSystem(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.mdl", buildSingleBoneSingleMeshFixture())
	sc, err := Open(fs, "model.mdl", nil)
	require.NoError(t, err)
	require.Len(t, sc.Meshes, 1)
}

func TestExtractAnimValueReturnsRawSampleWithinRun(t *testing.T) {
	// One run header (valid=2, total=5) followed by two raw int16 samples.
	data := make([]byte, 6)
	data[0], data[1] = 2, 5
	binary.LittleEndian.PutUint16(data[2:], uint16(int16(10)))
	binary.LittleEndian.PutUint16(data[4:], uint16(int16(20)))
	r := newReader(data, "anim")

	v, err := extractAnimValue(r, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(10), v)

	v, err = extractAnimValue(r, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(20), v)

	// Frame 4 is still within the run's total span (5) but past its two
	// valid samples, so the last valid sample (20) holds flat.
	v, err = extractAnimValue(r, 0, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(40), v)
}

func TestExtractAnimValueAdvancesAcrossRuns(t *testing.T) {
	// Run 0: valid=1, total=2, one sample (5). Run 1 starts at slot 2:
	// valid=1, total=3, one sample (7).
	data := make([]byte, 8)
	data[0], data[1] = 1, 2
	binary.LittleEndian.PutUint16(data[2:], uint16(int16(5)))
	data[4], data[5] = 1, 3
	binary.LittleEndian.PutUint16(data[6:], uint16(int16(7)))
	r := newReader(data, "anim")

	v, err := extractAnimValue(r, 0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(7), v)
}
