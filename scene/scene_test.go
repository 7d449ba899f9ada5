package scene

import (
	"testing"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube() *Scene {
	s := New()
	mat := NewMaterial("default")
	s.AddMaterial(mat)

	m := NewMesh("cube")
	for i := 0; i < 8; i++ {
		m.Position = append(m.Position, math32.Vector3{X: float32(i), Y: 0, Z: 0})
	}
	m.AddFace(0, 1, 2)
	m.AddFace(2, 3, 0)
	m.MaterialIndex = 0
	mi := s.AddMesh(m)

	child := NewNode("instance")
	child.Meshes = []int{mi}
	s.Root.AddChild(child)
	return s
}

func TestValidateHappyPath(t *testing.T) {
	s := cube()
	require.NoError(t, s.Validate())
}

func TestValidateCatchesOutOfRangeMeshIndex(t *testing.T) {
	s := cube()
	s.Root.Children[0].Meshes = []int{5}
	err := s.Validate()
	require.Error(t, err)
	k, ok := asserr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, asserr.InvariantViolation, k)
}

func TestValidateCatchesFaceOutOfRange(t *testing.T) {
	s := cube()
	s.Meshes[0].Faces[0].Indices[0] = 99
	require.Error(t, s.Validate())
}

func TestValidateCatchesMismatchedStreamLength(t *testing.T) {
	s := cube()
	s.Meshes[0].Normal = make([]math32.Vector3, 3)
	require.Error(t, s.Validate())
}

func TestValidateCatchesAliasedNode(t *testing.T) {
	s := cube()
	dup := s.Root.Children[0]
	s.Root.AddChild(dup)
	require.Error(t, s.Validate())
}

func TestValidateCatchesUnresolvedBone(t *testing.T) {
	s := cube()
	s.Meshes[0].Bones = []Bone{{NodeName: "ghost"}}
	require.Error(t, s.Validate())
}

func TestValidateCatchesNonMonotonicAnimation(t *testing.T) {
	s := cube()
	anim := NewAnimation("walk", 24)
	anim.AddChannel(Channel{
		NodeName: "instance",
		PositionKeys: []Vector3Key{
			{Time: 1, Value: math32.Vector3{}},
			{Time: 0, Value: math32.Vector3{}},
		},
	})
	s.AddAnimation(anim)
	require.Error(t, s.Validate())
}

func TestValidateCatchesBadCompressedTexture(t *testing.T) {
	s := cube()
	tex := NewEmbeddedTexture([]byte{1, 2, 3, 4}, "dds")
	tex.Height = 0
	tex.Width = 99
	s.AddTexture(tex)
	require.Error(t, s.Validate())
}

func TestCloneIsIndependentAndIndexStable(t *testing.T) {
	s := cube()
	clone := s.Clone()
	require.NoError(t, clone.Validate())

	clone.Meshes[0].Position[0].X = 42
	assert.NotEqual(t, clone.Meshes[0].Position[0].X, s.Meshes[0].Position[0].X)
	assert.Equal(t, s.Root.Children[0].Meshes[0], clone.Root.Children[0].Meshes[0])
}

func TestNodeWalkAndFind(t *testing.T) {
	s := cube()
	count := 0
	s.Root.Walk(func(n *Node) { count++ })
	assert.Equal(t, 2, count)
	assert.NotNil(t, s.Root.FindByName("instance"))
	assert.Nil(t, s.Root.FindByName("missing"))
}
