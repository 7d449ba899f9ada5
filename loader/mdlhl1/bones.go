package mdlhl1

import (
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
)

const boneRecordSize = 112

// bone holds one parsed Bone_HL1 record plus the scene state derived from
// it: its own Node (for Scene.Root attachment and skeletal channels) and
// its accumulated model-space transform (for baking bind-pose vertices).
type bone struct {
	name     string
	parent   int
	value    [6]float32 // position.xyz, rotation.xyz (radians)
	scale    [6]float32

	node     *scene.Node
	absolute math32.Matrix4
}

func parseBones(r *reader, h *header) ([]bone, error) {
	bones := make([]bone, h.numbones)
	for i := range bones {
		off := h.boneindex + i*boneRecordSize
		name, err := r.stringAt(off, 32)
		if err != nil {
			return nil, err
		}
		parent, err := r.int32At(off + 32)
		if err != nil {
			return nil, err
		}
		b := bone{name: name, parent: int(parent)}
		for j := 0; j < 6; j++ {
			v, err := r.float32At(off + 40 + 24 + j*4)
			if err != nil {
				return nil, err
			}
			b.value[j] = v
		}
		for j := 0; j < 6; j++ {
			v, err := r.float32At(off + 40 + 48 + j*4)
			if err != nil {
				return nil, err
			}
			b.scale[j] = v
		}
		bones[i] = b
	}
	return bones, nil
}

// localMatrix returns this bone's transform relative to its parent, built
// from its default position/rotation values the same way the HL1 engine's
// bind pose is assembled before any sequence blending is applied.
func (b *bone) localMatrix() math32.Matrix4 {
	var m math32.Matrix4
	m.MakeTranslation(b.value[0], b.value[1], b.value[2])
	var rot math32.Matrix4
	rot.MakeRotationFromEuler(&math32.Vector3{X: b.value[3], Y: b.value[4], Z: b.value[5]})
	m.Multiply(&rot)
	return m
}

// buildSkeleton creates one scene.Node per bone, attaches each to its
// parent bone's node (or to root when parent == -1), and computes every
// bone's accumulated model-space transform for baking bind-pose geometry.
func buildSkeleton(bones []bone, root *scene.Node) {
	for i := range bones {
		bones[i].node = scene.NewNode(bones[i].name)
		bones[i].node.Matrix = bones[i].localMatrix()
	}
	for i := range bones {
		if bones[i].parent < 0 {
			bones[i].absolute = bones[i].node.Matrix
			root.AddChild(bones[i].node)
			continue
		}
	}
	// A bone's absolute transform depends on its parent's, so bones must
	// be resolved in an order where every parent precedes its children.
	// MDL bone arrays are always written in that order (parent index is
	// always smaller than the bone's own index).
	for i := range bones {
		if bones[i].parent < 0 {
			continue
		}
		parent := &bones[bones[i].parent]
		parent.node.AddChild(bones[i].node)
		bones[i].absolute.MultiplyMatrices(&parent.absolute, &bones[i].node.Matrix)
	}
}
