package mdlhl1

import (
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
)

const (
	bodypartRecordSize = 76
	modelRecordSize    = 112
	meshRecordSize     = 20
	trivertSize        = 8 // vertindex, normindex, s, t: four int16
)

// bindPoseModel holds one Model_HL1's vertices/normals already transformed
// into model space by their owning bone's absolute transform, and the
// per-element bone index each one came from (for mesh skin weights).
type bindPoseModel struct {
	vertices     []math32.Vector3
	vertexBone   []int
	normals      []math32.Vector3
	normalBone   []int
}

func loadBindPoseModel(r *reader, off int, bones []bone) (*bindPoseModel, error) {
	numverts, err := r.int32At(off + 80)
	if err != nil {
		return nil, err
	}
	vertinfoindex, err := r.int32At(off + 84)
	if err != nil {
		return nil, err
	}
	vertindex, err := r.int32At(off + 88)
	if err != nil {
		return nil, err
	}
	numnorms, err := r.int32At(off + 92)
	if err != nil {
		return nil, err
	}
	norminfoindex, err := r.int32At(off + 96)
	if err != nil {
		return nil, err
	}
	normindex, err := r.int32At(off + 100)
	if err != nil {
		return nil, err
	}

	m := &bindPoseModel{
		vertices:   make([]math32.Vector3, numverts),
		vertexBone: make([]int, numverts),
		normals:    make([]math32.Vector3, numnorms),
		normalBone: make([]int, numnorms),
	}
	for i := 0; i < int(numverts); i++ {
		boneIdx, err := r.byteAt(int(vertinfoindex) + i)
		if err != nil {
			return nil, err
		}
		v, err := readVec3(r, int(vertindex)+i*12)
		if err != nil {
			return nil, err
		}
		m.vertexBone[i] = int(boneIdx)
		if int(boneIdx) < len(bones) {
			v.ApplyMatrix4(&bones[boneIdx].absolute)
		}
		m.vertices[i] = v
	}
	for i := 0; i < int(numnorms); i++ {
		boneIdx, err := r.byteAt(int(norminfoindex) + i)
		if err != nil {
			return nil, err
		}
		v, err := readVec3(r, int(normindex)+i*12)
		if err != nil {
			return nil, err
		}
		m.normalBone[i] = int(boneIdx)
		if int(boneIdx) < len(bones) {
			rot := bones[boneIdx].absolute
			rot.SetPosition(&math32.Vector3{})
			v.ApplyMatrix4(&rot)
		}
		m.normals[i] = v
	}
	return m, nil
}

func readVec3(r *reader, off int) (math32.Vector3, error) {
	x, err := r.float32At(off)
	if err != nil {
		return math32.Vector3{}, err
	}
	y, err := r.float32At(off + 4)
	if err != nil {
		return math32.Vector3{}, err
	}
	z, err := r.float32At(off + 8)
	if err != nil {
		return math32.Vector3{}, err
	}
	return math32.Vector3{X: x, Y: y, Z: z}, nil
}

// meshCorner is one fully-expanded triangle-command vertex: no index
// sharing, following the same convention AMF/3MF/COLLADA/FBX already use
// in this module instead of the original loader's similar-trivert dedup.
type meshCorner struct {
	vertindex, normindex int
	s, t                 int16
}

// lowerMesh decodes one Mesh_HL1's triangle-command stream into a
// scene.Mesh. Each command run is a triangle strip (positive count) or
// fan (negative count, stored as its negation) of Trivert corners;
// winding is preserved the way odd-indexed strip faces swap their first
// two corners.
func lowerMesh(r *reader, meshOff int, bindPose *bindPoseModel, bones []bone, texWidth, texHeight int, materialIndex int) (*scene.Mesh, error) {
	numtris, err := r.int32At(meshOff)
	if err != nil {
		return nil, err
	}
	triindex, err := r.int32At(meshOff + 4)
	if err != nil {
		return nil, err
	}
	if numtris == 0 {
		return nil, nil
	}

	m := scene.NewMesh("")
	m.MaterialIndex = materialIndex
	uv := &scene.UVSet{Components: 2}
	boneWeights := make(map[int][]scene.VertexWeight)

	sScale := float32(1)
	tScale := float32(1)
	if texWidth > 0 {
		sScale = 1 / float32(texWidth)
	}
	if texHeight > 0 {
		tScale = 1 / float32(texHeight)
	}

	pos := int(triindex)
	for {
		l, err := r.int16At(pos)
		if err != nil {
			return nil, err
		}
		pos += 2
		if l == 0 {
			break
		}
		isFan := false
		count := int(l)
		if count < 0 {
			count = -count
			isFan = true
		}

		corners := make([]meshCorner, count)
		for i := 0; i < count; i++ {
			vertindex, err := r.int16At(pos)
			if err != nil {
				return nil, err
			}
			normindex, err := r.int16At(pos + 2)
			if err != nil {
				return nil, err
			}
			s, err := r.int16At(pos + 4)
			if err != nil {
				return nil, err
			}
			t, err := r.int16At(pos + 6)
			if err != nil {
				return nil, err
			}
			corners[i] = meshCorner{vertindex: int(vertindex), normindex: int(normindex), s: s, t: t}
			pos += trivertSize
		}

		base := len(m.Position)
		for _, c := range corners {
			m.Position = append(m.Position, bindPose.vertices[c.vertindex])
			m.Normal = append(m.Normal, bindPose.normals[c.normindex])
			uv.Data = append(uv.Data, math32.Vector3{X: float32(c.s) * sScale, Y: float32(c.t) * tScale})
			bone := bindPose.vertexBone[c.vertindex]
			boneWeights[bone] = append(boneWeights[bone], scene.VertexWeight{VertexIndex: uint32(len(m.Position) - 1), Weight: 1})
		}

		numFaces := count - 2
		for f := 0; f < numFaces; f++ {
			if isFan {
				m.AddFace(uint32(base), uint32(base+f+1), uint32(base+f+2))
			} else if f%2 == 1 {
				m.AddFace(uint32(base+f+1), uint32(base+f), uint32(base+f+2))
			} else {
				m.AddFace(uint32(base+f), uint32(base+f+1), uint32(base+f+2))
			}
		}
	}

	m.UVSets[0] = uv
	for boneIdx, weights := range boneWeights {
		if boneIdx < 0 || boneIdx >= len(bones) {
			continue
		}
		var inv math32.Matrix4
		inv.GetInverse(&bones[boneIdx].absolute)
		m.Bones = append(m.Bones, scene.Bone{NodeName: bones[boneIdx].name, InverseBind: inv, Weights: weights})
	}
	return m, nil
}

func parseBodyparts(r *reader, h *header) ([]int, error) {
	offsets := make([]int, h.numbodyparts)
	for i := range offsets {
		offsets[i] = h.bodypartindex + i*bodypartRecordSize
	}
	return offsets, nil
}
