package scene

import "github.com/assetforge/sceneforge/math32"

// MaxUVSets and MaxColorSets bound the number of parallel UV/color
// channels a mesh may carry, per §3.1.
const (
	MaxUVSets    = 8
	MaxColorSets = 8
)

// PrimitiveKind is a bitmask summarising the face arities present in a mesh.
type PrimitiveKind uint32

const (
	PrimitivePoint   PrimitiveKind = 1 << 0
	PrimitiveLine    PrimitiveKind = 1 << 1
	PrimitiveTriangle PrimitiveKind = 1 << 2
	PrimitivePolygon PrimitiveKind = 1 << 3
)

// KindOfArity maps a face's vertex count to the PrimitiveKind bit it sets.
func KindOfArity(arity int) PrimitiveKind {
	switch {
	case arity == 1:
		return PrimitivePoint
	case arity == 2:
		return PrimitiveLine
	case arity == 3:
		return PrimitiveTriangle
	default:
		return PrimitivePolygon
	}
}

// Face is an ordered list of vertex indices; its length (arity) determines
// the primitive kind per §3.1.
type Face struct {
	Indices []uint32
}

func (f Face) Arity() int { return len(f.Indices) }

// UVSet is one optional UV channel. Components is 2 or 3; when 3 the Z
// component is used (e.g. 3MF's sentinel z == -1 to mark an unset corner).
type UVSet struct {
	Components int
	Data       []math32.Vector3 // only the first Components fields are meaningful
}

// ColorSet is one optional vertex-color channel (always vec4, RGBA).
type ColorSet struct {
	Data []math32.Vector4
}

// VertexWeight binds one mesh vertex to a Bone with a [0,1] weight.
type VertexWeight struct {
	VertexIndex uint32
	Weight      float32
}

// Bone references a Node by name and carries the vertex weights it
// influences along with its inverse-bind transform.
type Bone struct {
	NodeName    string
	InverseBind math32.Matrix4
	Weights     []VertexWeight
}

// Mesh is a named primitive set. Position is always present and has
// length VertexCount(); every other parallel stream, when non-nil, must
// also have length VertexCount() (invariant checked by Scene.Validate).
type Mesh struct {
	Name string

	Position  []math32.Vector3
	Normal    []math32.Vector3 // optional
	Tangent   []math32.Vector3 // optional
	Bitangent []math32.Vector3 // optional
	UVSets    [MaxUVSets]*UVSet
	Colors    [MaxColorSets]*ColorSet

	Faces         []Face
	PrimitiveKinds PrimitiveKind // bitmask summary, kept in sync by AddFace

	MaterialIndex int
	Bones         []Bone
}

// NewMesh creates an empty mesh with the given name.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// VertexCount returns Nv, the length of the position stream.
func (m *Mesh) VertexCount() int { return len(m.Position) }

// FaceCount returns Nf, the number of faces.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// AddFace appends a face built from the given vertex indices and updates
// PrimitiveKinds.
func (m *Mesh) AddFace(indices ...uint32) {
	m.Faces = append(m.Faces, Face{Indices: indices})
	m.PrimitiveKinds |= KindOfArity(len(indices))
}

// EnsureUVSet materialises UV set i with the given component count if it
// does not already exist, filling it with VertexCount() zero-valued
// entries. This mirrors the 3MF Texture2DGroup lowering rule in §4.7:
// UV channel 0 is materialised on first use, with a sentinel marking
// "unset" left to the caller.
func (m *Mesh) EnsureUVSet(i, components int) *UVSet {
	if m.UVSets[i] == nil {
		m.UVSets[i] = &UVSet{
			Components: components,
			Data:       make([]math32.Vector3, m.VertexCount()),
		}
	}
	return m.UVSets[i]
}

// EnsureColorSet materialises color set i if it does not already exist.
func (m *Mesh) EnsureColorSet(i int) *ColorSet {
	if m.Colors[i] == nil {
		m.Colors[i] = &ColorSet{Data: make([]math32.Vector4, m.VertexCount())}
	}
	return m.Colors[i]
}
