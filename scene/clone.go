package scene

import "github.com/assetforge/sceneforge/math32"

// Clone returns a deep copy of the scene. Every dense-array index in the
// clone refers to the same position as in the original (meshes,
// materials, textures and animations are copied element-for-element, in
// order), and the node tree is rebuilt with fresh parent back-references.
func (s *Scene) Clone() *Scene {
	clone := &Scene{
		Incomplete: s.Incomplete,
		Metadata:   cloneMetadata(s.Metadata),
	}
	for _, m := range s.Meshes {
		clone.Meshes = append(clone.Meshes, cloneMesh(m))
	}
	for _, m := range s.Materials {
		clone.Materials = append(clone.Materials, cloneMaterial(m))
	}
	for _, t := range s.Textures {
		clone.Textures = append(clone.Textures, cloneTexture(t))
	}
	for _, a := range s.Animations {
		clone.Animations = append(clone.Animations, cloneAnimation(a))
	}
	if s.Root != nil {
		clone.Root = cloneNode(s.Root, nil)
	}
	return clone
}

func cloneNode(n *Node, parent *Node) *Node {
	c := &Node{
		Name:   n.Name,
		Matrix: n.Matrix,
		Meshes: append([]int(nil), n.Meshes...),
		parent: parent,
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, cloneNode(child, c))
	}
	return c
}

func cloneMesh(m *Mesh) *Mesh {
	c := &Mesh{
		Name:          m.Name,
		Position:      append([]math32.Vector3(nil), m.Position...),
		Normal:        append([]math32.Vector3(nil), m.Normal...),
		Tangent:       append([]math32.Vector3(nil), m.Tangent...),
		Bitangent:     append([]math32.Vector3(nil), m.Bitangent...),
		Faces:         append([]Face(nil), cloneFaces(m.Faces)...),
		PrimitiveKinds: m.PrimitiveKinds,
		MaterialIndex: m.MaterialIndex,
		Bones:         cloneBones(m.Bones),
	}
	for i, set := range m.UVSets {
		if set == nil {
			continue
		}
		c.UVSets[i] = &UVSet{Components: set.Components, Data: append([]math32.Vector3(nil), set.Data...)}
	}
	for i, set := range m.Colors {
		if set == nil {
			continue
		}
		c.Colors[i] = &ColorSet{Data: append([]math32.Vector4(nil), set.Data...)}
	}
	return c
}

func cloneFaces(faces []Face) []Face {
	out := make([]Face, len(faces))
	for i, f := range faces {
		out[i] = Face{Indices: append([]uint32(nil), f.Indices...)}
	}
	return out
}

func cloneBones(bones []Bone) []Bone {
	out := make([]Bone, len(bones))
	for i, b := range bones {
		out[i] = Bone{
			NodeName:    b.NodeName,
			InverseBind: b.InverseBind,
			Weights:     append([]VertexWeight(nil), b.Weights...),
		}
	}
	return out
}

func cloneMaterial(m *Material) *Material {
	c := &Material{Name: m.Name, Properties: make(map[string]MaterialProperty, len(m.Properties))}
	for k, v := range m.Properties {
		c.Properties[k] = v
	}
	c.Maps = append([]TextureMap(nil), m.Maps...)
	return c
}

func cloneTexture(t *Texture) *Texture {
	c := *t
	c.Data = append([]byte(nil), t.Data...)
	return &c
}

func cloneAnimation(a *Animation) *Animation {
	c := &Animation{Name: a.Name, DurationTicks: a.DurationTicks, TicksPerSecond: a.TicksPerSecond}
	for _, ch := range a.Channels {
		c.Channels = append(c.Channels, Channel{
			NodeName:     ch.NodeName,
			PositionKeys: append([]Vector3Key(nil), ch.PositionKeys...),
			RotationKeys: append([]QuatKey(nil), ch.RotationKeys...),
			ScaleKeys:    append([]Vector3Key(nil), ch.ScaleKeys...),
			PreState:     ch.PreState,
			PostState:    ch.PostState,
		})
	}
	return c
}

func cloneMetadata(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		if v.Kind == MetaMap {
			v.Map = cloneMetadata(v.Map)
		}
		out[k] = v
	}
	return out
}
