package scene

import (
	"fmt"

	"github.com/assetforge/sceneforge/asserr"
)

// Validate checks every invariant of §3.3 and returns the first failing
// one as a structured *asserr.Error of kind InvariantViolation, or nil if
// the scene is consistent. The aliasing check (7) runs first; the rest run
// in the order 1, then 2/5/6/4 for each mesh in turn, then 3, 9 and 8.
func (s *Scene) Validate() error {
	if s.Root == nil {
		return invariant("scene has no root node")
	}

	// 7. No node appears twice in the tree (aliasing). Walk first so later
	// checks can assume the tree is a tree, not a DAG with a cycle.
	seen := make(map[*Node]bool)
	var aliasErr error
	names := make(map[string]*Node)
	var walk func(n *Node)
	walk = func(n *Node) {
		if aliasErr != nil {
			return
		}
		if seen[n] {
			aliasErr = invariant(fmt.Sprintf("node %q appears twice in the tree", n.Name))
			return
		}
		seen[n] = true
		names[n.Name] = n
		for _, c := range n.Children {
			if c.parent != n {
				aliasErr = invariant(fmt.Sprintf("node %q parent pointer disagrees with tree traversal", c.Name))
				return
			}
			walk(c)
		}
	}
	walk(s.Root)
	if aliasErr != nil {
		return aliasErr
	}

	// 1. Every mesh index appearing in any node is in range.
	for n := range seen {
		for _, mi := range n.Meshes {
			if mi < 0 || mi >= len(s.Meshes) {
				return invariant(fmt.Sprintf("node %q references out-of-range mesh index %d", n.Name, mi))
			}
		}
	}

	for mi, m := range s.Meshes {
		// 2. Every material index in any mesh is in range.
		if m.MaterialIndex < 0 || m.MaterialIndex >= len(s.Materials) {
			return invariant(fmt.Sprintf("mesh %d (%q) has out-of-range material index %d", mi, m.Name, m.MaterialIndex))
		}
		// 5. Every parallel vertex stream has length equal to the position stream.
		nv := m.VertexCount()
		if err := checkStreamLen(mi, m, "normal", len(m.Normal), nv); err != nil {
			return err
		}
		if err := checkStreamLen(mi, m, "tangent", len(m.Tangent), nv); err != nil {
			return err
		}
		if err := checkStreamLen(mi, m, "bitangent", len(m.Bitangent), nv); err != nil {
			return err
		}
		for u, set := range m.UVSets {
			if set == nil {
				continue
			}
			if len(set.Data) != nv {
				return invariant(fmt.Sprintf("mesh %d (%q) uv set %d has length %d, want %d", mi, m.Name, u, len(set.Data), nv))
			}
		}
		for c, set := range m.Colors {
			if set == nil {
				continue
			}
			if len(set.Data) != nv {
				return invariant(fmt.Sprintf("mesh %d (%q) color set %d has length %d, want %d", mi, m.Name, c, len(set.Data), nv))
			}
		}
		// 6. Every face's indices are in [0, Nv).
		for fi, f := range m.Faces {
			for _, idx := range f.Indices {
				if int(idx) >= nv {
					return invariant(fmt.Sprintf("mesh %d (%q) face %d has out-of-range vertex index %d (Nv=%d)", mi, m.Name, fi, idx, nv))
				}
			}
		}
		// 4. Every bone's node-name resolves to a node reachable from root.
		for _, b := range m.Bones {
			if _, ok := names[b.NodeName]; !ok {
				return invariant(fmt.Sprintf("mesh %d (%q) bone references unknown node %q", mi, m.Name, b.NodeName))
			}
			for _, w := range b.Weights {
				if int(w.VertexIndex) >= nv {
					return invariant(fmt.Sprintf("mesh %d (%q) bone %q weight references out-of-range vertex %d", mi, m.Name, b.NodeName, w.VertexIndex))
				}
			}
		}
	}

	// 3. Every texture index in any material map is in range.
	for mi, mat := range s.Materials {
		for _, tm := range mat.Maps {
			if tm.TextureIndex < 0 || tm.TextureIndex >= len(s.Textures) {
				return invariant(fmt.Sprintf("material %d (%q) references out-of-range texture index %d", mi, mat.Name, tm.TextureIndex))
			}
		}
	}

	// 9. For embedded textures tagged "compressed", height == 0 and width == byte length.
	for ti, tex := range s.Textures {
		if tex.IsCompressed() {
			if tex.Width != len(tex.Data) {
				return invariant(fmt.Sprintf("texture %d is tagged compressed but width %d != byte length %d", ti, tex.Width, len(tex.Data)))
			}
		}
	}

	// 8. Animation channel times are non-decreasing.
	for ai, anim := range s.Animations {
		for ci, ch := range anim.Channels {
			if !monotonicKeys(ch) {
				return invariant(fmt.Sprintf("animation %d (%q) channel %d (%q) has non-monotonic key times", ai, anim.Name, ci, ch.NodeName))
			}
		}
	}

	return nil
}

func checkStreamLen(meshIndex int, m *Mesh, label string, got, want int) error {
	if got != 0 && got != want {
		return invariant(fmt.Sprintf("mesh %d (%q) %s stream has length %d, want %d", meshIndex, m.Name, label, got, want))
	}
	return nil
}

func monotonicKeys(ch Channel) bool {
	last := -1.0
	first := true
	check := func(t float64) bool {
		if first {
			first = false
			last = t
			return true
		}
		ok := t >= last
		last = t
		return ok
	}
	for _, k := range ch.PositionKeys {
		if !check(k.Time) {
			return false
		}
	}
	first = true
	for _, k := range ch.RotationKeys {
		if !check(k.Time) {
			return false
		}
	}
	first = true
	for _, k := range ch.ScaleKeys {
		if !check(k.Time) {
			return false
		}
	}
	return true
}

func invariant(msg string) error {
	return asserr.New(asserr.InvariantViolation, "%s", msg)
}
