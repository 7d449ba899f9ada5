// Package scenedump renders a Scene as a human-readable YAML summary, the
// same declarative-text-over-structured-data approach the teacher's
// gui.builder package uses for its widget descriptions, here aimed at
// inspecting an imported Scene instead of building a UI tree.
package scenedump

import (
	"gopkg.in/yaml.v2"

	"github.com/assetforge/sceneforge/scene"
)

// Dump is the serializable summary of a Scene: dense arrays mirror
// Scene's own index-referenced shape so a reader can cross-reference a
// mesh or material index back to its entry.
type Dump struct {
	Root       NodeDump        `yaml:"root"`
	Meshes     []MeshDump      `yaml:"meshes,omitempty"`
	Materials  []MaterialDump  `yaml:"materials,omitempty"`
	Textures   []TextureDump   `yaml:"textures,omitempty"`
	Animations []AnimationDump `yaml:"animations,omitempty"`
	Incomplete bool            `yaml:"incomplete,omitempty"`
}

type NodeDump struct {
	Name     string     `yaml:"name"`
	Meshes   []int      `yaml:"meshes,omitempty"`
	Children []NodeDump `yaml:"children,omitempty"`
}

type MeshDump struct {
	Name          string `yaml:"name"`
	Vertices      int    `yaml:"vertices"`
	Faces         int    `yaml:"faces"`
	MaterialIndex int    `yaml:"material_index"`
	Bones         int    `yaml:"bones,omitempty"`
	UVSets        int    `yaml:"uv_sets,omitempty"`
}

type MaterialDump struct {
	Name string   `yaml:"name"`
	Maps []string `yaml:"maps,omitempty"`
}

type TextureDump struct {
	Path       string `yaml:"path,omitempty"`
	Embedded   bool   `yaml:"embedded"`
	Compressed bool   `yaml:"compressed,omitempty"`
	Width      int    `yaml:"width,omitempty"`
	Height     int    `yaml:"height,omitempty"`
}

type AnimationDump struct {
	Name           string  `yaml:"name"`
	DurationTicks  float64 `yaml:"duration_ticks"`
	TicksPerSecond float64 `yaml:"ticks_per_second"`
	Channels       int     `yaml:"channels"`
}

// Build converts a Scene into its Dump form.
func Build(sc *scene.Scene) Dump {
	d := Dump{Incomplete: sc.Incomplete}
	if sc.Root != nil {
		d.Root = buildNode(sc.Root)
	}
	for _, m := range sc.Meshes {
		uvSets := 0
		for _, s := range m.UVSets {
			if s != nil {
				uvSets++
			}
		}
		d.Meshes = append(d.Meshes, MeshDump{
			Name:          m.Name,
			Vertices:      m.VertexCount(),
			Faces:         m.FaceCount(),
			MaterialIndex: m.MaterialIndex,
			Bones:         len(m.Bones),
			UVSets:        uvSets,
		})
	}
	for _, mat := range sc.Materials {
		md := MaterialDump{Name: mat.Name}
		for _, tm := range mat.Maps {
			md.Maps = append(md.Maps, string(tm.MapType))
		}
		d.Materials = append(d.Materials, md)
	}
	for _, t := range sc.Textures {
		d.Textures = append(d.Textures, TextureDump{
			Path:       t.Path,
			Embedded:   t.IsEmbedded(),
			Compressed: t.IsCompressed(),
			Width:      t.Width,
			Height:     t.Height,
		})
	}
	for _, a := range sc.Animations {
		d.Animations = append(d.Animations, AnimationDump{
			Name:           a.Name,
			DurationTicks:  a.DurationTicks,
			TicksPerSecond: a.TicksPerSecond,
			Channels:       len(a.Channels),
		})
	}
	return d
}

func buildNode(n *scene.Node) NodeDump {
	nd := NodeDump{Name: n.Name, Meshes: n.Meshes}
	for _, c := range n.Children {
		nd.Children = append(nd.Children, buildNode(c))
	}
	return nd
}

// Marshal renders sc as YAML.
func Marshal(sc *scene.Scene) ([]byte, error) {
	return yaml.Marshal(Build(sc))
}
