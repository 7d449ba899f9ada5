package collada

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/scene"
)

// Export writes sc as a single COLLADA 1.4 document: one <geometry> per
// scene mesh (the mesh's own position list plus indexed faces, so shared
// vertices stay shared in the file; the importer expands them back to
// one vertex per triangle corner on read), one
// <effect>/<material> pair per scene material carrying its diffuse
// colour, and the node tree mirrored into <library_visual_scenes>. This
// is grounded on the retrieved ColladaExporter's "one pass per library"
// shape rather than the teacher (which only ever reads COLLADA).
func Export(sc *scene.Scene, w io.Writer) error {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">`)
	b.WriteString(`<asset><up_axis>Y_UP</up_axis></asset>`)

	writeLibraryEffectsAndMaterials(&b, sc)
	writeLibraryGeometries(&b, sc)

	// COLLADA has no notion of an invisible scene root, so sc.Root itself
	// is never written out; its children become top-level <node> elements.
	b.WriteString(`<library_visual_scenes><visual_scene id="scene">`)
	for _, n := range sc.Root.Children {
		writeNode(&b, n, sc.Meshes)
	}
	b.WriteString(`</visual_scene></library_visual_scenes>`)
	b.WriteString(`<scene><instance_visual_scene url="#scene"/></scene>`)
	b.WriteString(`</COLLADA>`)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLibraryEffectsAndMaterials(b *strings.Builder, sc *scene.Scene) {
	if len(sc.Materials) == 0 {
		return
	}
	b.WriteString(`<library_effects>`)
	for i, mat := range sc.Materials {
		color := "0.8 0.8 0.8 1"
		if p, ok := mat.Properties["diffuse"]; ok && p.Kind == scene.PropColor4 {
			color = fmt.Sprintf("%s %s %s %s", f(p.Color4.X), f(p.Color4.Y), f(p.Color4.Z), f(p.Color4.W))
		}
		fmt.Fprintf(b, `<effect id="effect%d"><profile_COMMON><technique sid="common"><lambert>`+
			`<diffuse><color>%s</color></diffuse></lambert></technique></profile_COMMON></effect>`, i, color)
	}
	b.WriteString(`</library_effects><library_materials>`)
	for i, mat := range sc.Materials {
		fmt.Fprintf(b, `<material id="material%d" name="%s"><instance_effect url="#effect%d"/></material>`,
			i, escapeAttr(mat.Name), i)
	}
	b.WriteString(`</library_materials>`)
}

func writeLibraryGeometries(b *strings.Builder, sc *scene.Scene) {
	b.WriteString(`<library_geometries>`)
	for i, m := range sc.Meshes {
		writeGeometry(b, i, m)
	}
	b.WriteString(`</library_geometries>`)
}

// materialSymbol names the <triangles material="..."> symbol this writer
// binds to scene material mi, paired with the matching <instance_material
// symbol="..." target="#materialN"/> every referencing node emits.
func materialSymbol(mi int) string { return fmt.Sprintf("materialsymbol%d", mi) }

func writeGeometry(b *strings.Builder, i int, m *scene.Mesh) {
	gid := fmt.Sprintf("geom%d", i)
	fmt.Fprintf(b, `<geometry id="%s" name="%s"><mesh>`, gid, escapeAttr(m.Name))

	fmt.Fprintf(b, `<source id="%s-positions"><float_array id="%s-positions-array" count="%d">`, gid, gid, len(m.Position)*3)
	for _, p := range m.Position {
		fmt.Fprintf(b, "%s %s %s ", f(p.X), f(p.Y), f(p.Z))
	}
	b.WriteString(`</float_array><technique_common><accessor source="#` + gid + `-positions-array" count="` +
		strconv.Itoa(len(m.Position)) + `" stride="3"><param name="X" type="float"/><param name="Y" type="float"/><param name="Z" type="float"/></accessor></technique_common></source>`)

	fmt.Fprintf(b, `<vertices id="%s-vertices"><input semantic="POSITION" source="#%s-positions"/></vertices>`, gid, gid)

	fmt.Fprintf(b, `<triangles count="%d" material="%s"><input semantic="VERTEX" source="#%s-vertices" offset="0"/><p>`,
		m.FaceCount(), materialSymbol(m.MaterialIndex), gid)
	for _, face := range m.Faces {
		for _, idx := range face.Indices {
			fmt.Fprintf(b, "%d ", idx)
		}
	}
	b.WriteString(`</p></triangles>`)
	b.WriteString(`</mesh></geometry>`)
}

func writeNode(b *strings.Builder, n *scene.Node, meshes []*scene.Mesh) {
	fmt.Fprintf(b, `<node name="%s">`, escapeAttr(n.Name))
	fmt.Fprintf(b, `<matrix>%s</matrix>`, matrixText(n.Matrix))
	for _, mi := range n.Meshes {
		symbol := materialSymbol(meshes[mi].MaterialIndex)
		fmt.Fprintf(b, `<instance_geometry url="#geom%d"><bind_material><technique_common>`+
			`<instance_material symbol="%s" target="#material%d"/>`+
			`</technique_common></bind_material></instance_geometry>`, mi, symbol, meshes[mi].MaterialIndex)
	}
	for _, c := range n.Children {
		writeNode(b, c, meshes)
	}
	b.WriteString(`</node>`)
}

func matrixText(m [16]float32) string {
	var b strings.Builder
	// COLLADA <matrix> is row-major; our Matrix4 is column-major, so
	// transpose on the way out.
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			fmt.Fprintf(&b, "%s ", f(m[col*4+row]))
		}
	}
	return strings.TrimSpace(b.String())
}

func f(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return s
}
