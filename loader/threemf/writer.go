package threemf

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/opc"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/ziparchive"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="model" ContentType="application/vnd.ms-package.3dmanufacturing-3dmodel+xml"/>` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rel0" Type="` + opc.RootPartRelationshipType + `" Target="/3D/3dmodel.model"/>` +
	`</Relationships>`

// Export writes sc as a single-part 3MF OPC package: one <object> per
// scene mesh, one <basematerials> resource covering every scene
// material so each mesh's triangles can carry a pid/p1 reference back to
// it, and one <build><item> per (node, mesh index) pair so instancing
// (several nodes sharing one mesh) round-trips.
func Export(sc *scene.Scene, w io.Writer) error {
	var model strings.Builder
	model.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	model.WriteString(`<model unit="millimeter" xmlns="http://schemas.microsoft.com/3dmanufacturing/core/2015/02">`)
	model.WriteString(`<resources>`)

	hasMaterials := len(sc.Materials) > 0
	if hasMaterials {
		model.WriteString(`<basematerials id="1">`)
		for _, mat := range sc.Materials {
			color := "#CCCCCCFF"
			if p, ok := mat.Properties["diffuse"]; ok && p.Kind == scene.PropColor4 {
				color = formatColor(p.Color4)
			}
			fmt.Fprintf(&model, `<base name="%s" displaycolor="%s"/>`, escapeAttr(mat.Name), color)
		}
		model.WriteString(`</basematerials>`)
	}

	for i, m := range sc.Meshes {
		objID := i + 2 // id 1 belongs to <basematerials>
		fmt.Fprintf(&model, `<object id="%d" type="model"><mesh><vertices>`, objID)
		for _, p := range m.Position {
			fmt.Fprintf(&model, `<vertex x="%s" y="%s" z="%s"/>`, floatStr(p.X), floatStr(p.Y), floatStr(p.Z))
		}
		model.WriteString(`</vertices><triangles>`)
		for _, f := range m.Faces {
			if f.Arity() != 3 {
				continue // 3MF triangles only; non-triangle faces need triangulation upstream
			}
			if hasMaterials {
				fmt.Fprintf(&model, `<triangle v1="%d" v2="%d" v3="%d" pid="1" p1="%d" p2="%d" p3="%d"/>`,
					f.Indices[0], f.Indices[1], f.Indices[2], m.MaterialIndex, m.MaterialIndex, m.MaterialIndex)
			} else {
				fmt.Fprintf(&model, `<triangle v1="%d" v2="%d" v3="%d"/>`, f.Indices[0], f.Indices[1], f.Indices[2])
			}
		}
		model.WriteString(`</triangles></mesh></object>`)
	}
	model.WriteString(`</resources><build>`)

	sc.Root.Walk(func(n *scene.Node) {
		for _, mi := range n.Meshes {
			fmt.Fprintf(&model, `<item objectid="%d" transform="%s"/>`, mi+2, toTransform(n.Matrix))
		}
	})
	model.WriteString(`</build></model>`)

	zw := ziparchive.NewWriter(w)
	if err := zw.WriteEntry("[Content_Types].xml", []byte(contentTypesXML)); err != nil {
		return err
	}
	if err := zw.WriteEntry("_rels/.rels", []byte(relsXML)); err != nil {
		return err
	}
	if err := zw.WriteEntry("3D/3dmodel.model", []byte(model.String())); err != nil {
		return err
	}
	return zw.Close()
}

func floatStr(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return s
}
