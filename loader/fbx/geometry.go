package fbx

import (
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
)

// layerElement is one LayerElementNormal/LayerElementUV/LayerElementColor/
// LayerElementMaterial block: a flat value array plus, for IndexToDirect
// references, an index array, and the mapping mode that says how to
// address them per polygon corner.
type layerElement struct {
	mapping   string // "ByPolygonVertex", "ByVertex"/"ByVertice", "AllSame"
	reference string // "Direct", "IndexToDirect"
	values    []float64
	indices   []int64
}

func parseLayerElement(el *node, valuesName string) layerElement {
	le := layerElement{mapping: "ByPolygonVertex", reference: "Direct"}
	if m := el.child("MappingInformationType"); m != nil && len(m.Props) > 0 {
		le.mapping = m.Props[0].Str
	}
	if r := el.child("ReferenceInformationType"); r != nil && len(r.Props) > 0 {
		le.reference = r.Props[0].Str
	}
	if v := el.child(valuesName); v != nil && len(v.Props) > 0 {
		le.values = v.Props[0].Floats
	}
	if ix := el.child(valuesName + "Index"); ix != nil && len(ix.Props) > 0 {
		le.indices = ix.Props[0].Ints
	}
	return le
}

// at resolves one polygon-corner's value, given the corner's running
// position in the polygon-vertex stream and the underlying control-point
// index it names.
func (le layerElement) at(stride int, cornerIndex, controlPointIndex int) []float64 {
	var idx int
	switch le.mapping {
	case "ByVertex", "ByVertice":
		idx = controlPointIndex
	case "AllSame":
		idx = 0
	default: // ByPolygonVertex
		idx = cornerIndex
	}
	if le.reference == "IndexToDirect" && idx < len(le.indices) {
		idx = int(le.indices[idx])
	}
	base := idx * stride
	if base < 0 || base+stride > len(le.values) {
		return nil
	}
	return le.values[base : base+stride]
}

func (le layerElement) present() bool { return len(le.values) > 0 }

// lowerGeometry builds one scene.Mesh from a "Geometry" object, fully
// expanding every polygon corner (one position/normal/uv entry each) the
// way the AMF/3MF/COLLADA codecs already do, since FBX's control-point
// index buffer and its per-corner layer elements use different index
// spaces and reconciling them into one shared vertex buffer is unneeded
// complexity for this importer.
func lowerGeometry(el *node, materialIndex int) *scene.Mesh {
	name, _ := splitFbxName(propOr(el, 1, ""))
	m := scene.NewMesh(name)
	m.MaterialIndex = materialIndex

	var controlPoints []math32.Vector3
	if v := el.child("Vertices"); v != nil && len(v.Props) > 0 {
		flat := v.Props[0].Floats
		controlPoints = make([]math32.Vector3, 0, len(flat)/3)
		for i := 0; i+2 < len(flat); i += 3 {
			controlPoints = append(controlPoints, math32.Vector3{X: float32(flat[i]), Y: float32(flat[i+1]), Z: float32(flat[i+2])})
		}
	}

	pvi := el.child("PolygonVertexIndex")
	if pvi == nil || len(pvi.Props) == 0 || len(controlPoints) == 0 {
		return m
	}
	rawIndices := pvi.Props[0].Ints

	var normalLE, uvLE, colorLE layerElement
	if ln := el.child("LayerElementNormal"); ln != nil {
		normalLE = parseLayerElement(ln, "Normals")
	}
	if lu := el.child("LayerElementUV"); lu != nil {
		uvLE = parseLayerElement(lu, "UV")
	}
	if lc := el.child("LayerElementColor"); lc != nil {
		colorLE = parseLayerElement(lc, "Colors")
	}

	var uv0 []math32.Vector3
	var colors []math32.Vector4

	polyStart := 0
	cornerIndex := 0
	for i, raw := range rawIndices {
		cpIndex := raw
		lastOfPolygon := raw < 0
		if lastOfPolygon {
			cpIndex = -raw - 1
		}
		if int(cpIndex) < 0 || int(cpIndex) >= len(controlPoints) {
			cpIndex = 0
		}

		if normalLE.present() {
			if v := normalLE.at(3, cornerIndex, int(cpIndex)); v != nil {
				m.Normal = append(m.Normal, math32.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])})
			} else {
				m.Normal = append(m.Normal, math32.Vector3{})
			}
		}
		if uvLE.present() {
			if v := uvLE.at(2, cornerIndex, int(cpIndex)); v != nil {
				uv0 = append(uv0, math32.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: 0})
			} else {
				uv0 = append(uv0, math32.Vector3{})
			}
		}
		if colorLE.present() {
			if v := colorLE.at(4, cornerIndex, int(cpIndex)); v != nil {
				colors = append(colors, math32.Vector4{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2]), W: float32(v[3])})
			} else {
				colors = append(colors, math32.Vector4{W: 1})
			}
		}

		m.Position = append(m.Position, controlPoints[cpIndex])
		cornerIndex++

		if lastOfPolygon {
			polySize := i - polyStart + 1
			fanTriangulateCorners(m, polyStart, polySize)
			polyStart = i + 1
		}
	}

	if len(uv0) > 0 {
		m.UVSets[0] = &scene.UVSet{Components: 2, Data: uv0}
	}
	if len(colors) > 0 {
		m.Colors[0] = &scene.ColorSet{Data: colors}
	}
	return m
}

// fanTriangulateCorners adds triangle fan faces over the already-appended
// corner range [start, start+size) of m.Position, mirroring the COLLADA
// codec's own fan triangulation for n-gon polygons.
func fanTriangulateCorners(m *scene.Mesh, start, size int) {
	for i := 1; i+1 < size; i++ {
		m.AddFace(uint32(start), uint32(start+i), uint32(start+i+1))
	}
}
