package collada

import (
	"strconv"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/xmltree"
)

// sourceArray is one <source>'s decoded <float_array> plus its accessor
// stride, the COLLADA idiom for "a flat array of floats plus a stride
// telling you how many make up one logical value".
type sourceArray struct {
	values []float32
	stride int
}

func (s sourceArray) vector3At(i int) math32.Vector3 {
	base := i * s.stride
	var v math32.Vector3
	if s.stride > 0 && base+0 < len(s.values) {
		v.X = s.values[base]
	}
	if s.stride > 1 && base+1 < len(s.values) {
		v.Y = s.values[base+1]
	}
	if s.stride > 2 && base+2 < len(s.values) {
		v.Z = s.values[base+2]
	}
	return v
}

func (s sourceArray) vector2At(i int) math32.Vector2 {
	base := i * s.stride
	var v math32.Vector2
	if s.stride > 0 && base+0 < len(s.values) {
		v.X = s.values[base]
	}
	if s.stride > 1 && base+1 < len(s.values) {
		v.Y = s.values[base+1]
	}
	return v
}

// inputRef is one <input semantic=".." source="#.." offset=".."/> element,
// also used to describe a <vertices> element's own nested inputs once
// resolved against it.
type inputRef struct {
	semantic string
	sourceID string
	offset   int
	set      int
}

// primGroup is one <triangles> or <polylist> element: a material symbol,
// its resolved vertex-tuple inputs and the flattened index stream.
type primGroup struct {
	material string
	inputs   []inputRef
	stride   int
	indices  []int // flat, len is a multiple of stride*3 after triangulation
}

type meshGeometry struct {
	name   string
	groups []primGroup
}

func parseLibraryGeometries(lib *xmltree.Node, doc *document) error {
	for _, g := range lib.ChildrenNamed("geometry") {
		id, _ := g.Attr("id")
		name := g.AttrOr("name", id)
		meshEl := g.Child("mesh")
		if meshEl == nil {
			continue // lines/convex_mesh etc, not representable as a Scene mesh
		}
		geo := &meshGeometry{name: name}

		for _, src := range meshEl.ChildrenNamed("source") {
			srcID, _ := src.Attr("id")
			arr, err := parseSource(src)
			if err != nil {
				return err
			}
			doc.sources[srcID] = arr
		}

		for _, v := range meshEl.ChildrenNamed("vertices") {
			vID, _ := v.Attr("id")
			var refs []inputRef
			for _, in := range v.ChildrenNamed("input") {
				refs = append(refs, parseInput(in))
			}
			doc.vertices[vID] = refs
		}

		for _, tris := range meshEl.ChildrenNamed("triangles") {
			grp, err := parsePrimGroup(tris, doc, true)
			if err != nil {
				return err
			}
			geo.groups = append(geo.groups, grp)
		}
		for _, pl := range meshEl.ChildrenNamed("polylist") {
			grp, err := parsePrimGroup(pl, doc, false)
			if err != nil {
				return err
			}
			geo.groups = append(geo.groups, grp)
		}
		for _, pg := range meshEl.ChildrenNamed("polygons") {
			grp, err := parsePolygonsGroup(pg, doc)
			if err != nil {
				return err
			}
			geo.groups = append(geo.groups, grp)
		}

		doc.geometries[id] = geo
	}
	return nil
}

func parseSource(src *xmltree.Node) (sourceArray, error) {
	farr := src.Child("float_array")
	if farr == nil {
		return sourceArray{}, nil // non-numeric source (e.g. Name_array bone names), not a vertex stream
	}
	fields := farr.TextFields()
	values := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return sourceArray{}, asserr.Malformed("", -1, "float_array: %v", err)
		}
		values = append(values, float32(v))
	}
	stride := 1
	if tc := src.Child("technique_common"); tc != nil {
		if acc := tc.Child("accessor"); acc != nil {
			if s, ok := acc.Attr("stride"); ok {
				if n, err := strconv.Atoi(s); err == nil {
					stride = n
				}
			}
		}
	}
	return sourceArray{values: values, stride: stride}, nil
}

func parseInput(in *xmltree.Node) inputRef {
	semantic, _ := in.Attr("semantic")
	source, _ := in.Attr("source")
	offset := 0
	if o, ok := in.Attr("offset"); ok {
		if n, err := strconv.Atoi(o); err == nil {
			offset = n
		}
	}
	set := 0
	if s, ok := in.Attr("set"); ok {
		if n, err := strconv.Atoi(s); err == nil {
			set = n
		}
	}
	return inputRef{semantic: semantic, sourceID: trimHash(source), offset: offset, set: set}
}

// resolveInputs expands a VERTEX semantic input into the underlying
// <vertices> element's own inputs (typically POSITION, sometimes NORMAL),
// all carrying the VERTEX input's offset, since COLLADA indexes a shared
// "vertices" entity rather than POSITION directly in <triangles>/<polylist>.
func resolveInputs(raw []inputRef, doc *document) []inputRef {
	var out []inputRef
	for _, in := range raw {
		if in.semantic != "VERTEX" {
			out = append(out, in)
			continue
		}
		for _, nested := range doc.vertices[in.sourceID] {
			out = append(out, inputRef{semantic: nested.semantic, sourceID: nested.sourceID, offset: in.offset, set: nested.set})
		}
	}
	return out
}

func parsePrimGroup(el *xmltree.Node, doc *document, triangles bool) (primGroup, error) {
	material := el.AttrOr("material", "")
	var raw []inputRef
	for _, in := range el.ChildrenNamed("input") {
		raw = append(raw, parseInput(in))
	}
	inputs := resolveInputs(raw, doc)
	stride := 0
	for _, in := range inputs {
		if in.offset+1 > stride {
			stride = in.offset + 1
		}
	}
	if stride == 0 {
		stride = 1
	}

	p := el.Child("p")
	var flat []int
	if p != nil {
		flat = parseInts(p.TextFields())
	}

	grp := primGroup{material: material, inputs: inputs, stride: stride}
	if triangles {
		grp.indices = flat
		return grp, nil
	}

	vcountEl := el.Child("vcount")
	if vcountEl == nil {
		grp.indices = flat
		return grp, nil
	}
	vcounts := parseInts(vcountEl.TextFields())
	grp.indices = fanTriangulate(flat, vcounts, stride)
	return grp, nil
}

// parsePolygonsGroup handles the older, per-polygon <polygons><p>...</p>...</polygons>
// form, triangulating every <p> as its own fan.
func parsePolygonsGroup(el *xmltree.Node, doc *document) (primGroup, error) {
	material := el.AttrOr("material", "")
	var raw []inputRef
	for _, in := range el.ChildrenNamed("input") {
		raw = append(raw, parseInput(in))
	}
	inputs := resolveInputs(raw, doc)
	stride := 0
	for _, in := range inputs {
		if in.offset+1 > stride {
			stride = in.offset + 1
		}
	}
	if stride == 0 {
		stride = 1
	}

	grp := primGroup{material: material, inputs: inputs, stride: stride}
	for _, p := range el.ChildrenNamed("p") {
		flat := parseInts(p.TextFields())
		n := len(flat) / stride
		grp.indices = append(grp.indices, fanTriangulate(flat, []int{n}, stride)...)
	}
	return grp, nil
}

func parseInts(fields []string) []int {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, _ := strconv.Atoi(f)
		out[i] = n
	}
	return out
}

// fanTriangulate expands a flat per-polygon index stream (each polygon's
// size given by vcounts) into a flat triangle index stream via triangle
// fans around vertex 0 of each polygon.
func fanTriangulate(flat []int, vcounts []int, stride int) []int {
	out := make([]int, 0, len(flat))
	pos := 0
	for _, vc := range vcounts {
		poly := flat[pos*stride : (pos+vc)*stride]
		for i := 1; i+1 < vc; i++ {
			out = append(out, poly[0:stride]...)
			out = append(out, poly[i*stride:(i+1)*stride]...)
			out = append(out, poly[(i+1)*stride:(i+2)*stride]...)
		}
		pos += vc
	}
	return out
}

// lowerGeometry builds one scene.Mesh per material-distinct primitive
// group in geo, fully expanding vertices (one position/normal/uv entry
// per triangle corner, no index sharing) the way the AMF/3MF codecs
// already expand per-triangle streams.
func lowerGeometry(sc *scene.Scene, doc *document, geo *meshGeometry, matIndex map[string]int, symbolToMaterial map[string]string, getDefaultMaterial func() int) []int {
	var meshIndices []int
	for gi, grp := range geo.groups {
		if grp.stride == 0 || len(grp.indices) == 0 {
			continue
		}
		name := geo.name
		if len(geo.groups) > 1 {
			name = geo.name + "#" + strconv.Itoa(gi)
		}
		m := scene.NewMesh(name)
		materialID := grp.material
		if resolved, ok := symbolToMaterial[grp.material]; ok {
			materialID = resolved
		}
		if idx, ok := matIndex[materialID]; ok {
			m.MaterialIndex = idx
		} else {
			m.MaterialIndex = getDefaultMaterial()
		}

		var normals []math32.Vector3
		var uv0 []math32.Vector2
		var colors []math32.Vector4
		hasNormal, hasUV, hasColor := false, false, false

		corners := len(grp.indices) / grp.stride
		for c := 0; c < corners; c++ {
			tuple := grp.indices[c*grp.stride : (c+1)*grp.stride]
			var pos, nrm math32.Vector3
			var uv math32.Vector2
			var col math32.Vector4
			for _, in := range grp.inputs {
				idx := tuple[in.offset]
				if idx < 0 {
					continue
				}
				src := doc.sources[in.sourceID]
				switch in.semantic {
				case "POSITION":
					pos = src.vector3At(idx)
				case "NORMAL":
					nrm = src.vector3At(idx)
					hasNormal = true
				case "TEXCOORD":
					if in.set == 0 {
						uv = src.vector2At(idx)
						hasUV = true
					}
				case "COLOR":
					v := src.vector3At(idx)
					col = math32.Vector4{X: v.X, Y: v.Y, Z: v.Z, W: 1}
					hasColor = true
				}
			}
			m.Position = append(m.Position, pos)
			normals = append(normals, nrm)
			uv0 = append(uv0, uv)
			colors = append(colors, col)
		}
		for c := 0; c+2 < corners; c += 3 {
			m.AddFace(uint32(c), uint32(c+1), uint32(c+2))
		}

		if hasNormal {
			m.Normal = normals
		}
		if hasUV {
			m.UVSets[0] = &scene.UVSet{Components: 2, Data: toVector3s(uv0)}
		}
		if hasColor {
			m.Colors[0] = &scene.ColorSet{Data: colors}
		}
		meshIndices = append(meshIndices, sc.AddMesh(m))
	}
	return meshIndices
}

func toVector3s(uv []math32.Vector2) []math32.Vector3 {
	out := make([]math32.Vector3, len(uv))
	for i, v := range uv {
		out[i] = math32.Vector3{X: v.X, Y: v.Y, Z: 0}
	}
	return out
}
