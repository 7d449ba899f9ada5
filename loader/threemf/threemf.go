// Package threemf imports and exports the 3MF format: an OPC-packaged
// XML model document. Import drives C5 (opc) to resolve the package's
// root part, then C3 (xmltree) to parse it, then walks <resources>
// collecting a resource dictionary keyed by integer id before walking
// <build> to materialise scene nodes — the same two-pass
// resources-then-build shape the teacher's glTF loader uses
// (ParseJSONReader decodes the whole document into typed arrays before
// a separate pass builds objects that cross-reference them by index).
package threemf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/opc"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/util/logger"
	"github.com/assetforge/sceneforge/xmltree"
)

var log = logger.New("3MF", logger.Default)

type resourceKind int

const (
	resourceObject resourceKind = iota
	resourceBaseMaterials
	resourceEmbeddedTexture2D
	resourceTexture2DGroup
	resourceColorGroup
)

type triangleRecord struct {
	v1, v2, v3    int
	pid           int // 0 means "no property resource"
	p1, p2, p3    int
}

type objectResource struct {
	positions []math32.Vector3
	triangles []triangleRecord
}

type baseMaterialsResource struct {
	sceneMaterialIndex []int // local base-list index -> scene.Scene material index
}

type texture2DGroupResource struct {
	u, v []float32 // local index -> UV coordinate
}

type colorGroupResource struct {
	colors []math32.Vector4
	set    []bool // tracks which entries parsed successfully (§9 silent-failure quirk)
}

type resource struct {
	kind           resourceKind
	object         *objectResource
	baseMaterials  *baseMaterialsResource
	texture2DGroup *texture2DGroupResource
	colorGroup     *colorGroupResource
}

// CanRead sniffs data for the ZIP local-file-header magic every OPC
// package, 3MF included, starts with.
func CanRead(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 0x03 && data[3] == 0x04
}

// Open reads path as an OPC package through fs and lowers its root 3MF
// model into a scene.Scene.
func Open(fs ioset.FileSystem, path string) (*scene.Scene, error) {
	pkg, err := opc.Open(fs, path)
	if err != nil {
		return nil, err
	}
	return Decode(pkg)
}

// Decode lowers an already-opened OPC package's root part into a
// scene.Scene.
func Decode(pkg *opc.Package) (*scene.Scene, error) {
	data, err := pkg.RootStream()
	if err != nil {
		return nil, err
	}
	root, err := xmltree.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if root.Name != "model" {
		return nil, asserr.New(asserr.MalformedInput, "root element is <%s>, expected <model>", root.Name)
	}

	sc := scene.New()
	resources := make(map[int]*resource)

	resourcesNode := root.Child("resources")
	if resourcesNode != nil {
		// BaseMaterials and colour/texture groups are resolved first so
		// object triangles can look their property resources up by id
		// regardless of declaration order in the document.
		for _, n := range resourcesNode.Children {
			switch n.Name {
			case "basematerials":
				id, res, err := parseBaseMaterials(sc, n)
				if err != nil {
					return nil, err
				}
				resources[id] = res
			case "colorgroup":
				id, res, err := parseColorGroup(n)
				if err != nil {
					return nil, err
				}
				resources[id] = res
			case "texture2dgroup":
				id, res, err := parseTexture2DGroup(n)
				if err != nil {
					return nil, err
				}
				resources[id] = res
			case "texture2d":
				id, err := attrInt(n, "id")
				if err != nil {
					return nil, err
				}
				resources[id] = &resource{kind: resourceEmbeddedTexture2D}
			}
		}
		for _, n := range resourcesNode.Children {
			if n.Name != "object" {
				continue
			}
			id, res, err := parseObject(n)
			if err != nil {
				return nil, err
			}
			resources[id] = res
		}
	}

	objectMeshes := make(map[int][]int)
	for id, res := range resources {
		if res.kind != resourceObject {
			continue
		}
		idxs, err := lowerObject(sc, res.object, id, resources)
		if err != nil {
			return nil, err
		}
		objectMeshes[id] = idxs
	}

	buildNode := root.Child("build")
	if buildNode != nil {
		for _, item := range buildNode.ChildrenNamed("item") {
			objID, err := attrInt(item, "objectid")
			if err != nil {
				return nil, err
			}
			node := scene.NewNode(fmt.Sprintf("item_%d", objID))
			if transform, ok := item.Attr("transform"); ok {
				m, err := parseTransform(transform)
				if err != nil {
					return nil, err
				}
				node.Matrix = m
			}
			node.Meshes = append(node.Meshes, objectMeshes[objID]...)
			sc.Root.AddChild(node)
		}
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func attrInt(n *xmltree.Node, name string) (int, error) {
	v, ok := n.Attr(name)
	if !ok {
		return 0, asserr.New(asserr.MalformedInput, "<%s> is missing required attribute %q", n.Name, name)
	}
	i, err := (xmltree.Attr{Name: name, Value: v}).Int()
	if err != nil {
		return 0, asserr.New(asserr.MalformedInput, "<%s> attribute %q is not an integer: %v", n.Name, name, err)
	}
	return i, nil
}

func attrIntOr(n *xmltree.Node, name string, def int) int {
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	i, err := (xmltree.Attr{Name: name, Value: v}).Int()
	if err != nil {
		return def
	}
	return i
}

func parseObject(n *xmltree.Node) (int, *resource, error) {
	id, err := attrInt(n, "id")
	if err != nil {
		return 0, nil, err
	}
	obj := &objectResource{}
	meshNode := n.Child("mesh")
	if meshNode == nil {
		return id, &resource{kind: resourceObject, object: obj}, nil
	}
	if vertices := meshNode.Child("vertices"); vertices != nil {
		for _, v := range vertices.ChildrenNamed("vertex") {
			x, ok1 := v.Attr("x")
			y, ok2 := v.Attr("y")
			z, ok3 := v.Attr("z")
			if !ok1 || !ok2 || !ok3 {
				return 0, nil, asserr.New(asserr.MalformedInput, "<vertex> in object %d is missing x/y/z", id)
			}
			xf, e1 := (xmltree.Attr{Value: x}).Float()
			yf, e2 := (xmltree.Attr{Value: y}).Float()
			zf, e3 := (xmltree.Attr{Value: z}).Float()
			if e1 != nil || e2 != nil || e3 != nil {
				return 0, nil, asserr.New(asserr.MalformedInput, "<vertex> in object %d has a non-numeric coordinate", id)
			}
			obj.positions = append(obj.positions, math32.Vector3{X: xf, Y: yf, Z: zf})
		}
	}
	if triangles := meshNode.Child("triangles"); triangles != nil {
		for _, tnode := range triangles.ChildrenNamed("triangle") {
			v1, err1 := attrInt(tnode, "v1")
			v2, err2 := attrInt(tnode, "v2")
			v3, err3 := attrInt(tnode, "v3")
			if err1 != nil {
				return 0, nil, err1
			}
			if err2 != nil {
				return 0, nil, err2
			}
			if err3 != nil {
				return 0, nil, err3
			}
			t := triangleRecord{
				v1: v1, v2: v2, v3: v3,
				pid: attrIntOr(tnode, "pid", 0),
				p1:  attrIntOr(tnode, "p1", -1),
				p2:  attrIntOr(tnode, "p2", -1),
				p3:  attrIntOr(tnode, "p3", -1),
			}
			obj.triangles = append(obj.triangles, t)
		}
	}
	return id, &resource{kind: resourceObject, object: obj}, nil
}

func parseBaseMaterials(sc *scene.Scene, n *xmltree.Node) (int, *resource, error) {
	id, err := attrInt(n, "id")
	if err != nil {
		return 0, nil, err
	}
	res := &baseMaterialsResource{}
	for _, b := range n.ChildrenNamed("base") {
		name := b.AttrOr("name", "")
		mat := scene.NewMaterial(name)
		if col, ok := parseColor(b.AttrOr("displaycolor", "")); ok {
			mat.SetProperty("diffuse", scene.Color4Property(col))
		}
		res.sceneMaterialIndex = append(res.sceneMaterialIndex, sc.AddMaterial(mat))
	}
	return id, &resource{kind: resourceBaseMaterials, baseMaterials: res}, nil
}

func parseColorGroup(n *xmltree.Node) (int, *resource, error) {
	id, err := attrInt(n, "id")
	if err != nil {
		return 0, nil, err
	}
	res := &colorGroupResource{}
	for _, c := range n.ChildrenNamed("color") {
		col, ok := parseColor(c.AttrOr("color", ""))
		res.colors = append(res.colors, col)
		res.set = append(res.set, ok)
		if !ok {
			log.Warn("3mf: colorgroup %d has a malformed colour string, leaving the entry unset", id)
		}
	}
	return id, &resource{kind: resourceColorGroup, colorGroup: res}, nil
}

func parseTexture2DGroup(n *xmltree.Node) (int, *resource, error) {
	id, err := attrInt(n, "id")
	if err != nil {
		return 0, nil, err
	}
	res := &texture2DGroupResource{}
	for _, c := range n.ChildrenNamed("tex2coord") {
		u, _ := (xmltree.Attr{Value: c.AttrOr("u", "0")}).Float()
		v, _ := (xmltree.Attr{Value: c.AttrOr("v", "0")}).Float()
		res.u = append(res.u, u)
		res.v = append(res.v, v)
	}
	return id, &resource{kind: resourceTexture2DGroup, texture2DGroup: res}, nil
}

// parseTransform decodes 3MF's 12-number column-major affine transform
// (last row implicit 0,0,0,1) into a math32.Matrix4.
func parseTransform(s string) (math32.Matrix4, error) {
	fields := strings.Fields(s)
	if len(fields) != 12 {
		return math32.Matrix4{}, asserr.New(asserr.MalformedInput, "transform has %d numbers, want 12", len(fields))
	}
	var v [12]float32
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return math32.Matrix4{}, asserr.New(asserr.MalformedInput, "transform value %q is not a number", f)
		}
		v[i] = float32(n)
	}
	var m math32.Matrix4
	m.Set(
		v[0], v[3], v[6], v[9],
		v[1], v[4], v[7], v[10],
		v[2], v[5], v[8], v[11],
		0, 0, 0, 1,
	)
	return m, nil
}

// toTransform is parseTransform's inverse, used by the exporter.
func toTransform(m math32.Matrix4) string {
	return fmt.Sprintf("%g %g %g %g %g %g %g %g %g %g %g %g",
		m[0], m[1], m[2], m[4], m[5], m[6], m[8], m[9], m[10], m[12], m[13], m[14])
}

// materialGroupKey identifies which scene.Mesh a triangle belongs to:
// triangles sharing a BaseMaterials (pid, p1) pair share a mesh (and
// therefore a single MaterialIndex, the IR's one-material-per-mesh
// limitation); every other triangle falls into the shared "default"
// group, where UV/colour channel data is attached per corner instead.
type materialGroupKey struct {
	pid, p1 int
	isMat   bool
}

func lowerObject(sc *scene.Scene, obj *objectResource, objID int, resources map[int]*resource) ([]int, error) {
	groups := make(map[materialGroupKey]*scene.Mesh)
	var order []materialGroupKey
	defaultMaterial := -1
	getDefaultMaterial := func() int {
		if defaultMaterial < 0 {
			defaultMaterial = sc.AddMaterial(scene.NewMaterial("3mf-default"))
		}
		return defaultMaterial
	}

	for _, t := range obj.triangles {
		res := resources[t.pid]
		key := materialGroupKey{}
		var mat *baseMaterialsResource
		if res != nil && res.kind == resourceBaseMaterials {
			mat = res.baseMaterials
			key = materialGroupKey{pid: t.pid, p1: t.p1, isMat: true}
		}

		m, ok := groups[key]
		if !ok {
			m = scene.NewMesh(fmt.Sprintf("object_%d", objID))
			m.Position = obj.positions
			if mat != nil && t.p1 >= 0 && t.p1 < len(mat.sceneMaterialIndex) {
				m.MaterialIndex = mat.sceneMaterialIndex[t.p1]
			} else {
				m.MaterialIndex = getDefaultMaterial()
			}
			groups[key] = m
			order = append(order, key)
		}
		m.AddFace(uint32(t.v1), uint32(t.v2), uint32(t.v3))

		if res != nil && res.kind == resourceTexture2DGroup {
			set := ensureUVSetWithSentinel(m)
			tg := res.texture2DGroup
			writeUV := func(vertex, localIdx int) {
				if localIdx < 0 || localIdx >= len(tg.u) {
					return
				}
				if vertex < 0 || vertex >= len(set.Data) {
					return
				}
				if set.Data[vertex].Z != -1 {
					return // already assigned by an earlier corner
				}
				set.Data[vertex] = math32.Vector3{X: tg.u[localIdx], Y: tg.v[localIdx], Z: 0}
			}
			writeUV(t.v1, t.p1)
			writeUV(t.v2, t.p2)
			writeUV(t.v3, t.p3)
		}

		if res != nil && res.kind == resourceColorGroup {
			cg := res.colorGroup
			colorSet := m.EnsureColorSet(0)
			writeColor := func(vertex, localIdx int) {
				if localIdx < 0 || localIdx >= len(cg.colors) || !cg.set[localIdx] {
					return
				}
				if vertex < 0 || vertex >= len(colorSet.Data) {
					return
				}
				colorSet.Data[vertex] = cg.colors[localIdx]
			}
			writeColor(t.v1, t.p1)
			writeColor(t.v2, t.p2)
			writeColor(t.v3, t.p3)
		}
	}

	var idxs []int
	for _, key := range order {
		idxs = append(idxs, sc.AddMesh(groups[key]))
	}
	return idxs, nil
}

// ensureUVSetWithSentinel materialises UV channel 0 with the §4.7
// z == -1 "unset" sentinel on every freshly allocated entry.
func ensureUVSetWithSentinel(m *scene.Mesh) *scene.UVSet {
	if m.UVSets[0] != nil {
		return m.UVSets[0]
	}
	set := m.EnsureUVSet(0, 2)
	for i := range set.Data {
		set.Data[i].Z = -1
	}
	return set
}
