// Package amf imports the Additive Manufacturing File Format, an XML
// dialect for 3D-printable geometry with per-triangle colour/texture.
// Parsing is recursive descent over an xmltree.Node document: each
// element kind gets its own handler that reads typed attributes, rejects
// schema-forbidden duplicates (one <vertices> per <mesh>, one <color>
// per <triangle>) and recurses into its children. The result is a
// format-specific element graph, AmfNode, a tagged variant over every
// AMF element kind; Lower walks that graph once to build a scene.Scene.
//
// This replaces the teacher's approach of decoding straight into
// render-ready core.Node/geometry.Geometry during the same pass
// (loader/obj and loader/collada both do this): AMF's per-volume
// material/texture attribution needs a second pass over fully-parsed
// data, so parse and lower are kept as distinct stages per the Design
// Notes' "deep inheritance for node-element variants" guidance, which
// asks for a tagged sum type with exhaustive-match lowering instead of
// visitor-pattern subclassing.
package amf

import (
	"io"
	"strings"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/util/logger"
	"github.com/assetforge/sceneforge/xmltree"
)

var log = logger.New("AMF", logger.Default)

// Unit is the root <amf unit="…"> attribute's decoded value.
type Unit int

const (
	UnitInch Unit = iota
	UnitMillimeter
	UnitMeter
	UnitFeet
	UnitMicron
)

func parseUnit(s string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inch":
		return UnitInch, true
	case "millimeter":
		return UnitMillimeter, true
	case "meter":
		return UnitMeter, true
	case "feet":
		return UnitFeet, true
	case "micron":
		return UnitMicron, true
	default:
		return 0, false
	}
}

// Kind discriminates an AmfNode. Every AMF element kind named in §4.6
// has one entry here.
type Kind int

const (
	KRoot Kind = iota
	KConstellation
	KInstance
	KObject
	KMesh
	KVertices
	KVertex
	KCoordinates
	KVolume
	KTriangle
	KColor
	KMaterial
	KMetadata
	KTexture
	KTexMap
	KEdge
)

type RootData struct {
	Unit    Unit
	Version string
}

type ConstellationData struct{ ID string }

// InstanceData holds an <instance>'s TRS. Delta is the translation read
// from deltax/deltay/deltaz. RotationDeg is rx/ry/rz in degrees.
//
// §9 flags a source bug: one branch of the original instance parser
// stores rx/ry/rz into the same Delta (translation) field it uses for
// deltax/deltay/deltaz. That is not reproduced here — rotation always
// lands in RotationDeg, per the documented intent rather than the buggy
// branch.
type InstanceData struct {
	ObjectID    string
	Delta       math32.Vector3
	RotationDeg math32.Vector3
}

type ObjectData struct{ ID string }
type MeshData struct{}
type VerticesData struct{}
type VertexData struct{}

type CoordinatesData struct{ X, Y, Z float32 }

type VolumeData struct{ MaterialID string }

type TriangleData struct{ V1, V2, V3 int }

type ColorData struct{ R, G, B, A float32 }

type MaterialData struct{ ID string }

type MetadataData struct {
	Type  string
	Value string
}

// TextureData holds a decoded raster texture's raw samples. For a
// "grayscale" type, len(Data) must equal Width*Height*Depth.
type TextureData struct {
	ID                    string
	Width, Height, Depth  int
	Type                  string
	Data                  []byte
}

type TexMapData struct {
	RTexID string
	U, V   [3]float32
}

type EdgeData struct{ V1, V2 int }

// AmfNode is one element of the parsed document. Exactly one of the
// kind-specific fields is non-nil, selected by Kind; Children holds the
// element's already-parsed child elements in document order.
type AmfNode struct {
	Kind Kind

	Root          *RootData
	Constellation *ConstellationData
	Instance      *InstanceData
	Object        *ObjectData
	Mesh          *MeshData
	Vertices      *VerticesData
	Vertex        *VertexData
	Coordinates   *CoordinatesData
	Volume        *VolumeData
	Triangle      *TriangleData
	Color         *ColorData
	Material      *MaterialData
	Metadata      *MetadataData
	Texture       *TextureData
	TexMap        *TexMapData
	Edge          *EdgeData

	Children []*AmfNode
}

// Open opens the AMF document at path through fs and parses it.
func Open(fs ioset.FileSystem, path string) (*scene.Scene, error) {
	f, err := fs.Open(path, ioset.ReadText)
	if err != nil {
		return nil, asserr.Wrap(asserr.IoError, err, "opening %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// CanRead sniffs data for an <amf root element, tolerating leading
// whitespace and an XML declaration the way a real AMF file commonly has.
func CanRead(data []byte) bool {
	s := strings.TrimSpace(string(data))
	if i := strings.Index(s, "?>"); strings.HasPrefix(s, "<?xml") && i >= 0 {
		s = strings.TrimSpace(s[i+2:])
	}
	return strings.HasPrefix(s, "<amf")
}

// Parse reads an AMF document from r and lowers it directly into a
// scene.Scene.
func Parse(r io.Reader) (*scene.Scene, error) {
	xroot, err := xmltree.Parse(r)
	if err != nil {
		return nil, err
	}
	if xroot.Name != "amf" {
		return nil, asserr.New(asserr.MalformedInput, "root element is <%s>, expected <amf>", xroot.Name)
	}
	root, err := parseRoot(xroot)
	if err != nil {
		return nil, err
	}
	return lower(root)
}

func parseRoot(x *xmltree.Node) (*AmfNode, error) {
	unitStr, ok := x.Attr("unit")
	if !ok {
		return nil, asserr.New(asserr.MalformedInput, "<amf> is missing the required unit attribute")
	}
	unit, ok := parseUnit(unitStr)
	if !ok {
		return nil, asserr.New(asserr.MalformedInput, "<amf> unit %q is not one of inch|millimeter|meter|feet|micron", unitStr)
	}
	node := &AmfNode{Kind: KRoot, Root: &RootData{Unit: unit, Version: x.AttrOr("version", "")}}
	for _, c := range x.Children {
		child, err := parseTopLevel(c)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}

func parseTopLevel(x *xmltree.Node) (*AmfNode, error) {
	switch x.Name {
	case "object":
		return parseObject(x)
	case "material":
		return parseMaterial(x)
	case "texture":
		return parseTexture(x)
	case "constellation":
		return parseConstellation(x)
	case "metadata":
		return parseMetadata(x), nil
	default:
		log.Warn("amf: ignoring unrecognised top-level element <%s>", x.Name)
		return nil, nil
	}
}

func parseObject(x *xmltree.Node) (*AmfNode, error) {
	node := &AmfNode{Kind: KObject, Object: &ObjectData{ID: x.AttrOr("id", "")}}
	seenMesh := false
	for _, c := range x.Children {
		switch c.Name {
		case "mesh":
			if seenMesh {
				return nil, asserr.New(asserr.MalformedInput, "object %q has more than one <mesh>", node.Object.ID)
			}
			seenMesh = true
			m, err := parseMesh(c)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, m)
		case "metadata":
			node.Children = append(node.Children, parseMetadata(c))
		default:
			log.Warn("amf: ignoring unrecognised <object> child <%s>", c.Name)
		}
	}
	return node, nil
}

func parseMesh(x *xmltree.Node) (*AmfNode, error) {
	node := &AmfNode{Kind: KMesh, Mesh: &MeshData{}}
	seenVertices := false
	for _, c := range x.Children {
		switch c.Name {
		case "vertices":
			if seenVertices {
				return nil, asserr.New(asserr.MalformedInput, "<mesh> has more than one <vertices>")
			}
			seenVertices = true
			v, err := parseVertices(c)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, v)
		case "volume":
			vol, err := parseVolume(c)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, vol)
		default:
			log.Warn("amf: ignoring unrecognised <mesh> child <%s>", c.Name)
		}
	}
	return node, nil
}

func parseVertices(x *xmltree.Node) (*AmfNode, error) {
	node := &AmfNode{Kind: KVertices, Vertices: &VerticesData{}}
	for _, c := range x.Children {
		if c.Name != "vertex" {
			log.Warn("amf: ignoring unrecognised <vertices> child <%s>", c.Name)
			continue
		}
		v, err := parseVertex(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, v)
	}
	return node, nil
}

func parseVertex(x *xmltree.Node) (*AmfNode, error) {
	node := &AmfNode{Kind: KVertex, Vertex: &VertexData{}}
	seenCoords := false
	for _, c := range x.Children {
		if c.Name != "coordinates" {
			log.Warn("amf: ignoring unrecognised <vertex> child <%s>", c.Name)
			continue
		}
		if seenCoords {
			return nil, asserr.New(asserr.MalformedInput, "<vertex> has more than one <coordinates>")
		}
		seenCoords = true
		coord, err := parseCoordinates(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, coord)
	}
	return node, nil
}

func parseCoordinates(x *xmltree.Node) (*AmfNode, error) {
	c := &CoordinatesData{}
	for _, ch := range x.Children {
		v, err := ch.TextFloat()
		if err != nil {
			return nil, asserr.New(asserr.MalformedInput, "<coordinates><%s> is not a number: %v", ch.Name, err)
		}
		switch ch.Name {
		case "x":
			c.X = v
		case "y":
			c.Y = v
		case "z":
			c.Z = v
		default:
			log.Warn("amf: ignoring unrecognised <coordinates> child <%s>", ch.Name)
		}
	}
	return &AmfNode{Kind: KCoordinates, Coordinates: c}, nil
}

func parseVolume(x *xmltree.Node) (*AmfNode, error) {
	node := &AmfNode{Kind: KVolume, Volume: &VolumeData{MaterialID: x.AttrOr("materialid", "")}}
	for _, c := range x.Children {
		if c.Name != "triangle" {
			log.Warn("amf: ignoring unrecognised <volume> child <%s>", c.Name)
			continue
		}
		t, err := parseTriangle(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, t)
	}
	return node, nil
}

func parseTriangle(x *xmltree.Node) (*AmfNode, error) {
	t := &TriangleData{}
	node := &AmfNode{Kind: KTriangle, Triangle: t}
	seenColor := false
	for _, c := range x.Children {
		switch c.Name {
		case "v1", "v2", "v3":
			v, err := c.TextInt()
			if err != nil {
				return nil, asserr.New(asserr.MalformedInput, "<triangle><%s> is not an integer: %v", c.Name, err)
			}
			switch c.Name {
			case "v1":
				t.V1 = v
			case "v2":
				t.V2 = v
			case "v3":
				t.V3 = v
			}
		case "color":
			if seenColor {
				return nil, asserr.New(asserr.MalformedInput, "<triangle> has more than one <color>")
			}
			seenColor = true
			col, err := parseColor(c)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, col)
		case "map":
			tm, err := parseTexMap(c)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, tm)
		default:
			log.Warn("amf: ignoring unrecognised <triangle> child <%s>", c.Name)
		}
	}
	return node, nil
}

func parseColor(x *xmltree.Node) (*AmfNode, error) {
	c := &ColorData{A: 1}
	for _, ch := range x.Children {
		v, err := ch.TextFloat()
		if err != nil {
			return nil, asserr.New(asserr.MalformedInput, "<color><%s> is not a number: %v", ch.Name, err)
		}
		switch ch.Name {
		case "r":
			c.R = v
		case "g":
			c.G = v
		case "b":
			c.B = v
		case "a":
			c.A = v
		default:
			log.Warn("amf: ignoring unrecognised <color> child <%s>", ch.Name)
		}
	}
	return &AmfNode{Kind: KColor, Color: c}, nil
}

func parseTexMap(x *xmltree.Node) (*AmfNode, error) {
	tm := &TexMapData{RTexID: x.AttrOr("rtexid", "")}
	fields := []struct {
		name string
		dst  *float32
	}{
		{"utex1", &tm.U[0]}, {"utex2", &tm.U[1]}, {"utex3", &tm.U[2]},
		{"vtex1", &tm.V[0]}, {"vtex2", &tm.V[1]}, {"vtex3", &tm.V[2]},
	}
	for _, c := range x.Children {
		matched := false
		for _, f := range fields {
			if c.Name == f.name {
				v, err := c.TextFloat()
				if err != nil {
					return nil, asserr.New(asserr.MalformedInput, "<map><%s> is not a number: %v", c.Name, err)
				}
				*f.dst = v
				matched = true
				break
			}
		}
		if !matched {
			log.Warn("amf: ignoring unrecognised <map> child <%s>", c.Name)
		}
	}
	return &AmfNode{Kind: KTexMap, TexMap: tm}, nil
}

func parseMaterial(x *xmltree.Node) (*AmfNode, error) {
	node := &AmfNode{Kind: KMaterial, Material: &MaterialData{ID: x.AttrOr("id", "")}}
	for _, c := range x.Children {
		switch c.Name {
		case "color":
			col, err := parseColor(c)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, col)
		case "metadata":
			node.Children = append(node.Children, parseMetadata(c))
		default:
			log.Warn("amf: ignoring unrecognised <material> child <%s>", c.Name)
		}
	}
	return node, nil
}

func parseTexture(x *xmltree.Node) (*AmfNode, error) {
	width, err := attrInt(x, "width")
	if err != nil {
		return nil, err
	}
	height, err := attrInt(x, "height")
	if err != nil {
		return nil, err
	}
	depth := 1
	if _, ok := x.Attr("depth"); ok {
		depth, err = attrInt(x, "depth")
		if err != nil {
			return nil, err
		}
	}
	typ := x.AttrOr("type", "grayscale")

	data, err := decodeBase64(x.Text)
	if err != nil {
		return nil, err
	}
	if typ == "grayscale" {
		want := width * height * depth
		if len(data) != want {
			return nil, asserr.New(asserr.MalformedInput, "texture %q decoded length %d != width*height*depth %d", x.AttrOr("id", ""), len(data), want)
		}
	}

	tex := &TextureData{ID: x.AttrOr("id", ""), Width: width, Height: height, Depth: depth, Type: typ, Data: data}
	return &AmfNode{Kind: KTexture, Texture: tex}, nil
}

func attrInt(x *xmltree.Node, name string) (int, error) {
	a, ok := x.Attr(name)
	if !ok {
		return 0, asserr.New(asserr.MalformedInput, "<%s> is missing required attribute %q", x.Name, name)
	}
	v, err := (xmltree.Attr{Name: name, Value: a}).Int()
	if err != nil {
		return 0, asserr.New(asserr.MalformedInput, "<%s> attribute %q is not an integer: %v", x.Name, name, err)
	}
	return v, nil
}

func parseConstellation(x *xmltree.Node) (*AmfNode, error) {
	node := &AmfNode{Kind: KConstellation, Constellation: &ConstellationData{ID: x.AttrOr("id", "")}}
	for _, c := range x.Children {
		if c.Name != "instance" {
			log.Warn("amf: ignoring unrecognised <constellation> child <%s>", c.Name)
			continue
		}
		inst, err := parseInstance(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, inst)
	}
	return node, nil
}

func parseInstance(x *xmltree.Node) (*AmfNode, error) {
	inst := &InstanceData{ObjectID: x.AttrOr("objectid", "")}
	for _, c := range x.Children {
		v, err := c.TextFloat()
		if err != nil {
			return nil, asserr.New(asserr.MalformedInput, "<instance><%s> is not a number: %v", c.Name, err)
		}
		switch c.Name {
		case "deltax":
			inst.Delta.X = v
		case "deltay":
			inst.Delta.Y = v
		case "deltaz":
			inst.Delta.Z = v
		case "rx":
			inst.RotationDeg.X = v
		case "ry":
			inst.RotationDeg.Y = v
		case "rz":
			inst.RotationDeg.Z = v
		default:
			log.Warn("amf: ignoring unrecognised <instance> child <%s>", c.Name)
		}
	}
	return &AmfNode{Kind: KInstance, Instance: inst}, nil
}

func parseMetadata(x *xmltree.Node) *AmfNode {
	return &AmfNode{Kind: KMetadata, Metadata: &MetadataData{Type: x.AttrOr("type", ""), Value: x.Text}}
}

const degToRad = float32(3.14159265358979323846 / 180.0)

// lower walks the parsed AmfNode graph once, in document order, building
// a scene.Scene. Materials and textures are resolved first since volumes
// and triangles reference them by id; objects are lowered into meshes
// second; constellations are lowered into TRS node hierarchies last,
// tracking which objects they reference so the remaining, unreferenced
// objects can still be attached directly under the scene root.
func lower(root *AmfNode) (*scene.Scene, error) {
	sc := scene.New()

	materialIndex := make(map[string]int)
	var defaultMaterial = -1
	getDefaultMaterial := func() int {
		if defaultMaterial < 0 {
			defaultMaterial = sc.AddMaterial(scene.NewMaterial("amf-default"))
		}
		return defaultMaterial
	}

	for _, c := range root.Children {
		if c.Kind != KMaterial {
			continue
		}
		mat := scene.NewMaterial(c.Material.ID)
		for _, cc := range c.Children {
			if cc.Kind == KColor {
				mat.SetProperty("diffuse", scene.Color4Property(math32.Vector4{X: cc.Color.R, Y: cc.Color.G, Z: cc.Color.B, W: cc.Color.A}))
			}
		}
		materialIndex[c.Material.ID] = sc.AddMaterial(mat)
	}

	for _, c := range root.Children {
		if c.Kind != KTexture {
			continue
		}
		tex := scene.NewEmbeddedTexture(c.Texture.Data, "amf-raster")
		tex.SetDecodedSize(c.Texture.Width, c.Texture.Height)
		sc.AddTexture(tex)
	}

	objectMeshes := make(map[string][]int)
	for _, c := range root.Children {
		if c.Kind != KObject {
			continue
		}
		idxs, err := lowerObject(sc, c, materialIndex, getDefaultMaterial)
		if err != nil {
			return nil, err
		}
		objectMeshes[c.Object.ID] = idxs
	}

	referenced := make(map[string]bool)
	for _, c := range root.Children {
		if c.Kind != KConstellation {
			continue
		}
		constellationNode := scene.NewNode("constellation_" + c.Constellation.ID)
		sc.Root.AddChild(constellationNode)
		for _, inst := range c.Children {
			if inst.Kind != KInstance {
				continue
			}
			referenced[inst.Instance.ObjectID] = true
			node := scene.NewNode("instance_" + inst.Instance.ObjectID)
			q := new(math32.Quaternion).SetFromEuler(&math32.Vector3{
				X: inst.Instance.RotationDeg.X * degToRad,
				Y: inst.Instance.RotationDeg.Y * degToRad,
				Z: inst.Instance.RotationDeg.Z * degToRad,
			})
			node.Matrix.Compose(&inst.Instance.Delta, q, &math32.Vector3{X: 1, Y: 1, Z: 1})
			node.Meshes = append(node.Meshes, objectMeshes[inst.Instance.ObjectID]...)
			constellationNode.AddChild(node)
		}
	}

	for _, c := range root.Children {
		if c.Kind != KObject || referenced[c.Object.ID] {
			continue
		}
		node := scene.NewNode("object_" + c.Object.ID)
		node.Meshes = append(node.Meshes, objectMeshes[c.Object.ID]...)
		sc.Root.AddChild(node)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func lowerObject(sc *scene.Scene, obj *AmfNode, materialIndex map[string]int, getDefaultMaterial func() int) ([]int, error) {
	var meshNode *AmfNode
	for _, c := range obj.Children {
		if c.Kind == KMesh {
			meshNode = c
			break
		}
	}
	if meshNode == nil {
		return nil, nil
	}

	var positions []math32.Vector3
	for _, c := range meshNode.Children {
		if c.Kind != KVertices {
			continue
		}
		for _, v := range c.Children {
			if v.Kind != KVertex {
				continue
			}
			for _, cv := range v.Children {
				if cv.Kind == KCoordinates {
					positions = append(positions, math32.Vector3{X: cv.Coordinates.X, Y: cv.Coordinates.Y, Z: cv.Coordinates.Z})
				}
			}
		}
	}

	var volumes []*AmfNode
	for _, c := range meshNode.Children {
		if c.Kind == KVolume {
			volumes = append(volumes, c)
		}
	}
	if len(volumes) == 0 {
		// A <mesh> with vertices but no <volume> still describes one mesh
		// (§8.4 scenario 3): the whole vertex set, with no faces.
		m := scene.NewMesh(obj.Object.ID)
		m.Position = positions
		m.MaterialIndex = getDefaultMaterial()
		return []int{sc.AddMesh(m)}, nil
	}

	var meshIdxs []int
	for _, c := range volumes {
		m := scene.NewMesh(obj.Object.ID)
		m.Position = positions
		if idx, ok := materialIndex[c.Volume.MaterialID]; ok {
			m.MaterialIndex = idx
		} else {
			m.MaterialIndex = getDefaultMaterial()
		}
		for _, t := range c.Children {
			if t.Kind != KTriangle {
				continue
			}
			m.AddFace(uint32(t.Triangle.V1), uint32(t.Triangle.V2), uint32(t.Triangle.V3))
			for _, extra := range t.Children {
				if extra.Kind == KColor {
					set := m.EnsureColorSet(0)
					col := math32.Vector4{X: extra.Color.R, Y: extra.Color.G, Z: extra.Color.B, W: extra.Color.A}
					for _, idx := range []int{t.Triangle.V1, t.Triangle.V2, t.Triangle.V3} {
						if idx >= 0 && idx < len(set.Data) {
							set.Data[idx] = col
						}
					}
				}
			}
		}
		meshIdxs = append(meshIdxs, sc.AddMesh(m))
	}
	return meshIdxs, nil
}
