package fbx

import (
	"io"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/fbxtok"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/scene"
)

// Open opens the binary FBX document at path through fs and decodes it.
func Open(fs ioset.FileSystem, path string) (*scene.Scene, error) {
	f, err := fs.Open(path, ioset.ReadBinary)
	if err != nil {
		return nil, asserr.Wrap(asserr.IoError, err, "opening %s", path)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, asserr.Wrap(asserr.IoError, err, "reading %s", path)
	}
	return Decode(data)
}

// CanRead reports whether data begins with the binary FBX magic, the
// importer's signature test per the registry's dispatch algorithm.
func CanRead(data []byte) bool {
	return len(data) >= len(fbxtok.Magic) && string(data[:len(fbxtok.Magic)]) == fbxtok.Magic
}

// Decode tokenizes data, rebuilds its scope tree, and lowers the
// Objects/Connections graph into a scene.Scene.
func Decode(data []byte) (*scene.Scene, error) {
	if !CanRead(data) {
		return nil, asserr.New(asserr.UnknownFormat, "missing %q magic", fbxtok.Magic)
	}
	tokens, err := fbxtok.Tokenize(data)
	if err != nil {
		return nil, err
	}
	root, err := buildTree(tokens)
	if err != nil {
		return nil, err
	}
	doc := parseObjects(root)

	sc := scene.New()

	matSceneIndex := make(map[int64]int)
	for id, el := range doc.materials {
		matSceneIndex[id] = sc.AddMaterial(lowerMaterial(el))
	}
	defaultMaterial := -1
	getDefaultMaterial := func() int {
		if defaultMaterial == -1 {
			defaultMaterial = sc.AddMaterial(scene.NewMaterial("default"))
		}
		return defaultMaterial
	}

	// materialForGeometry resolves the Material connected to modelID (a
	// Material is always the child end of its OO connection to the Model
	// it's applied to, the same direction Geometry->Model uses). When
	// several materials connect to the same Model, the first one found
	// wins since LayerElementMaterial-per-polygon material assignment is
	// out of scope here.
	materialForGeometry := func(modelID int64) int {
		for _, childID := range childrenOf(doc, modelID) {
			if idx, ok := matSceneIndex[childID]; ok {
				return idx
			}
		}
		return getDefaultMaterial()
	}

	geomSceneIndex := make(map[int64]int)
	nodeByModelID := make(map[int64]*scene.Node)

	for modelID, modelEl := range doc.models {
		n := lowerModel(modelEl)
		nodeByModelID[modelID] = n
	}

	for modelID, n := range nodeByModelID {
		for _, childID := range childrenOf(doc, modelID) {
			if geoEl, ok := doc.geometries[childID]; ok {
				if _, already := geomSceneIndex[childID]; !already {
					m := lowerGeometry(geoEl, materialForGeometry(modelID))
					geomSceneIndex[childID] = sc.AddMesh(m)
				}
				n.Meshes = append(n.Meshes, geomSceneIndex[childID])
			}
		}
	}

	// Build the node hierarchy from Model->Model OO connections; a Model
	// whose parent is the implicit root object (id 0, never present in
	// doc.models) becomes a top-level child of sc.Root.
	attached := make(map[int64]bool)
	for modelID, n := range nodeByModelID {
		for _, parentID := range doc.childToParents[modelID] {
			if parentNode, ok := nodeByModelID[parentID]; ok {
				parentNode.AddChild(n)
				attached[modelID] = true
			}
		}
	}
	for modelID, n := range nodeByModelID {
		if !attached[modelID] {
			sc.Root.AddChild(n)
		}
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// childrenOf returns every object id connected to parentID via an OO
// connection, i.e. parentID appears as the connection's own parent.
func childrenOf(doc *document, parentID int64) []int64 {
	var out []int64
	for childID, parents := range doc.childToParents {
		for _, p := range parents {
			if p == parentID {
				out = append(out, childID)
			}
		}
	}
	return out
}
