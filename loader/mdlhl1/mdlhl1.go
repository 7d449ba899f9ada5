package mdlhl1

import (
	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/registry"
	"github.com/assetforge/sceneforge/scene"
)

// CanRead sniffs data for the four-byte "IDST" ident every HL1 studio
// model begins with.
func CanRead(data []byte, forceCheck bool) bool {
	return len(data) >= 4 && data[0] == 'I' && data[1] == 'D' && data[2] == 'S' && data[3] == 'T'
}

// Open reads the HL1 studio model at path through fs and lowers it into
// a Scene, using props for the import.mdl.hl1.* toggles.
func Open(fs ioset.FileSystem, path string, props *registry.Properties) (*scene.Scene, error) {
	f, err := fs.Open(path, ioset.ReadBinary)
	if err != nil {
		return nil, asserr.Wrap(asserr.IoError, err, "opening %s", path)
	}
	defer f.Close()
	data, err := ioset.ReadAll(f)
	if err != nil {
		return nil, asserr.Wrap(asserr.IoError, err, "reading %s", path)
	}
	return Decode(data, path, props)
}

// Decode lowers one in-memory .mdl file into a Scene. Unlike the other
// importers in this module, HL1 needs runtime Properties to decide
// whether to decode materials and animations at all, since both are
// optional and comparatively expensive relative to this format's usual
// low-poly geometry.
func Decode(data []byte, path string, props *registry.Properties) (*scene.Scene, error) {
	r := newReader(data, path)
	h, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	sc := scene.New()
	sc.Root.Name = h.name

	bones, err := parseBones(r, h)
	if err != nil {
		return nil, err
	}
	buildSkeleton(bones, sc.Root)

	readMaterials := props == nil || props.Bool("import.mdl.hl1.read_materials", true)
	var textures []studioTexture
	materialIndex := make([]int, 0)

	defaultMaterial := -1
	getDefaultMaterial := func() int {
		if defaultMaterial < 0 {
			defaultMaterial = sc.AddMaterial(scene.NewMaterial("mdlhl1-default"))
		}
		return defaultMaterial
	}

	if readMaterials {
		textures, err = parseTextures(r, h)
		if err != nil {
			return nil, err
		}
		for _, t := range textures {
			tex, err := decodeTexture(r, t)
			if err != nil {
				return nil, err
			}
			texIdx := sc.AddTexture(tex)
			mat := scene.NewMaterial(t.name)
			mat.AddMap(scene.TextureMap{MapType: scene.MapDiffuse, TextureIndex: texIdx})
			materialIndex = append(materialIndex, sc.AddMaterial(mat))
		}
	}

	bodyparts, err := parseBodyparts(r, h)
	if err != nil {
		return nil, err
	}
	for _, bpOff := range bodyparts {
		nummodels, err := r.int32At(bpOff + 64)
		if err != nil {
			return nil, err
		}
		modelindex, err := r.int32At(bpOff + 72)
		if err != nil {
			return nil, err
		}
		for mi := 0; mi < int(nummodels); mi++ {
			modelOff := int(modelindex) + mi*modelRecordSize
			bindPose, err := loadBindPoseModel(r, modelOff, bones)
			if err != nil {
				return nil, err
			}
			nummesh, err := r.int32At(modelOff + 72)
			if err != nil {
				return nil, err
			}
			meshindex, err := r.int32At(modelOff + 76)
			if err != nil {
				return nil, err
			}
			for k := 0; k < int(nummesh); k++ {
				meshOff := int(meshindex) + k*meshRecordSize
				skinref, err := r.int32At(meshOff + 8)
				if err != nil {
					return nil, err
				}
				matIdx := getDefaultMaterial()
				texW, texH := 0, 0
				if readMaterials && int(skinref) < len(textures) {
					matIdx = materialIndex[skinref]
					texW = textures[skinref].width
					texH = textures[skinref].height
				}
				mesh, err := lowerMesh(r, meshOff, bindPose, bones, texW, texH, matIdx)
				if err != nil {
					return nil, err
				}
				if mesh == nil {
					continue
				}
				idx := sc.AddMesh(mesh)
				sc.Root.Meshes = append(sc.Root.Meshes, idx)
			}
		}
	}

	readAnimations := props != nil && props.Bool("import.mdl.hl1.read_animations", false)
	if readAnimations {
		seqs, err := parseSequences(r, h)
		if err != nil {
			return nil, err
		}
		for _, seq := range seqs {
			anim, err := lowerSequence(r, h, seq, bones)
			if err != nil {
				return nil, err
			}
			if anim == nil {
				continue
			}
			sc.AddAnimation(anim)
		}
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}
