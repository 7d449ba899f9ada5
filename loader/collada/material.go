package collada

import (
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/xmltree"
)

// effectData is the subset of a <library_effects>/<effect> this codec
// cares about: the common profile's diffuse colour or texture reference.
type effectData struct {
	hasDiffuse     bool
	diffuse        math32.Vector4
	diffuseTexture string // sampler's surface's image id, resolved at parse time
}

func parseLibraryImages(lib *xmltree.Node, doc *document) {
	for _, img := range lib.ChildrenNamed("image") {
		id, _ := img.Attr("id")
		if init := img.Child("init_from"); init != nil {
			doc.images[id] = init.Text
		}
	}
}

func parseLibraryMaterials(lib *xmltree.Node, doc *document) {
	for _, mat := range lib.ChildrenNamed("material") {
		id, _ := mat.Attr("id")
		if ie := mat.Child("instance_effect"); ie != nil {
			if url, ok := ie.Attr("url"); ok {
				doc.materials[id] = trimHash(url)
			}
		}
	}
}

func parseLibraryEffects(lib *xmltree.Node, doc *document) {
	for _, eff := range lib.ChildrenNamed("effect") {
		id, _ := eff.Attr("id")
		profile := eff.Child("profile_COMMON")
		if profile == nil {
			continue
		}

		// newparam/sampler2D/source -> surface id -> init_from image id,
		// the indirection COLLADA uses between a <texture> reference and
		// the actual <image> it names.
		surfaceImage := make(map[string]string)
		samplerSurface := make(map[string]string)
		for _, np := range profile.ChildrenNamed("newparam") {
			sid, _ := np.Attr("sid")
			if surf := np.Child("surface"); surf != nil {
				if init := surf.Child("init_from"); init != nil {
					surfaceImage[sid] = init.Text
				}
			}
			if samp := np.Child("sampler2D"); samp != nil {
				if src := samp.Child("source"); src != nil {
					samplerSurface[sid] = src.Text
				}
			}
		}

		var data effectData
		technique := profile.Child("technique")
		if technique != nil {
			shading := firstNonNil(technique.Child("lambert"), technique.Child("phong"), technique.Child("blinn"), technique.Child("constant"))
			if shading != nil {
				if diffuse := shading.Child("diffuse"); diffuse != nil {
					if color := diffuse.Child("color"); color != nil {
						if v, ok := parseVec4(color.Text); ok {
							data.diffuse = v
							data.hasDiffuse = true
						}
					}
					if tex := diffuse.Child("texture"); tex != nil {
						if sampler, ok := tex.Attr("texture"); ok {
							if surf, ok := samplerSurface[sampler]; ok {
								data.diffuseTexture = surfaceImage[surf]
							}
						}
					}
				}
			}
		}
		doc.effects[id] = data
	}
}

func firstNonNil(nodes ...*xmltree.Node) *xmltree.Node {
	for _, n := range nodes {
		if n != nil {
			return n
		}
	}
	return nil
}

func parseVec4(text string) (math32.Vector4, bool) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return math32.Vector4{}, false
	}
	vals := make([]float32, 4)
	vals[3] = 1
	for i := 0; i < len(fields) && i < 4; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math32.Vector4{}, false
		}
		vals[i] = float32(v)
	}
	return math32.Vector4{X: vals[0], Y: vals[1], Z: vals[2], W: vals[3]}, true
}
