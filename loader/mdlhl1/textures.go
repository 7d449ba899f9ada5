package mdlhl1

import "github.com/assetforge/sceneforge/scene"

const textureRecordSize = 80

// studioTexture is one parsed Texture_HL1 record. index is treated as an
// absolute file offset: this importer only supports textures embedded in
// the main .mdl file, not the demand-loaded external .T texture file HL1
// uses for some models.
type studioTexture struct {
	name          string
	flags         int
	width, height int
	index         int
}

const maskedFlag = 0x0040 // AI_MDL_HL1_STUDIO_NF_MASKED: palette index 255 is a transparency key

func parseTextures(r *reader, h *header) ([]studioTexture, error) {
	textures := make([]studioTexture, h.numtextures)
	for i := range textures {
		off := h.textureindex + i*textureRecordSize
		name, err := r.stringAt(off, 64)
		if err != nil {
			return nil, err
		}
		flags, err := r.int32At(off + 64)
		if err != nil {
			return nil, err
		}
		width, err := r.int32At(off + 68)
		if err != nil {
			return nil, err
		}
		height, err := r.int32At(off + 72)
		if err != nil {
			return nil, err
		}
		index, err := r.int32At(off + 76)
		if err != nil {
			return nil, err
		}
		textures[i] = studioTexture{name: name, flags: int(flags), width: int(width), height: int(height), index: int(index)}
	}
	return textures, nil
}

// decodeTexture converts a paletted HL1 texture (width*height index bytes
// followed by a 256-entry RGB palette) into an embedded RGBA scene.Texture.
func decodeTexture(r *reader, t studioTexture) (*scene.Texture, error) {
	pixelCount := t.width * t.height
	paletteOff := t.index + pixelCount
	rgba := make([]byte, pixelCount*4)
	for i := 0; i < pixelCount; i++ {
		idx, err := r.byteAt(t.index + i)
		if err != nil {
			return nil, err
		}
		rOff := paletteOff + int(idx)*3
		rv, err := r.byteAt(rOff)
		if err != nil {
			return nil, err
		}
		gv, err := r.byteAt(rOff + 1)
		if err != nil {
			return nil, err
		}
		bv, err := r.byteAt(rOff + 2)
		if err != nil {
			return nil, err
		}
		alpha := byte(255)
		if t.flags&maskedFlag != 0 && idx == 255 {
			alpha = 0
		}
		rgba[i*4+0] = rv
		rgba[i*4+1] = gv
		rgba[i*4+2] = bv
		rgba[i*4+3] = alpha
	}
	tex := scene.NewEmbeddedTexture(rgba, "rgba")
	tex.SetDecodedSize(t.width, t.height)
	return tex, nil
}
