package scene

// Texture is a tagged union: either an external file reference (Path set,
// Data nil) or an embedded byte buffer (Data set, Path empty). This must
// stay recognisable to consumers per §3.1 — IsEmbedded is the
// discriminator, never "Path == """ alone, since a malformed importer
// could in principle leave both unset.
type Texture struct {
	Path       string // external path, relative to the import root
	Data       []byte // embedded bytes, when not external
	FormatHint string // 4-character lowercase hint: "png", "jpg", "dds", ...

	// Width/Height are set for decoded textures. For compressed-in-memory
	// textures (FormatHint naming a container assimp-style codecs don't
	// decode on the spot, e.g. "dds"), Height == 0 and Width == len(Data);
	// see IsCompressed.
	Width  int
	Height int
}

// IsEmbedded reports whether the texture carries its bytes inline rather
// than referencing an external file.
func (t *Texture) IsEmbedded() bool { return t.Data != nil }

// IsCompressed reports whether this is a compressed-in-memory texture per
// invariant 9 in §3.3: an embedded texture whose Height is zero, meaning
// Width instead carries the raw byte length.
func (t *Texture) IsCompressed() bool { return t.IsEmbedded() && t.Height == 0 }

// NewExternalTexture creates a texture referencing an external file.
func NewExternalTexture(path string) *Texture {
	return &Texture{Path: path}
}

// NewEmbeddedTexture creates a texture owning its bytes, with Width and
// Height left at zero; callers that know the decoded dimensions call
// SetDecodedSize afterward, and callers keeping compressed bytes call
// SetCompressed.
func NewEmbeddedTexture(data []byte, formatHint string) *Texture {
	return &Texture{Data: data, FormatHint: formatHint}
}

// SetDecodedSize marks the texture as decoded with known pixel dimensions.
func (t *Texture) SetDecodedSize(width, height int) {
	t.Width, t.Height = width, height
}

// SetCompressed marks the texture as compressed-in-memory: Width becomes
// the byte length and Height becomes zero, satisfying invariant 9.
func (t *Texture) SetCompressed() {
	t.Width = len(t.Data)
	t.Height = 0
}
