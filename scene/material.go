package scene

import "github.com/assetforge/sceneforge/math32"

// WrapMode is a texture map's edge-of-UV behaviour.
type WrapMode int

const (
	WrapClamp WrapMode = iota
	WrapRepeat
	WrapMirrored
)

// FilterMode is a texture map's sampling filter.
type FilterMode int

const (
	FilterDefault FilterMode = iota
	FilterNearest
	FilterLinear
)

// MapType names what a TextureMap binds (diffuse, normal, ...). It is a
// string rather than a closed enum because codecs (glTF's
// metallic-roughness, COLLADA's diffuse/specular, AMF's single texture)
// each bring their own vocabulary; the registry does not police it.
type MapType string

const (
	MapDiffuse            MapType = "diffuse"
	MapSpecular           MapType = "specular"
	MapNormal             MapType = "normal"
	MapEmissive           MapType = "emissive"
	MapMetallicRoughness  MapType = "metallic_roughness"
	MapOcclusion          MapType = "occlusion"
)

// TextureMap binds a texture into a material at a given UV set with
// per-axis wrapping and optional filtering.
type TextureMap struct {
	MapType      MapType
	TextureIndex int
	UVSet        int
	WrapU, WrapV, WrapW WrapMode
	MinFilter, MagFilter FilterMode
}

// PropertyKind tags the payload of a MaterialProperty.
type PropertyKind int

const (
	PropScalar PropertyKind = iota
	PropColor3
	PropColor4
	PropString
	PropInt
)

// MaterialProperty is one entry of a material's typed property bag.
type MaterialProperty struct {
	Kind   PropertyKind
	Scalar float32
	Color3 math32.Vector3
	Color4 math32.Vector4
	Str    string
	Int    int
}

func ScalarProperty(v float32) MaterialProperty   { return MaterialProperty{Kind: PropScalar, Scalar: v} }
func Color3Property(v math32.Vector3) MaterialProperty { return MaterialProperty{Kind: PropColor3, Color3: v} }
func Color4Property(v math32.Vector4) MaterialProperty { return MaterialProperty{Kind: PropColor4, Color4: v} }
func StringProperty(v string) MaterialProperty    { return MaterialProperty{Kind: PropString, Str: v} }
func IntProperty(v int) MaterialProperty          { return MaterialProperty{Kind: PropInt, Int: v} }

// Material is a named bag of typed properties plus texture map bindings.
type Material struct {
	Name       string
	Properties map[string]MaterialProperty
	Maps       []TextureMap
}

// NewMaterial creates an empty, named material.
func NewMaterial(name string) *Material {
	return &Material{Name: name, Properties: make(map[string]MaterialProperty)}
}

// SetProperty sets (or replaces) a named property.
func (m *Material) SetProperty(name string, p MaterialProperty) {
	m.Properties[name] = p
}

// AddMap appends a texture map binding and returns its index within Maps.
func (m *Material) AddMap(tm TextureMap) int {
	m.Maps = append(m.Maps, tm)
	return len(m.Maps) - 1
}
