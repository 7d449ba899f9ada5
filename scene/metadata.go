package scene

import "github.com/assetforge/sceneforge/math32"

// MetaKind tags the payload of a MetaValue.
type MetaKind int

const (
	MetaString MetaKind = iota
	MetaInt
	MetaLong
	MetaFloat
	MetaDouble
	MetaVec3
	MetaBool
	MetaMap
)

// MetaValue is one entry of a Metadata map: string -> typed value, where
// values may themselves be nested metadata maps.
type MetaValue struct {
	Kind   MetaKind
	Str    string
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Vec3   math32.Vector3
	Bool   bool
	Map    Metadata
}

// Metadata is a string-keyed map of typed values, used for top-level
// scene metadata and for nested metadata-typed entries.
type Metadata map[string]MetaValue

func StringMeta(v string) MetaValue          { return MetaValue{Kind: MetaString, Str: v} }
func IntMeta(v int32) MetaValue              { return MetaValue{Kind: MetaInt, Int: v} }
func LongMeta(v int64) MetaValue             { return MetaValue{Kind: MetaLong, Long: v} }
func FloatMeta(v float32) MetaValue          { return MetaValue{Kind: MetaFloat, Float: v} }
func DoubleMeta(v float64) MetaValue         { return MetaValue{Kind: MetaDouble, Double: v} }
func Vec3Meta(v math32.Vector3) MetaValue    { return MetaValue{Kind: MetaVec3, Vec3: v} }
func BoolMeta(v bool) MetaValue              { return MetaValue{Kind: MetaBool, Bool: v} }
func MapMeta(v Metadata) MetaValue           { return MetaValue{Kind: MetaMap, Map: v} }
