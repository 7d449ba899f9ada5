package registry

// knownKeys lists every configuration key an importer or postprocess pass
// reads, used only to decide whether SetInt/SetBool/SetFloat/SetString
// should warn about a typo'd or unrecognised key. An unknown key is still
// stored (a forward-compatible caller may set it before its reader is
// registered): the setter logs a warning for it but never rejects it.
var knownKeys = map[string]bool{
	"import.fbx.read_all_geometry_layers":      true,
	"import.fbx.read_materials":                true,
	"import.mdl.hl1.read_animations":           true,
	"import.mdl.hl1.read_materials":            true,
	"import.global.measure_time":               true,
	"postprocess.limit_bone_weights.max_weights":    true,
	"postprocess.split_large_meshes.triangle_limit": true,
	"postprocess.split_large_meshes.vertex_limit":   true,
}

// Properties is a small typed key/value store, generalizing the
// teacher's per-decoder option struct (collada.Decoder.SetDirImages) into
// one shared configuration surface every importer and postprocess pass
// reads from instead of taking its own bespoke options argument.
type Properties struct {
	ints    map[string]int
	bools   map[string]bool
	floats  map[string]float64
	strings map[string]string
}

// NewProperties returns an empty Properties store.
func NewProperties() *Properties {
	return &Properties{
		ints:    make(map[string]int),
		bools:   make(map[string]bool),
		floats:  make(map[string]float64),
		strings: make(map[string]string),
	}
}

func warnIfUnknown(key string) {
	if !knownKeys[key] {
		log.Warn("registry: unrecognised configuration key %q", key)
	}
}

func (p *Properties) SetInt(key string, v int) {
	warnIfUnknown(key)
	p.ints[key] = v
}

func (p *Properties) SetBool(key string, v bool) {
	warnIfUnknown(key)
	p.bools[key] = v
}

func (p *Properties) SetFloat(key string, v float64) {
	warnIfUnknown(key)
	p.floats[key] = v
}

func (p *Properties) SetString(key string, v string) {
	warnIfUnknown(key)
	p.strings[key] = v
}

func (p *Properties) Int(key string, def int) int {
	if v, ok := p.ints[key]; ok {
		return v
	}
	return def
}

func (p *Properties) Bool(key string, def bool) bool {
	if v, ok := p.bools[key]; ok {
		return v
	}
	return def
}

func (p *Properties) Float(key string, def float64) float64 {
	if v, ok := p.floats[key]; ok {
		return v
	}
	return def
}

func (p *Properties) String(key string, def string) string {
	if v, ok := p.strings[key]; ok {
		return v
	}
	return def
}
