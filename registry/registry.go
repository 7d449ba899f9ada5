// Package registry holds the importer/exporter descriptors and the
// extension/signature dispatch algorithm every format in loader/ is
// reached through. It generalizes the teacher's single hard-wired
// "loader.obj.Decode" call site into the kind of name+extension+sniff
// registry a multi-format pipeline needs, the way the rest of this
// module's codecs already share one Scene IR instead of one loader per
// render path.
package registry

import (
	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/util/logger"
)

var log = logger.New("REGISTRY", logger.Default)

// ImporterFlag classifies an importer's shape, mirroring the descriptive
// flags the dispatch algorithm's callers use to filter or warn on a
// format before even attempting to read it.
type ImporterFlag uint32

const (
	TextFlavour ImporterFlag = 1 << iota
	BinaryFlavour
	CompressedFlavour
	LimitedSupport
	Experimental
)

// Importer describes one registered format reader.
type Importer struct {
	Name       string
	Extensions []string // lowercase, without the leading dot
	Flags      ImporterFlag
	// CanRead is the format's signature test. forceCheck is true when the
	// extension-filtered candidate list has more than one entry, asking
	// the importer to look past a merely-plausible extension match and
	// actually inspect the bytes.
	CanRead func(data []byte, forceCheck bool) bool
	// Read decodes path (opened through fs) into a Scene.
	Read func(fs ioset.FileSystem, path string) (*scene.Scene, error)
}

// Exporter describes one registered format writer, selected only by an
// explicit format identifier — exporters are never sniffed.
type Exporter struct {
	Name      string
	Extension string
	Write     func(sc *scene.Scene, w WriteSeeker) error
}

// WriteSeeker is the minimal surface an exporter needs; most exporters
// only need io.Writer, but keeping the alias here lets a future exporter
// seek back to patch a header without changing every signature.
type WriteSeeker interface {
	Write(p []byte) (int, error)
}

// Hints carries the per-call overrides to the dispatch algorithm.
type Hints struct {
	// ExplicitFormat, when non-empty, names an Importer.Name that is
	// selected unconditionally, skipping extension filtering and CanRead.
	ExplicitFormat string
}

// PostProcessRunner applies the configured post-process pipeline to sc
// after a successful import. Registry cannot import package postprocess
// directly (postprocess already imports registry, for *Properties), so
// this callback is how the two are wired together by whichever package
// owns both — see SetPostProcessRunner.
type PostProcessRunner func(sc *scene.Scene, props *Properties) error

// Registry holds every known importer and exporter in stable registration
// order; order is significant; it is how can_read ties are broken.
type Registry struct {
	importers   []Importer
	exporters   []Exporter
	props       *Properties
	postProcess PostProcessRunner
}

// New returns an empty Registry with a zero-value Properties store.
func New() *Registry {
	return &Registry{props: NewProperties()}
}

// SetPostProcessRunner installs the callback Import invokes on a scene it
// has just decoded, before returning it, so that "import, then apply the
// configured post-process pipeline" is satisfied by a single call to
// Import rather than split across two calls the caller has to remember to
// chain. A nil runner (the default) leaves Import's behavior unchanged.
func (r *Registry) SetPostProcessRunner(run PostProcessRunner) {
	r.postProcess = run
}

// RegisterImporter appends im to the end of the registration order.
func (r *Registry) RegisterImporter(im Importer) {
	r.importers = append(r.importers, im)
}

// RegisterExporter appends ex to the end of the registration order.
func (r *Registry) RegisterExporter(ex Exporter) {
	r.exporters = append(r.exporters, ex)
}

// Properties returns the Registry's shared configuration store.
func (r *Registry) Properties() *Properties { return r.props }

// Import runs the dispatch algorithm and, on success, applies the
// configured post-process pipeline (SetPostProcessRunner) before
// returning the scene — the one entry point a caller needs for
// "import, then post-process". An explicit format hint wins outright;
// otherwise importers are filtered by extension (or left unfiltered if
// none match), then probed in registration order via CanRead, the first
// match winning. force_check is passed as true whenever more than one
// importer remains in the candidate list.
func (r *Registry) Import(fs ioset.FileSystem, path string, hints Hints) (*scene.Scene, error) {
	sc, err := r.dispatch(fs, path, hints)
	if err != nil {
		return nil, err
	}
	if r.postProcess != nil {
		if err := r.postProcess(sc, r.props); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// dispatch selects and runs the matching importer, without post-processing.
func (r *Registry) dispatch(fs ioset.FileSystem, path string, hints Hints) (*scene.Scene, error) {
	if hints.ExplicitFormat != "" {
		for _, im := range r.importers {
			if im.Name == hints.ExplicitFormat {
				return im.Read(fs, path)
			}
		}
		return nil, asserr.New(asserr.UnknownFormat, "no importer registered with name %q", hints.ExplicitFormat)
	}

	ext := ioset.Ext(path)
	candidates := r.importersForExtension(ext)

	data, err := peek(fs, path)
	if err != nil {
		return nil, err
	}

	forceCheck := len(candidates) > 1
	for _, im := range candidates {
		if im.CanRead(data, forceCheck) {
			return im.Read(fs, path)
		}
	}
	return nil, asserr.New(asserr.UnknownFormat, "no importer accepted %s", path)
}

// importersForExtension returns every importer whose Extensions set
// contains ext, preserving registration order; if none match, every
// registered importer is returned instead, per the dispatch algorithm's
// "filter by extension, or consider all" fallback.
func (r *Registry) importersForExtension(ext string) []Importer {
	var matched []Importer
	for _, im := range r.importers {
		for _, e := range im.Extensions {
			if e == ext {
				matched = append(matched, im)
				break
			}
		}
	}
	if len(matched) == 0 {
		return r.importers
	}
	return matched
}

// peek reads path's full contents. Signature tests need the actual bytes,
// not just the extension, so there is no cheaper partial read available
// through the ioset.FileSystem abstraction.
func peek(fs ioset.FileSystem, path string) ([]byte, error) {
	f, err := fs.Open(path, ioset.ReadBinary)
	if err != nil {
		return nil, asserr.Wrap(asserr.IoError, err, "opening %s", path)
	}
	defer f.Close()
	return ioset.ReadAll(f)
}

// Export selects the exporter named format unconditionally — exporters
// are keyed by an explicit identifier, symmetric with Import's
// ExplicitFormat path, but never sniffed, since there is no output to
// inspect.
func (r *Registry) Export(sc *scene.Scene, w WriteSeeker, format string) error {
	for _, ex := range r.exporters {
		if ex.Name == format {
			return ex.Write(sc, w)
		}
	}
	return asserr.New(asserr.UnknownFormat, "no exporter registered with name %q", format)
}

// ImporterNames returns every registered importer's Name in registration
// order, for diagnostics (e.g. a CLI's --list-formats flag).
func (r *Registry) ImporterNames() []string {
	names := make([]string, len(r.importers))
	for i, im := range r.importers {
		names[i] = im.Name
	}
	return names
}

// ExporterNames returns every registered exporter's Name in registration
// order.
func (r *Registry) ExporterNames() []string {
	names := make([]string, len(r.exporters))
	for i, ex := range r.exporters {
		names[i] = ex.Name
	}
	return names
}
