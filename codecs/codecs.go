// Package codecs wires every concrete importer/exporter into a
// registry.Registry. It exists as its own package, separate from
// registry itself, because each codec package imports registry (for
// registry.Properties) — registry importing the codecs back would be a
// cycle.
package codecs

import (
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/loader/amf"
	"github.com/assetforge/sceneforge/loader/collada"
	"github.com/assetforge/sceneforge/loader/fbx"
	"github.com/assetforge/sceneforge/loader/mdlhl1"
	"github.com/assetforge/sceneforge/loader/threemf"
	"github.com/assetforge/sceneforge/registry"
	"github.com/assetforge/sceneforge/scene"
)

// Register adds every importer and exporter this module ships to r.
// mdlhl1's importer closes over r.Properties() since, unlike the other
// codecs, it needs config at read time rather than relying solely on
// post-import postprocess passes.
func Register(r *registry.Registry) {
	r.RegisterImporter(registry.Importer{
		Name:       "AMF",
		Extensions: []string{"amf"},
		Flags:      registry.TextFlavour,
		CanRead:    func(data []byte, forceCheck bool) bool { return amf.CanRead(data) },
		Read:       amf.Open,
	})
	r.RegisterImporter(registry.Importer{
		Name:       "3MF",
		Extensions: []string{"3mf"},
		Flags:      registry.BinaryFlavour | registry.CompressedFlavour,
		CanRead:    func(data []byte, forceCheck bool) bool { return threemf.CanRead(data) },
		Read:       threemf.Open,
	})
	r.RegisterImporter(registry.Importer{
		Name:       "COLLADA",
		Extensions: []string{"dae"},
		Flags:      registry.TextFlavour,
		CanRead:    func(data []byte, forceCheck bool) bool { return collada.CanRead(data) },
		Read:       collada.Open,
	})
	r.RegisterImporter(registry.Importer{
		Name:       "FBX",
		Extensions: []string{"fbx"},
		Flags:      registry.BinaryFlavour,
		CanRead:    func(data []byte, forceCheck bool) bool { return fbx.CanRead(data) },
		Read:       fbx.Open,
	})
	r.RegisterImporter(registry.Importer{
		Name:       "MDL (HL1)",
		Extensions: []string{"mdl"},
		Flags:      registry.BinaryFlavour | registry.LimitedSupport,
		CanRead:    mdlhl1.CanRead,
		Read: func(fs ioset.FileSystem, path string) (*scene.Scene, error) {
			return mdlhl1.Open(fs, path, r.Properties())
		},
	})

	r.RegisterExporter(registry.Exporter{
		Name:      "3MF",
		Extension: "3mf",
		Write: func(sc *scene.Scene, w registry.WriteSeeker) error {
			return threemf.Export(sc, w)
		},
	})
	r.RegisterExporter(registry.Exporter{
		Name:      "COLLADA",
		Extension: "dae",
		Write: func(sc *scene.Scene, w registry.WriteSeeker) error {
			return collada.Export(sc, w)
		},
	})
}
