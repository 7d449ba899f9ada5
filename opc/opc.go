// Package opc layers Open Packaging Conventions relationship resolution
// over a ziparchive.Archive to expose a logical "root part" and any
// embedded auxiliary textures, per §4.4. [Content_Types].xml is not read.
package opc

import (
	"bytes"
	"strings"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/util/logger"
	"github.com/assetforge/sceneforge/xmltree"
	"github.com/assetforge/sceneforge/ziparchive"
)

var log = logger.New("OPC", logger.Default)

// RootPartRelationshipType is the 3MF root-model relationship type.
const RootPartRelationshipType = "http://schemas.microsoft.com/3dmanufacturing/2013/01/3dmodel"

// AuxTexture is an eagerly-loaded embedded texture discovered during
// package enumeration (currently: anything under a path containing
// "thumbnail" with a .jpg/.png extension).
type AuxTexture struct {
	Path       string
	Data       []byte
	FormatHint string
}

// Package is an opened OPC container: a ZIP archive plus its resolved
// root part and any auxiliary textures collected along the way.
type Package struct {
	Archive      *ziparchive.Archive
	RootPartPath string
	AuxTextures  []AuxTexture
}

type relationship struct {
	id, relType, target string
}

// Open reads path as a ZIP archive through fs, resolves _rels/.rels and
// the root part, and eagerly collects thumbnail textures.
func Open(fs ioset.FileSystem, path string) (*Package, error) {
	archive, err := ziparchive.Open(fs, path)
	if err != nil {
		return nil, err
	}
	return OpenArchive(archive)
}

// OpenArchive builds a Package from an already-opened ZIP archive.
func OpenArchive(archive *ziparchive.Archive) (*Package, error) {
	rels, err := readRelationships(archive)
	if err != nil {
		return nil, err
	}

	var rootPart string
	for _, r := range rels {
		if r.relType == RootPartRelationshipType {
			rootPart = stripLeadingSlashes(r.target, 2)
			break
		}
	}
	if rootPart == "" {
		return nil, asserr.New(asserr.MalformedInput, "OPC package has no 3dmodel relationship")
	}
	if !archive.Exists(rootPart) {
		return nil, asserr.New(asserr.MalformedInput, "OPC root part %q does not exist in archive", rootPart)
	}

	pkg := &Package{Archive: archive, RootPartPath: rootPart}
	for _, name := range archive.Names() {
		if !isThumbnailImage(name) {
			continue
		}
		data, err := archive.ReadAll(name)
		if err != nil {
			// Unreadable auxiliary entries are logged and skipped, not
			// fatal to the package per §4.4.
			log.Warn("skipping unreadable auxiliary entry %s: %v", name, err)
			continue
		}
		pkg.AuxTextures = append(pkg.AuxTextures, AuxTexture{Path: name, Data: data, FormatHint: "png"})
	}
	return pkg, nil
}

// RootStream returns a fresh reader over the resolved root part.
func (p *Package) RootStream() ([]byte, error) {
	return p.Archive.ReadAll(p.RootPartPath)
}

// Validate reports whether the package's root part still resolves, per
// §4.4's validate() contract.
func (p *Package) Validate() bool {
	return p.Archive.Exists(p.RootPartPath)
}

// stripLeadingSlashes removes up to max leading '/' characters from
// target. This is the documented zip-bug workaround of §4.4/§9: the
// underlying bug is undocumented upstream, so the behaviour — strip up
// to two, no more, no less — is preserved literally rather than
// generalized to "strip all leading slashes".
func stripLeadingSlashes(target string, max int) string {
	for i := 0; i < max && strings.HasPrefix(target, "/"); i++ {
		target = target[1:]
	}
	return target
}

func isThumbnailImage(path string) bool {
	lower := strings.ToLower(path)
	if !strings.Contains(lower, "thumbnail") {
		return false
	}
	return strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".png")
}

// readRelationships parses _rels/.rels and collects every well-formed
// Relationship element; entries missing id/type/target are silently
// discarded per §4.4 step 1.
func readRelationships(archive *ziparchive.Archive) ([]relationship, error) {
	data, err := archive.ReadAll("_rels/.rels")
	if err != nil {
		return nil, asserr.Wrap(asserr.MalformedInput, err, "reading _rels/.rels")
	}
	root, err := xmltree.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var rels []relationship
	for _, n := range root.ChildrenNamed("Relationship") {
		id, ok1 := n.Attr("Id")
		typ, ok2 := n.Attr("Type")
		target, ok3 := n.Attr("Target")
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		rels = append(rels, relationship{id: id, relType: typ, target: target})
	}
	return rels, nil
}
