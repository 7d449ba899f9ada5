package mdlhl1

import "github.com/assetforge/sceneforge/asserr"

// Magic is the four-byte "IDST" little-endian ident every HL1 .mdl file,
// main or sequence-group, begins with.
const Magic uint32 = 0x54534449

// Version is the only studio model version this importer understands.
const Version = 10

// header mirrors studiohdr_t's fixed 244-byte layout, read field by field
// rather than overlaid, since Go has no portable packed-struct cast.
type header struct {
	name                                   string
	numbones, boneindex                    int
	numbonecontrollers, bonecontrollerindex int
	numhitboxes, hitboxindex               int
	numseq, seqindex                       int
	numseqgroups, seqgroupindex            int
	numtextures, textureindex              int
	texturedataindex                       int
	numskinref, numskinfamilies, skinindex int
	numbodyparts, bodypartindex            int
	numattachments, attachmentindex        int
}

func parseHeader(r *reader) (*header, error) {
	ident, err := r.uint32At(0)
	if err != nil {
		return nil, err
	}
	if ident != Magic {
		return nil, asserr.New(asserr.UnknownFormat, "missing IDST magic")
	}
	version, err := r.int32At(4)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, asserr.New(asserr.UnsupportedVariant, "unsupported MDL version %d, want %d", version, Version)
	}

	h := &header{}
	var ierr error
	read := func(off int) int {
		v, e := r.int32At(off)
		if e != nil && ierr == nil {
			ierr = e
		}
		return int(v)
	}
	h.name, ierr = r.stringAt(8, 64)
	if ierr != nil {
		return nil, ierr
	}
	h.numbones = read(140)
	h.boneindex = read(144)
	h.numbonecontrollers = read(148)
	h.bonecontrollerindex = read(152)
	h.numhitboxes = read(156)
	h.hitboxindex = read(160)
	h.numseq = read(164)
	h.seqindex = read(168)
	h.numseqgroups = read(172)
	h.seqgroupindex = read(176)
	h.numtextures = read(180)
	h.textureindex = read(184)
	h.texturedataindex = read(188)
	h.numskinref = read(192)
	h.numskinfamilies = read(196)
	h.skinindex = read(200)
	h.numbodyparts = read(204)
	h.bodypartindex = read(208)
	h.numattachments = read(212)
	h.attachmentindex = read(216)
	if ierr != nil {
		return nil, ierr
	}
	return h, nil
}
