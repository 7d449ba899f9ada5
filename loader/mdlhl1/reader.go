// Package mdlhl1 imports Half-Life 1 Studio Model (.mdl) files: a single
// fixed-layout binary container holding a bone hierarchy, paletted
// textures, bodypart/model/mesh geometry addressed by vertex-bone
// assignment rather than per-vertex blend weights, and compressed
// per-bone keyframe sequences. It follows the same "decode a flat binary
// blob into typed records, then lower those records into a scene.Scene"
// shape fbxtok/loader/fbx uses for binary FBX, reading every record with
// explicit little-endian field access instead of unsafe struct overlays.
package mdlhl1

import (
	"encoding/binary"
	"math"

	"github.com/assetforge/sceneforge/asserr"
)

// reader is a small little-endian cursor over the whole file buffer.
// Every MDL chunk is addressed by an absolute byte offset from the start
// of the file, so reader never tracks a base; callers seek explicitly.
type reader struct {
	data []byte
	path string
}

func newReader(data []byte, path string) *reader {
	return &reader{data: data, path: path}
}

func (r *reader) require(off, n int) error {
	if off < 0 || n < 0 || off+n > len(r.data) {
		return asserr.Malformed(r.path, int64(off), "read of %d bytes overruns %d-byte file", n, len(r.data))
	}
	return nil
}

func (r *reader) int32At(off int) (int32, error) {
	if err := r.require(off, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(r.data[off:])), nil
}

func (r *reader) uint32At(off int) (uint32, error) {
	if err := r.require(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.data[off:]), nil
}

func (r *reader) uint16At(off int) (uint16, error) {
	if err := r.require(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.data[off:]), nil
}

func (r *reader) int16At(off int) (int16, error) {
	v, err := r.uint16At(off)
	return int16(v), err
}

func (r *reader) float32At(off int) (float32, error) {
	if err := r.require(off, 4); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint32(r.data[off:])
	return math.Float32frombits(bits), nil
}

func (r *reader) stringAt(off, maxLen int) (string, error) {
	if err := r.require(off, maxLen); err != nil {
		return "", err
	}
	raw := r.data[off : off+maxLen]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n]), nil
}

func (r *reader) byteAt(off int) (byte, error) {
	if err := r.require(off, 1); err != nil {
		return 0, err
	}
	return r.data[off], nil
}
