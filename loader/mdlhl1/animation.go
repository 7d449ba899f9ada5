package mdlhl1

import (
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
)

const (
	sequenceDescSize  = 176
	sequenceGroupSize = 104
	animOffsetSize    = 12 // AnimValueOffset_HL1: six uint16 channel offsets
)

type sequenceDesc struct {
	label     string
	fps       float32
	numframes int
	seqgroup  int
	animindex int
}

func parseSequences(r *reader, h *header) ([]sequenceDesc, error) {
	seqs := make([]sequenceDesc, h.numseq)
	for i := range seqs {
		off := h.seqindex + i*sequenceDescSize
		label, err := r.stringAt(off, 32)
		if err != nil {
			return nil, err
		}
		fps, err := r.float32At(off + 32)
		if err != nil {
			return nil, err
		}
		numframes, err := r.int32At(off + 56)
		if err != nil {
			return nil, err
		}
		animindex, err := r.int32At(off + 124)
		if err != nil {
			return nil, err
		}
		seqgroup, err := r.int32At(off + 156)
		if err != nil {
			return nil, err
		}
		seqs[i] = sequenceDesc{label: label, fps: fps, numframes: int(numframes), seqgroup: int(seqgroup), animindex: int(animindex)}
	}
	return seqs, nil
}

// sequenceGroupDataOffset returns sequence group i's "unused2" (formerly
// "data") field, added to a sequence's animindex to form the absolute
// offset of its AnimValueOffset_HL1 array. StudioMDL always writes this
// as 0 for the embedded group 0, which is the only group this importer
// reads; it is read rather than assumed so a file that happens to set it
// is still honoured.
func sequenceGroupDataOffset(r *reader, h *header, group int) (int, error) {
	off := h.seqgroupindex + group*sequenceGroupSize
	v, err := r.int32At(off + 100)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// extractAnimValue decodes one compressed per-frame channel value from the
// run-length-encoded AnimValue_HL1 stream starting at the byte offset
// base. Each 2-byte slot is either a (valid, total) run header or a raw
// int16 sample; the loop walks run headers until it reaches the one
// spanning frame, then returns either the frame's own delta sample or,
// once past the run's valid samples, its last one held flat.
func extractAnimValue(r *reader, base, frame int, boneScale float32) (float32, error) {
	k := frame
	idx := 0
	for {
		total, err := r.byteAt(base + idx*2 + 1)
		if err != nil {
			return 0, err
		}
		if int(total) > k {
			break
		}
		k -= int(total)
		valid, err := r.byteAt(base + idx*2)
		if err != nil {
			return 0, err
		}
		idx += int(valid) + 1
	}
	valid, err := r.byteAt(base + idx*2)
	if err != nil {
		return 0, err
	}
	sampleIdx := idx + int(valid)
	if int(valid) > k {
		sampleIdx = idx + 1 + k
	}
	v, err := r.int16At(base + sampleIdx*2)
	if err != nil {
		return 0, err
	}
	return float32(v) * boneScale, nil
}

// lowerSequence decodes one sequence's per-bone, per-frame compressed
// keyframes into an Animation with one Channel per bone. Only sequences
// in group 0 (embedded in the main file) are supported; a sequence
// stored in a demand-loaded external group is skipped (nil, nil).
//
// Rotation keys are built directly from the decoded Euler angles without
// the original loader's HL1-specific axis remap (it reorders the decoded
// angles to account for HL1's X-forward/Z-up convention vs. assimp's
// Y-up); this importer keeps the file's own axes instead.
func lowerSequence(r *reader, h *header, seq sequenceDesc, bones []bone) (*scene.Animation, error) {
	if seq.seqgroup != 0 {
		return nil, nil
	}
	groupBase, err := sequenceGroupDataOffset(r, h, 0)
	if err != nil {
		return nil, err
	}
	animBase := groupBase + seq.animindex

	anim := scene.NewAnimation(seq.label, float64(seq.fps))
	anim.DurationTicks = float64(seq.numframes - 1)
	if anim.DurationTicks < 0 {
		anim.DurationTicks = 0
	}

	for bi := range bones {
		recordOff := animBase + bi*animOffsetSize
		offsets := [6]uint16{}
		for j := 0; j < 6; j++ {
			v, err := r.uint16At(recordOff + j*2)
			if err != nil {
				return nil, err
			}
			offsets[j] = v
		}

		ch := scene.Channel{NodeName: bones[bi].name}
		for frame := 0; frame < seq.numframes; frame++ {
			var posVal, rotVal [3]float32
			for j := 0; j < 3; j++ {
				v := bones[bi].value[j]
				if offsets[j] != 0 {
					d, err := extractAnimValue(r, recordOff+int(offsets[j]), frame, bones[bi].scale[j])
					if err != nil {
						return nil, err
					}
					v += d
				}
				posVal[j] = v
			}
			for j := 0; j < 3; j++ {
				v := bones[bi].value[3+j]
				if offsets[3+j] != 0 {
					d, err := extractAnimValue(r, recordOff+int(offsets[3+j]), frame, bones[bi].scale[3+j])
					if err != nil {
						return nil, err
					}
					v += d
				}
				rotVal[j] = v
			}

			t := float64(frame)
			ch.PositionKeys = append(ch.PositionKeys, scene.Vector3Key{
				Time:  t,
				Value: math32.Vector3{X: posVal[0], Y: posVal[1], Z: posVal[2]},
			})
			var q math32.Quaternion
			q.SetFromEuler(&math32.Vector3{X: rotVal[0], Y: rotVal[1], Z: rotVal[2]})
			ch.RotationKeys = append(ch.RotationKeys, scene.QuatKey{Time: t, Value: q})
		}
		anim.AddChannel(ch)
	}
	return anim, nil
}
