package amf

import "github.com/assetforge/sceneforge/asserr"

// base64Alphabet is the standard RFC 4648 alphabet AMF texture payloads
// are encoded with.
const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64DecodeTable [256]int8

func init() {
	for i := range base64DecodeTable {
		base64DecodeTable[i] = -1
	}
	for i, c := range []byte(base64Alphabet) {
		base64DecodeTable[c] = int8(i)
	}
}

// base64Encode encodes data with the standard RFC 4648 alphabet and '='
// padding, the counterpart decodeBase64 must round-trip against.
func base64Encode(data []byte) string {
	out := make([]byte, 0, (len(data)+2)/3*4)
	for i := 0; i < len(data); i += 3 {
		var b [3]byte
		n := copy(b[:], data[i:])
		out = append(out,
			base64Alphabet[b[0]>>2],
			base64Alphabet[(b[0]&0x03)<<4|b[1]>>4],
		)
		if n > 1 {
			out = append(out, base64Alphabet[(b[1]&0x0f)<<2|b[2]>>6])
		} else {
			out = append(out, '=')
		}
		if n > 2 {
			out = append(out, base64Alphabet[b[2]&0x3f])
		} else {
			out = append(out, '=')
		}
	}
	return string(out)
}

// decodeBase64 decodes s per §4.6: the standard alphabet, plus the
// tolerant rule "ignore any non-alphabet byte" (whitespace inserted by a
// line-wrapped AMF texture body is the common case). Padding is still
// checked: the count of non-ignored, non-'=' characters plus '=' padding
// must form a multiple of 4, per the "base64 padding" testable property
// in §8.4.
func decodeBase64(s string) ([]byte, error) {
	var clean []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '=' {
			clean = append(clean, c)
			continue
		}
		if base64DecodeTable[c] >= 0 {
			clean = append(clean, c)
		}
		// any other byte (whitespace, newline, stray punctuation) is
		// silently dropped rather than rejected.
	}
	if len(clean)%4 != 0 {
		return nil, asserr.New(asserr.MalformedInput, "base64 payload length %d is not a multiple of 4 after stripping non-alphabet bytes", len(clean))
	}
	out := make([]byte, 0, len(clean)/4*3)
	for i := 0; i < len(clean); i += 4 {
		var quad [4]byte
		padding := 0
		for j := 0; j < 4; j++ {
			c := clean[i+j]
			if c == '=' {
				padding++
				quad[j] = 0
				continue
			}
			quad[j] = byte(base64DecodeTable[c])
		}
		out = append(out, quad[0]<<2|quad[1]>>4)
		if padding < 2 {
			out = append(out, quad[1]<<4|quad[2]>>2)
		}
		if padding < 1 {
			out = append(out, quad[2]<<6|quad[3])
		}
	}
	return out, nil
}
