// Package fbxtok turns a binary FBX file into a flat stream of tokens a
// higher-level parser can consume without understanding the on-disk
// nested-scope layout, per §4.5. It follows the same "fixed header
// struct + length-prefixed chunk" idiom the teacher's glTF loader uses
// for GLB (GLBHeader/GLBChunk read with encoding/binary, magic checked,
// then each chunk's declared length trusted) applied to FBX's recursive
// scope records instead of GLB's flat two-chunk layout.
package fbxtok

import (
	"encoding/binary"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/util/logger"
)

var log = logger.New("FBXTOK", logger.Default)

// Magic is the literal 18-byte header every binary FBX file begins with.
const Magic = "Kaydara FBX Binary"

// headerLen is the offset at which the first scope record begins: the
// 18-byte magic plus 9 bytes of padding.
const headerLen = 0x1b

// TokenType enumerates the flat token stream emitted by Tokenize.
type TokenType int

const (
	KEY TokenType = iota
	DATA
	COMMA
	OpenBracket
	CloseBracket
)

func (t TokenType) String() string {
	switch t {
	case KEY:
		return "KEY"
	case DATA:
		return "DATA"
	case COMMA:
		return "COMMA"
	case OpenBracket:
		return "OPEN_BRACKET"
	case CloseBracket:
		return "CLOSE_BRACKET"
	default:
		return "?"
	}
}

// Token is one element of the flat stream. Payload is a slice into the
// caller's original input, never a copy (§4.5: "does not allocate owning
// copies of payloads"). PropType is only meaningful for DATA tokens.
type Token struct {
	Type    TokenType
	Name    string // KEY only
	Payload []byte // DATA only: the raw property payload bytes
	PropType byte  // DATA only: one of Y C I F D L R S b f d l i
	Offset  int64  // file offset the token started at, for diagnostics

	// ArrayCount and ArrayEncoding are only meaningful when PropType is a
	// typed-array code (b f d l i): the element count declared in the
	// array header, and 0 (raw) or 1 (zlib-deflated) for how Payload is
	// laid out. A consumer must inflate Payload itself when Encoding==1;
	// Tokenize never decompresses.
	ArrayCount    uint32
	ArrayEncoding uint32
}

// property type stride, for encoding==0 (raw) typed arrays. ok is false
// for the tolerant-fallback 'b' code, which the tokenizer never
// interprets (see §9).
func arrayStride(code byte) (stride int, ok bool) {
	switch code {
	case 'f':
		return 4, true
	case 'd':
		return 8, true
	case 'l':
		return 8, true
	case 'i':
		return 4, true
	default:
		return 0, false
	}
}

func scalarLen(code byte) (int, bool) {
	switch code {
	case 'Y':
		return 2, true
	case 'C':
		return 1, true
	case 'I':
		return 4, true
	case 'F':
		return 4, true
	case 'D':
		return 8, true
	case 'L':
		return 8, true
	default:
		return 0, false
	}
}

func isArrayCode(code byte) bool {
	switch code {
	case 'b', 'f', 'd', 'l', 'i':
		return true
	}
	return false
}

// scope is one stack frame of an open (currently being read) nested scope.
type scope struct {
	endOffset uint32
}

// Tokenize turns the entirety of data into a flat token stream. Recursion
// is converted into an explicit work stack (one scope frame per nesting
// level) rather than native call recursion, per the Design Notes'
// stack-overflow-hazard guidance.
func Tokenize(data []byte) ([]Token, error) {
	if len(data) < headerLen {
		return nil, asserr.Malformed("", 0, "file shorter than FBX binary header (%d bytes)", len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, asserr.Malformed("", 0, "missing %q magic", Magic)
	}

	var tokens []Token
	var stack []scope
	offset := int64(headerLen)

	for {
		// Close any scopes whose sentinel position we've reached.
		closed := false
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			sentinelAt := int64(top.endOffset) - 13
			if offset < sentinelAt {
				break
			}
			if offset != sentinelAt {
				return nil, asserr.Malformed("", offset, "scope sentinel misaligned: at %d, expected %d", offset, sentinelAt)
			}
			if err := checkSentinel(data, offset); err != nil {
				return nil, err
			}
			offset += 13
			tokens = append(tokens, Token{Type: CloseBracket, Offset: offset})
			stack = stack[:len(stack)-1]
			closed = true
		}
		if closed {
			continue
		}

		// At top level, fewer than 12 bytes remaining or an all-zero
		// end_offset marks the end-of-file footer; stop here (the footer
		// itself is out of scope per §4.5).
		if len(stack) == 0 {
			if offset+12 > int64(len(data)) {
				break
			}
			if peekU32(data, offset) == 0 {
				break
			}
		}

		tok, next, err := readScopeHeader(data, offset)
		if err != nil {
			return nil, err
		}
		endOffset := tok.endOffsetValue
		propCount := tok.propCount
		propLength := tok.propLength
		offset = next

		tokens = append(tokens, Token{Type: KEY, Name: tok.name, Offset: offset})

		propEnd := offset + int64(propLength)
		if propEnd > int64(len(data)) {
			return nil, asserr.Malformed("", offset, "property block extends past end of file")
		}
		props, err := readProperties(data, offset, propEnd, propCount)
		if err != nil {
			return nil, err
		}
		for i, p := range props {
			tokens = append(tokens, p)
			if i != len(props)-1 {
				tokens = append(tokens, Token{Type: COMMA, Offset: p.Offset})
			}
		}
		offset = propEnd

		sentinelAt := int64(endOffset) - 13
		if offset < sentinelAt {
			tokens = append(tokens, Token{Type: OpenBracket, Offset: offset})
			stack = append(stack, scope{endOffset: endOffset})
			continue
		}
		if offset != sentinelAt {
			return nil, asserr.Malformed("", offset, "scope %q end_offset inconsistent with its property block", tok.name)
		}
		if err := checkSentinel(data, offset); err != nil {
			return nil, err
		}
		offset += 13
		if offset != int64(endOffset) {
			return nil, asserr.Malformed("", offset, "scope %q sentinel does not align with its end_offset", tok.name)
		}
	}

	if len(stack) != 0 {
		return nil, asserr.Malformed("", offset, "unterminated scope at end of file")
	}
	return tokens, nil
}

type scopeHeader struct {
	endOffsetValue uint32
	propCount      uint32
	propLength     uint32
	name           string
}

func readScopeHeader(data []byte, offset int64) (scopeHeader, int64, error) {
	if offset+12 > int64(len(data)) {
		return scopeHeader{}, 0, asserr.Malformed("", offset, "truncated scope header")
	}
	end := binary.LittleEndian.Uint32(data[offset:])
	propCount := binary.LittleEndian.Uint32(data[offset+4:])
	propLength := binary.LittleEndian.Uint32(data[offset+8:])
	offset += 12

	if offset >= int64(len(data)) {
		return scopeHeader{}, 0, asserr.Malformed("", offset, "truncated scope name length")
	}
	nameLen := int(data[offset])
	offset++
	if offset+int64(nameLen) > int64(len(data)) {
		return scopeHeader{}, 0, asserr.Malformed("", offset, "truncated scope name")
	}
	name := string(data[offset : offset+int64(nameLen)])
	offset += int64(nameLen)

	return scopeHeader{endOffsetValue: end, propCount: propCount, propLength: propLength, name: name}, offset, nil
}

func readProperties(data []byte, offset, end int64, count uint32) ([]Token, error) {
	var out []Token
	for i := uint32(0); i < count; i++ {
		if offset >= end {
			return nil, asserr.Malformed("", offset, "fewer properties present than prop_count declares")
		}
		code := data[offset]
		start := offset
		offset++

		if sl, ok := scalarLen(code); ok {
			if offset+int64(sl) > end {
				return nil, asserr.Malformed("", offset, "truncated scalar property %q", string(code))
			}
			out = append(out, Token{Type: DATA, PropType: code, Payload: data[offset : offset+int64(sl)], Offset: start})
			offset += int64(sl)
			continue
		}

		switch code {
		case 'R', 'S':
			if offset+4 > end {
				return nil, asserr.Malformed("", offset, "truncated raw/string property length")
			}
			length := binary.LittleEndian.Uint32(data[offset:])
			offset += 4
			if offset+int64(length) > end {
				return nil, asserr.Malformed("", offset, "truncated raw/string property payload")
			}
			out = append(out, Token{Type: DATA, PropType: code, Payload: data[offset : offset+int64(length)], Offset: start})
			offset += int64(length)
			continue
		}

		if isArrayCode(code) {
			if offset+12 > end {
				return nil, asserr.Malformed("", offset, "truncated typed-array property header")
			}
			arrCount := binary.LittleEndian.Uint32(data[offset:])
			encoding := binary.LittleEndian.Uint32(data[offset+4:])
			compLen := binary.LittleEndian.Uint32(data[offset+8:])
			offset += 12
			if offset+int64(compLen) > end {
				return nil, asserr.Malformed("", offset, "typed-array payload extends past property block")
			}
			if code == 'b' {
				// §9: type code 'b' is unrecognised upstream; the cursor
				// simply jumps to end of payload. Tolerant-parse fallback.
				log.Warn("fbxtok: unrecognised array type code 'b' at offset %d, skipping %d bytes", start, compLen)
				out = append(out, Token{Type: DATA, PropType: code, Payload: data[offset : offset+int64(compLen)], Offset: start, ArrayCount: arrCount, ArrayEncoding: encoding})
				offset += int64(compLen)
				continue
			}
			if encoding == 0 {
				stride, _ := arrayStride(code)
				if int64(stride)*int64(arrCount) != int64(compLen) {
					return nil, asserr.Malformed("", offset, "typed-array stride*count != comp_len for type %q", string(code))
				}
			} else if encoding != 1 {
				return nil, asserr.Malformed("", offset, "unsupported typed-array encoding %d", encoding)
			}
			// encoding==1 (zlib-deflated): comp_len bytes are taken
			// verbatim; decompression is the caller's job per §4.5.
			out = append(out, Token{Type: DATA, PropType: code, Payload: data[offset : offset+int64(compLen)], Offset: start, ArrayCount: arrCount, ArrayEncoding: encoding})
			offset += int64(compLen)
			continue
		}

		return nil, asserr.Malformed("", start, "unknown property type code %q", string(code))
	}
	return out, nil
}

func checkSentinel(data []byte, offset int64) error {
	if offset+13 > int64(len(data)) {
		return asserr.Malformed("", offset, "fewer than 13 trailing bytes for scope sentinel")
	}
	for i := int64(0); i < 13; i++ {
		if data[offset+i] != 0 {
			return asserr.Malformed("", offset+i, "non-zero byte in scope sentinel")
		}
	}
	return nil
}

func peekU32(data []byte, offset int64) uint32 {
	return binary.LittleEndian.Uint32(data[offset:])
}
