// Package fbx implements a binary FBX (.fbx) importer. It consumes the
// flat fbxtok.Token stream and, like the teacher's COLLADA decoder turns
// an xml.Decoder token loop into a tree before interpreting it, first
// rebuilds the nested scope structure fbxtok flattened, then lowers the
// "Objects"/"Connections" scopes into a scene.Scene.
package fbx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/fbxtok"
)

// property is one decoded value from a scope's property list. Exactly one
// of the typed fields is meaningful, selected by Code.
type property struct {
	Code     byte
	Int      int64
	Float    float64
	Str      string
	Raw      []byte
	Ints     []int64
	Floats   []float64
}

// node is one scope of the rebuilt tree: a name, its property list, and
// nested child scopes.
type node struct {
	Name     string
	Props    []property
	Children []*node
}

func (n *node) child(name string) *node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *node) childrenNamed(name string) []*node {
	var out []*node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (p property) asInt() int64 {
	switch p.Code {
	case 'S':
		v, _ := strconv.ParseInt(p.Str, 10, 64)
		return v
	case 'F', 'D':
		return int64(p.Float)
	default:
		return p.Int
	}
}

func (p property) asFloat() float64 {
	switch {
	case p.Code == 'F' || p.Code == 'D':
		return p.Float
	case p.Code == 'S':
		v, _ := strconv.ParseFloat(p.Str, 64)
		return v
	default:
		return float64(p.Int)
	}
}

// buildTree turns the flat token stream back into a nested scope tree,
// the inverse of fbxtok.Tokenize's flattening.
func buildTree(tokens []fbxtok.Token) (*node, error) {
	root := &node{Name: ""}
	stack := []*node{root}
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.Type {
		case fbxtok.KEY:
			n := &node{Name: tok.Name}
			cur := stack[len(stack)-1]
			cur.Children = append(cur.Children, n)
			i++
			for i < len(tokens) && tokens[i].Type == fbxtok.DATA {
				p, err := decodeProperty(tokens[i])
				if err != nil {
					return nil, err
				}
				n.Props = append(n.Props, p)
				i++
				if i < len(tokens) && tokens[i].Type == fbxtok.COMMA {
					i++
				}
			}
			if i < len(tokens) && tokens[i].Type == fbxtok.OpenBracket {
				stack = append(stack, n)
				i++
			}
		case fbxtok.CloseBracket:
			if len(stack) <= 1 {
				return nil, asserr.Malformed("", tok.Offset, "unmatched scope close")
			}
			stack = stack[:len(stack)-1]
			i++
		default:
			i++
		}
	}
	if len(stack) != 1 {
		return nil, asserr.Malformed("", 0, "unclosed scope at end of token stream")
	}
	return root, nil
}

// decodeProperty turns one fbxtok DATA token into a property, inflating
// zlib-encoded typed arrays itself (fbxtok deliberately leaves that to
// its caller).
func decodeProperty(tok fbxtok.Token) (property, error) {
	switch tok.PropType {
	case 'Y':
		return property{Code: 'Y', Int: int64(int16(binary.LittleEndian.Uint16(tok.Payload)))}, nil
	case 'C':
		return property{Code: 'C', Int: int64(tok.Payload[0])}, nil
	case 'I':
		return property{Code: 'I', Int: int64(int32(binary.LittleEndian.Uint32(tok.Payload)))}, nil
	case 'L':
		return property{Code: 'L', Int: int64(binary.LittleEndian.Uint64(tok.Payload))}, nil
	case 'F':
		return property{Code: 'F', Float: float64(math.Float32frombits(binary.LittleEndian.Uint32(tok.Payload)))}, nil
	case 'D':
		return property{Code: 'D', Float: math.Float64frombits(binary.LittleEndian.Uint64(tok.Payload))}, nil
	case 'R':
		return property{Code: 'R', Raw: tok.Payload}, nil
	case 'S':
		return property{Code: 'S', Str: string(tok.Payload)}, nil
	case 'b':
		// §9 tolerant fallback: the array's contents are never interpreted.
		return property{Code: 'b'}, nil
	case 'i', 'l', 'f', 'd':
		return decodeTypedArray(tok)
	default:
		return property{}, asserr.Malformed("", tok.Offset, "unknown FBX property type %q", string(tok.PropType))
	}
}

func decodeTypedArray(tok fbxtok.Token) (property, error) {
	payload := tok.Payload
	if tok.ArrayEncoding == 1 {
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return property{}, asserr.Wrap(asserr.MalformedInput, err, "inflating FBX typed array at offset %d", tok.Offset)
		}
		defer zr.Close()
		inflated, err := io.ReadAll(zr)
		if err != nil {
			return property{}, asserr.Wrap(asserr.MalformedInput, err, "inflating FBX typed array at offset %d", tok.Offset)
		}
		payload = inflated
	}

	count := int(tok.ArrayCount)
	switch tok.PropType {
	case 'i':
		out := make([]int64, 0, count)
		for i := 0; i+4 <= len(payload); i += 4 {
			out = append(out, int64(int32(binary.LittleEndian.Uint32(payload[i:]))))
		}
		return property{Code: 'i', Ints: out}, nil
	case 'l':
		out := make([]int64, 0, count)
		for i := 0; i+8 <= len(payload); i += 8 {
			out = append(out, int64(binary.LittleEndian.Uint64(payload[i:])))
		}
		return property{Code: 'l', Ints: out}, nil
	case 'f':
		out := make([]float64, 0, count)
		for i := 0; i+4 <= len(payload); i += 4 {
			out = append(out, float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[i:]))))
		}
		return property{Code: 'f', Floats: out}, nil
	case 'd':
		out := make([]float64, 0, count)
		for i := 0; i+8 <= len(payload); i += 8 {
			out = append(out, math.Float64frombits(binary.LittleEndian.Uint64(payload[i:])))
		}
		return property{Code: 'd', Floats: out}, nil
	}
	return property{}, asserr.Malformed("", tok.Offset, "unreachable array code %q", string(tok.PropType))
}

// splitFbxName splits a binary FBX object name of the form
// "Name\x00\x01Class" (e.g. "Cube\x00\x01Model") into its name and class
// parts. Names with no separator are returned verbatim with an empty class.
func splitFbxName(raw string) (name, class string) {
	if idx := strings.Index(raw, "\x00\x01"); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}
	return raw, ""
}
