// Package xmltree is a pull-parser wrapper that materialises a whole XML
// document as a tree of nodes in memory. It generalizes the teacher's
// per-format, hand-rolled token loop (collada.Decoder.decNextChild,
// which keeps a one-token lookahead buffer over xml.Decoder.Token and
// drives a parent/child push-down by hand for every COLLADA element) into
// a single reusable tree-builder that AMF, COLLADA and 3MF can all walk
// the same way instead of each re-deriving the same state machine.
package xmltree

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/asserr"
)

// Attr is one element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the materialised tree. Element names are
// interned through a per-tree string pool so that repeated element names
// (common in AMF/3MF/COLLADA documents with thousands of <vertex>
// elements) share one backing string.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string // concatenated character data directly under this element

	parent *Node
}

// Parent returns n's parent, or nil for the document root.
func (n *Node) Parent() *Node { return n.parent }

// Attr looks up an attribute by name, returning ("", false) if absent.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute's value, or def if absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Children named with the given local name, in document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first child named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// typed accessors: all numeric parsing is locale-independent (strconv
// always uses '.' as the decimal point; the process locale is never
// consulted), per the Design Notes' ban on locale-sensitive parsers.

func (a Attr) Int() (int, error)       { return strconv.Atoi(clean(a.Value)) }
func (a Attr) Uint() (uint, error) {
	v, err := strconv.ParseUint(clean(a.Value), 10, 64)
	return uint(v), err
}
func (a Attr) Float() (float32, error) {
	v, err := strconv.ParseFloat(clean(a.Value), 32)
	return float32(v), err
}
func (a Attr) Double() (float64, error) { return strconv.ParseFloat(clean(a.Value), 64) }
func (a Attr) Bool() (bool, error) {
	s := clean(a.Value)
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return strconv.ParseBool(s)
	}
}

// clean trims the leading/trailing whitespace typed accessors must be
// tolerant of per §4.3.
func clean(s string) string { return strings.TrimSpace(s) }

// TextInt/TextFloat/TextDouble parse n's concatenated text content as a
// typed leaf value, the common case for AMF/3MF/COLLADA numeric leaf
// elements (<x>1.5</x>).
func (n *Node) TextFloat() (float32, error) {
	v, err := strconv.ParseFloat(clean(n.Text), 32)
	return float32(v), err
}

func (n *Node) TextDouble() (float64, error) {
	return strconv.ParseFloat(clean(n.Text), 64)
}

func (n *Node) TextUint() (uint, error) {
	v, err := strconv.ParseUint(clean(n.Text), 10, 64)
	return uint(v), err
}

func (n *Node) TextInt() (int, error) {
	return strconv.Atoi(clean(n.Text))
}

// TextFields splits the text content on whitespace, the idiom COLLADA's
// <float_array>/<p> leaf elements use for packed numeric lists.
func (n *Node) TextFields() []string {
	return strings.Fields(n.Text)
}

// Parse pulls the entirety of r into one in-memory tree and returns its
// root element. Decoding errors fail with asserr.MalformedInput carrying
// the byte offset reported by the underlying xml.Decoder.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	pool := newInterner()

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, asserr.Malformed("", dec.InputOffset(), "xml decode error: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: pool.intern(t.Name.Local)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: pool.intern(a.Name.Local), Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				n.parent = parent
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			} else {
				return nil, asserr.Malformed("", dec.InputOffset(), "multiple root elements")
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, asserr.Malformed("", dec.InputOffset(), "unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if len(stack) != 0 {
		return nil, asserr.Malformed("", dec.InputOffset(), "unexpected end of document inside element %q", stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, asserr.Malformed("", 0, "empty document")
	}
	return root, nil
}

// interner caches element/attribute names so repeated names in a large
// document share one string value, per §4.3's "element name (interned)"
// contract.
type interner struct {
	seen map[string]string
}

func newInterner() *interner { return &interner{seen: make(map[string]string)} }

func (p *interner) intern(s string) string {
	if v, ok := p.seen[s]; ok {
		return v
	}
	p.seen[s] = s
	return s
}
