package scene

import "github.com/assetforge/sceneforge/math32"

// Node is a named transform in the scene tree. It owns its children and
// holds a non-owning back-reference to its parent, the same parent/child
// shape as the teacher's core.Node but with the pointer graph generalized:
// a Node here is reachable from exactly one place (its parent's Children
// slice, or the Scene's Root field), never aliased.
type Node struct {
	Name     string
	Matrix   math32.Matrix4 // local affine transform, relative to parent
	Children []*Node        // owned
	Meshes   []int          // indices into Scene.Meshes

	parent *Node // weak back-reference; nil for the root
}

// NewNode creates a detached node with an identity transform.
func NewNode(name string) *Node {
	n := &Node{Name: name}
	n.Matrix.Identity()
	return n
}

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// AddChild appends child to n's children and sets child's parent to n.
// Reparenting an already-attached child is the caller's responsibility to
// avoid; AddChild does not detach child from any previous parent.
func (n *Node) AddChild(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// RemoveChild detaches child from n, if present. Returns whether it was
// found.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// FindByName performs a depth-first search for the first node (including
// n itself) whose Name matches, or nil.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls fn for n and every descendant, depth-first, pre-order. Walk
// does not protect against a cyclic or aliased tree; Scene.Validate is
// responsible for rejecting those before Walk is relied upon elsewhere.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
