package tree

import (
	"fmt"
	"iter"
	"strings"

	"github.com/leapstack-labs/leapcst/pkg/token"
)

// Node is a generic interior node. It owns its children exclusively.
//
// Specialized node types embed *Node and are built with NewEmbeddedNode so
// that their children point back at the specialized value, not at the
// embedded Node.
type Node struct {
	typ      token.Type
	children []Base
	parent   Base
	self     Base // the value children see as their parent
}

// NewNode creates an interior node of grammar symbol t.
//
// NewNode takes ownership of children: every child's parent is set to the
// new node before NewNode returns, and the slice must not be reused by the
// caller.
func NewNode(t token.Type, children []Base) *Node {
	n := &Node{typ: t}
	n.adopt(n, children)
	return n
}

// NewEmbeddedNode creates the Node embedded in a specialized type.
// outer is the specialized value; children report it as their parent.
//
//	s := &ExprStmt{}
//	s.Node = tree.NewEmbeddedNode(s, t, children)
func NewEmbeddedNode(outer Base, t token.Type, children []Base) *Node {
	n := &Node{typ: t}
	n.adopt(outer, children)
	return n
}

func (n *Node) adopt(owner Base, children []Base) {
	n.self = owner
	n.children = children
	for _, ch := range children {
		ch.setParent(owner)
	}
}

// Type returns the grammar symbol code.
func (n *Node) Type() token.Type { return n.typ }

// Parent returns the owning node, or nil for a root.
func (n *Node) Parent() Base { return n.parent }

// Children returns the child sequence.
func (n *Node) Children() []Base { return n.children }

// Prefix returns the prefix of the first child, or "" when there is none.
func (n *Node) Prefix() string {
	if len(n.children) == 0 {
		return ""
	}
	return n.children[0].Prefix()
}

// SetPrefix writes prefix into the leftmost leaf of the subtree.
// A node without children has nowhere to store it and returns
// ErrUnsupportedOperation.
func (n *Node) SetPrefix(prefix string) error {
	if len(n.children) == 0 {
		return fmt.Errorf("set prefix on childless node %d: %w", n.typ, ErrUnsupportedOperation)
	}
	return n.children[0].SetPrefix(prefix)
}

// AppendChild sets child's parent to this node and appends it.
//
// The child is not removed from a previous parent: if it already belonged to
// another node, that node keeps a stale entry while child.Parent() now
// points here. Call Detach first when moving subtrees between trees.
func (n *Node) AppendChild(child Base) {
	child.setParent(n.self)
	n.children = append(n.children, child)
}

// RemoveChild removes child from this node and clears its parent.
// It reports whether child was found.
func (n *Node) RemoveChild(child Base) bool {
	for i, ch := range n.children {
		if ch != child {
			continue
		}
		n.children = append(n.children[:i:i], n.children[i+1:]...)
		if child.Parent() == n.self {
			child.setParent(nil)
		}
		return true
	}
	return false
}

// Leaves yields every leaf below n in source order.
func (n *Node) Leaves() iter.Seq[*Leaf] {
	return func(yield func(*Leaf) bool) {
		leaves(n, yield)
	}
}

// String concatenates the text of all children.
func (n *Node) String() string {
	var sb strings.Builder
	for l := range n.Leaves() {
		sb.WriteString(l.prefix)
		sb.WriteString(l.Value)
	}
	return sb.String()
}

func (n *Node) setParent(p Base) { n.parent = p }
