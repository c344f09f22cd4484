// Package tree implements a lossless concrete syntax tree.
//
// Every byte of the original source lives in some Leaf: its Value plus the
// whitespace and comments preceding it (its prefix). Interior nodes store no
// text at all; they derive their prefix from their leftmost leaf. Concatenating
// the String of every leaf, left to right, reproduces the source exactly.
//
// Ownership runs strictly parent -> children. The parent reference held by a
// child is a back link for navigation only.
package tree

import (
	"errors"
	"iter"

	"github.com/leapstack-labs/leapcst/pkg/token"
)

// ErrUnsupportedOperation is returned when an operation has no meaning for
// the receiver, such as writing the prefix of a node without children.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Base is the contract shared by leaves, interior nodes and specialized
// node types. It is sealed: implementations must be *Leaf, *Node, or embed
// *Node.
type Base interface {
	// Type is the token code (< 256) for leaves or the grammar symbol
	// code (>= 256) for interior nodes.
	Type() token.Type

	// Parent is the node owning this one, or nil for a root.
	Parent() Base

	// Children is the ordered child sequence, empty for leaves.
	// Callers must not modify the returned slice.
	Children() []Base

	// Prefix is the whitespace and comments preceding this subtree.
	Prefix() string

	// SetPrefix rewrites the prefix of the leftmost leaf.
	SetPrefix(prefix string) error

	// Leaves yields every terminal descendant in source order.
	Leaves() iter.Seq[*Leaf]

	// String reconstructs the exact source text of the subtree.
	String() string

	setParent(p Base)
}

// Branch is implemented by every interior node, specialized or not.
type Branch interface {
	Base
	AppendChild(child Base)
	RemoveChild(child Base) bool
}

var (
	_ Base   = (*Leaf)(nil)
	_ Branch = (*Node)(nil)
)

// leaves walks b depth-first, left to right, yielding terminals.
// It returns false once yield asks to stop.
func leaves(b Base, yield func(*Leaf) bool) bool {
	if l, ok := b.(*Leaf); ok {
		return yield(l)
	}
	for _, ch := range b.Children() {
		if !leaves(ch, yield) {
			return false
		}
	}
	return true
}
