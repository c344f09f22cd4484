package tree

import (
	"iter"

	"github.com/leapstack-labs/leapcst/pkg/token"
)

// Leaf is a terminal node: one token and the trivia in front of it.
type Leaf struct {
	Value    string         // literal text as it appeared in the source
	StartPos token.Position // position of the first byte of Value

	typ    token.Type
	prefix string
	parent Base
}

// NewLeaf creates a leaf for a token of type t.
func NewLeaf(t token.Type, value string, startPos token.Position, prefix string) *Leaf {
	return &Leaf{
		Value:    value,
		StartPos: startPos,
		typ:      t,
		prefix:   prefix,
	}
}

// Type returns the token code.
func (l *Leaf) Type() token.Type { return l.typ }

// Parent returns the owning node, or nil.
func (l *Leaf) Parent() Base { return l.parent }

// Children is always empty for a leaf.
func (l *Leaf) Children() []Base { return nil }

// Prefix returns the stored prefix.
func (l *Leaf) Prefix() string { return l.prefix }

// SetPrefix replaces the stored prefix. It never fails.
func (l *Leaf) SetPrefix(prefix string) error {
	l.prefix = prefix
	return nil
}

// Leaves yields the leaf itself.
func (l *Leaf) Leaves() iter.Seq[*Leaf] {
	return func(yield func(*Leaf) bool) {
		yield(l)
	}
}

// String returns prefix followed by value.
func (l *Leaf) String() string {
	return l.prefix + l.Value
}

// EndPos returns the position just past the value.
func (l *Leaf) EndPos() token.Position {
	return l.StartPos.Advance(l.Value)
}

func (l *Leaf) setParent(p Base) { l.parent = p }
