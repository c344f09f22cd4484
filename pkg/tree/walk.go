package tree

import (
	"iter"

	"github.com/leapstack-labs/leapcst/pkg/token"
)

// Walk yields b and every descendant in pre-order.
func Walk(b Base) iter.Seq[Base] {
	return func(yield func(Base) bool) {
		walk(b, yield)
	}
}

func walk(b Base, yield func(Base) bool) bool {
	if !yield(b) {
		return false
	}
	for _, ch := range b.Children() {
		if !walk(ch, yield) {
			return false
		}
	}
	return true
}

// FirstLeaf returns the leftmost leaf of b, or nil if b has none.
func FirstLeaf(b Base) *Leaf {
	for l := range b.Leaves() {
		return l
	}
	return nil
}

// LastLeaf returns the rightmost leaf of b, or nil if b has none.
func LastLeaf(b Base) *Leaf {
	for {
		if l, ok := b.(*Leaf); ok {
			return l
		}
		children := b.Children()
		if len(children) == 0 {
			return nil
		}
		b = children[len(children)-1]
	}
}

// StartPos returns the start of the first token in b.
// The zero Position is returned for subtrees without leaves.
func StartPos(b Base) token.Position {
	if l := FirstLeaf(b); l != nil {
		return l.StartPos
	}
	return token.Position{}
}

// EndPos returns the position just past the last token in b.
func EndPos(b Base) token.Position {
	if l := LastLeaf(b); l != nil {
		return l.EndPos()
	}
	return token.Position{}
}

// Root follows parent links up to the top of the tree.
func Root(b Base) Base {
	for b.Parent() != nil {
		b = b.Parent()
	}
	return b
}

// Detach removes b from its parent's children and clears b's parent.
// It reports whether b had a parent to leave.
func Detach(b Base) bool {
	p, ok := b.Parent().(Branch)
	if !ok {
		return false
	}
	return p.RemoveChild(b)
}

// NextLeaf returns the leaf following l in source order, or nil.
func NextLeaf(l *Leaf) *Leaf {
	var cur Base = l
	for p := cur.Parent(); p != nil; cur, p = p, p.Parent() {
		siblings := p.Children()
		for i, s := range siblings {
			if s != cur {
				continue
			}
			for _, next := range siblings[i+1:] {
				if first := FirstLeaf(next); first != nil {
					return first
				}
			}
			break
		}
	}
	return nil
}
