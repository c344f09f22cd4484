package tree

import (
	"fmt"

	"github.com/leapstack-labs/leapcst/pkg/token"
)

// InvariantError describes a broken tree invariant found by Validate.
type InvariantError struct {
	Node    Base
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tree invariant violated at %s: %s", Kind(e.Node), e.Message)
}

// Validate checks the structural invariants of the tree rooted at root:
// leaves carry terminal codes, interior nodes carry symbol codes, and every
// child appears exactly once in its parent's children and points back to it.
func Validate(root Base) error {
	for b := range Walk(root) {
		if _, isLeaf := b.(*Leaf); isLeaf {
			if !token.IsTerminal(b.Type()) {
				return &InvariantError{Node: b, Message: fmt.Sprintf("leaf has non-terminal type %d", b.Type())}
			}
			continue
		}
		if !token.IsNonterminal(b.Type()) {
			return &InvariantError{Node: b, Message: fmt.Sprintf("node has terminal type %d", b.Type())}
		}

		seen := make(map[Base]struct{}, len(b.Children()))
		for i, ch := range b.Children() {
			if _, dup := seen[ch]; dup {
				return &InvariantError{Node: b, Message: fmt.Sprintf("child %d appears more than once", i)}
			}
			seen[ch] = struct{}{}
			if ch.Parent() != b {
				return &InvariantError{Node: ch, Message: fmt.Sprintf("child %d of %d does not point back to its parent", i, b.Type())}
			}
		}
	}
	return nil
}
