// Package syntax provides specialized CST node types for Python productions.
//
// Each type embeds *tree.Node, so it behaves exactly like a generic interior
// node (same children, same prefix handling, same reconstruction) and adds
// accessors for its production.
package syntax

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapcst/pkg/builder"
	"github.com/leapstack-labs/leapcst/pkg/symbols"
	"github.com/leapstack-labs/leapcst/pkg/token"
	"github.com/leapstack-labs/leapcst/pkg/tree"
)

// ErrShape is wrapped by constructor errors when the children do not match
// the production.
var ErrShape = errors.New("unexpected children")

// ExprStmt is a simple statement: one or more small statements followed by
// a NEWLINE.
type ExprStmt struct {
	*tree.Node
}

// NewExprStmt builds an ExprStmt. Any child sequence is accepted.
func NewExprStmt(t token.Type, children []tree.Base) (tree.Base, error) {
	s := &ExprStmt{}
	s.Node = tree.NewEmbeddedNode(s, t, children)
	return s, nil
}

// Statements returns the children before the trailing NEWLINE, skipping
// semicolons.
func (s *ExprStmt) Statements() []tree.Base {
	var out []tree.Base
	for _, ch := range s.Children() {
		if ch.Type() == token.SEMI || ch.Type() == token.NEWLINE {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// Class is a classdef: 'class' NAME ['(' [arglist] ')'] ':' suite.
type Class struct {
	*tree.Node
}

// NewClass builds a Class, checking the leading keyword and name.
func NewClass(t token.Type, children []tree.Base) (tree.Base, error) {
	if err := checkHeader(children, "class"); err != nil {
		return nil, err
	}
	c := &Class{}
	c.Node = tree.NewEmbeddedNode(c, t, children)
	return c, nil
}

// Name returns the class name leaf.
func (c *Class) Name() *tree.Leaf {
	return c.Children()[1].(*tree.Leaf)
}

// Bases returns the node between the parentheses, or nil when the class has
// no base list or the list is empty.
func (c *Class) Bases() tree.Base {
	ch := c.Children()
	if len(ch) < 5 || ch[2].Type() != token.LPAR || ch[3].Type() == token.RPAR {
		return nil
	}
	return ch[3]
}

// Suite returns the class body.
func (c *Class) Suite() tree.Base {
	ch := c.Children()
	return ch[len(ch)-1]
}

// Function is a funcdef: 'def' NAME parameters ['->' test] ':' suite.
type Function struct {
	*tree.Node
}

// NewFunction builds a Function, checking the leading keyword and name.
func NewFunction(t token.Type, children []tree.Base) (tree.Base, error) {
	if err := checkHeader(children, "def"); err != nil {
		return nil, err
	}
	if len(children) < 5 {
		return nil, fmt.Errorf("%w: funcdef needs at least 5 children, got %d", ErrShape, len(children))
	}
	f := &Function{}
	f.Node = tree.NewEmbeddedNode(f, t, children)
	return f, nil
}

// Name returns the function name leaf.
func (f *Function) Name() *tree.Leaf {
	return f.Children()[1].(*tree.Leaf)
}

// Parameters returns the parameters subtree, parentheses included.
func (f *Function) Parameters() tree.Base {
	return f.Children()[2]
}

// Annotation returns the return annotation, or nil.
func (f *Function) Annotation() tree.Base {
	ch := f.Children()
	if ch[3].Type() == token.RARROW {
		return ch[4]
	}
	return nil
}

// Suite returns the function body.
func (f *Function) Suite() tree.Base {
	ch := f.Children()
	return ch[len(ch)-1]
}

func checkHeader(children []tree.Base, keyword string) error {
	if len(children) < 3 {
		return fmt.Errorf("%w: %s header needs at least 3 children, got %d", ErrShape, keyword, len(children))
	}
	kw, ok := children[0].(*tree.Leaf)
	if !ok || kw.Type() != token.NAME || kw.Value != keyword {
		return fmt.Errorf("%w: expected %q keyword first", ErrShape, keyword)
	}
	name, ok := children[1].(*tree.Leaf)
	if !ok || name.Type() != token.NAME {
		return fmt.Errorf("%w: expected NAME after %q", ErrShape, keyword)
	}
	return nil
}

// productions lists the symbols that get specialized constructors.
var productions = map[string]builder.Constructor{
	"simple_stmt": NewExprStmt,
	"classdef":    NewClass,
	"funcdef":     NewFunction,
}

// Mapping returns the specialization table keyed by the codes reg assigns.
func Mapping(reg *symbols.Registry) (builder.Specializations, error) {
	m := make(builder.Specializations, len(productions))
	for name, ctor := range productions {
		code, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("grammar %q has no symbol %q", reg.Grammar().Name, name)
		}
		m[code] = ctor
	}
	return m, nil
}
