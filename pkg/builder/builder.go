// Package builder turns grammar reductions into CST nodes.
//
// A parser driver calls Convert once for every completed reduction, strictly
// bottom-up. Convert decides between four outcomes:
//
//	terminal code            -> new Leaf
//	symbol with one child    -> that child, unchanged (collapse)
//	symbol with constructor  -> specialized node
//	any other symbol         -> generic tree.Node
//
// Collapse always wins over specialization, so specialized constructors only
// ever see zero or at least two children.
package builder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcst/pkg/token"
	"github.com/leapstack-labs/leapcst/pkg/tree"
)

// Context carries the source context of a terminal reduction.
type Context struct {
	Prefix   string
	StartPos token.Position
}

// Raw is one reduction record as handed over by the parser driver.
type Raw struct {
	Type     token.Type
	Value    string      // terminals only
	Context  Context     // terminals only
	Children []tree.Base // nonterminals only
}

// Constructor builds a specialized node from the children of a reduction.
// It must return a value satisfying tree.Base whose children point back to
// it, typically a type embedding *tree.Node built with tree.NewEmbeddedNode.
type Constructor func(t token.Type, children []tree.Base) (tree.Base, error)

// Specializations maps grammar symbol codes to specialized constructors.
type Specializations map[token.Type]Constructor

// Nonterminals tells which codes are grammar symbols.
// *grammar.Grammar and *symbols.Registry satisfy it.
type Nonterminals interface {
	IsNonterminal(t token.Type) bool
}

// Builder is the reduction-to-node converter. It holds no mutable state
// and may be shared between independent parses.
type Builder struct {
	grammar Nonterminals
	special Specializations
	namer   tree.Namer
	logger  *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithSpecializations installs the constructor table.
func WithSpecializations(s Specializations) Option {
	return func(b *Builder) { b.special = s }
}

// WithLogger sets the logger used for per-reduction debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithNamer sets how type codes are rendered in logs and errors.
func WithNamer(n tree.Namer) Option {
	return func(b *Builder) { b.namer = n }
}

// New creates a Builder for grammar g.
func New(g Nonterminals, opts ...Option) *Builder {
	b := &Builder{grammar: g}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.namer == nil {
		if n, ok := g.(tree.Namer); ok {
			b.namer = n
		} else {
			b.namer = codeNamer{}
		}
	}
	return b
}

// Convert builds the subtree for one reduction.
//
// Building a node sets the parent of every child; nothing else is mutated.
// Errors from specialized constructors are returned as *SpecializationError
// and are never replaced by a generic node.
func (b *Builder) Convert(raw Raw) (tree.Base, error) {
	if b.grammar.IsNonterminal(raw.Type) {
		return b.convertNode(raw)
	}
	if !token.IsTerminal(raw.Type) {
		return nil, &UnknownSymbolError{Type: raw.Type}
	}
	if len(raw.Children) > 0 {
		return nil, fmt.Errorf("%w: %s with %d children", ErrTerminalChildren, b.namer.Name(raw.Type), len(raw.Children))
	}

	b.logger.Debug("leaf",
		slog.String("type", b.namer.Name(raw.Type)),
		slog.String("value", raw.Value),
		slog.String("pos", raw.Context.StartPos.String()),
	)
	return tree.NewLeaf(raw.Type, raw.Value, raw.Context.StartPos, raw.Context.Prefix), nil
}

func (b *Builder) convertNode(raw Raw) (tree.Base, error) {
	if len(raw.Children) == 1 {
		return raw.Children[0], nil
	}

	name := b.namer.Name(raw.Type)
	b.logger.Debug("reduce",
		slog.String("symbol", name),
		slog.Int("children", len(raw.Children)),
	)

	if ctor, ok := b.special[raw.Type]; ok {
		n, err := ctor(raw.Type, raw.Children)
		if err != nil {
			return nil, &SpecializationError{Type: raw.Type, Symbol: name, Err: err}
		}
		if n == nil {
			return nil, &SpecializationError{Type: raw.Type, Symbol: name, Err: errNilNode}
		}
		return n, nil
	}
	return tree.NewNode(raw.Type, raw.Children), nil
}

// Specialized reports whether t has a registered constructor.
func (b *Builder) Specialized(t token.Type) bool {
	_, ok := b.special[t]
	return ok
}

var errNilNode = errors.New("constructor returned no node")

// ErrTerminalChildren is returned when a reduction carries a token type
// together with children. A leaf cannot hold them.
var ErrTerminalChildren = errors.New("token reduction has children")

// SpecializationError wraps a failure raised by a specialized constructor.
type SpecializationError struct {
	Type   token.Type
	Symbol string
	Err    error
}

func (e *SpecializationError) Error() string {
	return fmt.Sprintf("build %s node: %v", e.Symbol, e.Err)
}

func (e *SpecializationError) Unwrap() error { return e.Err }

// UnknownSymbolError is returned for codes in the symbol range that the
// grammar does not define. Turning them into leaves would break the rule
// that leaves carry terminal codes only.
type UnknownSymbolError struct {
	Type token.Type
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("type %d is neither a token nor a grammar symbol", int(e.Type))
}

type codeNamer struct{}

func (codeNamer) Name(t token.Type) string {
	if token.IsTerminal(t) {
		return t.String()
	}
	return fmt.Sprintf("%d", int(t))
}
