// Package grammar holds the symbol tables of a grammar definition.
//
// The tables are consumed by the symbol registry and the tree builder: they
// tell which integer codes are grammar symbols (nonterminals, codes >= 256)
// and which identifiers are reserved keywords. Grammar matching itself is
// the job of the external parser driver and does not live here.
//
// # Usage
//
//	g := grammar.Python()
//	code, ok := g.Number("simple_stmt")
//
// Variants are produced by copying and editing:
//
//	g2 := grammar.Python().Copy()
//	g2.RemoveKeyword("print")
package grammar

import (
	"maps"
	"slices"

	"github.com/leapstack-labs/leapcst/pkg/token"
)

// Grammar is a set of grammar symbol codes plus the reserved keyword set.
type Grammar struct {
	Name           string
	Start          token.Type
	SymbolToNumber map[string]token.Type
	NumberToSymbol map[token.Type]string
	Keywords       map[string]token.Type // keyword -> terminal code (NAME)
}

// IsNonterminal reports whether t is a symbol code assigned by this grammar.
func (g *Grammar) IsNonterminal(t token.Type) bool {
	_, ok := g.NumberToSymbol[t]
	return ok
}

// Symbol returns the name assigned to code t.
func (g *Grammar) Symbol(t token.Type) (string, bool) {
	name, ok := g.NumberToSymbol[t]
	return name, ok
}

// Number returns the code assigned to the symbol name.
func (g *Grammar) Number(name string) (token.Type, bool) {
	t, ok := g.SymbolToNumber[name]
	return t, ok
}

// Codes enumerates every symbol code in ascending order.
func (g *Grammar) Codes() []token.Type {
	return slices.Sorted(maps.Keys(g.NumberToSymbol))
}

// IsKeyword reports whether name is a reserved keyword.
func (g *Grammar) IsKeyword(name string) bool {
	_, ok := g.Keywords[name]
	return ok
}

// KeywordNames returns the reserved keywords in sorted order.
func (g *Grammar) KeywordNames() []string {
	return slices.Sorted(maps.Keys(g.Keywords))
}

// RemoveKeyword drops name from the keyword set so it is tokenized as a
// plain NAME by drivers using this grammar. It reports whether name was a keyword.
func (g *Grammar) RemoveKeyword(name string) bool {
	if _, ok := g.Keywords[name]; !ok {
		return false
	}
	delete(g.Keywords, name)
	return true
}

// Copy returns a deep copy whose tables can be edited independently.
func (g *Grammar) Copy() *Grammar {
	return &Grammar{
		Name:           g.Name,
		Start:          g.Start,
		SymbolToNumber: maps.Clone(g.SymbolToNumber),
		NumberToSymbol: maps.Clone(g.NumberToSymbol),
		Keywords:       maps.Clone(g.Keywords),
	}
}
