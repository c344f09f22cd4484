// Package symbols maps grammar symbol names to their integer codes and back.
//
// A Registry is built from a grammar once and is read-only afterwards, except
// for the lazily populated type_repr table used for diagnostics. That table is
// filled on the first TypeRepr call under a sync.Once and is safe to read
// from many goroutines.
package symbols

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/leapstack-labs/leapcst/pkg/grammar"
	"github.com/leapstack-labs/leapcst/pkg/token"
)

// Registry exposes name<->code lookups for one grammar.
type Registry struct {
	grammar *grammar.Grammar
	byName  map[string]token.Type

	reprOnce sync.Once
	reprMu   sync.RWMutex
	reprs    map[token.Type]string
}

// New creates a registry over g. The grammar must not be modified afterwards.
func New(g *grammar.Grammar) *Registry {
	return &Registry{
		grammar: g,
		byName:  maps.Clone(g.SymbolToNumber),
	}
}

// Grammar returns the grammar the registry was built from.
func (r *Registry) Grammar() *grammar.Grammar {
	return r.grammar
}

// IsNonterminal reports whether t is a registered symbol code.
func (r *Registry) IsNonterminal(t token.Type) bool {
	return r.grammar.IsNonterminal(t)
}

// Lookup returns the code for a symbol name.
func (r *Registry) Lookup(name string) (token.Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// MustLookup is like Lookup but panics for unknown names.
// Intended for wiring tables at startup.
func (r *Registry) MustLookup(name string) token.Type {
	t, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("symbols: unknown grammar symbol %q", name))
	}
	return t
}

// Names returns all symbol names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.byName))
}

// TypeRepr returns the symbol name for code t.
//
// The name table is populated from the grammar on first use. Codes without a
// name are represented by their decimal value, and that fallback is
// remembered so repeated lookups agree.
func (r *Registry) TypeRepr(t token.Type) string {
	r.reprOnce.Do(r.populate)

	r.reprMu.RLock()
	name, ok := r.reprs[t]
	r.reprMu.RUnlock()
	if ok {
		return name
	}

	r.reprMu.Lock()
	defer r.reprMu.Unlock()
	if name, ok := r.reprs[t]; ok {
		return name
	}
	name = strconv.Itoa(int(t))
	r.reprs[t] = name
	return name
}

func (r *Registry) populate() {
	reprs := make(map[token.Type]string, len(r.byName))
	for _, code := range r.grammar.Codes() {
		reprs[code] = r.grammar.NumberToSymbol[code]
	}
	r.reprMu.Lock()
	r.reprs = reprs
	r.reprMu.Unlock()
}

// Name renders any code: symbol names for nonterminals, token names otherwise.
func (r *Registry) Name(t token.Type) string {
	if token.IsTerminal(t) {
		return t.String()
	}
	return r.TypeRepr(t)
}

// python is the process-wide registry for the built-in Python grammar.
// It is constructed on first use and never mutated afterwards.
var python = sync.OnceValue(func() *Registry {
	return New(grammar.Python())
})

// Python returns the shared registry for the built-in Python grammar.
func Python() *Registry {
	return python()
}

// TypeRepr renders t using the shared Python registry.
func TypeRepr(t token.Type) string {
	return python().TypeRepr(t)
}
