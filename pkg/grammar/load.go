package grammar

import (
	"embed"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapcst/pkg/token"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tables embed.FS

// Table is the on-disk form of a grammar's symbol tables.
type Table struct {
	Name     string                `yaml:"name"`
	Start    string                `yaml:"start"`
	Symbols  []string              `yaml:"symbols"`
	Numbers  map[string]token.Type `yaml:"numbers,omitempty"` // explicit codes, overrides numbering
	Keywords []string              `yaml:"keywords"`
}

// TableError is returned when a grammar table is malformed.
type TableError struct {
	Grammar string
	Message string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("grammar %q: %s", e.Grammar, e.Message)
}

// Load reads a YAML grammar table from path.
func Load(path string) (*Grammar, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user config
	if err != nil {
		return nil, fmt.Errorf("read grammar table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML grammar table.
func Parse(data []byte) (*Grammar, error) {
	var tbl Table
	if err := yaml.Unmarshal(data, &tbl); err != nil {
		return nil, fmt.Errorf("decode grammar table: %w", err)
	}
	return FromTable(tbl)
}

// FromTable builds a Grammar from a decoded table.
//
// Without explicit numbers the start symbol receives code 256 and the
// remaining symbols follow in sorted name order.
func FromTable(tbl Table) (*Grammar, error) {
	if tbl.Start == "" {
		return nil, &TableError{Grammar: tbl.Name, Message: "missing start symbol"}
	}

	names := slices.Clone(tbl.Symbols)
	slices.Sort(names)
	for i := 1; i < len(names); i++ {
		if names[i] == names[i-1] {
			return nil, &TableError{Grammar: tbl.Name, Message: fmt.Sprintf("duplicate symbol %q", names[i])}
		}
	}
	names = slices.DeleteFunc(names, func(n string) bool { return n == tbl.Start })
	names = slices.Insert(names, 0, tbl.Start)

	g := &Grammar{
		Name:           tbl.Name,
		SymbolToNumber: make(map[string]token.Type, len(names)),
		NumberToSymbol: make(map[token.Type]string, len(names)),
		Keywords:       make(map[string]token.Type, len(tbl.Keywords)),
	}

	for i, name := range names {
		code := token.NTOffset + token.Type(i)
		if explicit, ok := tbl.Numbers[name]; ok {
			code = explicit
		}
		if !token.IsNonterminal(code) {
			return nil, &TableError{Grammar: tbl.Name, Message: fmt.Sprintf("symbol %q has code %d below %d", name, code, token.NTOffset)}
		}
		if other, taken := g.NumberToSymbol[code]; taken {
			return nil, &TableError{Grammar: tbl.Name, Message: fmt.Sprintf("symbols %q and %q share code %d", other, name, code)}
		}
		g.SymbolToNumber[name] = code
		g.NumberToSymbol[code] = name
	}
	g.Start = g.SymbolToNumber[tbl.Start]

	for _, kw := range tbl.Keywords {
		g.Keywords[kw] = token.NAME
	}

	return g, nil
}

var pythonGrammar = sync.OnceValue(func() *Grammar {
	data, err := tables.ReadFile("tables/python.yaml")
	if err != nil {
		panic(fmt.Sprintf("grammar: embedded python table: %v", err))
	}
	g, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("grammar: embedded python table: %v", err))
	}
	return g
})

// Python returns a fresh copy of the embedded Python grammar tables.
func Python() *Grammar {
	return pythonGrammar().Copy()
}

// PythonNoPrintStatement is the Python grammar with "print" demoted from
// keyword to plain name.
func PythonNoPrintStatement() *Grammar {
	g := Python()
	g.Name = "python-no-print"
	g.RemoveKeyword("print")
	return g
}

// Named returns one of the built-in grammars by name.
func Named(name string) (*Grammar, error) {
	switch name {
	case "", "python":
		return Python(), nil
	case "python-no-print":
		return PythonNoPrintStatement(), nil
	}
	return nil, fmt.Errorf("unknown built-in grammar %q (available: python, python-no-print)", name)
}
