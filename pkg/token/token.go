// Package token defines the terminal token codes carried by CST leaves.
//
// Terminal codes are always below NTOffset (256). Codes at or above NTOffset
// belong to grammar symbols (nonterminals) and are assigned by a grammar table,
// see package grammar.
package token

import "fmt"

// Type is the integer type tag shared by leaves and interior nodes.
// Values below NTOffset are terminals, values at or above it are grammar symbols.
type Type int

// Terminal codes, numbered like the pgen2 token module.
const (
	ENDMARKER Type = iota
	NAME
	NUMBER
	STRING
	NEWLINE
	INDENT
	DEDENT
	LPAR
	RPAR
	LSQB
	RSQB
	COLON
	COMMA
	SEMI
	PLUS
	MINUS
	STAR
	SLASH
	VBAR
	AMPER
	LESS
	GREATER
	EQUAL
	DOT
	PERCENT
	BACKQUOTE
	LBRACE
	RBRACE
	EQEQUAL
	NOTEQUAL
	LESSEQUAL
	GREATEREQUAL
	TILDE
	CIRCUMFLEX
	LEFTSHIFT
	RIGHTSHIFT
	DOUBLESTAR
	PLUSEQUAL
	MINEQUAL
	STAREQUAL
	SLASHEQUAL
	PERCENTEQUAL
	AMPEREQUAL
	VBAREQUAL
	CIRCUMFLEXEQUAL
	LEFTSHIFTEQUAL
	RIGHTSHIFTEQUAL
	DOUBLESTAREQUAL
	DOUBLESLASH
	DOUBLESLASHEQUAL
	AT
	OP
	COMMENT
	NL
	RARROW
	ERRORTOKEN

	// NTokens is the number of terminal codes.
	NTokens
)

// NTOffset is the first grammar symbol code.
const NTOffset Type = 256

// IsTerminal reports whether t is a token code.
func IsTerminal(t Type) bool {
	return t >= 0 && t < NTOffset
}

// IsNonterminal reports whether t lies in the grammar symbol range.
func IsNonterminal(t Type) bool {
	return t >= NTOffset
}

// String returns the token name, or TOKEN(n) for codes without one.
func (t Type) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

var tokenNames = map[Type]string{
	ENDMARKER:        "ENDMARKER",
	NAME:             "NAME",
	NUMBER:           "NUMBER",
	STRING:           "STRING",
	NEWLINE:          "NEWLINE",
	INDENT:           "INDENT",
	DEDENT:           "DEDENT",
	LPAR:             "LPAR",
	RPAR:             "RPAR",
	LSQB:             "LSQB",
	RSQB:             "RSQB",
	COLON:            "COLON",
	COMMA:            "COMMA",
	SEMI:             "SEMI",
	PLUS:             "PLUS",
	MINUS:            "MINUS",
	STAR:             "STAR",
	SLASH:            "SLASH",
	VBAR:             "VBAR",
	AMPER:            "AMPER",
	LESS:             "LESS",
	GREATER:          "GREATER",
	EQUAL:            "EQUAL",
	DOT:              "DOT",
	PERCENT:          "PERCENT",
	BACKQUOTE:        "BACKQUOTE",
	LBRACE:           "LBRACE",
	RBRACE:           "RBRACE",
	EQEQUAL:          "EQEQUAL",
	NOTEQUAL:         "NOTEQUAL",
	LESSEQUAL:        "LESSEQUAL",
	GREATEREQUAL:     "GREATEREQUAL",
	TILDE:            "TILDE",
	CIRCUMFLEX:       "CIRCUMFLEX",
	LEFTSHIFT:        "LEFTSHIFT",
	RIGHTSHIFT:       "RIGHTSHIFT",
	DOUBLESTAR:       "DOUBLESTAR",
	PLUSEQUAL:        "PLUSEQUAL",
	MINEQUAL:         "MINEQUAL",
	STAREQUAL:        "STAREQUAL",
	SLASHEQUAL:       "SLASHEQUAL",
	PERCENTEQUAL:     "PERCENTEQUAL",
	AMPEREQUAL:       "AMPEREQUAL",
	VBAREQUAL:        "VBAREQUAL",
	CIRCUMFLEXEQUAL:  "CIRCUMFLEXEQUAL",
	LEFTSHIFTEQUAL:   "LEFTSHIFTEQUAL",
	RIGHTSHIFTEQUAL:  "RIGHTSHIFTEQUAL",
	DOUBLESTAREQUAL:  "DOUBLESTAREQUAL",
	DOUBLESLASH:      "DOUBLESLASH",
	DOUBLESLASHEQUAL: "DOUBLESLASHEQUAL",
	AT:               "AT",
	OP:               "OP",
	COMMENT:          "COMMENT",
	NL:               "NL",
	RARROW:           "RARROW",
	ERRORTOKEN:       "ERRORTOKEN",
}

// namesToTokens is the inverse of tokenNames, built once at init.
var namesToTokens = func() map[string]Type {
	m := make(map[string]Type, len(tokenNames))
	for t, name := range tokenNames {
		m[name] = t
	}
	return m
}()

// Lookup returns the terminal code for a token name such as "NAME".
func Lookup(name string) (Type, bool) {
	t, ok := namesToTokens[name]
	return t, ok
}
