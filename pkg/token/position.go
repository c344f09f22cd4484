package token

import (
	"fmt"
	"unicode/utf8"
)

// Position is the location of the first character of a token value.
// Lines are 1-based and columns are 0-based, matching the tokenizer.
type Position struct {
	Line   int
	Column int
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Advance returns the position just past text when text starts at p.
// Columns count characters, not bytes.
func (p Position) Advance(text string) Position {
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		if r == '\n' {
			p.Line++
			p.Column = 0
			continue
		}
		p.Column++
	}
	return p
}
