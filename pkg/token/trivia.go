package token

import "strings"

// TriviaKind distinguishes the pieces a prefix is made of.
type TriviaKind int

// Trivia kinds.
const (
	Whitespace TriviaKind = iota // spaces, tabs, form feeds
	Newline                      // \n, \r\n or \r
	Comment                      // # to end of line, newline excluded
	Backslash                    // explicit line continuation
)

func (k TriviaKind) String() string {
	switch k {
	case Whitespace:
		return "whitespace"
	case Newline:
		return "newline"
	case Comment:
		return "comment"
	case Backslash:
		return "backslash"
	}
	return "unknown"
}

// Trivia is one piece of a leaf prefix.
type Trivia struct {
	Kind TriviaKind
	Text string
}

// SplitPrefix breaks a leaf prefix into trivia pieces.
// Concatenating the Text of the result always yields prefix again.
func SplitPrefix(prefix string) []Trivia {
	var parts []Trivia
	for len(prefix) > 0 {
		var n int
		var kind TriviaKind
		switch c := prefix[0]; {
		case c == '#':
			kind = Comment
			n = strings.IndexAny(prefix, "\r\n")
			if n < 0 {
				n = len(prefix)
			}
		case c == '\r' && len(prefix) > 1 && prefix[1] == '\n':
			kind, n = Newline, 2
		case c == '\n' || c == '\r':
			kind, n = Newline, 1
		case c == '\\':
			kind, n = Backslash, 1
			if len(prefix) > 1 && prefix[1] == '\n' {
				n = 2
			}
		default:
			kind = Whitespace
			n = strings.IndexAny(prefix, "#\r\n\\")
			if n < 0 {
				n = len(prefix)
			}
		}
		parts = append(parts, Trivia{Kind: kind, Text: prefix[:n]})
		prefix = prefix[n:]
	}
	return parts
}

// Comments returns only the comment texts found in prefix, in order.
func Comments(prefix string) []string {
	var out []string
	for _, t := range SplitPrefix(prefix) {
		if t.Kind == Comment {
			out = append(out, t.Text)
		}
	}
	return out
}
