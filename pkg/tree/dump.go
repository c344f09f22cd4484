package tree

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapcst/pkg/token"
)

const indentSize = 2

// Namer renders type codes for diagnostics.
type Namer interface {
	Name(t token.Type) string
}

type numericNamer struct{}

func (numericNamer) Name(t token.Type) string {
	if token.IsTerminal(t) {
		return t.String()
	}
	return strconv.Itoa(int(t))
}

// DumpOptions controls Dump output.
type DumpOptions struct {
	Namer      Namer
	ShowPrefix bool
	ShowPos    bool

	// Optional decorators, e.g. terminal colors.
	StyleNode func(string) string
	StyleLeaf func(string) string
}

// Dump writes an indented outline of b, one line per node.
func Dump(w io.Writer, b Base, opts DumpOptions) error {
	if opts.Namer == nil {
		opts.Namer = numericNamer{}
	}
	if opts.StyleNode == nil {
		opts.StyleNode = identity
	}
	if opts.StyleLeaf == nil {
		opts.StyleLeaf = identity
	}

	var buf bytes.Buffer
	dump(&buf, b, 0, &opts)
	_, err := w.Write(buf.Bytes())
	return err
}

func identity(s string) string { return s }

func dump(buf *bytes.Buffer, b Base, depth int, opts *DumpOptions) {
	buf.WriteString(strings.Repeat(" ", depth*indentSize))

	l, ok := b.(*Leaf)
	if !ok {
		label := opts.Namer.Name(b.Type())
		if kind := Kind(b); kind != "Node" {
			label += " <" + kind + ">"
		}
		buf.WriteString(opts.StyleNode(label))
		buf.WriteByte('\n')
		for _, ch := range b.Children() {
			dump(buf, ch, depth+1, opts)
		}
		return
	}

	line := opts.Namer.Name(l.Type()) + " " + strconv.Quote(l.Value)
	if opts.ShowPos {
		line += " @" + l.StartPos.String()
	}
	if opts.ShowPrefix && l.prefix != "" {
		line += " prefix=" + strconv.Quote(l.prefix)
	}
	buf.WriteString(opts.StyleLeaf(line))
	buf.WriteByte('\n')
}

// Repr returns a canonical one-line representation such as
// Node(simple_stmt, [Leaf(NAME, 'x'), Leaf(NEWLINE, '\n')]).
// namer may be nil.
func Repr(b Base, namer Namer) string {
	if namer == nil {
		namer = numericNamer{}
	}
	var sb strings.Builder
	repr(&sb, b, namer)
	return sb.String()
}

func repr(sb *strings.Builder, b Base, namer Namer) {
	if l, ok := b.(*Leaf); ok {
		fmt.Fprintf(sb, "Leaf(%s, %s)", namer.Name(l.Type()), quote(l.Value))
		return
	}
	fmt.Fprintf(sb, "%s(%s, [", Kind(b), namer.Name(b.Type()))
	for i, ch := range b.Children() {
		if i > 0 {
			sb.WriteString(", ")
		}
		repr(sb, ch, namer)
	}
	sb.WriteString("])")
}

// quote renders s the way Python's repr does: single quotes unless s
// contains a single quote and no double quote.
func quote(s string) string {
	q := strconv.Quote(s)
	body := strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + body + `"`
	}
	return "'" + strings.ReplaceAll(body, "'", `\'`) + "'"
}

// Kind names the concrete node type: "Leaf", "Node" or the bare name of
// a specialized type.
func Kind(b Base) string {
	switch b.(type) {
	case *Leaf:
		return "Leaf"
	case *Node:
		return "Node"
	}
	name := fmt.Sprintf("%T", b)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
