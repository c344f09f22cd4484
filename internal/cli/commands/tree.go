package commands

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcst/internal/cli/output"
	"github.com/leapstack-labs/leapcst/pkg/tree"
)

// TreeOptions holds options for the tree command.
type TreeOptions struct {
	Prefix bool
	Pos    bool
}

// NodeJSON is the JSON form of a tree.
type NodeJSON struct {
	Type     int         `json:"type"`
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Value    *string     `json:"value,omitempty"`
	Prefix   string      `json:"prefix,omitempty"`
	Start    string      `json:"start,omitempty"`
	Children []*NodeJSON `json:"children,omitempty"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	opts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "tree <log>",
		Short: "Show the syntax tree of a parse log",
		Long: `Replay a parse log and print the resulting tree, one node per line.
Specialized nodes are marked with their kind, e.g. simple_stmt <ExprStmt>.`,
		Example: `  leapcst tree parse.yaml
  leapcst tree parse.yaml --prefix --pos
  leapcst tree parse.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			root, err := cc.LoadTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderTree(cc, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Prefix, "prefix", false, "Show leaf prefixes")
	cmd.Flags().BoolVar(&opts.Pos, "pos", false, "Show leaf start positions")

	return cmd
}

func renderTree(cc *CommandContext, root tree.Base, opts *TreeOptions) error {
	r := cc.Renderer
	dumpOpts := tree.DumpOptions{
		Namer:      cc.Registry,
		ShowPrefix: opts.Prefix,
		ShowPos:    opts.Pos,
	}

	switch r.Mode() {
	case output.ModeJSON:
		return r.JSON(treeJSON(cc, root))
	case output.ModeMarkdown:
		var buf bytes.Buffer
		if err := tree.Dump(&buf, root, dumpOpts); err != nil {
			return err
		}
		r.Printf("```\n%s```\n", buf.String())
		return nil
	default:
		if r.IsTTY() {
			dumpOpts.StyleNode = r.Styles().NodeFunc()
			dumpOpts.StyleLeaf = r.Styles().LeafFunc()
		}
		if err := tree.Dump(r.Out(), root, dumpOpts); err != nil {
			return fmt.Errorf("write tree: %w", err)
		}
		return nil
	}
}

func treeJSON(cc *CommandContext, b tree.Base) *NodeJSON {
	n := &NodeJSON{
		Type: int(b.Type()),
		Name: cc.Registry.Name(b.Type()),
		Kind: tree.Kind(b),
	}
	if l, ok := b.(*tree.Leaf); ok {
		v := l.Value
		n.Value = &v
		n.Prefix = l.Prefix()
		n.Start = l.StartPos.String()
		return n
	}
	for _, ch := range b.Children() {
		n.Children = append(n.Children, treeJSON(cc, ch))
	}
	return n
}
