package commands

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcst/internal/cli/output"
	"github.com/leapstack-labs/leapcst/pkg/token"
	"github.com/leapstack-labs/leapcst/pkg/tree"
)

// LeafJSON is the JSON form of one leaf.
type LeafJSON struct {
	Type     string   `json:"type"`
	Value    string   `json:"value"`
	Prefix   string   `json:"prefix"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Comments []string `json:"comments,omitempty"`
}

// NewLeavesCommand creates the leaves command.
func NewLeavesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaves <log>",
		Short: "List the leaves of a parse log in source order",
		Long: `Replay a parse log and list its leaves left to right with their type,
value, prefix and position. Concatenating prefix and value over all rows
gives back the source text.`,
		Example: `  leapcst leaves parse.yaml
  leapcst leaves parse.yaml -o markdown`,
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
			return renderLeaves(cc, root)
		},
	}
	return cmd
}

func renderLeaves(cc *CommandContext, root tree.Base) error {
	r := cc.Renderer

	if r.Mode() == output.ModeJSON {
		rows := []LeafJSON{}
		for l := range root.Leaves() {
			rows = append(rows, LeafJSON{
				Type:     cc.Registry.Name(l.Type()),
				Value:    l.Value,
				Prefix:   l.Prefix(),
				Start:    l.StartPos.String(),
				End:      l.EndPos().String(),
				Comments: token.Comments(l.Prefix()),
			})
		}
		return r.JSON(rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "TYPE", "VALUE", "PREFIX", "START", "END"})

	n := 0
	for l := range root.Leaves() {
		n++
		t.AppendRow(table.Row{
			n,
			cc.Registry.Name(l.Type()),
			quoteCell(l.Value),
			quoteCell(l.Prefix()),
			l.StartPos.String(),
			l.EndPos().String(),
		})
	}

	if r.Mode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	r.Printf("(%d leaves)\n", n)
	return nil
}

// quoteCell escapes control characters so rows stay on one line.
func quoteCell(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
