package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcst/internal/cli/output"
)

// SymbolJSON is the JSON form of one grammar symbol.
type SymbolJSON struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Specialized bool   `json:"specialized"`
}

// NewSymbolsCommand creates the symbols command.
func NewSymbolsCommand() *cobra.Command {
	var keywords bool

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List grammar symbols and their codes",
		Long: `List the nonterminal symbols of the active grammar with the numeric
codes the tree uses for them. Symbols built as specialized nodes are marked.`,
		Example: `  leapcst symbols
  leapcst symbols --grammar python-no-print --keywords`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if keywords {
				return renderKeywords(cc)
			}
			return renderSymbols(cc)
		},
	}

	cmd.Flags().BoolVar(&keywords, "keywords", false, "List keywords instead of symbols")
	return cmd
}

func renderSymbols(cc *CommandContext) error {
	r := cc.Renderer
	g := cc.Registry.Grammar()

	rows := make([]SymbolJSON, 0, len(g.NumberToSymbol))
	for _, code := range g.Codes() {
		rows = append(rows, SymbolJSON{
			Code:        int(code),
			Name:        cc.Registry.TypeRepr(code),
			Specialized: cc.Builder.Specialized(code),
		})
	}

	if r.Mode() == output.ModeJSON {
		return r.JSON(rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"CODE", "NAME", "SPECIALIZED"})
	for _, row := range rows {
		mark := ""
		if row.Specialized {
			mark = "yes"
		}
		t.AppendRow(table.Row{row.Code, row.Name, mark})
	}
	if r.Mode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	r.Printf("(%d symbols, grammar %s)\n", len(rows), g.Name)
	return nil
}

func renderKeywords(cc *CommandContext) error {
	r := cc.Renderer
	names := cc.Registry.Grammar().KeywordNames()

	if r.Mode() == output.ModeJSON {
		return r.JSON(names)
	}
	for _, name := range names {
		r.Println(name)
	}
	return nil
}
