package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Tree dumps
	Node lipgloss.Style
	Leaf lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Node:    r.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Leaf:    r.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// NodeFunc returns the node style's render function.
func (s *Styles) NodeFunc() func(string) string {
	return func(text string) string { return s.Node.Render(text) }
}

// LeafFunc returns the leaf style's render function.
func (s *Styles) LeafFunc() func(string) string {
	return func(text string) string { return s.Leaf.Render(text) }
}
