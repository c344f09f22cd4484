// Package driver replays recorded parser events through a tree builder.
//
// It stands in for the parser that normally sits in front of the builder:
// a log of shift and reduce events is read from YAML or JSON and fed,
// bottom-up, into builder.Convert. Record produces the same event form
// from an existing tree, so a tree can be persisted and rebuilt.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/leapstack-labs/leapcst/pkg/token"
	"gopkg.in/yaml.v3"
)

// Shift pushes one token. Type is a token name ("NAME") or a decimal code.
type Shift struct {
	Type   string `yaml:"type" json:"type"`
	Value  string `yaml:"value" json:"value"`
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Line   int    `yaml:"line" json:"line"`
	Column int    `yaml:"column" json:"column"`
}

// MarshalYAML writes the shift as a flow mapping with value and prefix
// double-quoted. Block scalars would drop whitespace-only text such as "\n".
func (s Shift) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	add := func(key string, val *yaml.Node) {
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}
	add("type", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Type})
	add("value", quoted(s.Value))
	if s.Prefix != "" {
		add("prefix", quoted(s.Prefix))
	}
	add("line", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(s.Line)})
	add("column", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(s.Column)})
	return n, nil
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}

// Reduce pops Count entries and replaces them with one built from Symbol.
// Symbol is a grammar symbol name or a decimal code.
type Reduce struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Count  int    `yaml:"count" json:"count"`
}

// Event is a single entry of a parse log. Exactly one field is set.
type Event struct {
	Shift  *Shift  `yaml:"shift,omitempty" json:"shift,omitempty"`
	Reduce *Reduce `yaml:"reduce,omitempty" json:"reduce,omitempty"`
}

// Log is a parse log with the grammar it was recorded against.
type Log struct {
	Grammar string  `yaml:"grammar,omitempty" json:"grammar,omitempty"`
	Events  []Event `yaml:"events" json:"events"`
}

var errEmptyEvent = errors.New("event has neither shift nor reduce")

func (e Event) validate() error {
	switch {
	case e.Shift == nil && e.Reduce == nil:
		return errEmptyEvent
	case e.Shift != nil && e.Reduce != nil:
		return errors.New("event has both shift and reduce")
	case e.Reduce != nil && e.Reduce.Count < 0:
		return fmt.Errorf("negative reduce count %d", e.Reduce.Count)
	}
	return nil
}

// Decode reads a log from r. Both a bare event list and a mapping with
// "grammar" and "events" keys are accepted. JSON input is valid YAML.
func Decode(r io.Reader) (*Log, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Log{}, nil
		}
		return nil, fmt.Errorf("decode event log: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	var log Log
	var err error
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&log.Events)
	} else {
		err = root.Decode(&log)
	}
	if err != nil {
		return nil, fmt.Errorf("decode event log: %w", err)
	}

	for i, ev := range log.Events {
		if err := ev.validate(); err != nil {
			return nil, &ReplayError{Index: i, Err: err}
		}
	}
	return &log, nil
}

// Load reads a log file.
func Load(path string) (*Log, error) {
	f, err := os.Open(path) //nolint:gosec // path is a user-supplied log file
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	log, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return log, nil
}

// Encode writes log to w as YAML.
func Encode(w io.Writer, log *Log) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encode event log: %w", err)
	}
	return enc.Close()
}

// Resolver maps grammar symbol names to codes. *symbols.Registry satisfies it.
type Resolver interface {
	Lookup(name string) (token.Type, bool)
}

func resolveTerminal(ref string) (token.Type, error) {
	if t, ok := token.Lookup(ref); ok {
		return t, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		return token.Type(n), nil
	}
	return 0, fmt.Errorf("unknown token type %q", ref)
}

func resolveSymbol(syms Resolver, ref string) (token.Type, error) {
	if syms != nil {
		if t, ok := syms.Lookup(ref); ok {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if token.IsTerminal(token.Type(n)) {
			return 0, fmt.Errorf("reduce code %d is a token type, not a grammar symbol", n)
		}
		return token.Type(n), nil
	}
	return 0, fmt.Errorf("unknown grammar symbol %q", ref)
}
