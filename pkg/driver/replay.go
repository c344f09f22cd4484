package driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapcst/pkg/builder"
	"github.com/leapstack-labs/leapcst/pkg/token"
	"github.com/leapstack-labs/leapcst/pkg/tree"
)

// ErrNoRoot is returned when a log does not reduce to exactly one tree.
var ErrNoRoot = errors.New("log does not end with a single root")

// ReplayError reports the event at which a replay failed.
type ReplayError struct {
	Index int
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("event %d: %v", e.Index, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// Replay feeds events through b and returns the resulting root.
//
// Shifts become terminal reductions. A reduce pops Count subtrees, in
// source order, and pushes whatever b.Convert returns for them. The context
// is checked between events.
func Replay(ctx context.Context, b *builder.Builder, syms Resolver, events []Event) (tree.Base, error) {
	var stack []tree.Base

	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, &ReplayError{Index: i, Err: err}
		}
		if err := ev.validate(); err != nil {
			return nil, &ReplayError{Index: i, Err: err}
		}

		var raw builder.Raw
		if s := ev.Shift; s != nil {
			t, err := resolveTerminal(s.Type)
			if err != nil {
				return nil, &ReplayError{Index: i, Err: err}
			}
			raw = builder.Raw{
				Type:  t,
				Value: s.Value,
				Context: builder.Context{
					Prefix:   s.Prefix,
					StartPos: token.Position{Line: s.Line, Column: s.Column},
				},
			}
		} else {
			r := ev.Reduce
			t, err := resolveSymbol(syms, r.Symbol)
			if err != nil {
				return nil, &ReplayError{Index: i, Err: err}
			}
			if r.Count > len(stack) {
				return nil, &ReplayError{Index: i, Err: fmt.Errorf("reduce %s needs %d entries, stack has %d", r.Symbol, r.Count, len(stack))}
			}
			split := len(stack) - r.Count
			children := make([]tree.Base, r.Count)
			copy(children, stack[split:])
			stack = stack[:split]
			raw = builder.Raw{Type: t, Children: children}
		}

		n, err := b.Convert(raw)
		if err != nil {
			return nil, &ReplayError{Index: i, Err: err}
		}
		stack = append(stack, n)
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %d entries left", ErrNoRoot, len(stack))
	}
	return stack[0], nil
}

// Record returns the events that rebuild root when replayed: leaves become
// shifts and interior nodes become reduces, in post-order. Symbols are
// written through namer, or as decimal codes when namer is nil.
//
// Nodes with a single child cannot survive a replay, since the builder
// collapses them. Trees produced by the builder never contain such nodes.
func Record(root tree.Base, namer tree.Namer) []Event {
	var events []Event
	record(root, namer, &events)
	return events
}

func record(b tree.Base, namer tree.Namer, events *[]Event) {
	if l, ok := b.(*tree.Leaf); ok {
		*events = append(*events, Event{Shift: &Shift{
			Type:   terminalRef(l.Type()),
			Value:  l.Value,
			Prefix: l.Prefix(),
			Line:   l.StartPos.Line,
			Column: l.StartPos.Column,
		}})
		return
	}

	children := b.Children()
	for _, ch := range children {
		record(ch, namer, events)
	}
	sym := strconv.Itoa(int(b.Type()))
	if namer != nil {
		sym = namer.Name(b.Type())
	}
	*events = append(*events, Event{Reduce: &Reduce{Symbol: sym, Count: len(children)}})
}

func terminalRef(t token.Type) string {
	if name := t.String(); name != "" {
		if back, ok := token.Lookup(name); ok && back == t {
			return name
		}
	}
	return strconv.Itoa(int(t))
}
