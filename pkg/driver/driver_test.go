package driver

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapcst/internal/testutil"
	"github.com/leapstack-labs/leapcst/pkg/builder"
	"github.com/leapstack-labs/leapcst/pkg/grammar"
	"github.com/leapstack-labs/leapcst/pkg/symbols"
	"github.com/leapstack-labs/leapcst/pkg/syntax"
	"github.com/leapstack-labs/leapcst/pkg/token"
	"github.com/leapstack-labs/leapcst/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T) (*builder.Builder, *symbols.Registry) {
	t.Helper()
	reg := symbols.New(grammar.Python())
	m, err := syntax.Mapping(reg)
	require.NoError(t, err)
	return builder.New(reg, builder.WithSpecializations(m), builder.WithLogger(testutil.NewTestLogger(t))), reg
}

func TestLoadYAML(t *testing.T) {
	log, err := Load("testdata/assign.yaml")
	require.NoError(t, err)

	assert.Equal(t, "python", log.Grammar)
	require.Len(t, log.Events, 8)
	assert.Equal(t, &Shift{Type: "NAME", Value: "x", Line: 1}, log.Events[0].Shift)
	assert.Equal(t, &Reduce{Symbol: "file_input", Count: 2}, log.Events[7].Reduce)
}

func TestReplayAssign(t *testing.T) {
	b, reg := newBuilder(t)
	log, err := Load("testdata/assign.yaml")
	require.NoError(t, err)

	root, err := Replay(context.Background(), b, reg, log.Events)
	require.NoError(t, err)

	assert.Equal(t, "x = 1  # one\n", root.String())
	assert.Equal(t, reg.MustLookup("file_input"), root.Type())
	assert.IsType(t, &syntax.ExprStmt{}, root.Children()[0])
	require.NoError(t, tree.Validate(root))
}

func TestReplayJSONClass(t *testing.T) {
	b, reg := newBuilder(t)
	log, err := Load("testdata/class.json")
	require.NoError(t, err)
	assert.Empty(t, log.Grammar)

	root, err := Replay(context.Background(), b, reg, log.Events)
	require.NoError(t, err)
	assert.Equal(t, "class A: pass\n", root.String())

	cls, ok := root.Children()[0].(*syntax.Class)
	require.True(t, ok, "got %T", root.Children()[0])
	assert.Equal(t, "A", cls.Name().Value)
	assert.IsType(t, &syntax.ExprStmt{}, cls.Suite())
}

func TestReplayNumericCodes(t *testing.T) {
	b, reg := newBuilder(t)
	events := []Event{
		{Shift: &Shift{Type: "1", Value: "a", Line: 1}},
		{Shift: &Shift{Type: "4", Value: "\n", Line: 1, Column: 1}},
		{Reduce: &Reduce{Symbol: "256", Count: 2}},
	}

	root, err := Replay(context.Background(), b, reg, events)
	require.NoError(t, err)
	assert.Equal(t, token.Type(256), root.Type())
	assert.Equal(t, "a\n", root.String())
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		index  int
		want   string
	}{
		{
			name:   "unknown token",
			events: []Event{{Shift: &Shift{Type: "BOGUS"}}},
			index:  0,
			want:   "unknown token type",
		},
		{
			name: "unknown symbol",
			events: []Event{
				{Shift: &Shift{Type: "NAME", Value: "a"}},
				{Reduce: &Reduce{Symbol: "no_such_rule", Count: 1}},
			},
			index: 1,
			want:  "unknown grammar symbol",
		},
		{
			name: "stack underflow",
			events: []Event{
				{Shift: &Shift{Type: "NAME", Value: "a"}},
				{Reduce: &Reduce{Symbol: "expr_stmt", Count: 3}},
			},
			index: 1,
			want:  "needs 3 entries",
		},
		{
			name: "reduce names a token code",
			events: []Event{
				{Shift: &Shift{Type: "NAME", Value: "x"}},
				{Shift: &Shift{Type: "NEWLINE", Value: "\n"}},
				{Reduce: &Reduce{Symbol: "1", Count: 2}},
			},
			index: 2,
			want:  "is a token type",
		},
		{
			name:   "empty event",
			events: []Event{{}},
			index:  0,
			want:   "neither shift nor reduce",
		},
		{
			name: "specialization failure",
			events: []Event{
				{Shift: &Shift{Type: "NAME", Value: "klass"}},
				{Shift: &Shift{Type: "NAME", Value: "A"}},
				{Shift: &Shift{Type: "COLON", Value: ":"}},
				{Reduce: &Reduce{Symbol: "classdef", Count: 3}},
			},
			index: 3,
			want:  "build classdef node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, reg := newBuilder(t)
			_, err := Replay(context.Background(), b, reg, tt.events)

			var replayErr *ReplayError
			require.ErrorAs(t, err, &replayErr)
			assert.Equal(t, tt.index, replayErr.Index)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReplaySpecializationErrorUnwraps(t *testing.T) {
	b, reg := newBuilder(t)
	_, err := Replay(context.Background(), b, reg, []Event{
		{Shift: &Shift{Type: "NAME", Value: "def"}},
		{Shift: &Shift{Type: "NAME", Value: "f"}},
		{Reduce: &Reduce{Symbol: "funcdef", Count: 2}},
	})

	var specErr *builder.SpecializationError
	require.ErrorAs(t, err, &specErr)
	assert.ErrorIs(t, err, syntax.ErrShape)
}

func TestReplayNoSingleRoot(t *testing.T) {
	b, reg := newBuilder(t)

	_, err := Replay(context.Background(), b, reg, nil)
	assert.ErrorIs(t, err, ErrNoRoot)

	_, err = Replay(context.Background(), b, reg, []Event{
		{Shift: &Shift{Type: "NAME", Value: "a"}},
		{Shift: &Shift{Type: "NAME", Value: "b"}},
	})
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestReplayCanceled(t *testing.T) {
	b, reg := newBuilder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Replay(ctx, b, reg, []Event{{Shift: &Shift{Type: "NAME", Value: "a"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordRoundTrip(t *testing.T) {
	b, reg := newBuilder(t)
	log, err := Load("testdata/class.json")
	require.NoError(t, err)
	root, err := Replay(context.Background(), b, reg, log.Events)
	require.NoError(t, err)

	events := Record(root, reg)
	again, err := Replay(context.Background(), b, reg, events)
	require.NoError(t, err)

	assert.Equal(t, root.String(), again.String())
	assert.Equal(t, tree.Repr(root, reg), tree.Repr(again, reg))
	assert.Equal(t, events, Record(again, reg))
}

func TestRecordNumeric(t *testing.T) {
	root := tree.NewNode(300, []tree.Base{
		tree.NewLeaf(token.NAME, "a", token.Position{Line: 1}, ""),
		tree.NewLeaf(200, "?", token.Position{Line: 1, Column: 1}, ""),
	})

	events := Record(root, nil)
	require.Len(t, events, 3)
	assert.Equal(t, "NAME", events[0].Shift.Type)
	assert.Equal(t, "200", events[1].Shift.Type)
	assert.Equal(t, &Reduce{Symbol: "300", Count: 2}, events[2].Reduce)
}

func TestEncodeDecode(t *testing.T) {
	b, reg := newBuilder(t)
	log, err := Load("testdata/assign.yaml")
	require.NoError(t, err)
	root, err := Replay(context.Background(), b, reg, log.Events)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Log{Grammar: "python", Events: Record(root, reg)}))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "python", decoded.Grammar)
	assert.Equal(t, log.Events, decoded.Events)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader("- shift: {type: NAME}\n  reduce: {symbol: x, count: 1}\n"))
	var replayErr *ReplayError
	require.ErrorAs(t, err, &replayErr)
	assert.Contains(t, err.Error(), "both shift and reduce")

	_, err = Decode(strings.NewReader("events: [1, 2"))
	assert.Error(t, err)

	log, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, log.Events)
}

func TestEncodeKeepsWhitespaceText(t *testing.T) {
	texts := []string{"\n", "\r\n", "  \n", "\t", " ", "\n\n  # c\n"}

	var events []Event
	for i, text := range texts {
		events = append(events, Event{Shift: &Shift{Type: "NEWLINE", Value: text, Prefix: text, Line: i + 1}})
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Log{Grammar: "python", Events: events}))
	assert.NotContains(t, buf.String(), "|", "whitespace text must not become a block scalar")
	assert.Contains(t, buf.String(), `value: "\n"`)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, events, decoded.Events)
}

func TestEncodeNumericTypeStaysString(t *testing.T) {
	events := []Event{
		{Shift: &Shift{Type: "200", Value: "1", Line: 1}},
		{Reduce: &Reduce{Symbol: "300", Count: 1}},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Log{Events: events}))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, events, decoded.Events)
}
