package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcst/internal/cli/config"
	"github.com/leapstack-labs/leapcst/internal/cli/testutil"
	"github.com/leapstack-labs/leapcst/internal/state"
	itestutil "github.com/leapstack-labs/leapcst/internal/testutil"
)

// runCommand loads cfgYAML as the active configuration and executes cmd.
func runCommand(t *testing.T, cfgYAML string, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cfgPath := testutil.WriteFile(t, t.TempDir(), "leapcst.yaml", cfgYAML)
	_, err := config.LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	ctx := config.WithLogger(context.Background(), itestutil.NewTestLogger(t))
	err = cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewReplayCommand(), use: "replay <log>...", flags: []string{"check", "watch", "workers"}},
		{cmd: NewTreeCommand(), use: "tree <log>", flags: []string{"prefix", "pos"}},
		{cmd: NewLeavesCommand(), use: "leaves <log>"},
		{cmd: NewSymbolsCommand(), use: "symbols", flags: []string{"keywords"}},
		{cmd: NewSnapshotCommand(), use: "snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	var subs []string
	for _, c := range NewSnapshotCommand().Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"save", "list", "show", "rm"}, subs)
}

func TestReplayCommand_Text(t *testing.T) {
	log := testutil.WriteFile(t, t.TempDir(), "assign.yaml", testutil.AssignLog)

	out, err := runCommand(t, "output: text\n", NewReplayCommand(), log)
	require.NoError(t, err)
	assert.Equal(t, testutil.AssignSource, out)
}

func TestReplayCommand_ManyJSON(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		testutil.WriteFile(t, dir, "a.yaml", testutil.AssignLog),
		testutil.WriteFile(t, dir, "b.yaml", testutil.PrintLog),
		testutil.WriteFile(t, dir, "c.yaml", testutil.AssignLog),
	}

	out, err := runCommand(t, "output: json\nreplay:\n  workers: 2\n", NewReplayCommand(), paths...)
	require.NoError(t, err)

	var results []ReplayResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, paths[i], res.Path, "results keep argument order")
	}
	assert.Equal(t, testutil.AssignSource, results[0].Source)
	assert.Equal(t, "print x\n", results[1].Source)
	assert.Equal(t, 5, results[0].Leaves)
	assert.Equal(t, 3, results[0].Nodes)
}

func TestReplayCommand_Markdown(t *testing.T) {
	log := testutil.WriteFile(t, t.TempDir(), "assign.yaml", testutil.AssignLog)

	out, err := runCommand(t, "output: markdown\n", NewReplayCommand(), log)
	require.NoError(t, err)
	assert.Contains(t, out, "## "+log)
	assert.Contains(t, out, "```python\n"+testutil.AssignSource+"```")
}

func TestReplayCommand_Check(t *testing.T) {
	dir := t.TempDir()
	log := testutil.WriteFile(t, dir, "assign.yaml", testutil.AssignLog)
	same := testutil.WriteFile(t, dir, "same.py", testutil.AssignSource)
	other := testutil.WriteFile(t, dir, "other.py", "x = 1 # one\n")

	out, err := runCommand(t, "output: text\n", NewReplayCommand(), log, "--check", same)
	require.NoError(t, err)
	assert.Contains(t, out, "reproduces")
	testutil.AssertNoANSI(t, out)

	_, err = runCommand(t, "output: text\n", NewReplayCommand(), log, "--check", other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first difference at byte 6")

	_, err = runCommand(t, "output: text\n", NewReplayCommand(), log, log, "--check", same)
	assert.ErrorContains(t, err, "exactly one log")
}

func TestReplayCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := testutil.WriteFile(t, dir, "broken.yaml", testutil.BrokenLog)

	_, err := runCommand(t, "output: text\n", NewReplayCommand(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build classdef node")
	assert.Contains(t, err.Error(), "broken.yaml")

	_, err = runCommand(t, "output: text\n", NewReplayCommand(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "open event log")
}

func TestTreeCommand(t *testing.T) {
	log := testutil.WriteFile(t, t.TempDir(), "assign.yaml", testutil.AssignLog)

	out, err := runCommand(t, "output: text\n", NewTreeCommand(), log, "--prefix")
	require.NoError(t, err)
	testutil.AssertNoANSI(t, out)
	assert.True(t, strings.HasPrefix(out, "file_input\n  simple_stmt <ExprStmt>\n    expr_stmt\n"), out)
	assert.Contains(t, out, `NEWLINE "\n" prefix="  # one"`)

	out, err = runCommand(t, "output: json\n", NewTreeCommand(), log)
	require.NoError(t, err)
	var root NodeJSON
	require.NoError(t, json.Unmarshal([]byte(out), &root))
	assert.Equal(t, "file_input", root.Name)
	assert.Equal(t, 256, root.Type)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "ExprStmt", root.Children[0].Kind)
	require.NotNil(t, root.Children[1].Value)
	assert.Equal(t, "", *root.Children[1].Value, "ENDMARKER keeps its empty value")
}

func TestLeavesCommand(t *testing.T) {
	log := testutil.WriteFile(t, t.TempDir(), "assign.yaml", testutil.AssignLog)

	out, err := runCommand(t, "output: markdown\n", NewLeavesCommand(), log)
	require.NoError(t, err)
	assert.Contains(t, out, "| NAME |")
	assert.Contains(t, out, `\n`)
	assert.Contains(t, out, "(5 leaves)")

	out, err = runCommand(t, "output: json\n", NewLeavesCommand(), log)
	require.NoError(t, err)
	var leaves []LeafJSON
	require.NoError(t, json.Unmarshal([]byte(out), &leaves))
	require.Len(t, leaves, 5)

	var rebuilt strings.Builder
	for _, l := range leaves {
		rebuilt.WriteString(l.Prefix + l.Value)
	}
	assert.Equal(t, testutil.AssignSource, rebuilt.String())
	assert.Equal(t, []string{"# one"}, leaves[3].Comments)
	assert.Equal(t, "1:1", leaves[0].End)
}

func TestSymbolsCommand(t *testing.T) {
	out, err := runCommand(t, "output: json\n", NewSymbolsCommand())
	require.NoError(t, err)

	var syms []SymbolJSON
	require.NoError(t, json.Unmarshal([]byte(out), &syms))
	require.NotEmpty(t, syms)
	assert.Equal(t, SymbolJSON{Code: 256, Name: "file_input"}, syms[0])

	special := map[string]bool{}
	for _, s := range syms {
		if s.Specialized {
			special[s.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{"simple_stmt": true, "classdef": true, "funcdef": true}, special)

	out, err = runCommand(t, "output: text\n", NewSymbolsCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "grammar python)")
}

func TestSymbolsCommand_Keywords(t *testing.T) {
	out, err := runCommand(t, "output: json\n", NewSymbolsCommand(), "--keywords")
	require.NoError(t, err)
	assert.Contains(t, out, `"print"`)

	out, err = runCommand(t, "output: json\nno_print_statement: true\n", NewSymbolsCommand(), "--keywords")
	require.NoError(t, err)
	assert.NotContains(t, out, `"print"`)
	assert.Contains(t, out, `"def"`)
}

func TestSnapshotCommands(t *testing.T) {
	dir := t.TempDir()
	log := testutil.WriteFile(t, dir, "assign.yaml", testutil.AssignLog)
	cfg := "output: json\nstate_path: " + filepath.Join(dir, "db", "state.db") + "\n"

	out, err := runCommand(t, cfg, NewSnapshotCommand(), "save", log)
	require.NoError(t, err)
	var snap state.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "assign", snap.Name)
	assert.Equal(t, testutil.AssignSource, snap.Source)

	out, err = runCommand(t, cfg, NewSnapshotCommand(), "list")
	require.NoError(t, err)
	var snaps []state.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, snap.ID, snaps[0].ID)

	textCfg := strings.Replace(cfg, "output: json", "output: text", 1)
	out, err = runCommand(t, textCfg, NewSnapshotCommand(), "show", snap.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.AssignSource, out)

	out, err = runCommand(t, textCfg, NewSnapshotCommand(), "show", snap.ID, "--events")
	require.NoError(t, err)
	assert.Contains(t, out, "grammar: python")
	assert.Contains(t, out, "symbol: simple_stmt")

	_, err = runCommand(t, textCfg, NewSnapshotCommand(), "rm", snap.ID)
	require.NoError(t, err)

	_, err = runCommand(t, textCfg, NewSnapshotCommand(), "show", snap.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)

	out, err = runCommand(t, textCfg, NewSnapshotCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots.")
}

func TestWatchLoop(t *testing.T) {
	dir := t.TempDir()
	log := testutil.WriteFile(t, dir, "assign.yaml", testutil.AssignLog)
	absLog, err := filepath.Abs(log)
	require.NoError(t, err)

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()
	require.NoError(t, watcher.Add(dir))

	cc := &CommandContext{Logger: itestutil.NewTestLogger(t)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchLoop(ctx, cc, watcher, map[string]bool{absLog: true}, 10*time.Millisecond, func() { runs.Add(1) })
	}()

	testutil.WriteFile(t, dir, "unrelated.yaml", "[]")
	testutil.WriteFile(t, dir, "assign.yaml", testutil.AssignLog)

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop on cancel")
	}
}

func TestWatchLoopRunsOneAtATime(t *testing.T) {
	dir := t.TempDir()
	log := testutil.WriteFile(t, dir, "assign.yaml", testutil.AssignLog)
	absLog, err := filepath.Abs(log)
	require.NoError(t, err)

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()
	require.NoError(t, watcher.Add(dir))

	cc := &CommandContext{Logger: itestutil.NewTestLogger(t)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs, active atomic.Int32
	var overlapped atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchLoop(ctx, cc, watcher, map[string]bool{absLog: true}, time.Millisecond, func() {
			if active.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(30 * time.Millisecond)
			active.Add(-1)
			runs.Add(1)
		})
	}()

	for range 5 {
		testutil.WriteFile(t, dir, "assign.yaml", testutil.AssignLog)
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop on cancel")
	}

	assert.False(t, overlapped.Load(), "reruns must not overlap")
	assert.Zero(t, active.Load(), "no rerun is still running after the loop returns")
	after := runs.Load()
	testutil.WriteFile(t, dir, "assign.yaml", testutil.AssignLog)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no reruns after the loop returns")
}

func TestLoadTreeWarnsOnGrammarMismatch(t *testing.T) {
	t.Cleanup(config.ResetConfig)
	cfgPath := testutil.WriteFile(t, t.TempDir(), "leapcst.yaml", "grammar: python-no-print\n")
	_, err := config.LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	logger, logs := itestutil.NewCaptureLogger()
	cmd := NewTreeCommand()
	cmd.SetContext(config.WithLogger(context.Background(), logger))
	cc, err := NewCommandContext(cmd)
	require.NoError(t, err)

	log := testutil.WriteFile(t, t.TempDir(), "assign.yaml", testutil.AssignLog)
	root, err := cc.LoadTree(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, testutil.AssignSource, root.String())

	out := logs.String()
	assert.Contains(t, out, "log recorded against a different grammar")
	assert.Contains(t, out, "log=python")
	assert.Contains(t, out, "using=python-no-print")
	assert.Contains(t, out, "msg=replayed")
}
