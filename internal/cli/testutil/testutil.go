// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapcst/internal/cli/output"
)

// AssignLog is a parse log for "x = 1  # one\n".
const AssignLog = `grammar: python
events:
  - shift: {type: NAME, value: x, line: 1, column: 0}
  - shift: {type: EQUAL, value: "=", prefix: " ", line: 1, column: 2}
  - shift: {type: NUMBER, value: "1", prefix: " ", line: 1, column: 4}
  - reduce: {symbol: expr_stmt, count: 3}
  - shift: {type: NEWLINE, value: "\n", prefix: "  # one", line: 1, column: 12}
  - reduce: {symbol: simple_stmt, count: 2}
  - shift: {type: ENDMARKER, value: "", line: 2, column: 0}
  - reduce: {symbol: file_input, count: 2}
`

// AssignSource is the text AssignLog reconstructs.
const AssignSource = "x = 1  # one\n"

// PrintLog is a parse log for "print x\n" under the no-print grammar.
const PrintLog = `- shift: {type: NAME, value: print, line: 1, column: 0}
- shift: {type: NAME, value: x, prefix: " ", line: 1, column: 6}
- reduce: {symbol: power, count: 2}
- shift: {type: NEWLINE, value: "\n", line: 1, column: 7}
- reduce: {symbol: simple_stmt, count: 2}
- shift: {type: ENDMARKER, value: "", line: 2, column: 0}
- reduce: {symbol: file_input, count: 2}
`

// BrokenLog fails in the classdef constructor.
const BrokenLog = `- shift: {type: NAME, value: klass, line: 1, column: 0}
- shift: {type: NAME, value: A, prefix: " ", line: 1, column: 6}
- shift: {type: COLON, value: ":", line: 1, column: 7}
- reduce: {symbol: classdef, count: 3}
`

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}
