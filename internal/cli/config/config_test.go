package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("grammar", "", "")
	fs.Bool("no-print-statement", false, "")
	fs.String("state", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	fs.String("log-level", "", "")
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leapcst.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", newFlags())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, `
grammar: python
state_path: from-file.db
output: json
log_level: info
replay:
  workers: 2
  debounce: 250ms
`)

	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "file overrides defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-file.db", cfg.StatePath)
				assert.Equal(t, "json", cfg.OutputFormat)
				assert.Equal(t, 2, cfg.Replay.Workers)
				assert.Equal(t, 250*time.Millisecond, cfg.Replay.Debounce)
			},
		},
		{
			name: "env overrides file",
			env: map[string]string{
				"LEAPCST_STATE_PATH":         "from-env.db",
				"LEAPCST_REPLAY__WORKERS":    "8",
				"LEAPCST_NO_PRINT_STATEMENT": "true",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-env.db", cfg.StatePath)
				assert.Equal(t, 8, cfg.Replay.Workers)
				assert.True(t, cfg.NoPrintStatement)
			},
		},
		{
			name:  "flags override env",
			env:   map[string]string{"LEAPCST_STATE_PATH": "from-env.db"},
			flags: []string{"--state", "from-flag.db", "--output", "text", "--grammar", "python-no-print"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-flag.db", cfg.StatePath)
				assert.Equal(t, "text", cfg.OutputFormat)
				assert.Equal(t, "python-no-print", cfg.Grammar)
				assert.Equal(t, "info", cfg.LogLevel, "unset flags do not clobber the file")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.flags))

			cfg, err := LoadConfig(path, fs)
			require.NoError(t, err)
			assert.Equal(t, path, GetConfigFileUsed())
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Cleanup(ResetConfig)

	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "bad output", content: "output: yaml\n", errSubstr: "unknown output format"},
		{name: "bad level", content: "log_level: loud\n", errSubstr: "unknown log level"},
		{name: "negative workers", content: "replay:\n  workers: -1\n", errSubstr: "replay.workers"},
		{name: "malformed yaml", content: "grammar: [\n", errSubstr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&Config{LogLevel: "warn"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	logger, err = NewLogger(&Config{LogLevel: "error", Verbose: true}, &buf)
	require.NoError(t, err)
	logger.Debug("verbose wins")
	assert.Contains(t, buf.String(), "verbose wins")
}

func TestGetLogger(t *testing.T) {
	fallback := GetLogger(context.Background())
	require.NotNil(t, fallback)
	assert.False(t, fallback.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
