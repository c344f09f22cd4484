package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapcst/internal/cli/output"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Grammar == "" && c.GrammarTable == "" {
		return fmt.Errorf("grammar is required")
	}
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Replay.Workers < 0 {
		return fmt.Errorf("replay.workers must not be negative, got %d", c.Replay.Workers)
	}
	if c.Replay.Debounce < 0 {
		return fmt.Errorf("replay.debounce must not be negative, got %s", c.Replay.Debounce)
	}
	return nil
}

// ParseLevel maps a level name to a slog level. The empty name means warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
