// Package config provides configuration management for the leapcst CLI.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	Grammar          string       `koanf:"grammar"`
	GrammarTable     string       `koanf:"grammar_table"` // YAML table overriding Grammar
	NoPrintStatement bool         `koanf:"no_print_statement"`
	StatePath        string       `koanf:"state_path"`
	Verbose          bool         `koanf:"verbose"`
	OutputFormat     string       `koanf:"output"`
	LogLevel         string       `koanf:"log_level"`
	Replay           ReplayConfig `koanf:"replay"`
}

// ReplayConfig tunes the replay command.
type ReplayConfig struct {
	Workers  int           `koanf:"workers"`
	Debounce time.Duration `koanf:"debounce"`
}

// Default configuration values.
const (
	DefaultGrammar   = "python"
	DefaultStateFile = ".leapcst/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel  = "warn"
	DefaultWorkers   = 4
	DefaultDebounce  = 100 * time.Millisecond
)

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Grammar:      DefaultGrammar,
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		Replay: ReplayConfig{
			Workers:  DefaultWorkers,
			Debounce: DefaultDebounce,
		},
	}
}
