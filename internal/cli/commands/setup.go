package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapcst/internal/cli/config"
	"github.com/leapstack-labs/leapcst/internal/cli/output"
	"github.com/leapstack-labs/leapcst/internal/state"
	"github.com/leapstack-labs/leapcst/pkg/builder"
	"github.com/leapstack-labs/leapcst/pkg/driver"
	"github.com/leapstack-labs/leapcst/pkg/grammar"
	"github.com/leapstack-labs/leapcst/pkg/symbols"
	"github.com/leapstack-labs/leapcst/pkg/syntax"
	"github.com/leapstack-labs/leapcst/pkg/tree"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Registry *symbols.Registry
	Builder  *builder.Builder
}

// NewCommandContext resolves the grammar and builds the tree builder for cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	g, err := loadGrammar(cfg)
	if err != nil {
		return nil, err
	}
	reg := symbols.New(g)

	opts := []builder.Option{builder.WithLogger(logger)}
	if special, err := syntax.Mapping(reg); err != nil {
		logger.Warn("specialized nodes disabled", "grammar", g.Name, "error", err)
	} else {
		opts = append(opts, builder.WithSpecializations(special))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
		Registry: reg,
		Builder:  builder.New(reg, opts...),
	}, nil
}

// getConfig returns the loaded configuration, or defaults when commands run
// without the root command (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func loadGrammar(cfg *config.Config) (*grammar.Grammar, error) {
	var g *grammar.Grammar
	var err error
	if cfg.GrammarTable != "" {
		g, err = grammar.Load(cfg.GrammarTable)
	} else {
		g, err = grammar.Named(cfg.Grammar)
	}
	if err != nil {
		return nil, err
	}
	if cfg.NoPrintStatement {
		g.RemoveKeyword("print")
	}
	return g, nil
}

// LoadTree reads a parse log and replays it.
func (cc *CommandContext) LoadTree(ctx context.Context, path string) (tree.Base, error) {
	log, err := driver.Load(path)
	if err != nil {
		return nil, err
	}
	if name := cc.Registry.Grammar().Name; log.Grammar != "" && log.Grammar != name {
		cc.Logger.Warn("log recorded against a different grammar", "path", path, "log", log.Grammar, "using", name)
	}

	root, err := driver.Replay(ctx, cc.Builder, cc.Registry, log.Events)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cc.Logger.Debug("replayed", "path", path, "events", len(log.Events))
	return root, nil
}

// OpenStore opens the snapshot database, creating its directory.
func (cc *CommandContext) OpenStore(ctx context.Context) (*state.SQLiteStore, error) {
	path := cc.Cfg.StatePath
	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(ctx, path); err != nil {
		return nil, err
	}
	return store, nil
}
