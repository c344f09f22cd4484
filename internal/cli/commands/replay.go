package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapcst/internal/cli/output"
	"github.com/leapstack-labs/leapcst/pkg/tree"
)

// ReplayOptions holds options for the replay command.
type ReplayOptions struct {
	Check   string
	Watch   bool
	Workers int
}

// ReplayResult is the outcome of replaying one log.
type ReplayResult struct {
	Path   string `json:"path"`
	Source string `json:"source"`
	Leaves int    `json:"leaves"`
	Nodes  int    `json:"nodes"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand() *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <log>...",
		Short: "Rebuild source text from parse logs",
		Long: `Replay one or more parse logs through the tree builder and print the
reconstructed source. Logs are replayed concurrently.

With --check the reconstruction must match the given file byte for byte.
With --watch the logs are replayed again whenever they change.`,
		Example: `  leapcst replay parse.yaml
  leapcst replay parse.yaml --check original.py
  leapcst replay logs/*.yaml -o json
  leapcst replay parse.yaml --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Check != "" && len(args) != 1 {
				return fmt.Errorf("--check needs exactly one log, got %d", len(args))
			}
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				opts.Workers = cc.Cfg.Replay.Workers
			}

			if !opts.Watch {
				return runReplay(cmd.Context(), cc, args, opts)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := runReplay(ctx, cc, args, opts); err != nil {
				cc.Logger.Error("replay failed", "error", err)
			}
			return watchLogs(ctx, cc, args, cc.Cfg.Replay.Debounce, func() {
				if err := runReplay(ctx, cc, args, opts); err != nil {
					cc.Logger.Error("replay failed", "error", err)
				}
			})
		},
	}

	cmd.Flags().StringVar(&opts.Check, "check", "", "Verify the reconstruction matches this file")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Replay again when a log changes")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "j", 0, "Concurrent replays (0 = unlimited)")

	return cmd
}

// ReplayAll replays every log concurrently and returns results in argument
// order. The first failure cancels the remaining replays.
func ReplayAll(ctx context.Context, cc *CommandContext, paths []string, workers int) ([]ReplayResult, error) {
	results := make([]ReplayResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			root, err := cc.LoadTree(gctx, path)
			if err != nil {
				return err
			}
			results[i] = summarize(path, root)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarize(path string, root tree.Base) ReplayResult {
	res := ReplayResult{Path: path, Source: root.String()}
	for b := range tree.Walk(root) {
		if _, ok := b.(*tree.Leaf); ok {
			res.Leaves++
		} else {
			res.Nodes++
		}
	}
	return res
}

func runReplay(ctx context.Context, cc *CommandContext, paths []string, opts *ReplayOptions) error {
	results, err := ReplayAll(ctx, cc, paths, opts.Workers)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if opts.Check != "" {
		return checkRoundTrip(r, results[0], opts.Check)
	}

	switch r.Mode() {
	case output.ModeJSON:
		return r.JSON(results)
	case output.ModeMarkdown:
		for _, res := range results {
			r.Printf("## %s\n\n```python\n%s```\n\n", res.Path, res.Source)
		}
	default:
		for _, res := range results {
			if len(results) > 1 {
				r.Println(r.Styles().Muted.Render("==> " + res.Path + " <=="))
			}
			r.Printf("%s", res.Source)
		}
	}
	return nil
}

func checkRoundTrip(r *output.Renderer, res ReplayResult, path string) error {
	want, err := os.ReadFile(path) //nolint:gosec // user-supplied comparison file
	if err != nil {
		return fmt.Errorf("read check file: %w", err)
	}
	got := []byte(res.Source)

	if !bytes.Equal(got, want) {
		at := 0
		for at < len(got) && at < len(want) && got[at] == want[at] {
			at++
		}
		return fmt.Errorf("%s does not reproduce %s: first difference at byte %d (got %d bytes, want %d)",
			res.Path, path, at, len(got), len(want))
	}

	if r.Mode() == output.ModeJSON {
		return r.JSON(map[string]any{"path": res.Path, "check": path, "match": true, "bytes": len(got)})
	}
	r.Println(r.Styles().Success.Render(fmt.Sprintf("%s reproduces %s (%d bytes)", res.Path, path, len(got))))
	return nil
}

// watchLogs calls rerun after any of paths changes, until ctx is done.
func watchLogs(ctx context.Context, cc *CommandContext, paths []string, debounce time.Duration, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files, so watch directories rather than files.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	cc.Logger.Info("watching for changes", "logs", len(paths))
	watchLoop(ctx, cc, watcher, watched, debounce, rerun)
	return nil
}

// watchLoop calls rerun from the loop itself, one run at a time, once changes
// to watched files have settled for debounce.
func watchLoop(ctx context.Context, cc *CommandContext, watcher *fsnotify.Watcher, watched map[string]bool, debounce time.Duration, rerun func()) {
	var debounceTimer *time.Timer
	var fire <-chan time.Time
	var changed string
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fire:
			fire = nil
			cc.Logger.Info("change detected", "file", changed)
			rerun()
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}

			changed = filepath.Base(event.Name)
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(debounce)
			} else {
				debounceTimer.Reset(debounce)
			}
			fire = debounceTimer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cc.Logger.Warn("watcher error", "error", err)
		}
	}
}
