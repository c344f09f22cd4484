package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcst/internal/cli/output"
	"github.com/leapstack-labs/leapcst/internal/state"
	"github.com/leapstack-labs/leapcst/pkg/driver"
)

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and inspect trees in the snapshot database",
		Long: `Snapshots persist replayed trees in a SQLite database (see --state).
A snapshot keeps the event stream of the tree, so showing it replays the
stored events through the builder again.`,
	}

	cmd.AddCommand(newSnapshotSaveCommand())
	cmd.AddCommand(newSnapshotListCommand())
	cmd.AddCommand(newSnapshotShowCommand())
	cmd.AddCommand(newSnapshotRemoveCommand())
	return cmd
}

func newSnapshotSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "save <log>",
		Short:   "Replay a log and store the tree",
		Example: `  leapcst snapshot save parse.yaml --name before-refactor`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			root, err := cc.LoadTree(ctx, args[0])
			if err != nil {
				return err
			}

			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			snap, err := store.SaveTree(ctx, name, cc.Registry, root)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.Mode() == output.ModeJSON {
				return r.JSON(snap)
			}
			r.Printf("Saved snapshot %s (%s, %d events)\n", snap.ID, snap.Name, snap.Events)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: log file name)")
	return cmd
}

func newSnapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored snapshots",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snaps, err := store.ListSnapshots(ctx)
			if err != nil {
				return err
			}
			return renderSnapshots(cc.Renderer, snaps)
		},
	}
}

func renderSnapshots(r *output.Renderer, snaps []*state.Snapshot) error {
	if r.Mode() == output.ModeJSON {
		if snaps == nil {
			snaps = []*state.Snapshot{}
		}
		return r.JSON(snaps)
	}
	if len(snaps) == 0 {
		r.Println("No snapshots.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "NAME", "GRAMMAR", "EVENTS", "BYTES", "CREATED"})
	for _, s := range snaps {
		t.AppendRow(table.Row{s.ID, s.Name, s.Grammar, s.Events, len(s.Source), s.CreatedAt.Local().Format(time.DateTime)})
	}
	if r.Mode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	return nil
}

func newSnapshotShowCommand() *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the source of a snapshot",
		Long: `Replay the stored events of a snapshot and print the reconstructed source.
With --events the stored event log is printed instead, in the format the
replay command reads.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snap, err := store.GetSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			evs, err := store.LoadEvents(ctx, args[0])
			if err != nil {
				return err
			}

			r := cc.Renderer
			if events {
				if r.Mode() == output.ModeJSON {
					return r.JSON(driver.Log{Grammar: snap.Grammar, Events: evs})
				}
				return driver.Encode(r.Out(), &driver.Log{Grammar: snap.Grammar, Events: evs})
			}

			root, err := driver.Replay(ctx, cc.Builder, cc.Registry, evs)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", snap.ID, err)
			}
			if src := root.String(); src != snap.Source {
				cc.Logger.Warn("replayed source differs from stored source", "id", snap.ID)
			}

			if r.Mode() == output.ModeJSON {
				return r.JSON(snap)
			}
			r.Printf("%s", root.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&events, "events", false, "Print the stored event log")
	return cmd
}

func newSnapshotRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for _, id := range args {
				if err := store.DeleteSnapshot(ctx, id); err != nil {
					return err
				}
				cc.Renderer.Printf("Deleted %s\n", id)
			}
			return nil
		},
	}
}
