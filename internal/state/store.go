// Package state persists CST snapshots in SQLite.
//
// A snapshot stores the event stream produced by driver.Record together with
// the reconstructed source, so loading a snapshot is a replay through the
// builder rather than a deserialization of node objects.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/leapcst/pkg/driver"
	"github.com/leapstack-labs/leapcst/pkg/symbols"
	"github.com/leapstack-labs/leapcst/pkg/tree"
)

// ErrNotFound is returned when a snapshot ID does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot describes one saved tree.
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Grammar   string    `json:"grammar"`
	Source    string    `json:"source"`
	Events    int       `json:"events"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the snapshot persistence contract.
type Store interface {
	SaveTree(ctx context.Context, name string, reg *symbols.Registry, root tree.Base) (*Snapshot, error)
	ListSnapshots(ctx context.Context) ([]*Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	LoadEvents(ctx context.Context, id string) ([]driver.Event, error)
	DeleteSnapshot(ctx context.Context, id string) error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
