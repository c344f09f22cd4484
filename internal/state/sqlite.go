package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapcst/pkg/driver"
	"github.com/leapstack-labs/leapcst/pkg/symbols"
	"github.com/leapstack-labs/leapcst/pkg/tree"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

var errNotOpen = errors.New("database not opened")

const (
	kindShift  = "shift"
	kindReduce = "reduce"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite snapshot store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// NewSQLiteStoreWithDB wraps an existing connection. The schema is assumed
// to be in place.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Open opens a connection to the SQLite database and applies migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(ctx context.Context, path string) error {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	} else if !strings.Contains(path, "?") {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := MigrateWithDB(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveTree records root as a new snapshot. Symbol names are written using
// reg, and the grammar name is taken from it.
func (s *SQLiteStore) SaveTree(ctx context.Context, name string, reg *symbols.Registry, root tree.Base) (*Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	events := driver.Record(root, reg)
	snap := &Snapshot{
		ID:        uuid.New().String(),
		Name:      name,
		Grammar:   reg.Grammar().Name,
		Source:    root.String(),
		Events:    len(events),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, grammar, source, events, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.Grammar, snap.Source, snap.Events, snap.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_events
		(snapshot_id, seq, kind, type, value, prefix, line, col, count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, ev := range events {
		var args []any
		if sh := ev.Shift; sh != nil {
			args = []any{snap.ID, i, kindShift, sh.Type, sh.Value, sh.Prefix, sh.Line, sh.Column, 0}
		} else {
			args = []any{snap.ID, i, kindReduce, ev.Reduce.Symbol, "", "", 0, 0, ev.Reduce.Count}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, grammar, source, events, created_at FROM snapshots ORDER BY created_at DESC, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Grammar, &snap.Source, &snap.Events, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// GetSnapshot retrieves a snapshot by ID.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	snap := &Snapshot{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, grammar, source, events, created_at FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.Name, &snap.Grammar, &snap.Source, &snap.Events, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// LoadEvents returns the stored event stream of a snapshot, ready for
// driver.Replay.
func (s *SQLiteStore) LoadEvents(ctx context.Context, id string) ([]driver.Event, error) {
	snap, err := s.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, type, value, prefix, line, col, count
		FROM snapshot_events
		WHERE snapshot_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]driver.Event, 0, snap.Events)
	for rows.Next() {
		var kind, typ, value, prefix string
		var line, col, count int
		if err := rows.Scan(&kind, &typ, &value, &prefix, &line, &col, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		switch kind {
		case kindShift:
			events = append(events, driver.Event{Shift: &driver.Shift{
				Type: typ, Value: value, Prefix: prefix, Line: line, Column: col,
			}})
		case kindReduce:
			events = append(events, driver.Event{Reduce: &driver.Reduce{Symbol: typ, Count: count}})
		default:
			return nil, fmt.Errorf("snapshot %s: unknown event kind %q", id, kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return events, nil
}

// DeleteSnapshot removes a snapshot and its events.
func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, id string) error {
	if s.db == nil {
		return errNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_events WHERE snapshot_id = ?`, id); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
