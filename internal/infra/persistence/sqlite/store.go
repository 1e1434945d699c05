// Package sqlite persists the graph store working set to a single SQLite
// table of JSON buckets.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"pdxgraph/internal/infra/persistence/memory"
	"pdxgraph/pkg/domain"
)

var _ domain.GraphStore = (*Store)(nil)

const upsertBucket = `INSERT INTO graph_state(bucket,payload,updated_at) VALUES(?,?,?)
ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`

// Store keeps the working set in memory and writes the buckets a successful
// transaction changed.
type Store struct {
	*memory.Store
	db      *sql.DB
	mu      sync.Mutex
	path    string
	journal *memory.Journal
}

// NewStore opens (or creates) the database at path and loads any saved state.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "pdxgraph.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS graph_state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create graph_state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path, journal: memory.NewJournal()}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM graph_state`)
	if err != nil {
		return fmt.Errorf("select graph_state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot memory.Snapshot
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := snapshot.DecodeBucket(bucket, payload); err != nil {
			return err
		}
		s.journal.Record(memory.BucketPayload{Bucket: bucket, Payload: payload})
		found = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if found {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	pending, err := s.journal.Pending(&snapshot)
	if err != nil || len(pending) == 0 {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, p := range pending {
		if _, err := tx.ExecContext(ctx, upsertBucket, p.Bucket, p.Payload, now); err != nil {
			return fmt.Errorf("upsert %s: %w", p.Bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.journal.Record(pending...)
	return nil
}

// RunInTransaction applies fn to the in-memory state, then writes the changed buckets.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.GraphTransaction) error) error {
	if err := s.Store.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Close releases the database handle.
func (s *Store) Close(ctx context.Context) error {
	_ = s.Store.Close(ctx)
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
