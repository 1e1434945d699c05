package core

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"pdxgraph/internal/infra/persistence/memory"
	"pdxgraph/internal/infra/persistence/postgres"
	"pdxgraph/internal/infra/persistence/postgres/testutil"
	"pdxgraph/internal/infra/persistence/sqlite"
)

func TestOpenGraphStoreMemory(t *testing.T) {
	store, err := OpenGraphStore(context.Background(), StorageConfig{Driver: StorageMemory}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenGraphStoreDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	store, err := OpenGraphStore(context.Background(), StorageConfig{SQLitePath: path}, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
	if s.Path() != path {
		t.Fatalf("unexpected path %s", s.Path())
	}
}

func TestOpenGraphStorePostgres(t *testing.T) {
	db, _ := testutil.NewStubDB()
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := OpenGraphStore(context.Background(), StorageConfig{Driver: StoragePostgres}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*postgres.Store); !ok {
		t.Fatalf("expected *postgres.Store, got %T", store)
	}
}

func TestOpenGraphStoreErrors(t *testing.T) {
	if _, err := OpenGraphStore(context.Background(), StorageConfig{Driver: "cassandra"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := OpenGraphStore(context.Background(), StorageConfig{Driver: StorageNeo4j}, nil); err == nil {
		t.Fatalf("expected neo4j uri error")
	}
}
