package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"pdxgraph/internal/infra/persistence/postgres/testutil"
	"pdxgraph/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := openStub(t)
	if len(conn.Execs) == 0 || !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS graph_state") {
		t.Fatalf("expected state table ddl, got %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsBuckets(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	model := domain.NewModel("M1", "TRACE")
	if err := store.RunInTransaction(ctx, func(tx domain.GraphTransaction) error {
		return tx.SaveModel(model)
	}); err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	rows := conn.Tables["graph_state"]
	if len(rows) != 6 {
		t.Fatalf("expected one row per bucket, got %d", len(rows))
	}
	var models string
	for _, row := range rows {
		if row["bucket"] == "models" {
			models = string(row["payload"].([]byte))
		}
	}
	if !strings.Contains(models, `"source_pdx_id":"M1"`) {
		t.Fatalf("model payload missing: %s", models)
	}

	// hydrate a second store from the same stub tables
	db2, conn2 := testutil.NewStubDB()
	conn2.Tables = conn.Tables
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db2, nil })
	defer restore()
	reloaded, err := NewStore(ctx, "ignored")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.Model(model.ID); !ok {
		t.Fatalf("expected model hydrated from snapshot")
	}
}

func TestPersistFailures(t *testing.T) {
	ctx := context.Background()
	save := func(tx domain.GraphTransaction) error { return tx.SaveModel(domain.NewModel("M1", "TRACE")) }

	store, conn := openStub(t)
	conn.FailBegin = true
	if err := store.RunInTransaction(ctx, save); err == nil || !strings.Contains(err.Error(), "begin tx") {
		t.Fatalf("expected begin failure, got %v", err)
	}
	conn.FailBegin = false
	conn.FailTables = map[string]bool{"graph_state": true}
	if err := store.RunInTransaction(ctx, save); err == nil || !strings.Contains(err.Error(), "upsert") {
		t.Fatalf("expected upsert failure, got %v", err)
	}
	conn.FailTables = nil
	conn.FailCommit = true
	if err := store.RunInTransaction(ctx, save); err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit failure, got %v", err)
	}
}

func TestNewStoreFailures(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping failure, got %v", err)
	}
	conn.FailPing = false
	conn.Tables["graph_state"] = []map[string]any{{"bucket": "patients", "payload": []byte("{")}}
	if _, err := NewStore(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "decode patients") {
		t.Fatalf("expected decode failure, got %v", err)
	}
}

func TestPersistWritesOnlyChangedBuckets(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	save := func(id string) func(domain.GraphTransaction) error {
		return func(tx domain.GraphTransaction) error { return tx.SaveModel(domain.NewModel(id, "TRACE")) }
	}
	if err := store.RunInTransaction(ctx, save("M1")); err != nil {
		t.Fatalf("first: %v", err)
	}
	inserts := func() int {
		n := 0
		for _, q := range conn.Execs {
			if strings.HasPrefix(q, "INSERT INTO graph_state") {
				n++
			}
		}
		return n
	}
	if got := inserts(); got != 6 {
		t.Fatalf("expected every bucket written once, got %d", got)
	}
	if err := store.RunInTransaction(ctx, save("M2")); err != nil {
		t.Fatalf("second: %v", err)
	}
	if got := inserts(); got != 7 {
		t.Fatalf("expected only the models bucket rewritten, got %d inserts", got)
	}
	if err := store.RunInTransaction(ctx, save("M2")); err != nil {
		t.Fatalf("third: %v", err)
	}
	if got := inserts(); got != 7 {
		t.Fatalf("expected unchanged state to skip the write, got %d inserts", got)
	}
}
