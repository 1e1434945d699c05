package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pdxgraph/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	provider := domain.NewProvider("Trace", "TRACE", "")
	patient := domain.NewPatient("P1", provider)
	model := domain.NewModel("M1", "TRACE")
	if _, err := store.HostStrain(ctx, "NSG", "NOD.Cg-Prkdc"); err != nil {
		t.Fatalf("host strain: %v", err)
	}
	if err := store.RunInTransaction(ctx, func(tx domain.GraphTransaction) error {
		if err := tx.SavePatient(patient); err != nil {
			return err
		}
		return tx.SaveModel(model)
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close(ctx) })
	if got, ok := reloaded.Patient(patient.ID); !ok || got.ExternalID != "P1" {
		t.Fatalf("patient not reloaded")
	}
	if _, ok := reloaded.Model(model.ID); !ok {
		t.Fatalf("model not reloaded")
	}
	if snap := reloaded.ExportState(); len(snap.HostStrains) != 1 {
		t.Fatalf("expected host strain reloaded, got %+v", snap.HostStrains)
	}
}

func TestSQLiteStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO graph_state(bucket,payload,updated_at) VALUES('models', '{not json', '')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = store.Close(context.Background())
	if _, err := NewStore(path); err == nil {
		t.Fatalf("expected decode error on reload")
	}
}

func TestSQLiteStoreFailedTransactionNotPersisted(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(ctx) })
	err = store.RunInTransaction(ctx, func(tx domain.GraphTransaction) error {
		return tx.SaveModel(&domain.ModelCreation{})
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var n int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM graph_state`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no buckets written, got %d", n)
	}
	if store.Path() == "" {
		t.Fatalf("expected path")
	}
}

func TestSQLiteStoreRewritesOnlyChangedBuckets(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(ctx) })
	save := func(id string) error {
		return store.RunInTransaction(ctx, func(tx domain.GraphTransaction) error {
			return tx.SaveModel(domain.NewModel(id, "TRACE"))
		})
	}
	stamp := func(bucket string) string {
		var v string
		if err := store.DB().QueryRow(`SELECT updated_at FROM graph_state WHERE bucket = ?`, bucket).Scan(&v); err != nil {
			t.Fatalf("updated_at %s: %v", bucket, err)
		}
		return v
	}
	if err := save("M1"); err != nil {
		t.Fatalf("first save: %v", err)
	}
	patients, models := stamp("patients"), stamp("models")
	time.Sleep(2 * time.Millisecond)
	if err := save("M2"); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if stamp("patients") != patients {
		t.Fatalf("untouched bucket was rewritten")
	}
	if stamp("models") == models {
		t.Fatalf("changed bucket was not rewritten")
	}
}
