package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubUpsertReplacesByFirstColumn(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	upsert := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{"[1]", "[2]"} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "models"}, {Value: []byte(payload)}}); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	if got := len(conn.Tables["state"]); got != 1 {
		t.Fatalf("expected one row after upsert, got %d", got)
	}
	rows, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state", nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("next: %v", err)
	}
	if dest[0] != "models" || string(dest[1].([]byte)) != "[2]" {
		t.Fatalf("unexpected row %v", dest)
	}
	if len(conn.Execs) != 2 {
		t.Fatalf("expected recorded execs, got %v", conn.Execs)
	}
}
