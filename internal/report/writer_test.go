package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"pdxgraph/internal/blob"
	"pdxgraph/internal/core"
	"pdxgraph/internal/validation"
)

func sampleReport() *core.Report {
	r := core.NewReport("TRACE", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	r.Validation = []validation.TableValidationError{
		{Kind: validation.MissingColumn, Table: "metadata-sample", Column: "sample_id", Provider: "TRACE"},
	}
	r.AddIssue(core.RowIssue{Stage: "mutation", Table: "mut", Row: 4, Severity: core.SeverityWarning, Message: "unknown marker BOGUS"})
	r.AddIssue(core.RowIssue{Stage: "copy_number", Table: "cna", Row: 2, Severity: core.SeverityInfo, Message: "ERBB2 resolved from synonym HER2"})
	r.Error = "validation failed"
	return r
}

func readAll(t *testing.T, store blob.Store, key string) (blob.Info, string) {
	t.Helper()
	info, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return info, string(b)
}

func TestWriteStoresBothFormats(t *testing.T) {
	store := blob.NewMemory()
	w := NewWriter(store, "/reports/")
	w.newID = func() string { return "fixed" }

	arts, err := w.Write(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("expected two artifacts, got %+v", arts)
	}
	if arts[0].Key != "reports/TRACE/fixed.json" || arts[1].Key != "reports/TRACE/fixed.csv" {
		t.Fatalf("unexpected keys %+v", arts)
	}
	for _, a := range arts {
		if a.Rows != 4 {
			t.Fatalf("expected 4 finding rows in %s, got %d", a.Format, a.Rows)
		}
		if a.SizeBytes == 0 {
			t.Fatalf("expected size for %s", a.Key)
		}
	}

	info, body := readAll(t, store, "reports/TRACE/fixed.json")
	if info.ContentType != "application/json" || info.Metadata["failed"] != "true" || info.Metadata["provider"] != "TRACE" {
		t.Fatalf("unexpected json info %+v", info)
	}
	var decoded core.Report
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Provider != "TRACE" || len(decoded.Issues) != 2 || decoded.Error != "validation failed" {
		t.Fatalf("unexpected decoded report %+v", &decoded)
	}

	info, body = readAll(t, store, "reports/TRACE/fixed.csv")
	if info.ContentType != "text/csv" || info.Metadata["rows"] != "4" {
		t.Fatalf("unexpected csv info %+v", info)
	}
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 5 || strings.Join(records[0], ",") != "source,severity,stage,table,column,row,message" {
		t.Fatalf("unexpected csv %q", records)
	}
	if records[1][0] != "validation" || records[1][4] != "sample_id" {
		t.Fatalf("unexpected validation record %q", records[1])
	}
	if records[2][2] != "mutation" || records[2][5] != "4" || records[2][1] != "warning" {
		t.Fatalf("unexpected issue record %q", records[2])
	}
	if records[4][0] != "load" || records[4][6] != "validation failed" {
		t.Fatalf("unexpected load record %q", records[4])
	}
}

func TestWriteDistinctIDs(t *testing.T) {
	store := blob.NewMemory()
	w := NewWriter(store, "reports")
	first, err := w.Write(context.Background(), core.NewReport("TRACE", time.Now()))
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	second, err := w.Write(context.Background(), core.NewReport("TRACE", time.Now()))
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if first[0].Key == second[0].Key {
		t.Fatalf("expected distinct keys, got %s twice", first[0].Key)
	}
	list, _ := store.List(context.Background(), "reports/TRACE/")
	if len(list) != 4 {
		t.Fatalf("expected 4 stored artifacts, got %d", len(list))
	}
}

func TestWriteCollision(t *testing.T) {
	store := blob.NewMemory()
	w := NewWriter(store, "")
	w.newID = func() string { return "same" }
	if _, err := w.Write(context.Background(), core.NewReport("TRACE", time.Now())); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write(context.Background(), core.NewReport("TRACE", time.Now())); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestMaterializeUnsupported(t *testing.T) {
	if _, _, _, err := materialize(Format("xml"), core.NewReport("TRACE", time.Now())); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
