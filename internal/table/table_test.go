package table

import (
	"strings"
	"testing"
)

func TestParseTSV(t *testing.T) {
	src := "\ufeffmodel_id\tpassage \n" +
		"M1\t1\n" +
		"M2\n"
	tbl, err := ParseTSV("metadata-model.tsv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !tbl.HasColumn("model_id") || !tbl.HasColumn("passage") {
		t.Fatalf("unexpected columns %v", tbl.Columns())
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	r := tbl.Row(1)
	if r.String("model_id") != "M2" || !r.Missing("passage") {
		t.Fatalf("short row not padded: %v", r.Values())
	}
	if r.Line() != 3 {
		t.Fatalf("expected line 3, got %d", r.Line())
	}
	if f, ok := tbl.Row(0).Float("passage"); !ok || f != 1 {
		t.Fatalf("expected numeric passage, got %v %v", f, ok)
	}
	if _, err := ParseTSV("empty.tsv", strings.NewReader("")); err == nil {
		t.Fatalf("expected empty table error")
	}
}

func TestRowAccessorsOnUnknownColumn(t *testing.T) {
	tbl := New("t", []string{"a"}, [][]string{{"x", "extra"}})
	r := tbl.Row(0)
	if r.String("b") != "" || !r.Missing("b") {
		t.Fatalf("unknown column should read as missing")
	}
	if _, ok := r.Float("a"); ok {
		t.Fatalf("non-numeric cell parsed as number")
	}
	if len(r.Values()) != 1 {
		t.Fatalf("expected truncated row, got %v", r.Values())
	}
}

func TestClean(t *testing.T) {
	set := Set{}
	set.Add(New(ChecklistTable, []string{"x"}, [][]string{{"y"}}))
	set.Add(New("metadata-patient.tsv",
		[]string{"Field", "patient_id", "sex"},
		[][]string{
			{"#", "patient identifier", "sex of patient"},
			{"", " P1 ", " Female "},
			{"", "", "  "},
			{"", "P2", "MALE"},
		}))
	Clean(set)
	if _, ok := set.Get(ChecklistTable); ok {
		t.Fatalf("checklist should be dropped")
	}
	p, _ := set.Get("metadata-patient.tsv")
	if p.HasColumn("Field") {
		t.Fatalf("annotation column kept")
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 data rows, got %d", p.Len())
	}
	first := p.Row(0)
	if first.String("patient_id") != "P1" || first.String("sex") != "female" {
		t.Fatalf("unexpected cleaned row %v", first.Values())
	}
	if first.Line() != 3 {
		t.Fatalf("line numbers should survive cleanup, got %d", first.Line())
	}
	if p.Row(1).String("patient_id") != "P2" {
		t.Fatalf("identifier case changed: %v", p.Row(1).Values())
	}
}

func TestSetNames(t *testing.T) {
	set := Set{}
	set.Add(New("b.tsv", nil, nil))
	set.Add(New("a.tsv", nil, nil))
	names := set.Names()
	if len(names) != 2 || names[0] != "a.tsv" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, ok := set.Get("c.tsv"); ok {
		t.Fatalf("unexpected table c.tsv")
	}
}

func TestCleanKeepsColumnsWithoutAnnotation(t *testing.T) {
	set := Set{}
	set.Add(New("metadata-model.tsv",
		[]string{"model_id", "engraftment_site", "publications"},
		[][]string{{"M1", "Subcutaneous", "PMID:1"}}))
	Clean(set)
	m, _ := set.Get("metadata-model.tsv")
	if got := m.Columns(); len(got) != 3 || got[0] != "model_id" || got[2] != "publications" {
		t.Fatalf("expected every column kept in order, got %v", got)
	}
	if got := m.Row(0).String("engraftment_site"); got != "subcutaneous" {
		t.Fatalf("expected lowercased engraftment site, got %q", got)
	}
	if got := m.Row(0).String("model_id"); got != "M1" {
		t.Fatalf("identifier column should keep its case, got %q", got)
	}
}
