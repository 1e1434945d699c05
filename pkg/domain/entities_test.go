package domain

import "testing"

func TestNaturalIDStable(t *testing.T) {
	a := NaturalID(EntityPatient, "trace", "p1")
	b := NaturalID(EntityPatient, "trace", "p1")
	if a != b {
		t.Fatalf("expected stable id, got %s and %s", a, b)
	}
	if NaturalID(EntityModel, "trace", "p1") == a {
		t.Fatalf("expected entity kind to scope ids")
	}
}

func TestPatientSnapshotForDeduplicates(t *testing.T) {
	p := NewPatient("p1", NewProvider("Trace", "TRACE", ""))
	first := CollectionPoint{Age: "50", Date: "2019", Event: "biopsy", ElapsedTime: "0"}
	second := CollectionPoint{Age: "51", Date: "2020", Event: "biopsy", ElapsedTime: "12"}

	s1, created := p.SnapshotFor(first)
	if !created {
		t.Fatalf("expected first snapshot to be created")
	}
	again, created := p.SnapshotFor(first)
	if created || again != s1 {
		t.Fatalf("expected same snapshot for same collection point")
	}
	s2, _ := p.SnapshotFor(second)
	if s2 == s1 {
		t.Fatalf("expected distinct snapshot for distinct point")
	}
	if len(p.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(p.Snapshots))
	}
	last, ok := p.LastSnapshot()
	if !ok || last != s2 {
		t.Fatalf("expected last snapshot to be the most recently added")
	}
}

func TestPatientLastSnapshotEmpty(t *testing.T) {
	p := NewPatient("p1", nil)
	if _, ok := p.LastSnapshot(); ok {
		t.Fatalf("expected no snapshot")
	}
}

func TestModelSpecimenLookup(t *testing.T) {
	m := NewModel("m1", "TRACE")
	sp := NewSpecimen(m, "2", "NOD scid", "s1")
	m.AddSpecimen(sp)
	got, ok := m.Specimen("2", "NOD scid")
	if !ok || got != sp {
		t.Fatalf("expected specimen lookup to succeed")
	}
	if _, ok := m.Specimen("3", "NOD scid"); ok {
		t.Fatalf("expected miss for other passage")
	}
	if len(m.RelatedSamples) != 1 || m.RelatedSamples[0] != sp.Sample {
		t.Fatalf("expected specimen sample recorded as related")
	}
	m.AddRelatedSample(sp.Sample)
	if len(m.RelatedSamples) != 1 {
		t.Fatalf("expected related samples to stay unique")
	}
}

func TestSampleCharacterizationFor(t *testing.T) {
	s := &Sample{ID: "s"}
	platform := NewPlatform(CharacterizationMutation, "ngs", "TRACE")
	mc := s.CharacterizationFor(CharacterizationMutation, platform)
	if len(mc.Associations) != 1 {
		t.Fatalf("expected one association, got %d", len(mc.Associations))
	}
	if again := s.CharacterizationFor(CharacterizationMutation, platform); again != mc {
		t.Fatalf("expected characterization reuse")
	}
	other := s.CharacterizationFor(CharacterizationCopyNumber, NewPlatform(CharacterizationCopyNumber, "ngs", "TRACE"))
	if other == mc || len(s.Characterizations) != 2 {
		t.Fatalf("expected characterization per type")
	}
}

func TestParseSampleOrigin(t *testing.T) {
	cases := map[string]SampleOrigin{"patient": OriginPatient, "Xenograft": OriginXenograft, " PATIENT ": OriginPatient}
	for raw, want := range cases {
		got, ok := ParseSampleOrigin(raw)
		if !ok || got != want {
			t.Errorf("ParseSampleOrigin(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := ParseSampleOrigin("cell line"); ok {
		t.Errorf("expected unknown origin to fail")
	}
}

func TestModelAddGroupUnique(t *testing.T) {
	m := NewModel("m1", "TRACE")
	g := NewGroup(GroupProject, "europdx", "")
	m.AddGroup(g)
	m.AddGroup(NewGroup(GroupProject, "europdx", ""))
	if len(m.Groups) != 1 {
		t.Fatalf("expected group deduplicated by id, got %d", len(m.Groups))
	}
}
