package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"pdxgraph/internal/infra/persistence/memory"
	"pdxgraph/internal/table"
	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

const mutationHeader = "model_id\tsample_id\tsample_origin\tpassage\thost_strain_nomenclature\tplatform\tsymbol\tamino_acid_change\tchromosome"

func newTestService(t *testing.T, res domain.MarkerResolver, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]Option{WithClock(fixedClock())}, opts...)
	svc, err := NewService(store, res, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func withMutations(set table.Set) table.Set {
	set.Add(tsv(validation.TableMutation, mutationHeader,
		"M1\tS1\tpatient\t\t\tWES\tKRAS\tG12D\t12",
		"M1\tX1\txenograft\t2\t\tWES\tKRAS\tG12D\t12",
		"M1\tX1\txenograft\t2\t\tWES\tBOGUS\t\t1",
		"M2\tS2\tPatient\t\t\tWES\tTP53\tR175H\t17",
	))
	return set
}

func modelByID(t *testing.T, store *memory.Store, id string) *domain.ModelCreation {
	t.Helper()
	m, ok := store.Model(domain.NaturalID(domain.EntityModel, "TRACE", id))
	if !ok {
		t.Fatalf("model %s not saved", id)
	}
	return m
}

func TestLoadBuildsGraph(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	report, err := svc.Load(context.Background(), "TRACE", withMutations(traceTables()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	patient, ok := store.Patient(domain.NaturalID(domain.EntityPatient, "TRACE", "P1"))
	if !ok {
		t.Fatalf("patient not saved")
	}
	if len(patient.Snapshots) != 1 {
		t.Fatalf("expected one snapshot for a shared collection point, got %d", len(patient.Snapshots))
	}
	snap := patient.Snapshots[0]
	if len(snap.Samples) != 2 {
		t.Fatalf("expected two samples on the snapshot, got %d", len(snap.Samples))
	}
	if snap.VirologyStatus != "negative" || snap.TreatmentNaive != "yes" {
		t.Fatalf("snapshot attributes should come from the creating row: %+v", snap)
	}
	if patient.Provider.Type != "academic" || patient.Provider.Contact != "" {
		t.Fatalf("provider sharing fields should follow the last row: %+v", patient.Provider)
	}

	m1 := modelByID(t, store, "M1")
	if len(m1.Specimens) != 2 {
		t.Fatalf("expected duplicate model row to reuse its specimen plus one xenograft specimen, got %d", len(m1.Specimens))
	}
	if m1.Publications != "PMID:1" || len(m1.QualityAssurance) != 1 {
		t.Fatalf("unexpected model attributes %+v", m1)
	}
	if len(m1.ExternalURLs) != 2 || len(m1.Groups) != 2 {
		t.Fatalf("expected 2 urls and 2 groups, got %d and %d", len(m1.ExternalURLs), len(m1.Groups))
	}
	xeno, ok := m1.Specimen("2", domain.NotSpecified)
	if !ok {
		t.Fatalf("expected xenograft specimen with unspecified host strain")
	}
	if xeno.Sample.SourceSampleID != "X1" || xeno.HostStrain == nil || xeno.HostStrain.Symbol != domain.NotSpecified {
		t.Fatalf("unexpected xenograft specimen %+v", xeno)
	}
	mc, ok := xeno.Sample.Characterization(domain.CharacterizationMutation, "WES")
	if !ok || len(mc.Association().Data) != 1 {
		t.Fatalf("expected one resolved measurement on the xenograft sample")
	}
	primary, ok := m1.Sample.Characterization(domain.CharacterizationMutation, "WES")
	if !ok || !strings.Contains(primary.Association().Encoded, "G12D") {
		t.Fatalf("expected canonical molecular data on the patient sample")
	}

	m2 := modelByID(t, store, "M2")
	if len(m2.Specimens) != 1 || m2.Specimens[0].HostStrainNomenclature != domain.NotSpecified {
		t.Fatalf("blank host strain should default, got %+v", m2.Specimens)
	}
	if len(m2.ExternalURLs) != 0 || len(m2.Groups) != 0 {
		t.Fatalf("empty sharing cells must not create links or groups")
	}

	if report.Counts[string(domain.EntityPatient)] != 1 || report.Counts[string(domain.EntityModel)] != 2 {
		t.Fatalf("unexpected counts %+v", report.Counts)
	}
	if report.Counts["molecular_data"] != 3 || report.Counts[string(domain.EntityCharacterization)] != 3 {
		t.Fatalf("unexpected molecular counts %+v", report.Counts)
	}
	mut, _ := report.Stage(StageMutation)
	if mut.Rows != 4 || mut.Failed != 1 {
		t.Fatalf("unexpected mutation stage report %+v", mut)
	}
	issues := report.IssuesFor(StageMutation)
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "BOGUS") || issues[0].Row != 4 {
		t.Fatalf("unexpected mutation issues %+v", issues)
	}
	if cna, _ := report.Stage(StageCopyNumber); !cna.Skipped {
		t.Fatalf("copy number stage should be skipped without its table")
	}
	if !report.StartedAt.Equal(report.FinishedAt) || report.Failed() {
		t.Fatalf("unexpected report timing or failure: %+v", report)
	}
}

func TestLoadTwiceIsStable(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	for i := 0; i < 2; i++ {
		if _, err := svc.Load(context.Background(), "TRACE", withMutations(traceTables())); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	snap := store.ExportState()
	if len(snap.Patients) != 1 || len(snap.Models) != 2 {
		t.Fatalf("reload should replace, not duplicate: %d patients %d models", len(snap.Patients), len(snap.Models))
	}
	if len(snap.HostStrains) != 2 {
		t.Fatalf("expected NOD.Cg-Prkdc and Not Specified host strains, got %d", len(snap.HostStrains))
	}
}

func TestResolverOutcomesAndMetrics(t *testing.T) {
	res := newFakeResolver()
	res.fail["TP53"] = true
	res.markers["KRAS2"] = nil
	res.notes["KRAS2"] = "KRAS"
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	svc, _ := newTestService(t, res, WithMetrics(rec))
	set := withMutations(traceTables())
	set.Add(tsv(validation.TableCopyNumber, "model_id\tsample_id\tsample_origin\tplatform\tsymbol\tlog2r_cna",
		"M1\tS1\tpatient\tSNP6\tKRAS2\t0.4"))
	report, err := svc.Load(context.Background(), "TRACE", set)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := promtestutil.ToFloat64(rec.resolutions.WithLabelValues(ResolutionResolved)); got != 3 {
		t.Fatalf("expected 3 resolved lookups, got %v", got)
	}
	if got := promtestutil.ToFloat64(rec.resolutions.WithLabelValues(ResolutionUnresolved)); got != 1 {
		t.Fatalf("expected 1 unresolved lookup, got %v", got)
	}
	if got := promtestutil.ToFloat64(rec.resolutions.WithLabelValues(ResolutionError)); got != 1 {
		t.Fatalf("expected 1 failed lookup, got %v", got)
	}
	if got := promtestutil.ToFloat64(rec.rows.WithLabelValues(StageMutation, "failed")); got != 2 {
		t.Fatalf("expected 2 failed mutation rows, got %v", got)
	}
	if got := promtestutil.ToFloat64(rec.results.WithLabelValues("load", "success")); got != 1 {
		t.Fatalf("expected a successful load observation, got %v", got)
	}
	if report.Counts["molecular_data"] != 3 {
		t.Fatalf("failed lookups must not add data, counts %+v", report.Counts)
	}
	notes := report.IssuesFor(StageCopyNumber)
	if len(notes) != 1 || notes[0].Severity != SeverityInfo {
		t.Fatalf("expected an informational synonym note, got %+v", notes)
	}
}

func TestLoadUnknownModelIsFatal(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	set := traceTables()
	set.Add(tsv(validation.TableSample, "patient_id\tsample_id\tmodel_id",
		"P1\tS1\tM1",
		"P1\tS9\tM9"))
	report, err := svc.Load(context.Background(), "TRACE", set)
	if !errors.Is(err, ErrReferentialIntegrity) {
		t.Fatalf("expected referential integrity failure, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Stage != StageSample || nf.Kind != domain.EntityModel || nf.Key != "M9" || nf.Row != 3 {
		t.Fatalf("unexpected not found error %+v", nf)
	}
	if !report.Failed() || report.Error == "" {
		t.Fatalf("report should record the failure")
	}
	if len(store.ExportState().Models) != 0 {
		t.Fatalf("nothing should be emitted after a fatal stage")
	}
}

func TestLoadUnknownModelReferencesAreFatal(t *testing.T) {
	cases := []struct {
		name  string
		stage string
		table *table.Table
	}{
		{"model validation", StageModelValidation, tsv(validation.TableModelValidation, "model_id\tvalidation_technique",
			"M1\tSTR",
			"M9\tSTR")},
		{"sharing", StageSharing, tsv(validation.TableSharing, "model_id\tprovider_type\temail",
			"M9\tacademic\tlab@trace.example")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(t, newFakeResolver())
			set := traceTables()
			set.Add(tc.table)
			report, err := svc.Load(context.Background(), "TRACE", set)
			if !errors.Is(err, ErrReferentialIntegrity) {
				t.Fatalf("expected referential integrity failure, got %v", err)
			}
			var nf *NotFoundError
			if !errors.As(err, &nf) || nf.Stage != tc.stage || nf.Kind != domain.EntityModel || nf.Key != "M9" {
				t.Fatalf("unexpected not found error %+v", nf)
			}
			if !report.Failed() {
				t.Fatalf("report should record the failure")
			}
			if len(store.ExportState().Models) != 0 {
				t.Fatalf("nothing should be emitted after a fatal stage")
			}
		})
	}
}

func TestLoadSkipsPatientRowWithoutID(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	set := traceTables()
	set.Add(tsv(validation.TablePatient, "patient_id\tsex",
		"P1\tfemale",
		"\tmale"))
	report, err := svc.Load(context.Background(), "TRACE", set)
	if err != nil {
		t.Fatalf("a patient row without an id should not abort the load: %v", err)
	}
	st, ok := report.Stage(StagePatient)
	if !ok || st.Rows != 2 || st.Failed != 1 {
		t.Fatalf("expected one skipped patient row, got %+v", st)
	}
	issues := report.IssuesFor(StagePatient)
	if len(issues) != 1 || issues[0].Severity != SeverityWarning || issues[0].Row != 3 {
		t.Fatalf("expected a warning for row 3, got %+v", issues)
	}
	if len(store.ExportState().Patients) != 1 {
		t.Fatalf("expected the remaining patient to be emitted")
	}
}

func TestXenograftSpecimenUsesHostStrainName(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	set := traceTables()
	set.Add(tsv(validation.TableMutation, "model_id\tsample_id\tsample_origin\tpassage\thost_strain_name\thost_strain_nomenclature\tplatform\tsymbol",
		"M1\tX3\txenograft\t3\tNSG\tNOD.Cg-Prkdc-Il2rg\tWES\tKRAS",
		"M1\tX4\txenograft\t4\t\t\tWES\tTP53"))
	if _, err := svc.Load(context.Background(), "TRACE", set); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m1 := modelByID(t, store, "M1")
	named, ok := m1.Specimen("3", "NOD.Cg-Prkdc-Il2rg")
	if !ok || named.HostStrain == nil || named.HostStrain.Name != "NSG" {
		t.Fatalf("expected host strain name from the row, got %+v", named)
	}
	blank, ok := m1.Specimen("4", domain.NotSpecified)
	if !ok || blank.HostStrain == nil || blank.HostStrain.Symbol != domain.NotSpecified {
		t.Fatalf("expected not specified host strain, got %+v", blank)
	}
}

func TestLoadPatientSampleMissingForMolecularRow(t *testing.T) {
	svc, _ := newTestService(t, newFakeResolver())
	set := traceTables()
	set.Add(tsv(validation.TableSample, "patient_id\tsample_id\tmodel_id", "P1\tS1\tM1"))
	set.Add(tsv(validation.TableMutation, mutationHeader, "M2\tS2\tpatient\t\t\tWES\tTP53\t\t17"))
	_, err := svc.Load(context.Background(), "TRACE", set)
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != domain.EntitySample || nf.Stage != StageMutation {
		t.Fatalf("expected missing sample failure, got %v", err)
	}
}

func TestLoadPerModelMutationTables(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	set := traceTables()
	set.Add(tsv(MutationTableFor("M2"), mutationHeader, "M2\tS2\tpatient\t\t\tPanel\tTP53\tR175H\t17"))
	report, err := svc.Load(context.Background(), "TRACE", set)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	st, _ := report.Stage(StageMutation)
	if st.Skipped || st.Rows != 1 {
		t.Fatalf("expected per-model table to be read, got %+v", st)
	}
	m2 := modelByID(t, store, "M2")
	if _, ok := m2.Sample.Characterization(domain.CharacterizationMutation, "Panel"); !ok {
		t.Fatalf("expected characterization from per-model table")
	}
}

func TestLoadTreatments(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	set := traceTables()
	set.Add(tsv(validation.TablePatient, "patient_id", "P1", "P2"))
	set.Add(tsv(validation.TablePatientTreat, "patient_id\ttreatment_name\ttreatment_dose\ttreatment_starting_date\ttreatment_duration\ttreatment_response",
		"P1\tcarboplatin\t100mg\t2019\t3m\tprogressive disease",
		"P1\t\t\t\t\t",
		"P2\tcisplatin\t1mg\t\t\t"))
	set.Add(tsv(validation.TableDrugDosing, "model_id\ttreatment_name\ttreatment_dose\tpassage_range\ttreatment_type\ttreatment_schedule\ttreatment_length",
		"M1\tcisplatin + paclitaxel\t5mg;10mg\t2-4\tcombination\tweekly\t21d",
		"M1\ta+b+c\t1;2\t\t\t\t"))
	report, err := svc.Load(context.Background(), "TRACE", set)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p1, _ := store.Patient(domain.NaturalID(domain.EntityPatient, "TRACE", "P1"))
	if got := len(p1.Snapshots[0].Treatments); got != 1 {
		t.Fatalf("expected one patient treatment, got %d", got)
	}
	tp := p1.Snapshots[0].Treatments[0]
	if tp.StartingDate != "2019" || tp.Duration != "3m" || tp.Components[0].Treatment.Name != "carboplatin" {
		t.Fatalf("unexpected patient treatment %+v", tp)
	}
	if st, _ := report.Stage(StagePatientTreatment); st.Failed != 2 {
		t.Fatalf("expected missing drug and missing snapshot skips, got %+v", st)
	}

	m1 := modelByID(t, store, "M1")
	if len(m1.Treatments) != 1 {
		t.Fatalf("mismatched drug and dose lists must not create a protocol, got %d", len(m1.Treatments))
	}
	dose := m1.Treatments[0]
	if len(dose.Components) != 2 || dose.Components[1].Dose != "10mg" || dose.Schedule != "weekly" || dose.Duration != "21d" || dose.Kind != "combination" || dose.PassageRange != "2-4" {
		t.Fatalf("unexpected dosing protocol %+v", dose)
	}
}

func TestSamplePlatformRegistersCharacterization(t *testing.T) {
	svc, store := newTestService(t, newFakeResolver())
	set := traceTables()
	set.Add(tsv(validation.TableSamplePlatform, "model_id\tsample_id\tsample_origin\tmolecular_characterisation_type\tplatform\tinternal_protocol_url",
		"M1\tS1\tpatient\tcna\tSNP6\thttps://trace.example/snp6",
		"M1\tS1\tpatient\tproteomics\tRPPA\t",
		"M1\tS1\tpatient\tExpression\tRNAseq\t",
		"M1\tS1\tpatient\t\tArray\t"))
	report, err := svc.Load(context.Background(), "TRACE", set)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mc, ok := modelByID(t, store, "M1").Sample.Characterization(domain.CharacterizationCopyNumber, "SNP6")
	if !ok || mc.Platform.URL != "https://trace.example/snp6" || mc.Platform.DataSource != "TRACE" {
		t.Fatalf("expected copy number characterization with platform url")
	}
	if mc.Association().Encoded != "[]" {
		t.Fatalf("empty association should encode as an empty list, got %q", mc.Association().Encoded)
	}
	sample := modelByID(t, store, "M1").Sample
	for _, want := range []struct {
		kind     domain.CharacterizationType
		platform string
	}{{"proteomics", "RPPA"}, {"expression", "RNAseq"}} {
		if _, ok := sample.Characterization(want.kind, want.platform); !ok {
			t.Fatalf("expected %s characterization on %s to be registered", want.kind, want.platform)
		}
	}
	if st, _ := report.Stage(StageSamplePlatform); st.Rows != 4 || st.Failed != 1 {
		t.Fatalf("only the row without a type should be skipped, got %+v", st)
	}
}

func TestLoadTableSetFailures(t *testing.T) {
	res := newFakeResolver()
	svc, _ := newTestService(t, res)

	set := traceTables()
	delete(set, validation.TableSharing)
	_, err := svc.Load(context.Background(), "TRACE", set)
	var missing *MissingTableError
	if !errors.As(err, &missing) || missing.Table != validation.TableSharing {
		t.Fatalf("expected missing sharing table, got %v", err)
	}

	gated, _ := newTestService(t, res, WithRequireValid(true))
	report, err := gated.Load(context.Background(), "TRACE", set)
	if !errors.Is(err, ErrValidationFailed) || len(report.Validation) == 0 {
		t.Fatalf("expected validation gate failure, got %v", err)
	}

	empty := traceTables()
	empty.Add(tsv(validation.TableLoader, "name\tabbreviation\tinternal_url"))
	if _, err := svc.Load(context.Background(), "TRACE", empty); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	if _, err := NewService(nil, newFakeResolver()); err == nil {
		t.Fatalf("expected store required")
	}
	if _, err := NewService(memory.NewStore(), nil); err == nil {
		t.Fatalf("expected resolver required")
	}
	bad := Stage{StageSpec{Name: "x", Needs: kinds(domain.EntityModel)}, noopStage}
	if _, err := NewService(memory.NewStore(), newFakeResolver(), WithStages(bad)); !errors.Is(err, ErrStageOrder) {
		t.Fatalf("expected stage order error, got %v", err)
	}
}
