package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"pdxgraph/internal/table"
	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

// tsv builds a table from a tab separated header and rows.
func tsv(name, header string, rows ...string) *table.Table {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = strings.Split(r, "\t")
	}
	return table.New(name, strings.Split(header, "\t"), cells)
}

func tableSet(tables ...*table.Table) table.Set {
	set := table.Set{}
	for _, t := range tables {
		set.Add(t)
	}
	return set
}

// traceTables is a small consistent provider release: one patient with two
// samples at the same collection point feeding two models.
func traceTables() table.Set {
	return tableSet(
		tsv(validation.TableLoader, "name\tabbreviation\tinternal_url",
			"Trace Lab\tTRACE\thttps://trace.example"),
		tsv(validation.TablePatient, "patient_id\tsex\thistory\tethnicity\tethnicity_assessment_method\tinitial_diagnosis\tage_at_initial_diagnosis",
			"P1\tfemale\t\tunknown\t\tcarcinoma\t60"),
		tsv(validation.TableModel, "model_id\thost_strain\thost_strain_full\tengraftment_site\tengraftment_type\tsample_type\tpassage_number\tpublications",
			"M1\tNSG\tNOD.Cg-Prkdc\tsubcutaneous\theterotopic\ttissue\t1\tPMID:1",
			"M1\tNSG\tNOD.Cg-Prkdc\tsubcutaneous\theterotopic\ttissue\t1\tPMID:1",
			"M2\tNSG\t\tsubcutaneous\theterotopic\ttissue\t0\t"),
		tsv(validation.TableModelValidation, "model_id\tvalidation_technique\tdescription\tpassages_tested\tvalidation_host_strain_full",
			"M1\tSTR\tmatches patient\t1\tNOD.Cg-Prkdc"),
		tsv(validation.TableSample, "patient_id\tsample_id\tmodel_id\tcollection_date\tcollection_event\tmonths_since_collection_1\tage_in_years_at_collection\tdiagnosis\ttumour_type\tprimary_site\tcollection_site\tvirology_status\ttreatment_naive_at_collection",
			"P1\tS1\tM1\t2020\tsurgery\t0\t61\tcarcinoma\tprimary\tlung\tlung\tnegative\tyes",
			"P1\tS2\tM2\t2020\tsurgery\t0\t61\tcarcinoma\tprimary\tlung\tliver\tpositive\tno"),
		tsv(validation.TableSharing, "model_id\tprovider_type\taccessibility\teuropdx_access_modality\temail\tform_url\tdatabase_url\tproject",
			"M1\tacademic\tacademia\tcollaboration only\tlab@trace.example\t\thttps://db.trace.example/M1\tTRACE-1",
			"M2\tacademic\t\t\t\t\t\t"),
	)
}

type fakeResolver struct {
	markers map[string]*domain.Marker
	notes   map[string]string
	fail    map[string]bool
	calls   int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		markers: map[string]*domain.Marker{
			"KRAS": {Symbol: "KRAS", HGNCID: "HGNC:6407"},
			"TP53": {Symbol: "TP53", HGNCID: "HGNC:11998"},
		},
		notes: map[string]string{},
		fail:  map[string]bool{},
	}
}

func (f *fakeResolver) Resolve(_ context.Context, q domain.MarkerQuery) (domain.MarkerResolution, error) {
	f.calls++
	if f.fail[q.Symbol] {
		return domain.MarkerResolution{}, errors.New("lookup service down")
	}
	if alias, ok := f.notes[q.Symbol]; ok {
		return domain.MarkerResolution{Marker: f.markers[alias], Note: q.Symbol + " resolved to " + alias + " via previous symbol"}, nil
	}
	m, ok := f.markers[q.Symbol]
	if !ok {
		return domain.MarkerResolution{Note: q.Symbol + " could not be resolved"}, nil
	}
	return domain.MarkerResolution{Marker: m}, nil
}

func fixedClock() Clock {
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return ClockFunc(func() time.Time { return t0 })
}
