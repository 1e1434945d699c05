package core

import (
	"context"

	"pdxgraph/internal/table"
	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

// treatmentProtocol decomposes the row's drug and dose lists. A missing
// drug list or a drug/dose length mismatch is recorded and yields no protocol.
func (rc *RunContext) treatmentProtocol(row table.Row) (*domain.TreatmentProtocol, bool) {
	drugs, ok := row.Lookup(colTreatmentName)
	if !ok {
		rc.skip(row, "treatment row has no %s", colTreatmentName)
		return nil, false
	}
	doses := row.String(colTreatmentDose)
	tp, ok := domain.DecomposeTreatment(drugs, doses)
	if !ok {
		rc.skip(row, "drugs %q and doses %q do not pair up, no protocol created", drugs, doses)
		return nil, false
	}
	tp.Response = row.String(colTreatmentResponse)
	tp.ResponseClassification = row.String(colResponseClass)
	return tp, true
}

func runPatientTreatments(_ context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TablePatientTreat)
	return rc.forEachRow(t, func(row table.Row) error {
		patient, err := rc.patient(row)
		if err != nil {
			return err
		}
		snapshot, ok := patient.LastSnapshot()
		if !ok {
			rc.skip(row, "patient %s has no snapshot to attach a treatment to", patient.ExternalID)
			return nil
		}
		tp, ok := rc.treatmentProtocol(row)
		if !ok {
			return nil
		}
		tp.StartingDate = row.String(colTreatmentStart)
		tp.Duration = row.String(colTreatmentDuration)
		snapshot.AddTreatment(tp)
		return nil
	})
}

func runDrugDosing(_ context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TableDrugDosing)
	return rc.forEachRow(t, func(row table.Row) error {
		model, err := rc.model(row)
		if err != nil {
			return err
		}
		tp, ok := rc.treatmentProtocol(row)
		if !ok {
			return nil
		}
		tp.PassageRange = row.String(colPassageRange)
		tp.Duration = row.String(colTreatmentLength)
		tp.Schedule = row.String(colTreatmentSchedule)
		tp.Kind = row.String(colTreatmentType)
		model.AddTreatment(tp)
		return nil
	})
}
