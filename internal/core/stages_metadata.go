package core

import (
	"context"

	"pdxgraph/internal/registry"
	"pdxgraph/internal/table"
	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

func runProvider(_ context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TableLoader)
	if t.Len() == 0 {
		return ErrNoProvider
	}
	row := t.Row(0)
	rc.rows += t.Len()
	abbr := row.String(colAbbreviation)
	if abbr == "" {
		abbr = rc.Provider
	}
	p := domain.NewProvider(row.String(colName), abbr, row.String(colInternalURL))
	rc.Registry.Providers.Put(registry.NoKey, p)
	for _, extra := range t.Rows()[1:] {
		rc.skip(extra, "only the first provider row is used")
	}
	return nil
}

func runPatients(_ context.Context, rc *RunContext) error {
	provider, err := rc.provider()
	if err != nil {
		return err
	}
	t, _ := rc.table(validation.TablePatient)
	return rc.forEachRow(t, func(row table.Row) error {
		id, ok := row.Lookup(colPatientID)
		if !ok {
			rc.skip(row, "patient row has no %s", colPatientID)
			return nil
		}
		p, _, _ := rc.Registry.Patients.GetOrCreate(registry.NewKey(id), func() (*domain.Patient, error) {
			return domain.NewPatient(id, provider), nil
		})
		p.Sex = row.String(colSex)
		p.Ethnicity = row.String(colEthnicity)
		p.EthnicityAssessment = row.String(colEthnicityAssessment)
		p.History = row.String(colHistory)
		p.FirstDiagnosis = row.String(colInitialDiagnosis)
		p.AgeAtFirstDiagnosis = row.String(colAgeAtDiagnosis)
		return nil
	})
}

func runModels(ctx context.Context, rc *RunContext) error {
	provider, err := rc.provider()
	if err != nil {
		return err
	}
	t, _ := rc.table(validation.TableModel)
	return rc.forEachRow(t, func(row table.Row) error {
		id, ok := row.Lookup(colModelID)
		if !ok {
			rc.skip(row, "model row has no %s", colModelID)
			return nil
		}
		m, _, _ := rc.Registry.Models.GetOrCreate(registry.NewKey(id), func() (*domain.ModelCreation, error) {
			return domain.NewModel(id, provider.Abbreviation), nil
		})
		if pub, ok := row.Lookup(colPublications); ok {
			m.Publications = pub
		}

		passage := row.String(colPassageNumber)
		nomenclature := hostStrainOrDefault(row.String(colHostStrainFull))
		if _, exists := m.Specimen(passage, nomenclature); exists {
			return nil
		}
		sp := domain.NewSpecimen(m, passage, nomenclature, "")
		if sp.HostStrain, err = rc.hostStrain(ctx, row.String(colHostStrain), nomenclature); err != nil {
			return err
		}
		if sp.EngraftmentSite, err = rc.term(ctx, domain.TermEngraftmentSite, row.String(colEngraftmentSite)); err != nil {
			return err
		}
		if sp.EngraftmentType, err = rc.term(ctx, domain.TermEngraftmentType, row.String(colEngraftmentType)); err != nil {
			return err
		}
		if sp.EngraftmentMaterial, err = rc.term(ctx, domain.TermEngraftmentMaterial, row.String(colSampleType)); err != nil {
			return err
		}
		m.AddSpecimen(sp)
		return nil
	})
}

func runModelValidation(_ context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TableModelValidation)
	return rc.forEachRow(t, func(row table.Row) error {
		m, err := rc.model(row)
		if err != nil {
			return err
		}
		m.AddQualityAssurance(domain.QualityAssurance{
			Technology:           row.String(colValidationTechnique),
			Description:          row.String(colDescription),
			Passages:             row.String(colPassagesTested),
			ValidationHostStrain: row.String(colValidationStrain),
		})
		return nil
	})
}

func runSamples(ctx context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TableSample)
	return rc.forEachRow(t, func(row table.Row) error {
		patient, err := rc.patient(row)
		if err != nil {
			return err
		}
		model, err := rc.model(row)
		if err != nil {
			return err
		}
		snapshot, created := patient.SnapshotFor(domain.CollectionPoint{
			Age:         row.String(colAgeAtCollection),
			Date:        row.String(colCollectionDate),
			Event:       row.String(colCollectionEvent),
			ElapsedTime: row.String(colElapsedTime),
		})
		if created {
			snapshot.VirologyStatus = row.String(colVirologyStatus)
			snapshot.TreatmentNaive = row.String(colTreatmentNaive)
		}
		sample, err := rc.patientSample(ctx, row, patient, model, snapshot)
		if err != nil {
			return err
		}
		snapshot.AddSample(sample)
		model.SetPrimarySample(sample)
		return nil
	})
}

// patientSample returns the snapshot's sample for this row's sample id and
// model, building it from the clinical columns when new.
func (rc *RunContext) patientSample(ctx context.Context, row table.Row, patient *domain.Patient, model *domain.ModelCreation, snapshot *domain.PatientSnapshot) (*domain.Sample, error) {
	sourceID := row.String(colSampleID)
	id := domain.NaturalID(domain.EntitySample, patient.ID, sourceID, model.SourcePDXID)
	for _, s := range snapshot.Samples {
		if s.ID == id {
			return s, nil
		}
	}
	s := &domain.Sample{
		ID:                  id,
		SourceSampleID:      sourceID,
		Origin:              domain.OriginPatient,
		Diagnosis:           row.String(colDiagnosis),
		Stage:               row.String(colStage),
		StageClassification: row.String(colStagingSystem),
		Grade:               row.String(colGrade),
		GradeClassification: row.String(colGradingSystem),
	}
	var err error
	if s.TumorType, err = rc.term(ctx, domain.TermTumorType, row.String(colTumourType)); err != nil {
		return nil, err
	}
	if s.OriginTissue, err = rc.term(ctx, domain.TermTissue, row.String(colPrimarySite)); err != nil {
		return nil, err
	}
	if s.SampleSite, err = rc.term(ctx, domain.TermTissue, row.String(colCollectionSite)); err != nil {
		return nil, err
	}
	return s, nil
}

func runSharing(ctx context.Context, rc *RunContext) error {
	provider, err := rc.provider()
	if err != nil {
		return err
	}
	t, _ := rc.table(validation.TableSharing)
	return rc.forEachRow(t, func(row table.Row) error {
		m, err := rc.model(row)
		if err != nil {
			return err
		}
		links := []struct {
			col  string
			kind domain.URLKind
		}{
			{colEmail, domain.URLContact},
			{colFormURL, domain.URLContact},
			{colDatabaseURL, domain.URLSource},
		}
		urls := make([]*domain.ExternalURL, 0, len(links))
		for _, l := range links {
			v, ok := row.Lookup(l.col)
			if !ok {
				continue
			}
			u, err := rc.externalURL(ctx, l.kind, v)
			if err != nil {
				return err
			}
			urls = append(urls, u)
		}
		m.ExternalURLs = urls

		if project, ok := row.Lookup(colProject); ok {
			g, err := rc.group(ctx, domain.GroupProject, project, "")
			if err != nil {
				return err
			}
			m.AddGroup(g)
		}
		access, hasAccess := row.Lookup(colAccessibility)
		modality, hasModality := row.Lookup(colAccessModality)
		if hasAccess || hasModality {
			g, err := rc.group(ctx, domain.GroupAccessibility, access, modality)
			if err != nil {
				return err
			}
			m.AddGroup(g)
		}

		// last row wins; the provider is a per-load singleton
		provider.Type = row.String(colProviderType)
		provider.Contact = row.String(colEmail)
		return nil
	})
}

func hostStrainOrDefault(nomenclature string) string {
	if nomenclature == "" {
		return domain.NotSpecified
	}
	return nomenclature
}
