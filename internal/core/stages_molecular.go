package core

import (
	"context"

	"pdxgraph/internal/table"
	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

// targetSample resolves the sample a molecular row describes. Missing models
// and models without a patient sample are fatal; an unrecognised origin
// skips the row and returns nil.
func (rc *RunContext) targetSample(ctx context.Context, row table.Row) (*domain.Sample, error) {
	model, err := rc.model(row)
	if err != nil {
		return nil, err
	}
	origin, ok := domain.ParseSampleOrigin(row.String(colSampleOrigin))
	if !ok {
		rc.skip(row, "unknown sample origin %q", row.String(colSampleOrigin))
		return nil, nil
	}
	if origin == domain.OriginPatient {
		if model.Sample == nil {
			return nil, rc.notFound(domain.EntitySample, "patient sample of "+model.SourcePDXID, row)
		}
		return model.Sample, nil
	}
	sp, err := rc.xenograftSpecimen(ctx, row, model)
	if err != nil {
		return nil, err
	}
	return sp.Sample, nil
}

// xenograftSpecimen gets or creates the model's specimen at the row's passage
// and host strain. Blank host strain cells become domain.NotSpecified.
func (rc *RunContext) xenograftSpecimen(ctx context.Context, row table.Row, model *domain.ModelCreation) (*domain.Specimen, error) {
	passage := row.String(colPassage)
	nomenclature := hostStrainOrDefault(row.String(colHostNomenclature))
	sampleID := row.String(colSampleID)
	if sp, ok := model.Specimen(passage, nomenclature); ok {
		if sp.Sample.SourceSampleID == "" {
			sp.Sample.SourceSampleID = sampleID
		}
		return sp, nil
	}
	sp := domain.NewSpecimen(model, passage, nomenclature, sampleID)
	hs, err := rc.hostStrain(ctx, hostStrainOrDefault(row.String(colHostStrainName)), nomenclature)
	if err != nil {
		return nil, err
	}
	sp.HostStrain = hs
	model.AddSpecimen(sp)
	return sp, nil
}

// characterization gets or creates the (sample, kind, platform) characterization.
func (rc *RunContext) characterization(sample *domain.Sample, kind domain.CharacterizationType, platformName string) (*domain.MolecularCharacterization, error) {
	if mc, ok := sample.Characterization(kind, platformName); ok {
		return mc, nil
	}
	pl, err := rc.platform(kind, platformName)
	if err != nil {
		return nil, err
	}
	return sample.CharacterizationFor(kind, pl), nil
}

func runSamplePlatforms(ctx context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TableSamplePlatform)
	return rc.forEachRow(t, func(row table.Row) error {
		kind := domain.CharacterizationTypeOf(row.String(colCharType))
		if kind == "" {
			rc.skip(row, "sample platform row has no %s", colCharType)
			return nil
		}
		name, ok := row.Lookup(colPlatform)
		if !ok {
			rc.skip(row, "sample platform row has no %s", colPlatform)
			return nil
		}
		sample, err := rc.targetSample(ctx, row)
		if err != nil || sample == nil {
			return err
		}
		mc, err := rc.characterization(sample, kind, name)
		if err != nil {
			return err
		}
		if url, ok := row.Lookup(colProtocolURL); ok && mc.Platform.URL == "" {
			mc.Platform.URL = url
		}
		return nil
	})
}

// molecularRows attaches one resolved measurement per row of t.
func (rc *RunContext) molecularRows(ctx context.Context, t *table.Table, kind domain.CharacterizationType) error {
	provider, err := rc.provider()
	if err != nil {
		return err
	}
	return rc.forEachRow(t, func(row table.Row) error {
		name, ok := row.Lookup(colPlatform)
		if !ok {
			rc.skip(row, "%s row has no %s", kind, colPlatform)
			return nil
		}
		sample, err := rc.targetSample(ctx, row)
		if err != nil || sample == nil {
			return err
		}
		mc, err := rc.characterization(sample, kind, name)
		if err != nil {
			return err
		}
		symbol := row.String(colSymbol)
		res, err := rc.Resolver.Resolve(ctx, domain.MarkerQuery{
			Source:               "pdxgraph",
			DataSource:           provider.Abbreviation,
			ModelID:              row.String(colModelID),
			Symbol:               symbol,
			CharacterizationType: kind,
			Platform:             name,
		})
		switch {
		case err != nil:
			rc.metrics.CountResolution(ResolutionError)
			rc.skip(row, "marker %q lookup failed: %v", symbol, err)
			return nil
		case !res.Resolved():
			rc.metrics.CountResolution(ResolutionUnresolved)
			msg := res.Note
			if msg == "" {
				msg = "marker could not be resolved"
			}
			rc.skip(row, "marker %q skipped: %s", symbol, msg)
			return nil
		}
		rc.metrics.CountResolution(ResolutionResolved)
		if res.Note != "" {
			rc.note(row, res.Note)
		}
		mc.Association().Add(molecularData(row, kind, res.Marker))
		return nil
	})
}

func molecularData(row table.Row, kind domain.CharacterizationType, marker *domain.Marker) domain.MolecularData {
	md := domain.MolecularData{Marker: marker.Symbol}
	switch kind {
	case domain.CharacterizationMutation:
		md.AminoAcidChange = row.String(colAminoAcidChange)
		md.CodingSequence = row.String(colCodingSequence)
		md.VariantClass = row.String(colVariantClass)
		md.Consequence = row.String(colConsequence)
		md.FunctionalPredict = row.String(colFunctionalPredict)
		md.AlleleFrequency = row.String(colAlleleFrequency)
		md.ReadDepth = row.String(colReadDepth)
		md.RefAllele = row.String(colRefAllele)
		md.AltAllele = row.String(colAltAllele)
		md.RsIDVariants = row.String(colVariationID)
		md.EnsemblTranscriptID = row.String(colEnsemblTranscriptID)
		md.Chromosome = row.String(colChromosome)
		md.SeqStartPosition = row.String(colSeqStart)
		md.GenomeAssembly = row.String(colGenomeAssembly)
	case domain.CharacterizationCopyNumber:
		md.Chromosome = row.String(colChromosome)
		md.SeqStartPosition = row.String(colSeqStart)
		md.SeqEndPosition = row.String(colSeqEnd)
		md.Log10RCNA = row.String(colLog10RCNA)
		md.Log2RCNA = row.String(colLog2RCNA)
		md.CopyNumberStatus = row.String(colCopyNumberStatus)
		md.GisticValue = row.String(colGisticValue)
		md.PicnicValue = row.String(colPicnicValue)
		md.GenomeAssembly = row.String(colGenomeAssembly)
	case domain.CharacterizationCytogenetics:
		md.Result = row.String(colResult)
	}
	return md
}

// MutationTableFor names the per-model mutation file of a model.
func MutationTableFor(modelID string) string { return "mut_" + modelID + ".tsv" }

func runMutations(ctx context.Context, rc *RunContext) error {
	if t, ok := rc.table(validation.TableMutation); ok {
		return rc.molecularRows(ctx, t, domain.CharacterizationMutation)
	}
	for _, m := range rc.Registry.Models.Values() {
		t, ok := rc.table(MutationTableFor(m.SourcePDXID))
		if !ok {
			continue
		}
		rc.log.Debug("using per-model mutation table", "stage", rc.stage, "table", t.Name())
		if err := rc.molecularRows(ctx, t, domain.CharacterizationMutation); err != nil {
			return err
		}
	}
	return nil
}

func runCopyNumber(ctx context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TableCopyNumber)
	return rc.molecularRows(ctx, t, domain.CharacterizationCopyNumber)
}

func runCytogenetics(ctx context.Context, rc *RunContext) error {
	t, _ := rc.table(validation.TableCytogenetics)
	return rc.molecularRows(ctx, t, domain.CharacterizationCytogenetics)
}
