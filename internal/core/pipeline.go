package core

import (
	"pdxgraph/internal/registry"
	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

// Stage names in execution order.
const (
	StageProvider         = "provider"
	StagePatient          = "patient"
	StageModel            = "model"
	StageModelValidation  = "model_validation"
	StageSample           = "sample"
	StageSharing          = "sharing"
	StageSamplePlatform   = "sample_platform"
	StagePatientTreatment = "patient_treatment"
	StageDrugDosing       = "drug_dosing"
	StageMutation         = "mutation"
	StageCopyNumber       = "copy_number"
	StageCytogenetics     = "cytogenetics"
)

func required(names ...string) []TableInput {
	out := make([]TableInput, len(names))
	for i, n := range names {
		out[i] = TableInput{Name: n}
	}
	return out
}

func optional(name string) []TableInput {
	return []TableInput{{Name: name, Optional: true}}
}

func kinds(k ...registry.Kind) []registry.Kind { return k }

// DefaultStages returns the PDX construction stages in their fixed order.
func DefaultStages() []Stage {
	return []Stage{
		{StageSpec{
			Name:     StageProvider,
			Tables:   required(validation.TableLoader),
			Produces: kinds(domain.EntityProvider),
		}, runProvider},
		{StageSpec{
			Name:     StagePatient,
			Tables:   required(validation.TablePatient),
			Needs:    kinds(domain.EntityProvider),
			Produces: kinds(domain.EntityPatient),
		}, runPatients},
		{StageSpec{
			Name:     StageModel,
			Tables:   required(validation.TableModel),
			Needs:    kinds(domain.EntityProvider),
			Produces: kinds(domain.EntityModel, domain.EntitySpecimen, domain.EntityHostStrain, domain.EntityTerm),
		}, runModels},
		{StageSpec{
			Name:   StageModelValidation,
			Tables: required(validation.TableModelValidation),
			Needs:  kinds(domain.EntityModel),
		}, runModelValidation},
		{StageSpec{
			Name:     StageSample,
			Tables:   required(validation.TableSample),
			Needs:    kinds(domain.EntityPatient, domain.EntityModel),
			Produces: kinds(domain.EntitySnapshot, domain.EntitySample, domain.EntityTerm),
		}, runSamples},
		{StageSpec{
			Name:     StageSharing,
			Tables:   required(validation.TableSharing),
			Needs:    kinds(domain.EntityProvider, domain.EntityModel),
			Produces: kinds(domain.EntityExternalURL, domain.EntityGroup),
		}, runSharing},
		{StageSpec{
			Name:     StageSamplePlatform,
			Tables:   optional(validation.TableSamplePlatform),
			Needs:    kinds(domain.EntityModel, domain.EntitySample),
			Produces: kinds(domain.EntityPlatform, domain.EntityCharacterization),
		}, runSamplePlatforms},
		{StageSpec{
			Name:     StagePatientTreatment,
			Tables:   optional(validation.TablePatientTreat),
			Needs:    kinds(domain.EntityPatient, domain.EntitySnapshot),
			Produces: kinds(domain.EntityTreatmentProtocol),
		}, runPatientTreatments},
		{StageSpec{
			Name:     StageDrugDosing,
			Tables:   optional(validation.TableDrugDosing),
			Needs:    kinds(domain.EntityModel),
			Produces: kinds(domain.EntityTreatmentProtocol),
		}, runDrugDosing},
		{StageSpec{
			Name:             StageMutation,
			Tables:           optional(validation.TableMutation),
			Needs:            kinds(domain.EntityProvider, domain.EntityModel, domain.EntitySample),
			Produces:         kinds(domain.EntityPlatform, domain.EntityCharacterization, domain.EntityMarker),
			RunWithoutTables: true,
		}, runMutations},
		{StageSpec{
			Name:     StageCopyNumber,
			Tables:   optional(validation.TableCopyNumber),
			Needs:    kinds(domain.EntityProvider, domain.EntityModel, domain.EntitySample),
			Produces: kinds(domain.EntityPlatform, domain.EntityCharacterization, domain.EntityMarker),
		}, runCopyNumber},
		{StageSpec{
			Name:     StageCytogenetics,
			Tables:   optional(validation.TableCytogenetics),
			Needs:    kinds(domain.EntityProvider, domain.EntityModel, domain.EntitySample),
			Produces: kinds(domain.EntityPlatform, domain.EntityCharacterization, domain.EntityMarker),
		}, runCytogenetics},
	}
}
