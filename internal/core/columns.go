package core

// Source column names.
const (
	colName         = "name"
	colAbbreviation = "abbreviation"
	colInternalURL  = "internal_url"

	colPatientID           = "patient_id"
	colSex                 = "sex"
	colHistory             = "history"
	colEthnicity           = "ethnicity"
	colEthnicityAssessment = "ethnicity_assessment_method"
	colInitialDiagnosis    = "initial_diagnosis"
	colAgeAtDiagnosis      = "age_at_initial_diagnosis"

	colModelID         = "model_id"
	colHostStrain      = "host_strain"
	colHostStrainFull  = "host_strain_full"
	colEngraftmentSite = "engraftment_site"
	colEngraftmentType = "engraftment_type"
	colSampleType      = "sample_type"
	colPassageNumber   = "passage_number"
	colPublications    = "publications"

	colValidationTechnique = "validation_technique"
	colDescription         = "description"
	colPassagesTested      = "passages_tested"
	colValidationStrain    = "validation_host_strain_full"

	colSampleID          = "sample_id"
	colCollectionDate    = "collection_date"
	colCollectionEvent   = "collection_event"
	colElapsedTime       = "months_since_collection_1"
	colAgeAtCollection   = "age_in_years_at_collection"
	colDiagnosis         = "diagnosis"
	colTumourType        = "tumour_type"
	colPrimarySite       = "primary_site"
	colCollectionSite    = "collection_site"
	colStage             = "stage"
	colStagingSystem     = "staging_system"
	colGrade             = "grade"
	colGradingSystem     = "grading_system"
	colVirologyStatus    = "virology_status"
	colTreatmentNaive    = "treatment_naive_at_collection"
	colProviderType      = "provider_type"
	colAccessibility     = "accessibility"
	colAccessModality    = "europdx_access_modality"
	colEmail             = "email"
	colFormURL           = "form_url"
	colDatabaseURL       = "database_url"
	colProject           = "project"
	colSampleOrigin      = "sample_origin"
	colPassage           = "passage"
	colHostStrainName    = "host_strain_name"
	colHostNomenclature  = "host_strain_nomenclature"
	colCharType          = "molecular_characterisation_type"
	colPlatform          = "platform"
	colProtocolURL       = "internal_protocol_url"
	colTreatmentName     = "treatment_name"
	colTreatmentDose     = "treatment_dose"
	colTreatmentStart    = "treatment_starting_date"
	colTreatmentDuration = "treatment_duration"
	colTreatmentResponse = "treatment_response"
	colResponseClass     = "response_classification"
	colPassageRange      = "passage_range"
	colTreatmentType     = "treatment_type"
	colTreatmentSchedule = "treatment_schedule"
	colTreatmentLength   = "treatment_length"

	colSymbol              = "symbol"
	colChromosome          = "chromosome"
	colSeqStart            = "seq_start_position"
	colSeqEnd              = "seq_end_position"
	colGenomeAssembly      = "genome_assembly"
	colAminoAcidChange     = "amino_acid_change"
	colCodingSequence      = "coding_sequence_change"
	colVariantClass        = "variant_class"
	colConsequence         = "consequence"
	colFunctionalPredict   = "functional_prediction"
	colAlleleFrequency     = "allele_frequency"
	colReadDepth           = "read_depth"
	colRefAllele           = "ref_allele"
	colAltAllele           = "alt_allele"
	colVariationID         = "variation_id"
	colEnsemblTranscriptID = "ensembl_transcript_id"
	colLog10RCNA           = "log10r_cna"
	colLog2RCNA            = "log2r_cna"
	colCopyNumberStatus    = "copy_number_status"
	colGisticValue         = "gistic_value"
	colPicnicValue         = "picnic_value"
	colResult              = "result"
)
