// Package validation performs pre-flight structural checks of a provider
// table set: required files, required columns and required values.
package validation

import "sort"

// Logical table names of the PDX metadata template.
const (
	TableLoader          = "metadata-loader.tsv"
	TablePatient         = "metadata-patient.tsv"
	TableModel           = "metadata-model.tsv"
	TableModelValidation = "metadata-model_validation.tsv"
	TableSample          = "metadata-sample.tsv"
	TableSharing         = "metadata-sharing.tsv"
	TableSamplePlatform  = "sampleplatform-data.tsv"
	TablePatientTreat    = "patienttreatment-Sheet1.tsv"
	TableDrugDosing      = "drugdosing-Sheet1.tsv"
	TableMutation        = "mut.tsv"
	TableCopyNumber      = "cna.tsv"
	TableCytogenetics    = "cytogenetics-Sheet1.tsv"
)

// FileSetSpecification declares what a table set must contain. Column
// requirements only apply to files that are present.
type FileSetSpecification struct {
	RequiredFiles   []string
	RequiredColumns map[string][]string
	NonNullColumns  map[string][]string
}

// NewFileSetSpecification returns an empty specification.
func NewFileSetSpecification() *FileSetSpecification {
	return &FileSetSpecification{
		RequiredColumns: make(map[string][]string),
		NonNullColumns:  make(map[string][]string),
	}
}

// RequireFiles adds required file names.
func (s *FileSetSpecification) RequireFiles(files ...string) *FileSetSpecification {
	s.RequiredFiles = append(s.RequiredFiles, files...)
	return s
}

// RequireColumns declares columns that file must define.
func (s *FileSetSpecification) RequireColumns(file string, cols ...string) *FileSetSpecification {
	s.RequiredColumns[file] = append(s.RequiredColumns[file], cols...)
	return s
}

// RequireValues declares columns of file that must not hold missing values.
func (s *FileSetSpecification) RequireValues(file string, cols ...string) *FileSetSpecification {
	s.NonNullColumns[file] = append(s.NonNullColumns[file], cols...)
	return s
}

func sortedKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PDXFileSet is the specification of the PDX metadata template.
func PDXFileSet() *FileSetSpecification {
	return NewFileSetSpecification().
		RequireFiles(TableLoader, TablePatient, TableModel, TableModelValidation, TableSample, TableSharing).
		RequireColumns(TableLoader, "name", "abbreviation", "internal_url").
		RequireColumns(TablePatient, "patient_id", "sex", "history", "ethnicity",
			"ethnicity_assessment_method", "initial_diagnosis", "age_at_initial_diagnosis").
		RequireColumns(TableModel, "model_id", "host_strain", "host_strain_full", "engraftment_site",
			"engraftment_type", "sample_type", "sample_state", "passage_number", "publications").
		RequireColumns(TableModelValidation, "model_id", "validation_technique", "description",
			"passages_tested", "validation_host_strain_full").
		RequireColumns(TableSample, "patient_id", "sample_id", "model_id", "collection_date",
			"collection_event", "months_since_collection_1", "age_in_years_at_collection", "diagnosis",
			"tumour_type", "primary_site", "collection_site", "stage", "staging_system", "grade",
			"grading_system", "virology_status", "treatment_naive_at_collection").
		RequireColumns(TableSharing, "model_id", "provider_type", "accessibility",
			"europdx_access_modality", "email", "name", "form_url", "database_url", "project").
		RequireValues(TableLoader, "name", "abbreviation").
		RequireValues(TablePatient, "patient_id").
		RequireValues(TableModel, "model_id").
		RequireValues(TableModelValidation, "model_id").
		RequireValues(TableSample, "patient_id", "sample_id", "model_id").
		RequireValues(TableSharing, "model_id")
}
