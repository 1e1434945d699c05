package validation

import (
	"fmt"
	"sort"

	"pdxgraph/internal/table"
)

// ErrorKind classifies a structural defect.
type ErrorKind string

const (
	MissingFile          ErrorKind = "missing_file"
	MissingColumn        ErrorKind = "missing_column"
	MissingRequiredValue ErrorKind = "missing_required_value"
)

// TableValidationError is one structural defect of a provider table set.
// Row is the source line of the offending row, zero when not row-scoped.
type TableValidationError struct {
	Kind     ErrorKind `json:"kind"`
	Table    string    `json:"table"`
	Column   string    `json:"column,omitempty"`
	Row      int       `json:"row,omitempty"`
	Provider string    `json:"provider"`
}

func (e TableValidationError) Error() string {
	switch e.Kind {
	case MissingFile:
		return fmt.Sprintf("%s: missing file %s", e.Provider, e.Table)
	case MissingColumn:
		return fmt.Sprintf("%s: %s is missing column %s", e.Provider, e.Table, e.Column)
	default:
		return fmt.Sprintf("%s: %s line %d has no value for required column %s", e.Provider, e.Table, e.Row, e.Column)
	}
}

// Validate checks tables against spec and returns every defect found:
// missing files first, then missing columns of present files, then missing
// required values. Tables are not modified.
func Validate(tables table.Set, spec *FileSetSpecification, provider string) []TableValidationError {
	var defects []TableValidationError

	files := append([]string(nil), spec.RequiredFiles...)
	sort.Strings(files)
	for _, f := range files {
		if _, ok := tables.Get(f); !ok {
			defects = append(defects, TableValidationError{Kind: MissingFile, Table: f, Provider: provider})
		}
	}

	for _, f := range sortedKeys(spec.RequiredColumns) {
		t, ok := tables.Get(f)
		if !ok {
			continue
		}
		for _, col := range spec.RequiredColumns[f] {
			if !t.HasColumn(col) {
				defects = append(defects, TableValidationError{Kind: MissingColumn, Table: f, Column: col, Provider: provider})
			}
		}
	}

	for _, f := range sortedKeys(spec.NonNullColumns) {
		t, ok := tables.Get(f)
		if !ok {
			continue
		}
		for _, col := range spec.NonNullColumns[f] {
			// an absent column is already reported above
			if !t.HasColumn(col) {
				continue
			}
			for _, row := range t.Rows() {
				if row.Missing(col) {
					defects = append(defects, TableValidationError{
						Kind: MissingRequiredValue, Table: f, Column: col, Row: row.Line(), Provider: provider,
					})
				}
			}
		}
	}
	return defects
}

// Passes reports whether no defects were found.
func Passes(defects []TableValidationError) bool { return len(defects) == 0 }
