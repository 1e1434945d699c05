package table

import "strings"

// ChecklistTable is the template checklist shipped with provider metadata;
// it carries no data.
const ChecklistTable = "metadata-checklist.tsv"

// annotationColumn marks template rows (descriptions, examples) in
// metadata sheets. Data rows leave it blank.
const annotationColumn = "Field"

// caseSensitiveColumns keep their original case during cleanup.
var caseSensitiveColumns = map[string]struct{}{
	"model_id":                    {},
	"sample_id":                   {},
	"patient_id":                  {},
	"name":                        {},
	"abbreviation":                {},
	"host_strain":                 {},
	"host_strain_full":            {},
	"host_strain_name":            {},
	"host_strain_nomenclature":    {},
	"validation_host_strain_full": {},
	"project":                     {},
	"internal_url":                {},
	"internal_protocol_url":       {},
	"form_url":                    {},
	"database_url":                {},
	"platform":                    {},
	"symbol":                      {},
	"treatment_name":              {},
	"treatment_dose":              {},
}

// Clean normalizes a provider table set in place: the checklist sheet is
// dropped, template annotation rows and the annotation column are removed,
// cells are trimmed, blank rows are dropped and values outside identifier
// columns are lowercased.
func Clean(set Set) Set {
	delete(set, ChecklistTable)
	for _, t := range set {
		cleanTable(t)
	}
	return set
}

func cleanTable(t *Table) {
	annotation, hasAnnotation := t.index[annotationColumn]

	keepCols := make([]int, 0, len(t.columns))
	for i := range t.columns {
		if hasAnnotation && i == annotation {
			continue
		}
		keepCols = append(keepCols, i)
	}
	columns := make([]string, len(keepCols))
	lower := make([]bool, len(keepCols))
	for j, i := range keepCols {
		columns[j] = t.columns[i]
		_, exempt := caseSensitiveColumns[columns[j]]
		lower[j] = !exempt
	}

	rows := make([][]string, 0, len(t.rows))
	lines := make([]int, 0, len(t.rows))
	for r, row := range t.rows {
		if hasAnnotation && strings.TrimSpace(row[annotation]) != "" {
			continue
		}
		cells := make([]string, len(keepCols))
		blank := true
		for j, i := range keepCols {
			v := strings.TrimSpace(row[i])
			if lower[j] {
				v = strings.ToLower(v)
			}
			cells[j] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, cells)
		lines = append(lines, t.lines[r])
	}

	t.setColumns(columns)
	t.rows = rows
	t.lines = lines
}
