// Package table provides the in-memory tabular model the validator and the
// construction pipeline read from, plus loading and cleanup of provider
// table sets.
package table

import (
	"sort"
	"strconv"
	"strings"
)

// Table is a named grid of string cells addressed by column name. An empty
// cell is a missing value.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
	lines   []int
}

// New builds a table. Rows shorter than the header are padded with missing
// cells and longer rows are truncated. Source line numbers default to the
// data row position plus the header line.
func New(name string, columns []string, rows [][]string) *Table {
	t := &Table{name: name}
	t.setColumns(columns)
	for i, r := range rows {
		t.appendRow(r, i+2)
	}
	return t
}

func (t *Table) setColumns(columns []string) {
	t.columns = append([]string(nil), columns...)
	t.index = make(map[string]int, len(columns))
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

func (t *Table) appendRow(r []string, line int) {
	cells := make([]string, len(t.columns))
	copy(cells, r)
	t.rows = append(t.rows, cells)
	t.lines = append(t.lines, line)
}

// Name returns the logical table name.
func (t *Table) Name() string { return t.name }

// Columns returns the column names in header order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// HasColumn reports whether the header declares col.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th data row.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Rows returns every data row in table order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = Row{t: t, i: i}
	}
	return out
}

// Row is a view of one data row.
type Row struct {
	t *Table
	i int
}

// Index is the zero-based data row position.
func (r Row) Index() int { return r.i }

// Line is the line number of the row in its source file.
func (r Row) Line() int { return r.t.lines[r.i] }

// Table returns the table the row belongs to.
func (r Row) Table() *Table { return r.t }

// String returns the cell value, or "" when the column is absent or the cell missing.
func (r Row) String(col string) string {
	idx, ok := r.t.index[col]
	if !ok {
		return ""
	}
	return r.t.rows[r.i][idx]
}

// Lookup returns the cell value and whether it is present and non-missing.
func (r Row) Lookup(col string) (string, bool) {
	v := r.String(col)
	return v, v != ""
}

// Missing reports whether the cell is absent or empty.
func (r Row) Missing(col string) bool {
	_, ok := r.Lookup(col)
	return !ok
}

// Float parses the cell as a number.
func (r Row) Float(col string) (float64, bool) {
	v, ok := r.Lookup(col)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Values returns the row as a column-to-value map, skipping missing cells.
func (r Row) Values() map[string]string {
	out := make(map[string]string, len(r.t.columns))
	for _, c := range r.t.columns {
		if v, ok := r.Lookup(c); ok {
			out[c] = v
		}
	}
	return out
}

// Set maps logical table names to tables.
type Set map[string]*Table

// Get returns the named table and whether it is present.
func (s Set) Get(name string) (*Table, bool) {
	t, ok := s[name]
	return t, ok && t != nil
}

// Add stores t under its name.
func (s Set) Add(t *Table) { s[t.Name()] = t }

// Names returns the table names in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
