package dataprocessing

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// DefaultFacetSelection is how many facet values are pre-selected
const DefaultFacetSelection = 5

// FilterSpec maps a column to its accepted values. A column with an empty
// accepted set is unconstrained.
type FilterSpec map[string][]string

// Active returns the columns that carry a non-empty accepted set, sorted
func (f FilterSpec) Active() []string {
	cols := make([]string, 0, len(f))
	for c, accepted := range f {
		if len(accepted) > 0 {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return cols
}

type constraint struct {
	column   string
	accepted map[string]struct{}
}

// ApplyFilters returns the rows of table that satisfy every non-empty
// constraint in spec, in their original order. Values compare by their
// exported string form after NFC normalization; Missing never matches. A
// constrained column the table does not have matches no rows.
func ApplyFilters(table *RecordTable, spec FilterSpec) *RecordTable {
	if table == nil {
		return nil
	}

	var constraints []constraint
	for _, column := range spec.Active() {
		if !table.HasColumn(column) {
			return table.derive([][]Value{})
		}
		accepted := make(map[string]struct{}, len(spec[column]))
		for _, v := range spec[column] {
			accepted[norm.NFC.String(v)] = struct{}{}
		}
		constraints = append(constraints, constraint{column: column, accepted: accepted})
	}

	if len(constraints) == 0 {
		return table.derive(table.rows)
	}

	kept := make([][]Value, 0, len(table.rows))
	for _, row := range table.rows {
		if matches(table, row, constraints) {
			kept = append(kept, row)
		}
	}
	return table.derive(kept)
}

func matches(table *RecordTable, row []Value, constraints []constraint) bool {
	for _, c := range constraints {
		v := row[table.index[c.column]]
		if v.IsMissing() {
			return false
		}
		if _, ok := c.accepted[norm.NFC.String(v.String())]; !ok {
			return false
		}
	}
	return true
}

// FacetValues returns the sorted distinct non-missing values of column,
// the options a filter control offers.
func FacetValues(table *RecordTable, column string) []string {
	if table == nil || !table.HasColumn(column) {
		return []string{}
	}

	seen := make(map[string]bool)
	values := make([]string, 0)
	for i := range table.rows {
		v := table.Value(i, column)
		if v.IsMissing() {
			continue
		}
		s := norm.NFC.String(v.String())
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values
}

// DefaultSelection returns the first n facet values (n <= 0 means
// DefaultFacetSelection).
func DefaultSelection(values []string, n int) []string {
	if n <= 0 {
		n = DefaultFacetSelection
	}
	if len(values) < n {
		n = len(values)
	}
	return append([]string(nil), values[:n]...)
}
