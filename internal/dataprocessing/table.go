package dataprocessing

import (
	"strconv"

	"pricescope/internal/errors"
)

// ValueKind identifies what a table cell holds
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindNumber
	KindString
	KindBool
)

// Value is a single normalized cell. The zero Value is Missing.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	b    bool
}

// Missing is the sentinel for absent or uncoercible cells
var Missing = Value{}

// Number returns a numeric cell
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// String returns a text cell
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool returns a boolean cell
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the cell kind
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether the cell is the Missing sentinel
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric value and true for number cells
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String renders the cell the way it appears in exports: numbers in shortest
// round-trip form, bools as true/false, Missing as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Interface returns the cell as a plain Go value (float64, string, bool or nil)
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// RecordTable is an ordered, schema-consistent view of a record set. A table
// is never modified after construction; every transformation returns a new
// table that may share row storage with its input.
type RecordTable struct {
	columns  []string
	index    map[string]int
	rows     [][]Value
	numeric  map[string]bool
	warnings []*errors.AppError
}

func newTable(columns []string, numeric map[string]bool) *RecordTable {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &RecordTable{
		columns: columns,
		index:   index,
		numeric: numeric,
	}
}

// NewRecordTable builds a table from already-normalized rows. Each row must
// have exactly one cell per column; short rows are padded with Missing.
func NewRecordTable(columns []string, rows [][]Value) *RecordTable {
	cols := append([]string(nil), columns...)
	t := newTable(cols, map[string]bool{})
	t.rows = make([][]Value, len(rows))
	for i, r := range rows {
		row := make([]Value, len(cols))
		copy(row, r)
		t.rows[i] = row
	}
	return t
}

// Columns returns the schema in first-seen order
func (t *RecordTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows
func (t *RecordTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether column is part of the schema
func (t *RecordTable) HasColumn(column string) bool {
	_, ok := t.index[column]
	return ok
}

// IsNumeric reports whether column was coerced as numeric
func (t *RecordTable) IsNumeric(column string) bool {
	return t.numeric[column]
}

// Value returns the cell at row i for column, Missing when the column is
// unknown or i is out of range.
func (t *RecordTable) Value(i int, column string) Value {
	c, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return Missing
	}
	return t.rows[i][c]
}

// Row returns a copy of row i keyed by column name
func (t *RecordTable) Row(i int) map[string]Value {
	out := make(map[string]Value, len(t.columns))
	for c, name := range t.columns {
		out[name] = t.rows[i][c]
	}
	return out
}

// Warnings returns the non-fatal conditions raised while building the table
func (t *RecordTable) Warnings() []*errors.AppError {
	return append([]*errors.AppError(nil), t.warnings...)
}

// derive returns a table with the same schema over a subset of rows
func (t *RecordTable) derive(rows [][]Value) *RecordTable {
	return &RecordTable{
		columns:  t.columns,
		index:    t.index,
		rows:     rows,
		numeric:  t.numeric,
		warnings: t.warnings,
	}
}
