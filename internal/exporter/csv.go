package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"pricescope/internal/dataprocessing"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DelimitedOptions configures delimited text output
type DelimitedOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for spreadsheet compatibility
	Comma     rune
}

// DelimitedOption mutates DelimitedOptions
type DelimitedOption func(*DelimitedOptions)

// WithBOM prefixes the output with a UTF-8 byte order mark
func WithBOM() DelimitedOption {
	return func(o *DelimitedOptions) { o.BOMPrefix = true }
}

// WithComma sets the field delimiter (default ',')
func WithComma(r rune) DelimitedOption {
	return func(o *DelimitedOptions) { o.Comma = r }
}

// ToDelimited serializes table as UTF-8 comma-separated text: a header row in
// schema order, then one row per record. Missing cells are empty fields.
func ToDelimited(table *dataprocessing.RecordTable, opts ...DelimitedOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDelimited(&buf, table, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDelimited streams the delimited form of table to w
func WriteDelimited(w io.Writer, table *dataprocessing.RecordTable, opts ...DelimitedOption) error {
	options := DelimitedOptions{Comma: ','}
	for _, opt := range opts {
		opt(&options)
	}

	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	writer.Comma = options.Comma

	if table == nil {
		writer.Flush()
		return writer.Error()
	}

	columns := table.Columns()
	if len(columns) > 0 {
		if err := writer.Write(columns); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	record := make([]string, len(columns))
	for i := 0; i < table.Len(); i++ {
		for c, name := range columns {
			record[c] = cellString(table.Value(i, name))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
