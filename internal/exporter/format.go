package exporter

import (
	"github.com/dustin/go-humanize"

	"pricescope/internal/dataprocessing"
)

// cellString formats a cell for delimited output
func cellString(v dataprocessing.Value) string {
	return v.String()
}

// cellValue returns the typed value a workbook cell should hold, nil for
// Missing.
func cellValue(v dataprocessing.Value) interface{} {
	return v.Interface()
}

// FormatSize renders an artifact size for logs ("12 kB")
func FormatSize(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
