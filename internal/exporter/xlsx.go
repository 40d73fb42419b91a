package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pricescope/internal/dataprocessing"
)

// SheetName is the worksheet the workbook export writes to
const SheetName = "Predictions"

// ToXLSX serializes table as a single-sheet workbook. The header row is
// bold, numeric cells are stored as numbers and Missing cells are blank.
func ToXLSX(table *dataprocessing.RecordTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9D9D9"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}

	var columns []string
	if table != nil {
		columns = table.Columns()
	}

	if len(columns) > 0 {
		if err := sw.SetColWidth(1, len(columns), 18); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}

		header := make([]interface{}, len(columns))
		for c, name := range columns {
			header[c] = excelize.Cell{StyleID: headerStyle, Value: name}
		}
		if err := sw.SetRow("A1", header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := 0; i < table.Len(); i++ {
		row := make([]interface{}, len(columns))
		for c, name := range columns {
			if v := cellValue(table.Value(i, name)); v != nil {
				row[c] = v
			} else {
				row[c] = ""
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush worksheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
