// Package exporter serializes a filtered RecordTable into downloadable files.
//
// ToDelimited produces the predictions.csv artifact: a header row in schema
// order followed by one row per record, with numbers in shortest round-trip
// form and Missing cells left empty. WithBOM adds a UTF-8 byte order mark for
// spreadsheet programs that need it.
//
// ToXLSX produces the same table as a workbook with typed numeric cells.
//
// ArtifactWriter stores produced artifacts in an output directory.
//
// Example usage:
//
//	data, err := exporter.ToDelimited(filtered)
//	if err != nil {
//	    return err
//	}
//
//	writer := exporter.NewArtifactWriter("out", logger)
//	path, err := writer.Write(exporter.Artifact{
//	    Name:        exporter.FileCSV,
//	    ContentType: exporter.ContentTypeCSV,
//	    Data:        data,
//	})
package exporter
