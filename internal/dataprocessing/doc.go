// Package dataprocessing turns a user's raw prediction records into the
// typed table every report artifact is built from.
//
// # Components
//
//  1. Normalizer: coerces a domain.RecordSet into a RecordTable
//  2. Filter engine: ApplyFilters narrows a table by facet selections
//  3. Summarizer: Summarize derives mean/min/max/stddev over a numeric column
//
// # Usage
//
//	set, err := dataprocessing.DecodeRecords(r)
//	if err != nil {
//	    return err // *errors.AppError of type INPUT
//	}
//
//	normalizer := dataprocessing.NewNormalizer(logger, dataprocessing.DefaultNormalizeOptions())
//	table, err := normalizer.Normalize(set)
//	if err != nil {
//	    return err
//	}
//
//	filtered := dataprocessing.ApplyFilters(table, dataprocessing.FilterSpec{
//	    "neighborhood": {"Karen", "Lavington"},
//	})
//	stats := dataprocessing.Summarize(filtered, "predicted_price")
//	fmt.Println(stats.Display().Average) // "250,000"
//
// # Data Flow
//
//	RecordSet → Normalizer → RecordTable → ApplyFilters → {Summarize, exporter, document}
//
// # Missing values
//
// Cells that cannot be interpreted become Missing instead of failing. A
// numeric column never holds anything but finite numbers and Missing, so
// aggregation cannot be broken by a stray string. Missing cells never match a
// filter and export as empty fields.
//
// Tables are never modified after construction, so one table may be shared by
// concurrent exporters without locking.
package dataprocessing
