// Package services orchestrates report generation.
//
// ReportService fetches a user's records, normalizes and filters them,
// computes statistics and then builds the CSV, PDF and optional XLSX
// artifacts in parallel. A failing artifact never blocks the others: it is
// reported in ReportResult.Failures and counted in
// report_artifact_failures_total.
package services
