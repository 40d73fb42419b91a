package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"pricescope/internal/dataprocessing"
	"pricescope/internal/document"
	apperrors "pricescope/internal/errors"
	"pricescope/internal/exporter"
	"pricescope/internal/infrastructure"
	"pricescope/internal/storage"
	"pricescope/pkg/contracts/domain"
)

// Artifact formats
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// FacetColumns are the columns offered as filters
var FacetColumns = []string{domain.FieldNeighborhood, domain.FieldSubCounty}

// DocumentRenderer produces the PDF artifact
type DocumentRenderer interface {
	Render(table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, identity domain.Identity) ([]byte, []*apperrors.AppError, error)
}

// ReportRequest describes one report
type ReportRequest struct {
	Identity domain.Identity
	Filters  dataprocessing.FilterSpec
	// Column is the statistics column, predicted_price when empty
	Column string
	// Formats selects artifacts; empty means csv and pdf, plus xlsx when
	// the service is configured for it.
	Formats []string
	// PreviewLimit bounds ReportResult.Preview; zero or values above
	// SummaryPreviewLimit mean SummaryPreviewLimit
	PreviewLimit int
}

// Facet is the option list of one filter column
type Facet struct {
	Values   []string `json:"values"`
	Selected []string `json:"selected"`
}

// ReportResult is everything produced for one request. Artifacts that
// failed are absent from Artifacts and present in Failures.
type ReportResult struct {
	Identity  domain.Identity
	Summary   dataprocessing.StatsSummary
	Display   dataprocessing.DisplaySummary
	Columns   []string
	Preview   []map[string]interface{}
	TotalRows int
	Rows      int
	Facets    map[string]Facet
	Warnings  []*apperrors.AppError
	Artifacts map[string]exporter.Artifact
	Failures  map[string]error
}

// Artifact returns the produced artifact of format, or its failure
func (r *ReportResult) Artifact(format string) (exporter.Artifact, error) {
	if a, ok := r.Artifacts[format]; ok {
		return a, nil
	}
	if err, ok := r.Failures[format]; ok {
		return exporter.Artifact{}, err
	}
	return exporter.Artifact{}, fmt.Errorf("%w: %s not produced", ErrUnknownFormat, format)
}

// ReportOptions configures a ReportService
type ReportOptions struct {
	Normalize   dataprocessing.NormalizeOptions
	Document    document.Config
	IncludeXLSX bool
	CSVBOM      bool
}

// ReportService runs the report pipeline: fetch, normalize, filter,
// summarize, then produce artifacts concurrently.
type ReportService struct {
	source     storage.RecordSource
	normalizer *dataprocessing.Normalizer
	renderer   DocumentRenderer
	opts       ReportOptions
	tracer     trace.Tracer
	metrics    *infrastructure.ReportMetrics
	logger     *slog.Logger
}

// NewReportService creates the service. source may be nil when only
// Generate is used; nil tracer and metrics disable instrumentation.
func NewReportService(source storage.RecordSource, renderer DocumentRenderer, opts ReportOptions, tracer trace.Tracer, metrics *infrastructure.ReportMetrics, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	if metrics == nil {
		metrics = infrastructure.NoopReportMetrics()
	}
	if renderer == nil {
		renderer = document.NewRenderer(opts.Document, logger)
	}
	return &ReportService{
		source:     source,
		normalizer: dataprocessing.NewNormalizer(logger, opts.Normalize),
		renderer:   renderer,
		opts:       opts,
		tracer:     tracer,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "report_service")),
	}
}

// GenerateForUser fetches the records of req.Identity.UserID and runs Generate
func (s *ReportService) GenerateForUser(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	if s.source == nil {
		return nil, ErrNoRecordSource
	}
	if req.Identity.UserID == "" {
		return nil, apperrors.NewAppValidationError(ErrMissingUserID.Error())
	}

	set, err := s.source.Fetch(ctx, req.Identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return s.Generate(ctx, set, req)
}

// Generate runs the pipeline over an already fetched record set. Only input
// errors and cancellation fail the call; a failing artifact is reported in
// ReportResult.Failures while the others are still produced.
func (s *ReportService) Generate(ctx context.Context, set domain.RecordSet, req ReportRequest) (*ReportResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "report.generate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("report.user_id", req.Identity.UserID),
			attribute.Int("report.records", set.Len()),
			attribute.StringSlice("report.filters", req.Filters.Active()),
		),
	)
	defer span.End()

	formats, err := s.formats(req.Formats)
	if err != nil {
		s.finish(ctx, span, start, "failed", err)
		return nil, err
	}

	column := req.Column
	if column == "" {
		column = domain.FieldPredictedPrice
	}

	table, err := s.normalizer.Normalize(set, column)
	if err != nil {
		s.finish(ctx, span, start, "failed", err)
		return nil, err
	}
	s.metrics.RecordsProcessed.Add(ctx, int64(table.Len()))

	filtered := dataprocessing.ApplyFilters(table, req.Filters)
	stats := dataprocessing.Summarize(filtered, column)

	result := &ReportResult{
		Identity:  req.Identity,
		Summary:   stats,
		Display:   stats.Display(),
		Columns:   filtered.Columns(),
		TotalRows: table.Len(),
		Rows:      filtered.Len(),
		Facets:    facets(table),
		Warnings:  append([]*apperrors.AppError(nil), table.Warnings()...),
		Artifacts: make(map[string]exporter.Artifact),
		Failures:  make(map[string]error),
	}
	result.Preview = s.preview(filtered, stats, req)

	warnings, err := s.produce(ctx, filtered, stats, req.Identity, formats, result)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		s.finish(ctx, span, start, "failed", err)
		return nil, err
	}

	status := "success"
	if len(result.Failures) > 0 || len(result.Warnings) > 0 {
		status = "degraded"
	}
	s.finish(ctx, span, start, status, nil)

	s.logger.InfoContext(ctx, "report generated",
		slog.String("user_id", req.Identity.UserID),
		slog.Int("rows", result.Rows),
		slog.Int("total_rows", result.TotalRows),
		slog.Int("artifacts", len(result.Artifacts)),
		slog.Int("failures", len(result.Failures)),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// Summary runs the pipeline without producing artifacts
func (s *ReportService) Summary(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	req.Formats = []string{}
	return s.GenerateForUser(ctx, req)
}

func (s *ReportService) formats(requested []string) ([]string, error) {
	if requested == nil {
		formats := []string{FormatCSV, FormatPDF}
		if s.opts.IncludeXLSX {
			formats = append(formats, FormatXLSX)
		}
		return formats, nil
	}
	for _, f := range requested {
		switch f {
		case FormatCSV, FormatPDF, FormatXLSX:
		default:
			return nil, apperrors.NewInputError(fmt.Sprintf("%v: %q", ErrUnknownFormat, f), nil)
		}
	}
	return requested, nil
}

// produce builds the requested artifacts concurrently. Each goroutine owns
// one format; a failure is recorded for that format only. The returned
// error is set only when ctx ends first.
func (s *ReportService) produce(ctx context.Context, table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, identity domain.Identity, formats []string, result *ReportResult) ([]*apperrors.AppError, error) {
	var (
		mu       sync.Mutex
		warnings []*apperrors.AppError
		g        errgroup.Group
	)

	for _, format := range formats {
		format := format
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			artifact, warns, err := s.build(format, table, stats, identity)

			mu.Lock()
			defer mu.Unlock()
			warnings = append(warnings, warns...)
			if err != nil {
				result.Failures[format] = err
				s.metrics.ArtifactFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact", format)))
				infrastructure.RecordError(ctx, err)
				s.logger.ErrorContext(ctx, "artifact failed",
					slog.String("artifact", format),
					slog.String("error", err.Error()))
				return nil
			}
			result.Artifacts[format] = artifact
			infrastructure.AddSpanEvent(ctx, "artifact.ready", map[string]interface{}{
				"artifact": format,
				"bytes":    artifact.Size(),
			})
			return nil
		})
	}

	err := g.Wait()
	return warnings, err
}

func (s *ReportService) build(format string, table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, identity domain.Identity) (a exporter.Artifact, warnings []*apperrors.AppError, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewAppError(apperrors.ErrTypeInternal, fmt.Sprintf("%s artifact panicked: %v", format, r), nil)
		}
	}()

	switch format {
	case FormatCSV:
		var opts []exporter.DelimitedOption
		if s.opts.CSVBOM {
			opts = append(opts, exporter.WithBOM())
		}
		data, err := exporter.ToDelimited(table, opts...)
		if err != nil {
			return a, nil, fmt.Errorf("csv export: %w", err)
		}
		return exporter.Artifact{Name: exporter.FileCSV, ContentType: exporter.ContentTypeCSV, Data: data}, nil, nil

	case FormatXLSX:
		data, err := exporter.ToXLSX(table)
		if err != nil {
			return a, nil, fmt.Errorf("xlsx export: %w", err)
		}
		return exporter.Artifact{Name: exporter.FileXLSX, ContentType: exporter.ContentTypeXLSX, Data: data}, nil, nil

	case FormatPDF:
		data, warnings, err := s.renderer.Render(table, stats, identity)
		if err != nil {
			return a, warnings, err
		}
		return exporter.Artifact{Name: exporter.FilePDF, ContentType: exporter.ContentTypePDF, Data: data}, warnings, nil
	}
	return a, nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// preview returns the first rows of the filtered table as the document
// preview shows them, including the derived price range.
func (s *ReportService) preview(table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, req ReportRequest) []map[string]interface{} {
	limit := req.PreviewLimit
	if limit <= 0 || limit > document.SummaryPreviewLimit {
		limit = document.SummaryPreviewLimit
	}

	cfg := s.opts.Document
	cfg.PreviewLimit = limit
	section := document.BuildDocument(table, stats, req.Identity, cfg).Preview

	rows := make([]map[string]interface{}, 0, len(section.Rows))
	for _, r := range section.Rows {
		row := make(map[string]interface{}, len(section.Columns)+1)
		for i, col := range section.Columns {
			row[col] = r.Cells[i].Interface()
		}
		row[document.PriceRangeColumn] = r.Range.String()
		rows = append(rows, row)
	}
	return rows
}

func (s *ReportService) finish(ctx context.Context, span trace.Span, start time.Time, status string, err error) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	s.metrics.GenerationsTotal.Add(ctx, 1, attrs)
	s.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	span.SetAttributes(attribute.String("report.status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, status)
}

func facets(table *dataprocessing.RecordTable) map[string]Facet {
	out := make(map[string]Facet)
	for _, col := range FacetColumns {
		if !table.HasColumn(col) {
			continue
		}
		values := dataprocessing.FacetValues(table, col)
		out[col] = Facet{
			Values:   values,
			Selected: dataprocessing.DefaultSelection(values, dataprocessing.DefaultFacetSelection),
		}
	}
	return out
}
