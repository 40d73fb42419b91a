// Command report generates the prediction report artifacts for one user
// from the configured record source or a JSON export.
//
//	report -records predictions.json -user u-1 -name "Jane" -email jane@example.com \
//	       -filter neighborhood=Kileleshwa,Karen -out output -xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"pricescope/internal/app"
	"pricescope/internal/config"
	"pricescope/internal/dataprocessing"
	"pricescope/internal/exporter"
	"pricescope/internal/infrastructure"
	"pricescope/internal/services"
	"pricescope/internal/storage"
	"pricescope/pkg/contracts"
	"pricescope/pkg/contracts/domain"
)

// filterFlag collects repeated -filter col=a,b values
type filterFlag dataprocessing.FilterSpec

func (f filterFlag) String() string {
	parts := make([]string, 0, len(f))
	for col, values := range f {
		parts = append(parts, col+"="+strings.Join(values, ","))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func (f filterFlag) Set(s string) error {
	col, values, ok := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return fmt.Errorf("filter %q must have the form column=value[,value...]", s)
	}
	for _, v := range strings.Split(values, ",") {
		if v = strings.TrimSpace(v); v != "" {
			f[col] = append(f[col], v)
		}
	}
	return nil
}

type options struct {
	records string
	user    string
	name    string
	email   string
	column  string
	out     string
	xlsx    bool
	preview int
	filters filterFlag
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	opts := options{filters: filterFlag{}}
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.records, "records", "", "JSON file of prediction records (defaults to the configured store)")
	fs.StringVar(&opts.user, "user", "", "user id whose predictions are reported")
	fs.StringVar(&opts.name, "name", "", "name printed on the report")
	fs.StringVar(&opts.email, "email", "", "email printed on the report")
	fs.StringVar(&opts.column, "column", "", "numeric column to summarize (defaults to predicted_price)")
	fs.Var(opts.filters, "filter", "keep rows whose column is one of the values: column=a,b (repeatable)")
	fs.StringVar(&opts.out, "out", "", "output directory (defaults to the configured output_dir)")
	fs.BoolVar(&opts.xlsx, "xlsx", false, "also write predictions.xlsx")
	fs.IntVar(&opts.preview, "preview", 0, "rows shown in the PDF preview table")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.preview < 0 {
		return opts, fmt.Errorf("-preview must not be negative")
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := infrastructure.NewLogger(cfg.Logging.Level, os.Stderr)

	if err := run(ctx, cfg, opts, os.Stdout, logger); err != nil {
		infrastructure.WithError(logger, err).Error("Report generation failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer, logger *slog.Logger) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	logger = infrastructure.WithComponent(logger, "report_cli").
		With(slog.String("trace_id", infrastructure.GetTraceID(ctx)))

	store := app.StoreOptions(cfg.Store)
	if opts.records != "" {
		store = storage.Options{Driver: storage.DriverJSON, DSN: opts.records}
	}
	outDir := opts.out
	if outDir == "" {
		outDir = cfg.Report.OutputDir
	}

	source, err := storage.Open(ctx, store, logger)
	if err != nil {
		return fmt.Errorf("open record source: %w", err)
	}
	defer source.Close()

	reportOpts := app.ReportOptions(cfg.Report)
	reportOpts.IncludeXLSX = reportOpts.IncludeXLSX || opts.xlsx
	if opts.preview > 0 {
		reportOpts.Document.PreviewLimit = opts.preview
	}
	svc := services.NewReportService(source, nil, reportOpts, nil, nil, logger)

	req := services.ReportRequest{
		Identity: domain.Identity{UserID: opts.user, Name: opts.name, Email: opts.email},
		Filters:  dataprocessing.FilterSpec(opts.filters),
		Column:   opts.column,
	}

	var result *services.ReportResult
	if opts.user == "" {
		set, err := source.Fetch(ctx, "")
		if err != nil {
			return fmt.Errorf("fetch records: %w", err)
		}
		result, err = svc.Generate(ctx, set, req)
		if err != nil {
			return err
		}
	} else {
		result, err = svc.GenerateForUser(ctx, req)
		if err != nil {
			return err
		}
	}
	if result.TotalRows == 0 {
		return fmt.Errorf("no prediction data found for user %q", opts.user)
	}

	printSummary(stdout, result)

	writer := exporter.NewArtifactWriter(outDir, logger)
	fmt.Fprintf(stdout, "Artifacts in %s:\n", writer.Dir())
	formats := make([]string, 0, len(result.Artifacts))
	for format := range result.Artifacts {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	for _, format := range formats {
		a := result.Artifacts[format]
		path, err := writer.Write(a)
		if err != nil {
			return fmt.Errorf("write %s: %w", a.Name, err)
		}
		fmt.Fprintf(stdout, "  %-40s %10s\n", path, exporter.FormatSize(a.Size()))
	}

	if len(result.Failures) > 0 {
		failed := make([]error, 0, len(result.Failures))
		for format, err := range result.Failures {
			failed = append(failed, fmt.Errorf("%s: %w", format, err))
		}
		return errors.Join(failed...)
	}
	return nil
}

func printSummary(w io.Writer, result *services.ReportResult) {
	fmt.Fprintln(w, contracts.GetVersionString())
	fmt.Fprintf(w, "Report for %s (%s)\n", result.Identity.DisplayName(), result.Identity.UserID)
	fmt.Fprintf(w, "  rows:     %d of %d\n", result.Rows, result.TotalRows)
	fmt.Fprintf(w, "  average:  %s\n", result.Display.Average)
	fmt.Fprintf(w, "  minimum:  %s\n", result.Display.Minimum)
	fmt.Fprintf(w, "  maximum:  %s\n", result.Display.Maximum)
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  warning:  %s\n", warn.Message)
	}
}
