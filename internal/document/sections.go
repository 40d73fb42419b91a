package document

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pricescope/internal/dataprocessing"
	"pricescope/pkg/contracts/domain"
)

// CoverSection is the first block of the report
type CoverSection struct {
	Title             string
	GeneratedForName  string
	GeneratedForEmail string
	GeneratedAt       time.Time
	Intro             string
	LogoPath          string
}

// Byline returns the "Generated for ..." sentence
func (c CoverSection) Byline() string {
	return fmt.Sprintf("Generated for %s (%s) on %s.",
		c.GeneratedForName, c.GeneratedForEmail, c.GeneratedAt.Format("2006-01-02 15:04:05"))
}

// StatRow is one label/value line of the statistics table
type StatRow struct {
	Label string
	Value string
}

// StatsSection renders a StatsSummary as a label/value table
type StatsSection struct {
	Summary dataprocessing.StatsSummary
}

// Rows returns the four formatted statistics
func (s StatsSection) Rows() []StatRow {
	subject := ColumnTitle(s.Summary.Column)
	return []StatRow{
		{Label: "Average " + subject + ":", Value: s.Summary.Mean.Display()},
		{Label: "Minimum " + subject + ":", Value: s.Summary.Min.Display()},
		{Label: "Maximum " + subject + ":", Value: s.Summary.Max.Display()},
		{Label: "Std Dev of " + subject + ":", Value: s.Summary.StdDev.Display()},
	}
}

// ColumnTitle turns a column name such as sq_mtrs into "Sq Mtrs". An empty
// name stands for predicted_price.
func ColumnTitle(column string) string {
	if column == "" {
		column = domain.FieldPredictedPrice
	}
	return cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
}

// PriceRange is the display band around a predicted price
type PriceRange struct {
	Low        float64
	High       float64
	Applicable bool
}

// NewPriceRange returns [price-band, price+band] with the low end floored at
// zero, or a not-applicable range when price is missing.
func NewPriceRange(price dataprocessing.Value, band float64) PriceRange {
	p, ok := price.Float()
	if !ok {
		return PriceRange{}
	}
	return PriceRange{
		Low:        math.Max(p-band, 0),
		High:       p + band,
		Applicable: true,
	}
}

// String formats the range as "50,000 - 150,000", or N/A
func (r PriceRange) String() string {
	if !r.Applicable {
		return dataprocessing.NotAvailable
	}
	return dataprocessing.FormatGrouped(r.Low) + " - " + dataprocessing.FormatGrouped(r.High)
}

// PreviewRow is one table record paired with its derived price range
type PreviewRow struct {
	Cells []dataprocessing.Value
	Range PriceRange
}

// PreviewSection holds the first MaxRows records of the filtered table
type PreviewSection struct {
	Columns     []string
	PriceColumn string
	Rows        []PreviewRow
	MaxRows     int
}

// Empty reports whether there are no rows to show
func (p PreviewSection) Empty() bool {
	return len(p.Rows) == 0
}

// Heading returns the section heading
func (p PreviewSection) Heading() string {
	return fmt.Sprintf("Predictions Preview (first %d rows)", p.MaxRows)
}

// Header returns the displayed columns followed by the derived range column
func (p PreviewSection) Header() []string {
	return append(append([]string(nil), p.Columns...), PriceRangeColumn)
}

// NotesSection is the closing disclaimer block
type NotesSection struct {
	Disclaimer string
	Copyright  string
}

// ReportDocument is the complete section model of one report
type ReportDocument struct {
	Cover   CoverSection
	Stats   StatsSection
	Preview PreviewSection
	Notes   NotesSection
}

// BuildDocument assembles the section model. It performs no I/O.
func BuildDocument(table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, identity domain.Identity, cfg Config) ReportDocument {
	cfg = cfg.withDefaults()
	now := cfg.Clock()

	return ReportDocument{
		Cover: CoverSection{
			Title:             cfg.Title,
			GeneratedForName:  identity.DisplayName(),
			GeneratedForEmail: identity.DisplayEmail(),
			GeneratedAt:       now,
			Intro:             cfg.Intro,
			LogoPath:          cfg.LogoPath,
		},
		Stats:   StatsSection{Summary: stats},
		Preview: buildPreview(table, cfg),
		Notes: NotesSection{
			Disclaimer: cfg.Disclaimer,
			Copyright:  fmt.Sprintf("© %d %s | All rights reserved.", now.Year(), cfg.CopyrightHolder),
		},
	}
}

func buildPreview(table *dataprocessing.RecordTable, cfg Config) PreviewSection {
	section := PreviewSection{
		PriceColumn: cfg.PriceColumn,
		MaxRows:     cfg.PreviewLimit,
		Rows:        []PreviewRow{},
	}
	if table == nil {
		return section
	}

	for _, c := range cfg.PreviewColumns {
		if table.HasColumn(c) {
			section.Columns = append(section.Columns, c)
		}
	}

	n := table.Len()
	if n > cfg.PreviewLimit {
		n = cfg.PreviewLimit
	}
	for i := 0; i < n; i++ {
		cells := make([]dataprocessing.Value, len(section.Columns))
		for c, name := range section.Columns {
			cells[c] = table.Value(i, name)
		}
		section.Rows = append(section.Rows, PreviewRow{
			Cells: cells,
			Range: NewPriceRange(table.Value(i, cfg.PriceColumn), cfg.PriceBand),
		})
	}
	return section
}
