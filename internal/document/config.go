package document

import (
	"time"

	"pricescope/pkg/contracts/domain"
)

// Layout constants in points
const (
	PointsPerInch   = 72.0
	DefaultMargin   = 0.5 * PointsPerInch
	LogoWidth       = 150.0
	LogoHeight      = 75.0
	StatsLabelWidth = 250.0
	StatsValueWidth = 200.0
	PreviewColWidth = 80.0
)

// DefaultPriceBand is the half-width of the preview price range
const DefaultPriceBand = 50000.0

// Default preview sizes: the document shows 10 rows, the summary view 50
const (
	DefaultPreviewLimit = 10
	SummaryPreviewLimit = 50
)

// PriceRangeColumn is the derived preview column
const PriceRangeColumn = "predicted_price_range"

// DefaultPreviewColumns is the display allowlist in priority order
var DefaultPreviewColumns = []string{
	domain.FieldSubCounty,
	domain.FieldNeighborhood,
	domain.FieldSqMtrs,
	domain.FieldBedrooms,
	domain.FieldBathrooms,
	domain.FieldPredictedPrice,
}

const (
	defaultTitle = "PREDICTION REPORT"
	defaultIntro = "This report provides an overview of predicted housing prices from your recent queries. " +
		"It includes summary statistics and a preview of the predictions."
	defaultDisclaimer = "These predictions are generated by a statistical model and should be used for informational purposes only. " +
		"They are estimates and may not reflect actual market prices. Use additional sources when making financial decisions."
	defaultCopyrightHolder = "Kelvin Njuguna"
)

// Config controls document content and layout
type Config struct {
	PageSize        string
	Margin          float64
	PreviewLimit    int
	PriceBand       float64
	PriceColumn     string
	PreviewColumns  []string
	LogoPath        string
	Title           string
	Intro           string
	Disclaimer      string
	CopyrightHolder string

	// Compress deflates page content streams
	Compress bool

	// Clock supplies the generation timestamp
	Clock func() time.Time
}

// DefaultConfig returns the US Letter layout with half-inch margins
func DefaultConfig() Config {
	return Config{
		PageSize:        "Letter",
		Margin:          DefaultMargin,
		PreviewLimit:    DefaultPreviewLimit,
		PriceBand:       DefaultPriceBand,
		PriceColumn:     domain.FieldPredictedPrice,
		PreviewColumns:  DefaultPreviewColumns,
		Title:           defaultTitle,
		Intro:           defaultIntro,
		Disclaimer:      defaultDisclaimer,
		CopyrightHolder: defaultCopyrightHolder,
		Compress:        true,
		Clock:           time.Now,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageSize == "" {
		c.PageSize = d.PageSize
	}
	if c.Margin <= 0 {
		c.Margin = d.Margin
	}
	if c.PreviewLimit <= 0 {
		c.PreviewLimit = d.PreviewLimit
	}
	if c.PriceBand <= 0 {
		c.PriceBand = d.PriceBand
	}
	if c.PriceColumn == "" {
		c.PriceColumn = d.PriceColumn
	}
	if len(c.PreviewColumns) == 0 {
		c.PreviewColumns = d.PreviewColumns
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Intro == "" {
		c.Intro = d.Intro
	}
	if c.Disclaimer == "" {
		c.Disclaimer = d.Disclaimer
	}
	if c.CopyrightHolder == "" {
		c.CopyrightHolder = d.CopyrightHolder
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	return c
}
