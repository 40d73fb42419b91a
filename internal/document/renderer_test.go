package document

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"pricescope/internal/dataprocessing"
	apperrors "pricescope/internal/errors"
	"pricescope/internal/shared/testutil"
	"pricescope/pkg/contracts/domain"
)

var testIdentity = domain.Identity{UserID: "u-1", Name: "Jane Doe", Email: "jane@example.com"}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		img.Set(x, 5, color.RGBA{R: 200, A: 255})
	}
	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func renderSample(t *testing.T, r *Renderer, table *dataprocessing.RecordTable) ([]byte, []*apperrors.AppError) {
	t.Helper()
	stats := dataprocessing.Summarize(table, domain.FieldPredictedPrice)
	data, warnings, err := r.Render(table, stats, testIdentity)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	return data, warnings
}

func TestStage_Transitions(t *testing.T) {
	var em emission
	require.NoError(t, em.advance(StageCover))
	assert.Error(t, em.advance(StagePreview), "skipping STATS")
	require.NoError(t, em.advance(StageStats))
	require.NoError(t, em.advance(StagePreview))
	require.NoError(t, em.advance(StageNotes))
	require.NoError(t, em.advance(StageDone))
	assert.Error(t, em.advance(StageCover), "DONE is terminal")

	assert.Equal(t, "PREVIEW", StagePreview.String())
	assert.Equal(t, "Stage(9)", Stage(9).String())
}

func TestRenderer_Render(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	r := NewRenderer(testConfig(), logger)

	data, warnings := renderSample(t, r, normalize(t, testutil.SampleRecordSet()))
	assert.Empty(t, warnings)

	pdf := string(data)
	assert.Contains(t, pdf, "PREDICTION REPORT")
	assert.Contains(t, pdf, "Jane Doe")
	assert.Contains(t, pdf, "2025-01-15 09:30:00")
	assert.Contains(t, pdf, "Summary Statistics")
	assert.Contains(t, pdf, "(200,000)")
	assert.Contains(t, pdf, `Predictions Preview \(first 10 rows\)`)
	assert.Contains(t, pdf, "(Kileleshwa)")
	assert.Contains(t, pdf, "(50,000 - 150,000)")
	assert.Contains(t, pdf, "Page 1 of 1")
	assert.Contains(t, pdf, "All rights reserved.")
	assert.NotContains(t, pdf, NoDataNotice)

	var stages []string
	for _, rec := range logs.GetRecordsByComponent("renderer") {
		if rec.Message == "section emitted" {
			stages = append(stages, rec.Attrs["stage"].(string))
		}
	}
	assert.Equal(t, []string{"COVER", "STATS", "PREVIEW", "NOTES"}, stages)
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "document rendered")
}

func TestRenderer_EmptyTable(t *testing.T) {
	r := NewRenderer(testConfig(), nil)

	tables := map[string]*dataprocessing.RecordTable{
		"no records": normalize(t, domain.RecordSet{}),
		"filtered to nothing": dataprocessing.ApplyFilters(
			normalize(t, testutil.SampleRecordSet()),
			dataprocessing.FilterSpec{"neighborhood": {"Nowhere"}}),
		"nil": nil,
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			data, _ := renderSample(t, r, table)
			pdf := string(data)

			assert.Contains(t, pdf, "("+NoDataNotice+")")
			assert.Equal(t, 4, strings.Count(pdf, "(N/A)"))
			assert.Contains(t, pdf, "Notes")
		})
	}
}

func TestRenderer_Pagination(t *testing.T) {
	cfg := testConfig()
	cfg.PreviewLimit = 60
	r := NewRenderer(cfg, nil)

	data, warnings := renderSample(t, r, normalize(t, domain.RecordSet{Records: testutil.GeneratePredictions(60)}))
	assert.Empty(t, warnings)

	pdf := string(data)
	assert.Contains(t, pdf, "Page 2 of")
	assert.GreaterOrEqual(t, strings.Count(pdf, "(predicted_price_range)"), 2, "header repeats on every page")
	assert.Contains(t, pdf, "(Area 59)")
}

func TestRenderer_Logo(t *testing.T) {
	tests := []struct {
		name     string
		logoPath func(t *testing.T) string
		warnings int
	}{
		{name: "no logo configured", logoPath: func(*testing.T) string { return "" }, warnings: 0},
		{name: "valid png", logoPath: writePNG, warnings: 0},
		{
			name:     "missing file",
			logoPath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.png") },
			warnings: 1,
		},
		{
			name: "not an image",
			logoPath: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "logo.png")
				require.NoError(t, os.WriteFile(path, []byte("definitely not a png"), 0644))
				return path
			},
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.LogoPath = tt.logoPath(t)
			r := NewRenderer(cfg, nil)

			data, warnings := renderSample(t, r, normalize(t, testutil.SampleRecordSet()))
			require.Len(t, warnings, tt.warnings)
			for _, w := range warnings {
				assert.True(t, apperrors.IsRenderDegraded(w))
				assert.Equal(t, cfg.LogoPath, w.Context["logo"])
			}
			assert.Contains(t, string(data), "PREDICTION REPORT")
		})
	}
}

func TestRenderer_UnrepresentableCell(t *testing.T) {
	set := testutil.SampleRecordSet()
	set.Records[0]["neighborhood"] = "西湖区"

	r := NewRenderer(testConfig(), nil)
	data, warnings := renderSample(t, r, normalize(t, set))

	require.Len(t, warnings, 1)
	assert.True(t, apperrors.IsRenderDegraded(warnings[0]))
	assert.Equal(t, "0:neighborhood", warnings[0].Context["cell"])
	assert.Contains(t, string(data), "("+CellPlaceholder+")")
}

func TestRenderJob_PriceCell(t *testing.T) {
	job := &renderJob{logger: slog.Default(), enc: charmap.Windows1252.NewEncoder()}

	assert.Equal(t, "120,000", job.cell(0, "predicted_price", dataprocessing.Number(120000), "predicted_price"))
	assert.Equal(t, "Karen", job.cell(0, "neighborhood", dataprocessing.String("Karen"), "neighborhood"))
	assert.Equal(t, "", job.cell(0, "predicted_price", dataprocessing.Missing, "predicted_price"))
	assert.Empty(t, job.warnings)
}

func TestRenderer_UnrepresentableName(t *testing.T) {
	r := NewRenderer(testConfig(), nil)
	identity := domain.Identity{Name: "Zoë 李", Email: "z@example.com"}

	data, warnings, err := r.Render(nil, dataprocessing.StatsSummary{}, identity)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "name", warnings[0].Context["field"])
	assert.Contains(t, string(data), "Zo\xeb ?")
}

func TestRenderer_SectionFailure(t *testing.T) {
	tests := []struct {
		name string
		hook func(Stage) error
	}{
		{
			name: "error",
			hook: func(s Stage) error {
				if s == StageStats {
					return errors.New("stats table exploded")
				}
				return nil
			},
		},
		{
			name: "panic",
			hook: func(s Stage) error {
				if s == StageStats {
					panic("malformed value")
				}
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			r := NewRenderer(testConfig(), logger)
			r.sectionHook = tt.hook

			data, warnings := renderSample(t, r, normalize(t, testutil.SampleRecordSet()))

			require.Len(t, warnings, 1)
			assert.True(t, apperrors.IsRenderDegraded(warnings[0]))
			assert.Equal(t, "STATS", warnings[0].Context["section"])

			pdf := string(data)
			assert.Contains(t, pdf, "[stats section could not be rendered]")
			assert.NotContains(t, pdf, "Summary Statistics")
			assert.Contains(t, pdf, "Predictions Preview")
			assert.Contains(t, pdf, "All rights reserved.")
			testutil.AssertLogContains(t, logs, slog.LevelWarn, "STATS section replaced by placeholder")
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("destination closed") }

func TestRenderer_DocumentBuildError(t *testing.T) {
	table := normalize(t, testutil.SampleRecordSet())
	stats := dataprocessing.Summarize(table, domain.FieldPredictedPrice)

	t.Run("writer fails", func(t *testing.T) {
		r := NewRenderer(testConfig(), nil)
		_, err := r.RenderTo(failingWriter{}, table, stats, testIdentity)
		require.Error(t, err)
		assert.True(t, apperrors.IsDocumentBuildError(err))
	})

	t.Run("no destination", func(t *testing.T) {
		r := NewRenderer(testConfig(), nil)
		_, err := r.RenderTo(nil, table, stats, testIdentity)
		assert.True(t, apperrors.IsDocumentBuildError(err))
	})

	t.Run("unknown page size", func(t *testing.T) {
		cfg := testConfig()
		cfg.PageSize = "Napkin"
		r := NewRenderer(cfg, nil)
		data, _, err := r.Render(table, stats, testIdentity)
		assert.Nil(t, data)
		assert.True(t, apperrors.IsDocumentBuildError(err))
	})
}

func TestRenderer_Deterministic(t *testing.T) {
	table := normalize(t, testutil.SampleRecordSet())
	r := NewRenderer(testConfig(), nil)

	first, _ := renderSample(t, r, table)
	second, _ := renderSample(t, r, table)
	assert.Equal(t, first, second)
}

func TestRenderer_Compressed(t *testing.T) {
	cfg := testConfig()
	cfg.Compress = true
	r := NewRenderer(cfg, nil)

	data, _ := renderSample(t, r, normalize(t, testutil.SampleRecordSet()))
	assert.NotContains(t, string(data), "Kileleshwa")
	assert.Contains(t, string(data), "FlateDecode")
}
