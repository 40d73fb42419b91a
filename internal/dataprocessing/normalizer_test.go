package dataprocessing

import (
	"encoding/json"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescope/internal/errors"
	"pricescope/internal/shared/testutil"
	"pricescope/pkg/contracts/domain"
)

func TestNormalizer_EmptyInput(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	n := NewNormalizer(logger, DefaultNormalizeOptions())

	table, err := n.Normalize(domain.RecordSet{})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Columns())
	assert.Empty(t, table.Warnings())
	testutil.AssertNoErrors(t, logs)
}

func TestNormalizer_SchemaOrder(t *testing.T) {
	tests := []struct {
		name string
		set  domain.RecordSet
		want []string
	}{
		{
			name: "fields hint",
			set: domain.RecordSet{
				Fields:  []string{"predicted_price", "neighborhood"},
				Records: []domain.PredictionRecord{{"neighborhood": "A", "predicted_price": 1.0}},
			},
			want: []string{"predicted_price", "neighborhood"},
		},
		{
			name: "lexical without hint",
			set: domain.RecordSet{
				Records: []domain.PredictionRecord{{"neighborhood": "A", "bedrooms": 2.0, "predicted_price": 1.0}},
			},
			want: []string{"bedrooms", "neighborhood", "predicted_price"},
		},
		{
			name: "union in first-seen order",
			set: domain.RecordSet{
				Fields: []string{"predicted_price"},
				Records: []domain.PredictionRecord{
					{"predicted_price": 1.0},
					{"predicted_price": 2.0, "sub_county": "X"},
					{"extra": true, "neighborhood": "B"},
				},
			},
			want: []string{"predicted_price", "sub_county", "extra", "neighborhood"},
		},
		{
			name: "hinted keys before unhinted",
			set: domain.RecordSet{
				Fields:  []string{"zeta"},
				Records: []domain.PredictionRecord{{"alpha": 1.0, "zeta": 2.0, "predicted_price": 3.0}},
			},
			want: []string{"zeta", "alpha", "predicted_price"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(nil, DefaultNormalizeOptions())
			table, err := n.Normalize(tt.set)
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Columns())
		})
	}
}

func TestNormalizer_NumericCoercion(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    float64
		missing bool
	}{
		{name: "float64", raw: 100000.0, want: 100000},
		{name: "int", raw: 42, want: 42},
		{name: "int64", raw: int64(7), want: 7},
		{name: "uint8", raw: uint8(3), want: 3},
		{name: "float32", raw: float32(2.5), want: 2.5},
		{name: "json number", raw: json.Number("125000.5"), want: 125000.5},
		{name: "numeric string", raw: "  250000 ", want: 250000},
		{name: "bytes", raw: []byte("12"), want: 12},
		{name: "non numeric string", raw: "abc", missing: true},
		{name: "empty string", raw: "", missing: true},
		{name: "grouped string", raw: "1,000", missing: true},
		{name: "nil", raw: nil, missing: true},
		{name: "bool", raw: true, missing: true},
		{name: "nan", raw: math.NaN(), missing: true},
		{name: "inf", raw: math.Inf(1), missing: true},
		{name: "nan string", raw: "NaN", missing: true},
		{name: "nested", raw: map[string]interface{}{"a": 1}, missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(nil, DefaultNormalizeOptions())
			table, err := n.Normalize(domain.RecordSet{
				Records: []domain.PredictionRecord{{"predicted_price": tt.raw}},
			})
			require.NoError(t, err)

			v := table.Value(0, "predicted_price")
			if tt.missing {
				assert.True(t, v.IsMissing())
				return
			}
			f, ok := v.Float()
			require.True(t, ok)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestNormalizer_PreservesOtherFields(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := NewNormalizer(nil, DefaultNormalizeOptions())

	table, err := n.Normalize(domain.RecordSet{
		Records: []domain.PredictionRecord{{
			"predicted_price": 1.0,
			"neighborhood":    "Karen",
			"bedrooms":        3.0,
			"furnished":       false,
			"created_at":      created,
			"tags":            []interface{}{"a"},
			"note":            nil,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, String("Karen"), table.Value(0, "neighborhood"))
	assert.Equal(t, Number(3), table.Value(0, "bedrooms"))
	assert.Equal(t, Bool(false), table.Value(0, "furnished"))
	assert.Equal(t, "2024-03-01T12:00:00Z", table.Value(0, "created_at").String())
	assert.True(t, table.Value(0, "tags").IsMissing())
	assert.True(t, table.Value(0, "note").IsMissing())
	assert.True(t, table.HasColumn("note"))
	assert.True(t, table.IsNumeric("predicted_price"))
	assert.False(t, table.IsNumeric("bedrooms"))
}

func TestNormalizer_NeverFailsOnMalformedValues(t *testing.T) {
	records := testutil.GeneratePredictions(20)
	records[3]["predicted_price"] = "not a number"
	records[5]["predicted_price"] = map[string]interface{}{"nested": true}
	records[7]["bedrooms"] = []interface{}{1, 2}
	records[9] = domain.PredictionRecord{}

	n := NewNormalizer(nil, DefaultNormalizeOptions())
	table, err := n.Normalize(domain.RecordSet{Records: records})
	require.NoError(t, err)
	assert.Equal(t, 20, table.Len())

	for i := 0; i < table.Len(); i++ {
		v := table.Value(i, "predicted_price")
		if !v.IsMissing() {
			f, ok := v.Float()
			require.True(t, ok)
			assert.False(t, math.IsNaN(f) || math.IsInf(f, 0))
		}
	}
	assert.True(t, table.Value(9, "neighborhood").IsMissing())
}

func TestNormalizer_MissingNumericColumn(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	n := NewNormalizer(logger, DefaultNormalizeOptions())

	table, err := n.Normalize(domain.RecordSet{
		Records: []domain.PredictionRecord{{"neighborhood": "A"}},
	})
	require.NoError(t, err)

	warnings := table.Warnings()
	require.Len(t, warnings, 1)
	assert.True(t, errors.IsSchemaWarning(warnings[0]))
	assert.Equal(t, "predicted_price", warnings[0].Context["column"])
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "expected numeric column missing")
	assert.Len(t, logs.GetRecordsByComponent("normalizer"), 2)

	stats := Summarize(table, "predicted_price")
	assert.False(t, stats.Mean.Defined)
	assert.False(t, stats.StdDev.Defined)
}

func TestNormalizer_MaxRecords(t *testing.T) {
	n := NewNormalizer(nil, NormalizeOptions{MaxRecords: 3})

	_, err := n.Normalize(domain.RecordSet{Records: testutil.GeneratePredictions(4)})
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))

	table, err := n.Normalize(domain.RecordSet{Records: testutil.GeneratePredictions(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestNormalizer_CustomNumericColumns(t *testing.T) {
	n := NewNormalizer(nil, NormalizeOptions{NumericColumns: []string{"predicted_price", "sq_mtrs"}})

	table, err := n.Normalize(domain.RecordSet{
		Records: []domain.PredictionRecord{{"predicted_price": "5", "sq_mtrs": "n/a"}},
	})
	require.NoError(t, err)

	assert.Equal(t, Number(5), table.Value(0, "predicted_price"))
	assert.True(t, table.Value(0, "sq_mtrs").IsMissing())
}

func TestNormalizer_ExtraNumericColumns(t *testing.T) {
	n := NewNormalizer(nil, DefaultNormalizeOptions())
	set := domain.RecordSet{
		Records: []domain.PredictionRecord{
			{"predicted_price": 1.0, "sq_mtrs": "120"},
			{"predicted_price": 2.0, "sq_mtrs": "80"},
			{"predicted_price": 3.0, "sq_mtrs": "unknown"},
		},
	}

	table, err := n.Normalize(set, "sq_mtrs", "absent")
	require.NoError(t, err)
	assert.Equal(t, Number(120), table.Value(0, "sq_mtrs"))
	assert.Equal(t, Number(80), table.Value(1, "sq_mtrs"))
	assert.True(t, table.Value(2, "sq_mtrs").IsMissing())
	assert.False(t, table.HasColumn("absent"))
	assert.Empty(t, table.Warnings())

	plain, err := n.Normalize(set)
	require.NoError(t, err)
	assert.Equal(t, String("120"), plain.Value(0, "sq_mtrs"))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "100000", Number(100000).String())
	assert.Equal(t, "2.5", Number(2.5).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "A", String("A").String())
	assert.Equal(t, "", Missing.String())
	assert.Nil(t, Missing.Interface())
}
