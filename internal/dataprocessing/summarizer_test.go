package dataprocessing

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescope/internal/shared/testutil"
	"pricescope/pkg/contracts/domain"
)

func TestSummarize_Scenario(t *testing.T) {
	stats := Summarize(scenarioTable(t), domain.FieldPredictedPrice)

	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, defined(150000), stats.Mean)
	assert.Equal(t, defined(100000), stats.Min)
	assert.Equal(t, defined(200000), stats.Max)
	require.True(t, stats.StdDev.Defined)
	assert.InDelta(t, 70710.678, stats.StdDev.Value, 0.001)

	display := stats.Display()
	assert.Equal(t, "150,000", display.Average)
	assert.Equal(t, "100,000", display.Minimum)
	assert.Equal(t, "200,000", display.Maximum)
}

func TestSummarize_Undefined(t *testing.T) {
	tests := []struct {
		name  string
		table *RecordTable
	}{
		{name: "nil table", table: nil},
		{name: "empty table", table: normalize(t, domain.RecordSet{})},
		{name: "all missing", table: normalize(t, domain.RecordSet{
			Records: []domain.PredictionRecord{{"predicted_price": "x"}, {"predicted_price": nil}},
		})},
		{name: "column absent", table: normalize(t, domain.RecordSet{
			Records: []domain.PredictionRecord{{"neighborhood": "A"}},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Summarize(tt.table, domain.FieldPredictedPrice)

			for _, m := range []Metric{stats.Mean, stats.Min, stats.Max, stats.StdDev} {
				assert.False(t, m.Defined)
				assert.False(t, math.IsNaN(m.Value))
			}
			display := stats.Display()
			assert.Equal(t, DisplaySummary{Average: "N/A", Minimum: "N/A", Maximum: "N/A", StdDev: "N/A"}, display)

			data, err := json.Marshal(stats)
			require.NoError(t, err)
			assert.JSONEq(t, `{"column":"predicted_price","count":0,"mean":null,"min":null,"max":null,"std_dev":null}`, string(data))
		})
	}
}

func TestSummarize_SingleValue(t *testing.T) {
	table := normalize(t, domain.RecordSet{
		Records: []domain.PredictionRecord{{"predicted_price": 42.0}},
	})

	stats := Summarize(table, domain.FieldPredictedPrice)
	assert.Equal(t, defined(42), stats.Mean)
	assert.Equal(t, defined(42), stats.Min)
	assert.Equal(t, defined(42), stats.Max)
	assert.False(t, stats.StdDev.Defined)
}

func TestSummarize_SkipsNonNumeric(t *testing.T) {
	table := normalize(t, domain.RecordSet{
		Records: []domain.PredictionRecord{
			{"predicted_price": 100000.0},
			{"predicted_price": "call for price"},
			{"predicted_price": 200000.0},
		},
	})

	stats := Summarize(table, domain.FieldPredictedPrice)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, defined(150000), stats.Mean)
	assert.Equal(t, defined(100000), stats.Min)
	assert.Equal(t, defined(200000), stats.Max)
	assert.InDelta(t, 70710.678, stats.StdDev.Value, 0.001)
}

func TestSummarize_PermutationInvariant(t *testing.T) {
	records := testutil.GeneratePredictions(50)
	records[10]["predicted_price"] = 0.1
	records[20]["predicted_price"] = 1e9 + 0.3
	base := Summarize(normalize(t, domain.RecordSet{Records: records}), domain.FieldPredictedPrice)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]domain.PredictionRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Summarize(normalize(t, domain.RecordSet{Records: shuffled}), domain.FieldPredictedPrice)
		assert.Equal(t, base, got)
	}
}

func TestMetric_JSON(t *testing.T) {
	var m Metric
	require.NoError(t, json.Unmarshal([]byte("12.5"), &m))
	assert.Equal(t, defined(12.5), m)

	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.False(t, m.Defined)
}

func TestFormatGrouped(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 999, want: "999"},
		{in: 1000, want: "1,000"},
		{in: 150000, want: "150,000"},
		{in: 1234567.4, want: "1,234,567"},
		{in: 2.5, want: "2"},
		{in: 3.5, want: "4"},
		{in: -50000, want: "-50,000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatGrouped(tt.in))
		})
	}
}
