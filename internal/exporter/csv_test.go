package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescope/internal/dataprocessing"
	"pricescope/internal/shared/testutil"
	"pricescope/pkg/contracts/domain"
)

func normalize(t *testing.T, set domain.RecordSet) *dataprocessing.RecordTable {
	t.Helper()
	table, err := dataprocessing.NewNormalizer(nil, dataprocessing.DefaultNormalizeOptions()).Normalize(set)
	require.NoError(t, err)
	return table
}

func TestToDelimited_Scenario(t *testing.T) {
	table := normalize(t, domain.RecordSet{
		Fields: []string{"predicted_price", "neighborhood"},
		Records: []domain.PredictionRecord{
			{"predicted_price": 100000.0, "neighborhood": "A"},
			{"predicted_price": 200000.0, "neighborhood": "B"},
		},
	})
	filtered := dataprocessing.ApplyFilters(table, dataprocessing.FilterSpec{"neighborhood": {"A"}})

	data, err := ToDelimited(filtered)
	require.NoError(t, err)
	assert.Equal(t, "predicted_price,neighborhood\n100000,A\n", string(data))
}

func TestToDelimited(t *testing.T) {
	tests := []struct {
		name     string
		set      domain.RecordSet
		opts     []DelimitedOption
		expected string
	}{
		{
			name:     "empty table",
			set:      domain.RecordSet{},
			expected: "",
		},
		{
			name: "missing values are empty fields",
			set: domain.RecordSet{
				Fields: []string{"neighborhood", "predicted_price"},
				Records: []domain.PredictionRecord{
					{"neighborhood": "A", "predicted_price": "abc"},
					{"predicted_price": 2.5},
				},
			},
			expected: "neighborhood,predicted_price\nA,\n,2.5\n",
		},
		{
			name: "quotes fields that need it",
			set: domain.RecordSet{
				Fields:  []string{"neighborhood", "furnished"},
				Records: []domain.PredictionRecord{{"neighborhood": `South "C", Nairobi`, "furnished": true}},
			},
			expected: "neighborhood,furnished\n\"South \"\"C\"\", Nairobi\",true\n",
		},
		{
			name: "single numeric column",
			set: domain.RecordSet{
				Records: []domain.PredictionRecord{{"predicted_price": 1.0}},
			},
			expected: "predicted_price\n1\n",
		},
		{
			name: "semicolon delimiter",
			set: domain.RecordSet{
				Fields:  []string{"a", "b"},
				Records: []domain.PredictionRecord{{"a": "x", "b": 1.0}},
			},
			opts:     []DelimitedOption{WithComma(';')},
			expected: "a;b\nx;1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ToDelimited(normalize(t, tt.set), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestToDelimited_WithBOM(t *testing.T) {
	data, err := ToDelimited(normalize(t, testutil.SampleRecordSet()), WithBOM())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.True(t, bytes.HasPrefix(data[3:], []byte("sub_county,neighborhood,")))
}

func TestToDelimited_NoBOMByDefault(t *testing.T) {
	data, err := ToDelimited(normalize(t, testutil.SampleRecordSet()))
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(data, utf8BOM))
}

func TestToDelimited_RoundTrip(t *testing.T) {
	set := domain.RecordSet{Fields: testutil.SampleFields(), Records: testutil.GeneratePredictions(40)}
	set.Records[4]["neighborhood"] = "Line\nBreak, \"quoted\""
	set.Records[9]["predicted_price"] = "n/a"
	table := normalize(t, set)

	data, err := ToDelimited(table)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, table.Len()+1)
	assert.Equal(t, table.Columns(), rows[0])

	col := 1 // neighborhood
	for i := 0; i < table.Len(); i++ {
		assert.Equal(t, table.Value(i, "neighborhood").String(), rows[i+1][col])
	}
	assert.Equal(t, "", rows[10][5])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteDelimited_WriterFailure(t *testing.T) {
	err := WriteDelimited(failingWriter{}, normalize(t, testutil.SampleRecordSet()))
	require.Error(t, err)

	err = WriteDelimited(failingWriter{}, normalize(t, testutil.SampleRecordSet()), WithBOM())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOM")
}

func TestWriteDelimited_NilTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, nil))
	assert.Zero(t, buf.Len())
}
