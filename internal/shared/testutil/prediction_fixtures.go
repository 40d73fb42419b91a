package testutil

import (
	"fmt"

	"pricescope/pkg/contracts/domain"
)

// SamplePredictions returns a small mixed record set covering two sub-counties
// and one record without a predicted price.
func SamplePredictions() []domain.PredictionRecord {
	return []domain.PredictionRecord{
		{
			"sub_county": "Westlands", "neighborhood": "Kileleshwa",
			"sq_mtrs": 120.0, "bedrooms": 3.0, "bathrooms": 2.0,
			"predicted_price": 100000.0,
		},
		{
			"sub_county": "Westlands", "neighborhood": "Lavington",
			"sq_mtrs": 200.0, "bedrooms": 4.0, "bathrooms": 3.0,
			"predicted_price": 300000.0,
		},
		{
			"sub_county": "Langata", "neighborhood": "Karen",
			"sq_mtrs": 350.0, "bedrooms": 5.0, "bathrooms": 4.0,
			"predicted_price": 200000.0,
		},
		{
			"sub_county": "Langata", "neighborhood": "South C",
			"sq_mtrs": 90.0, "bedrooms": 2.0, "bathrooms": 1.0,
			"predicted_price": nil,
		},
	}
}

// SampleFields is the column order matching SamplePredictions.
func SampleFields() []string {
	return []string{
		domain.FieldSubCounty, domain.FieldNeighborhood, domain.FieldSqMtrs,
		domain.FieldBedrooms, domain.FieldBathrooms, domain.FieldPredictedPrice,
	}
}

// SampleRecordSet wraps SamplePredictions with its column order.
func SampleRecordSet() domain.RecordSet {
	return domain.RecordSet{Fields: SampleFields(), Records: SamplePredictions()}
}

// GeneratePredictions returns n records with distinct neighborhoods and
// increasing prices starting at 50,000.
func GeneratePredictions(n int) []domain.PredictionRecord {
	records := make([]domain.PredictionRecord, n)
	for i := 0; i < n; i++ {
		records[i] = domain.PredictionRecord{
			"sub_county":      fmt.Sprintf("County %d", i%3),
			"neighborhood":    fmt.Sprintf("Area %d", i),
			"sq_mtrs":         float64(80 + i),
			"bedrooms":        float64(1 + i%5),
			"bathrooms":       float64(1 + i%3),
			"predicted_price": float64(50000 + i*1000),
		}
	}
	return records
}
