package domain

// Well-known prediction record fields
const (
	FieldPredictedPrice = "predicted_price"
	FieldSubCounty      = "sub_county"
	FieldNeighborhood   = "neighborhood"
	FieldSqMtrs         = "sq_mtrs"
	FieldBedrooms       = "bedrooms"
	FieldBathrooms      = "bathrooms"
	FieldUserID         = "user_id"
)

// PredictionRecord is one stored prediction row: field name to scalar value.
// Values are whatever the record source produced (float64, string, bool,
// json.Number, nil, ...). The normalizer decides how to interpret them.
type PredictionRecord map[string]interface{}

// RecordSet is the raw record collection a record source hands to the
// report engine. Fields is an optional key-order hint (JSON key order, SQL
// column order); keys not listed there are ordered lexically.
type RecordSet struct {
	Fields  []string           `json:"fields,omitempty"`
	Records []PredictionRecord `json:"records"`
}

// Len returns the number of records in the set
func (s RecordSet) Len() int {
	return len(s.Records)
}

// Identity is the authenticated user a report is generated for
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// DisplayName returns the name to print on reports, "N/A" when unknown
func (i Identity) DisplayName() string {
	if i.Name == "" {
		return "N/A"
	}
	return i.Name
}

// DisplayEmail returns the email to print on reports, "N/A" when unknown
func (i Identity) DisplayEmail() string {
	if i.Email == "" {
		return "N/A"
	}
	return i.Email
}
