package dataprocessing

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/dustin/go-humanize"
)

// NotAvailable is how undefined metrics are displayed
const NotAvailable = "N/A"

// Metric is a statistic that may be undefined. Undefined metrics carry no
// value and marshal to JSON null.
type Metric struct {
	Value   float64
	Defined bool
}

func defined(v float64) Metric { return Metric{Value: v, Defined: true} }

// MarshalJSON implements json.Marshaler
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = defined(v)
	return nil
}

// Display formats the metric as a thousands-grouped integer, or N/A
func (m Metric) Display() string {
	if !m.Defined {
		return NotAvailable
	}
	return FormatGrouped(m.Value)
}

// FormatGrouped rounds v half-to-even and groups thousands with commas
func FormatGrouped(v float64) string {
	r := math.RoundToEven(v)
	if math.Abs(r) >= math.MaxInt64/2 {
		return humanize.Commaf(r)
	}
	return humanize.Comma(int64(r))
}

// StatsSummary holds aggregate statistics over one numeric column
type StatsSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Metric `json:"mean"`
	Min    Metric `json:"min"`
	Max    Metric `json:"max"`
	StdDev Metric `json:"std_dev"`
}

// DisplaySummary is the display-ready form of a StatsSummary
type DisplaySummary struct {
	Average string `json:"average"`
	Minimum string `json:"minimum"`
	Maximum string `json:"maximum"`
	StdDev  string `json:"std_dev"`
}

// Display formats the summary for presentation
func (s StatsSummary) Display() DisplaySummary {
	return DisplaySummary{
		Average: s.Mean.Display(),
		Minimum: s.Min.Display(),
		Maximum: s.Max.Display(),
		StdDev:  s.StdDev.Display(),
	}
}

// Summarize computes mean, min, max and sample standard deviation over the
// non-missing values of column. Values are sorted before accumulation so the
// result does not depend on row order. With no values every metric is
// undefined; the standard deviation needs at least two.
func Summarize(table *RecordTable, column string) StatsSummary {
	summary := StatsSummary{Column: column}
	if table == nil || !table.HasColumn(column) {
		return summary
	}

	values := make([]float64, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		if f, ok := table.Value(i, column).Float(); ok {
			values = append(values, f)
		}
	}
	summary.Count = len(values)
	if len(values) == 0 {
		return summary
	}

	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	summary.Mean = defined(mean)
	summary.Min = defined(values[0])
	summary.Max = defined(values[len(values)-1])

	if len(values) >= 2 {
		var sq float64
		for _, v := range values {
			d := v - mean
			sq += d * d
		}
		sd := math.Sqrt(sq / float64(len(values)-1))
		if !math.IsNaN(sd) && !math.IsInf(sd, 0) {
			summary.StdDev = defined(sd)
		}
	}

	if math.IsInf(mean, 0) || math.IsNaN(mean) {
		summary.Mean = Metric{}
	}
	return summary
}
