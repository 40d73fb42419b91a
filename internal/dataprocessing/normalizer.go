package dataprocessing

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"pricescope/internal/errors"
	"pricescope/pkg/contracts/domain"
)

// DefaultMaxRecords bounds the record sets a Normalizer accepts
const DefaultMaxRecords = 10000

// NormalizeOptions configures normalization
type NormalizeOptions struct {
	// NumericColumns are coerced to numbers; failures become Missing
	NumericColumns []string

	// MaxRecords rejects larger record sets with an input error (0 = default)
	MaxRecords int
}

// DefaultNormalizeOptions returns options coercing predicted_price only
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		NumericColumns: []string{domain.FieldPredictedPrice},
		MaxRecords:     DefaultMaxRecords,
	}
}

// Normalizer turns raw record sets into RecordTables
type Normalizer struct {
	logger  *slog.Logger
	numeric map[string]bool
	ordered []string
	max     int
}

// NewNormalizer creates a normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(logger *slog.Logger, opts NormalizeOptions) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.NumericColumns) == 0 {
		opts.NumericColumns = []string{domain.FieldPredictedPrice}
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}

	numeric := make(map[string]bool, len(opts.NumericColumns))
	for _, c := range opts.NumericColumns {
		numeric[c] = true
	}

	return &Normalizer{
		logger:  logger.With(slog.String("component", "normalizer")),
		numeric: numeric,
		ordered: append([]string(nil), opts.NumericColumns...),
		max:     opts.MaxRecords,
	}
}

// Normalize builds a table whose schema is the union of record keys in
// first-seen order. Individual malformed values never fail; they become
// Missing. Only an oversized set is rejected. Columns named in extra are
// coerced to numbers in addition to the configured ones.
func (n *Normalizer) Normalize(set domain.RecordSet, extra ...string) (*RecordTable, error) {
	if len(set.Records) > n.max {
		return nil, errors.NewInputError(
			fmt.Sprintf("record set has %d records, limit is %d", len(set.Records), n.max), nil).
			WithContext("records", len(set.Records))
	}

	columns := schemaOf(set)
	table := newTable(columns, make(map[string]bool, len(n.numeric)))
	for _, c := range columns {
		if n.numeric[c] {
			table.numeric[c] = true
		}
	}
	for _, c := range extra {
		if table.HasColumn(c) {
			table.numeric[c] = true
		}
	}

	table.rows = make([][]Value, len(set.Records))
	for i, rec := range set.Records {
		row := make([]Value, len(columns))
		for c, name := range columns {
			raw, ok := rec[name]
			if !ok {
				continue
			}
			if table.numeric[name] {
				row[c] = coerceNumber(raw)
			} else {
				row[c] = coerceScalar(raw)
			}
		}
		table.rows[i] = row
	}

	if len(set.Records) > 0 {
		for _, c := range n.ordered {
			if !table.HasColumn(c) {
				table.warnings = append(table.warnings, errors.NewSchemaWarning(c))
				n.logger.Warn("expected numeric column missing",
					slog.String("column", c),
					slog.Int("records", len(set.Records)))
			}
		}
	}

	n.logger.Debug("record set normalized",
		slog.Int("records", len(set.Records)),
		slog.Int("columns", len(columns)))

	return table, nil
}

// schemaOf returns the union of record keys. Keys of each record are ordered
// by their position in set.Fields, then lexically.
func schemaOf(set domain.RecordSet) []string {
	hint := make(map[string]int, len(set.Fields))
	for i, f := range set.Fields {
		if _, dup := hint[f]; !dup {
			hint[f] = i
		}
	}

	seen := make(map[string]bool)
	var columns []string
	for _, rec := range set.Records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Slice(keys, func(i, j int) bool {
			pi, iok := hint[keys[i]]
			pj, jok := hint[keys[j]]
			switch {
			case iok && jok:
				return pi < pj
			case iok != jok:
				return iok
			default:
				return keys[i] < keys[j]
			}
		})
		for _, k := range keys {
			seen[k] = true
			columns = append(columns, k)
		}
	}
	return columns
}

func finite(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Number(f)
}

// coerceNumber converts raw into a number cell or Missing
func coerceNumber(raw interface{}) Value {
	switch v := raw.(type) {
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return Number(float64(v))
	case int8:
		return Number(float64(v))
	case int16:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint:
		return Number(float64(v))
	case uint8:
		return Number(float64(v))
	case uint16:
		return Number(float64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case json.Number:
		return parseNumber(string(v))
	case string:
		return parseNumber(v)
	case []byte:
		return parseNumber(string(v))
	default:
		return Missing
	}
}

func parseNumber(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing
	}
	return finite(f)
}

// coerceScalar keeps scalars as they are; nested values degrade to Missing
func coerceScalar(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Missing
	case string:
		return String(v)
	case []byte:
		return String(string(v))
	case bool:
		return Bool(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return finite(f)
		}
		return String(v.String())
	case time.Time:
		return String(v.Format(time.RFC3339))
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return coerceNumber(v)
	default:
		return Missing
	}
}
