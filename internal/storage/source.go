package storage

import (
	"context"
	"fmt"
	"log/slog"

	"pricescope/internal/errors"
	"pricescope/pkg/contracts/domain"
)

// Supported record source drivers
const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	DefaultTable = "prediction"
	DefaultLimit = 10000
)

// RecordSource fetches the stored predictions of one user.
type RecordSource interface {
	Fetch(ctx context.Context, userID string) (domain.RecordSet, error)
	Close() error
}

// Pinger is implemented by sources that can report their availability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options selects and configures a record source.
type Options struct {
	Driver string
	// DSN is a connection string for SQL drivers and a file path for json.
	DSN   string
	Table string
	Limit int
}

// Open returns the RecordSource named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (RecordSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch opts.Driver {
	case DriverJSON:
		return NewJSONSource(opts.DSN, logger), nil
	case DriverPostgres, DriverSQLite:
		src, err := OpenSQLSource(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unknown record source driver %q", opts.Driver), nil).
			WithContext("driver", opts.Driver)
	}
}
