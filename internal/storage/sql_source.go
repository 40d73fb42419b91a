package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"pricescope/internal/errors"
	"pricescope/pkg/contracts/domain"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads records with SELECT * from a prediction table filtered by
// user_id. Column order of the result becomes RecordSet.Fields.
type SQLSource struct {
	db     *sql.DB
	driver string
	query  string
	limit  int
	logger *slog.Logger
}

// OpenSQLSource opens a PostgreSQL (lib/pq) or SQLite (modernc) database and
// verifies the connection.
func OpenSQLSource(ctx context.Context, opts Options, logger *slog.Logger) (*SQLSource, error) {
	if opts.Driver != DriverPostgres && opts.Driver != DriverSQLite {
		return nil, errors.NewConfigError(fmt.Sprintf("%q is not a SQL driver", opts.Driver), nil)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, errors.NewStorageError(opts.Driver+": open", err)
	}
	if opts.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.NewStorageError(opts.Driver+": ping", err)
	}

	src, err := NewSQLSource(db, opts, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

// NewSQLSource wraps an already open database
func NewSQLSource(db *sql.DB, opts Options, logger *slog.Logger) (*SQLSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	table := opts.Table
	if table == "" {
		table = DefaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid table name %q", table), nil)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	placeholder := "?"
	if opts.Driver == DriverPostgres {
		placeholder = "$1"
	}

	return &SQLSource{
		db:     db,
		driver: opts.Driver,
		query:  fmt.Sprintf("SELECT * FROM %s WHERE user_id = %s LIMIT %d", table, placeholder, limit),
		limit:  limit,
		logger: logger.With(slog.String("component", "sql_source"), slog.String("driver", opts.Driver)),
	}, nil
}

// Fetch implements RecordSource
func (s *SQLSource) Fetch(ctx context.Context, userID string) (domain.RecordSet, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, s.query, userID)
	if err != nil {
		return domain.RecordSet{}, errors.NewStorageError(s.driver+": query predictions", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return domain.RecordSet{}, errors.NewStorageError(s.driver+": read columns", err)
	}

	records := make([]domain.PredictionRecord, 0)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.RecordSet{}, errors.NewStorageError(s.driver+": scan row", err)
		}

		rec := make(domain.PredictionRecord, len(cols))
		for i, col := range cols {
			rec[col] = scalar(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.RecordSet{}, errors.NewStorageError(s.driver+": iterate rows", err)
	}

	if len(records) == s.limit {
		s.logger.WarnContext(ctx, "record limit reached, result truncated", slog.Int("limit", s.limit))
	}
	s.logger.DebugContext(ctx, "records fetched",
		slog.String("user_id", userID),
		slog.Int("count", len(records)),
		slog.Duration("duration", time.Since(start)))

	return domain.RecordSet{Fields: cols, Records: records}, nil
}

// Close implements RecordSource
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// scalar converts driver values into record values. Text columns arrive as
// []byte from some drivers.
func scalar(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Ping verifies the database connection is alive
func (s *SQLSource) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStorageError("database unreachable", err).WithContext("driver", s.driver)
	}
	return nil
}
