package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"pricescope/internal/dataprocessing"
	"pricescope/internal/errors"
	"pricescope/pkg/contracts/domain"
)

// JSONSource reads records from a JSON array file. Records that carry a
// user_id are returned only to that user; records without one are returned
// to everyone, so an already scoped export can be used as is.
type JSONSource struct {
	path   string
	logger *slog.Logger
}

// NewJSONSource creates a source over the file at path
func NewJSONSource(path string, logger *slog.Logger) *JSONSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONSource{
		path:   path,
		logger: logger.With(slog.String("component", "json_source")),
	}
}

// Fetch implements RecordSource. The file is re-read on every call.
func (s *JSONSource) Fetch(ctx context.Context, userID string) (domain.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.RecordSet{}, errors.NewStorageError("fetch cancelled", err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return domain.RecordSet{}, errors.NewStorageError("open record file", err).WithContext("path", s.path)
	}
	defer f.Close()

	set, err := dataprocessing.DecodeRecords(f)
	if err != nil {
		return domain.RecordSet{}, err
	}

	kept := set.Records[:0]
	for _, rec := range set.Records {
		if owner, ok := ownerOf(rec); ok && userID != "" && owner != userID {
			continue
		}
		kept = append(kept, rec)
	}
	set.Records = kept

	s.logger.DebugContext(ctx, "records fetched",
		slog.String("path", s.path),
		slog.String("user_id", userID),
		slog.Int("count", len(kept)))
	return set, nil
}

// ownerOf returns the user_id of rec in string form. A null or empty
// user_id means the record has no owner.
func ownerOf(rec domain.PredictionRecord) (string, bool) {
	raw, ok := rec[domain.FieldUserID]
	if !ok || raw == nil {
		return "", false
	}
	owner := fmt.Sprint(raw)
	return owner, owner != ""
}

// Close implements RecordSource
func (s *JSONSource) Close() error { return nil }

// Ping reports whether the record file is readable
func (s *JSONSource) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err != nil {
		return errors.NewStorageError("record file unavailable", err).WithContext("path", s.path)
	}
	return nil
}
