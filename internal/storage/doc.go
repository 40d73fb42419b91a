// Package storage fetches a user's stored prediction records.
//
// Three sources are available: a JSON array file, PostgreSQL through lib/pq
// and SQLite through modernc.org/sqlite. SQL sources run SELECT * against the
// prediction table filtered by user_id and bounded by a LIMIT.
package storage
