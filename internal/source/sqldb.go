package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/tabexport/internal/core"
)

// SQL reads records through database/sql. It is used for SQLite files
// and in-memory databases.
type SQL struct {
	db         *sql.DB
	dialect    Dialect
	maxRecords int
}

// NewSQL wraps an open database.
func NewSQL(db *sql.DB, d Dialect, maxRecords int) *SQL {
	return &SQL{db: db, dialect: d, maxRecords: maxRecords}
}

// OpenSQLite opens a SQLite database. Use ":memory:" for a scratch database.
func OpenSQLite(dsn string, maxRecords int) (*SQL, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	return NewSQL(db, SQLite, maxRecords), nil
}

// DB exposes the underlying handle.
func (s *SQL) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQL) Close() error { return s.db.Close() }

// Fetch runs the query and returns every row as a record.
func (s *SQL) Fetch(ctx context.Context, q Query) ([]core.Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrSourceNotConfigured
	}

	q.Limit = capLimit(q.Limit, s.maxRecords)
	query, args, err := q.Build(s.dialect)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	keys := q.keys()
	var records []core.Record
	for rows.Next() {
		values := make([]any, len(q.Columns))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, toRecord(keys, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// Ping reports whether the database is reachable.
func (s *SQL) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrSourceNotConfigured
	}
	return s.db.PingContext(ctx)
}

// Source binds a query to the database.
func (s *SQL) Source(q Query) core.Source {
	return core.SourceFunc(func(ctx context.Context) ([]core.Record, error) {
		return s.Fetch(ctx, q)
	})
}
