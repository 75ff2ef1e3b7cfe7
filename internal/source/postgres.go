package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/tabexport/internal/core"
)

// PG reads records from PostgreSQL through a pgx pool.
type PG struct {
	pool       *pgxpool.Pool
	maxRecords int
}

// NewPG wraps a pool. maxRecords caps every read when positive.
func NewPG(pool *pgxpool.Pool, maxRecords int) *PG {
	return &PG{pool: pool, maxRecords: maxRecords}
}

// Connect opens a pool for the URL and verifies it with a ping.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Fetch runs the query and returns every row as a record.
func (s *PG) Fetch(ctx context.Context, q Query) ([]core.Record, error) {
	if s == nil || s.pool == nil {
		return nil, ErrSourceNotConfigured
	}

	q.Limit = capLimit(q.Limit, s.maxRecords)
	query, args, err := q.Build(Postgres)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	keys := q.keys()
	var records []core.Record
	for rows.Next() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		records = append(records, toRecord(keys, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// Source binds a query to the pool.
func (s *PG) Source(q Query) core.Source {
	return core.SourceFunc(func(ctx context.Context) ([]core.Record, error) {
		return s.Fetch(ctx, q)
	})
}

// Ping reports whether the database is reachable.
func (s *PG) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrSourceNotConfigured
	}
	return s.pool.Ping(ctx)
}

func capLimit(limit, max int) int {
	if max <= 0 {
		return limit
	}
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

// Close closes the pool.
func (s *PG) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}
