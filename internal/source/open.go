package source

import (
	"context"

	"github.com/JonMunkholm/tabexport/internal/config"
	"github.com/JonMunkholm/tabexport/internal/core"
)

// Store is a database-backed record source.
type Store interface {
	Fetch(ctx context.Context, q Query) ([]core.Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the configured database. PostgreSQL wins when both a URL and
// a SQLite path are set. Without either it returns ErrSourceNotConfigured.
func Open(ctx context.Context, cfg config.DatabaseConfig, maxRecords int) (Store, error) {
	switch {
	case cfg.URL != "":
		pool, err := Connect(ctx, cfg.URL, int32(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		return NewPG(pool, maxRecords), nil

	case cfg.SQLitePath != "":
		db, err := OpenSQLite(cfg.SQLitePath, maxRecords)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}
	return nil, ErrSourceNotConfigured
}
