package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Options selects and configures a snapshot backend.
type Options struct {
	Driver         string // "sqlite" or "postgres"
	SQLitePath     string
	DSN            string
	MigrationsPath string
	CacheMB        int
}

// Store is an opened backend. Postgres is set only for the postgres driver,
// so callers can register pool metrics.
type Store struct {
	KV       KV
	Postgres *DB
}

// Open opens the configured backend. Postgres migrations are applied first.
// A positive CacheMB wraps the backend in a CachedKV.
func Open(ctx context.Context, opts Options, log *slog.Logger) (*Store, error) {
	var st Store
	switch opts.Driver {
	case "", "sqlite":
		kv, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.KV = kv
		log.Info("sqlite store opened", "path", opts.SQLitePath)
	case "postgres":
		if err := RunMigrations(opts.DSN, opts.MigrationsPath); err != nil {
			return nil, fmt.Errorf("migrating: %w", err)
		}
		log.Info("migrations applied")
		db, err := New(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		st.KV = db
		st.Postgres = db
		log.Info("database connected")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}

	if opts.CacheMB > 0 {
		st.KV = NewCachedKV(st.KV, opts.CacheMB)
		log.Info("snapshot cache enabled", "size_mb", opts.CacheMB)
	}
	return &st, nil
}
