package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/arogyamap/access-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "access.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPostgres returns the Postgres store directly for commands that need the
// snapshot tables; the SQLite backend does not hold snapshots.
func initPostgres(ctx context.Context) (*store.PostgresStore, error) {
	if cfg.Store.Driver != "postgres" {
		return nil, eris.New("this command requires store.driver=postgres")
	}
	return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
}
