// Package db provides PostgreSQL utilities on top of
// [github.com/jackc/pgx/v5/pgxpool].
//
// # Configuration
//
// [Config] is loaded from the environment:
//
//	DATABASE_URL                - PostgreSQL connection URL (empty disables Postgres)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 20)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - Pool health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection attempts at startup (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base delay between attempts (default: 5s)
//	DATABASE_MIGRATIONS_TABLE   - Goose version table (default: fuzzfleet_migrations)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, pgstore.Migrations(), cfg.MigrationsTable, log); err != nil {
//	    return err
//	}
//
// Migrations are read from an [io/fs.FS] and applied with
// [github.com/pressly/goose/v3]. [Transact] and [WithTx] run a function in a
// transaction that is rolled back on error or panic.
package db
