package store

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Connect opens a PostgreSQL connection pool for the given DSN. maxConns
// bounds the pool; values below one fall back to 20. With verbose set, every
// query is logged, which is meant for development only.
func Connect(dsn string, maxConns int, verbose bool) *bun.DB {
	if maxConns < 1 {
		maxConns = 20
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(maxConns)
	sqldb.SetMaxIdleConns(maxConns / 4)

	db := bun.NewDB(sqldb, pgdialect.New())
	if verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}
