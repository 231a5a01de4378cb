// Package postgres is a remote snapshot store backed by PostgreSQL,
// mirroring the DSN-building convention of a schema-diffing adapter's own
// postgres backend. Unlike that adapter this package never runs pg_dump or
// reverse-engineers schema: Postgres is used purely as an opaque blob
// store, so no DDL-parsing dependency is needed here.
package postgres

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/quiverdb/quiverd/persistence"
)

var dialect = persistence.SQLDialect{
	CreateTableDDL: `CREATE TABLE IF NOT EXISTS quiver_snapshot (
		id TEXT NOT NULL,
		version BIGINT NOT NULL,
		payload BYTEA NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	LatestQuery: `select id, version, payload, created_at from quiver_snapshot order by version desc limit 1`,
	InsertQuery: `insert into quiver_snapshot (id, version, payload, created_at) values ($1, $2, $3, $4)`,
}

// NewStore opens a PostgreSQL-backed snapshot store.
func NewStore(config persistence.Config) (persistence.Store, error) {
	db, err := sql.Open("postgres", buildDSN(config))
	if err != nil {
		return nil, err
	}
	return persistence.OpenSQLStore(db, dialect)
}

func buildDSN(config persistence.Config) string {
	host := config.Socket
	if host == "" {
		host = fmt.Sprintf("%s:%d", config.Host, config.Port)
	}
	options := ""
	if sslmode, ok := os.LookupEnv("PGSSLMODE"); ok {
		options = fmt.Sprintf("?sslmode=%s", sslmode)
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s%s", config.User, config.Password, host, config.DbName, options)
}
