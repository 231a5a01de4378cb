// Package sqlite3 is the default local snapshot store, pure Go and
// cgo-free, mirroring the shape of a schema-diffing adapter's own sqlite3
// backend with the diffing removed.
package sqlite3

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/quiverdb/quiverd/persistence"
)

var dialect = persistence.SQLDialect{
	LatestQuery: `select id, version, payload, created_at from quiver_snapshot order by version desc limit 1`,
	InsertQuery: `insert into quiver_snapshot (id, version, payload, created_at) values (?, ?, ?, ?)`,
}

// NewStore opens a local sqlite3 file at config.DbName as a snapshot store.
func NewStore(config persistence.Config) (persistence.Store, error) {
	db, err := sql.Open("sqlite", config.DbName)
	if err != nil {
		return nil, err
	}
	return persistence.OpenSQLStore(db, dialect)
}
