// Package mysql is a remote snapshot store backed by MySQL, mirroring the
// DSN-building convention of a schema-diffing adapter's own mysql backend.
package mysql

import (
	"database/sql"
	"fmt"

	driver "github.com/go-sql-driver/mysql"

	"github.com/quiverdb/quiverd/persistence"
)

var dialect = persistence.SQLDialect{
	LatestQuery: `select id, version, payload, created_at from quiver_snapshot order by version desc limit 1`,
	InsertQuery: `insert into quiver_snapshot (id, version, payload, created_at) values (?, ?, ?, ?)`,
}

// NewStore opens a MySQL-backed snapshot store.
func NewStore(config persistence.Config) (persistence.Store, error) {
	db, err := sql.Open("mysql", buildDSN(config))
	if err != nil {
		return nil, err
	}
	return persistence.OpenSQLStore(db, dialect)
}

func buildDSN(config persistence.Config) string {
	c := driver.NewConfig()
	c.User = config.User
	c.Passwd = config.Password
	c.DBName = config.DbName
	c.TLSConfig = "preferred"
	if config.Socket == "" {
		c.Net = "tcp"
		c.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	} else {
		c.Net = "unix"
		c.Addr = config.Socket
	}
	return c.FormatDSN()
}
