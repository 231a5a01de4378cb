// Package mssql is a remote snapshot store backed by SQL Server, mirroring
// the DSN-building convention of a schema-diffing adapter's own mssql
// backend.
package mssql

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/quiverdb/quiverd/persistence"
)

var dialect = persistence.SQLDialect{
	CreateTableDDL: `IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='quiver_snapshot' AND xtype='U')
	CREATE TABLE quiver_snapshot (
		id VARCHAR(64) NOT NULL,
		version BIGINT NOT NULL,
		payload VARBINARY(MAX) NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	LatestQuery: `select top 1 id, version, payload, created_at from quiver_snapshot order by version desc`,
	InsertQuery: `insert into quiver_snapshot (id, version, payload, created_at) values (@p1, @p2, @p3, @p4)`,
}

// NewStore opens a SQL Server-backed snapshot store.
func NewStore(config persistence.Config) (persistence.Store, error) {
	db, err := sql.Open("sqlserver", buildDSN(config))
	if err != nil {
		return nil, err
	}
	return persistence.OpenSQLStore(db, dialect)
}

func buildDSN(config persistence.Config) string {
	query := url.Values{}
	query.Add("database", config.DbName)
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.User, config.Password),
		Host:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}
