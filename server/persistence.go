package server

import (
	"github.com/quiverdb/quiverd/persistence"
	"github.com/quiverdb/quiverd/persistence/file"
	"github.com/quiverdb/quiverd/persistence/mssql"
	"github.com/quiverdb/quiverd/persistence/mysql"
	"github.com/quiverdb/quiverd/persistence/postgres"
	"github.com/quiverdb/quiverd/persistence/sqlite3"
)

// OpenStore opens the backend named by config.Backend, the switch named as
// a forward reference in persistence.ErrUnknownBackend's doc comment.
func OpenStore(config persistence.Config) (persistence.Store, error) {
	switch config.Backend {
	case "sqlite3", "":
		return sqlite3.NewStore(config)
	case "mysql":
		return mysql.NewStore(config)
	case "postgres":
		return postgres.NewStore(config)
	case "mssql":
		return mssql.NewStore(config)
	case "file":
		return file.NewStore(config)
	default:
		return nil, persistence.ErrUnknownBackend
	}
}
