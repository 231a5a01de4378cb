// Package persistence implements the external collaborator named by the
// core's load/finish hooks: a pluggable snapshot store for the namespace
// tree. Each backend speaks one driver and stores opaque versioned blobs,
// mirroring the shape of a schema-diffing adapter with the diffing removed.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// Config names a backend connection, the same shape as a schema-diffing
// adapter's connection config, plus the backend selector.
type Config struct {
	Backend  string
	DbName   string
	User     string
	Password string
	Host     string
	Port     int
	Socket   string
}

// Snapshot is one stored, opaque dump of the namespace tree.
type Snapshot struct {
	ID        string
	Version   int64
	Payload   []byte
	CreatedAt int64
}

// Store is the abstraction every backend satisfies: save a new snapshot,
// load the most recent one, close the underlying connection.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Latest(ctx context.Context) (*Snapshot, bool, error)
	Close() error
}

// DefaultCreateTableDDL is the ANSI-ish form most backends can use as-is.
const DefaultCreateTableDDL = `CREATE TABLE IF NOT EXISTS quiver_snapshot (
	id TEXT NOT NULL,
	version BIGINT NOT NULL,
	payload BLOB NOT NULL,
	created_at BIGINT NOT NULL
)`

// SQLDialect isolates the handful of places SQL backends actually differ:
// the placeholder syntax and column types baked into each query string.
type SQLDialect struct {
	CreateTableDDL string // empty ⇒ DefaultCreateTableDDL
	LatestQuery    string
	InsertQuery    string
}

// sqlStore is the common Store implementation shared by every
// database/sql-backed backend (sqlite3, mysql, postgres, mssql). Each
// backend package opens its own driver-specific *sql.DB and DSN, then hands
// it here with its dialect's query strings.
type sqlStore struct {
	db      *sql.DB
	dialect SQLDialect
}

// OpenSQLStore runs the shared CREATE TABLE IF NOT EXISTS against db and
// wraps it as a Store using dialect's query strings. Called by each backend
// package after it opens its own driver-specific connection.
func OpenSQLStore(db *sql.DB, dialect SQLDialect) (Store, error) {
	ddl := dialect.CreateTableDDL
	if ddl == "" {
		ddl = DefaultCreateTableDDL
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, err
	}
	return &sqlStore{db: db, dialect: dialect}, nil
}

func (s *sqlStore) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, s.dialect.InsertQuery, snap.ID, snap.Version, snap.Payload, snap.CreatedAt)
	return err
}

func (s *sqlStore) Latest(ctx context.Context) (*Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.LatestQuery)
	var snap Snapshot
	if err := row.Scan(&snap.ID, &snap.Version, &snap.Payload, &snap.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &snap, true, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// ErrUnknownBackend is returned by a caller's own backend switch (see
// server.OpenStore) when config.Backend names none of the five.
var ErrUnknownBackend = fmt.Errorf("persistence: unrecognized backend")
