// Package file is a flat-file snapshot store, the pure-stdlib counterpart
// to the SQL-backed stores, mirroring the pseudo-adapter shape of a
// schema-diffing adapter's own file backend (there, a stand-in for
// comparison; here, the actual degenerate case of "one file holds the
// whole store").
package file

import (
	"context"
	"encoding/gob"
	"os"

	"github.com/quiverdb/quiverd/persistence"
)

type fileStore struct {
	path string
}

// NewStore treats config.DbName as a filesystem path holding a single
// gob-encoded Snapshot (the most recent one only — there is no history).
func NewStore(config persistence.Config) (persistence.Store, error) {
	return &fileStore{path: config.DbName}, nil
}

func (f *fileStore) Save(_ context.Context, snap persistence.Snapshot) error {
	tmp := f.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(out).Encode(snap); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *fileStore) Latest(_ context.Context) (*persistence.Snapshot, bool, error) {
	in, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer in.Close()
	var snap persistence.Snapshot
	if err := gob.NewDecoder(in).Decode(&snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

func (f *fileStore) Close() error {
	return nil
}
