package server

import "github.com/google/uuid"

// newSnapshotID stamps each saved snapshot with a fresh identifier, the way
// a diffed-schema migration gets its own generated identity independent of
// its sequence number.
func newSnapshotID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
