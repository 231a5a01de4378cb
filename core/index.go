package core

import "sync"

// PrimaryIndex is the logical `map<Datacell (pk), Row>` of spec §4.E,
// implemented as a sync.Map keyed by the primary key's canonical string
// form. sync.Map's LoadOrStore gives single-writer-per-key atomicity for
// insert directly: of two concurrent inserts under the same key, exactly
// one wins the LoadOrStore and the other observes the winner's value.
//
// This stands in for the epoch-reclaimed concurrent map named as a
// non-normative implementation hint in spec §4.E: no epoch-GC library
// exists anywhere in the example pack this was built from, so a per-row
// RWMutex (see Row) takes the place of the epoch guard for "snapshot reads
// that remain valid without blocking writers of other keys".
type PrimaryIndex struct {
	rows sync.Map // string (canonical pk) -> *Row
}

// Insert installs row under key iff no row is currently installed there.
// Returns false (AlreadyExists, by convention of the caller) if a row was
// already present.
func (idx *PrimaryIndex) Insert(key string, row *Row) (inserted bool) {
	_, loaded := idx.rows.LoadOrStore(key, row)
	return !loaded
}

// Get returns the row installed under key, if any.
func (idx *PrimaryIndex) Get(key string) (*Row, bool) {
	v, ok := idx.rows.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Row), true
}

// Delete removes the row under key, reporting whether one was present.
func (idx *PrimaryIndex) Delete(key string) (existed bool) {
	_, loaded := idx.rows.LoadAndDelete(key)
	return loaded
}

// Exists reports whether key currently has a row, without taking any
// row-level lock.
func (idx *PrimaryIndex) Exists(key string) bool {
	_, ok := idx.rows.Load(key)
	return ok
}

// Len counts the rows currently in the index. Used by DROP MODEL's
// not-empty policy check (spec §4.F); iteration order is otherwise
// unspecified per spec §4.E and never relied on.
func (idx *PrimaryIndex) Len() int {
	n := 0
	idx.rows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Range calls fn for every (key, row) pair currently installed, stopping
// early if fn returns false. Used by the persistence layer to dump a
// model's rows into a snapshot (spec §6: "not in core scope" persistence
// still needs some way to enumerate what to persist); iteration order is
// unspecified per spec §4.E.
func (idx *PrimaryIndex) Range(fn func(key string, row *Row) bool) {
	idx.rows.Range(func(k, v any) bool {
		return fn(k.(string), v.(*Row))
	})
}
