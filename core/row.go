package core

import "sync"

// Row is `{ fields: map<ItemID, Datacell>, delta_version: monotonic counter }`
// (spec §3). Assignment operations (UPDATE) take the row's exclusive lock;
// reads that don't need schema resolution may take the shared lock.
type Row struct {
	mu      sync.RWMutex
	fields  map[string]Datacell
	version int64 // the schema delta log's version as of last resolution
}

// NewRow builds a Row stamped with the model's current schema version.
func NewRow(fields map[string]Datacell, version int64) *Row {
	return &Row{fields: fields, version: version}
}

// resolve applies every delta recorded since r.version: an added field
// absent from r.fields gets its declared default; a removed field is
// deleted from the live map. The result is memoized back into the row
// (spec §4.E: "may memoize the result into the row"), so a row only ever
// pays the resolution cost once per delta it hasn't seen yet.
func (r *Row) resolve(log *SchemaDeltaLog) {
	current := log.CurrentVersion()
	r.mu.RLock()
	upToDate := r.version >= current
	r.mu.RUnlock()
	if upToDate {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version >= current {
		return // another goroutine already resolved past us
	}
	for _, d := range log.since(r.version) {
		switch d.Kind {
		case DeltaAddField:
			if _, ok := r.fields[d.Field]; !ok {
				r.fields[d.Field] = d.Default
			}
		case DeltaRemoveField:
			delete(r.fields, d.Field)
		}
	}
	r.version = current
}

// View runs fn with the row's fields after schema resolution, under a
// shared lock so concurrent readers of other rows and concurrent writers of
// other keys are never blocked (spec §5's per-key, not per-index, locking).
func (r *Row) View(log *SchemaDeltaLog, fn func(fields map[string]Datacell)) {
	r.resolve(log)
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.fields)
}

// Mutate runs fn with exclusive access to the row's fields after schema
// resolution, used by UPDATE (each row mutation is atomic under its row
// lock, spec §5).
func (r *Row) Mutate(log *SchemaDeltaLog, fn func(fields map[string]Datacell) error) error {
	r.resolve(log)
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.fields)
}

// Raw returns the row's unresolved stored fields and schema version,
// bypassing delta resolution. Used by the persistence layer to dump a
// row exactly as stored, so a reloaded snapshot resolves against whatever
// the model's delta log looks like at load time rather than baking in a
// resolution that was only valid at dump time.
func (r *Row) Raw() (fields map[string]Datacell, version int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Datacell, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out, r.version
}
