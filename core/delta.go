package core

import "sync"

// DeltaKind discriminates a single schema change.
type DeltaKind int

const (
	DeltaAddField DeltaKind = iota
	DeltaRemoveField
)

// Delta is one recorded model-level schema change (spec glossary: "a
// recorded model-level change used to reconcile older rows on read").
type Delta struct {
	Version int64
	Kind    DeltaKind
	Field   string
	Default Datacell // only meaningful for DeltaAddField
}

// SchemaDeltaLog records a model's field-level schema changes in order, so
// older rows can be resolved against the model's current schema on read
// (spec §4.E).
type SchemaDeltaLog struct {
	mu      sync.RWMutex
	deltas  []Delta
	version int64
}

// CurrentVersion returns the log's latest version, the value a newly
// inserted row should be stamped with.
func (l *SchemaDeltaLog) CurrentVersion() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

func (l *SchemaDeltaLog) record(kind DeltaKind, field string, def Datacell) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.version++
	l.deltas = append(l.deltas, Delta{Version: l.version, Kind: kind, Field: field, Default: def})
	return l.version
}

// AddField records that field was added to the schema, with the given
// default for rows created before this point.
func (l *SchemaDeltaLog) AddField(field string, def Datacell) int64 {
	return l.record(DeltaAddField, field, def)
}

// RemoveField records that field was removed from the schema.
func (l *SchemaDeltaLog) RemoveField(field string) int64 {
	return l.record(DeltaRemoveField, field, Null())
}

// since returns every delta with Version > fromVersion, in order. Resolving
// a row is O(len(result)) (spec §4.E: "O(deltas-since-row-version)").
func (l *SchemaDeltaLog) since(fromVersion int64) []Delta {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Delta
	for _, d := range l.deltas {
		if d.Version > fromVersion {
			out = append(out, d)
		}
	}
	return out
}

// Dump returns every recorded delta and the log's current version, for the
// persistence layer to serialize alongside a model's rows.
func (l *SchemaDeltaLog) Dump() ([]Delta, int64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Delta, len(l.deltas))
	copy(out, l.deltas)
	return out, l.version
}

// Restore replaces the log's contents with deltas/version loaded from a
// snapshot. Only valid on a freshly constructed, not-yet-shared log.
func (l *SchemaDeltaLog) Restore(deltas []Delta, version int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deltas = deltas
	l.version = version
}
