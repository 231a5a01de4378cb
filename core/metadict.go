package core

import (
	"fmt"
	"strings"

	"github.com/quiverdb/quiverd/ql"
	"github.com/quiverdb/quiverd/util"
)

// MetaEntry is one MetaDict slot: a scalar cell, a nested dict, or absent
// (nil map and zero Datacell together mean "not present").
type MetaEntry struct {
	Scalar Datacell
	Nested MetaDict
	IsNested bool
}

// MetaDict is an ordered-by-caller mapping from identifier to a generic
// dictionary entry (spec §3), used for space/model `env` properties.
type MetaDict map[string]MetaEntry

// FromProps converts a parsed ql `with {...}` property dict into a
// MetaDict, recursing into nested dicts.
func FromProps(props map[string]ql.PropValue) MetaDict {
	out := make(MetaDict, len(props))
	for k, v := range props {
		out[k] = metaEntryFromProp(v)
	}
	return out
}

func metaEntryFromProp(v ql.PropValue) MetaEntry {
	if v.Nested != nil {
		return MetaEntry{Nested: FromProps(v.Nested), IsNested: true}
	}
	if v.IsNull {
		return MetaEntry{}
	}
	return MetaEntry{Scalar: FromLit(v.Lit)}
}

// Merge recursively merges patch into d in place (grounded on
// rmerge_metadata/rflatten_metadata in the Rust original this spec's space
// alter semantics were distilled from): a nil/null patch value deletes the
// key, a nested-dict patch value recurses, and anything else overwrites the
// key wholesale.
func (d MetaDict) Merge(patch map[string]ql.PropValue) {
	for k, v := range patch {
		if v.Nested != nil {
			existing, ok := d[k]
			if !ok || !existing.IsNested {
				existing = MetaEntry{Nested: MetaDict{}, IsNested: true}
			}
			existing.Nested.Merge(v.Nested)
			d[k] = existing
			continue
		}
		if v.IsNull {
			delete(d, k)
			continue
		}
		d[k] = MetaEntry{Scalar: FromLit(v.Lit)}
	}
}

// String renders d in sorted-key order, so a `--debug`-style dump of a
// space's env dict (or a log line reporting a DDL failure) is stable across
// runs instead of following Go's randomized map iteration.
func (d MetaDict) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	util.CanonicalMapIter(map[string]MetaEntry(d))(func(k string, v MetaEntry) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s: ", k)
		if v.IsNested {
			b.WriteString(v.Nested.String())
		} else {
			fmt.Fprintf(&b, "%v", v.Scalar)
		}
		return true
	})
	b.WriteByte('}')
	return b.String()
}
