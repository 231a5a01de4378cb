package core

import (
	"bytes"
	"encoding/gob"
)

// Snapshot is the opaque, gob-encoded dump of a whole Namespace tree that
// the persistence layer stores and reloads (spec §6: "load(config) →
// (Config, Global)" / "finish(Global)" hooks; the wire shape of what gets
// persisted is this package's call, not persistence's). Every piece of the
// tree that matters for reconstruction is captured: space env dicts,
// declared model schemas, the schema delta log (so resolution on reload
// behaves exactly as it would have without a restart), and every row in
// its raw, unresolved form.
type snapNamespace struct {
	Spaces map[string]snapSpace
}

type snapSpace struct {
	Env    snapMetaDict
	Models map[string]snapModel
}

type snapMetaDict map[string]snapMetaEntry

type snapMetaEntry struct {
	IsNested bool
	Scalar   snapCell
	Nested   snapMetaDict
}

type snapModel struct {
	Fields         []snapFieldSpec
	PrimaryKeyName string
	Rows           map[string]snapRow
	Deltas         []snapDelta
	DeltaVersion   int64
}

type snapFieldSpec struct {
	Name     string
	Class    Class
	Nullable bool
	Default  snapCell
}

type snapRow struct {
	Fields  map[string]snapCell
	Version int64
}

type snapDelta struct {
	Version int64
	Kind    DeltaKind
	Field   string
	Default snapCell
}

// snapCell is Datacell's wire-independent gob shape: Datacell itself keeps
// its fields unexported (the point of the class/selector split in spec §3
// is that nothing outside this package pokes at the payload directly), so
// snapshotting goes through this DTO instead of gob-encoding Datacell.
type snapCell struct {
	Class  Class
	IsInit bool
	Bool   bool
	UInt   uint64
	SInt   int64
	Float  float64
	Str    string
	Bin    []byte
	List   []snapCell
}

func cellToSnap(d Datacell) snapCell {
	s := snapCell{Class: d.class, IsInit: d.isInit, Bool: d.b, UInt: d.u, SInt: d.s, Float: d.f, Str: d.str, Bin: d.bin}
	if d.class == ClassList && d.isInit {
		d.ViewList(func(items []Datacell) {
			s.List = make([]snapCell, len(items))
			for i, it := range items {
				s.List[i] = cellToSnap(it)
			}
		})
	}
	return s
}

func cellFromSnap(s snapCell) Datacell {
	if !s.IsInit {
		return Null()
	}
	switch s.Class {
	case ClassBool:
		return NewBool(s.Bool)
	case ClassUInt:
		return NewUInt(s.UInt)
	case ClassSInt:
		return NewSInt(s.SInt)
	case ClassFloat:
		return NewFloat(s.Float)
	case ClassStr:
		return NewStr(s.Str)
	case ClassBin:
		return NewBin(s.Bin)
	case ClassList:
		items := make([]Datacell, len(s.List))
		for i, it := range s.List {
			items[i] = cellFromSnap(it)
		}
		return NewList(items...)
	default:
		return Null()
	}
}

func metaDictToSnap(d MetaDict) snapMetaDict {
	out := make(snapMetaDict, len(d))
	for k, v := range d {
		out[k] = snapMetaEntry{IsNested: v.IsNested, Scalar: cellToSnap(v.Scalar), Nested: metaDictToSnap(v.Nested)}
	}
	return out
}

func metaDictFromSnap(s snapMetaDict) MetaDict {
	out := make(MetaDict, len(s))
	for k, v := range s {
		out[k] = MetaEntry{IsNested: v.IsNested, Scalar: cellFromSnap(v.Scalar), Nested: metaDictFromSnap(v.Nested)}
	}
	return out
}

// Dump serializes the whole namespace tree into an opaque byte blob
// (spec §6: the core, not persistence, owns this shape).
func (ns *Namespace) Dump() ([]byte, error) {
	snap := snapNamespace{Spaces: make(map[string]snapSpace)}
	ns.Range(func(name string, sp *Space) bool {
		snap.Spaces[name] = sp.dump()
		return true
	})
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Space) dump() snapSpace {
	out := snapSpace{Env: metaDictToSnap(s.Meta.Snapshot()), Models: make(map[string]snapModel)}
	s.Range(func(name string, m *Model) bool {
		out.Models[name] = m.dump()
		return true
	})
	return out
}

func (m *Model) dump() snapModel {
	fields := make([]snapFieldSpec, len(m.Fields))
	for i, fs := range m.Fields {
		fields[i] = snapFieldSpec{Name: fs.Name, Class: fs.Class, Nullable: fs.Nullable, Default: cellToSnap(fs.Default)}
	}
	deltas, version := m.Delta.Dump()
	snapDeltas := make([]snapDelta, len(deltas))
	for i, d := range deltas {
		snapDeltas[i] = snapDelta{Version: d.Version, Kind: d.Kind, Field: d.Field, Default: cellToSnap(d.Default)}
	}
	rows := make(map[string]snapRow)
	m.Index.Range(func(key string, row *Row) bool {
		rowFields, rowVersion := row.Raw()
		snapFields := make(map[string]snapCell, len(rowFields))
		for k, v := range rowFields {
			snapFields[k] = cellToSnap(v)
		}
		rows[key] = snapRow{Fields: snapFields, Version: rowVersion}
		return true
	})
	return snapModel{
		Fields:         fields,
		PrimaryKeyName: m.PrimaryKeyName,
		Rows:           rows,
		Deltas:         snapDeltas,
		DeltaVersion:   version,
	}
}

// LoadNamespace reconstructs a Namespace from a blob produced by Dump.
func LoadNamespace(data []byte) (*Namespace, error) {
	var snap snapNamespace
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, err
	}
	ns := NewNamespace()
	for name, sp := range snap.Spaces {
		ns.installSpace(name, loadSpace(sp))
	}
	return ns, nil
}

func loadSpace(snap snapSpace) *Space {
	sp := &Space{models: make(map[string]*Model)}
	sp.Meta.Env = metaDictFromSnap(snap.Env)
	for name, sm := range snap.Models {
		sp.installModel(name, loadModel(sm))
	}
	return sp
}

func loadModel(snap snapModel) *Model {
	fields := make([]FieldSpec, len(snap.Fields))
	for i, fs := range snap.Fields {
		fields[i] = FieldSpec{Name: fs.Name, Class: fs.Class, Nullable: fs.Nullable, Default: cellFromSnap(fs.Default)}
	}
	m := newModelFromFields(fields, snap.PrimaryKeyName)

	deltas := make([]Delta, len(snap.Deltas))
	for i, d := range snap.Deltas {
		deltas[i] = Delta{Version: d.Version, Kind: d.Kind, Field: d.Field, Default: cellFromSnap(d.Default)}
	}
	m.Delta.Restore(deltas, snap.DeltaVersion)

	for key, sr := range snap.Rows {
		rowFields := make(map[string]Datacell, len(sr.Fields))
		for k, v := range sr.Fields {
			rowFields[k] = cellFromSnap(v)
		}
		m.Index.Insert(key, NewRow(rowFields, sr.Version))
	}
	return m
}
