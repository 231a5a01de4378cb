package core

import "github.com/quiverdb/quiverd/ql"

// FieldSpec captures one declared field's type class, nullability and
// default (spec §3).
type FieldSpec struct {
	Name     string
	Class    Class
	Nullable bool
	Default  Datacell
}

var typeNames = map[string]Class{
	"string": ClassStr,
	"str":    ClassStr,
	"uint":   ClassUInt,
	"sint":   ClassSInt,
	"int":    ClassSInt,
	"bool":   ClassBool,
	"float":  ClassFloat,
	"binary": ClassBin,
	"bin":    ClassBin,
	"list":   ClassList,
}

func zeroValueFor(c Class) Datacell {
	switch c {
	case ClassBool:
		return NewBool(false)
	case ClassUInt:
		return NewUInt(0)
	case ClassSInt:
		return NewSInt(0)
	case ClassFloat:
		return NewFloat(0)
	case ClassStr:
		return NewStr("")
	case ClassBin:
		return NewBin(nil)
	case ClassList:
		return NewList()
	default:
		return Null()
	}
}

// Model is `{ fields, primary_key_name, primary_index, delta_state }`
// (spec §3). Fields is iterated in declaration order.
type Model struct {
	Fields         []FieldSpec
	fieldIndex     map[string]int
	PrimaryKeyName string

	Index *PrimaryIndex
	Delta *SchemaDeltaLog
}

// NewModel validates a CREATE MODEL field list (unique names and exactly
// one primary key are already enforced by the parser; this layer checks
// that every declared type is one this implementation supports) and
// builds the Model with a fresh empty index and delta log (spec §4.F).
func NewModel(decls []ql.FieldDecl) (*Model, error) {
	m := &Model{
		fieldIndex: make(map[string]int, len(decls)),
		Index:      &PrimaryIndex{},
		Delta:      &SchemaDeltaLog{},
	}
	for i, d := range decls {
		class, ok := typeNames[d.Type]
		if !ok {
			return nil, newErr(ErrDdlModelBadSchema, "unsupported field type: "+d.Type)
		}
		fs := FieldSpec{Name: d.Name, Class: class, Nullable: d.Nullable}
		if d.Nullable {
			fs.Default = zeroValueFor(class)
		}
		m.Fields = append(m.Fields, fs)
		m.fieldIndex[d.Name] = i
		if d.IsPrimary {
			m.PrimaryKeyName = d.Name
		}
	}
	if m.PrimaryKeyName == "" {
		return nil, newErr(ErrDdlModelBadSchema, "model has no primary key field")
	}
	return m, nil
}

// newModelFromFields builds a Model directly from already-validated field
// specs, for the persistence layer reconstructing a model from a snapshot
// (NewModel's decl-based validation has no role there: the fields were
// validated once already, at the CREATE MODEL that produced the snapshot).
func newModelFromFields(fields []FieldSpec, primaryKeyName string) *Model {
	m := &Model{
		Fields:         fields,
		fieldIndex:     make(map[string]int, len(fields)),
		PrimaryKeyName: primaryKeyName,
		Index:          &PrimaryIndex{},
		Delta:          &SchemaDeltaLog{},
	}
	for i, fs := range fields {
		m.fieldIndex[fs.Name] = i
	}
	return m
}

// FieldByName looks up a declared field's spec.
func (m *Model) FieldByName(name string) (FieldSpec, bool) {
	i, ok := m.fieldIndex[name]
	if !ok {
		return FieldSpec{}, false
	}
	return m.Fields[i], true
}

// ResolveWhere implements the one predicate this executor supports (spec
// §4.D/§8 open question): the clause must bind exactly the primary key,
// with `=`. Anything else is UnsupportedPredicate.
func (m *Model) ResolveWhere(w ql.Where) (Datacell, error) {
	if len(w.Clauses) != 1 {
		return Datacell{}, newErr(ErrQExecUnsupportedPredicate, "where must bind exactly the primary key")
	}
	clause := w.Clauses[0]
	if clause.Field != m.PrimaryKeyName || clause.Op != ql.RelEq {
		return Datacell{}, newErr(ErrQExecUnsupportedPredicate, "where must equality-match the primary key")
	}
	return FromValue(clause.Value), nil
}

// BuildRowFromTuple builds field values from a positional tuple, in
// declaration order, applying defaults for missing optional trailing
// fields (spec §4.D INSERT).
func (m *Model) BuildRowFromTuple(tuple []ql.Value) (map[string]Datacell, error) {
	if len(tuple) > len(m.Fields) {
		return nil, newErr(ErrDdlModelBadSchema, "tuple has more values than declared fields")
	}
	fields := make(map[string]Datacell, len(m.Fields))
	for i, fs := range m.Fields {
		if i >= len(tuple) {
			if !fs.Nullable {
				return nil, newErr(ErrQExecDmlTypeMismatch, "missing required field: "+fs.Name)
			}
			fields[fs.Name] = fs.Default
			continue
		}
		cell := FromValue(tuple[i])
		if err := checkFieldValue(fs, cell); err != nil {
			return nil, err
		}
		fields[fs.Name] = cell
	}
	return fields, nil
}

// BuildRowFromMap builds field values from a named map, requiring map keys
// to be a subset of declared fields and applying defaults for the rest
// (spec §4.D INSERT, §4.C semantic check: "map insert keys are a subset of
// declared fields").
func (m *Model) BuildRowFromMap(values map[string]ql.Value) (map[string]Datacell, error) {
	fields := make(map[string]Datacell, len(m.Fields))
	for _, fs := range m.Fields {
		v, ok := values[fs.Name]
		if !ok {
			if !fs.Nullable {
				return nil, newErr(ErrQExecDmlTypeMismatch, "missing required field: "+fs.Name)
			}
			fields[fs.Name] = fs.Default
			continue
		}
		cell := FromValue(v)
		if err := checkFieldValue(fs, cell); err != nil {
			return nil, err
		}
		fields[fs.Name] = cell
	}
	for name := range values {
		if _, ok := m.fieldIndex[name]; !ok {
			return nil, newErr(ErrQExecUnknownField, "unknown field in insert map: "+name)
		}
	}
	return fields, nil
}

func checkFieldValue(fs FieldSpec, cell Datacell) error {
	if cell.IsNull() {
		if !fs.Nullable {
			return newErr(ErrQExecDmlTypeMismatch, "field is not nullable: "+fs.Name)
		}
		return nil
	}
	if cell.Class() != fs.Class {
		return newErr(ErrQExecDmlTypeMismatch, "value class does not match declared field type: "+fs.Name)
	}
	return nil
}
