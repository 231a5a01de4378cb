package core

import (
	"github.com/quiverdb/quiverd/ql"
)

// Executor runs parsed DML statements against a Namespace (spec §4.D). It
// holds no state of its own beyond a default space name, mirroring the
// connection-scoped "current space" the QL grammar assumes when an Entity
// omits its Space.
type Executor struct {
	NS           *Namespace
	KV           *KVStore
	DefaultSpace string
}

// NewExecutor builds an Executor bound to ns, defaulting unqualified
// entities to defaultSpace.
func NewExecutor(ns *Namespace, kv *KVStore, defaultSpace string) *Executor {
	return &Executor{NS: ns, KV: kv, DefaultSpace: defaultSpace}
}

// Execute dispatches stmt to the matching DDL/DML handler. The return value
// is nil for statements with no result rows (CREATE/ALTER/DROP/INSERT/
// UPDATE/DELETE); SELECT returns []map[string]Datacell.
func (ex *Executor) Execute(stmt ql.Stmt) (any, error) {
	switch s := stmt.(type) {
	case *ql.CreateSpace:
		return nil, ex.NS.CreateSpace(s.Name, s.Props)
	case *ql.CreateModel:
		return nil, ex.NS.CreateModel(s.Entity, ex.DefaultSpace, s.Fields, s.Props)
	case *ql.AlterSpace:
		return nil, ex.NS.AlterSpace(s.Name, s.Props)
	case *ql.Drop:
		switch s.Kind {
		case ql.DropSpaceKind:
			return nil, ex.NS.DropSpace(s.Name, s.Force)
		case ql.DropModelKind:
			return nil, ex.NS.DropModel(s.Entity, ex.DefaultSpace, s.Force)
		default:
			return nil, internalError("msg", "unknown drop kind")
		}
	case *ql.Insert:
		return nil, ex.execInsert(s)
	case *ql.Select:
		return ex.execSelect(s)
	case *ql.Update:
		return nil, ex.execUpdate(s)
	case *ql.Delete:
		return nil, ex.execDelete(s)
	case *ql.Sset:
		return nil, ex.KV.SSET(s.Pairs)
	case *ql.Sdel:
		return nil, ex.KV.SDEL(s.Keys)
	case *ql.Supdate:
		return nil, ex.KV.SUPDATE(s.Pairs)
	default:
		return nil, internalError("msg", "unknown statement type")
	}
}

func (ex *Executor) resolveModel(ent ql.Entity) (*Model, error) {
	return ex.NS.Resolve(ent, ex.DefaultSpace)
}

// execInsert builds the row from the statement's tuple or map form, derives
// the primary key, and installs it iff the key is unused (spec §4.D INSERT:
// "fails with AlreadyExists if the primary key is already present").
func (ex *Executor) execInsert(s *ql.Insert) error {
	m, err := ex.resolveModel(s.Entity)
	if err != nil {
		return err
	}

	var fields map[string]Datacell
	if s.Map != nil {
		fields, err = m.BuildRowFromMap(s.Map)
	} else {
		fields, err = m.BuildRowFromTuple(s.Tuple)
	}
	if err != nil {
		return err
	}

	pk, ok := fields[m.PrimaryKeyName]
	if !ok || pk.IsNull() {
		return newErr(ErrQExecDmlTypeMismatch, "primary key field must be present and non-null")
	}
	key, err := pk.Key()
	if err != nil {
		return err
	}

	row := NewRow(fields, m.Delta.CurrentVersion())
	if !m.Index.Insert(key, row) {
		return newErr(ErrQExecDmlAlreadyExists, "row already exists for this primary key")
	}
	return nil
}

// execSelect resolves the WHERE clause to a primary key, looks the row up,
// and projects either every field (`select *`) or the named subset
// (spec §4.D SELECT).
func (ex *Executor) execSelect(s *ql.Select) ([]map[string]Datacell, error) {
	m, err := ex.resolveModel(s.Entity)
	if err != nil {
		return nil, err
	}
	pk, err := m.ResolveWhere(s.Where)
	if err != nil {
		return nil, err
	}
	key, err := pk.Key()
	if err != nil {
		return nil, err
	}
	row, ok := m.Index.Get(key)
	if !ok {
		return nil, newErr(ErrQExecDmlRowNotFound, "no row for this primary key")
	}

	if !s.Star {
		for _, f := range s.Fields {
			if _, ok := m.FieldByName(f); !ok {
				return nil, newErr(ErrQExecUnknownField, "unknown field: "+f)
			}
		}
	}

	// synthesizeMissingPK covers the case where the primary-key field has no
	// stored column (e.g. a row materialized without it): fall back to the
	// key value resolved from the WHERE clause (spec §4.D SELECT).
	synthesizeMissingPK := func(name string, cell Datacell) Datacell {
		if name == m.PrimaryKeyName && cell.IsNull() {
			return pk
		}
		return cell
	}

	var result map[string]Datacell
	row.View(m.Delta, func(fields map[string]Datacell) {
		if s.Star {
			result = make(map[string]Datacell, len(fields)+1)
			for k, v := range fields {
				result[k] = synthesizeMissingPK(k, v)
			}
			if _, ok := result[m.PrimaryKeyName]; !ok {
				result[m.PrimaryKeyName] = pk
			}
			return
		}
		result = make(map[string]Datacell, len(s.Fields))
		for _, f := range s.Fields {
			result[f] = synthesizeMissingPK(f, fields[f])
		}
	})
	return []map[string]Datacell{result}, nil
}

// execUpdate resolves the WHERE clause to a primary key, then applies every
// assignment to the row atomically under the row's own lock
// (spec §4.D UPDATE, §5).
func (ex *Executor) execUpdate(s *ql.Update) error {
	m, err := ex.resolveModel(s.Entity)
	if err != nil {
		return err
	}
	pk, err := m.ResolveWhere(s.Where)
	if err != nil {
		return err
	}
	key, err := pk.Key()
	if err != nil {
		return err
	}
	row, ok := m.Index.Get(key)
	if !ok {
		return newErr(ErrQExecDmlRowNotFound, "no row for this primary key")
	}

	return row.Mutate(m.Delta, func(fields map[string]Datacell) error {
		// Stage every assignment's result before writing anything back, so a
		// failure partway through (e.g. a type mismatch on the second of two
		// assignments) leaves fields untouched (spec §4.D: "the row is left
		// unmodified" on any per-assignment failure).
		staged := make(map[string]Datacell, len(s.Assignments))
		for _, a := range s.Assignments {
			fs, ok := m.FieldByName(a.Field)
			if !ok {
				return newErr(ErrQExecUnknownField, "unknown field: "+a.Field)
			}
			if a.Field == m.PrimaryKeyName {
				return newErr(ErrQExecDmlTypeMismatch, "primary key field is immutable")
			}
			current, ok := staged[a.Field]
			if !ok {
				current = fields[a.Field]
			}
			next, err := applyAssignment(fs, current, a.Op, FromValue(a.Value))
			if err != nil {
				return err
			}
			staged[a.Field] = next
		}
		for field, v := range staged {
			fields[field] = v
		}
		return nil
	})
}

// execDelete resolves the WHERE clause to a primary key and removes the row.
func (ex *Executor) execDelete(s *ql.Delete) error {
	m, err := ex.resolveModel(s.Entity)
	if err != nil {
		return err
	}
	pk, err := m.ResolveWhere(s.Where)
	if err != nil {
		return err
	}
	key, err := pk.Key()
	if err != nil {
		return err
	}
	if !m.Index.Delete(key) {
		return newErr(ErrQExecDmlRowNotFound, "no row for this primary key")
	}
	return nil
}

// applyAssignment implements `=`, `+=`, `-=`, `*=`, `/=` (spec §4.D UPDATE).
// Arithmetic on UInt/SInt wraps on overflow, matching Go's native integer
// semantics rather than panicking or promoting to a wider type.
func applyAssignment(fs FieldSpec, current Datacell, op ql.AssignOp, rhs Datacell) (Datacell, error) {
	if op == ql.AssignSet {
		if err := checkFieldValue(fs, rhs); err != nil {
			return Datacell{}, err
		}
		return rhs, nil
	}
	if current.IsNull() || rhs.IsNull() {
		return Datacell{}, newErr(ErrQExecDmlTypeMismatch, "compound assignment requires non-null operands")
	}
	if current.Class() != fs.Class || rhs.Class() != fs.Class {
		return Datacell{}, newErr(ErrQExecDmlTypeMismatch, "compound assignment operand class mismatch")
	}
	switch fs.Class {
	case ClassUInt:
		return NewUInt(applyUInt(current.UInt(), op, rhs.UInt())), nil
	case ClassSInt:
		return NewSInt(applySInt(current.SInt(), op, rhs.SInt())), nil
	case ClassFloat:
		return NewFloat(applyFloat(current.Float(), op, rhs.Float())), nil
	case ClassStr:
		if op != ql.AssignAdd {
			return Datacell{}, newErr(ErrQExecDmlTypeMismatch, "strings only support += (concatenation)")
		}
		return NewStr(current.Str() + rhs.Str()), nil
	case ClassBin:
		if op != ql.AssignAdd {
			return Datacell{}, newErr(ErrQExecDmlTypeMismatch, "binary fields only support += (concatenation)")
		}
		buf := make([]byte, 0, len(current.Bin())+len(rhs.Bin()))
		buf = append(buf, current.Bin()...)
		buf = append(buf, rhs.Bin()...)
		return NewBin(buf), nil
	default:
		return Datacell{}, newErr(ErrQExecDmlTypeMismatch, "compound assignment is only defined for numeric/binary-appendable fields")
	}
}

func applyUInt(a uint64, op ql.AssignOp, b uint64) uint64 {
	switch op {
	case ql.AssignAdd:
		return a + b
	case ql.AssignSub:
		return a - b
	case ql.AssignMul:
		return a * b
	case ql.AssignDiv:
		if b == 0 {
			return 0
		}
		return a / b
	default:
		return a
	}
}

func applySInt(a int64, op ql.AssignOp, b int64) int64 {
	switch op {
	case ql.AssignAdd:
		return a + b
	case ql.AssignSub:
		return a - b
	case ql.AssignMul:
		return a * b
	case ql.AssignDiv:
		if b == 0 {
			return 0
		}
		return a / b
	default:
		return a
	}
}

func applyFloat(a float64, op ql.AssignOp, b float64) float64 {
	switch op {
	case ql.AssignAdd:
		return a + b
	case ql.AssignSub:
		return a - b
	case ql.AssignMul:
		return a * b
	case ql.AssignDiv:
		return a / b
	default:
		return a
	}
}
