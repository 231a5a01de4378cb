package core

import (
	"fmt"
	"sync"

	"github.com/quiverdb/quiverd/ql"
	"github.com/quiverdb/quiverd/util"
)

// Class is a Datacell's coarse tag (spec §3).
type Class int

const (
	ClassNull Class = iota
	ClassBool
	ClassUInt
	ClassSInt
	ClassFloat
	ClassStr
	ClassBin
	ClassList
)

func (c Class) String() string {
	switch c {
	case ClassNull:
		return "null"
	case ClassBool:
		return "bool"
	case ClassUInt:
		return "uint"
	case ClassSInt:
		return "sint"
	case ClassFloat:
		return "float"
	case ClassStr:
		return "str"
	case ClassBin:
		return "bin"
	case ClassList:
		return "list"
	default:
		return "unknown"
	}
}

// cellList is a List Datacell's payload: an owned sequence of Datacell
// behind a read/write lock, so a reader of one element can proceed while a
// writer appends to the same list (spec §3, §5).
type cellList struct {
	mu    sync.RWMutex
	items []Datacell
}

// Datacell is a tagged value (spec §3). class and selector always agree;
// class carries the coarse tag used for type checks, selector is the
// narrower tag the wire encoder consults (spec §4.G). The selector is not
// stored: selectorFor in encode.go derives it as the class value minus one.
type Datacell struct {
	class  Class
	isInit bool

	b   bool
	u   uint64
	s   int64
	f   float64
	str string
	bin []byte

	list *cellList
}

// Null is the uninitialized Datacell: is_init() == false.
func Null() Datacell { return Datacell{class: ClassNull} }

func NewBool(v bool) Datacell  { return Datacell{class: ClassBool, isInit: true, b: v} }
func NewUInt(v uint64) Datacell { return Datacell{class: ClassUInt, isInit: true, u: v} }
func NewSInt(v int64) Datacell  { return Datacell{class: ClassSInt, isInit: true, s: v} }
func NewFloat(v float64) Datacell { return Datacell{class: ClassFloat, isInit: true, f: v} }
func NewStr(v string) Datacell  { return Datacell{class: ClassStr, isInit: true, str: v} }
func NewBin(v []byte) Datacell  { return Datacell{class: ClassBin, isInit: true, bin: v} }

func NewList(items ...Datacell) Datacell {
	return Datacell{class: ClassList, isInit: true, list: &cellList{items: items}}
}

func (d Datacell) Class() Class  { return d.class }
func (d Datacell) IsInit() bool  { return d.isInit }
func (d Datacell) IsNull() bool  { return !d.isInit }
func (d Datacell) Bool() bool    { return d.b }
func (d Datacell) UInt() uint64  { return d.u }
func (d Datacell) SInt() int64   { return d.s }
func (d Datacell) Float() float64 { return d.f }
func (d Datacell) Str() string   { return d.str }
func (d Datacell) Bin() []byte   { return d.bin }

// ViewList runs fn with a read lock held over the list's items, so
// concurrent scalar reads of other fields are never blocked by it and
// concurrent list reads don't block each other (spec §5).
func (d Datacell) ViewList(fn func([]Datacell)) {
	d.list.mu.RLock()
	defer d.list.mu.RUnlock()
	fn(d.list.items)
}

// AppendList appends to the list under its own exclusive lock.
func (d Datacell) AppendList(v Datacell) {
	d.list.mu.Lock()
	defer d.list.mu.Unlock()
	d.list.items = append(d.list.items, v)
}

// FromLit converts a ql.Lit into the matching Datacell. The ql package's
// literal kinds are a strict subset of Datacell's classes (no List, no
// Null — those are constructed separately by the parser/executor from
// ql.Value.IsNull/List).
func FromLit(lit ql.Lit) Datacell {
	switch lit.Kind {
	case ql.LitStr:
		return NewStr(lit.Str)
	case ql.LitBool:
		return NewBool(lit.Bool)
	case ql.LitUInt:
		return NewUInt(lit.UInt)
	case ql.LitSInt:
		return NewSInt(lit.SInt)
	case ql.LitBin:
		return NewBin(lit.Bin)
	case ql.LitFloat:
		return NewFloat(lit.Float)
	default:
		return Null()
	}
}

// FromValue converts a parsed ql.Value (literal, null, or nested list) into
// a Datacell.
func FromValue(v ql.Value) Datacell {
	if v.IsNull {
		return Null()
	}
	if v.List != nil {
		items := util.TransformSlice(v.List, FromValue)
		return NewList(items...)
	}
	return FromLit(v.Lit)
}

// Key canonicalizes a scalar Datacell for use as a primary index map key.
// Only scalar classes are valid primary keys; callers must reject List (and
// Null) primary keys before calling this (spec §4.F: primary key
// declarations are over supported scalar types).
func (d Datacell) Key() (string, error) {
	switch d.class {
	case ClassBool:
		return fmt.Sprintf("b:%v", d.b), nil
	case ClassUInt:
		return fmt.Sprintf("u:%d", d.u), nil
	case ClassSInt:
		return fmt.Sprintf("s:%d", d.s), nil
	case ClassFloat:
		return fmt.Sprintf("f:%v", d.f), nil
	case ClassStr:
		return "S:" + d.str, nil
	case ClassBin:
		return "B:" + string(d.bin), nil
	default:
		return "", newErr(ErrQExecDmlTypeMismatch, "primary key value must be a scalar cell")
	}
}

// Equal reports whether two Datacells of the same class carry the same
// value. List cells never compare equal.
func (d Datacell) Equal(other Datacell) bool {
	if d.class != other.class || d.isInit != other.isInit {
		return false
	}
	switch d.class {
	case ClassBool:
		return d.b == other.b
	case ClassUInt:
		return d.u == other.u
	case ClassSInt:
		return d.s == other.s
	case ClassFloat:
		return d.f == other.f
	case ClassStr:
		return d.str == other.str
	case ClassBin:
		return string(d.bin) == string(other.bin)
	case ClassNull:
		return true
	default:
		return false
	}
}
