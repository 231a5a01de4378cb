package ql

// Entity names a model, optionally qualified by a space (spec §4.C `entity`).
type Entity struct {
	Space string // empty ⇒ resolve against the connection's current space
	Model string
}

// Value is a literal-or-null slot appearing in a tuple, map or list literal,
// or (in secure mode) a `?` placeholder already resolved against the
// parameter frame by the time the parser hands it back to a caller.
type Value struct {
	IsNull bool
	Lit    Lit
	List   []Value // populated when Lit.Kind doesn't apply: a nested `list`
}

// RelOp is a WHERE-clause comparison operator.
type RelOp int

const (
	RelEq RelOp = iota
	RelNeq
	RelLt
	RelLte
	RelGt
	RelGte
)

// RelExpr is a single `ident relop literal` clause.
type RelExpr struct {
	Field string
	Op    RelOp
	Value Value
}

// Where is a conjunction of RelExprs (spec: duplicate LHS ⇒ parse error,
// enforced by the parser before a Where is ever constructed).
type Where struct {
	Clauses []RelExpr
}

// AssignOp is an UPDATE assignment operator.
type AssignOp int

const (
	AssignSet AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

// Assignment is a single `ident op literal` in an UPDATE's SET list.
type Assignment struct {
	Field string
	Op    AssignOp
	Value Value
}

// PropValue is a `with` property dict entry's value: either a scalar literal
// or a nested dict, mirroring MetaDict's recursive shape (spec §4.F).
type PropValue struct {
	IsNull bool
	Lit    Lit
	Nested map[string]PropValue
}

// Stmt is the interface common to every parsed statement tree.
type Stmt interface {
	stmtNode()
}

// FieldDecl is a single declared field in a CREATE MODEL field list.
type FieldDecl struct {
	Name      string
	Type      string
	IsPrimary bool
	Nullable  bool
}

// CreateSpace is `create space ident props?`.
type CreateSpace struct {
	Name  string
	Props map[string]PropValue
}

// CreateModel is `create model entity ( fields ) props?`.
type CreateModel struct {
	Entity Entity
	Fields []FieldDecl
	Props  map[string]PropValue
}

// AlterSpace merges Props into the named space's env dict.
type AlterSpace struct {
	Name  string
	Props map[string]PropValue
}

// DropKind discriminates what a Drop statement targets.
type DropKind int

const (
	DropSpaceKind DropKind = iota
	DropModelKind
)

// Drop is `drop space ident` or `drop model entity`.
type Drop struct {
	Kind   DropKind
	Name   string
	Entity Entity
	Force  bool
}

// Insert is `insert into entity (tuple | map)`.
type Insert struct {
	Entity Entity
	Tuple  []Value          // positional form; nil if Map form used
	Map    map[string]Value // named form; nil if Tuple form used
}

// Select is `select (* | fields) from entity where where`.
type Select struct {
	Entity Entity
	Star   bool
	Fields []string
	Where  Where
}

// Update is `update entity set assign,... where where`.
type Update struct {
	Entity      Entity
	Assignments []Assignment
	Where       Where
}

// Delete is `delete from entity where where`.
type Delete struct {
	Entity Entity
	Where  Where
}

// Sset is the strong multi-key `SSET(k1,v1,...,kn,vn)` variant.
type Sset struct {
	Pairs []KVPair
}

// Sdel is the strong multi-key `SDEL(k1,...,kn)` variant.
type Sdel struct {
	Keys []Value
}

// Supdate is the strong multi-key `SUPDATE(k1,v1,...,kn,vn)` variant.
type Supdate struct {
	Pairs []KVPair
}

// KVPair is one key/value entry in SSET/SUPDATE's flat argument list.
type KVPair struct {
	Key   Value
	Value Value
}

func (*CreateSpace) stmtNode() {}
func (*CreateModel) stmtNode() {}
func (*AlterSpace) stmtNode()  {}
func (*Drop) stmtNode()        {}
func (*Insert) stmtNode()      {}
func (*Select) stmtNode()      {}
func (*Update) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Sset) stmtNode()        {}
func (*Sdel) stmtNode()        {}
func (*Supdate) stmtNode()     {}
