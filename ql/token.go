// Package ql implements the front end of the query language: a two-mode
// lexer and a recursive-descent parser that turn query bytes into typed
// statement trees.
package ql

// Symbol is a single-character punctuation token.
type Symbol byte

const (
	SymAdd Symbol = iota
	SymSub
	SymMul
	SymDiv
	SymNot
	SymAnd
	SymXor
	SymOr
	SymAssign
	SymOpenParen
	SymCloseParen
	SymOpenSqBracket
	SymCloseSqBracket
	SymOpenBrace
	SymCloseBrace
	SymLt
	SymGt
	SymQuoteS
	SymQuoteD
	SymAt
	SymHash
	SymDollar
	SymPercent
	SymUnderscore
	SymBackslash
	SymColon
	SymSemicolon
	SymComma
	SymPeriod
	SymQuestion
	SymTilde
	SymAccent
)

var symbolBytes = map[byte]Symbol{
	'+': SymAdd, '-': SymSub, '*': SymMul, '/': SymDiv,
	'!': SymNot, '&': SymAnd, '^': SymXor, '|': SymOr,
	'=': SymAssign, '(': SymOpenParen, ')': SymCloseParen,
	'[': SymOpenSqBracket, ']': SymCloseSqBracket,
	'{': SymOpenBrace, '}': SymCloseBrace,
	'<': SymLt, '>': SymGt, '\'': SymQuoteS, '"': SymQuoteD,
	'@': SymAt, '#': SymHash, '$': SymDollar, '%': SymPercent,
	'_': SymUnderscore, '\\': SymBackslash, ':': SymColon,
	';': SymSemicolon, ',': SymComma, '.': SymPeriod,
	'?': SymQuestion, '~': SymTilde, '`': SymAccent,
}

// Keyword is a reserved word, matched case-insensitively.
type Keyword int

const (
	KwTable Keyword = iota
	KwModel
	KwSpace
	KwIndex
	KwType
	KwUse
	KwCreate
	KwAlter
	KwDrop
	KwDescribe
	KwTruncate
	KwRename
	KwAdd
	KwRemove
	KwTransform
	KwOrder
	KwBy
	KwPrimary
	KwKey
	KwValue
	KwWith
	KwOn
	KwLock
	KwAll
	KwInsert
	KwSelect
	KwExists
	KwUpdate
	KwDelete
	KwDelere // suspected typo for "delete", kept for bug-compatibility
	KwInto
	KwFrom
	KwAs
	KwReturn
	KwSort
	KwGroup
	KwLimit
	KwAsc
	KwDesc
	KwTo
	KwSet
	KwAuto
	KwDefault
	KwIn
	KwOf
	KwTransaction
	KwBatch
	KwRead
	KwWrite
	KwBegin
	KwEnd
	KwWhere
	KwIf
	KwAnd
	KwOr
	KwNot
	KwUser
	KwRevoke
	KwNull
	KwInfinity
	kwCount
)

var keywordStrings = map[string]Keyword{
	"table": KwTable, "model": KwModel, "space": KwSpace, "index": KwIndex,
	"type": KwType, "use": KwUse, "create": KwCreate, "alter": KwAlter,
	"drop": KwDrop, "describe": KwDescribe, "truncate": KwTruncate,
	"rename": KwRename, "add": KwAdd, "remove": KwRemove, "transform": KwTransform,
	"order": KwOrder, "by": KwBy, "primary": KwPrimary, "key": KwKey,
	"value": KwValue, "with": KwWith, "on": KwOn, "lock": KwLock, "all": KwAll,
	"insert": KwInsert, "select": KwSelect, "exists": KwExists, "update": KwUpdate,
	"delete": KwDelete, "delere": KwDelere, "into": KwInto, "from": KwFrom,
	"as": KwAs, "return": KwReturn, "sort": KwSort, "group": KwGroup,
	"limit": KwLimit, "asc": KwAsc, "desc": KwDesc, "to": KwTo, "set": KwSet,
	"auto": KwAuto, "default": KwDefault, "in": KwIn, "of": KwOf,
	"transaction": KwTransaction, "batch": KwBatch, "read": KwRead,
	"write": KwWrite, "begin": KwBegin, "end": KwEnd, "where": KwWhere,
	"if": KwIf, "and": KwAnd, "or": KwOr, "not": KwNot, "user": KwUser,
	"revoke": KwRevoke, "null": KwNull, "infinity": KwInfinity,
}

// keywordDisplacement is a precomputed slot table over the keyword set; each
// slot holds an index into displacementNames, or -1 when empty. Built once
// at init time from keywordStrings.
var keywordDisplacement []int16

func init() {
	keywordDisplacement = buildDisplacement(keywordStrings)
}

// buildDisplacement builds an open-addressing table twice the size of the
// keyword set: each name goes to its FNV-1a hash slot, or the next free slot
// on a collision (linear probing). The resulting table only ever needs to be
// consulted through lookupKeyword below.
func buildDisplacement(table map[string]Keyword) []int16 {
	n := len(table)
	size := n * 2
	slots := make([]int16, size)
	for i := range slots {
		slots[i] = -1
	}
	names := make([]string, 0, n)
	for k := range table {
		names = append(names, k)
	}
	for i, name := range names {
		h := fnv1a(name) % uint32(size)
		for slots[h] != -1 {
			h = (h + 1) % uint32(size)
		}
		slots[h] = int16(i)
	}
	// store names alongside so lookupKeyword can verify the bucket; kept as a
	// package-level slice rather than threading it through the return value.
	displacementNames = names
	return slots
}

var displacementNames []string

func fnv1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// lookupKeyword resolves a lowercased identifier to a reserved keyword.
// Behavior, not implementation, is the contract (see spec §4.A/§9): any
// equivalent lookup is acceptable as long as the same words, matched
// case-insensitively, resolve.
func lookupKeyword(lowered string) (Keyword, bool) {
	size := len(keywordDisplacement)
	if size == 0 {
		return 0, false
	}
	h := fnv1a(lowered) % uint32(size)
	for {
		slot := keywordDisplacement[h]
		if slot == -1 {
			return 0, false
		}
		if displacementNames[slot] == lowered {
			return keywordStrings[lowered], true
		}
		h = (h + 1) % uint32(size)
	}
}

// TokenKind discriminates the Token tagged union.
type TokenKind int

const (
	TokSymbol TokenKind = iota
	TokKeyword
	TokIdent
	TokLiteral
)

// LitKind discriminates a literal token's payload.
type LitKind int

const (
	LitStr LitKind = iota
	LitBool
	LitUInt
	LitSInt
	LitBin
	LitFloat
)

// Lit is a literal value carried by a Token or produced by the parameter
// frame decoder.
type Lit struct {
	Kind LitKind
	Str  string
	Bool bool
	UInt uint64
	SInt int64
	Bin  []byte
	Float float64
}

// Token is the tagged union produced by the lexer.
type Token struct {
	Kind   TokenKind
	Symbol Symbol
	Kw     Keyword
	Ident  []byte
	Lit    Lit
}

func (t Token) isSymbol(s Symbol) bool {
	return t.Kind == TokSymbol && t.Symbol == s
}

func (t Token) isKeyword(k Keyword) bool {
	return t.Kind == TokKeyword && t.Kw == k
}
