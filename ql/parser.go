package ql

// Parser consumes a token stream (produced by Lex) and builds typed
// statement trees (spec §4.C). In secure mode, every literal position in
// the token stream is the `?` placeholder; Parse resolves each in order
// against a decoded parameter frame (component B).
type Parser struct {
	toks   []Token
	pos    int
	mode   Mode
	params []Lit
	pidx   int
}

// NewParser builds a Parser over toks. params is nil/empty in insecure mode;
// in secure mode it must hold exactly as many entries as `?` placeholders
// appear in toks, checked lazily as each is consumed.
func NewParser(toks []Token, mode Mode, params []Lit) *Parser {
	return &Parser{toks: toks, mode: mode, params: params}
}

// Parse consumes the entire token stream as a single statement.
func Parse(src []byte, mode Mode, params []Lit) (Stmt, error) {
	toks, err := Lex(src, mode)
	if err != nil {
		return nil, err
	}
	p := NewParser(toks, mode, params)
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errf("unexpected trailing input after statement")
	}
	if mode == ModeSecure && p.pidx != len(p.params) {
		return nil, p.errf("parameter frame entry count does not match placeholder count")
	}
	return stmt, nil
}

// ParseInsecure is the `parse_insecure(bytes) -> Statement` entry point
// named in spec §6: free-text literals are lexed directly out of src.
func ParseInsecure(src []byte) (Stmt, error) {
	return Parse(src, ModeInsecure, nil)
}

// ParseSecure is the `parse_secure(query_bytes, param_bytes, param_count)
// -> Statement` entry point named in spec §6: literals arrive exclusively
// through the decoded parameter frame, substituted for `?` placeholders in
// query order.
func ParseSecure(queryBytes, paramBytes []byte, paramCount int) (Stmt, error) {
	lits, err := DecodeParamFrame(paramBytes, paramCount)
	if err != nil {
		return nil, err
	}
	return Parse(queryBytes, ModeSecure, lits)
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *Parser) peek() (Token, bool) {
	if p.atEnd() {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *Parser) advance() (Token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *Parser) errf(msg string) error {
	return newErr(ErrSyntaxError, p.pos, msg)
}

func (p *Parser) expectSymbol(s Symbol) error {
	t, ok := p.advance()
	if !ok || !t.isSymbol(s) {
		return p.errf("expected symbol")
	}
	return nil
}

func (p *Parser) expectKeyword(k Keyword) error {
	t, ok := p.advance()
	if !ok || !t.isKeyword(k) {
		return p.errf("expected keyword")
	}
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	t, ok := p.advance()
	if !ok || t.Kind != TokIdent {
		return "", p.errf("expected identifier")
	}
	return string(t.Ident), nil
}

func (p *Parser) checkSymbol(s Symbol) bool {
	t, ok := p.peek()
	return ok && t.isSymbol(s)
}

func (p *Parser) checkKeyword(k Keyword) bool {
	t, ok := p.peek()
	return ok && t.isKeyword(k)
}

// literal consumes one literal position: a Lit token in insecure mode, or
// the `?` placeholder resolved against the next parameter frame entry in
// secure mode. Returns a Value with IsNull set (not an error) if null was
// present instead, letting callers that accept `literal|'null'` branch on it.
func (p *Parser) literal() (Value, error) {
	t, ok := p.advance()
	if !ok {
		return Value{}, p.errf("expected a literal")
	}
	if t.Kind == TokKeyword && t.Kw == KwNull {
		return Value{IsNull: true}, nil
	}
	if p.mode == ModeSecure {
		if !t.isSymbol(SymQuestion) {
			return Value{}, p.errf("secure mode requires a placeholder in literal position")
		}
		if p.pidx >= len(p.params) {
			return Value{}, p.errf("parameter frame exhausted: too few entries for placeholder count")
		}
		lit := p.params[p.pidx]
		p.pidx++
		return Value{Lit: lit}, nil
	}
	if t.Kind != TokLiteral {
		return Value{}, p.errf("expected a literal")
	}
	return Value{Lit: t.Lit}, nil
}

// entity parses `ident ('.' ident)?`.
func (p *Parser) entity() (Entity, error) {
	first, err := p.expectIdent()
	if err != nil {
		return Entity{}, err
	}
	if p.checkSymbol(SymPeriod) {
		p.advance()
		second, err := p.expectIdent()
		if err != nil {
			return Entity{}, err
		}
		return Entity{Space: first, Model: second}, nil
	}
	return Entity{Model: first}, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.errf("empty statement")
	}
	if t.Kind != TokKeyword {
		return nil, p.errf("statement must begin with a keyword")
	}
	switch t.Kw {
	case KwCreate:
		return p.parseCreate()
	case KwAlter:
		return p.parseAlter()
	case KwDrop:
		return p.parseDrop()
	case KwInsert:
		return p.parseInsert()
	case KwSelect:
		return p.parseSelect()
	case KwUpdate:
		return p.parseUpdate()
	case KwDelete, KwDelere:
		return p.parseDelete()
	default:
		return nil, p.errf("unrecognized statement keyword")
	}
}

func (p *Parser) parseCreate() (Stmt, error) {
	p.advance() // 'create'
	t, ok := p.advance()
	if !ok || t.Kind != TokKeyword {
		return nil, p.errf("expected 'space' or 'model' after create")
	}
	switch t.Kw {
	case KwSpace:
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		props, err := p.optionalProps()
		if err != nil {
			return nil, err
		}
		return &CreateSpace{Name: name, Props: props}, nil
	case KwModel:
		ent, err := p.entity()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(SymOpenParen); err != nil {
			return nil, err
		}
		fields, err := p.fieldList()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(SymCloseParen); err != nil {
			return nil, err
		}
		props, err := p.optionalProps()
		if err != nil {
			return nil, err
		}
		if err := validateFields(fields); err != nil {
			return nil, err
		}
		return &CreateModel{Entity: ent, Fields: fields, Props: props}, nil
	default:
		return nil, p.errf("expected 'space' or 'model' after create")
	}
}

func validateFields(fields []FieldDecl) error {
	seen := make(map[string]bool, len(fields))
	primaries := 0
	for _, f := range fields {
		if seen[f.Name] {
			return newErr(ErrSyntaxError, 0, "duplicate field name in model declaration")
		}
		seen[f.Name] = true
		if f.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		return newErr(ErrSyntaxError, 0, "model must declare exactly one primary key field")
	}
	return nil
}

// fieldList parses a comma-separated `name type ['primary' 'key'] ['null']`
// declaration list, e.g. `username string primary key, email string, age uint`.
func (p *Parser) fieldList() ([]FieldDecl, error) {
	var out []FieldDecl
	for {
		if p.checkSymbol(SymCloseParen) {
			break
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		fd := FieldDecl{Name: name, Type: typ}
		for p.checkKeyword(KwPrimary) || p.checkKeyword(KwNull) {
			if p.checkKeyword(KwPrimary) {
				p.advance()
				if err := p.expectKeyword(KwKey); err != nil {
					return nil, err
				}
				fd.IsPrimary = true
				continue
			}
			p.advance()
			fd.Nullable = true
		}
		out = append(out, fd)
		if p.checkSymbol(SymComma) {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// optionalProps parses a trailing `with props` clause if present, where
// props is a map literal (reusing the `map` production for dict syntax).
func (p *Parser) optionalProps() (map[string]PropValue, error) {
	if !p.checkKeyword(KwWith) {
		return nil, nil
	}
	p.advance()
	return p.propDict()
}

func (p *Parser) propDict() (map[string]PropValue, error) {
	if err := p.expectSymbol(SymOpenBrace); err != nil {
		return nil, err
	}
	out := make(map[string]PropValue)
	if p.checkSymbol(SymCloseBrace) {
		p.advance()
		return out, nil
	}
	for {
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(SymColon); err != nil {
			return nil, err
		}
		pv, err := p.propValue()
		if err != nil {
			return nil, err
		}
		out[key] = pv
		if p.checkSymbol(SymComma) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(SymCloseBrace); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) propValue() (PropValue, error) {
	if p.checkSymbol(SymOpenBrace) {
		nested, err := p.propDict()
		if err != nil {
			return PropValue{}, err
		}
		return PropValue{Nested: nested}, nil
	}
	t, ok := p.peek()
	if ok && t.Kind == TokKeyword && t.Kw == KwNull {
		p.advance()
		return PropValue{IsNull: true}, nil
	}
	v, err := p.literal()
	if err != nil {
		return PropValue{}, err
	}
	return PropValue{IsNull: v.IsNull, Lit: v.Lit}, nil
}

func (p *Parser) parseAlter() (Stmt, error) {
	p.advance() // 'alter'
	if err := p.expectKeyword(KwSpace); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KwWith); err != nil {
		return nil, err
	}
	props, err := p.propDict()
	if err != nil {
		return nil, err
	}
	return &AlterSpace{Name: name, Props: props}, nil
}

func (p *Parser) parseDrop() (Stmt, error) {
	p.advance() // 'drop'
	t, ok := p.advance()
	if !ok || t.Kind != TokKeyword {
		return nil, p.errf("expected 'space' or 'model' after drop")
	}
	// `force` is a policy-level variant (spec §4.F) exposed only through the
	// direct statement-construction API, not through query text.
	switch t.Kw {
	case KwSpace:
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &Drop{Kind: DropSpaceKind, Name: name}, nil
	case KwModel:
		ent, err := p.entity()
		if err != nil {
			return nil, err
		}
		return &Drop{Kind: DropModelKind, Entity: ent}, nil
	default:
		return nil, p.errf("expected 'space' or 'model' after drop")
	}
}

func (p *Parser) parseInsert() (Stmt, error) {
	p.advance() // 'insert'
	if err := p.expectKeyword(KwInto); err != nil {
		return nil, err
	}
	ent, err := p.entity()
	if err != nil {
		return nil, err
	}
	if p.checkSymbol(SymOpenBrace) {
		m, err := p.insertMap()
		if err != nil {
			return nil, err
		}
		return &Insert{Entity: ent, Map: m}, nil
	}
	tuple, err := p.tuple()
	if err != nil {
		return nil, err
	}
	return &Insert{Entity: ent, Tuple: tuple}, nil
}

// tuple parses `'(' (literal|'null') (',' (literal|'null'))* ')'`.
func (p *Parser) tuple() ([]Value, error) {
	if err := p.expectSymbol(SymOpenParen); err != nil {
		return nil, err
	}
	var out []Value
	if p.checkSymbol(SymCloseParen) {
		p.advance()
		return out, nil
	}
	for {
		v, err := p.valueOrList()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if p.checkSymbol(SymComma) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(SymCloseParen); err != nil {
		return nil, err
	}
	return out, nil
}

// insertMap parses the map-literal form of INSERT's value:
// `'{' ident ':' (literal|'null') (',' ident ':' (literal|'null'))* '}'`.
func (p *Parser) insertMap() (map[string]Value, error) {
	if err := p.expectSymbol(SymOpenBrace); err != nil {
		return nil, err
	}
	out := make(map[string]Value)
	if p.checkSymbol(SymCloseBrace) {
		p.advance()
		return out, nil
	}
	for {
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(SymColon); err != nil {
			return nil, err
		}
		v, err := p.valueOrList()
		if err != nil {
			return nil, err
		}
		out[key] = v
		if p.checkSymbol(SymComma) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(SymCloseBrace); err != nil {
		return nil, err
	}
	return out, nil
}

// valueOrList parses a `value` per the `list` production: either a literal
// (or null), or a nested `[...]` list of values.
func (p *Parser) valueOrList() (Value, error) {
	if p.checkSymbol(SymOpenSqBracket) {
		return p.list()
	}
	return p.literal()
}

func (p *Parser) list() (Value, error) {
	p.advance() // '['
	var items []Value
	if p.checkSymbol(SymCloseSqBracket) {
		p.advance()
		return Value{List: items}, nil
	}
	for {
		v, err := p.valueOrList()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		if p.checkSymbol(SymComma) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(SymCloseSqBracket); err != nil {
		return Value{}, err
	}
	return Value{List: items}, nil
}

func (p *Parser) parseSelect() (Stmt, error) {
	p.advance() // 'select'
	sel := &Select{}
	if p.checkSymbol(SymMul) {
		p.advance()
		sel.Star = true
	} else {
		for {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			sel.Fields = append(sel.Fields, name)
			if p.checkSymbol(SymComma) {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectKeyword(KwFrom); err != nil {
		return nil, err
	}
	ent, err := p.entity()
	if err != nil {
		return nil, err
	}
	sel.Entity = ent
	if err := p.expectKeyword(KwWhere); err != nil {
		return nil, err
	}
	w, err := p.where()
	if err != nil {
		return nil, err
	}
	sel.Where = w
	return sel, nil
}

func (p *Parser) parseUpdate() (Stmt, error) {
	p.advance() // 'update'
	ent, err := p.entity()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KwSet); err != nil {
		return nil, err
	}
	var assigns []Assignment
	for {
		a, err := p.assignment()
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, a)
		if p.checkSymbol(SymComma) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectKeyword(KwWhere); err != nil {
		return nil, err
	}
	w, err := p.where()
	if err != nil {
		return nil, err
	}
	return &Update{Entity: ent, Assignments: assigns, Where: w}, nil
}

func (p *Parser) assignment() (Assignment, error) {
	name, err := p.expectIdent()
	if err != nil {
		return Assignment{}, err
	}
	op, err := p.assignOp()
	if err != nil {
		return Assignment{}, err
	}
	v, err := p.literal()
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Field: name, Op: op, Value: v}, nil
}

// assignOp recognizes `=`, `+=`, `-=`, `*=`, `/=`. The lexer tokenizes the
// compound forms as two adjacent symbols (e.g. SymAdd, SymAssign); the
// parser fuses them here since they only ever mean one thing at this
// grammar position.
func (p *Parser) assignOp() (AssignOp, error) {
	t, ok := p.advance()
	if !ok || t.Kind != TokSymbol {
		return 0, p.errf("expected an assignment operator")
	}
	switch t.Symbol {
	case SymAssign:
		return AssignSet, nil
	case SymAdd, SymSub, SymMul, SymDiv:
		next, ok := p.advance()
		if !ok || !next.isSymbol(SymAssign) {
			return 0, p.errf("expected '=' to complete compound assignment operator")
		}
		switch t.Symbol {
		case SymAdd:
			return AssignAdd, nil
		case SymSub:
			return AssignSub, nil
		case SymMul:
			return AssignMul, nil
		default:
			return AssignDiv, nil
		}
	default:
		return 0, p.errf("expected an assignment operator")
	}
}

func (p *Parser) parseDelete() (Stmt, error) {
	p.advance() // 'delete'
	if err := p.expectKeyword(KwFrom); err != nil {
		return nil, err
	}
	ent, err := p.entity()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KwWhere); err != nil {
		return nil, err
	}
	w, err := p.where()
	if err != nil {
		return nil, err
	}
	return &Delete{Entity: ent, Where: w}, nil
}

// where parses `relexpr ('and' relexpr)*`, rejecting a duplicate LHS
// identifier across clauses (spec §4.C).
func (p *Parser) where() (Where, error) {
	var w Where
	seen := make(map[string]bool)
	for {
		re, err := p.relExpr()
		if err != nil {
			return Where{}, err
		}
		if seen[re.Field] {
			return Where{}, p.errf("duplicate field in WHERE clause")
		}
		seen[re.Field] = true
		w.Clauses = append(w.Clauses, re)
		if p.checkKeyword(KwAnd) {
			p.advance()
			continue
		}
		break
	}
	return w, nil
}

func (p *Parser) relExpr() (RelExpr, error) {
	name, err := p.expectIdent()
	if err != nil {
		return RelExpr{}, err
	}
	op, err := p.relOp()
	if err != nil {
		return RelExpr{}, err
	}
	v, err := p.literal()
	if err != nil {
		return RelExpr{}, err
	}
	return RelExpr{Field: name, Op: op, Value: v}, nil
}

func (p *Parser) relOp() (RelOp, error) {
	t, ok := p.advance()
	if !ok || t.Kind != TokSymbol {
		return 0, p.errf("expected a comparison operator")
	}
	switch t.Symbol {
	case SymAssign:
		return RelEq, nil
	case SymNot:
		next, ok := p.advance()
		if !ok || !next.isSymbol(SymAssign) {
			return 0, p.errf("expected '=' to complete '!=' operator")
		}
		return RelNeq, nil
	case SymLt:
		if p.checkSymbol(SymAssign) {
			p.advance()
			return RelLte, nil
		}
		return RelLt, nil
	case SymGt:
		if p.checkSymbol(SymAssign) {
			p.advance()
			return RelGte, nil
		}
		return RelGt, nil
	default:
		return 0, p.errf("expected a comparison operator")
	}
}
