package ql

import "unicode/utf8"

const eofChar = 0x100

// Mode selects which literal forms the lexer admits (spec §4.A).
type Mode int

const (
	// ModeInsecure accepts free-text numeric, string and binary literals.
	ModeInsecure Mode = iota
	// ModeSecure accepts only identifiers/keywords/symbols; every literal
	// position must be the `?` placeholder, resolved later against a
	// parameter frame (component B).
	ModeSecure
)

// Lexer scans a byte buffer into an ordered token sequence. It mirrors the
// buffer/lastChar/next() scanning primitives of a classic hand-written SQL
// tokenizer, generalized to the two admitted literal modes.
type Lexer struct {
	buf      []byte
	pos      int
	lastChar uint16
	mode     Mode
}

// NewLexer constructs a Lexer over src in the given mode.
func NewLexer(src []byte, mode Mode) *Lexer {
	l := &Lexer{buf: src, mode: mode}
	l.next()
	return l
}

// Lex scans src fully, in the given mode, and returns its token sequence.
func Lex(src []byte, mode Mode) ([]Token, error) {
	l := NewLexer(src, mode)
	var toks []Token
	for {
		tok, err := l.Scan()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return toks, nil
		}
		toks = append(toks, *tok)
	}
}

func (l *Lexer) next() {
	if l.pos >= len(l.buf) {
		l.lastChar = eofChar
		return
	}
	l.lastChar = uint16(l.buf[l.pos])
	l.pos++
}

// position returns the most recently consumed byte offset, for error reporting.
func (l *Lexer) position() int {
	if l.pos == 0 {
		return 0
	}
	return l.pos - 1
}

func (l *Lexer) skipBlank() {
	for l.lastChar == ' ' || l.lastChar == '\t' || l.lastChar == '\n' {
		l.next()
	}
}

// Scan returns the next token, or (nil, nil) at end of input.
func (l *Lexer) Scan() (*Token, error) {
	l.skipBlank()
	ch := l.lastChar
	switch {
	case ch == eofChar:
		return nil, nil
	case isIdentStart(ch):
		return l.scanIdentOrKeyword()
	case isDigit(ch):
		if l.mode == ModeSecure {
			return nil, newErr(ErrInvalidSafeLiteral, l.position(), "numeric literal not allowed in secure mode")
		}
		return l.scanNumber(false)
	case ch == '-':
		// disambiguate subtraction symbol from a signed integer literal
		l.next()
		if isDigit(l.lastChar) {
			if l.mode == ModeSecure {
				return nil, newErr(ErrInvalidSafeLiteral, l.position(), "numeric literal not allowed in secure mode")
			}
			return l.scanNumber(true)
		}
		return &Token{Kind: TokSymbol, Symbol: SymSub}, nil
	case ch == '\'' || ch == '"':
		if l.mode == ModeSecure {
			return nil, newErr(ErrInvalidSafeLiteral, l.position(), "string literal not allowed in secure mode")
		}
		return l.scanString(byte(ch))
	default:
		if sym, ok := symbolBytes[byte(ch)]; ok {
			l.next()
			return &Token{Kind: TokSymbol, Symbol: sym}, nil
		}
		return nil, newErr(ErrUnexpectedChar, l.position(), "unrecognized byte")
	}
}

func isIdentStart(ch uint16) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentCont(ch uint16) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch uint16) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) scanIdentOrKeyword() (*Token, error) {
	start := l.pos - 1
	for isIdentCont(l.lastChar) {
		l.next()
	}
	raw := l.buf[start : l.pos-1]
	if l.lastChar == eofChar {
		raw = l.buf[start:l.pos]
	}
	lowered := toLowerASCII(raw)
	if kw, ok := lookupKeyword(string(lowered)); ok {
		return &Token{Kind: TokKeyword, Kw: kw}, nil
	}
	if string(lowered) == "true" || string(lowered) == "false" {
		if l.mode == ModeSecure {
			return nil, newErr(ErrInvalidSafeLiteral, l.position(), "boolean literal not allowed in secure mode")
		}
		return &Token{Kind: TokLiteral, Lit: Lit{Kind: LitBool, Bool: string(lowered) == "true"}}, nil
	}
	return &Token{Kind: TokIdent, Ident: raw}, nil
}

func toLowerASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// scanNumber parses an integer or float literal. negative indicates a `-`
// was already consumed. Overflow is detected explicitly per spec §4.A.
func (l *Lexer) scanNumber(negative bool) (*Token, error) {
	start := l.pos - 1
	for isDigit(l.lastChar) {
		l.next()
	}
	// A digit run immediately followed by a literal newline (no intervening
	// whitespace) is the binary literal form (spec §4.A: "<length>\n<bytes>"),
	// not an unsigned integer followed by whitespace. This is why the lex
	// roundtrip property (spec §8) explicitly excludes whitespace-sensitive
	// literals: inserting a space before the `\n` changes the parse.
	if !negative && l.lastChar == '\n' {
		lenRaw := string(l.buf[start : l.pos-1])
		return l.finishBinary(lenRaw)
	}
	isFloat := false
	if l.lastChar == '.' {
		isFloat = true
		l.next()
		for isDigit(l.lastChar) {
			l.next()
		}
	}
	end := l.pos - 1
	if l.lastChar == eofChar {
		end = l.pos
	}
	raw := string(l.buf[start:end])
	if isLetterRune(l.lastChar) {
		return nil, newErr(ErrInvalidNumericLiteral, l.position(), "letter cannot follow a numeric literal")
	}
	if isFloat {
		f, err := parseFloat(raw)
		if err != nil {
			return nil, newErr(ErrInvalidNumericLiteral, l.position(), err.Error())
		}
		return &Token{Kind: TokLiteral, Lit: Lit{Kind: LitFloat, Float: f}}, nil
	}
	if negative {
		v, ok := parseInt64(raw)
		if !ok {
			return nil, newErr(ErrInvalidNumericLiteral, l.position(), "signed integer overflow")
		}
		return &Token{Kind: TokLiteral, Lit: Lit{Kind: LitSInt, SInt: -v}}, nil
	}
	v, ok := parseUint64(raw)
	if !ok {
		return nil, newErr(ErrInvalidNumericLiteral, l.position(), "unsigned integer overflow")
	}
	return &Token{Kind: TokLiteral, Lit: Lit{Kind: LitUInt, UInt: v}}, nil
}

func isLetterRune(ch uint16) bool {
	return ch != eofChar && (('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_')
}

func parseUint64(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		d := uint64(s[i] - '0')
		if v > (1<<64-1-d)/10 {
			return 0, false
		}
		v = v*10 + d
	}
	return v, true
}

func parseInt64(s string) (int64, bool) {
	v, ok := parseUint64(s)
	if !ok || v > 1<<63 {
		return 0, false
	}
	return int64(v), true
}

func parseFloat(s string) (float64, error) {
	// ASCII decimal -> float64; avoids importing strconv's broader grammar
	// (hex floats, inf/nan spellings) which this literal form never produces.
	var intPart, fracPart string
	if i := indexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	} else {
		intPart = s
	}
	whole, ok := parseUint64(intPart)
	if !ok && intPart != "" {
		return 0, errInvalidFloat
	}
	f := float64(whole)
	if fracPart != "" {
		frac, ok := parseUint64(fracPart)
		if !ok {
			return 0, errInvalidFloat
		}
		f += float64(frac) / pow10(len(fracPart))
	}
	return f, nil
}

func pow10(n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= 10
	}
	return r
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

var errInvalidFloat = newErr(ErrInvalidNumericLiteral, 0, "malformed float literal")

// scanString scans a single/double quoted string literal, honoring `\`
// escapes and matching-quote escapes (a doubled delimiter embeds itself).
func (l *Lexer) scanString(delim byte) (*Token, error) {
	l.next() // consume opening quote
	var out []byte
	for {
		if l.lastChar == eofChar {
			return nil, newErr(ErrInvalidStringLiteral, l.position(), "unterminated string literal")
		}
		if l.lastChar == uint16(delim) {
			l.next()
			if l.lastChar == uint16(delim) {
				out = append(out, delim)
				l.next()
				continue
			}
			break
		}
		if l.lastChar == '\\' {
			l.next()
			if l.lastChar == eofChar {
				return nil, newErr(ErrInvalidStringLiteral, l.position(), "unterminated escape")
			}
			decoded, ok := decodeEscape(byte(l.lastChar))
			if !ok {
				return nil, newErr(ErrInvalidStringLiteral, l.position(), "invalid escape sequence")
			}
			out = append(out, decoded)
			l.next()
			continue
		}
		out = append(out, byte(l.lastChar))
		l.next()
	}
	if !utf8.Valid(out) {
		return nil, newErr(ErrInvalidStringLiteral, l.position(), "string literal is not valid UTF-8")
	}
	return &Token{Kind: TokLiteral, Lit: Lit{Kind: LitStr, Str: string(out)}}, nil
}

func decodeEscape(ch byte) (byte, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	case '0':
		return 0, true
	default:
		return 0, false
	}
}

// finishBinary completes a binary literal `<len>\n<bytes>` given that lenRaw
// (the already-scanned decimal length) and l.lastChar == '\n' have both been
// established by the caller. Shared by the free-text Scan() dispatch and by
// the parameter frame decoder (component B), which uses the identical
// length-prefixed form for its Bin entries.
func (l *Lexer) finishBinary(lenRaw string) (*Token, error) {
	n, ok := parseUint64(lenRaw)
	if !ok {
		return nil, newErr(ErrInvalidNumericLiteral, l.position(), "binary literal length overflow")
	}
	l.next() // consume '\n'
	bodyStart := l.pos - 1
	bodyEnd := bodyStart + int(n)
	if bodyEnd > len(l.buf) {
		return nil, newErr(ErrUnexpectedChar, l.position(), "binary literal runs past end of input")
	}
	data := l.buf[bodyStart:bodyEnd]
	for i := 0; i < int(n); i++ {
		l.next()
	}
	return &Token{Kind: TokLiteral, Lit: Lit{Kind: LitBin, Bin: data}}, nil
}

// scanBinary scans a binary literal from the current position, where
// l.lastChar is the first digit of the length. Used by the parameter frame
// decoder, which positions a fresh Lexer directly at a Bin entry's length
// field rather than going through the general token dispatch.
func (l *Lexer) scanBinary() (*Token, error) {
	if !isDigit(l.lastChar) {
		return nil, newErr(ErrUnexpectedChar, l.position(), "expected binary literal length")
	}
	start := l.pos - 1
	for isDigit(l.lastChar) {
		l.next()
	}
	if l.lastChar != '\n' {
		return nil, newErr(ErrUnexpectedChar, l.position(), "expected newline after binary literal length")
	}
	lenRaw := string(l.buf[start : l.pos-1])
	return l.finishBinary(lenRaw)
}
