package ql

// DecodeParamFrame decodes a byte stream of n typed parameter entries
// (spec §4.B), used by the parser in secure mode to resolve `?` placeholders
// in order. After exactly n entries are parsed, the remaining input must be
// empty, otherwise the frame is rejected wholesale with BadPframe.
func DecodeParamFrame(src []byte, n int) ([]Lit, error) {
	d := &pframeDecoder{buf: src}
	lits := make([]Lit, 0, n)
	for i := 0; i < n; i++ {
		lit, err := d.entry()
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
	}
	if d.pos != len(d.buf) {
		return nil, newErr(ErrBadPframe, d.pos, "trailing bytes after declared entry count")
	}
	return lits, nil
}

type pframeDecoder struct {
	buf []byte
	pos int
}

func (d *pframeDecoder) entry() (Lit, error) {
	code, ok := d.readByte()
	if !ok {
		return Lit{}, newErr(ErrBadPframe, d.pos, "truncated frame: expected a type code")
	}
	switch code {
	case 0:
		return d.readUInt()
	case 1:
		return d.readSInt()
	case 2:
		return d.readBool()
	case 3:
		return d.readFloat()
	case 4:
		return d.readBin()
	case 5:
		return d.readStr()
	default:
		return Lit{}, newErr(ErrBadPframe, d.pos-1, "unrecognized parameter type code")
	}
}

func (d *pframeDecoder) readByte() (byte, bool) {
	if d.pos >= len(d.buf) {
		return 0, false
	}
	b := d.buf[d.pos]
	d.pos++
	return b, true
}

// readLine reads up to (and consuming) the next LF, returning the bytes
// before it.
func (d *pframeDecoder) readLine() ([]byte, bool) {
	start := d.pos
	for d.pos < len(d.buf) {
		if d.buf[d.pos] == '\n' {
			line := d.buf[start:d.pos]
			d.pos++
			return line, true
		}
		d.pos++
	}
	return nil, false
}

func (d *pframeDecoder) readUInt() (Lit, error) {
	line, ok := d.readLine()
	if !ok {
		return Lit{}, newErr(ErrBadPframe, d.pos, "truncated UInt entry")
	}
	v, ok := parseUint64(string(line))
	if !ok {
		return Lit{}, newErr(ErrBadPframe, d.pos, "malformed or overflowing UInt entry")
	}
	return Lit{Kind: LitUInt, UInt: v}, nil
}

func (d *pframeDecoder) readSInt() (Lit, error) {
	line, ok := d.readLine()
	if !ok {
		return Lit{}, newErr(ErrBadPframe, d.pos, "truncated SInt entry")
	}
	s := string(line)
	negative := false
	if len(s) > 0 && s[0] == '-' {
		negative = true
		s = s[1:]
	}
	v, ok := parseUint64(s)
	if !ok || v > 1<<63 {
		return Lit{}, newErr(ErrBadPframe, d.pos, "malformed or overflowing SInt entry")
	}
	if negative {
		return Lit{Kind: LitSInt, SInt: -int64(v)}, nil
	}
	if v == 1<<63 {
		return Lit{}, newErr(ErrBadPframe, d.pos, "malformed or overflowing SInt entry")
	}
	return Lit{Kind: LitSInt, SInt: int64(v)}, nil
}

func (d *pframeDecoder) readBool() (Lit, error) {
	line, ok := d.readLine()
	if !ok {
		return Lit{}, newErr(ErrBadPframe, d.pos, "truncated Bool entry")
	}
	switch string(line) {
	case "true":
		return Lit{Kind: LitBool, Bool: true}, nil
	case "false":
		return Lit{Kind: LitBool, Bool: false}, nil
	default:
		return Lit{}, newErr(ErrBadPframe, d.pos, "Bool entry must be literal true or false")
	}
}

// readLenPrefixed reads the shared `<len>\n<bytes>` shape used by Float,
// Bin and Str entries, by re-entering the lexer's binary-literal scanner at
// the current position — the two grammars are byte-identical.
func (d *pframeDecoder) readLenPrefixed() ([]byte, error) {
	l := &Lexer{buf: d.buf, pos: d.pos, mode: ModeInsecure}
	l.next()
	tok, err := l.scanBinary()
	if err != nil {
		if e, ok := err.(*Error); ok {
			return nil, newErr(ErrBadPframe, e.Position, e.Msg)
		}
		return nil, err
	}
	// The scanner has already read the byte after the entry into lastChar;
	// resume at that byte unless the entry ran to the end of the buffer.
	if l.lastChar == eofChar {
		d.pos = l.pos
	} else {
		d.pos = l.pos - 1
	}
	return tok.Lit.Bin, nil
}

func (d *pframeDecoder) readFloat() (Lit, error) {
	raw, err := d.readLenPrefixed()
	if err != nil {
		return Lit{}, err
	}
	f, ferr := parseFloat(string(raw))
	if ferr != nil {
		return Lit{}, newErr(ErrBadPframe, d.pos, "malformed Float entry")
	}
	return Lit{Kind: LitFloat, Float: f}, nil
}

func (d *pframeDecoder) readBin() (Lit, error) {
	raw, err := d.readLenPrefixed()
	if err != nil {
		return Lit{}, err
	}
	return Lit{Kind: LitBin, Bin: raw}, nil
}

func (d *pframeDecoder) readStr() (Lit, error) {
	raw, err := d.readLenPrefixed()
	if err != nil {
		return Lit{}, err
	}
	return Lit{Kind: LitStr, Str: string(raw)}, nil
}
