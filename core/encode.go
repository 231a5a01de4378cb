package core

import (
	"bytes"
	"strconv"
)

// selectorFor maps a Datacell's class to the narrower wire selector
// consulted by the encoder (spec §3: "two tags: a class ... and a narrower
// selector used by the wire encoder"). This implementation keeps selector
// numerically equal to class-minus-Null, in declaration order; the wire
// contract is the resulting bytes, not this particular numbering (spec §4.G
// doesn't pin exact selector values, only the `(selector+1)*is_init` lead
// byte rule).
func selectorFor(c Class) uint8 {
	return uint8(c - 1) // ClassNull == 0, so every real class is >= 1
}

// EncodeRow serializes fields, in the order given by order (caller supplies
// declaration order for `select *`, or the requested field list otherwise),
// as a sequence of encoded cells (spec §4.G). Framing (response type, size)
// is the caller's responsibility — this produces only the `data` bytes.
func EncodeRow(order []string, fields map[string]Datacell) []byte {
	var buf bytes.Buffer
	for _, name := range order {
		encodeCell(&buf, fields[name])
	}
	return buf.Bytes()
}

// encodeCell appends one cell's wire encoding to buf (spec §4.G).
func encodeCell(buf *bytes.Buffer, item Datacell) {
	if item.IsNull() {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(selectorFor(item.Class()) + 1)

	switch item.Class() {
	case ClassBool:
		if item.Bool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		buf.WriteByte('\n')
	case ClassUInt:
		buf.WriteString(strconv.FormatUint(item.UInt(), 10))
		buf.WriteByte('\n')
	case ClassSInt:
		buf.WriteString(strconv.FormatInt(item.SInt(), 10))
		buf.WriteByte('\n')
	case ClassFloat:
		buf.WriteString(strconv.FormatFloat(item.Float(), 'g', -1, 64))
		buf.WriteByte('\n')
	case ClassStr:
		raw := []byte(item.Str())
		buf.WriteString(strconv.Itoa(len(raw)))
		buf.WriteByte('\n')
		buf.Write(raw)
	case ClassBin:
		raw := item.Bin()
		buf.WriteString(strconv.Itoa(len(raw)))
		buf.WriteByte('\n')
		buf.Write(raw)
	case ClassList:
		item.ViewList(func(items []Datacell) {
			buf.WriteString(strconv.Itoa(len(items)))
			buf.WriteByte('\n')
			for _, sub := range items {
				encodeCell(buf, sub)
			}
		})
	}
}
