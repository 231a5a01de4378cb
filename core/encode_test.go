package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeCellNullIsSingleZeroByte(t *testing.T) {
	out := EncodeRow([]string{"x"}, map[string]Datacell{"x": Null()})
	assert.Equal(t, []byte{0}, out)
}

func TestEncodeCellBool(t *testing.T) {
	out := EncodeRow([]string{"x"}, map[string]Datacell{"x": NewBool(true)})
	assert.Equal(t, []byte{selectorFor(ClassBool) + 1, 1, '\n'}, out)
}

func TestEncodeCellStrHasNoTrailingLF(t *testing.T) {
	out := EncodeRow([]string{"x"}, map[string]Datacell{"x": NewStr("hi")})
	want := append([]byte{selectorFor(ClassStr) + 1}, []byte("2\nhi")...)
	assert.Equal(t, want, out)
}

func TestEncodeCellListRecurses(t *testing.T) {
	list := NewList(NewUInt(1), NewUInt(2))
	out := EncodeRow([]string{"x"}, map[string]Datacell{"x": list})

	want := []byte{selectorFor(ClassList) + 1}
	want = append(want, []byte("2\n")...)
	want = append(want, selectorFor(ClassUInt)+1)
	want = append(want, []byte("1\n")...)
	want = append(want, selectorFor(ClassUInt)+1)
	want = append(want, []byte("2\n")...)
	assert.Equal(t, want, out)
}

func TestEncodeCellIsDeterministicAndRoundtrips(t *testing.T) {
	cell := NewUInt(424242)
	out1 := EncodeRow([]string{"x"}, map[string]Datacell{"x": cell})
	out2 := EncodeRow([]string{"x"}, map[string]Datacell{"x": cell})
	assert.Equal(t, out1, out2)
	assert.Equal(t, "424242\n", string(out1[1:]))
}
