package server

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/quiverdb/quiverd/core"
	"github.com/quiverdb/quiverd/ql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeLenPrefixed(buf *bytes.Buffer, data []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

func TestReadRequestInsecure(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(reqInsecure))
	encodeLenPrefixed(&buf, []byte(`select * from twitter.users where username = "sayan"`))

	stmt, err := readRequest(&buf)
	require.NoError(t, err)
	sel, ok := stmt.(*ql.Select)
	require.True(t, ok)
	assert.True(t, sel.Star)
}

func TestReadRequestSecure(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(reqSecure))
	encodeLenPrefixed(&buf, []byte(`select * from twitter.users where username = ?`))

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], 1)
	buf.Write(countBuf[:])

	param := append([]byte{5}, []byte("5\nsayan")...)
	encodeLenPrefixed(&buf, param)

	stmt, err := readRequest(&buf)
	require.NoError(t, err)
	sel, ok := stmt.(*ql.Select)
	require.True(t, ok)
	assert.True(t, sel.Star)
}

func TestReadRequestStrongOpSset(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(reqStrongOp))
	buf.WriteByte(byte(opSset))

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], 4)
	buf.Write(countBuf[:])

	var args bytes.Buffer
	for _, s := range []string{"k1", "v1", "k2", "v2"} {
		args.WriteByte(5) // Str type code
		args.WriteString("2\n")
		args.WriteString(s)
	}
	encodeLenPrefixed(&buf, args.Bytes())

	stmt, err := readRequest(&buf)
	require.NoError(t, err)
	sset, ok := stmt.(*ql.Sset)
	require.True(t, ok)
	require.Len(t, sset.Pairs, 2)
	assert.Equal(t, "k1", sset.Pairs[0].Key.Lit.Str)
	assert.Equal(t, "v1", sset.Pairs[0].Value.Lit.Str)
	assert.Equal(t, "k2", sset.Pairs[1].Key.Lit.Str)
	assert.Equal(t, "v2", sset.Pairs[1].Value.Lit.Str)
}

func TestReadRequestStrongOpOddArityIsSyntaxError(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(reqStrongOp))
	buf.WriteByte(byte(opSset))

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], 1)
	buf.Write(countBuf[:])

	var args bytes.Buffer
	args.WriteByte(5)
	args.WriteString("2\nk1")
	encodeLenPrefixed(&buf, args.Bytes())

	_, err := readRequest(&buf)
	var qlErr *ql.Error
	require.ErrorAs(t, err, &qlErr)
	assert.Equal(t, ql.ErrSyntaxError, qlErr.Kind)
}

func TestReadRequestEmptyIsConnClosed(t *testing.T) {
	_, err := readRequest(&bytes.Buffer{})
	assert.ErrorIs(t, err, errConnClosed)
}

func TestErrorKindNameUnwrapsTypedErrors(t *testing.T) {
	qlErr := &ql.Error{Kind: ql.ErrSyntaxError}
	assert.Equal(t, "SyntaxError", errorKindName(qlErr))

	coreErr := &core.Error{Kind: core.ErrQExecDmlRowNotFound}
	assert.Equal(t, "QExecDmlRowNotFound", errorKindName(coreErr))
}
