package server

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponseAck(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, AckResponse()))

	want := []byte{byte(RespAck), 0, 0, 0, 0, 0, 0, 0, 0}
	assert.Equal(t, want, buf.Bytes())
}

func TestWriteResponseRow(t *testing.T) {
	var buf bytes.Buffer
	data := []byte{1, 2, 3}
	require.NoError(t, WriteResponse(&buf, RowResponse(data)))

	assert.Equal(t, byte(RespRow), buf.Bytes()[0])
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(buf.Bytes()[1:9]))
	assert.Equal(t, data, buf.Bytes()[9:])
}

func TestWriteResponseError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, ErrorResponse("QExecDmlRowNotFound")))

	assert.Equal(t, byte(RespError), buf.Bytes()[0])
	assert.Equal(t, "QExecDmlRowNotFound", string(buf.Bytes()[9:]))
}
