package server

import (
	"encoding/binary"
	"io"
)

// ResponseType discriminates the three response shapes the executor can
// produce (spec §6): a successful DDL/INSERT/UPDATE/DELETE is an Ack, a
// SELECT that finds its row is a Row response, and any failure is an Error
// carrying its stable error-kind name.
type ResponseType uint8

const (
	RespAck ResponseType = iota
	RespRow
	RespError
)

// Response is the wire envelope named in spec §6:
// `Response::Serialized { ty: ResponseType, size: u64, data: bytes }`.
// Row's data is produced by core.EncodeRow; Error's data is the UTF-8
// error-kind name; Ack's data is empty.
type Response struct {
	Type ResponseType
	Data []byte
}

// WriteResponse frames resp onto w: one type byte, an 8-byte
// little-endian size, then data. This is the one piece of wire framing
// the core deliberately leaves to its caller (spec §6's "it is the
// transport's responsibility to deliver these two byte blobs" applies
// symmetrically to responses).
func WriteResponse(w io.Writer, resp Response) error {
	if _, err := w.Write([]byte{byte(resp.Type)}); err != nil {
		return err
	}
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(resp.Data)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(resp.Data)
	return err
}

// AckResponse is the empty success response for DDL/INSERT/UPDATE/DELETE.
func AckResponse() Response { return Response{Type: RespAck} }

// ErrorResponse wraps an error-kind name as the wire Error response.
func ErrorResponse(kind string) Response {
	return Response{Type: RespError, Data: []byte(kind)}
}

// RowResponse wraps already-encoded row bytes (core.EncodeRow's output).
func RowResponse(data []byte) Response {
	return Response{Type: RespRow, Data: data}
}
