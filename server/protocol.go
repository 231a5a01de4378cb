package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/quiverdb/quiverd/core"
	"github.com/quiverdb/quiverd/ql"
)

// requestMode is the first byte of a request frame: which of the two
// parse entry points named in spec §6 to use.
type requestMode uint8

const (
	reqInsecure requestMode = iota
	reqSecure
	reqStrongOp
)

// strongOpcode is the second byte of a reqStrongOp frame, selecting which
// flat multi-key KV action (spec §4.D) the request names.
type strongOpcode uint8

const (
	opSset strongOpcode = iota
	opSdel
	opSupdate
)

var errConnClosed = errors.New("server: connection closed")

// readRequest reads one request frame from r:
//
//	mode byte | query len (u64 LE) | query bytes
//	                                 [param count (u32 LE) | param len (u64 LE) | param bytes]  (secure only)
//	mode byte | opcode byte | arg count (u32 LE) | arg len (u64 LE) | arg bytes                 (strong-op only)
//
// and parses it via the matching entry point named in spec §6
// (ql.ParseInsecure / ql.ParseSecure), or — for the flat multi-key KV
// actions spec §4.D calls out as "retained for backward compatibility with
// the KV layer" rather than part of the QL grammar proper — via
// ql.BuildStrongStmt over a parameter-frame-decoded argument list. This
// framing is the transport glue spec §1 explicitly puts outside the core's
// scope; the parse entry points it calls are the actual contract.
func readRequest(r io.Reader) (ql.Stmt, error) {
	var modeByte [1]byte
	if _, err := io.ReadFull(r, modeByte[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errConnClosed
		}
		return nil, err
	}

	switch requestMode(modeByte[0]) {
	case reqInsecure:
		query, err := readLenPrefixed(r)
		if err != nil {
			return nil, err
		}
		return ql.ParseInsecure(query)
	case reqSecure:
		query, err := readLenPrefixed(r)
		if err != nil {
			return nil, err
		}
		var countBuf [4]byte
		if _, err := io.ReadFull(r, countBuf[:]); err != nil {
			return nil, err
		}
		count := int(binary.LittleEndian.Uint32(countBuf[:]))
		params, err := readLenPrefixed(r)
		if err != nil {
			return nil, err
		}
		return ql.ParseSecure(query, params, count)
	case reqStrongOp:
		var opBuf [1]byte
		if _, err := io.ReadFull(r, opBuf[:]); err != nil {
			return nil, err
		}
		var countBuf [4]byte
		if _, err := io.ReadFull(r, countBuf[:]); err != nil {
			return nil, err
		}
		count := int(binary.LittleEndian.Uint32(countBuf[:]))
		args, err := readLenPrefixed(r)
		if err != nil {
			return nil, err
		}
		lits, err := ql.DecodeParamFrame(args, count)
		if err != nil {
			return nil, err
		}
		op, err := strongOpFromByte(opBuf[0])
		if err != nil {
			return nil, err
		}
		return ql.BuildStrongStmt(op, lits)
	default:
		return nil, fmt.Errorf("server: unrecognized request mode %d", modeByte[0])
	}
}

func strongOpFromByte(b byte) (ql.StrongOp, error) {
	switch strongOpcode(b) {
	case opSset:
		return ql.StrongSset, nil
	case opSdel:
		return ql.StrongSdel, nil
	case opSupdate:
		return ql.StrongSupdate, nil
	default:
		return 0, fmt.Errorf("server: unrecognized strong opcode %d", b)
	}
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// errorKindName extracts the stable error-kind string (spec §7) from
// whichever error package produced it, falling back to the bare error
// text for anything neither front end returns (defensive only: nothing
// in the core should produce an untyped error on user input).
func errorKindName(err error) string {
	var qlErr *ql.Error
	if errors.As(err, &qlErr) {
		return qlErr.Kind.String()
	}
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr.Kind.String()
	}
	return err.Error()
}
