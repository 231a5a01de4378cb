package core

import (
	"fmt"
	"log/slog"
)

// ErrorKind is the stable DDL/DML/KV-strong error surface (spec §7). The
// lex/parse surface lives in ql.ErrorKind; this one covers everything the
// namespace and executor can fail with.
type ErrorKind int

const (
	ErrSysBadItemID ErrorKind = iota
	ErrDdlSpaceBadProperty
	ErrDdlCreateSpaceAlreadyExists
	ErrDdlAlterSpaceNotFound
	ErrDdlDropSpaceNotFound
	ErrDdlModelBadSchema
	ErrDdlCreateModelAlreadyExists
	ErrDdlDropModelNotFound
	ErrDdlNotEmpty

	ErrQExecUnknownField
	ErrQExecDmlRowNotFound
	ErrQExecDmlAlreadyExists
	ErrQExecDmlTypeMismatch
	ErrQExecUnsupportedPredicate

	ErrActionErr
	ErrOverwriteErr
	ErrNil
	ErrServerErr
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSysBadItemID:
		return "SysBadItemID"
	case ErrDdlSpaceBadProperty:
		return "DdlSpaceBadProperty"
	case ErrDdlCreateSpaceAlreadyExists:
		return "DdlCreateSpaceAlreadyExists"
	case ErrDdlAlterSpaceNotFound:
		return "DdlAlterSpaceNotFound"
	case ErrDdlDropSpaceNotFound:
		return "DdlDropSpaceNotFound"
	case ErrDdlModelBadSchema:
		return "DdlModelBadSchema"
	case ErrDdlCreateModelAlreadyExists:
		return "DdlCreateModelAlreadyExists"
	case ErrDdlDropModelNotFound:
		return "DdlDropModelNotFound"
	case ErrDdlNotEmpty:
		return "DdlNotEmpty"
	case ErrQExecUnknownField:
		return "QExecUnknownField"
	case ErrQExecDmlRowNotFound:
		return "QExecDmlRowNotFound"
	case ErrQExecDmlAlreadyExists:
		return "QExecDmlAlreadyExists"
	case ErrQExecDmlTypeMismatch:
		return "QExecDmlTypeMismatch"
	case ErrQExecUnsupportedPredicate:
		return "QExecUnsupportedPredicate"
	case ErrActionErr:
		return "ActionErr"
	case ErrOverwriteErr:
		return "OverwriteErr"
	case ErrNil:
		return "Nil"
	case ErrServerErr:
		return "ServerErr"
	default:
		return "Unknown"
	}
}

// Error is a DDL/DML/KV-strong failure. All errors here are ordinary
// values; nothing in this package panics on user input (spec §7).
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newErr(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// internalError logs an invariant violation and returns it to the caller as
// ServerErr, per spec §7: "internal invariant violations abort the current
// request with ServerErr and emit an internal log" rather than panicking.
func internalError(fields ...any) *Error {
	slog.Error("internal invariant violation", fields...)
	return newErr(ErrServerErr, "internal invariant violation")
}
