package ql

// StrongOp names which flat multi-key KV action a request names. These are
// "retained for backward compatibility with the KV layer" (spec §4.D) and
// are not part of the QL grammar proper (§4.C's EBNF has no SSET/SDEL/
// SUPDATE production, and they aren't in the reserved-word set in §4.A) —
// they arrive as a distinct protocol-level action carrying a flat,
// parameter-frame-encoded argument list, the same encoding secure mode
// already uses for `?` placeholders.
type StrongOp int

const (
	StrongSset StrongOp = iota
	StrongSdel
	StrongSupdate
)

// BuildStrongStmt pairs a flat, already-decoded literal list into the
// matching Sset/Sdel/Supdate statement tree, enforcing the arity rule spec
// §4.D names for each: SSET/SUPDATE take non-zero, even-length key/value
// pairs; SDEL takes a non-zero flat list of keys. Decoding the literal list
// itself is the caller's job (DecodeParamFrame); this only paginates and
// arity-checks.
func BuildStrongStmt(op StrongOp, lits []Lit) (Stmt, error) {
	vals := make([]Value, len(lits))
	for i, lit := range lits {
		vals[i] = Value{Lit: lit}
	}
	switch op {
	case StrongSdel:
		if len(vals) == 0 {
			return nil, newErr(ErrSyntaxError, 0, "SDEL requires at least one key")
		}
		return &Sdel{Keys: vals}, nil
	case StrongSset, StrongSupdate:
		if len(vals) == 0 || len(vals)%2 != 0 {
			return nil, newErr(ErrSyntaxError, 0, "SSET/SUPDATE require a non-zero, even number of key/value entries")
		}
		pairs := make([]KVPair, len(vals)/2)
		for i := range pairs {
			pairs[i] = KVPair{Key: vals[2*i], Value: vals[2*i+1]}
		}
		if op == StrongSset {
			return &Sset{Pairs: pairs}, nil
		}
		return &Supdate{Pairs: pairs}, nil
	default:
		return nil, newErr(ErrSyntaxError, 0, "unrecognized strong op")
	}
}
