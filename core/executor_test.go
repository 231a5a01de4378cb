package core

import (
	"testing"

	"github.com/quiverdb/quiverd/ql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor() *Executor {
	ns := NewNamespace()
	return NewExecutor(ns, NewKVStore(), "twitter")
}

func mustExec(t *testing.T, ex *Executor, src string) any {
	t.Helper()
	stmt, err := ql.Parse([]byte(src), ql.ModeInsecure, nil)
	require.NoError(t, err)
	res, err := ex.Execute(stmt)
	require.NoError(t, err)
	return res
}

func execErr(t *testing.T, ex *Executor, src string) error {
	t.Helper()
	stmt, err := ql.Parse([]byte(src), ql.ModeInsecure, nil)
	require.NoError(t, err)
	_, err = ex.Execute(stmt)
	return err
}

// Scenario 1 (spec §8): create space twice, second fails AlreadyExists.
func TestCreateSpaceAlreadyExists(t *testing.T) {
	ex := newTestExecutor()
	mustExec(t, ex, `create space twitter with { env: { max_conn: 10 } }`)

	err := execErr(t, ex, `create space twitter with {}`)
	require.Error(t, err)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrDdlCreateSpaceAlreadyExists, cerr.Kind)
}

func setupUsersModel(t *testing.T, ex *Executor) {
	t.Helper()
	mustExec(t, ex, `create space twitter with {}`)
	mustExec(t, ex, `create model twitter.users (
		username string primary key,
		name string,
		email string,
		verified bool,
		following uint,
		followers uint
	)`)
}

// Scenario 2 (spec §8): insert a 6-field tuple, select it back, verify
// declaration-order field values and the encoded cell sequence.
func TestInsertSelectRoundtrip(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)

	mustExec(t, ex, `insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`)

	res := mustExec(t, ex, `select * from twitter.users where username = "sayan"`)
	rows, ok := res.([]map[string]Datacell)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, "Sayan", row["name"].Str())
	assert.Equal(t, "sayan@example.com", row["email"].Str())
	assert.True(t, row["verified"].Bool())
	assert.EqualValues(t, 12345, row["following"].UInt())
	assert.EqualValues(t, 67890, row["followers"].UInt())

	m, err := ex.resolveModel(ql.Entity{Space: "twitter", Model: "users"})
	require.NoError(t, err)
	order := make([]string, len(m.Fields))
	for i, fs := range m.Fields {
		order[i] = fs.Name
	}
	encoded := EncodeRow(order, row)

	expectedFields := []Datacell{
		NewStr("sayan"),
		NewStr("Sayan"),
		NewStr("sayan@example.com"),
		NewBool(true),
		NewUInt(12345),
		NewUInt(67890),
	}
	var want []byte
	want = append(want, encodeForTest(expectedFields)...)
	assert.Equal(t, want, encoded)
}

func encodeForTest(cells []Datacell) []byte {
	var out []byte
	fields := make(map[string]Datacell, len(cells))
	order := make([]string, len(cells))
	for i, c := range cells {
		name := string(rune('a' + i))
		fields[name] = c
		order[i] = name
	}
	out = EncodeRow(order, fields)
	return out
}

// Scenario 3 (spec §8): `followers += 10` applied twice lands at 67910.
func TestUpdateCompoundAssignmentTwice(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)
	mustExec(t, ex, `insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`)

	mustExec(t, ex, `update twitter.users set followers += 10 where username = "sayan"`)
	mustExec(t, ex, `update twitter.users set followers += 10 where username = "sayan"`)

	res := mustExec(t, ex, `select followers from twitter.users where username = "sayan"`)
	rows := res.([]map[string]Datacell)
	assert.EqualValues(t, 67910, rows[0]["followers"].UInt())
}

// UPDATE is atomic per-row (spec §4.D: "On any per-assignment failure, the
// row is left unmodified"): a failing second assignment must not leave the
// first assignment's effect committed.
func TestUpdateIsAtomicAcrossAssignments(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)
	mustExec(t, ex, `insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`)

	err := execErr(t, ex, `update twitter.users set followers += 10, name *= 5 where username = "sayan"`)
	require.Error(t, err)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrQExecDmlTypeMismatch, cerr.Kind)

	res := mustExec(t, ex, `select followers, name from twitter.users where username = "sayan"`)
	rows := res.([]map[string]Datacell)
	assert.EqualValues(t, 67890, rows[0]["followers"].UInt(), "followers must be unchanged since the update failed")
	assert.Equal(t, "Sayan", rows[0]["name"].Str())
}

// Scenario 4 (spec §8): delete of a nonexistent row is RowNotFound.
func TestDeleteNotFound(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)

	err := execErr(t, ex, `delete from twitter.users where username = "nobody"`)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrQExecDmlRowNotFound, cerr.Kind)
}

// Scenario 5 (spec §8): SSET with one key already present touches nothing
// and reports OverwriteErr.
func TestSSETOverwriteConflict(t *testing.T) {
	kv := NewKVStore()
	err := kv.SSET([]ql.KVPair{
		{Key: ql.Value{Lit: ql.Lit{Kind: ql.LitStr, Str: "k1"}}, Value: ql.Value{Lit: ql.Lit{Kind: ql.LitStr, Str: "v1"}}},
	})
	require.NoError(t, err)

	err = kv.SSET([]ql.KVPair{
		{Key: ql.Value{Lit: ql.Lit{Kind: ql.LitStr, Str: "k1"}}, Value: ql.Value{Lit: ql.Lit{Kind: ql.LitStr, Str: "v1-new"}}},
		{Key: ql.Value{Lit: ql.Lit{Kind: ql.LitStr, Str: "k2"}}, Value: ql.Value{Lit: ql.Lit{Kind: ql.LitStr, Str: "v2"}}},
	})
	require.Error(t, err)
	cerr := err.(*Error)
	assert.Equal(t, ErrOverwriteErr, cerr.Kind)

	assert.False(t, kv.Exists("k2"))
	v, _ := kv.Get("k1")
	assert.Equal(t, "v1", v.Str())
}

// Scenario 5 (spec §8), exercised through the Executor dispatch path rather
// than calling KVStore directly: ql.BuildStrongStmt pairs a flat literal
// list (as decoded off the wire by server.readRequest) into an *ql.Sset,
// and Executor.Execute dispatches it to KVStore.SSET.
func TestExecuteSSETOverwriteConflict(t *testing.T) {
	ex := newTestExecutor()

	lits := []ql.Lit{
		{Kind: ql.LitStr, Str: "k1"}, {Kind: ql.LitStr, Str: "v1"},
	}
	stmt, err := ql.BuildStrongStmt(ql.StrongSset, lits)
	require.NoError(t, err)
	_, err = ex.Execute(stmt)
	require.NoError(t, err)

	lits = []ql.Lit{
		{Kind: ql.LitStr, Str: "k1"}, {Kind: ql.LitStr, Str: "v1-new"},
		{Kind: ql.LitStr, Str: "k2"}, {Kind: ql.LitStr, Str: "v2"},
	}
	stmt, err = ql.BuildStrongStmt(ql.StrongSset, lits)
	require.NoError(t, err)
	_, err = ex.Execute(stmt)
	require.Error(t, err)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrOverwriteErr, cerr.Kind)

	assert.False(t, ex.KV.Exists("k2"))
	v, _ := ex.KV.Get("k1")
	assert.Equal(t, "v1", v.Str())
}

// Scenario 6 (spec §8): secure-mode parameter substitution yields the same
// result as the equivalent insecure literal query.
func TestSecureVsInsecureEquivalence(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)
	mustExec(t, ex, `insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`)

	insecure, err := ql.Parse([]byte(`select name from twitter.users where username = "sayan"`), ql.ModeInsecure, nil)
	require.NoError(t, err)

	frame, err := ql.DecodeParamFrame(append([]byte{5}, "5\nsayan"...), 1)
	require.NoError(t, err)
	secure, err := ql.Parse([]byte(`select name from twitter.users where username = ?`), ql.ModeSecure, frame)
	require.NoError(t, err)

	r1, err := ex.Execute(insecure)
	require.NoError(t, err)
	r2, err := ex.Execute(secure)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

// WHERE restriction (spec §8): anything but primary-key equality is
// UnsupportedPredicate and mutates nothing.
func TestWhereRestrictionRejectsNonPrimaryKeyPredicate(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)
	mustExec(t, ex, `insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`)

	err := execErr(t, ex, `delete from twitter.users where following = 12345`)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrQExecUnsupportedPredicate, cerr.Kind)

	res := mustExec(t, ex, `select * from twitter.users where username = "sayan"`)
	assert.Len(t, res.([]map[string]Datacell), 1)
}

func TestInsertAlreadyExists(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)
	mustExec(t, ex, `insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`)

	err := execErr(t, ex, `insert into twitter.users ("sayan", "Sayan 2", "s2@example.com", false, 1, 1)`)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrQExecDmlAlreadyExists, cerr.Kind)
}

func TestDropModelNotEmptyRequiresForce(t *testing.T) {
	ex := newTestExecutor()
	setupUsersModel(t, ex)
	mustExec(t, ex, `insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`)

	err := execErr(t, ex, `drop model twitter.users`)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrDdlNotEmpty, cerr.Kind)

	sp, ok := ex.NS.Space("twitter")
	require.True(t, ok)
	require.NoError(t, sp.DropModel("users", true))
}
