package ql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateSpaceWithEnvProps(t *testing.T) {
	stmt, err := Parse([]byte(`create space twitter with { env: { MAX_MEMORY: 1000 } }`), ModeInsecure, nil)
	require.NoError(t, err)
	cs, ok := stmt.(*CreateSpace)
	require.True(t, ok)
	assert.Equal(t, "twitter", cs.Name)
	env, ok := cs.Props["env"]
	require.True(t, ok)
	require.NotNil(t, env.Nested)
	assert.EqualValues(t, 1000, env.Nested["MAX_MEMORY"].Lit.UInt)
}

func TestParseCreateModelSixFields(t *testing.T) {
	src := `create model twitter.users (
		username string primary key,
		name string,
		email string,
		verified bool,
		following uint,
		followers uint
	)`
	stmt, err := Parse([]byte(src), ModeInsecure, nil)
	require.NoError(t, err)
	cm, ok := stmt.(*CreateModel)
	require.True(t, ok)
	assert.Equal(t, "twitter", cm.Entity.Space)
	assert.Equal(t, "users", cm.Entity.Model)
	require.Len(t, cm.Fields, 6)
	assert.True(t, cm.Fields[0].IsPrimary)
	assert.False(t, cm.Fields[1].IsPrimary)
}

func TestParseCreateModelRejectsDuplicateFieldNames(t *testing.T) {
	_, err := Parse([]byte(`create model m (x string primary key, x string)`), ModeInsecure, nil)
	require.Error(t, err)
}

func TestParseCreateModelRejectsMultiplePrimaryKeys(t *testing.T) {
	_, err := Parse([]byte(`create model m (x string primary key, y string primary key)`), ModeInsecure, nil)
	require.Error(t, err)
}

func TestParseInsertTuple(t *testing.T) {
	stmt, err := Parse([]byte(`insert into twitter.users ("sayan", "Sayan", "sayan@example.com", true, 12345, 67890)`), ModeInsecure, nil)
	require.NoError(t, err)
	ins, ok := stmt.(*Insert)
	require.True(t, ok)
	require.Len(t, ins.Tuple, 6)
	assert.Equal(t, "sayan", ins.Tuple[0].Lit.Str)
	assert.True(t, ins.Tuple[3].Lit.Bool)
}

func TestParseInsertMap(t *testing.T) {
	stmt, err := Parse([]byte(`insert into users { username: "sayan", age: 21 }`), ModeInsecure, nil)
	require.NoError(t, err)
	ins, ok := stmt.(*Insert)
	require.True(t, ok)
	require.NotNil(t, ins.Map)
	assert.Equal(t, "sayan", ins.Map["username"].Lit.Str)
	assert.EqualValues(t, 21, ins.Map["age"].Lit.UInt)
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse([]byte(`select * from twitter.users where username = "sayan"`), ModeInsecure, nil)
	require.NoError(t, err)
	sel, ok := stmt.(*Select)
	require.True(t, ok)
	assert.True(t, sel.Star)
	require.Len(t, sel.Where.Clauses, 1)
	assert.Equal(t, "username", sel.Where.Clauses[0].Field)
	assert.Equal(t, RelEq, sel.Where.Clauses[0].Op)
}

func TestParseSelectFieldListAndMultipleRelops(t *testing.T) {
	stmt, err := Parse([]byte(`select name, email from users where age >= 18 and verified = true`), ModeInsecure, nil)
	require.NoError(t, err)
	sel := stmt.(*Select)
	assert.False(t, sel.Star)
	assert.Equal(t, []string{"name", "email"}, sel.Fields)
	require.Len(t, sel.Where.Clauses, 2)
	assert.Equal(t, RelGte, sel.Where.Clauses[0].Op)
}

func TestParseSelectRejectsDuplicateWhereLHS(t *testing.T) {
	_, err := Parse([]byte(`select * from users where x = 1 and x = 2`), ModeInsecure, nil)
	require.Error(t, err)
	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, ErrSyntaxError, qe.Kind)
}

func TestParseUpdateCompoundAssignment(t *testing.T) {
	stmt, err := Parse([]byte(`update users set followers += 1 where username = "sayan"`), ModeInsecure, nil)
	require.NoError(t, err)
	upd, ok := stmt.(*Update)
	require.True(t, ok)
	require.Len(t, upd.Assignments, 1)
	assert.Equal(t, AssignAdd, upd.Assignments[0].Op)
	assert.EqualValues(t, 1, upd.Assignments[0].Value.Lit.UInt)
}

func TestParseDeleteStatement(t *testing.T) {
	stmt, err := Parse([]byte(`delete from users where username = "sayan"`), ModeInsecure, nil)
	require.NoError(t, err)
	del, ok := stmt.(*Delete)
	require.True(t, ok)
	assert.Equal(t, "users", del.Entity.Model)
}

func TestParseSecureModeSubstitutesPlaceholders(t *testing.T) {
	lits := []Lit{{Kind: LitStr, Str: "sayan"}}
	stmt, err := Parse([]byte(`select * from users where username = ?`), ModeSecure, lits)
	require.NoError(t, err)
	sel := stmt.(*Select)
	assert.Equal(t, "sayan", sel.Where.Clauses[0].Value.Lit.Str)
}

func TestParseSecureModeRejectsMismatchedPlaceholderCount(t *testing.T) {
	_, err := Parse([]byte(`select * from users where username = ? and age = ?`), ModeSecure, []Lit{{Kind: LitStr, Str: "sayan"}})
	require.Error(t, err)
}

func TestParseDropSpaceAndModel(t *testing.T) {
	stmt, err := Parse([]byte(`drop space twitter`), ModeInsecure, nil)
	require.NoError(t, err)
	drop := stmt.(*Drop)
	assert.Equal(t, DropSpaceKind, drop.Kind)
	assert.Equal(t, "twitter", drop.Name)

	stmt2, err := Parse([]byte(`drop model twitter.users`), ModeInsecure, nil)
	require.NoError(t, err)
	drop2 := stmt2.(*Drop)
	assert.Equal(t, DropModelKind, drop2.Kind)
	assert.Equal(t, "twitter", drop2.Entity.Space)
}

func TestParseAlterSpaceMergesEnv(t *testing.T) {
	stmt, err := Parse([]byte(`alter space twitter with { env: { MAX_MEMORY: null } }`), ModeInsecure, nil)
	require.NoError(t, err)
	alt := stmt.(*AlterSpace)
	assert.True(t, alt.Props["env"].Nested["MAX_MEMORY"].IsNull)
}
