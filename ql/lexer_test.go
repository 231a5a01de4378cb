package ql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string, mode Mode) []Token {
	t.Helper()
	toks, err := Lex([]byte(src), mode)
	require.NoError(t, err)
	return toks
}

func TestLexKeywordsAndIdentsAreCaseInsensitive(t *testing.T) {
	toks := lexAll(t, "SELECT Select select", ModeInsecure)
	require.Len(t, toks, 3)
	for _, tok := range toks {
		assert.True(t, tok.isKeyword(KwSelect))
	}
}

func TestLexIdentifierNotKeyword(t *testing.T) {
	toks := lexAll(t, "username", ModeInsecure)
	require.Len(t, toks, 1)
	assert.Equal(t, TokIdent, toks[0].Kind)
	assert.Equal(t, "username", string(toks[0].Ident))
}

func TestLexBooleanLiterals(t *testing.T) {
	toks := lexAll(t, "true false", ModeInsecure)
	require.Len(t, toks, 2)
	assert.Equal(t, true, toks[0].Lit.Bool)
	assert.Equal(t, false, toks[1].Lit.Bool)
}

func TestLexUnsignedAndSignedIntegers(t *testing.T) {
	toks := lexAll(t, "12345 -67", ModeInsecure)
	require.Len(t, toks, 2)
	assert.Equal(t, LitUInt, toks[0].Lit.Kind)
	assert.EqualValues(t, 12345, toks[0].Lit.UInt)
	assert.Equal(t, LitSInt, toks[1].Lit.Kind)
	assert.EqualValues(t, -67, toks[1].Lit.SInt)
}

func TestLexIntegerOverflowIsRejected(t *testing.T) {
	_, err := Lex([]byte("99999999999999999999999999"), ModeInsecure)
	require.Error(t, err)
	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, ErrInvalidNumericLiteral, qe.Kind)
}

func TestLexFloatLiteral(t *testing.T) {
	toks := lexAll(t, "3.1415", ModeInsecure)
	require.Len(t, toks, 1)
	assert.Equal(t, LitFloat, toks[0].Lit.Kind)
	assert.InDelta(t, 3.1415, toks[0].Lit.Float, 1e-9)
}

func TestLexStringLiteralEscapesAndQuoting(t *testing.T) {
	toks := lexAll(t, `"sayan@example.com" 'it''s here' "a\nb"`, ModeInsecure)
	require.Len(t, toks, 3)
	assert.Equal(t, "sayan@example.com", toks[0].Lit.Str)
	assert.Equal(t, "it's here", toks[1].Lit.Str)
	assert.Equal(t, "a\nb", toks[2].Lit.Str)
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	_, err := Lex([]byte(`"unterminated`), ModeInsecure)
	require.Error(t, err)
	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, ErrInvalidStringLiteral, qe.Kind)
}

func TestLexBinaryLiteralForm(t *testing.T) {
	toks := lexAll(t, "5\nhello", ModeInsecure)
	require.Len(t, toks, 1)
	assert.Equal(t, LitBin, toks[0].Lit.Kind)
	assert.Equal(t, []byte("hello"), toks[0].Lit.Bin)
}

func TestLexWhitespaceInsensitiveRoundtrip(t *testing.T) {
	a := lexAll(t, "select * from t where x = 1", ModeInsecure)
	b := lexAll(t, "select   *  from\tt where x=1", ModeInsecure)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Kind, b[i].Kind)
	}
}

func TestLexSecureModeRejectsLiterals(t *testing.T) {
	_, err := Lex([]byte("select * from t where x = 5"), ModeSecure)
	require.Error(t, err)
	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, ErrInvalidSafeLiteral, qe.Kind)
}

func TestLexSecureModeAcceptsPlaceholder(t *testing.T) {
	toks := lexAll(t, "select * from t where x = ?", ModeSecure)
	last := toks[len(toks)-1]
	assert.True(t, last.isSymbol(SymQuestion))
}

func TestLexUnrecognizedByteIsError(t *testing.T) {
	_, err := Lex([]byte("\x01"), ModeInsecure)
	require.Error(t, err)
	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, ErrUnexpectedChar, qe.Kind)
}
