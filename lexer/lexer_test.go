package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjscript/cjc/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(src, "test")
	var toks []token.Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestOperatorsAndPunctuation(t *testing.T) {
	toks := scanAll(t, `+ - * / % ** // .. ..= ... == >= <= != << >> :: => && || ?? ! ~ #`)
	assert.Equal(t, []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.POW,
		token.IDIV, token.RANGE_EXCL, token.RANGE_INCL, token.ELLIPSIS, token.EQ,
		token.GE, token.LE, token.NE, token.SHL, token.SHR, token.DCOLON, token.ARROW,
		token.AND, token.OR, token.COALESCE, token.BANG, token.TILDE, token.HASH, token.EOF,
	}, kinds(toks))
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll(t, `class Dog let x var y match`)
	assert.Equal(t, []token.Kind{
		token.CLASS, token.IDENT, token.LET, token.IDENT, token.VAR, token.IDENT, token.MATCH, token.EOF,
	}, kinds(toks))
}

func TestIdentifierInterning(t *testing.T) {
	l := New(`foo foo`, "test")
	a, err := l.Next()
	require.NoError(t, err)
	b, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.IDENT, a.Kind)
	require.Equal(t, token.IDENT, b.Kind)
	// same backing bytes must intern to the identical handle
	assert.Same(t, l.strTable["foo"], l.strTable["foo"])
	assert.Equal(t, a.Str, b.Str)
}

func TestNumberDotDisambiguation(t *testing.T) {
	// "1.even()" must scan as INT(1) . IDENT(even) ( ) — not a malformed float.
	toks := scanAll(t, `1.even()`)
	assert.Equal(t, []token.Kind{token.INT, token.DOT, token.IDENT, token.LPAREN, token.RPAREN, token.EOF}, kinds(toks))
	assert.Equal(t, float64(1), toks[0].Num)
}

func TestNumberRangeDisambiguation(t *testing.T) {
	toks := scanAll(t, `0..10`)
	assert.Equal(t, []token.Kind{token.INT, token.RANGE_EXCL, token.INT, token.EOF}, kinds(toks))
}

func TestFloatScientificNotation(t *testing.T) {
	toks := scanAll(t, `1.5e10 2.0E-3 0x1.8p3`)
	require.Len(t, toks, 4)
	assert.Equal(t, token.FLOAT, toks[0].Kind)
	assert.Equal(t, 1.5e10, toks[0].Num)
	assert.Equal(t, token.FLOAT, toks[1].Kind)
	assert.Equal(t, token.FLOAT, toks[2].Kind)
}

func TestHexInteger(t *testing.T) {
	toks := scanAll(t, `0xFF 0x10`)
	assert.Equal(t, float64(255), toks[0].Num)
	assert.Equal(t, float64(16), toks[1].Num)
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\tb\n\x41\u{1F600}"`, "test")
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nA\U0001F600", tok.Str)
}

func TestStringInterpolationSplitsAtBrace(t *testing.T) {
	l := New(`"a${x}b"`, "test")
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Str)
	assert.Equal(t, 1, l.depth)
	assert.True(t, l.PendingInterpolation())

	next, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, token.IDENT, next.Kind)
	assert.Equal(t, "x", next.Str)

	// parser consumes '}' itself, then calls Resume
	rb, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, token.RBRACE, rb.Kind)

	tail, res, err := l.Resume()
	require.NoError(t, err)
	assert.Equal(t, "b", tail.Str)
	assert.False(t, res.Interpolate)
	assert.Equal(t, 0, l.depth)
	assert.False(t, l.PendingInterpolation())
}

func TestUnterminatedStringErrors(t *testing.T) {
	l := New(`"abc`, "test")
	_, err := l.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unfinished string")
}

func TestUnterminatedBlockCommentErrors(t *testing.T) {
	l := New("/* never closes", "chunk1")
	_, err := l.Next()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 1, lexErr.Line)
}

func TestNestedBlockComments(t *testing.T) {
	toks := scanAll(t, "/* outer /* inner */ still comment */ 42")
	assert.Equal(t, []token.Kind{token.INT, token.EOF}, kinds(toks))
}

func TestLineCounting(t *testing.T) {
	l := New("1\n2\r\n3", "test")
	for i := 0; i < 3; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, i+1, tok.Line)
	}
}
