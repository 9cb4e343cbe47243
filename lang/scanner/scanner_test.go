package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/token"
)

func scan(t *testing.T, src string) []*token.Token {
	t.Helper()
	f := source.NewFile("test.c", 1, []byte(src))
	var errs diag.List
	tok := Tokenize(f, &errs)
	require.NoError(t, errs.Err())

	var out []*token.Token
	for ; tok != nil; tok = tok.Next {
		out = append(out, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return out
}

func TestTokenizeIdentifiersAndPunct(t *testing.T) {
	toks := scan(t, "int x = 1 + 2;")

	kinds := make([]token.Kind, 0, len(toks))
	texts := make([]string, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text())
	}

	assert.Equal(t, []string{"int", "x", "=", "1", "+", "2", ";", ""}, texts)
	assert.Equal(t, token.IDENT, kinds[0]) // "int" is re-tagged KEYWORD only after pp.Run's ConvertKeywords
	assert.Equal(t, token.NUM, kinds[3])
	assert.Equal(t, token.PUNCT, kinds[2])
	assert.Equal(t, token.EOF, kinds[len(kinds)-1])
}

func TestTokenizeNumericLiterals(t *testing.T) {
	toks := scan(t, "0x1A 010 3.14 1u 1L")
	require.Len(t, toks, 6) // 5 numbers + EOF

	for _, tok := range toks[:5] {
		assert.Equal(t, token.NUM, tok.Kind)
	}
	assert.Equal(t, uint64(0x1A), toks[0].IntVal)
	assert.Equal(t, uint64(010), toks[1].IntVal)
	assert.Equal(t, token.NumFloat, toks[2].NumKind)
	assert.InDelta(t, 3.14, toks[2].FloatVal, 1e-9)
	assert.True(t, toks[3].NumType != nil)
}

func TestTokenizeStringAndCharLiterals(t *testing.T) {
	toks := scan(t, `"hi\n" 'a'`)
	require.Len(t, toks, 3) // string, char-as-num, EOF

	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, []byte("hi\n\x00"), toks[0].StrVal)

	// C char constants are typed int and lexed as NUM, per original_source's
	// read_char_literal.
	assert.Equal(t, token.NUM, toks[1].Kind)
	assert.Equal(t, uint64('a'), toks[1].IntVal)
}

func TestTokenizeLineTracking(t *testing.T) {
	toks := scan(t, "int a;\nint b;\n")
	var lines []int
	for _, tok := range toks {
		if tok.Kind == token.EOF {
			break
		}
		lines = append(lines, tok.Line)
	}
	assert.Equal(t, []int{1, 1, 1, 2, 2, 2}, lines)
}
